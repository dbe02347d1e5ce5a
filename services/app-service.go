package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"flask-test-app/models"

	"github.com/cockroachdb/errors"
)

const (
	AppVersion  = "1.0.0"
	ServiceName = "flask-test-app"
	DefaultName = "World"
)

var (
	ErrNoJSONData        = errors.New("no JSON data provided")
	ErrMissingParameters = errors.New("missing parameters: a and b are required")
	ErrInvalidNumber     = errors.New("invalid number format")
)

// AppService holds the logic behind the HTTP routes. It has no state.
type AppService struct{}

func NewAppService() *AppService {
	return &AppService{}
}

func (s *AppService) Welcome() models.WelcomeResponse {
	return models.WelcomeResponse{
		Message: "Welcome to Flask Test App",
		Status:  models.StatusSuccess,
		Version: AppVersion,
	}
}

func (s *AppService) Health() models.HealthResponse {
	return models.HealthResponse{
		Status:  models.StatusHealthy,
		Service: ServiceName,
	}
}

// Hello greets name verbatim; callers pass DefaultName when no name was given.
func (s *AppService) Hello(name string) models.HelloResponse {
	return models.HelloResponse{
		Message: "Hello, " + name + "!",
		Status:  models.StatusSuccess,
	}
}

// Add validates a decoded JSON document and sums its "a" and "b" members.
// data must come from a decoder with UseNumber enabled so the operands are
// echoed in their original form.
func (s *AppService) Add(data any) (models.AddResponse, error) {
	if !truthy(data) {
		return models.AddResponse{}, ErrNoJSONData
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return models.AddResponse{}, errors.Wrapf(ErrMissingParameters, "payload is %T, not an object", data)
	}

	a, b := obj["a"], obj["b"]
	if a == nil || b == nil {
		return models.AddResponse{}, ErrMissingParameters
	}

	x, err := ToFloat(a)
	if err != nil {
		return models.AddResponse{}, errors.Wrap(err, "operand a")
	}
	y, err := ToFloat(b)
	if err != nil {
		return models.AddResponse{}, errors.Wrap(err, "operand b")
	}

	sum := x + y
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return models.AddResponse{}, errors.Wrapf(ErrInvalidNumber, "sum %v is not representable in JSON", sum)
	}

	return models.AddResponse{
		Result: sum,
		A:      a,
		B:      b,
		Status: models.StatusSuccess,
	}, nil
}

// ToFloat converts a decoded JSON value to float64. Booleans count as 1 and 0,
// strings are parsed after trimming whitespace. Objects and arrays are rejected.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return 0, errors.Mark(errors.Wrapf(err, "number %s", n), ErrInvalidNumber)
		}
		return f, nil
	case float64:
		return n, nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return parseNumericString(n)
	default:
		return 0, errors.Wrapf(ErrInvalidNumber, "cannot convert %T", v)
	}
}

func parseNumericString(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" || !validUnderscores(t) {
		return 0, errors.Wrapf(ErrInvalidNumber, "%q", s)
	}
	unsigned := strings.TrimLeft(t, "+-")
	if len(unsigned) > 1 && unsigned[0] == '0' && strings.ContainsAny(unsigned[1:2], "xXbBoO") {
		return 0, errors.Wrapf(ErrInvalidNumber, "%q", s)
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(t, "_", ""), 64)
	if err != nil {
		var numErr *strconv.NumError
		// Out-of-range decimals overflow to ±Inf, like any other float parser.
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, nil
		}
		return 0, errors.Mark(errors.Wrapf(err, "%q", s), ErrInvalidNumber)
	}
	return f, nil
}

// validUnderscores accepts "_" only between two digits.
func validUnderscores(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// truthy mirrors the usual JSON falsiness: null, false, 0, "", [] and {}.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return err != nil || f != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
