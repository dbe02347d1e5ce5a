package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"flask-test-app/logging"
	"flask-test-app/metrics"
	"flask-test-app/services"
	"flask-test-app/utils"

	"github.com/cockroachdb/errors"
)

// User facing error messages.
const (
	MsgNoJSONData        = "No JSON data provided"
	MsgMissingParameters = "Missing parameters: a and b are required"
	MsgInvalidNumber     = "Invalid number format"
	MsgNotFound          = "Not Found"
	MsgMethodNotAllowed  = "Method Not Allowed"
	MsgInternalError     = "Internal Server Error"
)

var errNotJSON = errors.New("request body is not JSON")

type AppHandler struct {
	service      *services.AppService
	maxBodyBytes int64
}

// NewAppHandler returns a handler that reads at most maxBodyBytes of a request
// body. A non-positive limit disables the check.
func NewAppHandler(service *services.AppService, maxBodyBytes int64) *AppHandler {
	return &AppHandler{service: service, maxBodyBytes: maxBodyBytes}
}

func (h *AppHandler) Home(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.service.Welcome())
}

func (h *AppHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.service.Health())
}

func (h *AppHandler) Hello(w http.ResponseWriter, r *http.Request) {
	name := services.DefaultName
	if values, ok := r.URL.Query()["name"]; ok && len(values) > 0 {
		name = values[0]
	}
	logging.Logger.Debugf("Event ID: HELLO_REQUEST, Description: Greeting %q", name)
	utils.WriteJSON(w, http.StatusOK, h.service.Hello(name))
}

func (h *AppHandler) Add(w http.ResponseWriter, r *http.Request) {
	data, err := h.decodeJSON(w, r)
	if err != nil {
		logging.Logger.Warnf("Event ID: ADD_UNSUPPORTED_MEDIA, Description: Rejecting request body: %v", err)
		metrics.IncAddOutcome(metrics.OutcomeUnsupportedMedia)
		utils.WriteError(w, http.StatusUnsupportedMediaType, MsgNoJSONData)
		return
	}

	resp, err := h.service.Add(data)
	if err != nil {
		status, msg, outcome := addErrorResponse(err)
		metrics.IncAddOutcome(outcome)
		logging.Logger.Warnf("Event ID: ADD_VALIDATION_FAILED, Description: %v", err)
		utils.WriteError(w, status, msg)
		return
	}

	metrics.IncAddOutcome(metrics.OutcomeSuccess)
	logging.Logger.Debugf("Event ID: ADD_SUCCESS, Description: %v + %v = %v", resp.A, resp.B, resp.Result)
	utils.WriteJSON(w, http.StatusOK, resp)
}

func addErrorResponse(err error) (int, string, string) {
	switch {
	case errors.Is(err, services.ErrNoJSONData):
		return http.StatusBadRequest, MsgNoJSONData, metrics.OutcomeNoData
	case errors.Is(err, services.ErrMissingParameters):
		return http.StatusBadRequest, MsgMissingParameters, metrics.OutcomeMissingParams
	case errors.Is(err, services.ErrInvalidNumber):
		return http.StatusBadRequest, MsgInvalidNumber, metrics.OutcomeInvalidNumber
	default:
		return http.StatusInternalServerError, MsgInternalError, metrics.OutcomeError
	}
}

// decodeJSON accepts application/json and application/*+json bodies holding
// exactly one JSON value.
func (h *AppHandler) decodeJSON(w http.ResponseWriter, r *http.Request) (any, error) {
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		return nil, errors.Wrapf(errNotJSON, "content type %q", r.Header.Get("Content-Type"))
	}
	if r.Body == nil {
		return nil, errors.Wrap(errNotJSON, "no body")
	}

	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.Wrap(errNotJSON, "empty body")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, errors.Wrap(err, "decoding body")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.Wrap(errNotJSON, "trailing data after JSON value")
	}
	return data, nil
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mediaType == "application/json" {
		return true
	}
	return strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// NotFound replaces the router's plain text 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	logging.Logger.Debugf("Event ID: ROUTE_NOT_FOUND, Description: No route for %s %s", r.Method, r.URL.Path)
	utils.WriteError(w, http.StatusNotFound, MsgNotFound)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	logging.Logger.Debugf("Event ID: METHOD_NOT_ALLOWED, Description: %s not allowed on %s", r.Method, r.URL.Path)
	utils.WriteError(w, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
