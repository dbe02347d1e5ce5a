// Package client is a Go client for the flask-test-app HTTP API. Calls go
// through a circuit breaker so a failing service is not hammered.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flask-test-app/logging"
	"flask-test-app/models"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flask-test-app: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

type Option func(*options)

type options struct {
	httpClient  *http.Client
	maxFailures uint32
	openTimeout time.Duration
	breakerName string
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBreaker sets how many consecutive failures open the breaker and how long
// it stays open before letting a probe through.
func WithBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(o *options) {
		o.maxFailures = maxFailures
		o.openTimeout = openTimeout
	}
}

func New(baseURL string, opts ...Option) *Client {
	o := options{
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		maxFailures: 3,
		openTimeout: 5 * time.Second,
		breakerName: "flask-test-app-cb",
	}
	for _, opt := range opts {
		opt(&o)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        o.breakerName,
		MaxRequests: 1,
		Timeout:     o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
		// Client errors mean the service answered; only transport failures and
		// 5xx count against it.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < http.StatusInternalServerError
			}
			return err == nil
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: o.httpClient,
		breaker:    breaker,
	}
}

// State reports the breaker state.
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) Welcome(ctx context.Context) (models.WelcomeResponse, error) {
	var out models.WelcomeResponse
	err := c.do(ctx, http.MethodGet, "/", nil, &out)
	return out, err
}

func (c *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var out models.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// Hello asks for a greeting. An empty name leaves the parameter out so the
// service uses its default.
func (c *Client) Hello(ctx context.Context, name string) (models.HelloResponse, error) {
	path := "/api/hello"
	if name != "" {
		path += "?" + url.Values{"name": {name}}.Encode()
	}
	var out models.HelloResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Add sends a and b as given; strings are coerced server side.
func (c *Client) Add(ctx context.Context, a, b any) (models.AddResponse, error) {
	payload, err := json.Marshal(map[string]any{"a": a, "b": b})
	if err != nil {
		return models.AddResponse{}, errors.Wrap(err, "encoding add request")
	}
	var out models.AddResponse
	err = c.do(ctx, http.MethodPost, "/api/add", payload, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "building %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var e models.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}
