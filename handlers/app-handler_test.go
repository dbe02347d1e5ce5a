package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"flask-test-app/logging"
	"flask-test-app/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logging.Logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestHandler() *AppHandler {
	return NewAppHandler(services.NewAppService(), 1024)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func postAdd(h *AppHandler, contentType, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/add", reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.Add(rec, req)
	return rec
}

func TestHome(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().Home(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Welcome to Flask Test App", body["message"])
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestHandler().Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "flask-test-app", body["service"])
}

func TestHello(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		message string
	}{
		{"default", "/api/hello", "Hello, World!"},
		{"named", "/api/hello?name=Jenkins", "Hello, Jenkins!"},
		{"explicit empty", "/api/hello?name=", "Hello, !"},
		{"first value wins", "/api/hello?name=Ann&name=Bob", "Hello, Ann!"},
		{"escaped", "/api/hello?name=J%C3%BCrgen%20M", "Hello, Jürgen M!"},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Hello(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.message, body["message"])
			assert.Equal(t, "success", body["status"])
		})
	}
}

func TestAddSuccess(t *testing.T) {
	rec := postAdd(newTestHandler(), "application/json", `{"a":5,"b":3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(8), body["result"])
	assert.Equal(t, float64(5), body["a"])
	assert.Equal(t, float64(3), body["b"])
	assert.Equal(t, "success", body["status"])
}

func TestAddEchoesOriginalValues(t *testing.T) {
	rec := postAdd(newTestHandler(), "application/json; charset=utf-8", `{"a":"2.5","b":1.50}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result":4,"a":"2.5","b":1.50,"status":"success"}`, rec.Body.String())
}

func TestAddErrors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
		message     string
	}{
		{"no body", "", "", http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"form content type", "application/x-www-form-urlencoded", "a=1&b=2", http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"text content type", "text/plain", `{"a":1,"b":2}`, http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"json type without body", "application/json", "", http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"whitespace body", "application/json", "  \n", http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"malformed json", "application/json", `{"a":`, http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"trailing data", "application/json", `{"a":1,"b":2} {}`, http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"too large", "application/json", `{"a":"` + strings.Repeat("1", 2048) + `","b":1}`, http.StatusUnsupportedMediaType, MsgNoJSONData},
		{"empty object", "application/json", `{}`, http.StatusBadRequest, MsgNoJSONData},
		{"null", "application/json", `null`, http.StatusBadRequest, MsgNoJSONData},
		{"missing b", "application/json", `{"a":5}`, http.StatusBadRequest, MsgMissingParameters},
		{"null operand", "application/json", `{"a":5,"b":null}`, http.StatusBadRequest, MsgMissingParameters},
		{"array payload", "application/json", `[1,2]`, http.StatusBadRequest, MsgMissingParameters},
		{"invalid number", "application/json", `{"a":"invalid","b":3}`, http.StatusBadRequest, MsgInvalidNumber},
		{"vendor json type", "application/vnd.api+json", `{"a":"x","b":3}`, http.StatusBadRequest, MsgInvalidNumber},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postAdd(h, tt.contentType, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestAddIsRepeatable(t *testing.T) {
	h := newTestHandler()
	first := postAdd(h, "application/json", `{"a":0.1,"b":0.2}`)
	second := postAdd(h, "application/json", `{"a":0.1,"b":0.2}`)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, MsgNotFound, decodeBody(t, rec)["error"])

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, MsgMethodNotAllowed, decodeBody(t, rec)["error"])
}

func TestIsJSONContentType(t *testing.T) {
	assert.True(t, isJSONContentType("application/json"))
	assert.True(t, isJSONContentType("Application/JSON; charset=UTF-8"))
	assert.True(t, isJSONContentType("application/problem+json"))
	assert.False(t, isJSONContentType(""))
	assert.False(t, isJSONContentType("text/json+plain"))
	assert.False(t, isJSONContentType("multipart/form-data; boundary=x"))
	assert.False(t, isJSONContentType(";;"))
}
