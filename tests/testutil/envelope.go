package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is the decoded {success, data, error} response body
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *EnvelopeError  `json:"error"`
}

// EnvelopeError is the error part of Envelope
type EnvelopeError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	Details   map[string]any `json:"details"`
}

// Do serves one request on h. A non-empty token is sent as a bearer token.
// The body is decoded when the response is JSON.
func Do(t *testing.T, h http.Handler, method, target, token string) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env Envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

// Data decodes the data field of env into T
func Data[T any](t *testing.T, env Envelope) T {
	t.Helper()

	var v T
	require.NotEmpty(t, env.Data, "response has no data")
	require.NoError(t, json.Unmarshal(env.Data, &v), "Failed to decode response data")
	return v
}

// AssertError checks the status code and the envelope error code
func AssertError(t *testing.T, w *httptest.ResponseRecorder, env Envelope, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, "Unexpected status code")
	assert.False(t, env.Success, "Expected success to be false")
	if assert.NotNil(t, env.Error, "Expected error object in response") {
		assert.Equal(t, code, env.Error.Code, "Unexpected error code")
	}
}
