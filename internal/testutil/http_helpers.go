package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// ReadJSON checks the status code and decodes the JSON body into v.
func ReadJSON(t testing.TB, w *httptest.ResponseRecorder, status int, v any) {
	t.Helper()
	require.Equal(t, status, w.Code, "unexpected status, body: %s", w.Body.String())
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

// NewBodyRequest builds a request carrying body with the given content type.
func NewBodyRequest(method, path, contentType string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req
}
