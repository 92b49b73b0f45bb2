package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	ts.token = ""

	w := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)

	w = ts.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/elevator")

	w = ts.do(t, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t)

	preflight := func(origin, headers string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/elevator/command", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		if headers != "" {
			// Browsers send the list lowercased, sorted and without spaces.
			req.Header.Set("Access-Control-Request-Headers", headers)
		}
		w := httptest.NewRecorder()
		ts.router.ServeHTTP(w, req)
		return w
	}

	w := preflight("http://localhost:3000", "authorization,content-type")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("http://localhost:3000", "x-custom")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight("http://evil.example.com", "")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
