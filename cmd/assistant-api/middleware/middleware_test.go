package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/healthdesk/assistant/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		method      string
		wantAllowed bool
		wantStatus  int
	}{
		{"wildcard", []string{"*"}, "https://a.example", http.MethodGet, true, http.StatusTeapot},
		{"listed", []string{"https://a.example"}, "https://a.example", http.MethodGet, true, http.StatusTeapot},
		{"not listed", []string{"https://a.example"}, "https://b.example", http.MethodGet, false, http.StatusTeapot},
		{"no origin", []string{"*"}, "", http.MethodGet, false, http.StatusTeapot},
		{"preflight", []string{"*"}, "https://a.example", http.MethodOptions, true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/answer", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()

			CORS(tt.allowed)(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantAllowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{Level: "info", Output: &buf})

	handler := chimiddleware.RequestID(RequestLogger(logger)(ok))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "HTTP request", entry["message"])
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/health", entry["path"])
	assert.EqualValues(t, http.StatusTeapot, entry["status"])
	assert.NotEmpty(t, entry["trace_id"])
}
