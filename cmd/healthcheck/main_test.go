package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddr(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "127.0.0.1:8080"},
		{":9090", "127.0.0.1:9090"},
		{"0.0.0.0:8080", "127.0.0.1:8080"},
		{"[::]:8080", "127.0.0.1:8080"},
		{"10.0.0.5:8080", "10.0.0.5:8080"},
		{"garbage", "127.0.0.1:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeAddr(tt.raw))
		})
	}
}

func serveHealth(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckHealth_Healthy(t *testing.T) {
	srv := serveHealth(t, http.StatusOK, `{"status":"ok","database":"ok","time":"2026-01-01T00:00:00Z"}`)

	require.NoError(t, checkHealth(context.Background(), srv.Client(), srv.URL))
}

func TestCheckHealth_Degraded(t *testing.T) {
	srv := serveHealth(t, http.StatusServiceUnavailable, `{"status":"degraded","database":"unreachable"}`)

	err := checkHealth(context.Background(), srv.Client(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Contains(t, err.Error(), `database "unreachable"`)
}

func TestCheckHealth_NotJSON(t *testing.T) {
	srv := serveHealth(t, http.StatusOK, `<html>proxy</html>`)

	err := checkHealth(context.Background(), srv.Client(), srv.URL)

	assert.ErrorContains(t, err, "not JSON")
}

func TestCheckHealth_Unreachable(t *testing.T) {
	srv := serveHealth(t, http.StatusOK, `{}`)
	srv.Close()

	assert.Error(t, checkHealth(context.Background(), http.DefaultClient, srv.URL))
}
