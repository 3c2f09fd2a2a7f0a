package slogx_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/keystone/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, slogx.ParseLevel(in), in)
	}
}

func TestFromContext_DefaultsWhenMissing(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(t.Context()))
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	h := slogx.HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := slogx.WithSubject(r.Context(), "01JUSER")
		slogx.FromContext(ctx).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("echoes caller request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
		req.Header.Set(slogx.RequestIDHeader, "req-123")
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusTeapot, rec.Code)
		require.Equal(t, "req-123", rec.Header().Get(slogx.RequestIDHeader))

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 2)

		var inside map[string]any
		require.NoError(t, json.Unmarshal(lines[0], &inside))
		require.Equal(t, "req-123", inside["req_id"])
		require.Equal(t, "01JUSER", inside["sub"])

		var access map[string]any
		require.NoError(t, json.Unmarshal(lines[1], &access))
		require.Equal(t, "http_request", access["msg"])
		require.EqualValues(t, http.StatusTeapot, access["status"])
	})

	t.Run("generates request id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Len(t, rec.Header().Get(slogx.RequestIDHeader), 26)
	})
}
