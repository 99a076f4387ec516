package slogx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
	require.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	t.Parallel()

	require.Equal(t, slog.Default(), FromContext(context.Background()))

	l := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	require.Equal(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestHTTPMiddlewareAttachesRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(newHandler(Config{Format: "json"}, &buf))

	var inner *slog.Logger
	h := HTTPMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
	req.Header.Set("X-Request-ID", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV")
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, inner)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "http_request", line["msg"])
	require.Equal(t, "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV", line["req_id"])
	require.Equal(t, float64(http.StatusTeapot), line["status"])
	require.Equal(t, "/api/habits", line["path"])
}

func TestCronLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := CronLogger(slog.New(newHandler(Config{Format: "json", Level: "error"}, &buf)))

	l.Info("wake", "now", 1)
	require.Zero(t, buf.Len())

	l.Error(errors.New("boom"), "job failed", "entry", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "job failed", line["msg"])
	require.Equal(t, "boom", line["err"])
	require.Equal(t, "cron", line["component"])
}

func TestWriterUsesRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "habits.log")
	w := writer(Config{File: path})
	_, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.FileExists(t, path)
}
