package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(buf, nil))}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestWithContextAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "owner-1")

	newBufferLogger(&buf).WithContext(ctx).Info("hello")

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "owner-1", line["user_id"])
}

func TestHTTPRequestLevelFollowsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf)

	log.HTTPRequest(context.Background(), "POST", "/api/v1/funnels/:id/submissions", 201, 3, "10.0.0.1", "")
	line := decodeLine(t, &buf)
	assert.Equal(t, "INFO", line["level"])
	assert.NotContains(t, line, "error")

	buf.Reset()
	log.HTTPRequest(context.Background(), "GET", "/api/v1/leads/:id", 500, 3, "10.0.0.1", "db down")
	line = decodeLine(t, &buf)
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "db down", line["error"])
}
