package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogHTTPRequest(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.LogHTTPRequest("GET", "/api/v1/tasks/daily", "test-agent", "10.0.0.1", 200, 12.5)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "HTTP request", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/api/v1/tasks/daily", fields["path"])
	assert.Equal(t, int64(200), fields["status_code"])
	assert.Equal(t, 12.5, fields["duration_ms"])
	assert.Equal(t, "10.0.0.1", fields["ip"])
}

func TestLogUserAction(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.LogUserAction("user-1", "login", map[string]interface{}{"username": "maria.s"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "User action", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "user-1", fields["user_id"])
	assert.Equal(t, "login", fields["action"])
	assert.Equal(t, "maria.s", fields["username"])
}

func TestLogSecurityEventUsesWarnLevel(t *testing.T) {
	log, logs := newObservedLogger(zapcore.WarnLevel)

	log.LogSecurityEvent("invalid_token", "", "10.0.0.2", map[string]interface{}{"error": "expired"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "invalid_token", entries[0].ContextMap()["security_event"])
}

func TestWithHelpersAttachFields(t *testing.T) {
	log, logs := newObservedLogger(zapcore.InfoLevel)

	log.WithRequestID("req-42").WithUserID("user-7").WithComponent("backup").WithError(errors.New("boom")).Info("chained")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "user-7", fields["user_id"])
	assert.Equal(t, "backup", fields["component"])
	assert.Equal(t, "boom", fields["error"])
}
