package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-123")
	assert.Equal(t, "trace-123", GetTraceID(ctx))
}

func TestGetTraceID_Missing(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestSessionKeyRoundTrip(t *testing.T) {
	ctx := WithSessionKey(context.Background(), "default")
	assert.Equal(t, "default", GetSessionKey(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestNewRequestContext(t *testing.T) {
	ctx := NewRequestContext(context.Background())
	first := GetTraceID(ctx)
	require.NotEmpty(t, first)

	second := GetTraceID(NewRequestContext(context.Background()))
	assert.NotEqual(t, first, second)
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithSessionKey(WithTraceID(context.Background(), "trace-123"), "default")
	logger := LoggerFromContext(ctx, base)
	logger.Info().Msg("hello")

	out := buf.String()
	assert.Contains(t, out, `"trace_id":"trace-123"`)
	assert.Contains(t, out, `"session_key":"default"`)
}

func TestLoggerFromContext_PlainContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	logger := LoggerFromContext(context.Background(), base)
	logger.Info().Msg("hello")

	out := buf.String()
	assert.NotContains(t, out, "trace_id")
	assert.NotContains(t, out, "session_key")
}
