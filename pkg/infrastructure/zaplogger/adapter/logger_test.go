package adapter

import (
	"context"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesRequestIDAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewFromZap(zap.New(core))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	logger.Info(ctx, "booking confirmed", map[string]interface{}{"booking_id": "b1"})
	logger.Trace(context.Background(), "trace line", nil)

	require.Equal(t, 2, logs.Len())
	first := logs.All()[0]
	assert.Equal(t, "booking confirmed", first.Message)
	assert.Equal(t, "req-42", first.ContextMap()["requestID"])
	assert.Equal(t, "b1", first.ContextMap()["booking_id"])

	second := logs.All()[1]
	assert.Equal(t, zapcore.DebugLevel, second.Level)
	assert.NotContains(t, second.ContextMap(), "requestID")
}

func TestNewZapAppLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewZapAppLogger(Options{Level: "loud"})
	assert.Error(t, err)

	logger, err := NewZapAppLogger(Options{AppName: "rideshare-test", Level: "debug"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
