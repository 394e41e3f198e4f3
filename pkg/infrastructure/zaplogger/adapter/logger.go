package adapter

import (
	"context"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
)

// Options tune the production zap configuration.
type Options struct {
	AppName string
	Level   string
}

type zapAppLoggerAdapter struct {
	zapLogger *zap.Logger
}

func NewZapAppLogger(opts Options) (application.AppLogger, error) {
	config := zap.NewProductionConfig()
	if opts.AppName == "" {
		opts.AppName = "rideshare"
	}
	config.InitialFields = map[string]interface{}{"app": opts.AppName}
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if opts.Level != "" {
		level, err := zap.ParseAtomicLevel(opts.Level)
		if err != nil {
			return nil, err
		}
		config.Level = level
	}

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return NewFromZap(zapLogger), nil
}

// NewFromZap wraps an existing zap logger, e.g. zaptest or zap.NewNop.
func NewFromZap(zapLogger *zap.Logger) application.AppLogger {
	return &zapAppLoggerAdapter{zapLogger: zapLogger.WithOptions(zap.AddCallerSkip(1))}
}

func (l *zapAppLoggerAdapter) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.zapLogger.Info(msg, convertFields(ctx, fields)...)
}

func (l *zapAppLoggerAdapter) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.zapLogger.Debug(msg, convertFields(ctx, fields)...)
}

func (l *zapAppLoggerAdapter) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.zapLogger.Error(msg, convertFields(ctx, fields)...)
}

// Trace has no zap level of its own and is folded into Debug.
func (l *zapAppLoggerAdapter) Trace(ctx context.Context, msg string, fields map[string]interface{}) {
	l.zapLogger.Debug(msg, convertFields(ctx, fields)...)
}

func convertFields(ctx context.Context, fields map[string]interface{}) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+1)

	if ctx != nil {
		if requestID := middleware.GetReqID(ctx); requestID != "" {
			zapFields = append(zapFields, zap.String("requestID", requestID))
		}
	}

	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return zapFields
}
