package adapter

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
)

// watermillLoggerAdapter routes watermill's internal logging into the
// application logger so transport logs share one sink and format.
type watermillLoggerAdapter struct {
	appLogger application.AppLogger
	fields    watermill.LogFields
}

func NewWatermillLoggerAdapter(appLogger application.AppLogger) watermill.LoggerAdapter {
	return &watermillLoggerAdapter{
		appLogger: appLogger,
		fields:    watermill.LogFields{},
	}
}

func (a *watermillLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	allFields := a.combineFields(fields)
	if err != nil {
		allFields["error"] = err.Error()
	}
	a.appLogger.Error(context.Background(), msg, allFields)
}

func (a *watermillLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.appLogger.Info(context.Background(), msg, a.combineFields(fields))
}

func (a *watermillLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.appLogger.Debug(context.Background(), msg, a.combineFields(fields))
}

func (a *watermillLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.appLogger.Trace(context.Background(), msg, a.combineFields(fields))
}

func (a *watermillLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillLoggerAdapter{
		appLogger: a.appLogger,
		fields:    a.combineFields(fields),
	}
}

func (a *watermillLoggerAdapter) combineFields(fields watermill.LogFields) map[string]interface{} {
	allFields := make(map[string]interface{}, len(a.fields)+len(fields))
	for k, v := range a.fields {
		allFields[k] = v
	}
	for k, v := range fields {
		allFields[k] = v
	}
	return allFields
}
