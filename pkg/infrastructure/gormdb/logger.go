package gormdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mateusmacedo/go-rideshare/pkg/application"
)

const slowQueryThreshold = 200 * time.Millisecond

type gormLoggerAdapter struct {
	appLogger application.AppLogger
	level     gormLogger.LogLevel
}

// NewGormLogger sends gorm's logs through the application logger. Record
// not found is expected control flow and is not reported as an error.
func NewGormLogger(appLogger application.AppLogger) gormLogger.Interface {
	return &gormLoggerAdapter{appLogger: appLogger, level: gormLogger.Warn}
}

func (l *gormLoggerAdapter) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLoggerAdapter) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Info {
		l.appLogger.Info(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *gormLoggerAdapter) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Warn {
		l.appLogger.Info(ctx, fmt.Sprintf(msg, args...), map[string]interface{}{"level": "warn"})
	}
}

func (l *gormLoggerAdapter) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Error {
		l.appLogger.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (l *gormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := map[string]interface{}{
		"sql":      sql,
		"rows":     rows,
		"duration": elapsed.String(),
	}

	switch {
	case err != nil && l.level >= gormLogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		application.LogError(ctx, l.appLogger, "query failed", err, fields)
	case elapsed > slowQueryThreshold && l.level >= gormLogger.Warn:
		l.appLogger.Info(ctx, "slow query", fields)
	case l.level >= gormLogger.Info:
		l.appLogger.Trace(ctx, "query", fields)
	}
}
