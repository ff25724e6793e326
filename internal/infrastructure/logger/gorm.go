package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowThreshold is the query latency above which a statement is logged as slow
const DefaultSlowThreshold = 200 * time.Millisecond

// GormLogger adapts zap to gorm's logger interface. Statement logs carry the
// trace, request and user fields of the calling context.
type GormLogger struct {
	logger            *zap.Logger
	level             gormlogger.LogLevel
	slowThreshold     time.Duration
	logRecordNotFound bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow statement threshold; 0 disables slow logging
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithRecordNotFound logs gorm.ErrRecordNotFound as an error when enabled.
// Lookups that miss are routine here, so it is off by default.
func WithRecordNotFound(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logRecordNotFound = enabled
	}
}

// NewGormLogger creates a gorm logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		level:         level,
		slowThreshold: DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		Enrich(ctx, l.logger).Info(fmt.Sprintf(msg, data...))
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		Enrich(ctx, l.logger).Warn(fmt.Sprintf(msg, data...))
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		Enrich(ctx, l.logger).Error(fmt.Sprintf(msg, data...))
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		if errors.Is(err, gormlogger.ErrRecordNotFound) && !l.logRecordNotFound {
			return
		}
		sql, rows := fc()
		Enrich(ctx, l.logger).Error("SQL error", statementFields(elapsed, sql, rows, zap.Error(err))...)

	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		Enrich(ctx, l.logger).Warn("Slow SQL",
			statementFields(elapsed, sql, rows, zap.Duration("threshold", l.slowThreshold))...)

	case l.level >= gormlogger.Info:
		sql, rows := fc()
		Enrich(ctx, l.logger).Debug("SQL", statementFields(elapsed, sql, rows)...)
	}
}

func statementFields(elapsed time.Duration, sql string, rows int64, extra ...zap.Field) []zap.Field {
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	return append(fields, extra...)
}

// MapGormLogLevel maps a configured level name to a gorm log level.
// "info" and "debug" log every statement.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
