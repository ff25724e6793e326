package telemetry

import (
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures SQL spans.
type DBTracingConfig struct {
	Enabled bool
	// IncludeVariables puts bound query arguments into spans; keep off outside development
	IncludeVariables   bool
	SlowQueryThreshold time.Duration
	DBName             string
}

const dbStartKey = "telemetry:query_start"

// RegisterDBTracing installs the otelgorm plugin on db and marks spans of
// queries slower than the configured threshold with a "slow_query" event.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	threshold := cfg.SlowQueryThreshold
	if threshold <= 0 {
		threshold = 200 * time.Millisecond
	}
	before := func(tx *gorm.DB) {
		tx.InstanceSet(dbStartKey, time.Now())
	}
	after := func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(dbStartKey)
		if !ok {
			return
		}
		elapsed := time.Since(v.(time.Time))
		if elapsed < threshold {
			return
		}
		span := trace.SpanFromContext(tx.Statement.Context)
		AddEvent(span, "slow_query", "duration_ms", elapsed.Milliseconds(), "table", tx.Statement.Table)
		logger.Warn("Slow query",
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
		)
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("telemetry:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("telemetry:after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("telemetry:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("telemetry:after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("telemetry:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("telemetry:after_update", after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("include_variables", cfg.IncludeVariables),
		zap.Duration("slow_query_threshold", threshold),
	)
	return nil
}
