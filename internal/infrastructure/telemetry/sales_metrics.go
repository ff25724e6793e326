package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LowStockCounter reports how many items are at or below the low-stock threshold
type LowStockCounter interface {
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// SalesMetricsConfig configures SalesMetrics
type SalesMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	LowStock          LowStockCounter
	LowStockThreshold int
}

// SalesMetrics counts committed sale operations, conflict retries, stock
// rejections and purges, and observes the low-stock item count.
type SalesMetrics struct {
	logger *zap.Logger

	committed        *Counter
	unitsMoved       *Counter
	conflictRetries  *Counter
	stockRejections  *Counter
	purgedSales      *Counter
	lowStockGauge    metric.Int64ObservableGauge
	lowStockRegister metric.Registration
}

// NewSalesMetrics creates the sales instruments on cfg.Meter
func NewSalesMetrics(cfg SalesMetricsConfig) (*SalesMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SalesMetrics{logger: logger}

	var err error
	if m.committed, err = NewCounter(cfg.Meter, "inventrack_sale_operations_total",
		"Committed sale create, edit and delete operations", "{operations}"); err != nil {
		return nil, err
	}
	if m.unitsMoved, err = NewCounter(cfg.Meter, "inventrack_sale_units_total",
		"Units covered by committed sale operations", "{units}"); err != nil {
		return nil, err
	}
	if m.conflictRetries, err = NewCounter(cfg.Meter, "inventrack_sale_conflict_retries_total",
		"Sale transactions retried after a version conflict", "{retries}"); err != nil {
		return nil, err
	}
	if m.stockRejections, err = NewCounter(cfg.Meter, "inventrack_sale_stock_rejections_total",
		"Sale operations rejected for insufficient stock", "{operations}"); err != nil {
		return nil, err
	}
	if m.purgedSales, err = NewCounter(cfg.Meter, "inventrack_sales_purged_total",
		"Sales removed by bulk purge", "{sales}"); err != nil {
		return nil, err
	}

	if cfg.LowStock != nil {
		m.lowStockGauge, err = cfg.Meter.Int64ObservableGauge("inventrack_low_stock_items",
			metric.WithDescription("Items at or below the low-stock threshold"),
			metric.WithUnit("{items}"),
		)
		if err != nil {
			return nil, err
		}
		m.lowStockRegister, err = cfg.Meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
			count, err := cfg.LowStock.CountLowStock(ctx, cfg.LowStockThreshold)
			if err != nil {
				logger.Warn("Failed to count low-stock items", zap.Error(err))
				return nil
			}
			o.ObserveInt64(m.lowStockGauge, count)
			return nil
		}, m.lowStockGauge)
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordCommitted counts one committed operation covering quantity units
func (m *SalesMetrics) RecordCommitted(ctx context.Context, operation string, quantity int) {
	m.committed.Inc(ctx, AttrOperation.String(operation))
	m.unitsMoved.Add(ctx, int64(quantity), AttrOperation.String(operation))
}

// RecordConflictRetry counts one retried transaction
func (m *SalesMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	m.conflictRetries.Inc(ctx, AttrOperation.String(operation))
}

// RecordStockRejection counts one INSUFFICIENT_STOCK outcome
func (m *SalesMetrics) RecordStockRejection(ctx context.Context, operation string) {
	m.stockRejections.Inc(ctx, AttrOperation.String(operation))
}

// RecordPurge counts removed sales
func (m *SalesMetrics) RecordPurge(ctx context.Context, removed int, stockRestored bool) {
	m.purgedSales.Add(ctx, int64(removed), AttrStockRestored.Bool(stockRestored))
}

// Stop unregisters the low-stock callback
func (m *SalesMetrics) Stop() {
	if m.lowStockRegister != nil {
		if err := m.lowStockRegister.Unregister(); err != nil {
			m.logger.Warn("Failed to unregister low-stock callback", zap.Error(err))
		}
	}
}
