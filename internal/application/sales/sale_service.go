package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/application/retry"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/inventrack/backend/internal/infrastructure/logger"
	"github.com/inventrack/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Operation names used in logs, spans and metrics
const (
	OperationCreate = "create"
	OperationEdit   = "edit"
	OperationDelete = "delete"
	OperationPurge  = "purge"
)

// Config controls the sale engine
type Config struct {
	Retry retry.Policy
	// RestoreStockOnPurge makes a bulk purge give each sale's units back to
	// its item. Off by default: a purge only removes sale records.
	RestoreStockOnPurge bool
	// Location defines day boundaries for PurgeSalesOnDay and default listings
	Location *time.Location
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return Config{
		Retry:    retry.DefaultPolicy(),
		Location: time.Local,
	}
}

// PurgeArchiver keeps a copy of sales before a purge removes them
type PurgeArchiver interface {
	ArchiveSales(ctx context.Context, userID string, r shared.TimeRange, list []sales.Sale) (string, error)
}

// SaleService is the sale transaction engine. Create, edit and delete each run
// as one atomic unit over the item and sale, retried on version conflicts.
type SaleService struct {
	txScope   TransactionScope
	saleRepo  sales.SaleRepository
	publisher shared.EventPublisher
	archiver  PurgeArchiver
	metrics   *telemetry.SalesMetrics
	logger    *zap.Logger
	config    Config
	now       func() time.Time
}

// NewSaleService creates a new SaleService
func NewSaleService(
	txScope TransactionScope,
	saleRepo sales.SaleRepository,
	logger *zap.Logger,
	cfg Config,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &SaleService{
		txScope:   txScope,
		saleRepo:  saleRepo,
		publisher: shared.NoopEventPublisher{},
		logger:    logger,
		config:    cfg,
		now:       time.Now,
	}
}

// SetEventPublisher sets the publisher that receives events after commit
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	s.publisher = publisher
}

// SetPurgeArchiver enables archiving of purged sales
func (s *SaleService) SetPurgeArchiver(archiver PurgeArchiver) {
	s.archiver = archiver
}

// SetSalesMetrics sets the metrics recorder
func (s *SaleService) SetSalesMetrics(m *telemetry.SalesMetrics) {
	s.metrics = m
}

// SetClock overrides the time source used for sale dates
func (s *SaleService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateSale records quantity units of an item as sold and deducts them from stock.
func (s *SaleService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationCreate,
		telemetry.WithAttribute("item_id", req.ItemID.String()),
		telemetry.WithAttribute("quantity", req.Quantity),
	)
	defer span.End()

	if err := validateSaleInput(userID, req.ItemID, req.Quantity); err != nil {
		return nil, err
	}

	var created *sales.Sale
	err := s.atomically(ctx, OperationCreate, userID, func(ctx context.Context, repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		ledger := NewStockLedger(userID, repos.ItemRepo())

		item, err := ledger.Item(ctx, req.ItemID)
		if err != nil {
			return nil, err
		}
		if err := ledger.AdjustQuantity(ctx, item.ID, -req.Quantity); err != nil {
			return nil, err
		}

		sale, err := sales.NewSale(userID, snapshotOf(item), req.Quantity, s.now())
		if err != nil {
			return nil, err
		}
		if err := ledger.Flush(ctx); err != nil {
			return nil, err
		}
		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return nil, err
		}

		created = sale
		return append(ledger.Events(), sale.GetDomainEvents()...), nil
	})
	if err != nil {
		s.recordFailure(ctx, span, OperationCreate, userID, err)
		return nil, err
	}

	s.log(ctx).Info("Sale recorded",
		zap.String("user_id", userID),
		zap.String("sale_id", created.ID.String()),
		zap.String("item", created.ItemName),
		zap.Int("quantity", created.Quantity),
	)
	if s.metrics != nil {
		s.metrics.RecordCommitted(ctx, OperationCreate, created.Quantity)
	}
	response := ToSaleResponse(created)
	return &response, nil
}

// EditSale moves a sale to another item and/or quantity. The old units go back
// to the original item and the new units come out of the new item in the same
// atomic unit. The sale date is kept.
func (s *SaleService) EditSale(ctx context.Context, userID string, saleID uuid.UUID, req EditSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationEdit,
		telemetry.WithAttribute("sale_id", saleID.String()),
		telemetry.WithAttribute("item_id", req.ItemID.String()),
		telemetry.WithAttribute("quantity", req.Quantity),
	)
	defer span.End()

	if err := validateSaleInput(userID, req.ItemID, req.Quantity); err != nil {
		return nil, err
	}
	if saleID == uuid.Nil {
		return nil, shared.NewInvalidInputError("A sale must be selected")
	}

	var revised *sales.Sale
	err := s.atomically(ctx, OperationEdit, userID, func(ctx context.Context, repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		sale, err := repos.SaleRepo().FindByID(ctx, userID, saleID)
		if err != nil {
			return nil, err
		}
		ledger := NewStockLedger(userID, repos.ItemRepo())

		if _, err := ledger.Item(ctx, sale.ItemID); err != nil {
			return nil, renameNotFound(err, "Original item not found in inventory.")
		}
		if err := ledger.AdjustQuantity(ctx, sale.ItemID, sale.Quantity); err != nil {
			return nil, err
		}

		newItem, err := ledger.Item(ctx, req.ItemID)
		if err != nil {
			return nil, renameNotFound(err, "New item not found in inventory.")
		}
		if newItem.Quantity < req.Quantity {
			return nil, shared.NewDomainError(shared.CodeInsufficientStock, fmt.Sprintf(
				"Cannot update. Not enough stock for the new quantity. Only %d %s(s) available.",
				newItem.Quantity, newItem.Name,
			))
		}
		if err := ledger.AdjustQuantity(ctx, newItem.ID, -req.Quantity); err != nil {
			return nil, err
		}

		if err := sale.Revise(snapshotOf(newItem), req.Quantity); err != nil {
			return nil, err
		}
		if err := ledger.Flush(ctx); err != nil {
			return nil, err
		}
		if err := repos.SaleRepo().SaveWithLock(ctx, sale); err != nil {
			return nil, err
		}

		revised = sale
		return append(ledger.Events(), sale.GetDomainEvents()...), nil
	})
	if err != nil {
		s.recordFailure(ctx, span, OperationEdit, userID, err)
		return nil, err
	}

	s.log(ctx).Info("Sale revised",
		zap.String("user_id", userID),
		zap.String("sale_id", revised.ID.String()),
		zap.String("item", revised.ItemName),
		zap.Int("quantity", revised.Quantity),
	)
	if s.metrics != nil {
		s.metrics.RecordCommitted(ctx, OperationEdit, revised.Quantity)
	}
	response := ToSaleResponse(revised)
	return &response, nil
}

// DeleteSale removes a sale and gives its units back to the item.
// Fails with NOT_FOUND if the item has been deleted since the sale.
func (s *SaleService) DeleteSale(ctx context.Context, userID string, saleID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationDelete,
		telemetry.WithAttribute("sale_id", saleID.String()),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return shared.NewInvalidInputError("User ID is required")
	}

	deleted, err := s.deleteSale(ctx, userID, saleID)
	if err != nil {
		s.recordFailure(ctx, span, OperationDelete, userID, err)
		return err
	}

	s.log(ctx).Info("Sale deleted",
		zap.String("user_id", userID),
		zap.String("sale_id", saleID.String()),
		zap.Int("restored", deleted.Quantity),
	)
	if s.metrics != nil {
		s.metrics.RecordCommitted(ctx, OperationDelete, deleted.Quantity)
	}
	return nil
}

func (s *SaleService) deleteSale(ctx context.Context, userID string, saleID uuid.UUID) (*sales.Sale, error) {
	var deleted *sales.Sale
	err := s.atomically(ctx, OperationDelete, userID, func(ctx context.Context, repos TransactionalRepositories) ([]shared.DomainEvent, error) {
		sale, err := repos.SaleRepo().FindByID(ctx, userID, saleID)
		if err != nil {
			return nil, err
		}
		ledger := NewStockLedger(userID, repos.ItemRepo())
		if err := ledger.AdjustQuantity(ctx, sale.ItemID, sale.Quantity); err != nil {
			return nil, renameNotFound(err, "Item document does not exist! Stock for this sale cannot be restored.")
		}

		sale.MarkDeleted()
		if err := ledger.Flush(ctx); err != nil {
			return nil, err
		}
		if err := repos.SaleRepo().DeleteWithLock(ctx, sale); err != nil {
			return nil, err
		}

		deleted = sale
		return append(ledger.Events(), sale.GetDomainEvents()...), nil
	})
	return deleted, err
}

// GetSale returns one sale
func (s *SaleService) GetSale(ctx context.Context, userID string, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, userID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales returns sales dated within [start, end], newest first, with totals.
// With both bounds zero the current day is listed.
func (s *SaleService) ListSales(ctx context.Context, userID string, start, end time.Time) (*SaleListResponse, error) {
	r, err := s.resolveRange(start, end)
	if err != nil {
		return nil, err
	}
	list, err := s.saleRepo.FindByDateRange(ctx, userID, r)
	if err != nil {
		return nil, err
	}
	response := ToSaleListResponse(r.Start, r.End, list)
	return &response, nil
}

// PurgeSalesInRange removes every sale dated within [start, end].
//
// By default this is one unconditional batch delete that leaves stock alone and
// takes no part in conflict detection. With RestoreStockOnPurge each sale goes
// through DeleteSale instead; sales whose item is gone are skipped and counted.
func (s *SaleService) PurgeSalesInRange(ctx context.Context, userID string, start, end time.Time) (*PurgeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", OperationPurge,
		telemetry.WithAttribute("restore_stock", s.config.RestoreStockOnPurge),
	)
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewInvalidInputError("User ID is required")
	}
	r, err := shared.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}

	list, err := s.saleRepo.FindByDateRange(ctx, userID, r)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("list sales to purge: %w", err)
	}
	result := &PurgeResult{
		Start:         r.Start,
		End:           r.End,
		StockRestored: s.config.RestoreStockOnPurge,
	}
	if len(list) == 0 {
		return result, nil
	}

	if s.archiver != nil {
		key, err := s.archiver.ArchiveSales(ctx, userID, r, list)
		if err != nil {
			telemetry.RecordError(span, err)
			s.log(ctx).Error("Failed to archive sales before purge",
				zap.String("user_id", userID),
				zap.Int("count", len(list)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("archive sales before purge: %w", err)
		}
		result.ArchiveKey = key
	}

	if s.config.RestoreStockOnPurge {
		for i := range list {
			if _, err := s.deleteSale(ctx, userID, list[i].ID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					result.Skipped++
					continue
				}
				telemetry.RecordError(span, err)
				return nil, err
			}
			result.Removed++
		}
	} else {
		ids := make([]uuid.UUID, len(list))
		for i := range list {
			ids[i] = list[i].ID
		}
		removed, err := s.saleRepo.DeleteByIDs(ctx, userID, ids)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("purge sales: %w", err)
		}
		result.Removed = int(removed)
	}

	s.publish(ctx, []shared.DomainEvent{
		sales.NewSalesPurgedEvent(userID, r, result.Removed, result.StockRestored),
	})
	s.log(ctx).Info("Sales purged",
		zap.String("user_id", userID),
		zap.Time("start", r.Start),
		zap.Time("end", r.End),
		zap.Int("removed", result.Removed),
		zap.Int("skipped", result.Skipped),
		zap.Bool("stock_restored", result.StockRestored),
	)
	if s.metrics != nil {
		s.metrics.RecordPurge(ctx, result.Removed, result.StockRestored)
	}
	return result, nil
}

// PurgeSalesOnDay purges [00:00:00.000, 23:59:59.999] of day in the configured
// location. A zero day means today.
func (s *SaleService) PurgeSalesOnDay(ctx context.Context, userID string, day time.Time) (*PurgeResult, error) {
	if day.IsZero() {
		day = s.now()
	}
	r := shared.DayRange(day, s.config.Location)
	return s.PurgeSalesInRange(ctx, userID, r.Start, r.End)
}

// atomically runs fn in a transaction, retrying on version conflicts, and
// publishes the events of the attempt that committed
func (s *SaleService) atomically(
	ctx context.Context,
	operation, userID string,
	fn func(ctx context.Context, repos TransactionalRepositories) ([]shared.DomainEvent, error),
) error {
	var events []shared.DomainEvent
	notify := func(attempt int, err error, wait time.Duration) {
		s.log(ctx).Warn("Sale transaction conflict, retrying",
			zap.String("operation", operation),
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordConflictRetry(ctx, operation)
		}
	}

	var err error
	telemetry.WithOperationLabel(ctx, operation, func(ctx context.Context) {
		err = retry.OnConflict(ctx, s.config.Retry, notify, func(ctx context.Context) error {
			events = nil
			return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
				evs, err := fn(ctx, repos)
				if err != nil {
					return err
				}
				events = evs
				return nil
			})
		})
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

func (s *SaleService) publish(ctx context.Context, events []shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.log(ctx).Warn("Failed to publish sale events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *SaleService) recordFailure(ctx context.Context, span trace.Span, operation, userID string, err error) {
	telemetry.RecordError(span, err)
	if shared.IsBusinessError(err) {
		s.log(ctx).Debug("Sale operation rejected",
			zap.String("operation", operation),
			zap.String("user_id", userID),
			zap.String("code", shared.ErrorCode(err)),
			zap.String("reason", err.Error()),
		)
		if s.metrics != nil && errors.Is(err, shared.ErrInsufficientStock) {
			s.metrics.RecordStockRejection(ctx, operation)
		}
		return
	}
	s.log(ctx).Error("Sale operation failed",
		zap.String("operation", operation),
		zap.String("user_id", userID),
		zap.Error(err),
	)
}

func (s *SaleService) resolveRange(start, end time.Time) (shared.TimeRange, error) {
	if start.IsZero() && end.IsZero() {
		return shared.DayRange(s.now(), s.config.Location), nil
	}
	return shared.NewTimeRange(start, end)
}

func validateSaleInput(userID string, itemID uuid.UUID, quantity int) error {
	if strings.TrimSpace(userID) == "" {
		return shared.NewInvalidInputError("User ID is required")
	}
	if itemID == uuid.Nil {
		return shared.NewInvalidInputError("An item must be selected")
	}
	return sales.ValidateQuantity(quantity)
}

func snapshotOf(item *stock.Item) sales.ItemSnapshot {
	return sales.ItemSnapshot{
		ItemID:       item.ID,
		Name:         item.Name,
		Category:     item.Category,
		SellingPrice: item.SellingPrice,
		BuyingPrice:  item.BuyingPrice,
	}
}

// renameNotFound replaces the message of a NOT_FOUND error
func renameNotFound(err error, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, message)
	}
	return err
}

// log returns the service logger carrying the trace of ctx
func (s *SaleService) log(ctx context.Context) *zap.Logger {
	return logger.WithTraceContext(ctx, s.logger)
}
