package stock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/application/retry"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// DefaultLowStockThreshold is the quantity at or below which an item counts as low stock
const DefaultLowStockThreshold = 20

// ItemServiceConfig controls ItemService
type ItemServiceConfig struct {
	Retry             retry.Policy
	LowStockThreshold int
}

// ItemService handles the stock manager's item operations.
//
// Direct edits overwrite quantity, so they take part in the same optimistic
// version check as sale operations: an edit never silently undoes a sale
// committed after the edit's read.
type ItemService struct {
	itemRepo  stock.ItemRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
	config    ItemServiceConfig
}

// NewItemService creates a new ItemService
func NewItemService(itemRepo stock.ItemRepository, logger *zap.Logger, cfg ItemServiceConfig) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LowStockThreshold < 0 {
		cfg.LowStockThreshold = DefaultLowStockThreshold
	}
	return &ItemService{
		itemRepo:  itemRepo,
		publisher: shared.NoopEventPublisher{},
		logger:    logger,
		config:    cfg,
	}
}

// SetEventPublisher sets the publisher that receives item events
func (s *ItemService) SetEventPublisher(publisher shared.EventPublisher) {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	s.publisher = publisher
}

// LowStockThreshold returns the configured threshold
func (s *ItemService) LowStockThreshold() int {
	return s.config.LowStockThreshold
}

// CreateItem adds an item to the user's inventory
func (s *ItemService) CreateItem(ctx context.Context, userID string, req CreateItemRequest) (*ItemResponse, error) {
	item, err := stock.NewItem(userID, stock.ItemDetails{
		Name:         req.Name,
		Category:     req.Category,
		Quantity:     req.Quantity,
		BuyingPrice:  req.BuyingPrice,
		SellingPrice: req.SellingPrice,
	})
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, item)

	s.logger.Info("Item created",
		zap.String("user_id", userID),
		zap.String("item_id", item.ID.String()),
		zap.String("name", item.Name),
	)
	response := ToItemResponse(item, s.config.LowStockThreshold)
	return &response, nil
}

// GetItem returns one item
func (s *ItemService) GetItem(ctx context.Context, userID string, itemID uuid.UUID) (*ItemResponse, error) {
	item, err := s.itemRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item, s.config.LowStockThreshold)
	return &response, nil
}

// ListItems lists items ordered by name
func (s *ItemService) ListItems(ctx context.Context, userID string, filter ItemListFilter) ([]ItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "name",
		OrderDir: "asc",
		Search:   strings.TrimSpace(filter.Search),
		Filters:  make(map[string]any),
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		domainFilter.Filters["category"] = category
	}

	items, err := s.itemRepo.FindAll(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.itemRepo.Count(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return ToItemResponses(items, s.config.LowStockThreshold), total, nil
}

// ListLowStock lists items at or below the low-stock threshold, lowest first
func (s *ItemService) ListLowStock(ctx context.Context, userID string) ([]ItemResponse, error) {
	items, err := s.itemRepo.FindLowStock(ctx, userID, s.config.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items, s.config.LowStockThreshold), nil
}

// UpdateItem overwrites an item's fields including quantity.
//
// With ExpectedVersion the update applies only to that version and fails with
// CONCURRENCY_CONFLICT otherwise. Without it the latest version is re-read and
// the update retried on conflict.
func (s *ItemService) UpdateItem(ctx context.Context, userID string, itemID uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	details := stock.ItemDetails{
		Name:         req.Name,
		Category:     req.Category,
		Quantity:     req.Quantity,
		BuyingPrice:  req.BuyingPrice,
		SellingPrice: req.SellingPrice,
	}
	if err := details.Normalize().Validate(); err != nil {
		return nil, err
	}

	var updated *stock.Item
	apply := func(ctx context.Context) error {
		item, err := s.itemRepo.FindByID(ctx, userID, itemID)
		if err != nil {
			return err
		}
		if req.ExpectedVersion != nil && *req.ExpectedVersion != item.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := item.Update(details); err != nil {
			return err
		}
		if err := s.itemRepo.SaveWithLock(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	}

	var err error
	if req.ExpectedVersion != nil {
		err = apply(ctx)
	} else {
		err = retry.OnConflict(ctx, s.config.Retry, s.logRetry("update_item", userID), apply)
	}
	if err != nil {
		return nil, err
	}
	s.publishEvents(ctx, updated)

	s.logger.Info("Item updated",
		zap.String("user_id", userID),
		zap.String("item_id", itemID.String()),
		zap.Int("quantity", updated.Quantity),
	)
	response := ToItemResponse(updated, s.config.LowStockThreshold)
	return &response, nil
}

// DeleteItem removes an item. Sales that reference it keep their snapshot.
func (s *ItemService) DeleteItem(ctx context.Context, userID string, itemID uuid.UUID) error {
	if err := s.itemRepo.Delete(ctx, userID, itemID); err != nil {
		return err
	}
	s.publish(ctx, stock.NewItemDeletedEvent(userID, itemID))
	s.logger.Info("Item deleted", zap.String("user_id", userID), zap.String("item_id", itemID.String()))
	return nil
}

// DeleteAllItems removes every item of the user in one batch
func (s *ItemService) DeleteAllItems(ctx context.Context, userID string) (int64, error) {
	removed, err := s.itemRepo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, stock.NewItemsClearedEvent(userID, removed))
	s.logger.Info("All items deleted", zap.String("user_id", userID), zap.Int64("count", removed))
	return removed, nil
}

func (s *ItemService) logRetry(operation, userID string) retry.NotifyFunc {
	return func(attempt int, err error, wait time.Duration) {
		s.logger.Warn("Item update conflict, retrying",
			zap.String("operation", operation),
			zap.String("user_id", userID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
		)
	}
}

func (s *ItemService) publishEvents(ctx context.Context, item *stock.Item) {
	s.publish(ctx, item.GetDomainEvents()...)
	item.ClearDomainEvents()
}

func (s *ItemService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish item events", zap.Error(err))
	}
}
