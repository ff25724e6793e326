package sales

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
)

// StockLedger is the quantity view of one transaction.
//
// Items are read once and cached, so a second adjustment of the same item
// sees the first one. Adjustments are staged on the cached aggregates and only
// reach the store on Flush, each through a versioned save. An item that changed
// in the store after it was read makes Flush fail with CONCURRENCY_CONFLICT.
type StockLedger struct {
	userID string
	repo   stock.ItemRepository
	items  map[uuid.UUID]*stock.Item
	staged []uuid.UUID
}

// NewStockLedger creates a ledger over repo, which must be bound to the
// enclosing transaction
func NewStockLedger(userID string, repo stock.ItemRepository) *StockLedger {
	return &StockLedger{
		userID: userID,
		repo:   repo,
		items:  make(map[uuid.UUID]*stock.Item),
	}
}

// Item returns the item as this transaction sees it.
// Fails with NOT_FOUND if the item does not exist.
func (l *StockLedger) Item(ctx context.Context, itemID uuid.UUID) (*stock.Item, error) {
	if item, ok := l.items[itemID]; ok {
		return item, nil
	}
	item, err := l.repo.FindByID(ctx, l.userID, itemID)
	if err != nil {
		return nil, err
	}
	l.items[itemID] = item
	return item, nil
}

// GetQuantity returns the item's quantity including adjustments staged so far
func (l *StockLedger) GetQuantity(ctx context.Context, itemID uuid.UUID) (int, error) {
	item, err := l.Item(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

// AdjustQuantity stages quantity + delta.
// Fails with INSUFFICIENT_STOCK if the result would be negative, staging nothing.
func (l *StockLedger) AdjustQuantity(ctx context.Context, itemID uuid.UUID, delta int) error {
	item, err := l.Item(ctx, itemID)
	if err != nil {
		return err
	}
	if err := item.AdjustQuantity(delta); err != nil {
		return err
	}
	l.stage(itemID)
	return nil
}

func (l *StockLedger) stage(itemID uuid.UUID) {
	for _, id := range l.staged {
		if id == itemID {
			return
		}
	}
	l.staged = append(l.staged, itemID)
}

// Flush writes every adjusted item with a versioned save, in ascending id
// order so that concurrent transactions lock rows in the same sequence
func (l *StockLedger) Flush(ctx context.Context) error {
	ids := make([]uuid.UUID, len(l.staged))
	copy(ids, l.staged)
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	for _, id := range ids {
		if err := l.repo.SaveWithLock(ctx, l.items[id]); err != nil {
			return err
		}
	}
	return nil
}

// Events returns the domain events raised by the staged adjustments
func (l *StockLedger) Events() []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, id := range l.staged {
		events = append(events, l.items[id].GetDomainEvents()...)
	}
	return events
}
