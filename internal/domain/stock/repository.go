package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
)

// ItemRepository persists items. Every method is scoped to one user namespace.
type ItemRepository interface {
	// FindByID returns NOT_FOUND if the item does not exist in userID's namespace
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*Item, error)
	// FindAll lists items ordered by name; Filter.Search matches the name,
	// Filters["category"] restricts to one category
	FindAll(ctx context.Context, userID string, filter shared.Filter) ([]Item, error)
	// FindLowStock lists items with quantity <= threshold, lowest first
	FindLowStock(ctx context.Context, userID string, threshold int) ([]Item, error)
	// Count returns the number of items in the namespace
	Count(ctx context.Context, userID string) (int64, error)
	// Create inserts a new item
	Create(ctx context.Context, item *Item) error
	// SaveWithLock writes the item only if the stored version still equals item.Version,
	// then advances item.Version. Returns CONCURRENCY_CONFLICT otherwise.
	SaveWithLock(ctx context.Context, item *Item) error
	// Delete removes one item
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	// DeleteAll removes every item in the namespace without any stock reconciliation
	DeleteAll(ctx context.Context, userID string) (int64, error)
}

// CategoryRepository persists categories
type CategoryRepository interface {
	FindAll(ctx context.Context, userID string) ([]Category, error)
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*Category, error)
	Create(ctx context.Context, category *Category) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
