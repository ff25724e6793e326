package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
)

// SaleRepository persists sales. Every method is scoped to one user namespace.
type SaleRepository interface {
	// FindByID returns NOT_FOUND if the sale does not exist
	FindByID(ctx context.Context, userID string, id uuid.UUID) (*Sale, error)
	// FindByDateRange lists sales with SaleDate in r, newest first
	FindByDateRange(ctx context.Context, userID string, r shared.TimeRange) ([]Sale, error)
	// Create inserts a new sale
	Create(ctx context.Context, sale *Sale) error
	// SaveWithLock updates the sale only if its stored version equals sale.Version,
	// then advances sale.Version. Returns CONCURRENCY_CONFLICT otherwise.
	SaveWithLock(ctx context.Context, sale *Sale) error
	// DeleteWithLock removes the sale only if its stored version equals sale.Version
	DeleteWithLock(ctx context.Context, sale *Sale) error
	// DeleteByIDs removes the listed sales in one unconditional statement
	DeleteByIDs(ctx context.Context, userID string, ids []uuid.UUID) (int64, error)
}
