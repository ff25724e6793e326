package sales

import (
	"context"

	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to item and sale repositories.
// All repository operations made inside fn share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides repositories bound to the current transaction.
type TransactionalRepositories interface {
	// ItemRepo returns the item repository scoped to the current transaction
	ItemRepo() stock.ItemRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() sales.SaleRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
// Useful in tests where the repositories are in-memory fakes.
type NoOpTransactionScope struct {
	itemRepo stock.ItemRepository
	saleRepo sales.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(itemRepo stock.ItemRepository, saleRepo sales.SaleRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		itemRepo: itemRepo,
		saleRepo: saleRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ItemRepo returns the item repository.
func (s *NoOpTransactionScope) ItemRepo() stock.ItemRepository {
	return s.itemRepo
}

// SaleRepo returns the sale repository.
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
