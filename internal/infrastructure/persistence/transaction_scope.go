package persistence

import (
	"context"
	"errors"
	"fmt"

	appsales "github.com/inventrack/backend/internal/application/sales"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes that abort a transaction which may succeed on retry
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every versioned save inside one Execute call commits or rolls back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
// Deadlocks and serialization failures surface as CONCURRENCY_CONFLICT.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
	return translateTxError(err)
}

func translateTxError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%w: %s", shared.ErrConcurrencyConflict, pgErr.Message)
	}
	return err
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ItemRepo returns the item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ItemRepo() stock.ItemRepository {
	return NewGormItemRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appsales.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
