package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	userA = "user-a"
	userB = "user-b"
)

// newSQLiteDatabase opens a migrated in-memory database on a single connection
func newSQLiteDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabaseWithDialector(sqlite.Open(":memory:"), nil, nil)
	require.NoError(t, err)

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newMockGormDB creates a GORM DB over a mocked SQL connection with the postgres dialect
func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func newItem(t *testing.T, userID, name, category string, qty int) *stock.Item {
	t.Helper()
	item, err := stock.NewItem(userID, stock.ItemDetails{
		Name:         name,
		Category:     category,
		Quantity:     qty,
		BuyingPrice:  decimal.NewFromInt(60),
		SellingPrice: decimal.NewFromInt(100),
	})
	require.NoError(t, err)
	item.ClearDomainEvents()
	return item
}
