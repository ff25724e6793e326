package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/application/retry"
	appsales "github.com/inventrack/backend/internal/application/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEngine wires the sale engine onto the GORM store
func newEngine(t *testing.T) (*appsales.SaleService, *GormItemRepository) {
	t.Helper()
	db := newSQLiteDatabase(t)
	service := appsales.NewSaleService(
		NewGormTransactionScope(db.DB),
		NewGormSaleRepository(db.DB),
		nil,
		appsales.Config{
			Retry:    retry.Policy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
			Location: time.UTC,
		},
	)
	return service, NewGormItemRepository(db.DB)
}

func storedQuantity(t *testing.T, repo *GormItemRepository, id uuid.UUID) int {
	t.Helper()
	item, err := repo.FindByID(context.Background(), userA, id)
	require.NoError(t, err)
	return item.Quantity
}

func TestSaleEngine_OnGormStore(t *testing.T) {
	ctx := context.Background()
	service, items := newEngine(t)

	widget := newItem(t, userA, "Widget", "Tools", 10)
	gadget := newItem(t, userA, "Gadget", "Tools", 2)
	require.NoError(t, items.Create(ctx, widget))
	require.NoError(t, items.Create(ctx, gadget))

	created, err := service.CreateSale(ctx, userA, appsales.CreateSaleRequest{ItemID: widget.ID, Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 7, storedQuantity(t, items, widget.ID))
	assert.Equal(t, "300", created.TotalRevenue.String())
	assert.Equal(t, "120", created.Profit.String())

	edited, err := service.EditSale(ctx, userA, created.ID, appsales.EditSaleRequest{ItemID: widget.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, storedQuantity(t, items, widget.ID))
	assert.Equal(t, "500", edited.TotalRevenue.String())
	assert.Equal(t, "200", edited.Profit.String())

	t.Run("failed move leaves both items and the sale untouched", func(t *testing.T) {
		_, err := service.EditSale(ctx, userA, created.ID, appsales.EditSaleRequest{ItemID: gadget.ID, Quantity: 3})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Contains(t, err.Error(), "Only 2 Gadget(s) available")

		assert.Equal(t, 5, storedQuantity(t, items, widget.ID))
		assert.Equal(t, 2, storedQuantity(t, items, gadget.ID))
		sale, err := service.GetSale(ctx, userA, created.ID)
		require.NoError(t, err)
		assert.Equal(t, widget.ID, sale.ItemID)
		assert.Equal(t, 5, sale.Quantity)
	})

	t.Run("move restores the old item and deducts the new one", func(t *testing.T) {
		_, err := service.EditSale(ctx, userA, created.ID, appsales.EditSaleRequest{ItemID: gadget.ID, Quantity: 2})
		require.NoError(t, err)
		assert.Equal(t, 10, storedQuantity(t, items, widget.ID))
		assert.Equal(t, 0, storedQuantity(t, items, gadget.ID))
	})

	t.Run("delete restores stock", func(t *testing.T) {
		require.NoError(t, service.DeleteSale(ctx, userA, created.ID))
		assert.Equal(t, 2, storedQuantity(t, items, gadget.ID))
		_, err := service.GetSale(ctx, userA, created.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSaleEngine_DeleteAfterItemRemoved(t *testing.T) {
	ctx := context.Background()
	service, items := newEngine(t)

	widget := newItem(t, userA, "Widget", "", 10)
	require.NoError(t, items.Create(ctx, widget))
	created, err := service.CreateSale(ctx, userA, appsales.CreateSaleRequest{ItemID: widget.ID, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, items.Delete(ctx, userA, widget.ID))

	err = service.DeleteSale(ctx, userA, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	sale, err := service.GetSale(ctx, userA, created.ID)
	require.NoError(t, err)
	assert.Equal(t, stock.DefaultCategory, sale.ItemCategory)
}
