package stock

import (
	"errors"
	"testing"

	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ItemDetails {
	return ItemDetails{
		Name:         "Widget",
		Category:     "Tools",
		Quantity:     10,
		BuyingPrice:  decimal.NewFromInt(60),
		SellingPrice: decimal.NewFromInt(100),
	}
}

func TestNewItem(t *testing.T) {
	t.Run("creates item with version 1 and created event", func(t *testing.T) {
		item, err := NewItem("user-1", validDetails())
		require.NoError(t, err)

		assert.Equal(t, "user-1", item.UserID)
		assert.Equal(t, 10, item.Quantity)
		assert.Equal(t, 1, item.Version)
		require.Len(t, item.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeItemCreated, item.GetDomainEvents()[0].EventType())
	})

	t.Run("defaults empty category", func(t *testing.T) {
		d := validDetails()
		d.Category = "   "
		item, err := NewItem("user-1", d)
		require.NoError(t, err)
		assert.Equal(t, DefaultCategory, item.Category)
	})

	t.Run("rejects invalid details", func(t *testing.T) {
		cases := map[string]func(*ItemDetails){
			"empty name":             func(d *ItemDetails) { d.Name = " " },
			"negative quantity":      func(d *ItemDetails) { d.Quantity = -1 },
			"negative buying price":  func(d *ItemDetails) { d.BuyingPrice = decimal.NewFromInt(-1) },
			"negative selling price": func(d *ItemDetails) { d.SellingPrice = decimal.NewFromInt(-1) },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				d := validDetails()
				mutate(&d)
				_, err := NewItem("user-1", d)
				require.Error(t, err)
				assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
			})
		}
	})

	t.Run("requires user namespace", func(t *testing.T) {
		_, err := NewItem("", validDetails())
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestItem_AdjustQuantity(t *testing.T) {
	t.Run("applies positive and negative deltas", func(t *testing.T) {
		item, _ := NewItem("user-1", validDetails())
		item.ClearDomainEvents()

		require.NoError(t, item.AdjustQuantity(-3))
		assert.Equal(t, 7, item.Quantity)
		require.NoError(t, item.AdjustQuantity(3))
		assert.Equal(t, 10, item.Quantity)

		events := item.GetDomainEvents()
		require.Len(t, events, 2)
		adjusted := events[0].(*StockAdjustedEvent)
		assert.Equal(t, 10, adjusted.PreviousQuantity)
		assert.Equal(t, -3, adjusted.Delta)
		assert.Equal(t, 7, adjusted.Quantity)
	})

	t.Run("allows draining to exactly zero", func(t *testing.T) {
		item, _ := NewItem("user-1", validDetails())
		require.NoError(t, item.AdjustQuantity(-10))
		assert.Equal(t, 0, item.Quantity)
	})

	t.Run("refuses to go negative and leaves quantity unchanged", func(t *testing.T) {
		item, _ := NewItem("user-1", validDetails())
		err := item.AdjustQuantity(-11)

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Contains(t, err.Error(), "Only 10 Widget(s) available")
		assert.Equal(t, 10, item.Quantity)
	})
}

func TestItem_Update(t *testing.T) {
	item, _ := NewItem("user-1", validDetails())
	item.ClearDomainEvents()

	d := validDetails()
	d.Name = "Widget Pro"
	d.Quantity = 4
	d.SellingPrice = decimal.NewFromInt(120)
	require.NoError(t, item.Update(d))

	assert.Equal(t, "Widget Pro", item.Name)
	assert.Equal(t, 4, item.Quantity)
	assert.True(t, item.SellingPrice.Equal(decimal.NewFromInt(120)))
	require.Len(t, item.GetDomainEvents(), 1)
	updated := item.GetDomainEvents()[0].(*ItemUpdatedEvent)
	assert.Equal(t, 10, updated.PreviousQuantity)
	assert.Equal(t, 4, updated.Quantity)

	d.Quantity = -2
	assert.Error(t, item.Update(d))
	assert.Equal(t, 4, item.Quantity)
}

func TestItem_IsLowStock(t *testing.T) {
	item, _ := NewItem("user-1", validDetails())
	assert.True(t, item.IsLowStock(20))
	assert.True(t, item.IsLowStock(10))
	assert.False(t, item.IsLowStock(9))
}

func TestNewCategory(t *testing.T) {
	c, err := NewCategory("user-1", "  Drinks ")
	require.NoError(t, err)
	assert.Equal(t, "Drinks", c.Name)

	_, err = NewCategory("user-1", "")
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
}
