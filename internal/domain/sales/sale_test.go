package sales

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(sell, buy int64) ItemSnapshot {
	return ItemSnapshot{
		ItemID:       uuid.New(),
		Name:         "Widget",
		Category:     "Tools",
		SellingPrice: decimal.NewFromInt(sell),
		BuyingPrice:  decimal.NewFromInt(buy),
	}
}

func TestNewSale(t *testing.T) {
	t.Run("derives totals from quantity and prices", func(t *testing.T) {
		when := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		sale, err := NewSale("user-1", snapshot(100, 60), 3, when)
		require.NoError(t, err)

		assert.True(t, sale.TotalRevenue.Equal(decimal.NewFromInt(300)))
		assert.True(t, sale.TotalCost.Equal(decimal.NewFromInt(180)))
		assert.True(t, sale.Profit.Equal(decimal.NewFromInt(120)))
		assert.Equal(t, when, sale.SaleDate)
		assert.True(t, sale.TotalsConsistent())
		require.Len(t, sale.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeSaleRecorded, sale.GetDomainEvents()[0].EventType())
	})

	t.Run("keeps decimal prices exact", func(t *testing.T) {
		item := snapshot(0, 0)
		item.SellingPrice = decimal.RequireFromString("0.10")
		item.BuyingPrice = decimal.RequireFromString("0.07")
		sale, err := NewSale("user-1", item, 3, time.Now())
		require.NoError(t, err)

		assert.Equal(t, "0.3", sale.TotalRevenue.String())
		assert.Equal(t, "0.09", sale.Profit.String())
	})

	t.Run("defaults empty category", func(t *testing.T) {
		item := snapshot(1, 1)
		item.Category = ""
		sale, err := NewSale("user-1", item, 1, time.Now())
		require.NoError(t, err)
		assert.Equal(t, DefaultItemCategory, sale.ItemCategory)
	})

	t.Run("rejects non-positive quantity and missing item", func(t *testing.T) {
		_, err := NewSale("user-1", snapshot(1, 1), 0, time.Now())
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))

		_, err = NewSale("user-1", snapshot(1, 1), -2, time.Now())
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))

		_, err = NewSale("user-1", ItemSnapshot{}, 1, time.Now())
		assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
	})
}

func TestSale_Revise(t *testing.T) {
	when := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sale, err := NewSale("user-1", snapshot(100, 60), 3, when)
	require.NoError(t, err)
	oldItem := sale.ItemID
	sale.ClearDomainEvents()

	other := snapshot(50, 20)
	require.NoError(t, sale.Revise(other, 5))

	assert.Equal(t, other.ItemID, sale.ItemID)
	assert.Equal(t, 5, sale.Quantity)
	assert.True(t, sale.TotalRevenue.Equal(decimal.NewFromInt(250)))
	assert.True(t, sale.Profit.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, when, sale.SaleDate, "sale date is never changed by an edit")
	assert.True(t, sale.TotalsConsistent())

	events := sale.GetDomainEvents()
	require.Len(t, events, 1)
	revised := events[0].(*SaleRevisedEvent)
	assert.Equal(t, oldItem, revised.PreviousItemID)
	assert.Equal(t, 3, revised.PreviousQuantity)

	assert.Error(t, sale.Revise(other, 0))
	assert.Equal(t, 5, sale.Quantity)
}

func TestSummarize(t *testing.T) {
	a, _ := NewSale("user-1", snapshot(100, 60), 3, time.Now())
	b, _ := NewSale("user-1", snapshot(10, 4), 2, time.Now())

	totals := Summarize([]Sale{*a, *b})
	assert.Equal(t, 2, totals.Count)
	assert.Equal(t, 5, totals.ItemsSold)
	assert.True(t, totals.Revenue.Equal(decimal.NewFromInt(320)))
	assert.True(t, totals.Profit.Equal(decimal.NewFromInt(132)))

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.Count)
	assert.True(t, empty.Revenue.IsZero())
}
