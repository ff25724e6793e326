package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) error { return errors.New("bucket offline") }
func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, ErrObjectNotFound }

func newSale(t *testing.T, qty int, at time.Time) sales.Sale {
	t.Helper()
	s, err := sales.NewSale("user/a", sales.ItemSnapshot{
		ItemID:       uuid.New(),
		Name:         "Widget",
		Category:     "Tools",
		SellingPrice: decimal.NewFromInt(100),
		BuyingPrice:  decimal.NewFromInt(60),
	}, qty, at)
	require.NoError(t, err)
	return *s
}

func TestSaleArchiver_ArchiveSales(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStore()
	archiver := NewSaleArchiver(store, "archives", nil)
	archiver.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	r := shared.TimeRange{Start: day, End: day.Add(24*time.Hour - time.Nanosecond)}
	list := []sales.Sale{newSale(t, 3, day.Add(9*time.Hour)), newSale(t, 2, day.Add(15*time.Hour))}

	key, err := archiver.ArchiveSales(ctx, "user/a", r, list)
	require.NoError(t, err)
	assert.Equal(t, "archives/user%2Fa/20260301T000000Z_20260301T235959Z/20260302T080000.000000000Z.json", key)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)

	var doc SaleArchive
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "user/a", doc.UserID)
	assert.Equal(t, 2, doc.Count)
	require.Len(t, doc.Sales, 2)
	assert.Equal(t, list[0].ID, doc.Sales[0].ID)
	assert.Equal(t, 5, doc.Totals.Quantity)
	assert.True(t, doc.Totals.Revenue.Equal(decimal.NewFromInt(500)))
	assert.True(t, doc.Totals.Profit.Equal(decimal.NewFromInt(200)))
}

func TestSaleArchiver_StoreFailure(t *testing.T) {
	archiver := NewSaleArchiver(failingStore{}, "", nil)
	_, err := archiver.ArchiveSales(context.Background(), "user-a", shared.TimeRange{}, nil)
	assert.ErrorContains(t, err, "bucket offline")
	assert.Equal(t, "purges", archiver.keyPrefix)
}
