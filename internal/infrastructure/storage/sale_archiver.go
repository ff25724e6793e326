package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	appsales "github.com/inventrack/backend/internal/application/sales"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const archiveContentType = "application/json"

// SaleArchive is the document written for one purge
type SaleArchive struct {
	UserID     string         `json:"user_id"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	ArchivedAt time.Time      `json:"archived_at"`
	Count      int            `json:"count"`
	Sales      []ArchivedSale `json:"sales"`
	Totals     ArchiveTotals  `json:"totals"`
}

// ArchivedSale is the frozen copy of one sale
type ArchivedSale struct {
	ID           uuid.UUID       `json:"id"`
	ItemID       uuid.UUID       `json:"item_id"`
	ItemName     string          `json:"item_name"`
	ItemCategory string          `json:"item_category"`
	ItemPrice    decimal.Decimal `json:"item_price"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Quantity     int             `json:"quantity"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Profit       decimal.Decimal `json:"profit"`
	SaleDate     time.Time       `json:"sale_date"`
	Version      int             `json:"version"`
}

// ArchiveTotals sums the archived sales
type ArchiveTotals struct {
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
	Cost     decimal.Decimal `json:"cost"`
	Profit   decimal.Decimal `json:"profit"`
}

// SaleArchiver writes purged sales to object storage as JSON before they are deleted
type SaleArchiver struct {
	store     ObjectStore
	keyPrefix string
	logger    *zap.Logger
	now       func() time.Time
}

// NewSaleArchiver creates an archiver writing under keyPrefix
func NewSaleArchiver(store ObjectStore, keyPrefix string, logger *zap.Logger) *SaleArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if keyPrefix == "" {
		keyPrefix = "purges"
	}
	return &SaleArchiver{
		store:     store,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

// ArchiveSales writes list and returns the object key
func (a *SaleArchiver) ArchiveSales(ctx context.Context, userID string, r shared.TimeRange, list []sales.Sale) (string, error) {
	doc := SaleArchive{
		UserID:     userID,
		Start:      r.Start.UTC(),
		End:        r.End.UTC(),
		ArchivedAt: a.now().UTC(),
		Count:      len(list),
		Sales:      make([]ArchivedSale, 0, len(list)),
		Totals: ArchiveTotals{
			Revenue: decimal.Zero,
			Cost:    decimal.Zero,
			Profit:  decimal.Zero,
		},
	}
	for i := range list {
		s := &list[i]
		doc.Sales = append(doc.Sales, ArchivedSale{
			ID:           s.ID,
			ItemID:       s.ItemID,
			ItemName:     s.ItemName,
			ItemCategory: s.ItemCategory,
			ItemPrice:    s.ItemPrice,
			UnitCost:     s.UnitCost,
			Quantity:     s.Quantity,
			TotalRevenue: s.TotalRevenue,
			TotalCost:    s.TotalCost,
			Profit:       s.Profit,
			SaleDate:     s.SaleDate.UTC(),
			Version:      s.Version,
		})
		doc.Totals.Quantity += s.Quantity
		doc.Totals.Revenue = doc.Totals.Revenue.Add(s.TotalRevenue)
		doc.Totals.Cost = doc.Totals.Cost.Add(s.TotalCost)
		doc.Totals.Profit = doc.Totals.Profit.Add(s.Profit)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sale archive: %w", err)
	}

	key := a.objectKey(userID, doc.Start, doc.End, doc.ArchivedAt)
	if err := a.store.Put(ctx, key, data, archiveContentType); err != nil {
		return "", err
	}
	a.logger.Info("Archived sales before purge",
		zap.String("user_id", userID),
		zap.String("key", key),
		zap.Int("count", doc.Count),
	)
	return key, nil
}

// objectKey builds <prefix>/<user>/<start>_<end>/<archivedAt>.json; the user ID is path-escaped
func (a *SaleArchiver) objectKey(userID string, start, end, archivedAt time.Time) string {
	const layout = "20060102T150405Z"
	return path.Join(
		a.keyPrefix,
		url.PathEscape(userID),
		start.Format(layout)+"_"+end.Format(layout),
		archivedAt.Format("20060102T150405.000000000Z")+".json",
	)
}

var _ appsales.PurgeArchiver = (*SaleArchiver)(nil)
