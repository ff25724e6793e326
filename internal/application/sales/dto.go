package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// CreateSaleRequest represents a request to record a sale
type CreateSaleRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required"`
}

// EditSaleRequest represents a request to change a recorded sale
type EditSaleRequest struct {
	ItemID   uuid.UUID `json:"item_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
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

// TotalsResponse summarises a list of sales
type TotalsResponse struct {
	Count     int             `json:"count"`
	ItemsSold int             `json:"items_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
	Cost      decimal.Decimal `json:"cost"`
	Profit    decimal.Decimal `json:"profit"`
}

// SaleListResponse is a date-range listing with its totals
type SaleListResponse struct {
	Start  time.Time      `json:"start"`
	End    time.Time      `json:"end"`
	Sales  []SaleResponse `json:"sales"`
	Totals TotalsResponse `json:"totals"`
}

// PurgeResult reports the outcome of a bulk purge
type PurgeResult struct {
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Removed       int       `json:"removed"`
	Skipped       int       `json:"skipped"`
	StockRestored bool      `json:"stock_restored"`
	ArchiveKey    string    `json:"archive_key,omitempty"`
}

// ToSaleResponse converts a domain Sale to SaleResponse
func ToSaleResponse(s *sales.Sale) SaleResponse {
	return SaleResponse{
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
		SaleDate:     s.SaleDate,
		Version:      s.Version,
	}
}

// ToSaleListResponse converts sales and their totals for a range
func ToSaleListResponse(start, end time.Time, list []sales.Sale) SaleListResponse {
	responses := make([]SaleResponse, len(list))
	for i := range list {
		responses[i] = ToSaleResponse(&list[i])
	}
	totals := sales.Summarize(list)
	return SaleListResponse{
		Start: start,
		End:   end,
		Sales: responses,
		Totals: TotalsResponse{
			Count:     totals.Count,
			ItemsSold: totals.ItemsSold,
			Revenue:   totals.Revenue,
			Cost:      totals.Cost,
			Profit:    totals.Profit,
		},
	}
}
