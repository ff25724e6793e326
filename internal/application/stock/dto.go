package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to add an item
type CreateItemRequest struct {
	Name         string          `json:"name" binding:"required,notblank,max=200"`
	Category     string          `json:"category" binding:"omitempty,max=100"`
	Quantity     int             `json:"quantity" binding:"min=0"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// UpdateItemRequest overwrites every editable field of an item.
// ExpectedVersion, when set, makes the update fail if the item changed since it was read.
type UpdateItemRequest struct {
	Name            string          `json:"name" binding:"required,notblank,max=200"`
	Category        string          `json:"category" binding:"omitempty,max=100"`
	Quantity        int             `json:"quantity" binding:"min=0"`
	BuyingPrice     decimal.Decimal `json:"buying_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	ExpectedVersion *int            `json:"expected_version,omitempty"`
}

// ItemListFilter narrows an item listing
type ItemListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     int             `json:"quantity"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	LowStock     bool            `json:"low_stock"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateCategoryRequest represents a request to add a category
type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,notblank,max=100"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToItemResponse converts a domain Item to ItemResponse
func ToItemResponse(item *stock.Item, lowStockThreshold int) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		Name:         item.Name,
		Category:     item.Category,
		Quantity:     item.Quantity,
		BuyingPrice:  item.BuyingPrice,
		SellingPrice: item.SellingPrice,
		LowStock:     item.IsLowStock(lowStockThreshold),
		Version:      item.Version,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// ToItemResponses converts a slice of domain Items
func ToItemResponses(items []stock.Item, lowStockThreshold int) []ItemResponse {
	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i], lowStockThreshold)
	}
	return responses
}

// ToCategoryResponse converts a domain Category to CategoryResponse
func ToCategoryResponse(c *stock.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}
