package sales

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeSale is the aggregate type name used in events
const AggregateTypeSale = "Sale"

// DefaultItemCategory is recorded when the sold item has no category
const DefaultItemCategory = "Uncategorized"

// ItemSnapshot is the item state a sale captures at the moment it is recorded or revised
type ItemSnapshot struct {
	ItemID       uuid.UUID
	Name         string
	Category     string
	SellingPrice decimal.Decimal
	BuyingPrice  decimal.Decimal
}

// Sale is one completed sale. ItemID is a lookup key only: the item it names may
// have been deleted since. Totals are always derived from Quantity and the
// captured prices and cannot be set on their own.
type Sale struct {
	shared.UserAggregateRoot
	ItemID       uuid.UUID
	ItemName     string
	ItemCategory string
	ItemPrice    decimal.Decimal
	UnitCost     decimal.Decimal
	Quantity     int
	TotalRevenue decimal.Decimal
	TotalCost    decimal.Decimal
	Profit       decimal.Decimal
	SaleDate     time.Time
}

// ValidateQuantity rejects anything but a positive unit count
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return shared.NewInvalidInputError("Quantity must be a positive whole number")
	}
	return nil
}

// NewSale records quantity units of item sold at saleDate
func NewSale(userID string, item ItemSnapshot, quantity int, saleDate time.Time) (*Sale, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewInvalidInputError("User ID is required")
	}
	if item.ItemID == uuid.Nil {
		return nil, shared.NewInvalidInputError("An item must be selected")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	sale := &Sale{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		SaleDate:          saleDate,
	}
	sale.apply(item, quantity)
	sale.AddDomainEvent(NewSaleRecordedEvent(sale))
	return sale, nil
}

// Revise points the sale at item with a new quantity and recomputes every
// snapshot and total. SaleDate is kept.
func (s *Sale) Revise(item ItemSnapshot, quantity int) error {
	if item.ItemID == uuid.Nil {
		return shared.NewInvalidInputError("An item must be selected")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	previousItemID, previousQuantity := s.ItemID, s.Quantity

	s.apply(item, quantity)
	s.Touch()

	s.AddDomainEvent(NewSaleRevisedEvent(s, previousItemID, previousQuantity))
	return nil
}

// MarkDeleted raises the deletion event; the repository removes the row
func (s *Sale) MarkDeleted() {
	s.AddDomainEvent(NewSaleDeletedEvent(s))
}

// TotalsConsistent reports whether the derived totals match quantity and prices exactly
func (s *Sale) TotalsConsistent() bool {
	q := decimal.NewFromInt(int64(s.Quantity))
	revenue := q.Mul(s.ItemPrice)
	cost := q.Mul(s.UnitCost)
	return s.TotalRevenue.Equal(revenue) &&
		s.TotalCost.Equal(cost) &&
		s.Profit.Equal(revenue.Sub(cost))
}

func (s *Sale) apply(item ItemSnapshot, quantity int) {
	category := strings.TrimSpace(item.Category)
	if category == "" {
		category = DefaultItemCategory
	}

	s.ItemID = item.ItemID
	s.ItemName = item.Name
	s.ItemCategory = category
	s.ItemPrice = item.SellingPrice
	s.UnitCost = item.BuyingPrice
	s.Quantity = quantity

	q := decimal.NewFromInt(int64(quantity))
	s.TotalRevenue = q.Mul(s.ItemPrice)
	s.TotalCost = q.Mul(s.UnitCost)
	s.Profit = s.TotalRevenue.Sub(s.TotalCost)
}
