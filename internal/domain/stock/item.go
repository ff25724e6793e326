package stock

import (
	"fmt"
	"strings"

	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeItem is the aggregate type name used in events
const AggregateTypeItem = "Item"

// DefaultCategory is assigned when an item is saved without a category
const DefaultCategory = "Uncategorized"

// Item is one stock-keeping unit in a user's namespace.
// Quantity is never negative; every change goes through AdjustQuantity or Update.
type Item struct {
	shared.UserAggregateRoot
	Name         string
	Category     string
	Quantity     int
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
}

// ItemDetails holds the fields a stock manager can set on an item
type ItemDetails struct {
	Name         string
	Category     string
	Quantity     int
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
}

// Normalize trims text fields and applies the default category
func (d ItemDetails) Normalize() ItemDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Category = strings.TrimSpace(d.Category)
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	return d
}

// Validate checks the item invariants
func (d ItemDetails) Validate() error {
	if d.Name == "" {
		return shared.NewInvalidInputError("Item name is required")
	}
	if len(d.Name) > 200 {
		return shared.NewInvalidInputError("Item name cannot exceed 200 characters")
	}
	if d.Quantity < 0 {
		return shared.NewInvalidInputError("Quantity cannot be negative")
	}
	if d.BuyingPrice.IsNegative() {
		return shared.NewInvalidInputError("Buying price cannot be negative")
	}
	if d.SellingPrice.IsNegative() {
		return shared.NewInvalidInputError("Selling price cannot be negative")
	}
	return nil
}

// NewItem creates a new item in userID's namespace
func NewItem(userID string, details ItemDetails) (*Item, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewInvalidInputError("User ID is required")
	}
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}

	item := &Item{
		UserAggregateRoot: shared.NewUserAggregateRoot(userID),
		Name:              details.Name,
		Category:          details.Category,
		Quantity:          details.Quantity,
		BuyingPrice:       details.BuyingPrice,
		SellingPrice:      details.SellingPrice,
	}
	item.AddDomainEvent(NewItemCreatedEvent(item))
	return item, nil
}

// Update overwrites every editable field, quantity included
func (i *Item) Update(details ItemDetails) error {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return err
	}
	previous := i.Quantity

	i.Name = details.Name
	i.Category = details.Category
	i.Quantity = details.Quantity
	i.BuyingPrice = details.BuyingPrice
	i.SellingPrice = details.SellingPrice
	i.Touch()

	i.AddDomainEvent(NewItemUpdatedEvent(i, previous))
	return nil
}

// AdjustQuantity applies delta to the on-hand quantity.
// Fails with INSUFFICIENT_STOCK if the result would be negative; the item is unchanged then.
func (i *Item) AdjustQuantity(delta int) error {
	next := i.Quantity + delta
	if next < 0 {
		return NewInsufficientStockError(i.Name, i.Quantity)
	}
	previous := i.Quantity
	i.Quantity = next
	i.Touch()

	i.AddDomainEvent(NewStockAdjustedEvent(i, previous, delta))
	return nil
}

// IsLowStock reports whether the item is at or below threshold
func (i *Item) IsLowStock(threshold int) bool {
	return i.Quantity <= threshold
}

// NewInsufficientStockError builds the error surfaced when a deduction
// exceeds the on-hand quantity. The message names the item and what is left.
func NewInsufficientStockError(itemName string, available int) *shared.DomainError {
	return shared.NewDomainError(
		shared.CodeInsufficientStock,
		fmt.Sprintf("Not enough stock. Only %d %s(s) available.", available, itemName),
	)
}
