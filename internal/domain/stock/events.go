package stock

import (
	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
)

// Event types
const (
	EventTypeItemCreated     = "ItemCreated"
	EventTypeItemUpdated     = "ItemUpdated"
	EventTypeItemDeleted     = "ItemDeleted"
	EventTypeItemsCleared    = "ItemsCleared"
	EventTypeStockAdjusted   = "StockAdjusted"
	EventTypeCategoryAdded   = "CategoryAdded"
	EventTypeCategoryRemoved = "CategoryRemoved"
)

// ItemCreatedEvent is raised when a stock manager adds an item
type ItemCreatedEvent struct {
	shared.BaseDomainEvent
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// NewItemCreatedEvent creates an ItemCreatedEvent
func NewItemCreatedEvent(item *Item) *ItemCreatedEvent {
	return &ItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemCreated, AggregateTypeItem, item.ID, item.UserID),
		Name:            item.Name,
		Quantity:        item.Quantity,
	}
}

// ItemUpdatedEvent is raised when a stock manager overwrites an item
type ItemUpdatedEvent struct {
	shared.BaseDomainEvent
	PreviousQuantity int `json:"previous_quantity"`
	Quantity         int `json:"quantity"`
}

// NewItemUpdatedEvent creates an ItemUpdatedEvent
func NewItemUpdatedEvent(item *Item, previousQuantity int) *ItemUpdatedEvent {
	return &ItemUpdatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeItemUpdated, AggregateTypeItem, item.ID, item.UserID),
		PreviousQuantity: previousQuantity,
		Quantity:         item.Quantity,
	}
}

// ItemDeletedEvent is raised when an item is removed
type ItemDeletedEvent struct {
	shared.BaseDomainEvent
}

// NewItemDeletedEvent creates an ItemDeletedEvent
func NewItemDeletedEvent(userID string, itemID uuid.UUID) *ItemDeletedEvent {
	return &ItemDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemDeleted, AggregateTypeItem, itemID, userID),
	}
}

// ItemsClearedEvent is raised when every item in a namespace is removed at once
type ItemsClearedEvent struct {
	shared.BaseDomainEvent
	Count int64 `json:"count"`
}

// NewItemsClearedEvent creates an ItemsClearedEvent
func NewItemsClearedEvent(userID string, count int64) *ItemsClearedEvent {
	return &ItemsClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemsCleared, AggregateTypeItem, uuid.Nil, userID),
		Count:           count,
	}
}

// StockAdjustedEvent is raised for every committed quantity delta
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	PreviousQuantity int `json:"previous_quantity"`
	Delta            int `json:"delta"`
	Quantity         int `json:"quantity"`
}

// NewStockAdjustedEvent creates a StockAdjustedEvent
func NewStockAdjustedEvent(item *Item, previousQuantity, delta int) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeItem, item.ID, item.UserID),
		PreviousQuantity: previousQuantity,
		Delta:            delta,
		Quantity:         item.Quantity,
	}
}

// CategoryChangedEvent is raised when a category is added or removed
type CategoryChangedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCategoryChangedEvent creates a CategoryChangedEvent of the given type
func NewCategoryChangedEvent(eventType string, category *Category) *CategoryChangedEvent {
	return &CategoryChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Category", category.ID, category.UserID),
		Name:            category.Name,
	}
}
