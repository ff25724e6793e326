package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
)

// Event types
const (
	EventTypeSaleRecorded = "SaleRecorded"
	EventTypeSaleRevised  = "SaleRevised"
	EventTypeSaleDeleted  = "SaleDeleted"
	EventTypeSalesPurged  = "SalesPurged"
)

// SaleRecordedEvent is raised when a sale is created
type SaleRecordedEvent struct {
	shared.BaseDomainEvent
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// NewSaleRecordedEvent creates a SaleRecordedEvent
func NewSaleRecordedEvent(s *Sale) *SaleRecordedEvent {
	return &SaleRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleRecorded, AggregateTypeSale, s.ID, s.UserID),
		ItemID:          s.ItemID,
		Quantity:        s.Quantity,
	}
}

// SaleRevisedEvent is raised when a sale is edited
type SaleRevisedEvent struct {
	shared.BaseDomainEvent
	PreviousItemID   uuid.UUID `json:"previous_item_id"`
	PreviousQuantity int       `json:"previous_quantity"`
	ItemID           uuid.UUID `json:"item_id"`
	Quantity         int       `json:"quantity"`
}

// NewSaleRevisedEvent creates a SaleRevisedEvent
func NewSaleRevisedEvent(s *Sale, previousItemID uuid.UUID, previousQuantity int) *SaleRevisedEvent {
	return &SaleRevisedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSaleRevised, AggregateTypeSale, s.ID, s.UserID),
		PreviousItemID:   previousItemID,
		PreviousQuantity: previousQuantity,
		ItemID:           s.ItemID,
		Quantity:         s.Quantity,
	}
}

// SaleDeletedEvent is raised when a single sale is deleted with stock restored
type SaleDeletedEvent struct {
	shared.BaseDomainEvent
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

// NewSaleDeletedEvent creates a SaleDeletedEvent
func NewSaleDeletedEvent(s *Sale) *SaleDeletedEvent {
	return &SaleDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleDeleted, AggregateTypeSale, s.ID, s.UserID),
		ItemID:          s.ItemID,
		Quantity:        s.Quantity,
	}
}

// SalesPurgedEvent is raised after a bulk purge
type SalesPurgedEvent struct {
	shared.BaseDomainEvent
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Removed       int       `json:"removed"`
	StockRestored bool      `json:"stock_restored"`
}

// NewSalesPurgedEvent creates a SalesPurgedEvent
func NewSalesPurgedEvent(userID string, r shared.TimeRange, removed int, stockRestored bool) *SalesPurgedEvent {
	return &SalesPurgedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesPurged, AggregateTypeSale, uuid.Nil, userID),
		Start:           r.Start,
		End:             r.End,
		Removed:         removed,
		StockRestored:   stockRestored,
	}
}
