package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
// ItemID carries no foreign key: the referenced item may be deleted while the sale stays.
type SaleModel struct {
	UserAggregateModel
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemName     string          `gorm:"type:varchar(200);not null"`
	ItemCategory string          `gorm:"type:varchar(100);not null"`
	ItemPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity     int             `gorm:"not null;check:quantity > 0"`
	TotalRevenue decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Profit       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	SaleDate     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	return &sales.Sale{
		UserAggregateRoot: m.ToDomainUserAggregateRoot(),
		ItemID:            m.ItemID,
		ItemName:          m.ItemName,
		ItemCategory:      m.ItemCategory,
		ItemPrice:         m.ItemPrice,
		UnitCost:          m.UnitCost,
		Quantity:          m.Quantity,
		TotalRevenue:      m.TotalRevenue,
		TotalCost:         m.TotalCost,
		Profit:            m.Profit,
		SaleDate:          m.SaleDate,
	}
}

// FromDomain populates the persistence model from a domain Sale.
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainUserAggregateRoot(s.UserAggregateRoot)
	m.ItemID = s.ItemID
	m.ItemName = s.ItemName
	m.ItemCategory = s.ItemCategory
	m.ItemPrice = s.ItemPrice
	m.UnitCost = s.UnitCost
	m.Quantity = s.Quantity
	m.TotalRevenue = s.TotalRevenue
	m.TotalCost = s.TotalCost
	m.Profit = s.Profit
	m.SaleDate = s.SaleDate
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}
