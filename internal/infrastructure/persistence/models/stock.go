package models

import (
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for the Item aggregate root.
type ItemModel struct {
	UserAggregateModel
	Name         string          `gorm:"type:varchar(200);not null;index"`
	Category     string          `gorm:"type:varchar(100);not null;default:'Uncategorized'"`
	Quantity     int             `gorm:"not null;default:0;check:quantity >= 0"`
	BuyingPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item.
func (m *ItemModel) ToDomain() *stock.Item {
	return &stock.Item{
		UserAggregateRoot: m.ToDomainUserAggregateRoot(),
		Name:              m.Name,
		Category:          m.Category,
		Quantity:          m.Quantity,
		BuyingPrice:       m.BuyingPrice,
		SellingPrice:      m.SellingPrice,
	}
}

// FromDomain populates the persistence model from a domain Item.
func (m *ItemModel) FromDomain(i *stock.Item) {
	m.FromDomainUserAggregateRoot(i.UserAggregateRoot)
	m.Name = i.Name
	m.Category = i.Category
	m.Quantity = i.Quantity
	m.BuyingPrice = i.BuyingPrice
	m.SellingPrice = i.SellingPrice
}

// ItemModelFromDomain creates a new persistence model from a domain Item.
func ItemModelFromDomain(i *stock.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}

// CategoryModel is the persistence model for the Category entity.
type CategoryModel struct {
	BaseModel
	UserID string `gorm:"type:varchar(128);not null;index"`
	Name   string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category.
func (m *CategoryModel) ToDomain() *stock.Category {
	return &stock.Category{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		UserID: m.UserID,
		Name:   m.Name,
	}
}

// CategoryModelFromDomain creates a new persistence model from a domain Category.
func CategoryModelFromDomain(c *stock.Category) *CategoryModel {
	m := &CategoryModel{UserID: c.UserID, Name: c.Name}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
