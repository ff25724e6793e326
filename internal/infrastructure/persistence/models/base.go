package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// UserAggregateModel provides common persistence fields for user-namespaced
// aggregate roots: the base fields, the optimistic-lock version and the owner.
type UserAggregateModel struct {
	BaseModel
	Version int    `gorm:"not null;default:1"`
	UserID  string `gorm:"type:varchar(128);not null;index"`
}

// FromDomainUserAggregateRoot populates UserAggregateModel from a domain UserAggregateRoot
func (m *UserAggregateModel) FromDomainUserAggregateRoot(u shared.UserAggregateRoot) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.Version = u.Version
	m.UserID = u.UserID
}

// ToDomainUserAggregateRoot builds the domain UserAggregateRoot
func (m *UserAggregateModel) ToDomainUserAggregateRoot() shared.UserAggregateRoot {
	return shared.UserAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: m.BaseModel.ToDomain(),
			Version:    m.Version,
		},
		UserID: m.UserID,
	}
}
