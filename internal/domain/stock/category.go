package stock

import (
	"strings"

	"github.com/inventrack/backend/internal/domain/shared"
)

// Category is a free-form label items can reference by name.
// Items are not linked to categories by id, so deleting one leaves items untouched.
type Category struct {
	shared.BaseEntity
	UserID string
	Name   string
}

// NewCategory creates a category in userID's namespace
func NewCategory(userID, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewInvalidInputError("User ID is required")
	}
	if name == "" {
		return nil, shared.NewInvalidInputError("Category name is required")
	}
	if len(name) > 100 {
		return nil, shared.NewInvalidInputError("Category name cannot exceed 100 characters")
	}
	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Name:       name,
	}, nil
}
