package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/inventrack/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCategoryRepository implements stock.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindAll finds every category of the user ordered by name
func (r *GormCategoryRepository) FindAll(ctx context.Context, userID string) ([]stock.Category, error) {
	var rows []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	categories := make([]stock.Category, len(rows))
	for i := range rows {
		categories[i] = *rows[i].ToDomain()
	}
	return categories, nil
}

// FindByID finds a category by ID within a user namespace
func (r *GormCategoryRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*stock.Category, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new category. A unique violation on the folded name
// surfaces as ALREADY_EXISTS.
func (r *GormCategoryRepository) Create(ctx context.Context, category *stock.Category) error {
	if err := r.db.WithContext(ctx).Create(models.CategoryModelFromDomain(category)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Delete deletes a category within a user namespace
func (r *GormCategoryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.CategoryModel{}, "user_id = ? AND id = ?", userID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCategoryRepository implements stock.CategoryRepository
var _ stock.CategoryRepository = (*GormCategoryRepository)(nil)
