package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/domain/stock"
	"github.com/inventrack/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormItemRepository implements stock.ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by ID within a user namespace
func (r *GormItemRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*stock.Item, error) {
	var model models.ItemModel
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

// FindAll finds the user's items matching the filter
func (r *GormItemRepository) FindAll(ctx context.Context, userID string, filter shared.Filter) ([]stock.Item, error) {
	var rows []models.ItemModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.ItemModel{}).Where("user_id = ?", userID),
		filter,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// FindLowStock finds items at or below threshold, lowest quantity first
func (r *GormItemRepository) FindLowStock(ctx context.Context, userID string, threshold int) ([]stock.Item, error) {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND quantity <= ?", userID, threshold).
		Order("quantity ASC").Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toItems(rows), nil
}

// Count counts the user's items
func (r *GormItemRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ItemModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new item
func (r *GormItemRepository) Create(ctx context.Context, item *stock.Item) error {
	return r.db.WithContext(ctx).Create(models.ItemModelFromDomain(item)).Error
}

// SaveWithLock writes the item if the stored row is still at item.Version,
// then advances item.Version
func (r *GormItemRepository) SaveWithLock(ctx context.Context, item *stock.Item) error {
	result := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("id = ? AND user_id = ? AND version = ?", item.ID, item.UserID, item.Version).
		Updates(map[string]any{
			"name":          item.Name,
			"category":      item.Category,
			"quantity":      item.Quantity,
			"buying_price":  item.BuyingPrice,
			"selling_price": item.SellingPrice,
			"version":       item.Version + 1,
			"updated_at":    item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	item.IncrementVersion()
	return nil
}

// Delete deletes an item within a user namespace
func (r *GormItemRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ItemModel{}, "user_id = ? AND id = ?", userID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteAll deletes every item in the namespace in one statement
func (r *GormItemRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.ItemModel{}, "user_id = ?", userID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// applyFilter applies search, category, ordering and pagination
func (r *GormItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category, ok := filter.Filters["category"].(string); ok && category != "" {
		query = query.Where("category = ?", category)
	}

	sortField := ValidateSortField(filter.OrderBy, ItemSortFields, "name")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)
	if sortField != "name" {
		query = query.Order("name ASC")
	}

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func toItems(rows []models.ItemModel) []stock.Item {
	items := make([]stock.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items
}

// GormLowStockCounter counts low-stock items across every namespace for the
// low-stock gauge
type GormLowStockCounter struct {
	db *gorm.DB
}

// NewGormLowStockCounter creates a new GormLowStockCounter
func NewGormLowStockCounter(db *gorm.DB) *GormLowStockCounter {
	return &GormLowStockCounter{db: db}
}

// CountLowStock counts items whose quantity is at or below threshold
func (c *GormLowStockCounter) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&models.ItemModel{}).
		Where("quantity <= ?", threshold).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormItemRepository implements stock.ItemRepository
var _ stock.ItemRepository = (*GormItemRepository)(nil)
