package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/inventrack/backend/internal/domain/sales"
	"github.com/inventrack/backend/internal/domain/shared"
	"github.com/inventrack/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by ID within a user namespace
func (r *GormSaleRepository) FindByID(ctx context.Context, userID string, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
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

// FindByDateRange finds sales dated within rng, bounds included, newest first
func (r *GormSaleRepository) FindByDateRange(ctx context.Context, userID string, rng shared.TimeRange) ([]sales.Sale, error) {
	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND sale_date >= ? AND sale_date <= ?", userID, rng.Start.UTC(), rng.End.UTC()).
		Order("sale_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	list := make([]sales.Sale, len(rows))
	for i := range rows {
		list[i] = *rows[i].ToDomain()
	}
	return list, nil
}

// Create inserts a new sale
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	model.SaleDate = model.SaleDate.UTC()
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveWithLock writes the sale if the stored row is still at sale.Version,
// then advances sale.Version
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ? AND user_id = ? AND version = ?", sale.ID, sale.UserID, sale.Version).
		Updates(map[string]any{
			"item_id":       sale.ItemID,
			"item_name":     sale.ItemName,
			"item_category": sale.ItemCategory,
			"item_price":    sale.ItemPrice,
			"unit_cost":     sale.UnitCost,
			"quantity":      sale.Quantity,
			"total_revenue": sale.TotalRevenue,
			"total_cost":    sale.TotalCost,
			"profit":        sale.Profit,
			"version":       sale.Version + 1,
			"updated_at":    sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	sale.IncrementVersion()
	return nil
}

// DeleteWithLock deletes the sale if the stored row is still at sale.Version
func (r *GormSaleRepository) DeleteWithLock(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{},
		"id = ? AND user_id = ? AND version = ?", sale.ID, sale.UserID, sale.Version)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// DeleteByIDs deletes the listed sales in one unconditional statement
func (r *GormSaleRepository) DeleteByIDs(ctx context.Context, userID string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Delete(&models.SaleModel{}, "user_id = ? AND id IN ?", userID, ids)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormSaleRepository implements sales.SaleRepository
var _ sales.SaleRepository = (*GormSaleRepository)(nil)
