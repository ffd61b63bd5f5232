package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// GormProductUnitRepository implements ProductUnitRepository using GORM
type GormProductUnitRepository struct {
	db *gorm.DB
}

// NewGormProductUnitRepository creates a new GormProductUnitRepository
func NewGormProductUnitRepository(db *gorm.DB) *GormProductUnitRepository {
	return &GormProductUnitRepository{db: db}
}

// FindByID finds a product unit by its ID
func (r *GormProductUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ProductUnit, error) {
	var unit ledger.ProductUnit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindByProductAndCode finds the unit mapping for a product and unit code
func (r *GormProductUnitRepository) FindByProductAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*ledger.ProductUnit, error) {
	var unit ledger.ProductUnit
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND unit_code = ?", productID, unitCode).
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// FindByProduct finds all unit mappings for a product
func (r *GormProductUnitRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]ledger.ProductUnit, error) {
	var units []ledger.ProductUnit
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("unit_code ASC").
		Find(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

// FindBaseUnit finds the base unit mapping for a product
func (r *GormProductUnitRepository) FindBaseUnit(ctx context.Context, productID uuid.UUID) (*ledger.ProductUnit, error) {
	var unit ledger.ProductUnit
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_base = true", productID).
		First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// Save creates or updates a product unit mapping
func (r *GormProductUnitRepository) Save(ctx context.Context, unit *ledger.ProductUnit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

// Delete removes a product unit mapping
func (r *GormProductUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ledger.ProductUnit{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormProductUnitRepository implements ProductUnitRepository
var _ ledger.ProductUnitRepository = (*GormProductUnitRepository)(nil)
