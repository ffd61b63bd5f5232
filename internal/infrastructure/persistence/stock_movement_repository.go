package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement to the ledger. The unique index on the source
// tuple makes the insert idempotent: when a movement with the same key
// already exists, ON CONFLICT DO NOTHING turns the insert into a no-op and
// the existing row is returned instead.
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *ledger.StockMovement) (*ledger.StockMovement, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(movement)
	if result.Error != nil {
		return nil, result.Error
	}

	if result.RowsAffected == 0 {
		existing, err := r.FindByKey(ctx, movement.Key())
		if err != nil {
			return nil, err
		}
		return existing, nil
	}

	return movement, nil
}

// FindByID finds a movement by its ID
func (r *GormStockMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockMovement, error) {
	var movement ledger.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindByKey finds a movement by its idempotency key
func (r *GormStockMovementRepository) FindByKey(ctx context.Context, key ledger.IdempotencyKey) (*ledger.StockMovement, error) {
	var movement ledger.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ? AND product_id = ? AND warehouse_id = ? AND direction = ? AND quantity = ?",
			key.ReferenceType, key.ReferenceID, key.ProductID, key.WarehouseID, key.Direction, key.Quantity).
		First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// FindByReference finds all movements originating from a source document
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, referenceType ledger.ReferenceType, referenceID string) ([]ledger.StockMovement, error) {
	var movements []ledger.StockMovement
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", referenceType, referenceID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// FindAll finds movements matching the filter
func (r *GormStockMovementRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.StockMovement, error) {
	var movements []ledger.StockMovement
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&ledger.StockMovement{}),
		filter,
	)

	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// Count counts movements matching the filter
func (r *GormStockMovementRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&ledger.StockMovement{}),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumQuantity returns the signed ledger sum for a product/warehouse pair.
// The sum may be negative when outbound movements were recorded against
// insufficient stock.
func (r *GormStockMovementRepository) SumQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Select("COALESCE(SUM(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END), 0) as total").
		Where("product_id = ? AND warehouse_id = ?", productID, warehouseID).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// SumQuantityByWarehouse returns signed per-product sums for a warehouse
func (r *GormStockMovementRepository) SumQuantityByWarehouse(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var results []struct {
		ProductID uuid.UUID
		Total     decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&ledger.StockMovement{}).
		Select("product_id, COALESCE(SUM(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END), 0) as total").
		Where("warehouse_id = ?", warehouseID).
		Group("product_id").
		Scan(&results).Error; err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(results))
	for _, row := range results {
		sums[row.ProductID] = row.Total
	}
	return sums, nil
}

// LockPair takes a transaction-scoped advisory lock for the pair, so that
// concurrent availability checks and inserts for the same product and
// warehouse execute one at a time. The lock is released on commit or
// rollback; calling this outside a transaction has no serializing effect.
func (r *GormStockMovementRepository) LockPair(ctx context.Context, productID, warehouseID uuid.UUID) error {
	key := productID.String() + ":" + warehouseID.String()
	return r.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

// movementOrderColumns whitelists ORDER BY targets. The order clause is
// built by string concatenation, so user input must never reach it;
// anything outside the whitelist falls back to created_at.
var movementOrderColumns = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"quantity":       true,
	"movement_type":  true,
	"direction":      true,
	"reference_type": true,
	"warehouse_id":   true,
	"product_id":     true,
}

// applyFilter applies filter options to the query
func (r *GormStockMovementRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderBy := filter.OrderBy
		if !movementOrderColumns[orderBy] {
			orderBy = "created_at"
		}
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(orderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormStockMovementRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id":
			query = query.Where("warehouse_id = ?", value)
		case "product_id":
			query = query.Where("product_id = ?", value)
		case "movement_type":
			query = query.Where("movement_type = ?", value)
		case "direction":
			query = query.Where("direction = ?", value)
		case "reference_type":
			query = query.Where("reference_type = ?", value)
		case "reference_id":
			query = query.Where("reference_id = ?", value)
		case "created_by":
			query = query.Where("created_by = ?", value)
		case "start_date":
			query = query.Where("created_at >= ?", value)
		case "end_date":
			query = query.Where("created_at <= ?", value)
		}
	}

	return query
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ ledger.StockMovementRepository = (*GormStockMovementRepository)(nil)
