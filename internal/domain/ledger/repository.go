package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/shared"
)

// StockMovementRepository defines the interface for movement ledger persistence.
// The ledger is append-only: movements are created, never updated or deleted.
type StockMovementRepository interface {
	// Create inserts a new movement row.
	// If a movement with the same idempotency key already exists, the
	// existing row is returned instead and no new row is written.
	Create(ctx context.Context, movement *StockMovement) (*StockMovement, error)

	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockMovement, error)

	// FindByKey finds a movement by its idempotency key
	FindByKey(ctx context.Context, key IdempotencyKey) (*StockMovement, error)

	// FindByReference finds all movements originating from a source document
	FindByReference(ctx context.Context, referenceType ReferenceType, referenceID string) ([]StockMovement, error)

	// FindAll finds movements matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]StockMovement, error)

	// Count counts movements matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// SumQuantity returns the signed sum of all movements for a
	// product/warehouse pair (in movements positive, out negative)
	SumQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error)

	// SumQuantityByWarehouse returns signed per-product sums for a warehouse
	SumQuantityByWarehouse(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	// LockPair serializes concurrent movement recording for a
	// product/warehouse pair within the current transaction
	LockPair(ctx context.Context, productID, warehouseID uuid.UUID) error
}

// ProductUnitRepository defines the interface for the unit-of-measure catalog
type ProductUnitRepository interface {
	// FindByID finds a product unit by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductUnit, error)

	// FindByProductAndCode finds the unit mapping for a product and unit code
	FindByProductAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*ProductUnit, error)

	// FindByProduct finds all unit mappings for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]ProductUnit, error)

	// FindBaseUnit finds the base unit mapping for a product
	FindBaseUnit(ctx context.Context, productID uuid.UUID) (*ProductUnit, error)

	// Save creates or updates a product unit mapping
	Save(ctx context.Context, unit *ProductUnit) error

	// Delete removes a product unit mapping
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionalRepositories bundles the repositories that participate in a
// single ledger transaction
type TransactionalRepositories struct {
	Movements StockMovementRepository
	Units     ProductUnitRepository
}

// TransactionScope executes a function within a database transaction.
// The function receives transaction-bound repositories; any error rolls
// the whole transaction back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
