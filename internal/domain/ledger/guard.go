package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/shared"
)

// InsufficientStockError reports that an outbound movement would drive
// stock negative. It carries the shortfall so the caller can decide
// whether the failure is fatal or advisory.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Available   decimal.Decimal
	Required    decimal.Decimal
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s in warehouse %s: available %s, required %s",
		e.ProductID, e.WarehouseID, e.Available.String(), e.Required.String())
}

// Is makes errors.Is(err, shared.ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == shared.ErrInsufficientStock
}

// Shortfall returns how much stock is missing
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Required.Sub(e.Available)
}

// AvailabilityGuard checks that an outbound movement leaves non-negative
// stock. On-hand stock is always derived from the ledger sum, never from
// a separately maintained balance.
type AvailabilityGuard struct {
	movements StockMovementRepository
}

// NewAvailabilityGuard creates a new AvailabilityGuard
func NewAvailabilityGuard(movements StockMovementRepository) *AvailabilityGuard {
	return &AvailabilityGuard{movements: movements}
}

// Check returns an InsufficientStockError when on-hand stock does not
// cover the required base quantity. Callers that allow negative stock
// skip this check entirely rather than ignoring its result.
func (g *AvailabilityGuard) Check(ctx context.Context, productID, warehouseID uuid.UUID, required decimal.Decimal) error {
	available, err := g.movements.SumQuantity(ctx, productID, warehouseID)
	if err != nil {
		return err
	}
	if available.LessThan(required) {
		return &InsufficientStockError{
			ProductID:   productID,
			WarehouseID: warehouseID,
			Available:   available,
			Required:    required,
		}
	}
	return nil
}
