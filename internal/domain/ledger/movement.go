package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/shared/valueobject"
)

// MovementType represents the business origin of a stock movement
type MovementType string

const (
	// MovementTypePurchase represents stock received from a supplier
	MovementTypePurchase MovementType = "purchase"
	// MovementTypeSale represents stock shipped against a sale
	MovementTypeSale MovementType = "sale"
	// MovementTypeTransfer represents stock moved between warehouses
	MovementTypeTransfer MovementType = "transfer"
	// MovementTypeAdjustment represents a manual stock correction
	MovementTypeAdjustment MovementType = "adjustment"
	// MovementTypeReturn represents stock returned by a customer
	MovementTypeReturn MovementType = "return"
	// MovementTypeProduction represents stock produced internally
	MovementTypeProduction MovementType = "production"
	// MovementTypeProductionReturn represents stock consumed back into production
	MovementTypeProductionReturn MovementType = "production_return"
	// MovementTypeAPISync represents stock pushed from an external system
	MovementTypeAPISync MovementType = "api_sync"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypePurchase,
		MovementTypeSale,
		MovementTypeTransfer,
		MovementTypeAdjustment,
		MovementTypeReturn,
		MovementTypeProduction,
		MovementTypeProductionReturn,
		MovementTypeAPISync:
		return true
	}
	return false
}

// IsStockIn returns true if this movement type always increases stock
func (t MovementType) IsStockIn() bool {
	switch t {
	case MovementTypePurchase,
		MovementTypeReturn,
		MovementTypeProduction,
		MovementTypeAPISync:
		return true
	}
	return false
}

// IsStockOut returns true if this movement type always decreases stock
func (t MovementType) IsStockOut() bool {
	switch t {
	case MovementTypeSale, MovementTypeProductionReturn:
		return true
	}
	return false
}

// IsBidirectional returns true if the direction must be supplied by the caller
func (t MovementType) IsBidirectional() bool {
	switch t {
	case MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// Direction represents whether a movement adds to or removes from stock
type Direction string

const (
	// DirectionIn adds stock to the warehouse
	DirectionIn Direction = "in"
	// DirectionOut removes stock from the warehouse
	DirectionOut Direction = "out"
)

// String returns the string representation of Direction
func (d Direction) String() string {
	return string(d)
}

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// DeriveDirection resolves the movement direction for a movement type.
// For bidirectional types the explicit direction is required; for stock-in
// and stock-out types the explicit direction, when given, must agree with
// the type's classification.
func DeriveDirection(movementType MovementType, explicit Direction) (Direction, error) {
	switch {
	case movementType.IsStockIn():
		if explicit != "" && explicit != DirectionIn {
			return "", shared.NewDomainError("INVALID_DIRECTION", "Movement type "+movementType.String()+" is always stock-in")
		}
		return DirectionIn, nil
	case movementType.IsStockOut():
		if explicit != "" && explicit != DirectionOut {
			return "", shared.NewDomainError("INVALID_DIRECTION", "Movement type "+movementType.String()+" is always stock-out")
		}
		return DirectionOut, nil
	case movementType.IsBidirectional():
		if !explicit.IsValid() {
			return "", shared.NewDomainError("INVALID_DIRECTION", "Movement type "+movementType.String()+" requires an explicit direction")
		}
		return explicit, nil
	default:
		return "", shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
}

// ReferenceType identifies the kind of source document line a movement
// originates from
type ReferenceType string

const (
	// ReferencePurchaseItem is a purchase order line
	ReferencePurchaseItem ReferenceType = "purchase_item"
	// ReferenceSale is a sale document
	ReferenceSale ReferenceType = "sale"
	// ReferenceTransfer is a warehouse transfer document
	ReferenceTransfer ReferenceType = "transfer"
	// ReferenceAdjustment is a manual adjustment document
	ReferenceAdjustment ReferenceType = "adjustment"
	// ReferenceReversal is a compensating reversal of an earlier movement
	ReferenceReversal ReferenceType = "reversal"
	// ReferenceAPISync is an external synchronization record
	ReferenceAPISync ReferenceType = "api_sync"
)

// String returns the string representation of ReferenceType
func (r ReferenceType) String() string {
	return string(r)
}

// StockMovement is an immutable ledger entry recording one signed quantity
// change against a (product, warehouse) pair.
//
// Rows are created only in response to source documents and are never
// updated; corrections are made with compensating reversal movements.
// The tuple (ReferenceType, ReferenceID, ProductID, WarehouseID, Direction,
// Quantity) is the idempotency key: at most one movement may exist per
// tuple, enforced by a unique index.
type StockMovement struct {
	shared.BaseEntity
	WarehouseID   uuid.UUID        `gorm:"type:uuid;not null;index:idx_stock_movements_pair,priority:2;uniqueIndex:uq_stock_movements_source,priority:4"`
	ProductID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_stock_movements_pair,priority:1;uniqueIndex:uq_stock_movements_source,priority:3"`
	MovementType  MovementType     `gorm:"type:varchar(30);not null;index:idx_stock_movements_type"`
	Direction     Direction        `gorm:"type:varchar(3);not null;uniqueIndex:uq_stock_movements_source,priority:5"`
	Quantity      valueobject.Quantity `gorm:"type:decimal(18,4);not null;uniqueIndex:uq_stock_movements_source,priority:6"` // Always positive, sign carried by Direction
	UnitCost      *valueobject.Money   `gorm:"type:decimal(18,4)"`                                                           // Optional, set for inbound movements needing cost tracking
	ReferenceType ReferenceType        `gorm:"type:varchar(30);not null;uniqueIndex:uq_stock_movements_source,priority:1"`
	ReferenceID   string               `gorm:"type:varchar(50);not null;uniqueIndex:uq_stock_movements_source,priority:2"`
	Notes         string               `gorm:"type:varchar(255)"`
	CreatedBy     *uuid.UUID           `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new stock movement ledger entry.
// Quantity must be a positive base-unit quantity; zero or negative
// quantities signal an upstream data defect and are rejected.
func NewStockMovement(
	warehouseID uuid.UUID,
	productID uuid.UUID,
	movementType MovementType,
	direction Direction,
	quantity decimal.Decimal,
	referenceType ReferenceType,
	referenceID string,
) (*StockMovement, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	resolved, err := DeriveDirection(movementType, direction)
	if err != nil {
		return nil, err
	}
	qty, err := valueobject.NewQuantity(quantity, "")
	if err != nil || qty.IsZero() {
		return nil, shared.ErrInvalidQuantity
	}
	if referenceType == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference type cannot be empty")
	}
	if referenceID == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Reference ID cannot be empty")
	}

	return &StockMovement{
		BaseEntity:    shared.NewBaseEntity(),
		WarehouseID:   warehouseID,
		ProductID:     productID,
		MovementType:  movementType,
		Direction:     resolved,
		Quantity:      qty.Round(valueobject.QuantityScale),
		ReferenceType: referenceType,
		ReferenceID:   referenceID,
	}, nil
}

// WithUnitCost sets the unit cost for the movement, rounded to the
// monetary scale
func (m *StockMovement) WithUnitCost(cost decimal.Decimal) *StockMovement {
	money := valueobject.MustNewMoney(cost, valueobject.DefaultCurrency).Round(valueobject.MoneyScale)
	m.UnitCost = &money
	return m
}

// WithNotes sets free-text provenance for the movement
func (m *StockMovement) WithNotes(notes string) *StockMovement {
	m.Notes = notes
	return m
}

// WithCreatedBy sets the actor who caused the movement
func (m *StockMovement) WithCreatedBy(actorID uuid.UUID) *StockMovement {
	m.CreatedBy = &actorID
	return m
}

// SignedQuantity returns the quantity with sign based on direction.
// Positive for in movements, negative for out movements.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Quantity.Amount().Neg()
	}
	return m.Quantity.Amount()
}

// TotalCost returns Quantity * UnitCost, or zero money when no cost is
// recorded
func (m *StockMovement) TotalCost() valueobject.Money {
	if m.UnitCost == nil {
		return valueobject.ZeroMoney(valueobject.DefaultCurrency)
	}
	return m.UnitCost.Multiply(m.Quantity.Amount())
}

// IsInbound returns true if this movement adds stock
func (m *StockMovement) IsInbound() bool {
	return m.Direction == DirectionIn
}

// IsOutbound returns true if this movement removes stock
func (m *StockMovement) IsOutbound() bool {
	return m.Direction == DirectionOut
}

// Reversal builds a compensating movement that cancels this entry.
// The reversal carries the opposite direction and references the original
// movement, preserving the append-only audit trail.
func (m *StockMovement) Reversal(reason string, actorID uuid.UUID) (*StockMovement, error) {
	direction := DirectionIn
	if m.Direction == DirectionIn {
		direction = DirectionOut
	}
	reversal, err := NewStockMovement(
		m.WarehouseID,
		m.ProductID,
		MovementTypeAdjustment,
		direction,
		m.Quantity.Amount(),
		ReferenceReversal,
		m.ID.String(),
	)
	if err != nil {
		return nil, err
	}
	reversal.WithNotes(reason)
	if actorID != uuid.Nil {
		reversal.WithCreatedBy(actorID)
	}
	return reversal, nil
}

// IdempotencyKey identifies the originating source line of a movement.
// Two movements with the same key are the same logical movement.
type IdempotencyKey struct {
	ReferenceType ReferenceType
	ReferenceID   string
	ProductID     uuid.UUID
	WarehouseID   uuid.UUID
	Direction     Direction
	Quantity      decimal.Decimal
}

// Key returns the idempotency key for this movement
func (m *StockMovement) Key() IdempotencyKey {
	return IdempotencyKey{
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		ProductID:     m.ProductID,
		WarehouseID:   m.WarehouseID,
		Direction:     m.Direction,
		Quantity:      m.Quantity.Amount(),
	}
}

// Equals reports whether two keys identify the same source line. The
// quantity is compared by numeric value: decimals with different internal
// representations of the same number are still the same key.
func (k IdempotencyKey) Equals(other IdempotencyKey) bool {
	return k.ReferenceType == other.ReferenceType &&
		k.ReferenceID == other.ReferenceID &&
		k.ProductID == other.ProductID &&
		k.WarehouseID == other.WarehouseID &&
		k.Direction == other.Direction &&
		k.Quantity.Equal(other.Quantity)
}
