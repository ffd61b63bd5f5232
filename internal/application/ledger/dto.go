package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/ledger"
)

// RecordMovementRequest represents a request to append a movement to the ledger
type RecordMovementRequest struct {
	WarehouseID   uuid.UUID        `json:"warehouse_id" binding:"required"`
	ProductID     uuid.UUID        `json:"product_id" binding:"required"`
	MovementType  string           `json:"movement_type" binding:"required"`
	Direction     string           `json:"direction"` // required for transfer and adjustment
	Quantity      decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCode      string           `json:"unit_code"` // empty means base units
	UnitCost      *decimal.Decimal `json:"unit_cost"`
	ReferenceType string           `json:"reference_type" binding:"required"`
	ReferenceID   string           `json:"reference_id" binding:"required"`
	Notes         string           `json:"notes"`
	CreatedBy     *uuid.UUID       `json:"created_by"`

	// AllowNegativeStock skips the availability check for this movement.
	// The service-wide configuration applies when false.
	AllowNegativeStock bool `json:"allow_negative_stock"`
}

// ReverseMovementRequest represents a request to reverse an existing movement
type ReverseMovementRequest struct {
	Reason  string     `json:"reason" binding:"required,min=1,max=255"`
	ActorID *uuid.UUID `json:"actor_id"`
}

// MovementResponse represents a ledger movement in API responses
type MovementResponse struct {
	ID             uuid.UUID        `json:"id"`
	WarehouseID    uuid.UUID        `json:"warehouse_id"`
	ProductID      uuid.UUID        `json:"product_id"`
	MovementType   string           `json:"movement_type"`
	Direction      string           `json:"direction"`
	Quantity       decimal.Decimal  `json:"quantity"`
	SignedQuantity decimal.Decimal  `json:"signed_quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	TotalCost      decimal.Decimal  `json:"total_cost"`
	ReferenceType  string           `json:"reference_type"`
	ReferenceID    string           `json:"reference_id"`
	Notes          string           `json:"notes,omitempty"`
	CreatedBy      *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`

	// Duplicate is true when the request matched an existing movement
	// and no new row was written
	Duplicate bool `json:"duplicate,omitempty"`
}

// MovementListFilter represents filter options for the movement list
type MovementListFilter struct {
	WarehouseID   *uuid.UUID `form:"warehouse_id"`
	ProductID     *uuid.UUID `form:"product_id"`
	MovementType  string     `form:"movement_type"`
	Direction     string     `form:"direction"`
	ReferenceType string     `form:"reference_type"`
	ReferenceID   string     `form:"reference_id"`
	StartDate     *time.Time `form:"start_date"`
	EndDate       *time.Time `form:"end_date"`
	Page          int        `form:"page" binding:"min=0"`
	PageSize      int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy       string     `form:"order_by"`
	OrderDir      string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StockResponse represents the on-hand stock for a product/warehouse pair
type StockResponse struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	IsNegative  bool            `json:"is_negative"`
}

// AvailabilityResponse reports whether a required quantity is covered
type AvailabilityResponse struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Required    decimal.Decimal `json:"required"`
	Sufficient  bool            `json:"sufficient"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// WarehouseStockResponse represents per-product on-hand stock in a warehouse
type WarehouseStockResponse struct {
	WarehouseID uuid.UUID           `json:"warehouse_id"`
	Products    []ProductStockEntry `json:"products"`
}

// ProductStockEntry is one product's on-hand stock within a warehouse
type ProductStockEntry struct {
	ProductID uuid.UUID       `json:"product_id"`
	OnHand    decimal.Decimal `json:"on_hand"`
}

// ProductUnitRequest represents a request to register a unit of measure for a product
type ProductUnitRequest struct {
	ProductID        uuid.UUID       `json:"product_id"`
	UnitCode         string          `json:"unit_code" binding:"required,max=20"`
	UnitName         string          `json:"unit_name" binding:"required,max=50"`
	ConversionFactor decimal.Decimal `json:"conversion_factor" binding:"required"`
}

// ProductUnitResponse represents a product unit mapping in API responses
type ProductUnitResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	UnitCode         string          `json:"unit_code"`
	UnitName         string          `json:"unit_name"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	IsBase           bool            `json:"is_base"`
	CreatedAt        time.Time       `json:"created_at"`
}

// ToMovementResponse converts a domain StockMovement to a response DTO
func ToMovementResponse(m *ledger.StockMovement) MovementResponse {
	var unitCost *decimal.Decimal
	if m.UnitCost != nil {
		amount := m.UnitCost.Amount()
		unitCost = &amount
	}
	return MovementResponse{
		ID:             m.ID,
		WarehouseID:    m.WarehouseID,
		ProductID:      m.ProductID,
		MovementType:   string(m.MovementType),
		Direction:      string(m.Direction),
		Quantity:       m.Quantity.Amount(),
		SignedQuantity: m.SignedQuantity(),
		UnitCost:       unitCost,
		TotalCost:      m.TotalCost().Amount(),
		ReferenceType:  string(m.ReferenceType),
		ReferenceID:    m.ReferenceID,
		Notes:          m.Notes,
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt,
	}
}

// ToMovementResponses converts a slice of domain movements to responses
func ToMovementResponses(movements []ledger.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}

// ToProductUnitResponse converts a domain ProductUnit to a response DTO
func ToProductUnitResponse(u *ledger.ProductUnit) ProductUnitResponse {
	return ProductUnitResponse{
		ID:               u.ID,
		ProductID:        u.ProductID,
		UnitCode:         u.UnitCode,
		UnitName:         u.UnitName,
		ConversionFactor: u.ConversionFactor,
		IsBase:           u.IsBase,
		CreatedAt:        u.CreatedAt,
	}
}

// ToProductUnitResponses converts a slice of domain product units to responses
func ToProductUnitResponses(units []ledger.ProductUnit) []ProductUnitResponse {
	responses := make([]ProductUnitResponse, len(units))
	for i := range units {
		responses[i] = ToProductUnitResponse(&units[i])
	}
	return responses
}
