package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeStockMovement = "StockMovement"
	AggregateTypePurchase      = "Purchase"
	AggregateTypeSale          = "Sale"
)

// Event type constants
const (
	EventTypePurchaseReceived = "PurchaseReceived"
	EventTypeSaleCompleted    = "SaleCompleted"
	EventTypeMovementRecorded = "MovementRecorded"
)

// PurchaseLine is one received line of a purchase document.
// Quantities are already expressed in the product's base unit.
type PurchaseLine struct {
	ProductID      uuid.UUID       `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	PurchaseLineID string          `json:"purchase_line_id"`
}

// PurchaseReceivedEvent is consumed when a purchase document has been
// received into a warehouse. Each line yields one inbound movement keyed
// by its purchase line id.
type PurchaseReceivedEvent struct {
	shared.BaseDomainEvent
	WarehouseID       uuid.UUID      `json:"warehouse_id"`
	Lines             []PurchaseLine `json:"lines"`
	CreatedBy         uuid.UUID      `json:"created_by"`
	DocumentReference string         `json:"document_reference"`
}

// NewPurchaseReceivedEvent creates a new PurchaseReceivedEvent
func NewPurchaseReceivedEvent(purchaseID, warehouseID, createdBy uuid.UUID, documentReference string, lines []PurchaseLine) *PurchaseReceivedEvent {
	return &PurchaseReceivedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePurchaseReceived, AggregateTypePurchase, purchaseID),
		WarehouseID:       warehouseID,
		Lines:             lines,
		CreatedBy:         createdBy,
		DocumentReference: documentReference,
	}
}

// EventType returns the event type name
func (e *PurchaseReceivedEvent) EventType() string {
	return EventTypePurchaseReceived
}

// SaleLine is one line of a completed sale. The quantity is expressed in
// the line's unit of measure and is converted to base units before the
// ledger records it.
type SaleLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCode  string          `json:"unit_code"`
	SaleID    string          `json:"sale_id"`
}

// SaleCompletedEvent is consumed when a sale has been finalized.
// Each line yields one outbound movement after unit conversion.
// AllowNegativeStock bypasses the availability guard for this event;
// when false the service-wide configuration still applies as a fallback.
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	WarehouseID        uuid.UUID  `json:"warehouse_id"`
	Lines              []SaleLine `json:"lines"`
	CreatedBy          uuid.UUID  `json:"created_by"`
	AllowNegativeStock bool       `json:"allow_negative_stock"`
}

// NewSaleCompletedEvent creates a new SaleCompletedEvent
func NewSaleCompletedEvent(saleID, warehouseID, createdBy uuid.UUID, allowNegativeStock bool, lines []SaleLine) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeSaleCompleted, AggregateTypeSale, saleID),
		WarehouseID:        warehouseID,
		Lines:              lines,
		CreatedBy:          createdBy,
		AllowNegativeStock: allowNegativeStock,
	}
}

// EventType returns the event type name
func (e *SaleCompletedEvent) EventType() string {
	return EventTypeSaleCompleted
}

// MovementRecordedEvent is raised after a movement row has been committed.
// Downstream consumers (reporting, replenishment) subscribe to it; the
// ledger itself never reacts to it.
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID    uuid.UUID       `json:"movement_id"`
	WarehouseID   uuid.UUID       `json:"warehouse_id"`
	ProductID     uuid.UUID       `json:"product_id"`
	MovementType  MovementType    `json:"movement_type"`
	Direction     Direction       `json:"direction"`
	Quantity      decimal.Decimal `json:"quantity"`
	ReferenceType ReferenceType   `json:"reference_type"`
	ReferenceID   string          `json:"reference_id"`
}

// NewMovementRecordedEvent creates a new MovementRecordedEvent
func NewMovementRecordedEvent(movement *StockMovement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, AggregateTypeStockMovement, movement.ID),
		MovementID:      movement.ID,
		WarehouseID:     movement.WarehouseID,
		ProductID:       movement.ProductID,
		MovementType:    movement.MovementType,
		Direction:       movement.Direction,
		Quantity:        movement.Quantity.Amount(),
		ReferenceType:   movement.ReferenceType,
		ReferenceID:     movement.ReferenceID,
	}
}

// EventType returns the event type name
func (e *MovementRecordedEvent) EventType() string {
	return EventTypeMovementRecorded
}
