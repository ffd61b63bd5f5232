package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/shared/valueobject"
)

// LedgerService handles stock movement ledger operations.
//
// All writes go through a transaction scope that takes a per-pair advisory
// lock before checking availability and inserting, so concurrent movements
// for the same product and warehouse are serialized.
type LedgerService struct {
	movementRepo   ledger.StockMovementRepository
	unitRepo       ledger.ProductUnitRepository
	txScope        ledger.TransactionScope
	eventPublisher shared.EventPublisher

	// allowNegativeStock is the service-wide fallback; individual requests
	// and events may allow negative stock explicitly.
	allowNegativeStock bool
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	movementRepo ledger.StockMovementRepository,
	unitRepo ledger.ProductUnitRepository,
	txScope ledger.TransactionScope,
) *LedgerService {
	return &LedgerService{
		movementRepo: movementRepo,
		unitRepo:     unitRepo,
		txScope:      txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAllowNegativeStock sets the service-wide negative stock policy
func (s *LedgerService) SetAllowNegativeStock(allow bool) {
	s.allowNegativeStock = allow
}

// publishMovementRecorded publishes MovementRecorded events for newly
// committed movements. Publish failures are swallowed: the ledger row is
// already durable and subscribers are advisory.
func (s *LedgerService) publishMovementRecorded(ctx context.Context, movements []*ledger.StockMovement) {
	if s.eventPublisher == nil || len(movements) == 0 {
		return
	}
	events := make([]shared.DomainEvent, len(movements))
	for i, m := range movements {
		events[i] = ledger.NewMovementRecordedEvent(m)
	}
	_ = s.eventPublisher.Publish(ctx, events...)
}

// toBaseQuantity converts a document quantity into the product's base unit.
// An empty unit code means the quantity is already in base units.
func toBaseQuantity(ctx context.Context, units ledger.ProductUnitRepository, productID uuid.UUID, quantity decimal.Decimal, unitCode string) (decimal.Decimal, error) {
	if unitCode == "" {
		return quantity.Round(valueobject.QuantityScale), nil
	}

	unit, err := units.FindByProductAndCode(ctx, productID, unitCode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.NewDomainError("CONVERSION_ERROR",
				"No unit mapping for product "+productID.String()+" and unit "+unitCode)
		}
		return decimal.Zero, err
	}

	return unit.ToBase(quantity)
}

// RecordMovement validates the request, converts the quantity to base
// units, and appends a movement to the ledger. A request that matches an
// existing movement's idempotency key returns that movement with the
// Duplicate flag set instead of writing a second row.
func (s *LedgerService) RecordMovement(ctx context.Context, req RecordMovementRequest) (*MovementResponse, error) {
	movementType := ledger.MovementType(req.MovementType)
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type: "+req.MovementType)
	}

	direction, err := ledger.DeriveDirection(movementType, ledger.Direction(req.Direction))
	if err != nil {
		return nil, err
	}

	baseQuantity, err := toBaseQuantity(ctx, s.unitRepo, req.ProductID, req.Quantity, req.UnitCode)
	if err != nil {
		return nil, err
	}

	movement, err := ledger.NewStockMovement(
		req.WarehouseID,
		req.ProductID,
		movementType,
		direction,
		baseQuantity,
		ledger.ReferenceType(req.ReferenceType),
		req.ReferenceID,
	)
	if err != nil {
		return nil, err
	}
	if req.UnitCost != nil {
		movement.WithUnitCost(*req.UnitCost)
	}
	if req.Notes != "" {
		movement.WithNotes(req.Notes)
	}
	if req.CreatedBy != nil {
		movement.WithCreatedBy(*req.CreatedBy)
	}

	allowNegative := req.AllowNegativeStock || s.allowNegativeStock

	var recorded *ledger.StockMovement
	err = s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		if err := repos.Movements.LockPair(ctx, movement.ProductID, movement.WarehouseID); err != nil {
			return err
		}

		if movement.IsOutbound() && !allowNegative {
			// A retried request whose row already exists must resolve to
			// that row, not fail the availability check.
			existing, err := repos.Movements.FindByKey(ctx, movement.Key())
			if err == nil {
				recorded = existing
				return nil
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}

			guard := ledger.NewAvailabilityGuard(repos.Movements)
			if err := guard.Check(ctx, movement.ProductID, movement.WarehouseID, movement.Quantity.Amount()); err != nil {
				return err
			}
		}

		recorded, err = repos.Movements.Create(ctx, movement)
		return err
	})
	if err != nil {
		return nil, err
	}

	duplicate := recorded.ID != movement.ID
	if !duplicate {
		s.publishMovementRecorded(ctx, []*ledger.StockMovement{recorded})
	}

	response := ToMovementResponse(recorded)
	response.Duplicate = duplicate
	return &response, nil
}

// ReverseMovement appends a compensating adjustment that cancels an
// earlier movement. Reversing the same movement twice is idempotent.
func (s *LedgerService) ReverseMovement(ctx context.Context, movementID uuid.UUID, req ReverseMovementRequest) (*MovementResponse, error) {
	original, err := s.movementRepo.FindByID(ctx, movementID)
	if err != nil {
		return nil, err
	}

	actorID := uuid.Nil
	if req.ActorID != nil {
		actorID = *req.ActorID
	}
	reversal, err := original.Reversal(req.Reason, actorID)
	if err != nil {
		return nil, err
	}

	var recorded *ledger.StockMovement
	err = s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		if err := repos.Movements.LockPair(ctx, reversal.ProductID, reversal.WarehouseID); err != nil {
			return err
		}
		recorded, err = repos.Movements.Create(ctx, reversal)
		return err
	})
	if err != nil {
		return nil, err
	}

	duplicate := recorded.ID != reversal.ID
	if !duplicate {
		s.publishMovementRecorded(ctx, []*ledger.StockMovement{recorded})
	}

	response := ToMovementResponse(recorded)
	response.Duplicate = duplicate
	return &response, nil
}

// GetMovement retrieves a single movement by ID
func (s *LedgerService) GetMovement(ctx context.Context, movementID uuid.UUID) (*MovementResponse, error) {
	movement, err := s.movementRepo.FindByID(ctx, movementID)
	if err != nil {
		return nil, err
	}
	response := ToMovementResponse(movement)
	return &response, nil
}

// ListMovements retrieves movements with filtering and pagination
func (s *LedgerService) ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}

	if filter.WarehouseID != nil {
		domainFilter.Filters["warehouse_id"] = *filter.WarehouseID
	}
	if filter.ProductID != nil {
		domainFilter.Filters["product_id"] = *filter.ProductID
	}
	if filter.MovementType != "" {
		domainFilter.Filters["movement_type"] = filter.MovementType
	}
	if filter.Direction != "" {
		domainFilter.Filters["direction"] = filter.Direction
	}
	if filter.ReferenceType != "" {
		domainFilter.Filters["reference_type"] = filter.ReferenceType
	}
	if filter.ReferenceID != "" {
		domainFilter.Filters["reference_id"] = filter.ReferenceID
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	movements, err := s.movementRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.movementRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToMovementResponses(movements), total, nil
}

// ListMovementsByReference retrieves all movements for a source document
func (s *LedgerService) ListMovementsByReference(ctx context.Context, referenceType, referenceID string) ([]MovementResponse, error) {
	movements, err := s.movementRepo.FindByReference(ctx, ledger.ReferenceType(referenceType), referenceID)
	if err != nil {
		return nil, err
	}
	return ToMovementResponses(movements), nil
}

// GetCurrentStock returns the on-hand stock for a product/warehouse pair,
// derived from the signed ledger sum
func (s *LedgerService) GetCurrentStock(ctx context.Context, warehouseID, productID uuid.UUID) (*StockResponse, error) {
	onHand, err := s.movementRepo.SumQuantity(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	return &StockResponse{
		WarehouseID: warehouseID,
		ProductID:   productID,
		OnHand:      onHand,
		IsNegative:  onHand.IsNegative(),
	}, nil
}

// CheckAvailability reports whether on-hand stock covers a required base
// quantity without recording anything
func (s *LedgerService) CheckAvailability(ctx context.Context, warehouseID, productID uuid.UUID, required decimal.Decimal) (*AvailabilityResponse, error) {
	if required.IsNegative() {
		return nil, shared.ErrInvalidQuantity
	}

	onHand, err := s.movementRepo.SumQuantity(ctx, productID, warehouseID)
	if err != nil {
		return nil, err
	}

	response := &AvailabilityResponse{
		WarehouseID: warehouseID,
		ProductID:   productID,
		OnHand:      onHand,
		Required:    required,
		Sufficient:  !onHand.LessThan(required),
		Shortfall:   decimal.Zero,
	}
	if !response.Sufficient {
		response.Shortfall = required.Sub(onHand)
	}
	return response, nil
}

// GetWarehouseStock returns per-product on-hand stock for a warehouse
func (s *LedgerService) GetWarehouseStock(ctx context.Context, warehouseID uuid.UUID) (*WarehouseStockResponse, error) {
	sums, err := s.movementRepo.SumQuantityByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, err
	}

	products := make([]ProductStockEntry, 0, len(sums))
	for productID, onHand := range sums {
		products = append(products, ProductStockEntry{
			ProductID: productID,
			OnHand:    onHand,
		})
	}

	return &WarehouseStockResponse{
		WarehouseID: warehouseID,
		Products:    products,
	}, nil
}

// RegisterProductUnit registers or replaces a unit of measure for a product
func (s *LedgerService) RegisterProductUnit(ctx context.Context, req ProductUnitRequest) (*ProductUnitResponse, error) {
	if req.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID is required")
	}

	unit, err := valueobject.NewUnit(req.UnitCode, req.UnitName, req.ConversionFactor)
	if err != nil {
		return nil, err
	}

	existing, err := s.unitRepo.FindByProductAndCode(ctx, req.ProductID, unit.Code())
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		existing.UnitName = unit.Name()
		existing.ConversionFactor = unit.ConversionFactor()
		existing.IsBase = unit.IsBaseUnit()
		if err := s.unitRepo.Save(ctx, existing); err != nil {
			return nil, err
		}
		response := ToProductUnitResponse(existing)
		return &response, nil
	}

	mapping, err := ledger.NewProductUnit(req.ProductID, unit)
	if err != nil {
		return nil, err
	}
	if err := s.unitRepo.Save(ctx, mapping); err != nil {
		return nil, err
	}

	response := ToProductUnitResponse(mapping)
	return &response, nil
}

// ListProductUnits returns all unit mappings for a product
func (s *LedgerService) ListProductUnits(ctx context.Context, productID uuid.UUID) ([]ProductUnitResponse, error) {
	units, err := s.unitRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return ToProductUnitResponses(units), nil
}

// DeleteProductUnit removes a unit mapping
func (s *LedgerService) DeleteProductUnit(ctx context.Context, id uuid.UUID) error {
	return s.unitRepo.Delete(ctx, id)
}
