package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/erp/stockledger/internal/application/ledger"
)

// LedgerHandler handles stock ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// CheckAvailabilityRequest represents a request to check stock availability
type CheckAvailabilityRequest struct {
	WarehouseID uuid.UUID       `json:"warehouse_id" binding:"required"`
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// RecordMovement godoc
// @Summary      Record a stock movement
// @Description  Appends a movement to the ledger; replays of the same source line return the existing row
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Router       /ledger/movements [post]
func (h *LedgerHandler) RecordMovement(c *gin.Context) {
	var req ledgerapp.RecordMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movement, err := h.ledgerService.RecordMovement(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if movement.Duplicate {
		h.Success(c, movement)
		return
	}
	h.Created(c, movement)
}

// GetMovement godoc
// @Summary      Get a movement by ID
// @Tags         ledger
// @Produce      json
// @Router       /ledger/movements/{id} [get]
func (h *LedgerHandler) GetMovement(c *gin.Context) {
	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	movement, err := h.ledgerService.GetMovement(c.Request.Context(), movementID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, movement)
}

// ListMovements godoc
// @Summary      List movements
// @Description  Retrieve a paginated list of movements with optional filtering
// @Tags         ledger
// @Produce      json
// @Router       /ledger/movements [get]
func (h *LedgerHandler) ListMovements(c *gin.Context) {
	var filter ledgerapp.MovementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	movements, total, err := h.ledgerService.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, movements, total, filter.Page, filter.PageSize)
}

// ListMovementsByReference godoc
// @Summary      List movements for a source document
// @Tags         ledger
// @Produce      json
// @Router       /ledger/movements/by-reference [get]
func (h *LedgerHandler) ListMovementsByReference(c *gin.Context) {
	referenceType := c.Query("reference_type")
	referenceID := c.Query("reference_id")
	if referenceType == "" || referenceID == "" {
		h.BadRequest(c, "reference_type and reference_id are required")
		return
	}

	movements, err := h.ledgerService.ListMovementsByReference(c.Request.Context(), referenceType, referenceID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, movements)
}

// ReverseMovement godoc
// @Summary      Reverse a movement
// @Description  Appends a compensating movement in the opposite direction
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Router       /ledger/movements/{id}/reverse [post]
func (h *LedgerHandler) ReverseMovement(c *gin.Context) {
	movementID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid movement ID format")
		return
	}

	var req ledgerapp.ReverseMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	reversal, err := h.ledgerService.ReverseMovement(c.Request.Context(), movementID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if reversal.Duplicate {
		h.Success(c, reversal)
		return
	}
	h.Created(c, reversal)
}

// GetStock godoc
// @Summary      Get on-hand stock for a product in a warehouse
// @Tags         ledger
// @Produce      json
// @Router       /ledger/stock [get]
func (h *LedgerHandler) GetStock(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Query("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}
	productID, err := uuid.Parse(c.Query("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	stock, err := h.ledgerService.GetCurrentStock(c.Request.Context(), warehouseID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stock)
}

// CheckAvailability godoc
// @Summary      Check stock availability
// @Description  Reports whether the on-hand balance covers a required quantity
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Router       /ledger/availability/check [post]
func (h *LedgerHandler) CheckAvailability(c *gin.Context) {
	var req CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledgerService.CheckAvailability(c.Request.Context(), req.WarehouseID, req.ProductID, req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// GetWarehouseStock godoc
// @Summary      Get per-product stock for a warehouse
// @Tags         ledger
// @Produce      json
// @Router       /ledger/warehouses/{warehouse_id}/stock [get]
func (h *LedgerHandler) GetWarehouseStock(c *gin.Context) {
	warehouseID, err := uuid.Parse(c.Param("warehouse_id"))
	if err != nil {
		h.BadRequest(c, "Invalid warehouse ID format")
		return
	}

	stock, err := h.ledgerService.GetWarehouseStock(c.Request.Context(), warehouseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stock)
}

// RegisterProductUnit godoc
// @Summary      Register a unit of measure for a product
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Router       /ledger/products/{product_id}/units [post]
func (h *LedgerHandler) RegisterProductUnit(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	var req ledgerapp.ProductUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.ProductID = productID

	unit, err := h.ledgerService.RegisterProductUnit(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, unit)
}

// ListProductUnits godoc
// @Summary      List units of measure for a product
// @Tags         ledger
// @Produce      json
// @Router       /ledger/products/{product_id}/units [get]
func (h *LedgerHandler) ListProductUnits(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	units, err := h.ledgerService.ListProductUnits(c.Request.Context(), productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, units)
}

// DeleteProductUnit godoc
// @Summary      Delete a unit of measure
// @Tags         ledger
// @Router       /ledger/units/{id} [delete]
func (h *LedgerHandler) DeleteProductUnit(c *gin.Context) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid unit ID format")
		return
	}

	if err := h.ledgerService.DeleteProductUnit(c.Request.Context(), unitID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
