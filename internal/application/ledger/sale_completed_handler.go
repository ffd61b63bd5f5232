package ledger

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// SaleCompletedHandler consumes SaleCompleted events and turns each sale
// line into an outbound ledger movement
type SaleCompletedHandler struct {
	service *LedgerService
	logger  *zap.Logger
}

// NewSaleCompletedHandler creates a new handler for sale completed events
func NewSaleCompletedHandler(service *LedgerService, logger *zap.Logger) *SaleCompletedHandler {
	return &SaleCompletedHandler{
		service: service,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleCompletedHandler) EventTypes() []string {
	return []string{ledger.EventTypeSaleCompleted}
}

// Handle processes a SaleCompletedEvent
func (h *SaleCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	saleEvent, ok := event.(*ledger.SaleCompletedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ledger.EventTypeSaleCompleted),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ledger.EventTypeSaleCompleted, event.EventType())
	}

	h.logger.Info("processing sale completed",
		zap.String("event_id", event.EventID().String()),
		zap.String("sale_id", event.AggregateID().String()),
		zap.String("warehouse_id", saleEvent.WarehouseID.String()),
		zap.Int("lines", len(saleEvent.Lines)),
		zap.Bool("allow_negative_stock", saleEvent.AllowNegativeStock),
	)

	err := h.service.HandleSaleCompleted(ctx, saleEvent)
	if err != nil {
		var insufficient *ledger.InsufficientStockError
		if errors.As(err, &insufficient) {
			h.logger.Warn("sale rejected, insufficient stock",
				zap.String("event_id", event.EventID().String()),
				zap.String("sale_id", event.AggregateID().String()),
				zap.String("product_id", insufficient.ProductID.String()),
				zap.String("available", insufficient.Available.String()),
				zap.String("required", insufficient.Required.String()),
				zap.String("shortfall", insufficient.Shortfall().String()),
			)
			return err
		}

		h.logger.Error("failed to record sale movements",
			zap.String("event_id", event.EventID().String()),
			zap.String("sale_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// Ensure SaleCompletedHandler implements shared.EventHandler
var _ shared.EventHandler = (*SaleCompletedHandler)(nil)
