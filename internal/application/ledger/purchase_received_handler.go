package ledger

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// PurchaseReceivedHandler consumes PurchaseReceived events and turns each
// purchase line into an inbound ledger movement
type PurchaseReceivedHandler struct {
	service *LedgerService
	logger  *zap.Logger
}

// NewPurchaseReceivedHandler creates a new handler for purchase received events
func NewPurchaseReceivedHandler(service *LedgerService, logger *zap.Logger) *PurchaseReceivedHandler {
	return &PurchaseReceivedHandler{
		service: service,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *PurchaseReceivedHandler) EventTypes() []string {
	return []string{ledger.EventTypePurchaseReceived}
}

// Handle processes a PurchaseReceivedEvent
func (h *PurchaseReceivedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	purchaseEvent, ok := event.(*ledger.PurchaseReceivedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", ledger.EventTypePurchaseReceived),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			ledger.EventTypePurchaseReceived, event.EventType())
	}

	h.logger.Info("processing purchase received",
		zap.String("event_id", event.EventID().String()),
		zap.String("purchase_id", event.AggregateID().String()),
		zap.String("warehouse_id", purchaseEvent.WarehouseID.String()),
		zap.Int("lines", len(purchaseEvent.Lines)),
	)

	if err := h.service.HandlePurchaseReceived(ctx, purchaseEvent); err != nil {
		h.logger.Error("failed to record purchase movements",
			zap.String("event_id", event.EventID().String()),
			zap.String("purchase_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// Ensure PurchaseReceivedHandler implements shared.EventHandler
var _ shared.EventHandler = (*PurchaseReceivedHandler)(nil)
