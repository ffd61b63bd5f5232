package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// HandlePurchaseReceived records one inbound movement per purchase line.
// All lines commit or roll back together: a single invalid line aborts the
// whole event so a redelivery can retry it as a unit.
func (s *LedgerService) HandlePurchaseReceived(ctx context.Context, event *ledger.PurchaseReceivedEvent) error {
	if len(event.Lines) == 0 {
		return nil
	}

	movements := make([]*ledger.StockMovement, 0, len(event.Lines))
	for _, line := range event.Lines {
		movement, err := ledger.NewStockMovement(
			event.WarehouseID,
			line.ProductID,
			ledger.MovementTypePurchase,
			ledger.DirectionIn,
			line.Quantity,
			ledger.ReferencePurchaseItem,
			line.PurchaseLineID,
		)
		if err != nil {
			return err
		}
		movement.WithUnitCost(line.UnitPrice)
		if event.DocumentReference != "" {
			movement.WithNotes(event.DocumentReference)
		}
		if event.CreatedBy != uuid.Nil {
			movement.WithCreatedBy(event.CreatedBy)
		}
		movements = append(movements, movement)
	}

	var recorded []*ledger.StockMovement
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		recorded = recorded[:0]
		for _, movement := range movements {
			if err := repos.Movements.LockPair(ctx, movement.ProductID, movement.WarehouseID); err != nil {
				return err
			}
			row, err := repos.Movements.Create(ctx, movement)
			if err != nil {
				return err
			}
			if row.ID == movement.ID {
				recorded = append(recorded, row)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishMovementRecorded(ctx, recorded)
	return nil
}

// HandleSaleCompleted records one outbound movement per sale line after
// converting each quantity to base units. Unless the event or the service
// configuration allows negative stock, every line must be covered by
// on-hand stock; an uncovered line aborts the whole event.
func (s *LedgerService) HandleSaleCompleted(ctx context.Context, event *ledger.SaleCompletedEvent) error {
	if len(event.Lines) == 0 {
		return nil
	}

	allowNegative := event.AllowNegativeStock || s.allowNegativeStock

	var recorded []*ledger.StockMovement
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		recorded = recorded[:0]
		guard := ledger.NewAvailabilityGuard(repos.Movements)

		for _, line := range event.Lines {
			baseQuantity, err := toBaseQuantity(ctx, repos.Units, line.ProductID, line.Quantity, line.UnitCode)
			if err != nil {
				return err
			}

			movement, err := ledger.NewStockMovement(
				event.WarehouseID,
				line.ProductID,
				ledger.MovementTypeSale,
				ledger.DirectionOut,
				baseQuantity,
				ledger.ReferenceSale,
				line.SaleID,
			)
			if err != nil {
				return err
			}
			if event.CreatedBy != uuid.Nil {
				movement.WithCreatedBy(event.CreatedBy)
			}

			if err := repos.Movements.LockPair(ctx, movement.ProductID, movement.WarehouseID); err != nil {
				return err
			}

			if !allowNegative {
				// A redelivered line whose row already exists must not
				// trip the guard, so duplicates are detected first.
				if _, err := repos.Movements.FindByKey(ctx, movement.Key()); err == nil {
					continue
				} else if !errors.Is(err, shared.ErrNotFound) {
					return err
				}
				if err := guard.Check(ctx, movement.ProductID, movement.WarehouseID, movement.Quantity.Amount()); err != nil {
					return err
				}
			}

			row, err := repos.Movements.Create(ctx, movement)
			if err != nil {
				return err
			}
			if row.ID == movement.ID {
				recorded = append(recorded, row)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publishMovementRecorded(ctx, recorded)
	return nil
}
