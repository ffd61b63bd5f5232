package ledger

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// MockEventPublisher records published domain events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{events: make([]shared.DomainEvent, 0)}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// fakeLedgerStore is an in-memory stand-in for the ledger tables. The
// transaction scope built on it rolls inserted movements back on error
// and serializes transactions touching the same product/warehouse pair,
// mirroring the all-or-nothing commit and advisory locking of the real
// database.
type fakeLedgerStore struct {
	mu        sync.Mutex
	movements []ledger.StockMovement
	units     []ledger.ProductUnit
	pairLocks sync.Map
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{}
}

func (s *fakeLedgerStore) pairLock(productID, warehouseID uuid.UUID) *sync.Mutex {
	lock, _ := s.pairLocks.LoadOrStore(productID.String()+":"+warehouseID.String(), &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// discard removes the movements a failed transaction inserted
func (s *fakeLedgerStore) discard(ids []uuid.UUID) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.movements[:0]
	for _, m := range s.movements {
		rolledBack := false
		for _, id := range ids {
			if m.ID == id {
				rolledBack = true
				break
			}
		}
		if !rolledBack {
			kept = append(kept, m)
		}
	}
	s.movements = kept
}

type fakeMovementRepo struct {
	store    *fakeLedgerStore
	inserted []uuid.UUID
	held     []*sync.Mutex
}

func (r *fakeMovementRepo) Create(ctx context.Context, movement *ledger.StockMovement) (*ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.movements {
		existing := &r.store.movements[i]
		if existing.Key().Equals(movement.Key()) {
			copied := *existing
			return &copied, nil
		}
	}
	r.store.movements = append(r.store.movements, *movement)
	r.inserted = append(r.inserted, movement.ID)
	return movement, nil
}

func (r *fakeMovementRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.movements {
		if r.store.movements[i].ID == id {
			copied := r.store.movements[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMovementRepo) FindByKey(ctx context.Context, key ledger.IdempotencyKey) (*ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.movements {
		if r.store.movements[i].Key().Equals(key) {
			copied := r.store.movements[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeMovementRepo) FindByReference(ctx context.Context, referenceType ledger.ReferenceType, referenceID string) ([]ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]ledger.StockMovement, 0)
	for _, m := range r.store.movements {
		if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.StockMovement, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]ledger.StockMovement, 0)
	for _, m := range r.store.movements {
		if matchesFilter(m, filter) {
			result = append(result, m)
		}
	}
	return result, nil
}

func (r *fakeMovementRepo) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	movements, _ := r.FindAll(ctx, filter)
	return int64(len(movements)), nil
}

func matchesFilter(m ledger.StockMovement, filter shared.Filter) bool {
	for key, value := range filter.Filters {
		switch key {
		case "warehouse_id":
			if m.WarehouseID != value.(uuid.UUID) {
				return false
			}
		case "product_id":
			if m.ProductID != value.(uuid.UUID) {
				return false
			}
		case "movement_type":
			if string(m.MovementType) != value.(string) {
				return false
			}
		case "direction":
			if string(m.Direction) != value.(string) {
				return false
			}
		}
	}
	return true
}

func (r *fakeMovementRepo) SumQuantity(ctx context.Context, productID, warehouseID uuid.UUID) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sum := decimal.Zero
	for _, m := range r.store.movements {
		if m.ProductID == productID && m.WarehouseID == warehouseID {
			sum = sum.Add(m.SignedQuantity())
		}
	}
	return sum, nil
}

func (r *fakeMovementRepo) SumQuantityByWarehouse(ctx context.Context, warehouseID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sums := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range r.store.movements {
		if m.WarehouseID == warehouseID {
			sums[m.ProductID] = sums[m.ProductID].Add(m.SignedQuantity())
		}
	}
	return sums, nil
}

// LockPair blocks until the pair lock is free, like the advisory lock a
// transaction holds until commit or rollback. Re-acquiring a lock this
// transaction already holds is a no-op.
func (r *fakeMovementRepo) LockPair(ctx context.Context, productID, warehouseID uuid.UUID) error {
	lock := r.store.pairLock(productID, warehouseID)
	for _, held := range r.held {
		if held == lock {
			return nil
		}
	}
	lock.Lock()
	r.held = append(r.held, lock)
	return nil
}

func (r *fakeMovementRepo) releaseLocks() {
	for i := len(r.held) - 1; i >= 0; i-- {
		r.held[i].Unlock()
	}
	r.held = nil
}

type fakeUnitRepo struct {
	store *fakeLedgerStore
}

func (r *fakeUnitRepo) FindByID(ctx context.Context, id uuid.UUID) (*ledger.ProductUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.units {
		if r.store.units[i].ID == id {
			copied := r.store.units[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUnitRepo) FindByProductAndCode(ctx context.Context, productID uuid.UUID, unitCode string) (*ledger.ProductUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.units {
		u := &r.store.units[i]
		if u.ProductID == productID && strings.EqualFold(u.UnitCode, unitCode) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUnitRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]ledger.ProductUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	result := make([]ledger.ProductUnit, 0)
	for _, u := range r.store.units {
		if u.ProductID == productID {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *fakeUnitRepo) FindBaseUnit(ctx context.Context, productID uuid.UUID) (*ledger.ProductUnit, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.units {
		if r.store.units[i].ProductID == productID && r.store.units[i].IsBase {
			copied := r.store.units[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeUnitRepo) Save(ctx context.Context, unit *ledger.ProductUnit) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.units {
		if r.store.units[i].ID == unit.ID {
			r.store.units[i] = *unit
			return nil
		}
	}
	r.store.units = append(r.store.units, *unit)
	return nil
}

func (r *fakeUnitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i := range r.store.units {
		if r.store.units[i].ID == id {
			r.store.units = append(r.store.units[:i], r.store.units[i+1:]...)
			return nil
		}
	}
	return shared.ErrNotFound
}

type fakeTxScope struct {
	store *fakeLedgerStore
}

func (s *fakeTxScope) Execute(ctx context.Context, fn func(repos ledger.TransactionalRepositories) error) error {
	movements := &fakeMovementRepo{store: s.store}
	err := fn(ledger.TransactionalRepositories{
		Movements: movements,
		Units:     &fakeUnitRepo{store: s.store},
	})
	if err != nil {
		s.store.discard(movements.inserted)
	}
	movements.releaseLocks()
	return err
}

func newTestService() (*LedgerService, *fakeLedgerStore, *MockEventPublisher) {
	store := newFakeLedgerStore()
	service := NewLedgerService(
		&fakeMovementRepo{store: store},
		&fakeUnitRepo{store: store},
		&fakeTxScope{store: store},
	)
	publisher := NewMockEventPublisher()
	service.SetEventPublisher(publisher)
	return service, store, publisher
}

func seedStock(t *testing.T, service *LedgerService, warehouseID, productID uuid.UUID, quantity int64) {
	t.Helper()
	_, err := service.RecordMovement(context.Background(), RecordMovementRequest{
		WarehouseID:   warehouseID,
		ProductID:     productID,
		MovementType:  string(ledger.MovementTypePurchase),
		Quantity:      decimal.NewFromInt(quantity),
		ReferenceType: string(ledger.ReferencePurchaseItem),
		ReferenceID:   uuid.New().String(),
	})
	require.NoError(t, err)
}

func TestLedgerService_RecordMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("records purchase movement and publishes event", func(t *testing.T) {
		service, store, publisher := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()

		resp, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "purchase",
			Quantity:      decimal.NewFromInt(10),
			ReferenceType: "purchase_item",
			ReferenceID:   "po-line-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "in", resp.Direction)
		assert.False(t, resp.Duplicate)
		assert.Len(t, store.movements, 1)
		assert.Len(t, publisher.GetEventsByType(ledger.EventTypeMovementRecorded), 1)
	})

	t.Run("rejects invalid movement type", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   uuid.New(),
			ProductID:     uuid.New(),
			MovementType:  "teleport",
			Quantity:      decimal.NewFromInt(1),
			ReferenceType: "adjustment",
			ReferenceID:   "x",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_MOVEMENT_TYPE", domainErr.Code)
	})

	t.Run("rejects direction conflicting with fixed classification", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   uuid.New(),
			ProductID:     uuid.New(),
			MovementType:  "purchase",
			Direction:     "out",
			Quantity:      decimal.NewFromInt(1),
			ReferenceType: "purchase_item",
			ReferenceID:   "x",
		})

		require.Error(t, err)
	})

	t.Run("requires explicit direction for adjustment", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   uuid.New(),
			ProductID:     uuid.New(),
			MovementType:  "adjustment",
			Quantity:      decimal.NewFromInt(1),
			ReferenceType: "adjustment",
			ReferenceID:   "x",
		})

		require.Error(t, err)
	})

	t.Run("converts quantity from registered unit", func(t *testing.T) {
		service, store, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()

		_, err := service.RegisterProductUnit(ctx, ProductUnitRequest{
			ProductID:        productID,
			UnitCode:         "BOX",
			UnitName:         "Box of 12",
			ConversionFactor: decimal.NewFromInt(12),
		})
		require.NoError(t, err)

		resp, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "purchase",
			Quantity:      decimal.NewFromInt(2),
			UnitCode:      "BOX",
			ReferenceType: "purchase_item",
			ReferenceID:   "po-line-2",
		})

		require.NoError(t, err)
		assert.Equal(t, "24", resp.Quantity.String())
		assert.Len(t, store.movements, 1)
	})

	t.Run("fails for unregistered unit code", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   uuid.New(),
			ProductID:     uuid.New(),
			MovementType:  "purchase",
			Quantity:      decimal.NewFromInt(2),
			UnitCode:      "CRATE",
			ReferenceType: "purchase_item",
			ReferenceID:   "po-line-3",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "CONVERSION_ERROR", domainErr.Code)
	})

	t.Run("replayed request returns existing movement", func(t *testing.T) {
		service, store, publisher := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()

		req := RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "purchase",
			Quantity:      decimal.NewFromInt(5),
			ReferenceType: "purchase_item",
			ReferenceID:   "po-line-replay",
		}

		first, err := service.RecordMovement(ctx, req)
		require.NoError(t, err)
		second, err := service.RecordMovement(ctx, req)
		require.NoError(t, err)

		assert.False(t, first.Duplicate)
		assert.True(t, second.Duplicate)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, store.movements, 1)
		assert.Len(t, publisher.GetEventsByType(ledger.EventTypeMovementRecorded), 1)
	})

	t.Run("blocks sale exceeding on-hand stock", func(t *testing.T) {
		service, store, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()
		seedStock(t, service, warehouseID, productID, 5)

		_, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "sale",
			Quantity:      decimal.NewFromInt(7),
			ReferenceType: "sale",
			ReferenceID:   "sale-1",
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Len(t, store.movements, 1)
	})

	t.Run("concurrent sales over the same stock admit only one", func(t *testing.T) {
		service, store, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()
		seedStock(t, service, warehouseID, productID, 10)

		// Two movements of 6 against 10 on hand: whichever acquires the
		// pair lock second must be rejected by the availability check.
		results := make(chan error, 2)
		for _, refID := range []string{"sale-race-a", "sale-race-b"} {
			go func(refID string) {
				_, err := service.RecordMovement(ctx, RecordMovementRequest{
					WarehouseID:   warehouseID,
					ProductID:     productID,
					MovementType:  "sale",
					Quantity:      decimal.NewFromInt(6),
					ReferenceType: "sale",
					ReferenceID:   refID,
				})
				results <- err
			}(refID)
		}

		var rejected int
		for i := 0; i < 2; i++ {
			if err := <-results; err != nil {
				assert.ErrorIs(t, err, shared.ErrInsufficientStock)
				rejected++
			}
		}
		assert.Equal(t, 1, rejected)
		assert.Len(t, store.movements, 2)
	})

	t.Run("retried sale that drained stock resolves to the existing row", func(t *testing.T) {
		service, store, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()
		seedStock(t, service, warehouseID, productID, 5)

		req := RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "sale",
			Quantity:      decimal.NewFromInt(5),
			ReferenceType: "sale",
			ReferenceID:   "sale-retry",
		}

		first, err := service.RecordMovement(ctx, req)
		require.NoError(t, err)
		second, err := service.RecordMovement(ctx, req)
		require.NoError(t, err)

		assert.True(t, second.Duplicate)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, store.movements, 2)
	})

	t.Run("request flag allows negative stock", func(t *testing.T) {
		service, _, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()

		resp, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:        warehouseID,
			ProductID:          productID,
			MovementType:       "sale",
			Quantity:           decimal.NewFromInt(3),
			ReferenceType:      "sale",
			ReferenceID:        "sale-neg",
			AllowNegativeStock: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "out", resp.Direction)

		stock, err := service.GetCurrentStock(ctx, warehouseID, productID)
		require.NoError(t, err)
		assert.Equal(t, "-3", stock.OnHand.String())
		assert.True(t, stock.IsNegative)
	})

	t.Run("service-wide policy allows negative stock", func(t *testing.T) {
		service, _, _ := newTestService()
		service.SetAllowNegativeStock(true)

		_, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   uuid.New(),
			ProductID:     uuid.New(),
			MovementType:  "sale",
			Quantity:      decimal.NewFromInt(1),
			ReferenceType: "sale",
			ReferenceID:   "sale-policy",
		})

		require.NoError(t, err)
	})
}

func TestLedgerService_ReverseMovement(t *testing.T) {
	ctx := context.Background()

	t.Run("reversal cancels original quantity", func(t *testing.T) {
		service, _, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()

		original, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "purchase",
			Quantity:      decimal.NewFromInt(10),
			ReferenceType: "purchase_item",
			ReferenceID:   "po-rev",
		})
		require.NoError(t, err)

		reversal, err := service.ReverseMovement(ctx, original.ID, ReverseMovementRequest{
			Reason: "received in error",
		})
		require.NoError(t, err)

		assert.Equal(t, "out", reversal.Direction)
		assert.Equal(t, "adjustment", reversal.MovementType)
		assert.Equal(t, "reversal", reversal.ReferenceType)
		assert.Equal(t, original.ID.String(), reversal.ReferenceID)

		stock, err := service.GetCurrentStock(ctx, warehouseID, productID)
		require.NoError(t, err)
		assert.True(t, stock.OnHand.IsZero())
	})

	t.Run("reversing twice is idempotent", func(t *testing.T) {
		service, store, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()

		original, err := service.RecordMovement(ctx, RecordMovementRequest{
			WarehouseID:   warehouseID,
			ProductID:     productID,
			MovementType:  "purchase",
			Quantity:      decimal.NewFromInt(4),
			ReferenceType: "purchase_item",
			ReferenceID:   "po-rev-2",
		})
		require.NoError(t, err)

		first, err := service.ReverseMovement(ctx, original.ID, ReverseMovementRequest{Reason: "oops"})
		require.NoError(t, err)
		second, err := service.ReverseMovement(ctx, original.ID, ReverseMovementRequest{Reason: "oops"})
		require.NoError(t, err)

		assert.False(t, first.Duplicate)
		assert.True(t, second.Duplicate)
		assert.Len(t, store.movements, 2)
	})

	t.Run("unknown movement yields not found", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.ReverseMovement(ctx, uuid.New(), ReverseMovementRequest{Reason: "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestLedgerService_Queries(t *testing.T) {
	ctx := context.Background()

	t.Run("CheckAvailability reports shortfall", func(t *testing.T) {
		service, _, _ := newTestService()
		warehouseID := uuid.New()
		productID := uuid.New()
		seedStock(t, service, warehouseID, productID, 5)

		resp, err := service.CheckAvailability(ctx, warehouseID, productID, decimal.NewFromInt(8))
		require.NoError(t, err)

		assert.False(t, resp.Sufficient)
		assert.Equal(t, "3", resp.Shortfall.String())
	})

	t.Run("CheckAvailability rejects negative requirement", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.CheckAvailability(ctx, uuid.New(), uuid.New(), decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)
	})

	t.Run("GetWarehouseStock aggregates per product", func(t *testing.T) {
		service, _, _ := newTestService()
		warehouseID := uuid.New()
		productA := uuid.New()
		productB := uuid.New()
		seedStock(t, service, warehouseID, productA, 10)
		seedStock(t, service, warehouseID, productB, 3)

		resp, err := service.GetWarehouseStock(ctx, warehouseID)
		require.NoError(t, err)

		assert.Equal(t, warehouseID, resp.WarehouseID)
		assert.Len(t, resp.Products, 2)
	})

	t.Run("ListMovements filters by warehouse", func(t *testing.T) {
		service, _, _ := newTestService()
		warehouseID := uuid.New()
		seedStock(t, service, warehouseID, uuid.New(), 1)
		seedStock(t, service, uuid.New(), uuid.New(), 1)

		movements, total, err := service.ListMovements(ctx, MovementListFilter{
			WarehouseID: &warehouseID,
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), total)
		require.Len(t, movements, 1)
		assert.Equal(t, warehouseID, movements[0].WarehouseID)
	})
}

func TestLedgerService_ProductUnits(t *testing.T) {
	ctx := context.Background()

	t.Run("registers and lists units", func(t *testing.T) {
		service, _, _ := newTestService()
		productID := uuid.New()

		base, err := service.RegisterProductUnit(ctx, ProductUnitRequest{
			ProductID:        productID,
			UnitCode:         "PCS",
			UnitName:         "Piece",
			ConversionFactor: decimal.NewFromInt(1),
		})
		require.NoError(t, err)
		assert.True(t, base.IsBase)

		_, err = service.RegisterProductUnit(ctx, ProductUnitRequest{
			ProductID:        productID,
			UnitCode:         "BOX",
			UnitName:         "Box of 12",
			ConversionFactor: decimal.NewFromInt(12),
		})
		require.NoError(t, err)

		units, err := service.ListProductUnits(ctx, productID)
		require.NoError(t, err)
		assert.Len(t, units, 2)
	})

	t.Run("re-registering updates the factor in place", func(t *testing.T) {
		service, store, _ := newTestService()
		productID := uuid.New()

		first, err := service.RegisterProductUnit(ctx, ProductUnitRequest{
			ProductID:        productID,
			UnitCode:         "BOX",
			UnitName:         "Box of 12",
			ConversionFactor: decimal.NewFromInt(12),
		})
		require.NoError(t, err)

		second, err := service.RegisterProductUnit(ctx, ProductUnitRequest{
			ProductID:        productID,
			UnitCode:         "BOX",
			UnitName:         "Box of 24",
			ConversionFactor: decimal.NewFromInt(24),
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, "24", second.ConversionFactor.String())
		assert.Len(t, store.units, 1)
	})

	t.Run("rejects non-positive conversion factor", func(t *testing.T) {
		service, _, _ := newTestService()

		_, err := service.RegisterProductUnit(ctx, ProductUnitRequest{
			ProductID:        uuid.New(),
			UnitCode:         "BOX",
			UnitName:         "Box",
			ConversionFactor: decimal.Zero,
		})

		require.Error(t, err)
	})
}
