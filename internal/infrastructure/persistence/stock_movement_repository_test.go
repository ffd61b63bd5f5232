package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/erp/stockledger/internal/domain/ledger"
	"github.com/erp/stockledger/internal/domain/shared"
)

// newMockStockMovementRepository creates a GormStockMovementRepository with a mocked SQL connection
func newMockStockMovementRepository(t *testing.T) (*GormStockMovementRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormStockMovementRepository(gormDB), mock, mockDB
}

func movementColumns() []string {
	return []string{
		"id", "created_at", "updated_at",
		"warehouse_id", "product_id", "movement_type", "direction",
		"quantity", "unit_cost", "reference_type", "reference_id",
		"notes", "created_by",
	}
}

func newTestMovement(t *testing.T) *ledger.StockMovement {
	movement, err := ledger.NewStockMovement(
		uuid.New(),
		uuid.New(),
		ledger.MovementTypePurchase,
		"",
		decimal.NewFromInt(10),
		ledger.ReferencePurchaseItem,
		uuid.New().String(),
	)
	require.NoError(t, err)
	return movement
}

func TestGormStockMovementRepository_Create(t *testing.T) {
	t.Run("inserts new movement", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		movement := newTestMovement(t)

		mock.ExpectExec(`INSERT INTO "stock_movements" .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		created, err := repo.Create(context.Background(), movement)

		require.NoError(t, err)
		assert.Equal(t, movement.ID, created.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns existing row on conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		movement := newTestMovement(t)
		existingID := uuid.New()

		mock.ExpectExec(`INSERT INTO "stock_movements" .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows := sqlmock.NewRows(movementColumns()).AddRow(
			existingID, time.Now(), time.Now(),
			movement.WarehouseID, movement.ProductID, movement.MovementType, movement.Direction,
			movement.Quantity.String(), nil, movement.ReferenceType, movement.ReferenceID,
			"", nil,
		)
		mock.ExpectQuery(`SELECT \* FROM "stock_movements" WHERE reference_type = \$1 AND reference_id = \$2 AND product_id = \$3 AND warehouse_id = \$4 AND direction = \$5 AND quantity = \$6`).
			WithArgs(movement.ReferenceType, movement.ReferenceID, movement.ProductID, movement.WarehouseID, movement.Direction, movement.Quantity, 1).
			WillReturnRows(rows)

		created, err := repo.Create(context.Background(), movement)

		require.NoError(t, err)
		assert.Equal(t, existingID, created.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository_FindByID(t *testing.T) {
	t.Run("finds existing movement", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		movementID := uuid.New()
		warehouseID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows(movementColumns()).AddRow(
			movementID, time.Now(), time.Now(),
			warehouseID, productID, ledger.MovementTypeSale, ledger.DirectionOut,
			"3", nil, ledger.ReferenceSale, "sale-1",
			"", nil,
		)

		mock.ExpectQuery(`SELECT \* FROM "stock_movements" WHERE id = \$1`).
			WithArgs(movementID, 1).
			WillReturnRows(rows)

		movement, err := repo.FindByID(context.Background(), movementID)

		require.NoError(t, err)
		assert.Equal(t, movementID, movement.ID)
		assert.Equal(t, ledger.DirectionOut, movement.Direction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing movement", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		movementID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "stock_movements" WHERE id = \$1`).
			WithArgs(movementID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		movement, err := repo.FindByID(context.Background(), movementID)

		assert.Nil(t, movement)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository_FindByReference(t *testing.T) {
	repo, mock, mockDB := newMockStockMovementRepository(t)
	defer mockDB.Close()

	warehouseID := uuid.New()
	productID := uuid.New()

	rows := sqlmock.NewRows(movementColumns()).
		AddRow(
			uuid.New(), time.Now(), time.Now(),
			warehouseID, productID, ledger.MovementTypePurchase, ledger.DirectionIn,
			"5", nil, ledger.ReferencePurchaseItem, "po-line-1",
			"", nil,
		).
		AddRow(
			uuid.New(), time.Now(), time.Now(),
			warehouseID, productID, ledger.MovementTypePurchase, ledger.DirectionIn,
			"7", nil, ledger.ReferencePurchaseItem, "po-line-1",
			"", nil,
		)

	mock.ExpectQuery(`SELECT \* FROM "stock_movements" WHERE reference_type = \$1 AND reference_id = \$2 ORDER BY created_at ASC`).
		WithArgs(ledger.ReferencePurchaseItem, "po-line-1").
		WillReturnRows(rows)

	movements, err := repo.FindByReference(context.Background(), ledger.ReferencePurchaseItem, "po-line-1")

	require.NoError(t, err)
	assert.Len(t, movements, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStockMovementRepository_SumQuantity(t *testing.T) {
	t.Run("returns signed sum", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		warehouseID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow(decimal.RequireFromString("42.5000"))
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END\), 0\) as total FROM "stock_movements"`).
			WithArgs(productID, warehouseID).
			WillReturnRows(rows)

		total, err := repo.SumQuantity(context.Background(), productID, warehouseID)

		require.NoError(t, err)
		assert.Equal(t, "42.5", total.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns negative sum when ledger is overdrawn", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		productID := uuid.New()
		warehouseID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow(decimal.RequireFromString("-3.0000"))
		mock.ExpectQuery(`SELECT COALESCE\(SUM\(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END\), 0\) as total FROM "stock_movements"`).
			WithArgs(productID, warehouseID).
			WillReturnRows(rows)

		total, err := repo.SumQuantity(context.Background(), productID, warehouseID)

		require.NoError(t, err)
		assert.True(t, total.IsNegative())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository_SumQuantityByWarehouse(t *testing.T) {
	repo, mock, mockDB := newMockStockMovementRepository(t)
	defer mockDB.Close()

	warehouseID := uuid.New()
	productA := uuid.New()
	productB := uuid.New()

	rows := sqlmock.NewRows([]string{"product_id", "total"}).
		AddRow(productA, decimal.NewFromInt(10)).
		AddRow(productB, decimal.RequireFromString("-2.5"))

	mock.ExpectQuery(`SELECT product_id, COALESCE\(SUM\(CASE WHEN direction = 'in' THEN quantity ELSE -quantity END\), 0\) as total FROM "stock_movements" WHERE warehouse_id = \$1 GROUP BY product_id`).
		WithArgs(warehouseID).
		WillReturnRows(rows)

	sums, err := repo.SumQuantityByWarehouse(context.Background(), warehouseID)

	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "10", sums[productA].String())
	assert.Equal(t, "-2.5", sums[productB].String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStockMovementRepository_LockPair(t *testing.T) {
	repo, mock, mockDB := newMockStockMovementRepository(t)
	defer mockDB.Close()

	productID := uuid.New()
	warehouseID := uuid.New()

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\(\$1\)\)`).
		WithArgs(productID.String() + ":" + warehouseID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.LockPair(context.Background(), productID, warehouseID)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStockMovementRepository_FindAll(t *testing.T) {
	repo, mock, mockDB := newMockStockMovementRepository(t)
	defer mockDB.Close()

	warehouseID := uuid.New()
	filter := shared.DefaultFilter()
	filter.Filters = map[string]interface{}{"warehouse_id": warehouseID}

	rows := sqlmock.NewRows(movementColumns()).AddRow(
		uuid.New(), time.Now(), time.Now(),
		warehouseID, uuid.New(), ledger.MovementTypeAdjustment, ledger.DirectionIn,
		"1", nil, ledger.ReferenceAdjustment, "adj-1",
		"", nil,
	)

	mock.ExpectQuery(`SELECT \* FROM "stock_movements" WHERE warehouse_id = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs(warehouseID, filter.PageSize).
		WillReturnRows(rows)

	movements, err := repo.FindAll(context.Background(), filter)

	require.NoError(t, err)
	assert.Len(t, movements, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStockMovementRepository_FindAllOrderBy(t *testing.T) {
	t.Run("orders by whitelisted column", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		filter := shared.DefaultFilter()
		filter.OrderBy = "quantity"
		filter.OrderDir = "asc"

		mock.ExpectQuery(`SELECT \* FROM "stock_movements" ORDER BY quantity ASC LIMIT \$1`).
			WithArgs(filter.PageSize).
			WillReturnRows(sqlmock.NewRows(movementColumns()))

		_, err := repo.FindAll(context.Background(), filter)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown order column falls back to created_at", func(t *testing.T) {
		repo, mock, mockDB := newMockStockMovementRepository(t)
		defer mockDB.Close()

		filter := shared.DefaultFilter()
		filter.OrderBy = "quantity; DROP TABLE stock_movements --"
		filter.OrderDir = "desc"

		mock.ExpectQuery(`SELECT \* FROM "stock_movements" ORDER BY created_at DESC LIMIT \$1`).
			WithArgs(filter.PageSize).
			WillReturnRows(sqlmock.NewRows(movementColumns()))

		_, err := repo.FindAll(context.Background(), filter)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
