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

	"github.com/erp/stockledger/internal/domain/shared"
)

func newMockProductUnitRepository(t *testing.T) (*GormProductUnitRepository, sqlmock.Sqlmock, *sql.DB) {
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

	return NewGormProductUnitRepository(gormDB), mock, mockDB
}

func productUnitColumns() []string {
	return []string{
		"id", "created_at", "updated_at",
		"product_id", "unit_code", "unit_name", "conversion_factor", "is_base",
	}
}

func TestGormProductUnitRepository_FindByProductAndCode(t *testing.T) {
	t.Run("finds unit mapping", func(t *testing.T) {
		repo, mock, mockDB := newMockProductUnitRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		rows := sqlmock.NewRows(productUnitColumns()).AddRow(
			uuid.New(), time.Now(), time.Now(),
			productID, "BOX", "Box of 12", decimal.NewFromInt(12), false,
		)

		mock.ExpectQuery(`SELECT \* FROM "product_units" WHERE product_id = \$1 AND unit_code = \$2`).
			WithArgs(productID, "BOX", 1).
			WillReturnRows(rows)

		unit, err := repo.FindByProductAndCode(context.Background(), productID, "BOX")

		require.NoError(t, err)
		assert.Equal(t, "BOX", unit.UnitCode)
		assert.True(t, unit.ConversionFactor.Equal(decimal.NewFromInt(12)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		repo, mock, mockDB := newMockProductUnitRepository(t)
		defer mockDB.Close()

		productID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "product_units" WHERE product_id = \$1 AND unit_code = \$2`).
			WithArgs(productID, "CRATE", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		unit, err := repo.FindByProductAndCode(context.Background(), productID, "CRATE")

		assert.Nil(t, unit)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductUnitRepository_FindBaseUnit(t *testing.T) {
	repo, mock, mockDB := newMockProductUnitRepository(t)
	defer mockDB.Close()

	productID := uuid.New()

	rows := sqlmock.NewRows(productUnitColumns()).AddRow(
		uuid.New(), time.Now(), time.Now(),
		productID, "PCS", "Piece", decimal.NewFromInt(1), true,
	)

	mock.ExpectQuery(`SELECT \* FROM "product_units" WHERE product_id = \$1 AND is_base = true`).
		WithArgs(productID, 1).
		WillReturnRows(rows)

	unit, err := repo.FindBaseUnit(context.Background(), productID)

	require.NoError(t, err)
	assert.True(t, unit.IsBase)
	assert.Equal(t, "PCS", unit.UnitCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductUnitRepository_FindByProduct(t *testing.T) {
	repo, mock, mockDB := newMockProductUnitRepository(t)
	defer mockDB.Close()

	productID := uuid.New()

	rows := sqlmock.NewRows(productUnitColumns()).
		AddRow(
			uuid.New(), time.Now(), time.Now(),
			productID, "BOX", "Box of 12", decimal.NewFromInt(12), false,
		).
		AddRow(
			uuid.New(), time.Now(), time.Now(),
			productID, "PCS", "Piece", decimal.NewFromInt(1), true,
		)

	mock.ExpectQuery(`SELECT \* FROM "product_units" WHERE product_id = \$1 ORDER BY unit_code ASC`).
		WithArgs(productID).
		WillReturnRows(rows)

	units, err := repo.FindByProduct(context.Background(), productID)

	require.NoError(t, err)
	assert.Len(t, units, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormProductUnitRepository_Delete(t *testing.T) {
	t.Run("deletes existing mapping", func(t *testing.T) {
		repo, mock, mockDB := newMockProductUnitRepository(t)
		defer mockDB.Close()

		unitID := uuid.New()

		mock.ExpectExec(`DELETE FROM "product_units" WHERE id = \$1`).
			WithArgs(unitID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), unitID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when nothing deleted", func(t *testing.T) {
		repo, mock, mockDB := newMockProductUnitRepository(t)
		defer mockDB.Close()

		unitID := uuid.New()

		mock.ExpectExec(`DELETE FROM "product_units" WHERE id = \$1`).
			WithArgs(unitID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.Equal(t, shared.ErrNotFound, repo.Delete(context.Background(), unitID))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
