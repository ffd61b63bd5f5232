package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/shared/valueobject"
)

func TestNewProductUnit(t *testing.T) {
	productID := uuid.New()

	t.Run("creates mapping from unit", func(t *testing.T) {
		pu, err := NewProductUnit(productID, valueobject.BoxUnit(12))
		require.NoError(t, err)
		assert.Equal(t, "BOX", pu.UnitCode)
		assert.True(t, pu.ConversionFactor.Equal(decimal.NewFromInt(12)))
		assert.False(t, pu.IsBase)
	})

	t.Run("base unit flagged", func(t *testing.T) {
		pu, err := NewProductUnit(productID, valueobject.PCSUnit())
		require.NoError(t, err)
		assert.True(t, pu.IsBase)
	})

	t.Run("rejects nil product", func(t *testing.T) {
		_, err := NewProductUnit(uuid.Nil, valueobject.PCSUnit())
		assert.Error(t, err)
	})
}

func TestProductUnitToBase(t *testing.T) {
	productID := uuid.New()

	t.Run("multiplies by conversion factor", func(t *testing.T) {
		pu, err := NewProductUnit(productID, valueobject.BoxUnit(12))
		require.NoError(t, err)

		base, err := pu.ToBase(decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.Equal(t, "24.0000", base.StringFixed(4))
	})

	t.Run("fails fast on corrupt factor", func(t *testing.T) {
		pu, err := NewProductUnit(productID, valueobject.BoxUnit(12))
		require.NoError(t, err)
		pu.ConversionFactor = decimal.Zero

		_, err = pu.ToBase(decimal.NewFromInt(2))
		assert.ErrorIs(t, err, shared.ErrConversionError)
	})
}

func TestProductUnitRoundTrip(t *testing.T) {
	pu, err := NewProductUnit(uuid.New(), valueobject.BoxUnit(24))
	require.NoError(t, err)

	unit, err := pu.Unit()
	require.NoError(t, err)
	assert.Equal(t, "BOX", unit.Code())
	assert.True(t, unit.ConversionFactor().Equal(decimal.NewFromInt(24)))
}
