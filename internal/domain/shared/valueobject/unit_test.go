package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUnit(t *testing.T) {
	t.Run("creates unit with valid inputs", func(t *testing.T) {
		u, err := NewUnit("box", "Box", decimal.NewFromInt(12))
		require.NoError(t, err)
		assert.Equal(t, "BOX", u.Code())
		assert.Equal(t, "Box", u.Name())
		assert.True(t, u.ConversionFactor().Equal(decimal.NewFromInt(12)))
	})

	t.Run("normalizes code to uppercase", func(t *testing.T) {
		u, err := NewUnit("  pcs  ", "Pieces", decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.Equal(t, "PCS", u.Code())
	})

	t.Run("rejects empty code", func(t *testing.T) {
		_, err := NewUnit("", "Pieces", decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejects zero conversion factor", func(t *testing.T) {
		_, err := NewUnit("BOX", "Box", decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects negative conversion factor", func(t *testing.T) {
		_, err := NewUnit("BOX", "Box", decimal.NewFromInt(-12))
		assert.Error(t, err)
	})
}

func TestUnitIsBaseUnit(t *testing.T) {
	base, err := NewBaseUnit("PCS", "Pieces")
	require.NoError(t, err)
	assert.True(t, base.IsBaseUnit())

	box := MustNewUnit("BOX", "Box", decimal.NewFromInt(12))
	assert.False(t, box.IsBaseUnit())
}

func TestUnitConvertToBase(t *testing.T) {
	t.Run("multiplies by conversion factor", func(t *testing.T) {
		box := MustNewUnit("BOX", "Box", decimal.NewFromInt(12))
		base := box.ConvertToBase(decimal.NewFromInt(2))
		assert.Equal(t, "24.0000", base.StringFixed(4))
	})

	t.Run("base unit is identity", func(t *testing.T) {
		pcs := PCSUnit()
		base := pcs.ConvertToBase(decimal.NewFromFloat(3.5))
		assert.Equal(t, "3.5000", base.StringFixed(4))
	})

	t.Run("fractional factor rounds to scale", func(t *testing.T) {
		gram := GramUnit()
		base := gram.ConvertToBase(decimal.NewFromInt(1234))
		assert.Equal(t, "1.2340", base.StringFixed(4))
	})
}

func TestUnitConvertFromBase(t *testing.T) {
	box := MustNewUnit("BOX", "Box", decimal.NewFromInt(12))
	qty := box.ConvertFromBase(decimal.NewFromInt(30))
	assert.Equal(t, "2.5000", qty.StringFixed(4))
}

func TestUnitMatchesCode(t *testing.T) {
	box := MustNewUnit("BOX", "Box", decimal.NewFromInt(12))
	assert.True(t, box.MatchesCode("box"))
	assert.True(t, box.MatchesCode(" BOX "))
	assert.False(t, box.MatchesCode("PCS"))
}

func TestUnitScan(t *testing.T) {
	var u Unit
	require.NoError(t, u.Scan("box"))
	assert.Equal(t, "BOX", u.Code())
	assert.True(t, u.ConversionFactor().Equal(decimal.NewFromInt(1)))
}
