package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a value object representing a unit of measurement.
// It is immutable - all operations return new Unit instances.
// A Unit has a code (identifier), name (display), and conversion factor to
// the product's base unit. Base units have factor 1.
type Unit struct {
	code             string
	name             string
	conversionFactor decimal.Decimal
}

// Common unit codes for convenience
const (
	UnitCodePCS  = "PCS"  // Pieces (commonly used base unit)
	UnitCodeKG   = "KG"   // Kilograms
	UnitCodeG    = "G"    // Grams
	UnitCodeL    = "L"    // Liters
	UnitCodeML   = "ML"   // Milliliters
	UnitCodeBOX  = "BOX"  // Box
	UnitCodePACK = "PACK" // Pack
)

// NewUnit creates a new Unit with the specified code, name, and conversion factor.
// Parameters:
//   - code: unique identifier for the unit (e.g., "PCS", "BOX")
//   - name: human-readable name (e.g., "Pieces", "Box")
//   - conversionFactor: how many base units equal 1 of this unit (must be positive)
//
// Returns error if:
//   - code is empty or too long (max 20 chars)
//   - name is empty or too long (max 50 chars)
//   - conversionFactor is zero or negative
func NewUnit(code, name string, conversionFactor decimal.Decimal) (Unit, error) {
	code = strings.TrimSpace(strings.ToUpper(code))
	name = strings.TrimSpace(name)

	if err := validateUnitCode(code); err != nil {
		return Unit{}, err
	}
	if err := validateUnitName(name); err != nil {
		return Unit{}, err
	}
	if err := validateConversionFactor(conversionFactor); err != nil {
		return Unit{}, err
	}

	return Unit{
		code:             code,
		name:             name,
		conversionFactor: conversionFactor,
	}, nil
}

// NewBaseUnit creates a new Unit with conversion factor of 1 (base unit).
func NewBaseUnit(code, name string) (Unit, error) {
	return NewUnit(code, name, decimal.NewFromInt(1))
}

// NewUnitFromFloat creates a Unit with conversion factor from float64.
func NewUnitFromFloat(code, name string, conversionFactor float64) (Unit, error) {
	return NewUnit(code, name, decimal.NewFromFloat(conversionFactor))
}

// MustNewUnit creates a Unit and panics on error.
// Use only when you're certain the inputs are valid.
func MustNewUnit(code, name string, conversionFactor decimal.Decimal) Unit {
	u, err := NewUnit(code, name, conversionFactor)
	if err != nil {
		panic(err)
	}
	return u
}

// MustNewBaseUnit creates a base Unit and panics on error.
func MustNewBaseUnit(code, name string) Unit {
	u, err := NewBaseUnit(code, name)
	if err != nil {
		panic(err)
	}
	return u
}

// Code returns the unit code (normalized to uppercase).
func (u Unit) Code() string {
	return u.code
}

// Name returns the unit name.
func (u Unit) Name() string {
	return u.name
}

// ConversionFactor returns the conversion factor to base unit.
// 1 of this unit = ConversionFactor base units.
func (u Unit) ConversionFactor() decimal.Decimal {
	return u.conversionFactor
}

// IsBaseUnit returns true if this is a base unit (conversion factor = 1).
func (u Unit) IsBaseUnit() bool {
	return u.conversionFactor.Equal(decimal.NewFromInt(1))
}

// IsZero returns true if this is a zero-value Unit.
func (u Unit) IsZero() bool {
	return u.code == "" && u.name == "" && u.conversionFactor.IsZero()
}

// ConvertToBase converts a quantity from this unit to base units.
// Formula: baseQuantity = quantity * conversionFactor
func (u Unit) ConvertToBase(quantity decimal.Decimal) decimal.Decimal {
	return quantity.Mul(u.conversionFactor).Round(QuantityScale)
}

// ConvertFromBase converts a quantity from base units to this unit.
// Formula: unitQuantity = baseQuantity / conversionFactor
func (u Unit) ConvertFromBase(baseQuantity decimal.Decimal) decimal.Decimal {
	if u.conversionFactor.IsZero() {
		return decimal.Zero
	}
	return baseQuantity.DivRound(u.conversionFactor, QuantityScale)
}

// WithConversionFactor returns a new Unit with an updated conversion factor.
func (u Unit) WithConversionFactor(factor decimal.Decimal) (Unit, error) {
	if err := validateConversionFactor(factor); err != nil {
		return Unit{}, err
	}
	return Unit{
		code:             u.code,
		name:             u.name,
		conversionFactor: factor,
	}, nil
}

// Equals returns true if both Units have the same code (case-insensitive).
func (u Unit) Equals(other Unit) bool {
	return u.code == other.code
}

// MatchesCode returns true if the unit code matches (case-insensitive).
func (u Unit) MatchesCode(code string) bool {
	return u.code == strings.TrimSpace(strings.ToUpper(code))
}

// String returns a string representation of the Unit.
func (u Unit) String() string {
	if u.IsBaseUnit() {
		return fmt.Sprintf("%s (%s)", u.code, u.name)
	}
	return fmt.Sprintf("%s (%s, factor: %s)", u.code, u.name, u.conversionFactor.String())
}

// MarshalJSON implements json.Marshaler.
func (u Unit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code             string `json:"code"`
		Name             string `json:"name"`
		ConversionFactor string `json:"conversionFactor"`
	}{
		Code:             u.code,
		Name:             u.name,
		ConversionFactor: u.conversionFactor.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *Unit) UnmarshalJSON(data []byte) error {
	var v struct {
		Code             string `json:"code"`
		Name             string `json:"name"`
		ConversionFactor string `json:"conversionFactor"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	factor, err := decimal.NewFromString(v.ConversionFactor)
	if err != nil {
		return fmt.Errorf("invalid conversion factor: %w", err)
	}

	parsed, err := NewUnit(v.Code, v.Name, factor)
	if err != nil {
		return err
	}

	*u = parsed
	return nil
}

// Value implements driver.Valuer for database storage.
// Stores the code only; name and factor live in the product_units table.
func (u Unit) Value() (driver.Value, error) {
	return u.code, nil
}

// Scan implements sql.Scanner for database retrieval.
// Only reads the code; sets default name and factor=1.
func (u *Unit) Scan(value any) error {
	if value == nil {
		u.code = ""
		u.name = ""
		u.conversionFactor = decimal.Zero
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Unit", value)
	}

	u.code = strings.TrimSpace(strings.ToUpper(strVal))
	u.name = u.code
	u.conversionFactor = decimal.NewFromInt(1)
	return nil
}

// Validation functions

func validateUnitCode(code string) error {
	if code == "" {
		return errors.New("unit code cannot be empty")
	}
	if len(code) > 20 {
		return errors.New("unit code cannot exceed 20 characters")
	}
	return nil
}

func validateUnitName(name string) error {
	if name == "" {
		return errors.New("unit name cannot be empty")
	}
	if len(name) > 50 {
		return errors.New("unit name cannot exceed 50 characters")
	}
	return nil
}

func validateConversionFactor(factor decimal.Decimal) error {
	if factor.IsNegative() {
		return errors.New("unit conversion factor cannot be negative")
	}
	if factor.IsZero() {
		return errors.New("unit conversion factor cannot be zero")
	}
	return nil
}

// Common predefined units

// PCSUnit returns a standard pieces unit (base unit).
func PCSUnit() Unit {
	return MustNewBaseUnit(UnitCodePCS, "Pieces")
}

// BoxUnit returns a standard box unit with the given conversion factor.
func BoxUnit(pcsPerBox int64) Unit {
	return MustNewUnit(UnitCodeBOX, "Box", decimal.NewFromInt(pcsPerBox))
}

// KGUnit returns a standard kilogram unit (base unit for weight).
func KGUnit() Unit {
	return MustNewBaseUnit(UnitCodeKG, "Kilogram")
}

// GramUnit returns a standard gram unit (1 kg = 1000 g).
func GramUnit() Unit {
	return MustNewUnit(UnitCodeG, "Gram", decimal.NewFromFloat(0.001))
}
