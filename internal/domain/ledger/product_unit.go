package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/stockledger/internal/domain/shared"
	"github.com/erp/stockledger/internal/domain/shared/valueobject"
)

// ProductUnit links a product to a unit of measure it can be traded in.
// The conversion factor expresses how many base units one of this unit
// holds; the base unit row has factor 1.
type ProductUnit struct {
	shared.BaseEntity
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_product_units_code,priority:1"`
	UnitCode         string          `gorm:"type:varchar(20);not null;uniqueIndex:uq_product_units_code,priority:2"`
	UnitName         string          `gorm:"type:varchar(50);not null"`
	ConversionFactor decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	IsBase           bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductUnit) TableName() string {
	return "product_units"
}

// NewProductUnit creates a new product unit mapping
func NewProductUnit(productID uuid.UUID, unit valueobject.Unit) (*ProductUnit, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if unit.IsZero() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Unit cannot be empty")
	}

	return &ProductUnit{
		BaseEntity:       shared.NewBaseEntity(),
		ProductID:        productID,
		UnitCode:         unit.Code(),
		UnitName:         unit.Name(),
		ConversionFactor: unit.ConversionFactor(),
		IsBase:           unit.IsBaseUnit(),
	}, nil
}

// Unit reconstructs the unit value object for this mapping
func (p *ProductUnit) Unit() (valueobject.Unit, error) {
	return valueobject.NewUnit(p.UnitCode, p.UnitName, p.ConversionFactor)
}

// ToBase converts a quantity expressed in this unit into base units.
// A mapping that no longer reconstructs into a valid unit (a corrupt or
// non-positive factor) fails fast rather than producing a silently wrong
// ledger row.
func (p *ProductUnit) ToBase(quantity decimal.Decimal) (decimal.Decimal, error) {
	unit, err := p.Unit()
	if err != nil {
		return decimal.Zero, shared.ErrConversionError
	}
	return unit.ConvertToBase(quantity), nil
}
