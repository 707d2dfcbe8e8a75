package model

import "github.com/shopspring/decimal"

// StockSucursal is the current balance of one ingredient at one branch.
// Cantidad may go negative when orders oversell; alerts fire when
// Cantidad <= StockMinimo.
type StockSucursal struct {
	Base
	SucursalID    uint            `gorm:"not null;uniqueIndex:idx_stock_sucursal_ingrediente" json:"sucursal_id"`
	IngredienteID uint            `gorm:"not null;uniqueIndex:idx_stock_sucursal_ingrediente" json:"ingrediente_id"`
	Cantidad      decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"cantidad"`
	StockMinimo   decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"stock_minimo"`

	Ingrediente *Ingrediente `gorm:"foreignKey:IngredienteID" json:"ingrediente,omitempty"`
}

func (StockSucursal) TableName() string { return "stock_sucursales" }

// BajoMinimo reports whether the balance sits at or below its alert threshold.
func (s StockSucursal) BajoMinimo() bool {
	return s.Cantidad.LessThanOrEqual(s.StockMinimo)
}
