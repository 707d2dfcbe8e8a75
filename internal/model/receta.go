package model

import "github.com/shopspring/decimal"

// ProductoIngrediente is one recipe line: how much of an ingredient one unit
// of the product consumes. The (producto, ingrediente) pair is unique even
// across soft-deleted rows, so a removed line is revived instead of duplicated.
type ProductoIngrediente struct {
	Base
	ProductoID    uint            `gorm:"not null;uniqueIndex:idx_producto_ingrediente" json:"producto_id"`
	IngredienteID uint            `gorm:"not null;uniqueIndex:idx_producto_ingrediente" json:"ingrediente_id"`
	Cantidad      decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"cantidad"`

	Ingrediente *Ingrediente `gorm:"foreignKey:IngredienteID" json:"ingrediente,omitempty"`
}

func (ProductoIngrediente) TableName() string { return "producto_ingredientes" }
