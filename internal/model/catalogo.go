package model

import "github.com/shopspring/decimal"

// Sucursal is a physical restaurant location. Stock is scoped per branch.
type Sucursal struct {
	Base
	Nombre    string `gorm:"not null" json:"nombre"`
	Direccion string `json:"direccion"`
}

func (Sucursal) TableName() string { return "sucursales" }

type Ingrediente struct {
	Base
	Nombre string `gorm:"not null;index" json:"nombre"`
	Unidad string `gorm:"not null;default:'unidad'" json:"unidad"`
}

// Cliente is optional on an order; walk-in orders carry no client.
type Cliente struct {
	Base
	Nombre   string  `gorm:"not null" json:"nombre"`
	Telefono string  `json:"telefono"`
	Email    *string `json:"email,omitempty"`
}

// Direccion is a delivery address. Every order must reference one.
type Direccion struct {
	Base
	ClienteID  *uint  `gorm:"index" json:"cliente_id,omitempty"`
	Calle      string `gorm:"not null" json:"calle"`
	Referencia string `json:"referencia"`
}

func (Direccion) TableName() string { return "direcciones" }

// Producto is a sellable menu item. Receta lists the ingredients consumed
// per unit sold; soft-deleted recipe lines are excluded by default.
type Producto struct {
	Base
	Nombre string          `gorm:"not null;index" json:"nombre"`
	Precio decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio"`
	Activo bool            `gorm:"not null;default:true" json:"activo"`

	Receta []ProductoIngrediente `gorm:"foreignKey:ProductoID" json:"receta,omitempty"`
}
