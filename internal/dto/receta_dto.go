package dto

import "github.com/shopspring/decimal"

type AgregarIngredienteRequest struct {
	IngredienteID uint            `json:"ingrediente_id" validate:"required"`
	Cantidad      decimal.Decimal `json:"cantidad" validate:"gt=0"`
}

type RecetaLineaResponse struct {
	IngredienteID uint            `json:"ingrediente_id"`
	Ingrediente   string          `json:"ingrediente"`
	Unidad        string          `json:"unidad"`
	Cantidad      decimal.Decimal `json:"cantidad"`
}

type RecetaResponse struct {
	ProductoID uint                  `json:"producto_id"`
	Producto   string                `json:"producto"`
	Lineas     []RecetaLineaResponse `json:"lineas"`
}
