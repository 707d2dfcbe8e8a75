package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovimientoStockRequest registers a manual stock movement and/or a new alert
// threshold for a (sucursal, ingrediente) pair. Cantidad 0 with StockMinimo
// only updates the threshold.
type MovimientoStockRequest struct {
	SucursalID    uint             `json:"sucursal_id" validate:"required"`
	IngredienteID uint             `json:"ingrediente_id" validate:"required"`
	Cantidad      decimal.Decimal  `json:"cantidad" validate:"min=0"`
	Tipo          string           `json:"tipo" validate:"omitempty,oneof=IN OUT"`
	StockMinimo   *decimal.Decimal `json:"stock_minimo,omitempty" validate:"omitempty,min=0"`
	Motivo        string           `json:"motivo" validate:"max=255"`
}

type StockResponse struct {
	SucursalID    uint            `json:"sucursal_id"`
	IngredienteID uint            `json:"ingrediente_id"`
	Ingrediente   string          `json:"ingrediente"`
	Unidad        string          `json:"unidad"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	StockMinimo   decimal.Decimal `json:"stock_minimo"`
	BajoMinimo    bool            `json:"bajo_minimo"`
}

type MovimientoStockResponse struct {
	ID            uint            `json:"id"`
	SucursalID    uint            `json:"sucursal_id"`
	IngredienteID uint            `json:"ingrediente_id"`
	Tipo          string          `json:"tipo"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	StockAnterior decimal.Decimal `json:"stock_anterior"`
	StockNuevo    decimal.Decimal `json:"stock_nuevo"`
	Motivo        string          `json:"motivo"`
	PedidoID      *uint           `json:"pedido_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
