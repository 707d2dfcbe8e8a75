package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovimientoStock registra cada cambio de stock de un ingrediente en una sucursal.
// Se crea al descontar por pedido, al ajustar manualmente o al fijar el umbral.
type MovimientoStock struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	SucursalID    uint            `gorm:"not null;index" json:"sucursal_id"`
	IngredienteID uint            `gorm:"not null;index" json:"ingrediente_id"`
	Tipo          string          `gorm:"type:varchar(20);not null" json:"tipo"`       // "pedido" | "ajuste_manual" | "umbral"
	Cantidad      decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"cantidad"` // positive = entrada, negative = salida
	StockAnterior decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stock_anterior"`
	StockNuevo    decimal.Decimal `gorm:"type:decimal(12,3);not null" json:"stock_nuevo"`
	Motivo        string          `json:"motivo"`
	PedidoID      *uint           `gorm:"index" json:"pedido_id,omitempty"`
	UsuarioID     *uint           `json:"usuario_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }

const (
	MovimientoStockPedido = "pedido"
	MovimientoStockAjuste = "ajuste_manual"
	MovimientoStockUmbral = "umbral"
)
