package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pedido is the order aggregate. TrackingID is the public, unauthenticated
// identity; ID is the internal numeric one.
// Invariant: Total = max(0, sum(item subtotals) - Descuento).
type Pedido struct {
	Base
	TrackingID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"tracking_id"`
	Fecha       time.Time       `gorm:"not null;index" json:"fecha"`
	Estado      EstadoPedido    `gorm:"type:varchar(20);not null;index;default:'Pending'" json:"estado"`
	MetodoPago  MetodoPago      `gorm:"type:varchar(20);not null" json:"metodo_pago"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Descuento   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"descuento"`
	ClienteID   *uint           `gorm:"index" json:"cliente_id,omitempty"`
	SucursalID  uint            `gorm:"not null;index" json:"sucursal_id"`
	DireccionID uint            `gorm:"not null" json:"direccion_id"`
	Nota        string          `json:"nota"`

	Items []PedidoItem `gorm:"foreignKey:PedidoID" json:"items,omitempty"`
}

// PedidoItem is owned by exactly one Pedido. PrecioUnitario is a snapshot
// of the product price at order time and never changes afterwards.
type PedidoItem struct {
	Base
	PedidoID       uint            `gorm:"not null;index" json:"pedido_id"`
	ProductoID     uint            `gorm:"not null" json:"producto_id"`
	Cantidad       int             `gorm:"not null" json:"cantidad"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio_unitario"`
	Descuento      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"descuento"`
	Observacion    string          `json:"observacion"`

	Producto *Producto `gorm:"foreignKey:ProductoID" json:"producto,omitempty"`
}

// Subtotal is quantity × unit price minus the (already clamped) item discount.
func (i PedidoItem) Subtotal() decimal.Decimal {
	return i.PrecioUnitario.Mul(decimal.NewFromInt(int64(i.Cantidad))).Sub(i.Descuento)
}

// HistorialEstado is one append-only row per status transition.
// UsuarioID is nil or 0 for system-initiated transitions.
type HistorialEstado struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	PedidoID  uint         `gorm:"not null;index" json:"pedido_id"`
	Estado    EstadoPedido `gorm:"type:varchar(20);not null" json:"estado"`
	Fecha     time.Time    `gorm:"not null" json:"fecha"`
	UsuarioID *uint        `json:"usuario_id,omitempty"`
}

func (HistorialEstado) TableName() string { return "historial_estados" }
