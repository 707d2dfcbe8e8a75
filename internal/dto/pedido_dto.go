package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemPedidoRequest struct {
	ProductoID  uint            `json:"producto_id" validate:"required"`
	Cantidad    int             `json:"cantidad" validate:"gt=0"`
	Descuento   decimal.Decimal `json:"descuento" validate:"min=0"`
	Observacion string          `json:"observacion" validate:"max=255"`
}

// CrearPedidoRequest: ClienteID nil means a walk-in / guest order.
type CrearPedidoRequest struct {
	ClienteID   *uint               `json:"cliente_id,omitempty"`
	SucursalID  uint                `json:"sucursal_id" validate:"required"`
	DireccionID uint                `json:"direccion_id" validate:"required"`
	MetodoPago  string              `json:"metodo_pago" validate:"required,oneof=Cash MercadoPago Transfer"`
	Descuento   decimal.Decimal     `json:"descuento" validate:"min=0"`
	Nota        string              `json:"nota" validate:"max=500"`
	Items       []ItemPedidoRequest `json:"items" validate:"dive"`
}

type CambiarEstadoRequest struct {
	Estado    string `json:"estado" validate:"required"`
	UsuarioID *uint  `json:"usuario_id,omitempty"`
}

// AccionPedidoRequest is the optional body of advance and cancel.
type AccionPedidoRequest struct {
	UsuarioID *uint `json:"usuario_id,omitempty"`
}

type UbicacionRepartidorRequest struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

type ItemPedidoResponse struct {
	ProductoID     uint            `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Descuento      decimal.Decimal `json:"descuento"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Observacion    string          `json:"observacion"`
}

// PedidoResponse is returned identically by the numeric-id and tracking lookups.
type PedidoResponse struct {
	ID              uint                 `json:"id"`
	TrackingID      string               `json:"tracking_id"`
	Fecha           time.Time            `json:"fecha"`
	Estado          string               `json:"estado"`
	SiguienteEstado string               `json:"siguiente_estado"`
	MetodoPago      string               `json:"metodo_pago"`
	Subtotal        decimal.Decimal      `json:"subtotal"`
	Descuento       decimal.Decimal      `json:"descuento"`
	Total           decimal.Decimal      `json:"total"`
	ClienteID       *uint                `json:"cliente_id,omitempty"`
	SucursalID      uint                 `json:"sucursal_id"`
	DireccionID     uint                 `json:"direccion_id"`
	Nota            string               `json:"nota"`
	Items           []ItemPedidoResponse `json:"items"`
}

type HistorialEstadoResponse struct {
	Estado    string    `json:"estado"`
	Fecha     time.Time `json:"fecha"`
	UsuarioID *uint     `json:"usuario_id,omitempty"`
}
