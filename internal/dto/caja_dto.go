package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ── Requests ──────────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
	// FechaOperativa (YYYY-MM-DD) defaults to the opening date.
	FechaOperativa *string `json:"fecha_operativa,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type MovimientoCajaRequest struct {
	Tipo        string          `json:"tipo" validate:"required,oneof=IN OUT"`
	Monto       decimal.Decimal `json:"monto" validate:"gt=0"`
	Descripcion string          `json:"descripcion" validate:"required,max=255"`
}

// CerrarCajaRequest carries the physically counted drawer amount.
type CerrarCajaRequest struct {
	MontoFinal decimal.Decimal `json:"monto_final" validate:"min=0"`
	Notas      *string         `json:"notas,omitempty" validate:"omitempty,max=500"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

type SesionCajaResponse struct {
	ID             uint             `json:"id"`
	Apertura       time.Time        `json:"apertura"`
	Cierre         *time.Time       `json:"cierre,omitempty"`
	FechaOperativa string           `json:"fecha_operativa"`
	MontoInicial   decimal.Decimal  `json:"monto_inicial"`
	MontoFinal     *decimal.Decimal `json:"monto_final,omitempty"`
	MontoEsperado  *decimal.Decimal `json:"monto_esperado,omitempty"`
	Diferencia     *decimal.Decimal `json:"diferencia,omitempty"`
	Notas          *string          `json:"notas,omitempty"`
	Cerrada        bool             `json:"cerrada"`
}

type MovimientoCajaResponse struct {
	ID          uint            `json:"id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PedidoCajaResponse struct {
	ID         uint            `json:"id"`
	TrackingID string          `json:"tracking_id"`
	Fecha      time.Time       `json:"fecha"`
	Estado     string          `json:"estado"`
	MetodoPago string          `json:"metodo_pago"`
	Total      decimal.Decimal `json:"total"`
}

type MontosPorMetodo struct {
	Efectivo      decimal.Decimal `json:"efectivo"`
	MercadoPago   decimal.Decimal `json:"mercado_pago"`
	Transferencia decimal.Decimal `json:"transferencia"`
	Total         decimal.Decimal `json:"total"`
}

// ReporteCajaResponse is the operator view of a session: its movements and the
// orders attributed to it by the display rule (see CajaService.Estado). It is
// an estimate and is not reconciled against the close figures.
type ReporteCajaResponse struct {
	Abierta          bool                     `json:"abierta"`
	Sesion           *SesionCajaResponse      `json:"sesion,omitempty"`
	Movimientos      []MovimientoCajaResponse `json:"movimientos"`
	Pedidos          []PedidoCajaResponse     `json:"pedidos"`
	VentasPorMetodo  MontosPorMetodo          `json:"ventas_por_metodo"`
	Ingresos         decimal.Decimal          `json:"ingresos"`
	Egresos          decimal.Decimal          `json:"egresos"`
	EfectivoEstimado decimal.Decimal          `json:"efectivo_estimado"`
}

// CierreCajaResponse is the audited reconciliation computed at close.
type CierreCajaResponse struct {
	Sesion         SesionCajaResponse `json:"sesion"`
	VentasEfectivo decimal.Decimal    `json:"ventas_efectivo"`
	Ingresos       decimal.Decimal    `json:"ingresos"`
	Egresos        decimal.Decimal    `json:"egresos"`
	MontoEsperado  decimal.Decimal    `json:"monto_esperado"`
	MontoFinal     decimal.Decimal    `json:"monto_final"`
	Diferencia     decimal.Decimal    `json:"diferencia"`
}
