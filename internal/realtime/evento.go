// Package realtime broadcasts order lifecycle events to named groups.
// Subscribers join "kitchen", a numeric order id or a public tracking id.
// Delivery is at-most-once with no replay; clients re-join on reconnect and
// fall back to polling the order endpoints.
package realtime

import (
	"encoding/json"
	"strconv"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GrupoCocina is the broadcast group of the kitchen dashboard.
const GrupoCocina = "kitchen"

const (
	EventoNuevoPedido         = "new-order"
	EventoEstadoCambiado      = "status-changed"
	EventoUbicacionRepartidor = "driver-location"
	EventoStockBajo           = "stock-low"
)

// Mensaje is the unit delivered to subscribers of Grupo.
type Mensaje struct {
	Grupo  string          `json:"grupo"`
	Evento string          `json:"evento"`
	Datos  json.RawMessage `json:"datos"`
}

// GrupoPedido is the legacy per-order group keyed by numeric id.
func GrupoPedido(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// GrupoTracking is the public per-order group keyed by tracking id.
func GrupoTracking(tracking uuid.UUID) string { return tracking.String() }

// ── Payloads ──────────────────────────────────────────────────────────────────

type nuevoPedidoPayload struct {
	OrderID uint `json:"orderId"`
}

type estadoPayload struct {
	Status string `json:"status"`
}

type estadoCocinaPayload struct {
	OrderID uint   `json:"orderId"`
	Status  string `json:"status"`
}

type ubicacionPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StockBajo describes a balance at or below its alert threshold.
type StockBajo struct {
	SucursalID    uint            `json:"branchId"`
	IngredienteID uint            `json:"ingredientId"`
	Ingrediente   string          `json:"ingredient"`
	Cantidad      decimal.Decimal `json:"quantity"`
	StockMinimo   decimal.Decimal `json:"threshold"`
}

// EstadoPedidoCambiado is the single internal event emitted per transition.
type EstadoPedidoCambiado struct {
	PedidoID   uint
	TrackingID uuid.UUID
	Estado     model.EstadoPedido
}

// Mensajes derives the three channel messages of one status change: the
// numeric id group and the tracking group get the status, the kitchen gets
// the id and the status.
func (e EstadoPedidoCambiado) Mensajes() []Mensaje {
	estado := mustJSON(estadoPayload{Status: e.Estado.String()})
	return []Mensaje{
		{Grupo: GrupoPedido(e.PedidoID), Evento: EventoEstadoCambiado, Datos: estado},
		{Grupo: GrupoTracking(e.TrackingID), Evento: EventoEstadoCambiado, Datos: estado},
		{Grupo: GrupoCocina, Evento: EventoEstadoCambiado, Datos: mustJSON(estadoCocinaPayload{OrderID: e.PedidoID, Status: e.Estado.String()})},
	}
}

// mustJSON marshals payload structs that cannot fail to encode.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
