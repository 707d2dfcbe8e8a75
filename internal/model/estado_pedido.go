package model

// EstadoPedido is the lifecycle status of an order. Wire values are the
// English names used by the kitchen and tracking clients.
type EstadoPedido string

const (
	EstadoPendiente  EstadoPedido = "Pending"
	EstadoConfirmado EstadoPedido = "Confirmed"
	EstadoCocinando  EstadoPedido = "Cooking"
	EstadoListo      EstadoPedido = "Ready"
	EstadoEnCamino   EstadoPedido = "OnTheWay"
	EstadoEntregado  EstadoPedido = "Delivered"
	EstadoCancelado  EstadoPedido = "Cancelled"
)

// ── Transition table ──────────────────────────────────────────────────────────
// Single source of truth for advance, set-status and cancel. A state with an
// empty target list is terminal. Adding a state means adding one row here and,
// if it sits on the delivery chain, one entry in cadenaEntrega.

var transicionesPermitidas = map[EstadoPedido][]EstadoPedido{
	EstadoPendiente:  {EstadoConfirmado, EstadoCocinando, EstadoListo, EstadoEnCamino, EstadoEntregado, EstadoCancelado},
	EstadoConfirmado: {EstadoCocinando, EstadoListo, EstadoEnCamino, EstadoEntregado, EstadoCancelado},
	EstadoCocinando:  {EstadoListo, EstadoEnCamino, EstadoEntregado, EstadoCancelado},
	EstadoListo:      {EstadoEnCamino, EstadoEntregado, EstadoCancelado},
	EstadoEnCamino:   {EstadoEntregado, EstadoCancelado},
	EstadoEntregado:  {},
	EstadoCancelado:  {},
}

// cadenaEntrega is the canonical linear chain used by "advance".
var cadenaEntrega = map[EstadoPedido]EstadoPedido{
	EstadoPendiente:  EstadoConfirmado,
	EstadoConfirmado: EstadoCocinando,
	EstadoCocinando:  EstadoListo,
	EstadoListo:      EstadoEnCamino,
	EstadoEnCamino:   EstadoEntregado,
}

// EstadosPedido lists every status in lifecycle order.
func EstadosPedido() []EstadoPedido {
	return []EstadoPedido{
		EstadoPendiente, EstadoConfirmado, EstadoCocinando, EstadoListo,
		EstadoEnCamino, EstadoEntregado, EstadoCancelado,
	}
}

// ParseEstadoPedido returns the status named s, or false if s is unknown.
func ParseEstadoPedido(s string) (EstadoPedido, bool) {
	e := EstadoPedido(s)
	_, ok := transicionesPermitidas[e]
	return e, ok
}

// EsTerminal reports whether no transition may leave e.
func (e EstadoPedido) EsTerminal() bool {
	destinos, ok := transicionesPermitidas[e]
	return ok && len(destinos) == 0
}

// Siguiente returns the next state on the delivery chain. States outside the
// chain, terminal ones included, map to themselves.
func (e EstadoPedido) Siguiente() EstadoPedido {
	if next, ok := cadenaEntrega[e]; ok {
		return next
	}
	return e
}

// PuedeTransicionarA reports whether the table allows e → destino.
func (e EstadoPedido) PuedeTransicionarA(destino EstadoPedido) bool {
	for _, d := range transicionesPermitidas[e] {
		if d == destino {
			return true
		}
	}
	return false
}

func (e EstadoPedido) String() string { return string(e) }

// MetodoPago: "Cash" | "MercadoPago" | "Transfer"
type MetodoPago string

const (
	MetodoEfectivo      MetodoPago = "Cash"
	MetodoMercadoPago   MetodoPago = "MercadoPago"
	MetodoTransferencia MetodoPago = "Transfer"
)

func (m MetodoPago) Valido() bool {
	switch m {
	case MetodoEfectivo, MetodoMercadoPago, MetodoTransferencia:
		return true
	}
	return false
}

// EsDigital reports whether the money never enters the physical drawer.
func (m MetodoPago) EsDigital() bool {
	return m == MetodoMercadoPago || m == MetodoTransferencia
}
