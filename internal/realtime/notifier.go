package realtime

import (
	"context"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/infra"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notificador is what the order, stock and tracking flows depend on.
// Implementations must never return or surface delivery failures.
type Notificador interface {
	NuevoPedido(ctx context.Context, pedidoID uint)
	EstadoCambiado(ctx context.Context, ev EstadoPedidoCambiado)
	UbicacionRepartidor(ctx context.Context, tracking uuid.UUID, lat, lng float64)
	StockBajo(ctx context.Context, s StockBajo)
}

const publishTimeout = 2 * time.Second

// Notifier publishes through a Broker guarded by a circuit breaker.
// Errors are logged and swallowed.
type Notifier struct {
	broker Broker
	cb     *infra.CircuitBreaker
}

func NewNotifier(broker Broker, cb *infra.CircuitBreaker) *Notifier {
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig("realtime"))
	}
	return &Notifier{broker: broker, cb: cb}
}

var _ Notificador = (*Notifier)(nil)

func (n *Notifier) NuevoPedido(ctx context.Context, pedidoID uint) {
	n.publicar(ctx, Mensaje{
		Grupo:  GrupoCocina,
		Evento: EventoNuevoPedido,
		Datos:  mustJSON(nuevoPedidoPayload{OrderID: pedidoID}),
	})
}

// EstadoCambiado fans one status change out to its three groups.
func (n *Notifier) EstadoCambiado(ctx context.Context, ev EstadoPedidoCambiado) {
	n.publicar(ctx, ev.Mensajes()...)
}

func (n *Notifier) UbicacionRepartidor(ctx context.Context, tracking uuid.UUID, lat, lng float64) {
	n.publicar(ctx, Mensaje{
		Grupo:  GrupoTracking(tracking),
		Evento: EventoUbicacionRepartidor,
		Datos:  mustJSON(ubicacionPayload{Lat: lat, Lng: lng}),
	})
}

func (n *Notifier) StockBajo(ctx context.Context, s StockBajo) {
	n.publicar(ctx, Mensaje{Grupo: GrupoCocina, Evento: EventoStockBajo, Datos: mustJSON(s)})
}

func (n *Notifier) publicar(ctx context.Context, msgs ...Mensaje) {
	// the caller's mutation is already committed; a cancelled request must not drop the event
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, m := range msgs {
		err := n.cb.Execute(func() error { return n.broker.Publish(ctx, m) })
		if err != nil {
			log.Warn().Err(err).Str("grupo", m.Grupo).Str("evento", m.Evento).Msg("realtime: publish failed")
		}
	}
}
