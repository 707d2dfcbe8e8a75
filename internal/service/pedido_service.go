package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrTransicionInvalida is wrapped by every rejected status change.
var ErrTransicionInvalida = errors.New("transicion de estado invalida")

// errCarreraEstado signals that another request moved the order first.
var errCarreraEstado = errors.New("estado modificado concurrentemente")

// SeguimientoInvalidator drops the cached public view of an order.
// *infra.SeguimientoCache satisfies it.
type SeguimientoInvalidator interface {
	Invalidar(ctx context.Context, tracking string)
}

type PedidoService interface {
	Crear(ctx context.Context, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.PedidoResponse, error)
	ObtenerPorTracking(ctx context.Context, tracking string) (*dto.PedidoResponse, error)
	// ListarPorEstado lists orders newest first; an empty estado lists all.
	ListarPorEstado(ctx context.Context, estado string) ([]dto.PedidoResponse, error)
	ListarPorCliente(ctx context.Context, clienteID uint) ([]dto.PedidoResponse, error)
	CambiarEstado(ctx context.Context, id uint, estado string, usuarioID *uint) (*dto.PedidoResponse, error)
	Avanzar(ctx context.Context, id uint, usuarioID *uint) (*dto.PedidoResponse, error)
	Cancelar(ctx context.Context, id uint, usuarioID *uint) (*dto.PedidoResponse, error)
	Historial(ctx context.Context, id uint) ([]dto.HistorialEstadoResponse, error)
	EnviarUbicacion(ctx context.Context, tracking string, lat, lng float64) error
}

type pedidoService struct {
	repo        repository.PedidoRepository
	productos   repository.ProductoRepository
	clientes    repository.ClienteRepository
	direcciones repository.DireccionRepository
	sucursales  repository.SucursalRepository
	stock       StockService
	notifier    realtime.Notificador
	cache       SeguimientoInvalidator
	now         func() time.Time
}

func NewPedidoService(
	repo repository.PedidoRepository,
	productos repository.ProductoRepository,
	clientes repository.ClienteRepository,
	direcciones repository.DireccionRepository,
	sucursales repository.SucursalRepository,
	stock StockService,
	notifier realtime.Notificador,
	cache SeguimientoInvalidator,
) PedidoService {
	return &pedidoService{
		repo:        repo,
		productos:   productos,
		clientes:    clientes,
		direcciones: direcciones,
		sucursales:  sucursales,
		stock:       stock,
		notifier:    notifier,
		cache:       cache,
		now:         time.Now,
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// Every input is validated before the first write:
//   1. items non-empty, client, address and branch resolve
//   2. each product resolves with its recipe and is active
//   3. totals are computed with clamped discounts
// Then, in one transaction: insert the order, deduct each recipe line from the
// branch (row locked), write the Pending history row. Notifications and the
// low-stock job run after commit.

type lineaResuelta struct {
	producto  *model.Producto
	cantidad  int
	descuento decimal.Decimal
	nota      string
}

func (s *pedidoService) Crear(ctx context.Context, req dto.CrearPedidoRequest) (*dto.PedidoResponse, error) {
	if len(req.Items) == 0 {
		return nil, apierror.Validation("El pedido debe tener al menos un item")
	}
	metodo := model.MetodoPago(req.MetodoPago)
	if !metodo.Valido() {
		return nil, apierror.Validation("Método de pago inválido: %s", req.MetodoPago)
	}
	if req.Descuento.IsNegative() {
		return nil, apierror.Validation("El descuento no puede ser negativo")
	}
	if req.ClienteID != nil {
		if _, err := s.clientes.FindByID(ctx, *req.ClienteID); err != nil {
			return nil, lookupErr(err, apierror.Validation("Cliente no encontrado"), "No se pudo validar el cliente")
		}
	}
	if _, err := s.direcciones.FindByID(ctx, req.DireccionID); err != nil {
		return nil, lookupErr(err, apierror.Validation("Dirección no encontrada"), "No se pudo validar la dirección")
	}
	if _, err := s.sucursales.FindByID(ctx, req.SucursalID); err != nil {
		return nil, lookupErr(err, apierror.Validation("Sucursal no encontrada"), "No se pudo validar la sucursal")
	}

	lineas := make([]lineaResuelta, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Cantidad <= 0 {
			return nil, apierror.Validation("La cantidad debe ser mayor a cero")
		}
		if item.Descuento.IsNegative() {
			return nil, apierror.Validation("El descuento no puede ser negativo")
		}
		p, err := s.productos.FindConReceta(ctx, nil, item.ProductoID)
		if repository.IsNotFound(err) {
			// A removed product reads as unavailable rather than unknown.
			if borrado, e := s.productos.FindByIDIncluyendoEliminados(ctx, item.ProductoID); e == nil {
				return nil, apierror.Validation("El producto %s no está disponible", borrado.Nombre)
			}
		}
		if err != nil {
			return nil, lookupErr(err, apierror.Validation("Producto %d no encontrado", item.ProductoID), "No se pudo leer el producto")
		}
		if !p.Activo {
			return nil, apierror.Validation("El producto %s no está disponible", p.Nombre)
		}
		lineas = append(lineas, lineaResuelta{producto: p, cantidad: item.Cantidad, descuento: item.Descuento, nota: item.Observacion})
	}

	items, subtotal := calcularItems(lineas)
	descuento := decimal.Min(req.Descuento, subtotal)
	now := s.now()

	pedido := model.Pedido{
		TrackingID:  uuid.New(),
		Fecha:       now,
		Estado:      model.EstadoPendiente,
		MetodoPago:  metodo,
		Total:       subtotal.Sub(descuento),
		Descuento:   descuento,
		ClienteID:   req.ClienteID,
		SucursalID:  req.SucursalID,
		DireccionID: req.DireccionID,
		Nota:        req.Nota,
		Items:       items,
	}

	consumos := make([]ConsumoReceta, 0, len(lineas))
	for _, l := range lineas {
		consumos = append(consumos, ConsumoReceta{Receta: l.producto.Receta, Unidades: l.cantidad})
	}

	var bajos []uint
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &pedido); err != nil {
			return err
		}
		ids, err := s.stock.DescontarPedidoTx(ctx, tx, pedido.SucursalID, consumos, &pedido.ID)
		if err != nil {
			return fmt.Errorf("descontando stock: %w", err)
		}
		bajos = ids
		return s.repo.CreateHistorial(ctx, tx, &model.HistorialEstado{
			PedidoID: pedido.ID,
			Estado:   model.EstadoPendiente,
			Fecha:    now,
		})
	})
	if err != nil {
		return nil, apierror.Infra("No se pudo registrar el pedido", err)
	}

	log.Info().
		Uint("pedido_id", pedido.ID).
		Str("tracking_id", pedido.TrackingID.String()).
		Str("total", pedido.Total.String()).
		Msg("pedido: creado")

	s.notifier.NuevoPedido(ctx, pedido.ID)
	s.stock.NotificarStockBajo(ctx, pedido.SucursalID, bajos)

	return pedidoToResponse(&pedido), nil
}

// calcularItems prices each line: subtotal = unit price × quantity minus the
// line discount, which is capped at the line's gross amount.
func calcularItems(lineas []lineaResuelta) ([]model.PedidoItem, decimal.Decimal) {
	items := make([]model.PedidoItem, 0, len(lineas))
	acumulado := decimal.Zero
	for _, l := range lineas {
		bruto := l.producto.Precio.Mul(decimal.NewFromInt(int64(l.cantidad)))
		item := model.PedidoItem{
			ProductoID:     l.producto.ID,
			Cantidad:       l.cantidad,
			PrecioUnitario: l.producto.Precio,
			Descuento:      decimal.Min(l.descuento, bruto),
			Observacion:    l.nota,
			Producto:       l.producto,
		}
		acumulado = acumulado.Add(item.Subtotal())
		items = append(items, item)
	}
	return items, acumulado
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *pedidoService) ObtenerPorID(ctx context.Context, id uint) (*dto.PedidoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apierror.NotFound("Pedido no encontrado"), "No se pudo leer el pedido")
	}
	return pedidoToResponse(p), nil
}

// ObtenerPorTracking resolves the public tracking code. A malformed code is
// reported the same way as an unknown one.
func (s *pedidoService) ObtenerPorTracking(ctx context.Context, tracking string) (*dto.PedidoResponse, error) {
	id, err := uuid.Parse(tracking)
	if err != nil {
		return nil, apierror.NotFound("Pedido no encontrado")
	}
	p, err := s.repo.FindByTracking(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apierror.NotFound("Pedido no encontrado"), "No se pudo leer el pedido")
	}
	return pedidoToResponse(p), nil
}

func (s *pedidoService) ListarPorEstado(ctx context.Context, estado string) ([]dto.PedidoResponse, error) {
	var filtro *model.EstadoPedido
	if estado != "" {
		e, ok := model.ParseEstadoPedido(estado)
		if !ok {
			return nil, apierror.Validation("Estado inválido: %s", estado)
		}
		filtro = &e
	}
	pedidos, err := s.repo.ListByEstado(ctx, filtro)
	if err != nil {
		return nil, apierror.Infra("No se pudieron listar los pedidos", err)
	}
	return pedidosToResponse(pedidos), nil
}

func (s *pedidoService) ListarPorCliente(ctx context.Context, clienteID uint) ([]dto.PedidoResponse, error) {
	if _, err := s.clientes.FindByID(ctx, clienteID); err != nil {
		return nil, lookupErr(err, apierror.NotFound("Cliente no encontrado"), "No se pudo leer el cliente")
	}
	pedidos, err := s.repo.ListByCliente(ctx, clienteID)
	if err != nil {
		return nil, apierror.Infra("No se pudieron listar los pedidos", err)
	}
	return pedidosToResponse(pedidos), nil
}

func (s *pedidoService) Historial(ctx context.Context, id uint) ([]dto.HistorialEstadoResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupErr(err, apierror.NotFound("Pedido no encontrado"), "No se pudo leer el pedido")
	}
	rows, err := s.repo.ListHistorial(ctx, id)
	if err != nil {
		return nil, apierror.Infra("No se pudo leer el historial", err)
	}
	out := make([]dto.HistorialEstadoResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, dto.HistorialEstadoResponse{Estado: h.Estado.String(), Fecha: h.Fecha, UsuarioID: h.UsuarioID})
	}
	return out, nil
}

// ── Transitions ───────────────────────────────────────────────────────────────

func transicionInvalida(desde, hacia model.EstadoPedido) error {
	if desde.EsTerminal() {
		return &apierror.Error{
			Kind: apierror.KindConflict,
			Msg:  fmt.Sprintf("El pedido ya está %s y no admite cambios", desde),
			Err:  ErrTransicionInvalida,
		}
	}
	return &apierror.Error{
		Kind: apierror.KindConflict,
		Msg:  fmt.Sprintf("No se puede pasar de %s a %s", desde, hacia),
		Err:  ErrTransicionInvalida,
	}
}

func (s *pedidoService) CambiarEstado(ctx context.Context, id uint, estado string, usuarioID *uint) (*dto.PedidoResponse, error) {
	hacia, ok := model.ParseEstadoPedido(estado)
	if !ok {
		return nil, apierror.Validation("Estado inválido: %s", estado)
	}
	return s.transicionar(ctx, id, usuarioID, func(model.EstadoPedido) model.EstadoPedido { return hacia })
}

func (s *pedidoService) Avanzar(ctx context.Context, id uint, usuarioID *uint) (*dto.PedidoResponse, error) {
	return s.transicionar(ctx, id, usuarioID, model.EstadoPedido.Siguiente)
}

func (s *pedidoService) Cancelar(ctx context.Context, id uint, usuarioID *uint) (*dto.PedidoResponse, error) {
	return s.transicionar(ctx, id, usuarioID, func(model.EstadoPedido) model.EstadoPedido { return model.EstadoCancelado })
}

// transicionar moves an order to destino(current) if the state table allows
// it. The update is conditional on the status read, so a concurrent change
// is reported as a conflict instead of being overwritten. Each accepted
// transition writes one history row and emits one EstadoPedidoCambiado.
func (s *pedidoService) transicionar(ctx context.Context, id uint, usuarioID *uint, destino func(model.EstadoPedido) model.EstadoPedido) (*dto.PedidoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apierror.NotFound("Pedido no encontrado"), "No se pudo leer el pedido")
	}
	desde := p.Estado
	hacia := destino(desde)
	if !desde.PuedeTransicionarA(hacia) {
		return nil, transicionInvalida(desde, hacia)
	}

	now := s.now()
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.UpdateEstado(ctx, tx, p.ID, desde, hacia)
		if err != nil {
			return err
		}
		if !ok {
			return errCarreraEstado
		}
		return s.repo.CreateHistorial(ctx, tx, &model.HistorialEstado{
			PedidoID:  p.ID,
			Estado:    hacia,
			Fecha:     now,
			UsuarioID: usuarioActor(usuarioID),
		})
	})
	if errors.Is(err, errCarreraEstado) {
		return nil, &apierror.Error{
			Kind: apierror.KindConflict,
			Msg:  "El pedido cambió de estado, vuelva a intentarlo",
			Err:  ErrTransicionInvalida,
		}
	}
	if err != nil {
		return nil, apierror.Infra("No se pudo actualizar el estado del pedido", err)
	}
	p.Estado = hacia

	log.Info().
		Uint("pedido_id", p.ID).
		Str("desde", desde.String()).
		Str("hacia", hacia.String()).
		Msg("pedido: estado actualizado")

	if s.cache != nil {
		s.cache.Invalidar(ctx, p.TrackingID.String())
	}
	s.notifier.EstadoCambiado(ctx, realtime.EstadoPedidoCambiado{
		PedidoID:   p.ID,
		TrackingID: p.TrackingID,
		Estado:     hacia,
	})
	return pedidoToResponse(p), nil
}

// ── Driver location ───────────────────────────────────────────────────────────

// EnviarUbicacion relays a driver GPS fix to whoever follows the tracking
// code. Nothing is persisted.
func (s *pedidoService) EnviarUbicacion(ctx context.Context, tracking string, lat, lng float64) error {
	id, err := uuid.Parse(tracking)
	if err != nil {
		return apierror.NotFound("Pedido no encontrado")
	}
	p, err := s.repo.FindByTracking(ctx, id)
	if err != nil {
		return lookupErr(err, apierror.NotFound("Pedido no encontrado"), "No se pudo leer el pedido")
	}
	if p.Estado.EsTerminal() {
		return apierror.Conflict("El pedido ya está %s", p.Estado)
	}
	s.notifier.UbicacionRepartidor(ctx, p.TrackingID, lat, lng)
	return nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func pedidoToResponse(p *model.Pedido) *dto.PedidoResponse {
	resp := &dto.PedidoResponse{
		ID:              p.ID,
		TrackingID:      p.TrackingID.String(),
		Fecha:           p.Fecha,
		Estado:          p.Estado.String(),
		SiguienteEstado: p.Estado.Siguiente().String(),
		MetodoPago:      string(p.MetodoPago),
		Subtotal:        decimal.Zero,
		Descuento:       p.Descuento,
		Total:           p.Total,
		ClienteID:       p.ClienteID,
		SucursalID:      p.SucursalID,
		DireccionID:     p.DireccionID,
		Nota:            p.Nota,
		Items:           make([]dto.ItemPedidoResponse, 0, len(p.Items)),
	}
	for _, it := range p.Items {
		sub := it.Subtotal()
		resp.Subtotal = resp.Subtotal.Add(sub)
		item := dto.ItemPedidoResponse{
			ProductoID:     it.ProductoID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Descuento:      it.Descuento,
			Subtotal:       sub,
			Observacion:    it.Observacion,
		}
		if it.Producto != nil {
			item.Nombre = it.Producto.Nombre
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}

func pedidosToResponse(pedidos []model.Pedido) []dto.PedidoResponse {
	out := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		out = append(out, *pedidoToResponse(&pedidos[i]))
	}
	return out
}
