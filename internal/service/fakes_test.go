package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Generic catalog fake ──────────────────────────────────────────────────────

type fakeCrud[T model.Eliminable] struct {
	rows map[uint]T
}

func newFakeCrud[T model.Eliminable](items ...T) *fakeCrud[T] {
	f := &fakeCrud[T]{rows: make(map[uint]T)}
	for _, it := range items {
		f.rows[it.GetID()] = it
	}
	return f
}

func (f *fakeCrud[T]) FindByID(_ context.Context, id uint) (*T, error) {
	v, ok := f.rows[id]
	if !ok || v.EstaEliminado() {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (f *fakeCrud[T]) FindByIDIncluyendoEliminados(_ context.Context, id uint) (*T, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (f *fakeCrud[T]) Create(_ context.Context, e *T) error {
	f.rows[(*e).GetID()] = *e
	return nil
}

func (f *fakeCrud[T]) SoftDelete(_ context.Context, id uint) error {
	if _, ok := f.rows[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeCrud[T]) List(_ context.Context) ([]T, error) {
	out := make([]T, 0, len(f.rows))
	for _, v := range f.rows {
		if !v.EstaEliminado() {
			out = append(out, v)
		}
	}
	return out, nil
}

var _ repository.SucursalRepository = (*fakeCrud[model.Sucursal])(nil)

type fakeProductoRepo struct {
	*fakeCrud[model.Producto]
}

func newFakeProductoRepo(items ...model.Producto) *fakeProductoRepo {
	return &fakeProductoRepo{fakeCrud: newFakeCrud(items...)}
}

func (f *fakeProductoRepo) FindConReceta(ctx context.Context, _ *gorm.DB, id uint) (*model.Producto, error) {
	return f.FindByID(ctx, id)
}

var _ repository.ProductoRepository = (*fakeProductoRepo)(nil)

// ── Stock ─────────────────────────────────────────────────────────────────────

type stockKey struct{ suc, ing uint }

type fakeStockRepo struct {
	rows   map[stockKey]*model.StockSucursal
	nextID uint
	// bloqueos lists the ingredient of every FindBalance, in call order.
	bloqueos []uint
}

func newFakeStockRepo() *fakeStockRepo {
	return &fakeStockRepo{rows: make(map[stockKey]*model.StockSucursal)}
}

// put seeds a balance.
func (f *fakeStockRepo) put(suc, ing uint, cantidad, minimo string) {
	f.nextID++
	f.rows[stockKey{suc, ing}] = &model.StockSucursal{
		Base:          model.Base{ID: f.nextID},
		SucursalID:    suc,
		IngredienteID: ing,
		Cantidad:      decimal.RequireFromString(cantidad),
		StockMinimo:   decimal.RequireFromString(minimo),
	}
}

func (f *fakeStockRepo) cantidad(suc, ing uint) string {
	r, ok := f.rows[stockKey{suc, ing}]
	if !ok {
		return "absent"
	}
	return r.Cantidad.String()
}

func (f *fakeStockRepo) FindBalance(_ context.Context, _ *gorm.DB, suc, ing uint) (*model.StockSucursal, error) {
	f.bloqueos = append(f.bloqueos, ing)
	r, ok := f.rows[stockKey{suc, ing}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStockRepo) CrearBalance(_ context.Context, _ *gorm.DB, suc, ing uint) error {
	if _, ok := f.rows[stockKey{suc, ing}]; !ok {
		f.put(suc, ing, "0", "0")
	}
	return nil
}

func (f *fakeStockRepo) AplicarDelta(_ context.Context, _ *gorm.DB, id uint, delta decimal.Decimal) error {
	for _, r := range f.rows {
		if r.ID == id {
			r.Cantidad = r.Cantidad.Add(delta)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStockRepo) UpsertUmbral(_ context.Context, _ *gorm.DB, suc, ing uint, umbral decimal.Decimal) error {
	if _, ok := f.rows[stockKey{suc, ing}]; !ok {
		f.put(suc, ing, "0", "0")
	}
	f.rows[stockKey{suc, ing}].StockMinimo = umbral
	return nil
}

func (f *fakeStockRepo) ListBySucursal(_ context.Context, suc uint) ([]model.StockSucursal, error) {
	var out []model.StockSucursal
	for k, r := range f.rows {
		if k.suc == suc {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IngredienteID < out[j].IngredienteID })
	return out, nil
}

func (f *fakeStockRepo) ListBajoMinimo(ctx context.Context, suc uint) ([]model.StockSucursal, error) {
	all, _ := f.ListBySucursal(ctx, suc)
	var out []model.StockSucursal
	for _, r := range all {
		if r.BajoMinimo() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStockRepo) DB() *gorm.DB { return nil }

var _ repository.StockRepository = (*fakeStockRepo)(nil)

type fakeMovStockRepo struct {
	rows []model.MovimientoStock
}

func (f *fakeMovStockRepo) Create(_ context.Context, _ *gorm.DB, m *model.MovimientoStock) error {
	m.ID = uint(len(f.rows) + 1)
	m.CreatedAt = time.Now()
	f.rows = append(f.rows, *m)
	return nil
}

func (f *fakeMovStockRepo) List(_ context.Context, filter repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range f.rows {
		if filter.SucursalID != 0 && m.SucursalID != filter.SucursalID {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*fakeMovStockRepo)(nil)

// ── Recipes ───────────────────────────────────────────────────────────────────

type fakeRecetaRepo struct {
	lineas []*model.ProductoIngrediente
	ings   map[uint]model.Ingrediente
}

func (f *fakeRecetaRepo) FindLinea(_ context.Context, productoID, ingredienteID uint) (*model.ProductoIngrediente, error) {
	for _, l := range f.lineas {
		if l.ProductoID == productoID && l.IngredienteID == ingredienteID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRecetaRepo) Create(_ context.Context, l *model.ProductoIngrediente) error {
	l.ID = uint(len(f.lineas) + 1)
	cp := *l
	f.lineas = append(f.lineas, &cp)
	return nil
}

func (f *fakeRecetaRepo) Revivir(_ context.Context, l *model.ProductoIngrediente, cantidad decimal.Decimal) error {
	for _, x := range f.lineas {
		if x.ID == l.ID {
			x.DeletedAt = gorm.DeletedAt{}
			x.Cantidad = cantidad
		}
	}
	return nil
}

func (f *fakeRecetaRepo) SoftDelete(_ context.Context, id uint) error {
	for _, x := range f.lineas {
		if x.ID == id {
			x.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		}
	}
	return nil
}

func (f *fakeRecetaRepo) ListByProducto(_ context.Context, productoID uint) ([]model.ProductoIngrediente, error) {
	var out []model.ProductoIngrediente
	for _, l := range f.lineas {
		if l.ProductoID == productoID && !l.EstaEliminado() {
			cp := *l
			if ing, ok := f.ings[l.IngredienteID]; ok {
				cp.Ingrediente = &ing
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

var _ repository.RecetaRepository = (*fakeRecetaRepo)(nil)

// ── Orders ────────────────────────────────────────────────────────────────────

type fakePedidoRepo struct {
	pedidos   map[uint]*model.Pedido
	historial []model.HistorialEstado
	// carrera makes the next UpdateEstado lose the race.
	carrera bool
}

func newFakePedidoRepo() *fakePedidoRepo {
	return &fakePedidoRepo{pedidos: make(map[uint]*model.Pedido)}
}

func (f *fakePedidoRepo) DB() *gorm.DB { return nil }

func (f *fakePedidoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Pedido) error {
	p.ID = uint(len(f.pedidos) + 1)
	cp := *p
	f.pedidos[p.ID] = &cp
	return nil
}

func (f *fakePedidoRepo) FindByID(_ context.Context, id uint) (*model.Pedido, error) {
	p, ok := f.pedidos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePedidoRepo) FindByTracking(_ context.Context, tracking uuid.UUID) (*model.Pedido, error) {
	for _, p := range f.pedidos {
		if p.TrackingID == tracking {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePedidoRepo) sorted(keep func(*model.Pedido) bool) []model.Pedido {
	var out []model.Pedido
	for _, p := range f.pedidos {
		if keep(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakePedidoRepo) ListByEstado(_ context.Context, estado *model.EstadoPedido) ([]model.Pedido, error) {
	return f.sorted(func(p *model.Pedido) bool { return estado == nil || p.Estado == *estado }), nil
}

func (f *fakePedidoRepo) ListByCliente(_ context.Context, clienteID uint) ([]model.Pedido, error) {
	return f.sorted(func(p *model.Pedido) bool { return p.ClienteID != nil && *p.ClienteID == clienteID }), nil
}

func (f *fakePedidoRepo) ListEnVentana(_ context.Context, desde time.Time, hasta *time.Time) ([]model.Pedido, error) {
	return f.sorted(func(p *model.Pedido) bool {
		return !p.Fecha.Before(desde) && (hasta == nil || !p.Fecha.After(*hasta))
	}), nil
}

func (f *fakePedidoRepo) UpdateEstado(_ context.Context, _ *gorm.DB, id uint, desde, hacia model.EstadoPedido) (bool, error) {
	if f.carrera {
		f.carrera = false
		return false, nil
	}
	p, ok := f.pedidos[id]
	if !ok || p.Estado != desde {
		return false, nil
	}
	p.Estado = hacia
	return true, nil
}

func (f *fakePedidoRepo) CreateHistorial(_ context.Context, _ *gorm.DB, h *model.HistorialEstado) error {
	h.ID = uint(len(f.historial) + 1)
	f.historial = append(f.historial, *h)
	return nil
}

func (f *fakePedidoRepo) ListHistorial(_ context.Context, pedidoID uint) ([]model.HistorialEstado, error) {
	var out []model.HistorialEstado
	for _, h := range f.historial {
		if h.PedidoID == pedidoID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakePedidoRepo) historialDe(pedidoID uint) []model.HistorialEstado {
	out, _ := f.ListHistorial(context.Background(), pedidoID)
	return out
}

var _ repository.PedidoRepository = (*fakePedidoRepo)(nil)

// ── Cash ──────────────────────────────────────────────────────────────────────

type fakeCajaRepo struct {
	sesiones    []*model.SesionCaja
	movimientos []model.MovimientoCaja
	// calls records FindSesionAbierta/ListMovimientos/CerrarSesion in order.
	calls []string
	// onFindAbierta runs before the open session is looked up, standing in
	// for a request that wins the row lock first.
	onFindAbierta func()
}

func (f *fakeCajaRepo) DB() *gorm.DB { return nil }

func (f *fakeCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	for _, x := range f.sesiones {
		if !x.Cerrada {
			return repository.ErrSesionAbiertaExistente
		}
	}
	s.ID = uint(len(f.sesiones) + 1)
	cp := *s
	f.sesiones = append(f.sesiones, &cp)
	return nil
}

func (f *fakeCajaRepo) FindSesionAbierta(_ context.Context, _ *gorm.DB) (*model.SesionCaja, error) {
	if hook := f.onFindAbierta; hook != nil {
		hook()
	}
	f.calls = append(f.calls, "find")
	for i := len(f.sesiones) - 1; i >= 0; i-- {
		if !f.sesiones[i].Cerrada {
			cp := *f.sesiones[i]
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCajaRepo) FindSesionByID(_ context.Context, id uint) (*model.SesionCaja, error) {
	for _, s := range f.sesiones {
		if s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCajaRepo) CerrarSesion(_ context.Context, _ *gorm.DB, s *model.SesionCaja) (bool, error) {
	f.calls = append(f.calls, "cerrar")
	for i, x := range f.sesiones {
		if x.ID == s.ID {
			if x.Cerrada {
				return false, nil
			}
			cp := *s
			cp.Cerrada = true
			f.sesiones[i] = &cp
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCajaRepo) CreateMovimiento(_ context.Context, _ *gorm.DB, m *model.MovimientoCaja) error {
	m.ID = uint(len(f.movimientos) + 1)
	m.CreatedAt = time.Now()
	f.movimientos = append(f.movimientos, *m)
	return nil
}

func (f *fakeCajaRepo) ListMovimientos(_ context.Context, _ *gorm.DB, sesionID uint) ([]model.MovimientoCaja, error) {
	f.calls = append(f.calls, "list")
	var out []model.MovimientoCaja
	for _, m := range f.movimientos {
		if m.SesionCajaID == sesionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeCajaRepo) ListCerradas(_ context.Context, limit int) ([]model.SesionCaja, error) {
	var out []model.SesionCaja
	for i := len(f.sesiones) - 1; i >= 0 && len(out) < limit; i-- {
		if f.sesiones[i].Cerrada {
			out = append(out, *f.sesiones[i])
		}
	}
	return out, nil
}

var _ repository.CajaRepository = (*fakeCajaRepo)(nil)

// ── Side effects ──────────────────────────────────────────────────────────────

type recordingNotifier struct {
	mu        sync.Mutex
	nuevos    []uint
	cambios   []realtime.EstadoPedidoCambiado
	ubicacion []uuid.UUID
}

func (n *recordingNotifier) NuevoPedido(_ context.Context, id uint) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nuevos = append(n.nuevos, id)
}

func (n *recordingNotifier) EstadoCambiado(_ context.Context, ev realtime.EstadoPedidoCambiado) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cambios = append(n.cambios, ev)
}

func (n *recordingNotifier) UbicacionRepartidor(_ context.Context, tracking uuid.UUID, _, _ float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ubicacion = append(n.ubicacion, tracking)
}

func (n *recordingNotifier) StockBajo(context.Context, realtime.StockBajo) {}

var _ realtime.Notificador = (*recordingNotifier)(nil)

type fakeDispatcher struct {
	alertas  []worker.AlertaStockPayload
	reportes []worker.ReporteCajaPayload
}

func (d *fakeDispatcher) EnqueueAlertaStock(_ context.Context, p worker.AlertaStockPayload) error {
	d.alertas = append(d.alertas, p)
	return nil
}

func (d *fakeDispatcher) EnqueueReporteCaja(_ context.Context, p worker.ReporteCajaPayload) error {
	d.reportes = append(d.reportes, p)
	return nil
}

var _ JobDispatcher = (*fakeDispatcher)(nil)

type fakeCache struct{ invalidados []string }

func (c *fakeCache) Invalidar(_ context.Context, tracking string) {
	c.invalidados = append(c.invalidados, tracking)
}
