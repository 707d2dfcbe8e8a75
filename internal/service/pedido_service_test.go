package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fixture ───────────────────────────────────────────────────────────────────

const (
	sucursalID    = uint(1)
	direccionID   = uint(1)
	clienteID     = uint(1)
	ingredienteA  = uint(10)
	productoPizza = uint(100)
	productoBaja  = uint(101)
	productoBorra = uint(102)
)

type pedidoFixture struct {
	svc      PedidoService
	pedidos  *fakePedidoRepo
	stock    *fakeStockRepo
	movs     *fakeMovStockRepo
	notifier *recordingNotifier
	disp     *fakeDispatcher
	cache    *fakeCache
}

func newPedidoFixture() *pedidoFixture {
	f := &pedidoFixture{
		pedidos:  newFakePedidoRepo(),
		stock:    newFakeStockRepo(),
		movs:     &fakeMovStockRepo{},
		notifier: &recordingNotifier{},
		disp:     &fakeDispatcher{},
		cache:    &fakeCache{},
	}
	productos := newFakeProductoRepo(
		model.Producto{
			Base:   model.Base{ID: productoPizza},
			Nombre: "Pizza",
			Precio: decimal.NewFromInt(10),
			Activo: true,
			Receta: []model.ProductoIngrediente{
				{ProductoID: productoPizza, IngredienteID: ingredienteA, Cantidad: decimal.NewFromInt(1)},
			},
		},
		model.Producto{Base: model.Base{ID: productoBaja}, Nombre: "Empanada", Precio: decimal.NewFromInt(3), Activo: false},
		model.Producto{
			Base:   model.Base{ID: productoBorra, DeletedAt: gorm.DeletedAt{Time: time.Now(), Valid: true}},
			Nombre: "Onigiri",
			Precio: decimal.NewFromInt(4),
			Activo: true,
		},
	)
	sucursales := newFakeCrud(model.Sucursal{Base: model.Base{ID: sucursalID}, Nombre: "Centro"})
	ingredientes := newFakeCrud(model.Ingrediente{Base: model.Base{ID: ingredienteA}, Nombre: "Queso", Unidad: "kg"})
	stock := NewStockService(f.stock, f.movs, sucursales, ingredientes, f.disp)

	f.svc = NewPedidoService(
		f.pedidos,
		productos,
		newFakeCrud(model.Cliente{Base: model.Base{ID: clienteID}, Nombre: "Eren"}),
		newFakeCrud(model.Direccion{Base: model.Base{ID: direccionID}, Calle: "Muralla Maria 1"}),
		sucursales,
		stock,
		f.notifier,
		f.cache,
	)
	return f
}

func pedidoReq(cantidad int, descuento int64) dto.CrearPedidoRequest {
	return dto.CrearPedidoRequest{
		SucursalID:  sucursalID,
		DireccionID: direccionID,
		MetodoPago:  string(model.MetodoEfectivo),
		Descuento:   decimal.NewFromInt(descuento),
		Items:       []dto.ItemPedidoRequest{{ProductoID: productoPizza, Cantidad: cantidad}},
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func TestCrear_DeductsRecipeAndTotals(t *testing.T) {
	f := newPedidoFixture()
	f.stock.put(sucursalID, ingredienteA, "5", "0")

	resp, err := f.svc.Crear(context.Background(), pedidoReq(2, 0))
	require.NoError(t, err)

	assert.Equal(t, "3", f.stock.cantidad(sucursalID, ingredienteA))
	assert.Equal(t, "20", resp.Total.String())
	assert.Equal(t, "20", resp.Subtotal.String())
	assert.Equal(t, string(model.EstadoPendiente), resp.Estado)
	assert.Equal(t, string(model.EstadoConfirmado), resp.SiguienteEstado)
	assert.NotEmpty(t, resp.TrackingID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Pizza", resp.Items[0].Nombre)

	hist := f.pedidos.historialDe(resp.ID)
	require.Len(t, hist, 1)
	assert.Equal(t, model.EstadoPendiente, hist[0].Estado)
	assert.Nil(t, hist[0].UsuarioID)

	assert.Equal(t, []uint{resp.ID}, f.notifier.nuevos)

	require.Len(t, f.movs.rows, 1)
	mov := f.movs.rows[0]
	assert.Equal(t, model.MovimientoStockPedido, mov.Tipo)
	assert.Equal(t, "-2", mov.Cantidad.String())
	assert.Equal(t, "5", mov.StockAnterior.String())
	assert.Equal(t, "3", mov.StockNuevo.String())
	require.NotNil(t, mov.PedidoID)
	assert.Equal(t, resp.ID, *mov.PedidoID)
}

func TestCrear_OrderDiscountIsClamped(t *testing.T) {
	cases := []struct {
		name      string
		descuento int64
		total     string
		aplicado  string
	}{
		{"within subtotal", 5, "15", "5"},
		{"exceeds subtotal", 25, "0", "20"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPedidoFixture()
			f.stock.put(sucursalID, ingredienteA, "5", "0")

			resp, err := f.svc.Crear(context.Background(), pedidoReq(2, tc.descuento))
			require.NoError(t, err)
			assert.Equal(t, tc.total, resp.Total.String())
			assert.Equal(t, tc.aplicado, resp.Descuento.String())
		})
	}
}

func TestCrear_ItemDiscountIsClamped(t *testing.T) {
	f := newPedidoFixture()
	req := pedidoReq(2, 0)
	req.Items[0].Descuento = decimal.NewFromInt(50)

	resp, err := f.svc.Crear(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "20", resp.Items[0].Descuento.String())
	assert.Equal(t, "0", resp.Items[0].Subtotal.String())
	assert.Equal(t, "0", resp.Total.String())
}

func TestCrear_SkipsIngredientsWithoutBalance(t *testing.T) {
	f := newPedidoFixture()

	_, err := f.svc.Crear(context.Background(), pedidoReq(2, 0))
	require.NoError(t, err)
	assert.Equal(t, "absent", f.stock.cantidad(sucursalID, ingredienteA))
	assert.Empty(t, f.movs.rows)
}

func TestCrear_StockMayGoNegativeAndAlerts(t *testing.T) {
	f := newPedidoFixture()
	f.stock.put(sucursalID, ingredienteA, "1", "2")

	_, err := f.svc.Crear(context.Background(), pedidoReq(3, 0))
	require.NoError(t, err)
	assert.Equal(t, "-2", f.stock.cantidad(sucursalID, ingredienteA))

	require.Len(t, f.disp.alertas, 1)
	assert.Equal(t, sucursalID, f.disp.alertas[0].SucursalID)
	assert.Equal(t, []uint{ingredienteA}, f.disp.alertas[0].IngredienteIDs)
}

func TestCrear_ValidationRejectsBeforeAnyWrite(t *testing.T) {
	otro := uint(99)
	cases := []struct {
		name   string
		mutate func(*dto.CrearPedidoRequest)
		msg    string
	}{
		{"no items", func(r *dto.CrearPedidoRequest) { r.Items = nil }, "al menos un item"},
		{"unknown client", func(r *dto.CrearPedidoRequest) { r.ClienteID = &otro }, "Cliente no encontrado"},
		{"unknown address", func(r *dto.CrearPedidoRequest) { r.DireccionID = 99 }, "Dirección no encontrada"},
		{"unknown branch", func(r *dto.CrearPedidoRequest) { r.SucursalID = 99 }, "Sucursal no encontrada"},
		{"unknown product", func(r *dto.CrearPedidoRequest) { r.Items[0].ProductoID = 999 }, "Producto 999 no encontrado"},
		{"inactive product", func(r *dto.CrearPedidoRequest) { r.Items[0].ProductoID = productoBaja }, "no está disponible"},
		{"removed product", func(r *dto.CrearPedidoRequest) { r.Items[0].ProductoID = productoBorra }, "El producto Onigiri no está disponible"},
		{"bad payment method", func(r *dto.CrearPedidoRequest) { r.MetodoPago = "Bitcoin" }, "Método de pago"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPedidoFixture()
			f.stock.put(sucursalID, ingredienteA, "5", "0")
			req := pedidoReq(2, 0)
			tc.mutate(&req)

			_, err := f.svc.Crear(context.Background(), req)
			require.Error(t, err)
			assert.True(t, apierror.Is(err, apierror.KindValidation))
			assert.Contains(t, apierror.Message(err), tc.msg)

			assert.Empty(t, f.pedidos.pedidos)
			assert.Equal(t, "5", f.stock.cantidad(sucursalID, ingredienteA))
			assert.Empty(t, f.notifier.nuevos)
		})
	}
}

func TestCrear_EmptyItemsCheckedBeforeClient(t *testing.T) {
	f := newPedidoFixture()
	otro := uint(99)
	req := pedidoReq(1, 0)
	req.Items = nil
	req.ClienteID = &otro

	_, err := f.svc.Crear(context.Background(), req)
	assert.Contains(t, apierror.Message(err), "al menos un item")
}

// ── Lookups ───────────────────────────────────────────────────────────────────

func TestObtener_ByIDAndTrackingAreEquivalent(t *testing.T) {
	f := newPedidoFixture()
	creado, err := f.svc.Crear(context.Background(), pedidoReq(1, 0))
	require.NoError(t, err)

	porID, err := f.svc.ObtenerPorID(context.Background(), creado.ID)
	require.NoError(t, err)
	porTracking, err := f.svc.ObtenerPorTracking(context.Background(), creado.TrackingID)
	require.NoError(t, err)

	assert.Equal(t, porID, porTracking)
}

func TestObtenerPorTracking_UnknownAndMalformed(t *testing.T) {
	f := newPedidoFixture()
	for _, code := range []string{"no-es-un-uuid", "6f1c2b8e-3a4d-4c5e-8f90-1a2b3c4d5e6f"} {
		_, err := f.svc.ObtenerPorTracking(context.Background(), code)
		assert.True(t, apierror.Is(err, apierror.KindNotFound), code)
	}
}

func TestListarPorEstado_FiltersAndRejectsUnknown(t *testing.T) {
	f := newPedidoFixture()
	a, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))
	_, _ = f.svc.Crear(context.Background(), pedidoReq(1, 0))
	_, err := f.svc.Avanzar(context.Background(), a.ID, nil)
	require.NoError(t, err)

	pendientes, err := f.svc.ListarPorEstado(context.Background(), string(model.EstadoPendiente))
	require.NoError(t, err)
	assert.Len(t, pendientes, 1)

	todos, err := f.svc.ListarPorEstado(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, todos, 2)

	_, err = f.svc.ListarPorEstado(context.Background(), "Perdido")
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestListarPorCliente_NewestFirst(t *testing.T) {
	f := newPedidoFixture()
	cid := clienteID
	req := pedidoReq(1, 0)
	req.ClienteID = &cid
	primero, _ := f.svc.Crear(context.Background(), req)
	segundo, _ := f.svc.Crear(context.Background(), req)
	_, _ = f.svc.Crear(context.Background(), pedidoReq(1, 0))

	out, err := f.svc.ListarPorCliente(context.Background(), clienteID)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, segundo.ID, out[0].ID)
	assert.Equal(t, primero.ID, out[1].ID)
}

// ── State machine ─────────────────────────────────────────────────────────────

func TestAvanzar_WalksTheChain(t *testing.T) {
	f := newPedidoFixture()
	p, err := f.svc.Crear(context.Background(), pedidoReq(1, 0))
	require.NoError(t, err)

	esperados := []model.EstadoPedido{
		model.EstadoConfirmado, model.EstadoCocinando, model.EstadoListo,
		model.EstadoEnCamino, model.EstadoEntregado,
	}
	for _, e := range esperados {
		resp, err := f.svc.Avanzar(context.Background(), p.ID, nil)
		require.NoError(t, err)
		assert.Equal(t, e.String(), resp.Estado)
	}

	_, err = f.svc.Avanzar(context.Background(), p.ID, nil)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindConflict))
	assert.True(t, errors.Is(err, ErrTransicionInvalida))
	_, err = f.svc.Cancelar(context.Background(), p.ID, nil)
	assert.True(t, errors.Is(err, ErrTransicionInvalida))
}

func TestTransition_OneHistoryRowAndOneEvent(t *testing.T) {
	f := newPedidoFixture()
	p, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))
	usuario := uint(7)

	before := len(f.pedidos.historialDe(p.ID))
	_, err := f.svc.Avanzar(context.Background(), p.ID, &usuario)
	require.NoError(t, err)

	hist := f.pedidos.historialDe(p.ID)
	require.Len(t, hist, before+1)
	last := hist[len(hist)-1]
	assert.Equal(t, model.EstadoConfirmado, last.Estado)
	require.NotNil(t, last.UsuarioID)
	assert.Equal(t, usuario, *last.UsuarioID)
	assert.False(t, last.Fecha.Before(hist[0].Fecha))

	require.Len(t, f.notifier.cambios, 1)
	ev := f.notifier.cambios[0]
	assert.Equal(t, p.ID, ev.PedidoID)
	assert.Equal(t, p.TrackingID, ev.TrackingID.String())
	assert.Equal(t, model.EstadoConfirmado, ev.Estado)
	assert.Len(t, ev.Mensajes(), 3)

	assert.Equal(t, []string{p.TrackingID}, f.cache.invalidados)
}

func TestCancelar_FromEveryNonTerminalState(t *testing.T) {
	for pasos := 0; pasos < 5; pasos++ {
		f := newPedidoFixture()
		p, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))
		for i := 0; i < pasos; i++ {
			_, err := f.svc.Avanzar(context.Background(), p.ID, nil)
			require.NoError(t, err)
		}
		resp, err := f.svc.Cancelar(context.Background(), p.ID, nil)
		require.NoError(t, err, "after %d advances", pasos)
		assert.Equal(t, model.EstadoCancelado.String(), resp.Estado)

		_, err = f.svc.Cancelar(context.Background(), p.ID, nil)
		assert.True(t, apierror.Is(err, apierror.KindConflict))
		_, err = f.svc.Avanzar(context.Background(), p.ID, nil)
		assert.True(t, apierror.Is(err, apierror.KindConflict))
	}
}

func TestCambiarEstado_ForwardJumpAllowedBackwardsRejected(t *testing.T) {
	f := newPedidoFixture()
	p, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))

	resp, err := f.svc.CambiarEstado(context.Background(), p.ID, "Ready", nil)
	require.NoError(t, err)
	assert.Equal(t, "Ready", resp.Estado)

	_, err = f.svc.CambiarEstado(context.Background(), p.ID, "Cooking", nil)
	assert.True(t, errors.Is(err, ErrTransicionInvalida))

	_, err = f.svc.CambiarEstado(context.Background(), p.ID, "Ready", nil)
	assert.True(t, errors.Is(err, ErrTransicionInvalida), "self transition")

	_, err = f.svc.CambiarEstado(context.Background(), p.ID, "Volando", nil)
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestTransition_LostRaceIsConflictWithoutSideEffects(t *testing.T) {
	f := newPedidoFixture()
	p, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))
	f.pedidos.carrera = true

	_, err := f.svc.Avanzar(context.Background(), p.ID, nil)
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindConflict))
	assert.Len(t, f.pedidos.historialDe(p.ID), 1)
	assert.Empty(t, f.notifier.cambios)
}

func TestTransition_UnknownOrder(t *testing.T) {
	f := newPedidoFixture()
	_, err := f.svc.Avanzar(context.Background(), 404, nil)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestHistorial_OrderedByDate(t *testing.T) {
	f := newPedidoFixture()
	tick := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	f.svc.(*pedidoService).now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	p, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))
	_, _ = f.svc.Avanzar(context.Background(), p.ID, nil)
	_, _ = f.svc.Cancelar(context.Background(), p.ID, nil)

	hist, err := f.svc.Historial(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []string{"Pending", "Confirmed", "Cancelled"}, []string{hist[0].Estado, hist[1].Estado, hist[2].Estado})
	assert.True(t, hist[0].Fecha.Before(hist[1].Fecha))
	assert.True(t, hist[1].Fecha.Before(hist[2].Fecha))
}

// ── Driver location ───────────────────────────────────────────────────────────

func TestEnviarUbicacion(t *testing.T) {
	f := newPedidoFixture()
	p, _ := f.svc.Crear(context.Background(), pedidoReq(1, 0))

	require.NoError(t, f.svc.EnviarUbicacion(context.Background(), p.TrackingID, -34.6, -58.4))
	require.Len(t, f.notifier.ubicacion, 1)
	assert.Equal(t, p.TrackingID, f.notifier.ubicacion[0].String())

	_, _ = f.svc.Cancelar(context.Background(), p.ID, nil)
	err := f.svc.EnviarUbicacion(context.Background(), p.TrackingID, -34.6, -58.4)
	assert.True(t, apierror.Is(err, apierror.KindConflict))
}
