package service

import (
	"context"
	"errors"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const historialCajaLimite = 30

type CajaService interface {
	Abrir(ctx context.Context, usuarioID *uint, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	// Estado reports the open session, or Abierta=false when there is none.
	Estado(ctx context.Context) (*dto.ReporteCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error)
	Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error)
	Historial(ctx context.Context) ([]dto.SesionCajaResponse, error)
	Detalle(ctx context.Context, id uint) (*dto.ReporteCajaResponse, error)
	// ReportePDF renders the session report and returns the file path.
	ReportePDF(ctx context.Context, id uint) (string, error)
}

// CajaOptions carries the report settings of the cash ledger.
type CajaOptions struct {
	ReportEmail    string
	PDFStoragePath string
	NombreLocal    string
}

type cajaService struct {
	repo       repository.CajaRepository
	pedidos    repository.PedidoRepository
	dispatcher JobDispatcher
	opts       CajaOptions
	now        func() time.Time
}

func NewCajaService(repo repository.CajaRepository, pedidos repository.PedidoRepository, dispatcher JobDispatcher, opts CajaOptions) CajaService {
	return &cajaService{repo: repo, pedidos: pedidos, dispatcher: dispatcher, opts: opts, now: time.Now}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID *uint, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, apierror.Validation("El monto inicial no puede ser negativo")
	}
	now := s.now()
	fecha := inicioDelDia(now)
	if req.FechaOperativa != nil {
		f, err := time.ParseInLocation("2006-01-02", *req.FechaOperativa, now.Location())
		if err != nil {
			return nil, apierror.Validation("Fecha operativa inválida: %s", *req.FechaOperativa)
		}
		fecha = f
	}

	if _, err := s.repo.FindSesionAbierta(ctx, nil); err == nil {
		return nil, apierror.Conflict("Ya existe una caja abierta")
	} else if !repository.IsNotFound(err) {
		return nil, apierror.Infra("No se pudo verificar la caja", err)
	}

	sesion := &model.SesionCaja{
		Apertura:       now,
		FechaOperativa: fecha,
		MontoInicial:   req.MontoInicial,
		UsuarioID:      usuarioActor(usuarioID),
	}
	// The partial unique index settles two concurrent opens.
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		if errors.Is(err, repository.ErrSesionAbiertaExistente) {
			return nil, apierror.Conflict("Ya existe una caja abierta")
		}
		return nil, apierror.Infra("No se pudo abrir la caja", err)
	}

	log.Info().Uint("sesion_id", sesion.ID).Str("monto_inicial", sesion.MontoInicial.String()).Msg("caja: sesion abierta")
	resp := sesionToResponse(sesion)
	return &resp, nil
}

// ── Estado / Detalle ──────────────────────────────────────────────────────────

func (s *cajaService) Estado(ctx context.Context) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx, nil)
	if repository.IsNotFound(err) {
		return &dto.ReporteCajaResponse{
			Abierta:     false,
			Movimientos: []dto.MovimientoCajaResponse{},
			Pedidos:     []dto.PedidoCajaResponse{},
		}, nil
	}
	if err != nil {
		return nil, apierror.Infra("No se pudo leer la caja", err)
	}
	return s.reporte(ctx, sesion)
}

func (s *cajaService) Detalle(ctx context.Context, id uint) (*dto.ReporteCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, apierror.NotFound("Sesión de caja no encontrada"), "No se pudo leer la sesión de caja")
	}
	return s.reporte(ctx, sesion)
}

// reporte builds the operator view of a session. Orders are bounded by the
// close time when the session is closed.
func (s *cajaService) reporte(ctx context.Context, sesion *model.SesionCaja) (*dto.ReporteCajaResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, nil, sesion.ID)
	if err != nil {
		return nil, apierror.Infra("No se pudieron leer los movimientos de caja", err)
	}
	pedidos, err := s.pedidos.ListEnVentana(ctx, sesion.Apertura, sesion.Cierre)
	if err != nil {
		return nil, apierror.Infra("No se pudieron leer los pedidos de la sesión", err)
	}

	ingresos, egresos := sumarMovimientos(movs)
	resp := &dto.ReporteCajaResponse{
		Abierta:     !sesion.Cerrada,
		Movimientos: make([]dto.MovimientoCajaResponse, 0, len(movs)),
		Pedidos:     make([]dto.PedidoCajaResponse, 0, len(pedidos)),
		Ingresos:    ingresos,
		Egresos:     egresos,
		VentasPorMetodo: dto.MontosPorMetodo{
			Efectivo:      decimal.Zero,
			MercadoPago:   decimal.Zero,
			Transferencia: decimal.Zero,
			Total:         decimal.Zero,
		},
	}
	sr := sesionToResponse(sesion)
	resp.Sesion = &sr
	for _, m := range movs {
		resp.Movimientos = append(resp.Movimientos, movimientoToResponse(m))
	}

	v := &resp.VentasPorMetodo
	for _, p := range pedidos {
		if !pedidoCuentaEnVistaSesion(p) {
			continue
		}
		switch p.MetodoPago {
		case model.MetodoEfectivo:
			v.Efectivo = v.Efectivo.Add(p.Total)
		case model.MetodoMercadoPago:
			v.MercadoPago = v.MercadoPago.Add(p.Total)
		case model.MetodoTransferencia:
			v.Transferencia = v.Transferencia.Add(p.Total)
		}
		v.Total = v.Total.Add(p.Total)
		resp.Pedidos = append(resp.Pedidos, dto.PedidoCajaResponse{
			ID:         p.ID,
			TrackingID: p.TrackingID.String(),
			Fecha:      p.Fecha,
			Estado:     p.Estado.String(),
			MetodoPago: string(p.MetodoPago),
			Total:      p.Total,
		})
	}
	resp.EfectivoEstimado = sesion.MontoInicial.Add(v.Efectivo).Add(ingresos).Sub(egresos)
	return resp, nil
}

// ── Movimientos ───────────────────────────────────────────────────────────────

func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoCajaRequest) (*dto.MovimientoCajaResponse, error) {
	if req.Tipo != model.MovimientoIngreso && req.Tipo != model.MovimientoEgreso {
		return nil, apierror.Validation("El tipo debe ser IN u OUT")
	}
	if !req.Monto.IsPositive() {
		return nil, apierror.Validation("El monto debe ser mayor a cero")
	}
	if req.Descripcion == "" {
		return nil, apierror.Validation("La descripción es obligatoria")
	}
	mov := &model.MovimientoCaja{
		Tipo:        req.Tipo,
		Monto:       req.Monto,
		Descripcion: req.Descripcion,
	}
	// The session row lock makes the insert wait for an in-flight close.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sesion, err := s.repo.FindSesionAbierta(ctx, tx)
		if err != nil {
			return lookupErr(err, apierror.Conflict("No hay una caja abierta"), "No se pudo leer la caja")
		}
		mov.SesionCajaID = sesion.ID
		return s.repo.CreateMovimiento(ctx, tx, mov)
	})
	if err != nil {
		return nil, errCaja(err, "No se pudo registrar el movimiento de caja")
	}
	resp := movimientoToResponse(*mov)
	return &resp, nil
}

// errCaja passes domain errors raised inside a tx through and wraps the rest.
func errCaja(err error, op string) error {
	var domainErr *apierror.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return apierror.Infra(op, err)
}

// ── Cerrar ────────────────────────────────────────────────────────────────────
// expected = initial + cash sales + IN − OUT; difference = counted − expected.
// The close is a conditional update, so a second concurrent close fails.
// It runs under the session row lock taken by FindSesionAbierta.

func (s *cajaService) Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	if req.MontoFinal.IsNegative() {
		return nil, apierror.Validation("El monto final no puede ser negativo")
	}
	var (
		sesion                      *model.SesionCaja
		ventas, ingresos, egresos   decimal.Decimal
		esperado, final, diferencia decimal.Decimal
	)
	// Lock, sum and close in one tx: movements registered meanwhile wait on
	// the session row and then find it closed.
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.repo.FindSesionAbierta(ctx, tx)
		if err != nil {
			return lookupErr(err, apierror.Conflict("No hay una caja abierta"), "No se pudo leer la caja")
		}
		movs, err := s.repo.ListMovimientos(ctx, tx, sesion.ID)
		if err != nil {
			return apierror.Infra("No se pudieron leer los movimientos de caja", err)
		}
		pedidos, err := s.pedidos.ListEnVentana(ctx, sesion.Apertura, nil)
		if err != nil {
			return apierror.Infra("No se pudieron leer los pedidos de la sesión", err)
		}

		ingresos, egresos = sumarMovimientos(movs)
		ventas = ventasEfectivoCierre(pedidos, sesion.Apertura)
		esperado = sesion.MontoInicial.Add(ventas).Add(ingresos).Sub(egresos)
		final = req.MontoFinal
		diferencia = final.Sub(esperado)
		cierre := s.now()

		sesion.Cierre = &cierre
		sesion.MontoEsperado = &esperado
		sesion.MontoFinal = &final
		sesion.Diferencia = &diferencia
		sesion.Notas = req.Notas
		sesion.Cerrada = true

		ok, err := s.repo.CerrarSesion(ctx, tx, sesion)
		if err != nil {
			return err
		}
		if !ok {
			return apierror.Conflict("La sesión de caja ya fue cerrada")
		}
		return nil
	})
	if err != nil {
		return nil, errCaja(err, "No se pudo cerrar la caja")
	}

	log.Info().
		Uint("sesion_id", sesion.ID).
		Str("esperado", esperado.String()).
		Str("final", final.String()).
		Str("diferencia", diferencia.String()).
		Msg("caja: sesion cerrada")

	if s.opts.ReportEmail != "" && s.dispatcher != nil {
		payload := worker.ReporteCajaPayload{SesionID: sesion.ID, ToEmail: s.opts.ReportEmail}
		if err := s.dispatcher.EnqueueReporteCaja(context.WithoutCancel(ctx), payload); err != nil {
			log.Warn().Err(err).Uint("sesion_id", sesion.ID).Msg("caja: no se pudo encolar el reporte de cierre")
		}
	}

	return &dto.CierreCajaResponse{
		Sesion:         sesionToResponse(sesion),
		VentasEfectivo: ventas,
		Ingresos:       ingresos,
		Egresos:        egresos,
		MontoEsperado:  esperado,
		MontoFinal:     final,
		Diferencia:     diferencia,
	}, nil
}

func (s *cajaService) Historial(ctx context.Context) ([]dto.SesionCajaResponse, error) {
	sesiones, err := s.repo.ListCerradas(ctx, historialCajaLimite)
	if err != nil {
		return nil, apierror.Infra("No se pudo leer el historial de caja", err)
	}
	out := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		out = append(out, sesionToResponse(&sesiones[i]))
	}
	return out, nil
}

func (s *cajaService) ReportePDF(ctx context.Context, id uint) (string, error) {
	rep, err := s.Detalle(ctx, id)
	if err != nil {
		return "", err
	}
	path, err := infra.GenerarReporteCajaPDF(s.opts.NombreLocal, rep, s.opts.PDFStoragePath)
	if err != nil {
		return "", apierror.Infra("No se pudo generar el reporte", err)
	}
	return path, nil
}

// ── Cash rules ────────────────────────────────────────────────────────────────

// ventasEfectivoCierre is the audited drawer figure used at close: the total
// of Delivered cash orders placed since desde. Digital payments never enter
// the drawer.
func ventasEfectivoCierre(pedidos []model.Pedido, desde time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, p := range pedidos {
		if p.Fecha.Before(desde) {
			continue
		}
		if p.Estado == model.EstadoEntregado && p.MetodoPago == model.MetodoEfectivo {
			total = total.Add(p.Total)
		}
	}
	return total
}

// pedidoCuentaEnVistaSesion decides whether an order shows up in the session
// view. Cash counts once Delivered; digital payments count from Confirmed on;
// Cancelled never counts.
func pedidoCuentaEnVistaSesion(p model.Pedido) bool {
	switch {
	case p.Estado == model.EstadoCancelado:
		return false
	case p.MetodoPago == model.MetodoEfectivo:
		return p.Estado == model.EstadoEntregado
	case p.MetodoPago.EsDigital():
		return p.Estado != model.EstadoPendiente
	}
	return false
}

func sumarMovimientos(movs []model.MovimientoCaja) (ingresos, egresos decimal.Decimal) {
	ingresos, egresos = decimal.Zero, decimal.Zero
	for _, m := range movs {
		switch m.Tipo {
		case model.MovimientoIngreso:
			ingresos = ingresos.Add(m.Monto)
		case model.MovimientoEgreso:
			egresos = egresos.Add(m.Monto)
		}
	}
	return ingresos, egresos
}

func sesionToResponse(s *model.SesionCaja) dto.SesionCajaResponse {
	return dto.SesionCajaResponse{
		ID:             s.ID,
		Apertura:       s.Apertura,
		Cierre:         s.Cierre,
		FechaOperativa: s.FechaOperativa.Format("2006-01-02"),
		MontoInicial:   s.MontoInicial,
		MontoFinal:     s.MontoFinal,
		MontoEsperado:  s.MontoEsperado,
		Diferencia:     s.Diferencia,
		Notas:          s.Notas,
		Cerrada:        s.Cerrada,
	}
}

func movimientoToResponse(m model.MovimientoCaja) dto.MovimientoCajaResponse {
	return dto.MovimientoCajaResponse{
		ID:          m.ID,
		Tipo:        m.Tipo,
		Monto:       m.Monto,
		Descripcion: m.Descripcion,
		CreatedAt:   m.CreatedAt,
	}
}
