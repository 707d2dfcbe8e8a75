package service

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockService defines the contract for the per-branch ingredient ledger.
type StockService interface {
	GetBalance(ctx context.Context, sucursalID, ingredienteID uint) (*model.StockSucursal, error)
	// Ajustar adds delta (which may be negative) to a balance, creating a zero
	// balance first when the pair has none.
	Ajustar(ctx context.Context, sucursalID, ingredienteID uint, delta decimal.Decimal) (*model.StockSucursal, error)
	SetUmbral(ctx context.Context, sucursalID, ingredienteID uint, umbral decimal.Decimal) error
	// DescontarPedidoTx is called within an order transaction. Ingredients the
	// branch does not track are skipped. It returns the ingredients left at or
	// below threshold.
	DescontarPedidoTx(ctx context.Context, tx *gorm.DB, sucursalID uint, consumos []ConsumoReceta, pedidoID *uint) ([]uint, error)
	// NotificarStockBajo enqueues the low-stock alert job; it never fails.
	NotificarStockBajo(ctx context.Context, sucursalID uint, ingredienteIDs []uint)
	RegistrarMovimiento(ctx context.Context, usuarioID *uint, req dto.MovimientoStockRequest) (*dto.StockResponse, error)
	ListarPorSucursal(ctx context.Context, sucursalID uint) ([]dto.StockResponse, error)
	ListarAlertas(ctx context.Context, sucursalID uint) ([]dto.StockResponse, error)
	ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
}

type stockService struct {
	repo         repository.StockRepository
	movimientos  repository.MovimientoStockRepository
	sucursales   repository.SucursalRepository
	ingredientes repository.IngredienteRepository
	dispatcher   JobDispatcher
}

func NewStockService(
	repo repository.StockRepository,
	movimientos repository.MovimientoStockRepository,
	sucursales repository.SucursalRepository,
	ingredientes repository.IngredienteRepository,
	dispatcher JobDispatcher,
) StockService {
	return &stockService{
		repo:         repo,
		movimientos:  movimientos,
		sucursales:   sucursales,
		ingredientes: ingredientes,
		dispatcher:   dispatcher,
	}
}

var errStockInsuficiente = apierror.Validation("Stock insuficiente")

func (s *stockService) GetBalance(ctx context.Context, sucursalID, ingredienteID uint) (*model.StockSucursal, error) {
	bal, err := s.repo.FindBalance(ctx, nil, sucursalID, ingredienteID)
	if err != nil {
		return nil, lookupErr(err, apierror.NotFound("Stock no encontrado"), "No se pudo leer el stock")
	}
	return bal, nil
}

func (s *stockService) Ajustar(ctx context.Context, sucursalID, ingredienteID uint, delta decimal.Decimal) (*model.StockSucursal, error) {
	var out *model.StockSucursal
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		bal, err := s.aplicarDelta(ctx, tx, model.MovimientoStock{
			SucursalID:    sucursalID,
			IngredienteID: ingredienteID,
			Tipo:          model.MovimientoStockAjuste,
			Cantidad:      delta,
		}, true)
		out = bal
		return err
	})
	if err != nil {
		return nil, apierror.Infra("No se pudo ajustar el stock", err)
	}
	return out, nil
}

func (s *stockService) SetUmbral(ctx context.Context, sucursalID, ingredienteID uint, umbral decimal.Decimal) error {
	if umbral.IsNegative() {
		return apierror.Validation("El stock mínimo no puede ser negativo")
	}
	if err := s.repo.UpsertUmbral(ctx, nil, sucursalID, ingredienteID, umbral); err != nil {
		return apierror.Infra("No se pudo actualizar el stock mínimo", err)
	}
	return nil
}

// ── Order deduction ───────────────────────────────────────────────────────────

// ConsumoReceta is one order line as seen by the ledger: a recipe times the
// units ordered.
type ConsumoReceta struct {
	Receta   []model.ProductoIngrediente
	Unidades int
}

// DescontarPedidoTx sums the consumption of every line per ingredient and
// locks the balances in ascending ingredient id, so concurrent orders always
// wait on rows in the same order. It writes one audit row per ingredient.
func (s *stockService) DescontarPedidoTx(ctx context.Context, tx *gorm.DB, sucursalID uint, consumos []ConsumoReceta, pedidoID *uint) ([]uint, error) {
	total := make(map[uint]decimal.Decimal)
	for _, c := range consumos {
		n := decimal.NewFromInt(int64(c.Unidades))
		for _, linea := range c.Receta {
			total[linea.IngredienteID] = total[linea.IngredienteID].Add(linea.Cantidad.Mul(n))
		}
	}
	ids := slices.Sorted(maps.Keys(total))

	var bajos []uint
	for _, id := range ids {
		bal, err := s.aplicarDelta(ctx, tx, model.MovimientoStock{
			SucursalID:    sucursalID,
			IngredienteID: id,
			Tipo:          model.MovimientoStockPedido,
			Cantidad:      total[id].Neg(),
			PedidoID:      pedidoID,
		}, false)
		if err != nil {
			return nil, err
		}
		if bal != nil && bal.BajoMinimo() {
			bajos = append(bajos, id)
		}
	}
	return bajos, nil
}

// aplicarDelta locks the balance row, creating it when crear is set, applies
// mov.Cantidad and writes the audit row. It returns nil, nil when the pair has
// no balance and crear is false.
func (s *stockService) aplicarDelta(ctx context.Context, tx *gorm.DB, mov model.MovimientoStock, crear bool) (*model.StockSucursal, error) {
	bal, err := s.repo.FindBalance(ctx, tx, mov.SucursalID, mov.IngredienteID)
	if repository.IsNotFound(err) {
		if !crear {
			return nil, nil
		}
		if err := s.repo.CrearBalance(ctx, tx, mov.SucursalID, mov.IngredienteID); err != nil {
			return nil, err
		}
		bal, err = s.repo.FindBalance(ctx, tx, mov.SucursalID, mov.IngredienteID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.AplicarDelta(ctx, tx, bal.ID, mov.Cantidad); err != nil {
		return nil, err
	}
	mov.StockAnterior = bal.Cantidad
	bal.Cantidad = bal.Cantidad.Add(mov.Cantidad)
	mov.StockNuevo = bal.Cantidad
	if err := s.movimientos.Create(ctx, tx, &mov); err != nil {
		return nil, err
	}
	return bal, nil
}

func (s *stockService) NotificarStockBajo(ctx context.Context, sucursalID uint, ingredienteIDs []uint) {
	if len(ingredienteIDs) == 0 || s.dispatcher == nil {
		return
	}
	payload := worker.AlertaStockPayload{SucursalID: sucursalID, IngredienteIDs: ingredienteIDs}
	if err := s.dispatcher.EnqueueAlertaStock(context.WithoutCancel(ctx), payload); err != nil {
		log.Warn().Err(err).Uint("sucursal_id", sucursalID).Msg("stock: no se pudo encolar la alerta de stock bajo")
	}
}

// ── Manual movements ──────────────────────────────────────────────────────────

// RegistrarMovimiento applies an operator IN/OUT movement and/or a new alert
// threshold. An OUT larger than the current balance is rejected.
func (s *stockService) RegistrarMovimiento(ctx context.Context, usuarioID *uint, req dto.MovimientoStockRequest) (*dto.StockResponse, error) {
	if req.Cantidad.IsNegative() {
		return nil, apierror.Validation("La cantidad no puede ser negativa")
	}
	if req.Cantidad.IsZero() && req.StockMinimo == nil {
		return nil, apierror.Validation("Debe indicar una cantidad o un stock mínimo")
	}
	if req.Cantidad.IsPositive() && req.Tipo != model.MovimientoIngreso && req.Tipo != model.MovimientoEgreso {
		return nil, apierror.Validation("El tipo debe ser IN u OUT")
	}
	if req.StockMinimo != nil && req.StockMinimo.IsNegative() {
		return nil, apierror.Validation("El stock mínimo no puede ser negativo")
	}
	if err := s.existe(ctx, req.SucursalID, req.IngredienteID); err != nil {
		return nil, err
	}

	motivo := req.Motivo
	if motivo == "" {
		motivo = "Movimiento manual"
	}

	var bal *model.StockSucursal
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if req.Cantidad.IsPositive() {
			delta := req.Cantidad
			if req.Tipo == model.MovimientoEgreso {
				actual, err := s.repo.FindBalance(ctx, tx, req.SucursalID, req.IngredienteID)
				if repository.IsNotFound(err) {
					return errStockInsuficiente
				}
				if err != nil {
					return err
				}
				if actual.Cantidad.LessThan(req.Cantidad) {
					return errStockInsuficiente
				}
				delta = delta.Neg()
			}
			b, err := s.aplicarDelta(ctx, tx, model.MovimientoStock{
				SucursalID:    req.SucursalID,
				IngredienteID: req.IngredienteID,
				Tipo:          model.MovimientoStockAjuste,
				Cantidad:      delta,
				Motivo:        motivo,
				UsuarioID:     usuarioActor(usuarioID),
			}, true)
			if err != nil {
				return err
			}
			bal = b
		}

		if req.StockMinimo != nil {
			if err := s.repo.UpsertUmbral(ctx, tx, req.SucursalID, req.IngredienteID, *req.StockMinimo); err != nil {
				return err
			}
			b, err := s.repo.FindBalance(ctx, tx, req.SucursalID, req.IngredienteID)
			if err != nil {
				return err
			}
			if err := s.movimientos.Create(ctx, tx, &model.MovimientoStock{
				SucursalID:    req.SucursalID,
				IngredienteID: req.IngredienteID,
				Tipo:          model.MovimientoStockUmbral,
				Cantidad:      decimal.Zero,
				StockAnterior: b.Cantidad,
				StockNuevo:    b.Cantidad,
				Motivo:        "stock_minimo=" + req.StockMinimo.String(),
				UsuarioID:     usuarioActor(usuarioID),
			}); err != nil {
				return err
			}
			bal = b
		}
		return nil
	})
	if err != nil {
		var domainErr *apierror.Error
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, apierror.Infra("No se pudo registrar el movimiento de stock", err)
	}

	log.Info().
		Uint("sucursal_id", req.SucursalID).
		Uint("ingrediente_id", req.IngredienteID).
		Str("tipo", req.Tipo).
		Str("cantidad", req.Cantidad.String()).
		Msg("stock: movimiento manual registrado")

	if bal.BajoMinimo() {
		s.NotificarStockBajo(ctx, req.SucursalID, []uint{req.IngredienteID})
	}

	resp := stockToResponse(bal)
	if resp.Ingrediente == "" {
		if ing, err := s.ingredientes.FindByID(ctx, req.IngredienteID); err == nil {
			resp.Ingrediente, resp.Unidad = ing.Nombre, ing.Unidad
		}
	}
	return &resp, nil
}

func (s *stockService) existe(ctx context.Context, sucursalID, ingredienteID uint) error {
	if _, err := s.sucursales.FindByID(ctx, sucursalID); err != nil {
		return lookupErr(err, apierror.Validation("Sucursal no encontrada"), "No se pudo validar la sucursal")
	}
	if _, err := s.ingredientes.FindByID(ctx, ingredienteID); err != nil {
		return lookupErr(err, apierror.Validation("Ingrediente no encontrado"), "No se pudo validar el ingrediente")
	}
	return nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *stockService) ListarPorSucursal(ctx context.Context, sucursalID uint) ([]dto.StockResponse, error) {
	if _, err := s.sucursales.FindByID(ctx, sucursalID); err != nil {
		return nil, lookupErr(err, apierror.NotFound("Sucursal no encontrada"), "No se pudo leer la sucursal")
	}
	rows, err := s.repo.ListBySucursal(ctx, sucursalID)
	if err != nil {
		return nil, apierror.Infra("No se pudo listar el stock", err)
	}
	return stockListToResponse(rows), nil
}

func (s *stockService) ListarAlertas(ctx context.Context, sucursalID uint) ([]dto.StockResponse, error) {
	if _, err := s.sucursales.FindByID(ctx, sucursalID); err != nil {
		return nil, lookupErr(err, apierror.NotFound("Sucursal no encontrada"), "No se pudo leer la sucursal")
	}
	rows, err := s.repo.ListBajoMinimo(ctx, sucursalID)
	if err != nil {
		return nil, apierror.Infra("No se pudieron listar las alertas de stock", err)
	}
	return stockListToResponse(rows), nil
}

func (s *stockService) ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	rows, total, err := s.movimientos.List(ctx, filter)
	if err != nil {
		return nil, apierror.Infra("No se pudieron listar los movimientos de stock", err)
	}
	out := &dto.MovimientoStockListResponse{
		Data:  make([]dto.MovimientoStockResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for _, m := range rows {
		out.Data = append(out.Data, dto.MovimientoStockResponse{
			ID:            m.ID,
			SucursalID:    m.SucursalID,
			IngredienteID: m.IngredienteID,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			PedidoID:      m.PedidoID,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

func stockToResponse(b *model.StockSucursal) dto.StockResponse {
	r := dto.StockResponse{
		SucursalID:    b.SucursalID,
		IngredienteID: b.IngredienteID,
		Cantidad:      b.Cantidad,
		StockMinimo:   b.StockMinimo,
		BajoMinimo:    b.BajoMinimo(),
	}
	if b.Ingrediente != nil {
		r.Ingrediente = b.Ingrediente.Nombre
		r.Unidad = b.Ingrediente.Unidad
	}
	return r
}

func stockListToResponse(rows []model.StockSucursal) []dto.StockResponse {
	out := make([]dto.StockResponse, 0, len(rows))
	for i := range rows {
		out = append(out, stockToResponse(&rows[i]))
	}
	return out
}
