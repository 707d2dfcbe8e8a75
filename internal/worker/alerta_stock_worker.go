package worker

// alerta_stock_worker.go
// Processes low-stock jobs from QueueAlertaStock. The order and stock flows
// enqueue the ingredients they pushed to or below threshold; the worker
// re-reads the balances and publishes a stock-low event to the kitchen.

import (
	"context"
	"encoding/json"

	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"

	"github.com/rs/zerolog/log"
)

// AlertaStockPayload is the job envelope sent to QueueAlertaStock.
// An empty IngredienteIDs means every low balance of the branch.
type AlertaStockPayload struct {
	SucursalID     uint   `json:"sucursal_id"`
	IngredienteIDs []uint `json:"ingrediente_ids,omitempty"`
}

// StockBajoSource lists balances at or below threshold. sucursalID 0 means
// every branch. repository.StockRepository satisfies it.
type StockBajoSource interface {
	ListBajoMinimo(ctx context.Context, sucursalID uint) ([]model.StockSucursal, error)
}

type AlertaStockWorker struct {
	stock    StockBajoSource
	notifier realtime.Notificador
}

func NewAlertaStockWorker(stock StockBajoSource, notifier realtime.Notificador) *AlertaStockWorker {
	return &AlertaStockWorker{stock: stock, notifier: notifier}
}

// Process re-checks the balances named in the payload. Balances refilled
// since the job was enqueued are not announced.
func (w *AlertaStockWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload AlertaStockPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alerta_stock_worker: invalid payload")
		return nil // retrying a malformed payload cannot succeed
	}

	bajos, err := w.stock.ListBajoMinimo(ctx, payload.SucursalID)
	if err != nil {
		return err
	}

	var filtro map[uint]bool
	if len(payload.IngredienteIDs) > 0 {
		filtro = make(map[uint]bool, len(payload.IngredienteIDs))
		for _, id := range payload.IngredienteIDs {
			filtro[id] = true
		}
	}

	n := 0
	for _, b := range bajos {
		if filtro != nil && !filtro[b.IngredienteID] {
			continue
		}
		w.notifier.StockBajo(ctx, stockBajoEvento(b))
		n++
	}
	if n > 0 {
		log.Info().Uint("sucursal_id", payload.SucursalID).Int("ingredientes", n).Msg("alerta_stock_worker: low stock announced")
	}
	return nil
}

func stockBajoEvento(b model.StockSucursal) realtime.StockBajo {
	ev := realtime.StockBajo{
		SucursalID:    b.SucursalID,
		IngredienteID: b.IngredienteID,
		Cantidad:      b.Cantidad,
		StockMinimo:   b.StockMinimo,
	}
	if b.Ingrediente != nil {
		ev.Ingrediente = b.Ingrediente.Nombre
	}
	return ev
}
