package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeStockBajo struct {
	rows  []model.StockSucursal
	err   error
	calls []uint
}

func (f *fakeStockBajo) ListBajoMinimo(_ context.Context, sucursalID uint) ([]model.StockSucursal, error) {
	f.calls = append(f.calls, sucursalID)
	if f.err != nil {
		return nil, f.err
	}
	var out []model.StockSucursal
	for _, r := range f.rows {
		if sucursalID == 0 || r.SucursalID == sucursalID {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	stock []realtime.StockBajo
}

func (n *recordingNotifier) NuevoPedido(context.Context, uint) {}

func (n *recordingNotifier) EstadoCambiado(context.Context, realtime.EstadoPedidoCambiado) {}

func (n *recordingNotifier) UbicacionRepartidor(context.Context, uuid.UUID, float64, float64) {}

func (n *recordingNotifier) StockBajo(_ context.Context, s realtime.StockBajo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stock = append(n.stock, s)
}

var _ realtime.Notificador = (*recordingNotifier)(nil)

type fakeReporteSource struct {
	rep *dto.ReporteCajaResponse
	err error
}

func (f *fakeReporteSource) Detalle(context.Context, uint) (*dto.ReporteCajaResponse, error) {
	return f.rep, f.err
}

type fakeMailer struct {
	to, subject, pdfPath string
	err                  error
}

func (m *fakeMailer) SendReporte(to, subject, _ string, pdfPath string) error {
	m.to, m.subject, m.pdfPath = to, subject, pdfPath
	return m.err
}

func balance(suc, ing uint, nombre string, cantidad, minimo string) model.StockSucursal {
	return model.StockSucursal{
		SucursalID:    suc,
		IngredienteID: ing,
		Cantidad:      decimal.RequireFromString(cantidad),
		StockMinimo:   decimal.RequireFromString(minimo),
		Ingrediente:   &model.Ingrediente{Nombre: nombre},
	}
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

// ── processJob / withRetry ────────────────────────────────────────────────────

func TestProcessJob_RetriesThenSucceeds(t *testing.T) {
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = time.Second })

	calls := 0
	handlers := Handlers{QueueAlertaStock: func(context.Context, json.RawMessage) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}}
	job := string(raw(t, Job{Type: "alerta_stock", Payload: raw(t, AlertaStockPayload{SucursalID: 1})}))

	require.NoError(t, processJob(context.Background(), nil, handlers, QueueAlertaStock, job))
	assert.Equal(t, 3, calls)
}

func TestProcessJob_GivesUpAfterMaxAttempts(t *testing.T) {
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = time.Second })

	calls := 0
	handlers := Handlers{QueueReporteCaja: func(context.Context, json.RawMessage) error {
		calls++
		return errors.New("smtp down")
	}}
	job := string(raw(t, Job{Type: "reporte_caja", Payload: json.RawMessage(`{}`)}))

	err := processJob(context.Background(), nil, handlers, QueueReporteCaja, job)
	require.Error(t, err)
	assert.Equal(t, maxJobAttempts, calls)
}

// brpopCounter counts BRPOP commands sent through the client.
type brpopCounter struct{ n atomic.Int32 }

func (h *brpopCounter) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *brpopCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "brpop" {
			h.n.Add(1)
		}
		return next(ctx, cmd)
	}
}

func (h *brpopCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRunWorker_PausesWhileRedisIsDown(t *testing.T) {
	popErrorPause = time.Hour
	t.Cleanup(func() { popErrorPause = 2 * time.Second })

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	counter := &brpopCounter{}
	rdb.AddHook(counter)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		runWorker(ctx, rdb, 0, []string{QueueAlertaStock}, Handlers{})
		close(done)
	}()

	require.Eventually(t, func() bool { return counter.n.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
	assert.Equal(t, int32(1), counter.n.Load())
}

func TestProcessJob_UnknownQueueAndBadEnvelope(t *testing.T) {
	assert.Error(t, processJob(context.Background(), nil, Handlers{}, "jobs:otra", `{"type":"x","payload":{}}`))
	assert.Error(t, processJob(context.Background(), nil, Handlers{}, QueueAlertaStock, `not json`))
}

// ── AlertaStockWorker ─────────────────────────────────────────────────────────

func TestAlertaStockWorker_FiltersByIngredient(t *testing.T) {
	src := &fakeStockBajo{rows: []model.StockSucursal{
		balance(1, 10, "Carne", "2", "5"),
		balance(1, 11, "Pan", "0", "10"),
		balance(2, 10, "Carne", "1", "3"),
	}}
	n := &recordingNotifier{}
	w := NewAlertaStockWorker(src, n)

	err := w.Process(context.Background(), raw(t, AlertaStockPayload{SucursalID: 1, IngredienteIDs: []uint{11}}))
	require.NoError(t, err)

	require.Len(t, n.stock, 1)
	assert.Equal(t, uint(11), n.stock[0].IngredienteID)
	assert.Equal(t, "Pan", n.stock[0].Ingrediente)
	assert.Equal(t, "10", n.stock[0].StockMinimo.String())
	assert.Equal(t, []uint{1}, src.calls)
}

func TestAlertaStockWorker_EmptyFilterAnnouncesWholeBranch(t *testing.T) {
	src := &fakeStockBajo{rows: []model.StockSucursal{
		balance(1, 10, "Carne", "2", "5"),
		balance(1, 11, "Pan", "0", "10"),
		balance(2, 10, "Carne", "1", "3"),
	}}
	n := &recordingNotifier{}

	require.NoError(t, NewAlertaStockWorker(src, n).Process(context.Background(), raw(t, AlertaStockPayload{SucursalID: 1})))
	assert.Len(t, n.stock, 2)
}

func TestAlertaStockWorker_RepositoryErrorIsRetried(t *testing.T) {
	src := &fakeStockBajo{err: errors.New("db down")}
	err := NewAlertaStockWorker(src, &recordingNotifier{}).Process(context.Background(), raw(t, AlertaStockPayload{SucursalID: 1}))
	assert.Error(t, err)
}

// ── Stock sweep ───────────────────────────────────────────────────────────────

func TestSweepStockBajo_AnnouncesEveryBranch(t *testing.T) {
	src := &fakeStockBajo{rows: []model.StockSucursal{
		balance(1, 10, "Carne", "2", "5"),
		balance(2, 10, "Carne", "1", "3"),
	}}
	n := &recordingNotifier{}

	got := sweepStockBajo(context.Background(), StockSweepConfig{Stock: src, Notifier: n})
	assert.Equal(t, 2, got)
	assert.Equal(t, []uint{0}, src.calls)
}

func TestSweepStockBajo_SkipsWhileBreakerOpen(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{Name: "test", FailureThreshold: 1, SuccessThreshold: 1, OpenTimeout: time.Hour})
	_ = cb.Execute(func() error { return errors.New("boom") })
	require.Equal(t, infra.CBOpen, cb.State())

	src := &fakeStockBajo{rows: []model.StockSucursal{balance(1, 10, "Carne", "2", "5")}}
	got := sweepStockBajo(context.Background(), StockSweepConfig{Stock: src, Notifier: &recordingNotifier{}, CB: cb})
	assert.Zero(t, got)
	assert.Empty(t, src.calls)
}

// ── ReporteCajaWorker ─────────────────────────────────────────────────────────

func TestReporteCajaWorker_RendersAndMails(t *testing.T) {
	cierre := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	src := &fakeReporteSource{rep: &dto.ReporteCajaResponse{
		Sesion: &dto.SesionCajaResponse{
			ID:             7,
			Apertura:       cierre.Add(-10 * time.Hour),
			Cierre:         &cierre,
			FechaOperativa: "2026-03-01",
			MontoInicial:   decimal.NewFromInt(100),
			Cerrada:        true,
		},
	}}
	mailer := &fakeMailer{}
	w := NewReporteCajaWorker(src, mailer, t.TempDir(), "Shingeki")

	require.NoError(t, w.Process(context.Background(), raw(t, ReporteCajaPayload{SesionID: 7, ToEmail: "dueno@example.com"})))

	assert.Equal(t, "dueno@example.com", mailer.to)
	assert.Contains(t, mailer.subject, "#7")
	_, err := os.Stat(mailer.pdfPath)
	assert.NoError(t, err)
}

func TestReporteCajaWorker_SkipsEmptyRecipient(t *testing.T) {
	mailer := &fakeMailer{}
	w := NewReporteCajaWorker(&fakeReporteSource{}, mailer, t.TempDir(), "Shingeki")

	require.NoError(t, w.Process(context.Background(), raw(t, ReporteCajaPayload{SesionID: 7})))
	assert.Empty(t, mailer.to)
}

func TestReporteCajaWorker_MailerErrorIsReturned(t *testing.T) {
	src := &fakeReporteSource{rep: &dto.ReporteCajaResponse{Sesion: &dto.SesionCajaResponse{ID: 3}}}
	w := NewReporteCajaWorker(src, &fakeMailer{err: errors.New("smtp down")}, t.TempDir(), "Shingeki")

	assert.Error(t, w.Process(context.Background(), raw(t, ReporteCajaPayload{SesionID: 3, ToEmail: "a@b.c"})))
}
