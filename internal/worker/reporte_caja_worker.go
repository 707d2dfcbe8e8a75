package worker

// reporte_caja_worker.go
// Processes QueueReporteCaja jobs: renders the PDF report of a closed cash
// session and mails it to the configured address via SMTP.

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"

	"github.com/rs/zerolog/log"
)

// ReporteCajaPayload is the job envelope sent to QueueReporteCaja.
type ReporteCajaPayload struct {
	SesionID uint   `json:"sesion_id"`
	ToEmail  string `json:"to_email"`
}

// ReporteCajaSource builds the report of one session. service.CajaService
// satisfies it.
type ReporteCajaSource interface {
	Detalle(ctx context.Context, id uint) (*dto.ReporteCajaResponse, error)
}

// ReporteMailer is satisfied by *infra.Mailer.
type ReporteMailer interface {
	SendReporte(to, subject, body, pdfPath string) error
}

type ReporteCajaWorker struct {
	source         ReporteCajaSource
	mailer         ReporteMailer
	pdfStoragePath string
	nombreLocal    string
}

func NewReporteCajaWorker(source ReporteCajaSource, mailer ReporteMailer, pdfStoragePath, nombreLocal string) *ReporteCajaWorker {
	return &ReporteCajaWorker{
		source:         source,
		mailer:         mailer,
		pdfStoragePath: pdfStoragePath,
		nombreLocal:    nombreLocal,
	}
}

func (w *ReporteCajaWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReporteCajaPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("reporte_caja_worker: invalid payload")
		return nil
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("reporte_caja_worker: empty to_email, skipping")
		return nil
	}

	rep, err := w.source.Detalle(ctx, payload.SesionID)
	if err != nil {
		return fmt.Errorf("reporte_caja_worker: load session %d: %w", payload.SesionID, err)
	}
	pdfPath, err := infra.GenerarReporteCajaPDF(w.nombreLocal, rep, w.pdfStoragePath)
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s - Cierre de caja #%d", w.nombreLocal, payload.SesionID)
	body := fmt.Sprintf("Adjuntamos el reporte de cierre de la sesion de caja #%d.", payload.SesionID)
	if err := w.mailer.SendReporte(payload.ToEmail, subject, body, pdfPath); err != nil {
		return err
	}
	log.Info().Str("to", payload.ToEmail).Uint("sesion_id", payload.SesionID).Msg("reporte_caja_worker: report sent")
	return nil
}
