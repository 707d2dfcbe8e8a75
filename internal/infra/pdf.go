package infra

// pdf.go: cash session close report using go-pdf/fpdf.
// A4 portrait with:
//   - Business name header and session dates
//   - Reconciliation block (initial, expected, counted, difference)
//   - Sales by payment method (display rule)
//   - Manual movements table
//
// The output file is saved to storagePath/caja_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/maurobense/ShingekiNoAPP/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const fechaPDF = "02/01/2006 15:04"

// GenerarReporteCajaPDF renders the report of one session and returns the
// path of the written file. storagePath is created if needed.
func GenerarReporteCajaPDF(nombreLocal string, rep *dto.ReporteCajaResponse, storagePath string) (string, error) {
	if rep == nil || rep.Sesion == nil {
		return "", fmt.Errorf("pdf: reporte sin sesion")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	s := rep.Sesion
	filePath := filepath.Join(storagePath, fmt.Sprintf("caja_%d.pdf", s.ID))

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 9, tr(nombreLocal), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr(fmt.Sprintf("Cierre de caja N° %d", s.ID)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	linea := func(label, valor string) {
		pdf.CellFormat(contentW*0.5, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.5, 6, tr(valor), "", 1, "R", false, 0, "")
	}
	linea("Fecha operativa", s.FechaOperativa)
	linea("Apertura", s.Apertura.Local().Format(fechaPDF))
	if s.Cierre != nil {
		linea("Cierre", s.Cierre.Local().Format(fechaPDF))
	} else {
		linea("Cierre", "sesión abierta")
	}
	pdf.Ln(3)

	// ── Reconciliation ───────────────────────────────────────────────────────
	seccion(pdf, tr, contentW, "Arqueo")
	linea("Monto inicial", money(s.MontoInicial))
	linea("Ingresos manuales", money(rep.Ingresos))
	linea("Egresos manuales", "-"+money(rep.Egresos))
	if s.MontoEsperado != nil {
		linea("Esperado en caja", money(*s.MontoEsperado))
	}
	if s.MontoFinal != nil {
		linea("Contado", money(*s.MontoFinal))
	}
	if s.Diferencia != nil {
		pdf.SetFont("Helvetica", "B", 10)
		linea("Diferencia", money(*s.Diferencia))
		pdf.SetFont("Helvetica", "", 9)
	}
	if s.Notas != nil && *s.Notas != "" {
		pdf.MultiCell(contentW, 5, tr("Notas: "+*s.Notas), "", "L", false)
	}
	pdf.Ln(3)

	// ── Sales by method ──────────────────────────────────────────────────────
	seccion(pdf, tr, contentW, fmt.Sprintf("Ventas de la sesión (%d pedidos)", len(rep.Pedidos)))
	linea("Efectivo (entregados)", money(rep.VentasPorMetodo.Efectivo))
	linea("MercadoPago", money(rep.VentasPorMetodo.MercadoPago))
	linea("Transferencia", money(rep.VentasPorMetodo.Transferencia))
	pdf.SetFont("Helvetica", "B", 9)
	linea("Total", money(rep.VentasPorMetodo.Total))
	pdf.Ln(3)

	// ── Movements ────────────────────────────────────────────────────────────
	seccion(pdf, tr, contentW, "Movimientos manuales")
	col1, col2, col3, col4 := contentW*0.22, contentW*0.1, contentW*0.48, contentW*0.2
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 6, "Hora", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 6, "Tipo", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 6, tr("Descripción"), "B", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "Monto", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	for _, m := range rep.Movimientos {
		desc := m.Descripcion
		if len(desc) > 48 {
			desc = desc[:47] + "…"
		}
		pdf.CellFormat(col1, 5, m.CreatedAt.Local().Format(fechaPDF), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, m.Tipo, "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, tr(desc), "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 5, money(m.Monto), "", 1, "R", false, 0, "")
	}
	if len(rep.Movimientos) == 0 {
		pdf.CellFormat(contentW, 5, "Sin movimientos", "", 1, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func seccion(pdf *fpdf.Fpdf, tr func(string) string, w float64, titulo string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(w, 7, tr(titulo), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Ln(1)
}

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }
