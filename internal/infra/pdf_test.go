package infra_test

import (
	"os"
	"testing"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerarReporteCajaPDF(t *testing.T) {
	esperado := decimal.NewFromInt(160)
	final := decimal.NewFromInt(150)
	dif := final.Sub(esperado)
	cierre := time.Now()
	notas := "Faltante en el turno noche"

	rep := &dto.ReporteCajaResponse{
		Sesion: &dto.SesionCajaResponse{
			ID:             3,
			Apertura:       cierre.Add(-8 * time.Hour),
			Cierre:         &cierre,
			FechaOperativa: cierre.Format("2006-01-02"),
			MontoInicial:   decimal.NewFromInt(100),
			MontoEsperado:  &esperado,
			MontoFinal:     &final,
			Diferencia:     &dif,
			Notas:          &notas,
			Cerrada:        true,
		},
		Movimientos: []dto.MovimientoCajaResponse{
			{ID: 1, Tipo: "IN", Monto: decimal.NewFromInt(20), Descripcion: "Cambio", CreatedAt: cierre},
			{ID: 2, Tipo: "OUT", Monto: decimal.NewFromInt(10), Descripcion: "Hielo", CreatedAt: cierre},
		},
		VentasPorMetodo: dto.MontosPorMetodo{Efectivo: decimal.NewFromInt(50), Total: decimal.NewFromInt(50)},
		Ingresos:        decimal.NewFromInt(20),
		Egresos:         decimal.NewFromInt(10),
	}

	path, err := infra.GenerarReporteCajaPDF("Shingeki", rep, t.TempDir())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Contains(t, path, "caja_3.pdf")
}

func TestGenerarReporteCajaPDF_SinSesion(t *testing.T) {
	_, err := infra.GenerarReporteCajaPDF("Shingeki", &dto.ReporteCajaResponse{}, t.TempDir())
	assert.Error(t, err)
}
