package model_test

import (
	"testing"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSiguiente_CadenaLineal(t *testing.T) {
	cases := map[model.EstadoPedido]model.EstadoPedido{
		model.EstadoPendiente:  model.EstadoConfirmado,
		model.EstadoConfirmado: model.EstadoCocinando,
		model.EstadoCocinando:  model.EstadoListo,
		model.EstadoListo:      model.EstadoEnCamino,
		model.EstadoEnCamino:   model.EstadoEntregado,
	}
	for from, want := range cases {
		assert.Equal(t, want, from.Siguiente(), "from %s", from)
	}
}

func TestSiguiente_FueraDeCadenaDevuelveMismoEstado(t *testing.T) {
	assert.Equal(t, model.EstadoEntregado, model.EstadoEntregado.Siguiente())
	assert.Equal(t, model.EstadoCancelado, model.EstadoCancelado.Siguiente())
	assert.Equal(t, model.EstadoPedido("Desconocido"), model.EstadoPedido("Desconocido").Siguiente())
}

func TestTerminales_NoAceptanTransiciones(t *testing.T) {
	for _, terminal := range []model.EstadoPedido{model.EstadoEntregado, model.EstadoCancelado} {
		assert.True(t, terminal.EsTerminal())
		for _, dest := range model.EstadosPedido() {
			assert.False(t, terminal.PuedeTransicionarA(dest), "%s → %s", terminal, dest)
		}
	}
}

func TestCancelacion_PermitidaDesdeNoTerminales(t *testing.T) {
	for _, e := range model.EstadosPedido() {
		if e.EsTerminal() {
			continue
		}
		assert.True(t, e.PuedeTransicionarA(model.EstadoCancelado), "from %s", e)
		assert.True(t, e.PuedeTransicionarA(e.Siguiente()), "advance from %s", e)
	}
}

func TestTransiciones_NoRetroceden(t *testing.T) {
	assert.False(t, model.EstadoListo.PuedeTransicionarA(model.EstadoCocinando))
	assert.False(t, model.EstadoConfirmado.PuedeTransicionarA(model.EstadoPendiente))
	assert.False(t, model.EstadoCocinando.PuedeTransicionarA(model.EstadoCocinando))
}

func TestParseEstadoPedido(t *testing.T) {
	e, ok := model.ParseEstadoPedido("OnTheWay")
	assert.True(t, ok)
	assert.Equal(t, model.EstadoEnCamino, e)

	_, ok = model.ParseEstadoPedido("onTheWay")
	assert.False(t, ok)
}

func TestMetodoPago(t *testing.T) {
	assert.True(t, model.MetodoEfectivo.Valido())
	assert.False(t, model.MetodoEfectivo.EsDigital())
	assert.True(t, model.MetodoMercadoPago.EsDigital())
	assert.True(t, model.MetodoTransferencia.EsDigital())
	assert.False(t, model.MetodoPago("Crypto").Valido())
}
