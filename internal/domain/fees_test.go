package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAplicarSlippage_EntradaLong(t *testing.T) {
	// 100 × (1 + 0.001) = 100.1
	assert.InDelta(t, 100.1, AplicarSlippage(100, Long, 0.1, LadoEntrada), 0.0001)
}

func TestAplicarSlippage_EntradaShort(t *testing.T) {
	assert.InDelta(t, 99.9, AplicarSlippage(100, Short, 0.1, LadoEntrada), 0.0001)
}

func TestAplicarSlippage_SalidaLong(t *testing.T) {
	assert.InDelta(t, 99.9, AplicarSlippage(100, Long, 0.1, LadoSalida), 0.0001)
}

func TestAplicarSlippage_SalidaShort(t *testing.T) {
	assert.InDelta(t, 100.1, AplicarSlippage(100, Short, 0.1, LadoSalida), 0.0001)
}

func TestAplicarSlippage_PorcentajeNoPositivo(t *testing.T) {
	assert.Equal(t, 100.0, AplicarSlippage(100, Long, 0, LadoEntrada))
	assert.Equal(t, 100.0, AplicarSlippage(100, Short, -1, LadoSalida))
}

func TestCalcularComision_Normal(t *testing.T) {
	// 100 × 2 × 0.1% = 0.2
	assert.InDelta(t, 0.2, CalcularComision(100, 2, 0.1), 0.0001)
}

func TestCalcularComision_PorcentajeNoPositivo(t *testing.T) {
	assert.Equal(t, 0.0, CalcularComision(100, 2, 0))
	assert.Equal(t, 0.0, CalcularComision(100, 2, -0.5))
}
