package simulador

import (
	"testing"

	"github.com/alejandrodnm/simulador/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func riesgoDCA() domain.ConfigRiesgo {
	return domain.ConfigRiesgo{RiesgoMaxPct: 2, TamanoMin: 50, TamanoMax: 500}
}

func TestAplicarDCA_PromedioPonderado(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 90, 100)
	require.Empty(t, rechazo)
	require.NotNil(t, res)

	// 100 de margen con apalancamiento 1 a 90: 1.1111 unidades extra
	assert.InDelta(t, 1.1111, res.CantidadExtra, 0.0001)
	assert.InDelta(t, 3.1111, op.Cantidad, 0.0001)
	// promedio ponderado (100×2 + 90×1.1111) / 3.1111
	assert.InDelta(t, 96.4286, op.PrecioEntrada, 0.0001)
	assert.InDelta(t, op.PrecioEntrada, res.NuevoPromedio, 0.0001)
	assert.InDelta(t, 300.0, op.CapitalInvertido, 0.0001)
	assert.InDelta(t, 300.0, op.CapitalBloqueado, 0.0001)
	assert.InDelta(t, 9700.0, inv.CapitalActual, 0.0001)
}

func TestAplicarDCA_CasoEntero(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 100, 100)
	require.Empty(t, rechazo)
	assert.InDelta(t, 1.0, res.CantidadExtra, 0.0001)
	assert.InDelta(t, 3.0, op.Cantidad, 0.0001)
	assert.InDelta(t, 100.0, op.PrecioEntrada, 0.0001)
}

func TestAplicarDCA_ShortPromediaHaciaArriba(t *testing.T) {
	op, inv := opCierre(domain.Short), invCierre()
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 110, 100)
	require.Empty(t, rechazo)
	assert.InDelta(t, 0.9091, res.CantidadExtra, 0.0001)
	// (100×2 + 110×0.9091) / 2.9091
	assert.InDelta(t, 103.125, op.PrecioEntrada, 0.0001)
}

func TestAplicarDCA_SlippageDeEntrada(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.SlippageOpenPct = 1
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 90, 100)
	require.Empty(t, rechazo)
	// entrada long encarece: 90 × 1.01
	assert.InDelta(t, 90.9, res.PrecioExec, 0.0001)
	assert.InDelta(t, 100.0/90.9, res.CantidadExtra, 0.0001)
}

func TestAplicarDCA_ComisionSeAcumulaYDebita(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.CommissionPct = 1
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 100, 100)
	require.Empty(t, rechazo)
	// nocional 100 × 1 unidad × 1%
	assert.InDelta(t, 1.0, res.Comision, 0.0001)
	assert.InDelta(t, 1.0, op.ComisionesAcumuladas, 0.0001)
	assert.InDelta(t, 9800.0-101.0, inv.CapitalActual, 0.0001)
}

func TestAplicarDCA_RechazoPorLimiteDeTamano(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	riesgo := riesgoDCA()
	riesgo.TamanoMax = 250
	res, rechazo := aplicarDCA(op, inv, riesgo, 90, 100)
	assert.Nil(t, res)
	assert.Equal(t, domain.RechazoDCALimiteTamano, rechazo)
	// la operación y el capital quedan intactos
	assert.InDelta(t, 2.0, op.Cantidad, 0.0001)
	assert.InDelta(t, 100.0, op.PrecioEntrada, 0.0001)
	assert.InDelta(t, 9800.0, inv.CapitalActual, 0.0001)
}

func TestAplicarDCA_RechazoSinCapital(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.CapitalActual = 50
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 90, 100)
	assert.Nil(t, res)
	assert.Equal(t, domain.RechazoDCASinCapital, rechazo)
	assert.InDelta(t, 50.0, inv.CapitalActual, 0.0001)
}

func TestAplicarDCA_RechazoSinCapitalParaComision(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.CommissionPct = 1
	inv.CapitalActual = 100.5
	// margen 100 alcanza, margen + comisión 101 no
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 100, 100)
	assert.Nil(t, res)
	assert.Equal(t, domain.RechazoDCASinCapitalComision, rechazo)
	assert.InDelta(t, 100.5, inv.CapitalActual, 0.0001)
	assert.InDelta(t, 2.0, op.Cantidad, 0.0001)
}

func TestAplicarDCA_ApalancamientoMultiplicaCantidad(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	op.Apalancamiento = 3
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 100, 100)
	require.Empty(t, rechazo)
	// margen 100 × 3 de apalancamiento a 100
	assert.InDelta(t, 3.0, res.CantidadExtra, 0.0001)
	assert.InDelta(t, 5.0, op.Cantidad, 0.0001)
	// el débito sigue siendo solo el margen
	assert.InDelta(t, 9700.0, inv.CapitalActual, 0.0001)
}

func TestResultadoDCA_Detalle(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	res, rechazo := aplicarDCA(op, inv, riesgoDCA(), 90, 100)
	require.Empty(t, rechazo)
	det := res.Detalle()
	assert.InDelta(t, 90.0, det["precio_base"].(float64), 0.0001)
	assert.InDelta(t, 100.0, det["monto_margen"].(float64), 0.0001)
	assert.InDelta(t, 1.1111, det["qty_add"].(float64), 0.0001)
	assert.Equal(t, 1, det["apalancamiento"].(int))
}
