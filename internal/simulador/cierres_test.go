package simulador

import (
	"testing"

	"github.com/alejandrodnm/simulador/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsCierre() *domain.ParametrosEstrategia {
	return &domain.ParametrosEstrategia{
		ID:                           1,
		AvanceMinimoPct:              2,
		RetrocesoProteccionPct:       50,
		RetrocesoParcialPct:          50,
		LiquidacionParcialPct:        50,
		RetrocesoSinAvancePct:        10,
		MaxParciales:                 1,
		HabilitarProteccionGanancias: true,
		HabilitarParcial:             true,
		HabilitarRetrocesoSinAvance:  true,
	}
}

func invCierre() *domain.Inversionista {
	// 10000 de arranque con 200 ya invertidos en la operación de prueba
	return &domain.Inversionista{ID: 1, CapitalInicial: 10000, CapitalActual: 9800}
}

func opCierre(tipo domain.TipoOperacion) *domain.Operacion {
	op := &domain.Operacion{
		ID:               1,
		Ticker:           "BTC-USD",
		Tipo:             tipo,
		PrecioEntrada:    100,
		TakeProfit:       110,
		StopLoss:         90,
		Cantidad:         2,
		Apalancamiento:   1,
		CapitalInvertido: 200,
		CapitalBloqueado: 200,
		Abierta:          true,
		Estado:           domain.EstadoAbierta,
		PermiteParcial:   true,
		Estrategia:       paramsCierre(),
	}
	op.InicializarExtremos()
	return op
}

func velaCierre(high, low, close float64) *domain.RegistroPrecio {
	return &domain.RegistroPrecio{IDVela: 7, Ticker: "BTC-USD", Open: close, High: high, Low: low, Close: close}
}

// evaluar replica el orden del simulador: extremos primero, reglas después.
func evaluar(op *domain.Operacion, inv *domain.Inversionista, v *domain.RegistroPrecio, ts int64) *eventoCierre {
	op.ActualizarExtremos(v.High, v.Low)
	return evaluarCierres(op, inv, v, ts)
}

func TestEvaluarCierres_TakeProfitLong(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	ev := evaluar(op, inv, velaCierre(120, 100, 118), 5)
	require.NotNil(t, ev)
	assert.Equal(t, domain.EventoCierreTotal, ev.tipo)
	assert.Equal(t, domain.MotivoTakeProfit, ev.motivo)
	// sale al nivel del TP, no al close
	assert.Equal(t, 110.0, ev.precioExec)
	assert.InDelta(t, 20.0, ev.pnlNet, 0.0001)
	assert.False(t, op.Abierta)
	// acredita capital invertido más resultado
	assert.InDelta(t, 10020.0, inv.CapitalActual, 0.0001)
	assert.InDelta(t, 20.0, inv.PnLRealizadoAcumulado, 0.0001)
}

func TestEvaluarCierres_TakeProfitShort(t *testing.T) {
	op, inv := opCierre(domain.Short), invCierre()
	op.TakeProfit = 90
	op.StopLoss = 110
	ev := evaluar(op, inv, velaCierre(100, 88, 89), 5)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoTakeProfit, ev.motivo)
	assert.Equal(t, 90.0, ev.precioExec)
	assert.InDelta(t, 20.0, ev.pnlNet, 0.0001)
}

func TestEvaluarCierres_TPGanaSobreSLEnLaMismaVela(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	// la vela toca TP y SL a la vez: la precedencia resuelve a favor del TP
	ev := evaluar(op, inv, velaCierre(115, 85, 100), 5)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoTakeProfit, ev.motivo)
	assert.Equal(t, 110.0, ev.precioExec)
}

func TestEvaluarCierres_StopLossLong(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	ev := evaluar(op, inv, velaCierre(100, 89, 89.5), 5)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoStopLoss, ev.motivo)
	assert.Equal(t, 90.0, ev.precioExec)
	assert.InDelta(t, -20.0, ev.pnlNet, 0.0001)
	assert.InDelta(t, 9980.0, inv.CapitalActual, 0.0001)
}

func TestEvaluarCierres_SlippageDeSalida(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.SlippageClosePct = 1
	ev := evaluar(op, inv, velaCierre(120, 100, 118), 5)
	require.NotNil(t, ev)
	// 110 × 0.99
	assert.InDelta(t, 108.9, ev.precioExec, 0.0001)
	assert.InDelta(t, 17.8, ev.pnlNet, 0.0001)
}

func TestEvaluarCierres_ComisionDeSalida(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.CommissionPct = 0.1
	ev := evaluar(op, inv, velaCierre(120, 100, 118), 5)
	require.NotNil(t, ev)
	// comisión 110 × 2 × 0.1% = 0.22
	assert.InDelta(t, 0.22, ev.comision, 0.0001)
	assert.InDelta(t, 19.78, ev.pnlNet, 0.0001)
}

func TestEvaluarCierres_ParcialPorRetroceso(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()

	// avanza poco y retrocede 5%: ninguna regla dispara todavía
	assert.Nil(t, evaluar(op, inv, velaCierre(101, 95, 95), 1))

	// retroceso del 50% desde la entrada sin avance mínimo: parcial
	ev := evaluar(op, inv, velaCierre(96, 50, 55), 2)
	require.NotNil(t, ev)
	assert.Equal(t, domain.EventoCierreParcial, ev.tipo)
	assert.Equal(t, domain.MotivoParcialSL, ev.motivo)
	assert.Equal(t, 55.0, ev.precioExec)
	assert.InDelta(t, 1.0, ev.cantidadLiq, 0.0001)
	assert.InDelta(t, -45.0, ev.pnlNet, 0.0001)
	assert.InDelta(t, 100.0, ev.capitalLiq, 0.0001)
	assert.InDelta(t, 0.5, ev.retro, 0.0001)

	// el padre queda marcado y el capital recibe liquidado + resultado
	assert.Equal(t, domain.EstadoCerradaParcial, op.Estado)
	assert.True(t, op.ParcialPreviamenteLiquidada)
	assert.InDelta(t, 9855.0, inv.CapitalActual, 0.0001)
	assert.InDelta(t, -45.0, inv.PnLRealizadoAcumulado, 0.0001)

	// la hija hereda el remanente y los extremos observados
	hija := ev.hija
	require.NotNil(t, hija)
	assert.InDelta(t, 1.0, hija.Cantidad, 0.0001)
	assert.InDelta(t, 100.0, hija.CapitalInvertido, 0.0001)
	assert.Equal(t, 101.0, hija.PrecioMax)
	assert.Equal(t, 50.0, hija.PrecioMin)
	assert.Same(t, op.Estrategia, hija.Estrategia)

	// la hija no vuelve a liquidar parcial: el SL la cierra entera
	evHija := evaluar(hija, inv, velaCierre(60, 50, 52), 3)
	require.NotNil(t, evHija)
	assert.Equal(t, domain.MotivoStopLoss, evHija.motivo)
	assert.InDelta(t, -10.0, evHija.pnlNet, 0.0001)
	assert.InDelta(t, 9945.0, inv.CapitalActual, 0.0001)
	assert.InDelta(t, -55.0, inv.PnLRealizadoAcumulado, 0.0001)
}

func TestEvaluarCierres_ParcialDeshabilitadoSigueAlSL(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	op.Estrategia.HabilitarParcial = false
	evaluar(op, inv, velaCierre(101, 95, 95), 1)
	ev := evaluar(op, inv, velaCierre(96, 50, 55), 2)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoStopLoss, ev.motivo)
}

func TestEvaluarCierres_ProteccionGanancias(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	op.TakeProfit = 200
	op.StopLoss = 50

	// sube a 120 pero devuelve solo el 40% del avance: aguanta
	assert.Nil(t, evaluar(op, inv, velaCierre(120, 112, 115), 1))

	// devuelve el 60% del avance: protege al close
	ev := evaluar(op, inv, velaCierre(116, 108, 108), 2)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoRetrocesoMaximo, ev.motivo)
	assert.Equal(t, 108.0, ev.precioExec)
	assert.InDelta(t, 0.6, ev.ratioRetro, 0.0001)
	assert.InDelta(t, 16.0, ev.pnlNet, 0.0001)
}

func TestEvaluarCierres_ProteccionShort(t *testing.T) {
	op, inv := opCierre(domain.Short), invCierre()
	op.TakeProfit = 10
	op.StopLoss = 200
	ev := evaluar(op, inv, velaCierre(100, 80, 95), 1)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoRetrocesoMinimo, ev.motivo)
	assert.Equal(t, 95.0, ev.precioExec)
	assert.InDelta(t, 10.0, ev.pnlNet, 0.0001)
}

func TestEvaluarCierres_RetrocesoSinAvance(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	op.TakeProfit = 200
	op.StopLoss = 50
	ev := evaluar(op, inv, velaCierre(100, 89, 89), 1)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoRetrocesoSinAvance, ev.motivo)
	assert.Equal(t, 89.0, ev.precioExec)
	assert.InDelta(t, 0.11, ev.retro, 0.0001)
	assert.InDelta(t, -22.0, ev.pnlNet, 0.0001)
}

func TestEvaluarCierres_SinAvanceDeshabilitado(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	op.TakeProfit = 200
	op.StopLoss = 50
	op.Estrategia.HabilitarRetrocesoSinAvance = false
	assert.Nil(t, evaluar(op, inv, velaCierre(100, 89, 89), 1))
	assert.True(t, op.Abierta)
}

func TestEvaluarCierres_HaltedNoEvalua(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.Halted = true
	assert.Nil(t, evaluar(op, inv, velaCierre(120, 100, 118), 1))
	assert.True(t, op.Abierta)
}

func TestEvaluarCierres_CerradaNoEvalua(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	op.CerrarTotal(110, 0, 1)
	assert.Nil(t, evaluar(op, inv, velaCierre(120, 100, 118), 2))
}

func TestEvaluarCierres_ALoSumoUnCierrePorVela(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	// la vela justifica TP, SL y retroceso a la vez
	ev := evaluar(op, inv, velaCierre(115, 85, 86), 1)
	require.NotNil(t, ev)
	assert.Equal(t, domain.MotivoTakeProfit, ev.motivo)
	// la operación quedó cerrada: una segunda pasada no emite nada
	assert.Nil(t, evaluar(op, inv, velaCierre(115, 85, 86), 1))
}

func TestEvaluarCierres_DrawdownSeActivaTrasPerdida(t *testing.T) {
	op, inv := opCierre(domain.Long), invCierre()
	inv.DrawdownMaxPct = 0.2 // límite: 20 sobre 10000
	ev := evaluar(op, inv, velaCierre(100, 89, 89.5), 1)
	require.NotNil(t, ev)
	assert.InDelta(t, -20.0, ev.pnlNet, 0.0001)
	// la regla activa el flag; el freno lo aplica el simulador
	assert.True(t, inv.DrawdownActivo)
	assert.False(t, inv.Halted)
}
