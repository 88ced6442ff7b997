package simulador

import (
	"github.com/alejandrodnm/simulador/internal/domain"
)

// eventoCierre es el resultado de aplicar la cascada de reglas a una vela.
// La cascada emite a lo sumo un cierre por operación y vela.
type eventoCierre struct {
	tipo        string // domain.EventoCierreTotal o domain.EventoCierreParcial
	motivo      string
	precioExec  float64
	comision    float64
	pnlNet      float64
	retro       float64
	ratioRetro  float64
	cantidadLiq float64
	capitalLiq  float64
	hija        *domain.Operacion
}

// evaluarCierres aplica las reglas en orden fijo de precedencia: take profit,
// liquidación parcial, stop loss, protección de ganancias y retroceso sin
// avance. La primera que dispara ejecuta el cierre (muta la operación,
// acredita capital, registra PnL y verifica drawdown) y corta la evaluación.
// Devuelve nil si ninguna regla aplica. Los extremos ya deben estar
// actualizados con la vela.
func evaluarCierres(op *domain.Operacion, inv *domain.Inversionista, vela *domain.RegistroPrecio, ts int64) *eventoCierre {
	if !op.Abierta || inv.Halted {
		return nil
	}

	if (op.Tipo == domain.Long && vela.High >= op.TakeProfit) ||
		(op.Tipo == domain.Short && vela.Low <= op.TakeProfit) {
		return cerrarTotalPorRegla(op, inv, op.TakeProfit, domain.MotivoTakeProfit, ts)
	}

	avanceMinimo := op.AvanceMinimoAlcanzado()
	huboAvance := op.HuboAlgunAvance()

	if huboAvance && !avanceMinimo && op.Estrategia.HabilitarParcial &&
		op.PermiteParcial && op.ParcialesRealizados < op.Estrategia.MaxParciales {
		retro := op.RetrocesoDesdeEntrada(vela.Low, vela.High)
		if retro >= op.Estrategia.RetrocesoParcial() {
			if ev := cerrarParcialPorRegla(op, inv, vela.Close, retro, ts); ev != nil {
				return ev
			}
		}
	}

	if (op.Tipo == domain.Long && vela.Low <= op.StopLoss) ||
		(op.Tipo == domain.Short && vela.High >= op.StopLoss) {
		return cerrarTotalPorRegla(op, inv, op.StopLoss, domain.MotivoStopLoss, ts)
	}

	if avanceMinimo && op.Estrategia.HabilitarProteccionGanancias {
		ratio := op.RatioRetrocesoProteccion(vela.Low, vela.High)
		if ratio >= op.Estrategia.RetrocesoProteccion() {
			motivo := domain.MotivoRetrocesoMaximo
			if op.Tipo == domain.Short {
				motivo = domain.MotivoRetrocesoMinimo
			}
			ev := cerrarTotalPorRegla(op, inv, vela.Close, motivo, ts)
			ev.ratioRetro = ratio
			return ev
		}
	}

	if !huboAvance && op.Estrategia.HabilitarRetrocesoSinAvance && op.PermiteParcial {
		retro := op.RetrocesoDesdeEntrada(vela.Low, vela.High)
		if retro >= op.Estrategia.RetrocesoSinAvance() {
			ev := cerrarTotalPorRegla(op, inv, vela.Close, domain.MotivoRetrocesoSinAvance, ts)
			ev.retro = retro
			return ev
		}
	}

	return nil
}

// cerrarTotalPorRegla ejecuta un cierre total al precio base con slippage de
// salida: liquida capital invertido más resultado, registra el PnL y
// verifica drawdown.
func cerrarTotalPorRegla(op *domain.Operacion, inv *domain.Inversionista, precioBase float64, motivo string, ts int64) *eventoCierre {
	precioExec := domain.AplicarSlippage(precioBase, op.Tipo, inv.SlippageClosePct, domain.LadoSalida)
	comision := domain.CalcularComision(precioExec, op.Cantidad, inv.CommissionPct)
	capitalInvertido := op.CapitalInvertido
	pnlNet := op.CerrarTotal(precioExec, comision, ts)
	domain.AcreditarCapital(inv, capitalInvertido+pnlNet)
	inv.RegistrarPnLRealizado(pnlNet)
	inv.VerificarDrawdown()
	return &eventoCierre{
		tipo:       domain.EventoCierreTotal,
		motivo:     motivo,
		precioExec: precioExec,
		comision:   comision,
		pnlNet:     pnlNet,
	}
}

// cerrarParcialPorRegla liquida la fracción configurada al close con
// slippage de salida. La comisión se calcula sobre la cantidad estimada a
// liquidar. Devuelve nil si la fracción no libera cantidad.
func cerrarParcialPorRegla(op *domain.Operacion, inv *domain.Inversionista, close, retro float64, ts int64) *eventoCierre {
	qtyEstimada := op.Cantidad * op.Estrategia.FraccionLiquidacionParcial()
	precioExec := domain.AplicarSlippage(close, op.Tipo, inv.SlippageClosePct, domain.LadoSalida)
	comision := domain.CalcularComision(precioExec, qtyEstimada, inv.CommissionPct)
	res := op.CerrarParcialCreandoHija(precioExec, comision, ts)
	if res == nil {
		return nil
	}
	op.ParcialPreviamenteLiquidada = true
	domain.AcreditarCapital(inv, res.CapitalLiquidado+res.PnLParcialNet)
	inv.RegistrarPnLRealizado(res.PnLParcialNet)
	inv.VerificarDrawdown()
	return &eventoCierre{
		tipo:        domain.EventoCierreParcial,
		motivo:      domain.MotivoParcialSL,
		precioExec:  precioExec,
		comision:    comision,
		pnlNet:      res.PnLParcialNet,
		retro:       retro,
		cantidadLiq: res.CantidadLiquidada,
		capitalLiq:  res.CapitalLiquidado,
		hija:        res.Hija,
	}
}
