package domain

import "math"

// TipoOperacion es la dirección de una posición.
type TipoOperacion string

const (
	Long  TipoOperacion = "LONG"
	Short TipoOperacion = "SHORT"
)

// Estados del ciclo de vida de una operación.
const (
	EstadoAbierta        = "abierta"
	EstadoCerradaTotal   = "cerrada_total"
	EstadoCerradaParcial = "cerrada_parcial"
)

// Operacion es una posición direccional simulada. Los extremos arrancan en
// ±Inf ("nunca observado") y pasan al precio de entrada con
// InicializarExtremos; cada vela posterior los empuja vía ActualizarExtremos.
// CapitalBloqueado acompaña siempre a CapitalInvertido (se mantiene aparte
// por auditoría).
type Operacion struct {
	ID              int64 // asignado por persistencia al insertar
	InversionistaID int64
	EstrategiaID    int64
	SenalID         int64
	Ticker          string
	Tipo            TipoOperacion

	PrecioEntrada    float64
	TakeProfit       float64
	StopLoss         float64
	Cantidad         float64
	Apalancamiento   int
	CapitalInvertido float64 // margen aportado
	CapitalBloqueado float64

	Estrategia *ParametrosEstrategia

	Abierta   bool
	Estado    string
	PrecioMax float64 // -Inf hasta observar la primera vela
	PrecioMin float64 // +Inf ídem

	ParcialesRealizados         int
	PnLRealizado                float64
	ComisionesAcumuladas        float64
	EsHija                      bool
	OperacionPadreID            int64 // 0 = sin padre
	PermiteParcial              bool
	ParcialPreviamenteLiquidada bool

	TimestampApertura      int64 // minuto-ts
	TimestampCierre        int64 // minuto-ts, válido solo tras cerrar
	UltimoPrecioExecCierre float64
	IDVelaApertura         int64

	// Multiplicadores heredados de la señal; se arrastran a las hijas y se
	// persisten, pero el núcleo no los interpreta.
	MultSL float64
	MultTP float64
}

// ResultadoParcial es lo que un cierre parcial entrega al llamador para
// liquidar capital: cantidad y capital liberados, el PnL neto del tramo y la
// hija que continúa con el remanente de la posición.
type ResultadoParcial struct {
	CantidadLiquidada float64
	PnLParcialNet     float64
	CapitalLiquidado  float64
	Hija              *Operacion
}

// InicializarExtremos fija ambos extremos en el precio de entrada.
func (o *Operacion) InicializarExtremos() {
	o.PrecioMax = o.PrecioEntrada
	o.PrecioMin = o.PrecioEntrada
}

// ActualizarExtremos empuja los extremos con el high/low de una vela.
// PrecioMax nunca baja y PrecioMin nunca sube.
func (o *Operacion) ActualizarExtremos(high, low float64) {
	if high > o.PrecioMax {
		o.PrecioMax = high
	}
	if low < o.PrecioMin {
		o.PrecioMin = low
	}
}

// ExtremosObservados devuelve pmax/pmin aptos para persistir: si nunca se
// observó una vela, ambos caen al precio de entrada.
func (o *Operacion) ExtremosObservados() (pmax, pmin float64) {
	pmax, pmin = o.PrecioMax, o.PrecioMin
	if math.IsInf(pmax, -1) {
		pmax = o.PrecioEntrada
	}
	if math.IsInf(pmin, 1) {
		pmin = o.PrecioEntrada
	}
	return pmax, pmin
}

// AvanceMinimoAlcanzado indica si el precio recorrió a favor al menos el
// avance mínimo de la estrategia desde la entrada.
func (o *Operacion) AvanceMinimoAlcanzado() bool {
	umbral := o.Estrategia.AvanceMinimo()
	if o.Tipo == Long {
		return o.PrecioMax >= o.PrecioEntrada*(1+umbral)
	}
	return o.PrecioMin <= o.PrecioEntrada*(1-umbral)
}

// HuboAlgunAvance indica si el precio se movió a favor en algún momento.
func (o *Operacion) HuboAlgunAvance() bool {
	if o.Tipo == Long {
		return o.PrecioMax > o.PrecioEntrada
	}
	return o.PrecioMin < o.PrecioEntrada
}

// SinAvance es la negación de HuboAlgunAvance.
func (o *Operacion) SinAvance() bool {
	return !o.HuboAlgunAvance()
}

// RetrocesoDesdeEntrada mide el retroceso adverso relativo a la entrada con
// el low/high de la vela en curso.
//
// Fórmula: LONG (entrada − low) / entrada; SHORT (high − entrada) / entrada.
func (o *Operacion) RetrocesoDesdeEntrada(low, high float64) float64 {
	if o.Tipo == Long {
		return (o.PrecioEntrada - low) / o.PrecioEntrada
	}
	return (high - o.PrecioEntrada) / o.PrecioEntrada
}

// RatioRetrocesoProteccion es la fracción del avance devuelta desde el
// extremo favorable. Vale 0 si todavía no hubo avance.
//
// Fórmula LONG: (pmax − low) / (pmax − entrada).
func (o *Operacion) RatioRetrocesoProteccion(low, high float64) float64 {
	if o.Tipo == Long {
		if o.PrecioMax <= o.PrecioEntrada {
			return 0
		}
		return (o.PrecioMax - low) / (o.PrecioMax - o.PrecioEntrada)
	}
	if o.PrecioMin >= o.PrecioEntrada {
		return 0
	}
	return (high - o.PrecioMin) / (o.PrecioEntrada - o.PrecioMin)
}

// pnlBruto valora una cantidad al precio de salida según el lado.
func (o *Operacion) pnlBruto(precioSalida, cantidad float64) float64 {
	if o.Tipo == Long {
		return (precioSalida - o.PrecioEntrada) * cantidad
	}
	return (o.PrecioEntrada - precioSalida) * cantidad
}

// CerrarTotal liquida toda la posición al precio ejecutado y devuelve el
// resultado neto (bruto menos la comisión de salida). Sobre una operación ya
// cerrada no hace nada y devuelve 0.
func (o *Operacion) CerrarTotal(precioExec, comisionSalida float64, ts int64) float64 {
	if !o.Abierta {
		return 0
	}
	pnlNet := o.pnlBruto(precioExec, o.Cantidad) - comisionSalida
	o.PnLRealizado += pnlNet
	o.ComisionesAcumuladas += comisionSalida
	o.Cantidad = 0
	o.Abierta = false
	o.Estado = EstadoCerradaTotal
	o.TimestampCierre = ts
	o.UltimoPrecioExecCierre = precioExec
	return pnlNet
}

// CerrarParcialCreandoHija liquida la fracción configurada de la posición y
// abre una hija con el remanente. El padre queda cerrado parcial (cantidad 0,
// no reabre); la hija hereda entrada, niveles, multiplicadores, vela de
// apertura y una copia de los extremos, y no vuelve a permitir parciales.
// Devuelve nil si la fracción no libera cantidad.
func (o *Operacion) CerrarParcialCreandoHija(precioExec, comisionSalidaParcial float64, ts int64) *ResultadoParcial {
	qtyAntes := o.Cantidad
	qtyLiq := qtyAntes * o.Estrategia.FraccionLiquidacionParcial()
	if qtyLiq <= 0 {
		return nil
	}
	pnlParcialNet := o.pnlBruto(precioExec, qtyLiq) - comisionSalidaParcial
	o.ComisionesAcumuladas += comisionSalidaParcial
	capitalLiq := o.CapitalInvertido * (qtyLiq / qtyAntes)
	capitalRem := o.CapitalInvertido - capitalLiq
	o.PnLRealizado += pnlParcialNet
	o.Cantidad = 0
	o.Abierta = false
	o.Estado = EstadoCerradaParcial
	o.ParcialesRealizados++
	o.TimestampCierre = ts
	o.UltimoPrecioExecCierre = precioExec

	hija := &Operacion{
		InversionistaID:   o.InversionistaID,
		EstrategiaID:      o.EstrategiaID,
		SenalID:           o.SenalID,
		Ticker:            o.Ticker,
		Tipo:              o.Tipo,
		PrecioEntrada:     o.PrecioEntrada,
		TakeProfit:        o.TakeProfit,
		StopLoss:          o.StopLoss,
		Cantidad:          qtyAntes - qtyLiq,
		Apalancamiento:    o.Apalancamiento,
		CapitalInvertido:  capitalRem,
		CapitalBloqueado:  capitalRem,
		Estrategia:        o.Estrategia,
		Abierta:           true,
		Estado:            EstadoAbierta,
		PrecioMax:         o.PrecioMax,
		PrecioMin:         o.PrecioMin,
		EsHija:            true,
		OperacionPadreID:  o.ID,
		PermiteParcial:    false,
		TimestampApertura: ts,
		IDVelaApertura:    o.IDVelaApertura,
		MultSL:            o.MultSL,
		MultTP:            o.MultTP,
	}

	return &ResultadoParcial{
		CantidadLiquidada: qtyLiq,
		PnLParcialNet:     pnlParcialNet,
		CapitalLiquidado:  capitalLiq,
		Hija:              hija,
	}
}

// PnLNoRealizado valora la posición abierta al precio dado. Una operación
// cerrada o sin cantidad vale 0.
func (o *Operacion) PnLNoRealizado(precioActual float64) float64 {
	if !o.Abierta || o.Cantidad <= 0 {
		return 0
	}
	return o.pnlBruto(precioActual, o.Cantidad)
}

// ValorTotalExposicion es el nocional de la posición a precio de entrada.
func (o *Operacion) ValorTotalExposicion() float64 {
	return o.Cantidad * o.PrecioEntrada
}
