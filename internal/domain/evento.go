package domain

import "time"

// Tipos de evento del journal de auditoría.
const (
	EventoApertura            = "apertura"
	EventoAperturaHijaParcial = "apertura_hija_parcial"
	EventoCierreTotal         = "cierre_total"
	EventoCierreParcial       = "cierre_parcial"
	EventoDCA                 = "dca"
	EventoRechazoApertura     = "rechazo_apertura"
	EventoRechazoDCA          = "rechazo_dca"
	EventoPnLNoRealizado      = "pnl_no_realizado"
	EventoFinalizacion        = "finalizacion_inversionista"
	EventoErrorPersistencia   = "error_persistencia"
)

// Motivos de rechazo de apertura.
const (
	RechazoHaltedDrawdown      = "investor_halted_drawdown"
	RechazoLimites             = "limites_inversionista"
	RechazoMaxAbiertas         = "max_abiertas"
	RechazoApalancamientoCero  = "apalancamiento_cero"
	RechazoMontoFueraRiesgo    = "monto_fuera_riesgo"
	RechazoCapitalInsuficiente = "capital_insuficiente"
	RechazoSinPrecioMinuto     = "sin_precio_minuto"
	RechazoMultiplicadores     = "multiplicadores_invalidos"
)

// Motivos de rechazo de DCA.
const (
	RechazoDCALimiteTamano       = "limite_tamano_operacion"
	RechazoDCASinCapital         = "sin_capital"
	RechazoDCASinCapitalComision = "sin_capital_comision"
)

// Motivos de cierre, tal como se persisten.
const (
	MotivoTakeProfit         = "Take Profit"
	MotivoStopLoss           = "Stop Loss"
	MotivoParcialSL          = "Liquidación parcial por SL"
	MotivoRetrocesoMaximo    = "Retroceso desde máximo"
	MotivoRetrocesoMinimo    = "Retroceso desde mínimo"
	MotivoRetrocesoSinAvance = "Retroceso desde entrada (sin avance)"
)

// Evento es una entrada del journal. Cada mutación de estado emite
// exactamente un Evento. Los punteros distinguen columna ausente (NULL) de
// cero legítimo; los IDs usan 0 como ausente. Detalle se serializa como JSON
// al persistir.
type Evento struct {
	Tipo        string
	TsEvento    time.Time
	IDEjecucion string

	IDOperacion      int64
	SenalID          int64
	EstrategiaID     int64
	OperacionPadreID int64
	IDVelaApertura   int64
	Ticker           string

	Cantidad    *float64
	StopLoss    *float64
	TakeProfit  *float64
	PrecioMax   *float64
	PrecioMin   *float64
	PrecioSenal *float64

	CapitalAntes   float64
	CapitalDespues float64

	MotivoNoOperacion string
	MotivoCierre      string
	Resultado         *float64
	PrecioCierre      *float64

	Detalle map[string]any
}
