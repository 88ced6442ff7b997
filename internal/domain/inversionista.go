package domain

// Inversionista es el estado mutable de una cuenta durante la corrida. Solo
// el simulador lo toca; nada acá es seguro para uso concurrente.
type Inversionista struct {
	ID             int64
	CapitalInicial float64
	CapitalActual  float64

	UsarParametrosSenal bool
	Apalancamiento      int // 0 = sin fijar
	ApalancamientoMax   int

	MaxOperacionesDiarias  int // 0 = sin límite
	MaxOperacionesAbiertas int // 0 = sin límite
	OperacionesHoy         int
	DiaActual              int // -1 hasta observar el primer minuto

	SlippageOpenPct  float64
	SlippageClosePct float64
	CommissionPct    float64

	DrawdownMaxPct        float64 // 0 = deshabilitado
	DrawdownActivo        bool
	PnLRealizadoAcumulado float64

	// Halted frena cierres y aperturas; Desincronizado además marca que el
	// estado en memoria ya no coincide con el persistido.
	Halted         bool
	Desincronizado bool
}

// ResetDiarioSiCambiaDia reinicia el contador diario de aperturas cuando el
// minuto simulado cruza a otro día.
func (i *Inversionista) ResetDiarioSiCambiaDia(dia int) {
	if i.DiaActual != dia {
		i.DiaActual = dia
		i.OperacionesHoy = 0
	}
}

// RegistrarPnLRealizado acumula el resultado neto de un cierre (total o
// parcial).
func (i *Inversionista) RegistrarPnLRealizado(pnlNet float64) {
	i.PnLRealizadoAcumulado += pnlNet
}

// VerificarDrawdown activa el freno cuando la pérdida realizada acumulada
// alcanza el porcentaje máximo sobre el capital inicial. Una vez activo no
// se desactiva durante la corrida.
func (i *Inversionista) VerificarDrawdown() {
	if i.DrawdownMaxPct <= 0 {
		return
	}
	limite := i.CapitalInicial * (i.DrawdownMaxPct / 100.0)
	if -i.PnLRealizadoAcumulado >= limite {
		i.DrawdownActivo = true
	}
}

// ConfigRiesgo fija el sizing de cada operación. Inmutable durante la
// corrida.
type ConfigRiesgo struct {
	RiesgoMaxPct float64
	TamanoMin    float64
	TamanoMax    float64
}

// FilaInversionista es la fila cruda de la tabla inversionistas, ya
// coercionada (NULL numérico → 0, apalancamiento NULL → 0).
type FilaInversionista struct {
	ID                     int64
	CapitalAportado        float64
	CapitalActual          float64
	UsarParametrosSenal    bool
	Apalancamiento         int
	ApalancamientoMax      int
	DrawdownMaxPct         float64
	RiesgoMaxPct           float64
	TamanoMin              float64
	TamanoMax              float64
	MaxOperacionesDiarias  int
	MaxOperacionesAbiertas int
	SlippageOpenPct        float64
	SlippageClosePct       float64
	CommissionPct          float64
}

// AInversionista construye el estado de corrida y la configuración de riesgo
// a partir de la fila. Si la tabla no trae capital actual, arranca con el
// aportado.
func (f FilaInversionista) AInversionista() (*Inversionista, ConfigRiesgo) {
	capital := f.CapitalActual
	if capital <= 0 {
		capital = f.CapitalAportado
	}
	inv := &Inversionista{
		ID:                     f.ID,
		CapitalInicial:         capital,
		CapitalActual:          capital,
		UsarParametrosSenal:    f.UsarParametrosSenal,
		Apalancamiento:         f.Apalancamiento,
		ApalancamientoMax:      f.ApalancamientoMax,
		MaxOperacionesDiarias:  f.MaxOperacionesDiarias,
		MaxOperacionesAbiertas: f.MaxOperacionesAbiertas,
		DiaActual:              -1,
		SlippageOpenPct:        f.SlippageOpenPct,
		SlippageClosePct:       f.SlippageClosePct,
		CommissionPct:          f.CommissionPct,
		DrawdownMaxPct:         f.DrawdownMaxPct,
	}
	riesgo := ConfigRiesgo{
		RiesgoMaxPct: f.RiesgoMaxPct,
		TamanoMin:    f.TamanoMin,
		TamanoMax:    f.TamanoMax,
	}
	return inv, riesgo
}
