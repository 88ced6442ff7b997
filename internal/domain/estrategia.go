package domain

// ParametrosEstrategia son los umbrales de cierre de una estrategia. Los
// campos *Pct se configuran en porcentaje; los accessors devuelven la
// fracción que usan las reglas.
type ParametrosEstrategia struct {
	ID int64

	AvanceMinimoPct        float64
	RetrocesoProteccionPct float64
	RetrocesoParcialPct    float64
	LiquidacionParcialPct  float64 // fracción de la posición que liquida un parcial
	RetrocesoSinAvancePct  float64

	MaxParciales                 int
	HabilitarProteccionGanancias bool
	HabilitarParcial             bool
	HabilitarRetrocesoSinAvance  bool
}

// AvanceMinimo es la fracción de avance que arma la protección de ganancias.
func (p ParametrosEstrategia) AvanceMinimo() float64 {
	return p.AvanceMinimoPct / 100.0
}

// RetrocesoProteccion es la fracción del avance que, devuelta, dispara la
// protección de ganancias.
func (p ParametrosEstrategia) RetrocesoProteccion() float64 {
	return p.RetrocesoProteccionPct / 100.0
}

// RetrocesoParcial es el retroceso desde la entrada que dispara la
// liquidación parcial.
func (p ParametrosEstrategia) RetrocesoParcial() float64 {
	return p.RetrocesoParcialPct / 100.0
}

// FraccionLiquidacionParcial es la porción de la posición que se liquida en
// un cierre parcial.
func (p ParametrosEstrategia) FraccionLiquidacionParcial() float64 {
	return p.LiquidacionParcialPct / 100.0
}

// RetrocesoSinAvance es el retroceso desde la entrada que cierra una
// posición que nunca avanzó.
func (p ParametrosEstrategia) RetrocesoSinAvance() float64 {
	return p.RetrocesoSinAvancePct / 100.0
}
