package domain

// CalcularMontoOperacion determina el margen a comprometer en una apertura o
// DCA: el porcentaje de riesgo sobre el capital disponible, acotado por los
// tamaños mínimo y máximo y nunca por encima del capital disponible.
func CalcularMontoOperacion(inv *Inversionista, riesgo ConfigRiesgo) float64 {
	monto := inv.CapitalActual * (riesgo.RiesgoMaxPct / 100.0)
	if monto < riesgo.TamanoMin {
		monto = riesgo.TamanoMin
	}
	if monto > riesgo.TamanoMax {
		monto = riesgo.TamanoMax
	}
	if monto > inv.CapitalActual {
		monto = inv.CapitalActual
	}
	return monto
}

// DebitarCapital descuenta monto del capital disponible, con piso en 0.
func DebitarCapital(inv *Inversionista, monto float64) {
	inv.CapitalActual -= monto
	if inv.CapitalActual < 0 {
		inv.CapitalActual = 0
	}
}

// AcreditarCapital devuelve monto al capital disponible. El monto puede ser
// negativo cuando la liquidación cierra con pérdida mayor al margen.
func AcreditarCapital(inv *Inversionista, monto float64) {
	inv.CapitalActual += monto
}
