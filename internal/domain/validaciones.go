package domain

// Predicados puros de validación previos a abrir o promediar. Devuelven
// true cuando la operación puede continuar; el rechazo lo anota el llamador.

// ValidarLimitesInversionista verifica el cupo diario de aperturas. Un
// máximo de 0 significa sin límite.
func ValidarLimitesInversionista(inv *Inversionista) bool {
	if inv.MaxOperacionesDiarias > 0 && inv.OperacionesHoy >= inv.MaxOperacionesDiarias {
		return false
	}
	return true
}

// ValidarMaxAbiertas verifica el cupo de operaciones abiertas en simultáneo.
// Un máximo de 0 significa sin límite.
func ValidarMaxAbiertas(inv *Inversionista, abiertas int) bool {
	if inv.MaxOperacionesAbiertas > 0 && abiertas >= inv.MaxOperacionesAbiertas {
		return false
	}
	return true
}

// ValidarMontoRiesgo verifica que el monto calculado quede dentro de la
// banda [TamanoMin, TamanoMax].
func ValidarMontoRiesgo(riesgo ConfigRiesgo, monto float64) bool {
	return monto >= riesgo.TamanoMin && monto <= riesgo.TamanoMax
}

// ValidarCapitalDisponible verifica que alcance el capital para cubrir el
// total a debitar (margen más comisión).
func ValidarCapitalDisponible(inv *Inversionista, requerido float64) bool {
	return inv.CapitalActual >= requerido
}

// ValidarLimiteDCA verifica que sumar monto no exceda el tamaño máximo de la
// operación.
func ValidarLimiteDCA(op *Operacion, riesgo ConfigRiesgo, monto float64) bool {
	return op.CapitalInvertido+monto <= riesgo.TamanoMax
}
