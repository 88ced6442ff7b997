package domain

// LadoEjecucion distingue si el slippage se aplica al entrar o al salir.
type LadoEjecucion string

const (
	LadoEntrada LadoEjecucion = "entrada"
	LadoSalida  LadoEjecucion = "salida"
)

// AplicarSlippage desplaza un precio siempre en contra del operador. Un
// porcentaje nulo o negativo deja el precio intacto.
//
// Fórmula entrada: LONG precio × (1 + f), SHORT precio × (1 − f).
// Fórmula salida:  LONG precio × (1 − f), SHORT precio × (1 + f).
func AplicarSlippage(precio float64, tipo TipoOperacion, slippagePct float64, lado LadoEjecucion) float64 {
	if slippagePct <= 0 {
		return precio
	}
	f := slippagePct / 100.0
	if lado == LadoEntrada {
		if tipo == Long {
			return precio * (1 + f)
		}
		return precio * (1 - f)
	}
	if tipo == Long {
		return precio * (1 - f)
	}
	return precio * (1 + f)
}

// CalcularComision devuelve la comisión sobre el nocional precio × cantidad.
// Un porcentaje nulo o negativo no cobra nada.
func CalcularComision(precio, cantidad, comisionPct float64) float64 {
	if comisionPct <= 0 {
		return 0
	}
	return precio * cantidad * (comisionPct / 100.0)
}
