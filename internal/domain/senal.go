package domain

// RegistroSenal es una señal de trading ya coercionada: precios NULL → 0,
// apalancamiento NULL → 1, multiplicadores NULL → 0 (inválido).
type RegistroSenal struct {
	ID             int64
	EstrategiaID   int64
	Ticker         string
	Tipo           TipoOperacion
	TakeProfit     float64
	StopLoss       float64
	Apalancamiento int
	PrecioSenal    float64
	MultSL         float64
	MultTP         float64
}

// MultiplicadoresValidos exige ambos multiplicadores presentes y positivos.
func (s RegistroSenal) MultiplicadoresValidos() bool {
	return s.MultSL > 0 && s.MultTP > 0
}

// RegistroPrecio es la vela 1m de un ticker en un minuto simulado.
type RegistroPrecio struct {
	IDVela int64
	Ticker string
	Open   float64
	High   float64
	Low    float64
	Close  float64
}
