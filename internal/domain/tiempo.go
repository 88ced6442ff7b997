package domain

import "time"

// La línea de tiempo de una corrida es discreta: el minuto-ts 0 es la fecha
// base y cada paso avanza un minuto. El día simulado es ts / 1440.

// MinutosPorDia es la cantidad de minutos de un día simulado.
const MinutosPorDia = 1440

// FechaDeMinuto ubica un minuto-ts sobre la línea de tiempo de la corrida.
func FechaDeMinuto(base time.Time, ts int64) time.Time {
	return base.Add(time.Duration(ts) * time.Minute).UTC()
}

// DiaDeMinuto devuelve el día simulado al que pertenece el minuto.
func DiaDeMinuto(ts int64) int {
	return int(ts / MinutosPorDia)
}

// MinutosEntre cuenta los minutos completos entre dos instantes.
func MinutosEntre(inicio, fin time.Time) int64 {
	return int64(fin.Sub(inicio) / time.Minute)
}

// TruncarAMinuto descarta segundos y fracciones y normaliza a UTC.
func TruncarAMinuto(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}
