// consola.go — reporte de cierre de corrida por consola. Tablas con
// tablewriter al estilo del resto de salidas del proyecto; todo valor llega
// ya formateado como string.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Consola escribe el reporte de la corrida.
type Consola struct {
	out io.Writer
}

// NuevaConsola crea un reporte que escribe a stdout.
func NuevaConsola() *Consola {
	return &Consola{out: os.Stdout}
}

// NuevaConsolaWriter crea un reporte para tests.
func NuevaConsolaWriter(w io.Writer) *Consola {
	return &Consola{out: w}
}

// ResumenInversionista condensa el resultado de la corrida de una cuenta.
type ResumenInversionista struct {
	ID             int64
	CapitalInicial float64
	CapitalFinal   float64
	PnLRealizado   float64
	PnLNoRealizado float64
	Operaciones    int
	Abiertas       int
	Eventos        int
	DrawdownActivo bool
	Desincronizado bool
}

func (r ResumenInversionista) estado() string {
	switch {
	case r.Desincronizado:
		return "DESINCRONIZADO"
	case r.DrawdownActivo:
		return "DRAWDOWN"
	default:
		return "OK"
	}
}

func (r ResumenInversionista) rendimientoPct() float64 {
	if r.CapitalInicial <= 0 {
		return 0
	}
	return (r.CapitalFinal - r.CapitalInicial) / r.CapitalInicial * 100
}

// ImprimirResumen imprime la tabla final con una fila por inversionista y el
// agregado de capital al pie.
func (c *Consola) ImprimirResumen(idEjecucion string, resumenes []ResumenInversionista, duracion time.Duration) {
	if len(resumenes) == 0 {
		fmt.Fprintln(c.out, "\n  Sin inversionistas activos: nada que simular.")
		return
	}

	fmt.Fprintf(c.out, "\n=== CORRIDA %s (%s) ===\n\n", idEjecucion, duracion.Round(time.Millisecond))

	table := tablewriter.NewWriter(c.out)
	table.Header("Inv", "Capital ini", "Capital fin", "PnL", "Rend%", "No real.", "Ops", "Abiertas", "Eventos", "Estado")

	var totIni, totFin float64
	desync, frenados := 0, 0
	for _, r := range resumenes {
		table.Append(
			fmt.Sprintf("%d", r.ID),
			fmt.Sprintf("$%.2f", r.CapitalInicial),
			fmt.Sprintf("$%.2f", r.CapitalFinal),
			fmt.Sprintf("$%.2f", r.PnLRealizado),
			fmt.Sprintf("%+.2f%%", r.rendimientoPct()),
			fmt.Sprintf("$%.2f", r.PnLNoRealizado),
			fmt.Sprintf("%d", r.Operaciones),
			fmt.Sprintf("%d", r.Abiertas),
			fmt.Sprintf("%d", r.Eventos),
			r.estado(),
		)
		totIni += r.CapitalInicial
		totFin += r.CapitalFinal
		if r.Desincronizado {
			desync++
		} else if r.DrawdownActivo {
			frenados++
		}
	}
	table.Render()

	variacion := 0.0
	if totIni > 0 {
		variacion = (totFin - totIni) / totIni * 100
	}
	fmt.Fprintf(c.out, "  Capital agregado: $%.2f → $%.2f (%+.2f%%)\n", totIni, totFin, variacion)

	if frenados > 0 {
		fmt.Fprintf(c.out, "  !! %d inversionista(s) frenados por drawdown\n", frenados)
	}
	if desync > 0 {
		fmt.Fprintf(c.out, "  !! %d inversionista(s) desincronizados: revisar log de persistencia\n", desync)
	}
	fmt.Fprintln(c.out)
}

// ImprimirEventos imprime el conteo agregado de eventos por tipo, ordenado
// alfabéticamente para que la salida sea estable.
func (c *Consola) ImprimirEventos(conteo map[string]int) {
	if len(conteo) == 0 {
		return
	}

	tipos := make([]string, 0, len(conteo))
	for tipo := range conteo {
		tipos = append(tipos, tipo)
	}
	sort.Strings(tipos)

	table := tablewriter.NewWriter(c.out)
	table.Header("Evento", "Cantidad")
	for _, tipo := range tipos {
		table.Append(tipo, fmt.Sprintf("%d", conteo[tipo]))
	}
	table.Render()
	fmt.Fprintln(c.out)
}

// ImprimirConsultas imprime cuántas lecturas hizo la corrida contra la base.
func (c *Consola) ImprimirConsultas(senales, precios int64) {
	fmt.Fprintf(c.out, "  Lecturas a la base: %d de señales, %d de velas\n", senales, precios)
}
