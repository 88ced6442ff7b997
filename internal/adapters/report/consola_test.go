package report_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/alejandrodnm/simulador/internal/adapters/report"
	"github.com/stretchr/testify/assert"
)

func TestConsola_ImprimirResumen(t *testing.T) {
	var buf bytes.Buffer
	c := report.NuevaConsolaWriter(&buf)

	c.ImprimirResumen("corrida-abc", []report.ResumenInversionista{
		{
			ID:             1,
			CapitalInicial: 10000,
			CapitalFinal:   10020,
			PnLRealizado:   20,
			Operaciones:    1,
			Eventos:        3,
		},
		{
			ID:             2,
			CapitalInicial: 1000,
			CapitalFinal:   890,
			PnLRealizado:   -110,
			Operaciones:    1,
			Eventos:        4,
			DrawdownActivo: true,
		},
	}, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "CORRIDA corrida-abc")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "$10020.00")
	assert.Contains(t, out, "$-110.00")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "DRAWDOWN")
	assert.Contains(t, out, "Capital agregado: $11000.00")
	assert.Contains(t, out, "frenados por drawdown")
	assert.NotContains(t, out, "desincronizados")
}

func TestConsola_ImprimirResumen_SinInversionistas(t *testing.T) {
	var buf bytes.Buffer
	c := report.NuevaConsolaWriter(&buf)

	c.ImprimirResumen("corrida-abc", nil, time.Second)
	assert.Contains(t, buf.String(), "nada que simular")
}

func TestConsola_ImprimirResumen_Desincronizado(t *testing.T) {
	var buf bytes.Buffer
	c := report.NuevaConsolaWriter(&buf)

	c.ImprimirResumen("x", []report.ResumenInversionista{
		{ID: 1, CapitalInicial: 100, CapitalFinal: 100, Desincronizado: true},
	}, time.Second)

	out := buf.String()
	assert.Contains(t, out, "DESINCRONIZADO")
	assert.Contains(t, out, "revisar log de persistencia")
}

func TestConsola_ImprimirEventos(t *testing.T) {
	var buf bytes.Buffer
	c := report.NuevaConsolaWriter(&buf)

	c.ImprimirEventos(map[string]int{
		"cierre_total": 1,
		"apertura":     2,
	})

	out := buf.String()
	assert.Contains(t, out, "apertura")
	assert.Contains(t, out, "cierre_total")
	// orden alfabético estable
	assert.Less(t, strings.Index(out, "apertura"), strings.Index(out, "cierre_total"))
}

func TestConsola_ImprimirConsultas(t *testing.T) {
	var buf bytes.Buffer
	c := report.NuevaConsolaWriter(&buf)

	c.ImprimirConsultas(12, 34)
	assert.Contains(t, buf.String(), "12 de señales, 34 de velas")
}
