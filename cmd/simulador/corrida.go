package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alejandrodnm/simulador/config"
	"github.com/alejandrodnm/simulador/internal/adapters/report"
	"github.com/alejandrodnm/simulador/internal/adapters/storage"
	"github.com/alejandrodnm/simulador/internal/domain"
	"github.com/alejandrodnm/simulador/internal/simulador"
)

// runCorrida reproduce la ventana [0, tsFin] para cada inversionista activo,
// secuencialmente y con la caché de estrategias compartida, y deja el
// reporte agregado en consola.
func runCorrida(ctx context.Context, cfg *config.Config, almacen *storage.Almacen, consola *report.Consola, base time.Time, tsFin int64) error {
	idEjecucion := uuid.New().String()
	arranque := time.Now()

	senales := storage.NuevoProveedorSenales(almacen, cfg.Database.ConsultasPorSegundo)
	precios := storage.NuevoProveedorPrecios(almacen, cfg.Database.ConsultasPorSegundo)
	cargador := storage.NuevoCargadorEstrategias(almacen)

	cache := simulador.NuevaCacheEstrategias(cargador)
	if lote, err := cargador.CargarEstrategiasActivas(ctx); err != nil {
		slog.Warn("could not preload strategies, falling back to lazy loading", "err", err)
	} else {
		cache.Precargar(lote)
	}

	filas, err := almacen.InversionistasActivos(ctx)
	if err != nil {
		return err
	}
	if len(filas) == 0 {
		slog.Warn("no active investors found, nothing to simulate")
		consola.ImprimirResumen(idEjecucion, nil, time.Since(arranque))
		return nil
	}

	slog.Info("corrida started",
		"id_ejecucion", idEjecucion,
		"inversionistas", len(filas),
		"estrategias_precargadas", cache.Tamano(),
	)

	resumenes := make([]report.ResumenInversionista, 0, len(filas))
	conteoEventos := make(map[string]int)

	for _, fila := range filas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fila.CapitalAportado <= 0 && fila.CapitalActual <= 0 {
			fila.CapitalAportado = cfg.Simulacion.CapitalInicialDefecto
		}
		inv, riesgo := fila.AInversionista()

		bitacora := simulador.NuevaBitacora(idEjecucion, func(ctx context.Context, ev domain.Evento) error {
			return almacen.InsertarEventoLog(ctx, ev, inv)
		})
		sim := simulador.Nuevo(inv, riesgo, cache, senales, precios, bitacora, almacen, base)

		if err := sim.Run(ctx, 0, tsFin); err != nil {
			return err
		}
		pygFlotante := sim.Finalizar(ctx, preciosFinales(ctx, sim, precios, tsFin))

		abiertas := 0
		for _, op := range sim.Operaciones() {
			if op.Abierta {
				abiertas++
			}
		}
		resumenes = append(resumenes, report.ResumenInversionista{
			ID:             inv.ID,
			CapitalInicial: inv.CapitalInicial,
			CapitalFinal:   inv.CapitalActual,
			PnLRealizado:   inv.PnLRealizadoAcumulado,
			PnLNoRealizado: pygFlotante,
			Operaciones:    len(sim.Operaciones()),
			Abiertas:       abiertas,
			Eventos:        len(bitacora.Eventos()),
			DrawdownActivo: inv.DrawdownActivo,
			Desincronizado: inv.Desincronizado,
		})
		for tipo, n := range bitacora.ConteoPorTipo() {
			conteoEventos[tipo] += n
		}

		slog.Info("investor run finished",
			"inversionista", inv.ID,
			"capital_final", inv.CapitalActual,
			"pnl_realizado", inv.PnLRealizadoAcumulado,
			"drawdown", inv.DrawdownActivo,
			"desincronizado", inv.Desincronizado,
		)
	}

	consola.ImprimirResumen(idEjecucion, resumenes, time.Since(arranque))
	consola.ImprimirEventos(conteoEventos)
	consola.ImprimirConsultas(senales.Consultas(), precios.Consultas())
	return nil
}

// preciosFinales junta el último cierre disponible de cada ticker con
// posición abierta, para valorar el PnL flotante del resumen. Un ticker sin
// vela en el último minuto queda fuera y la posición no se valora.
func preciosFinales(ctx context.Context, sim *simulador.Simulador, precios *storage.ProveedorPreciosDB, tsFin int64) map[string]float64 {
	finales := make(map[string]float64)
	for _, op := range sim.Operaciones() {
		if !op.Abierta || op.Cantidad <= 0 {
			continue
		}
		if _, ok := finales[op.Ticker]; ok {
			continue
		}
		vela, err := precios.PrecioEnMinuto(ctx, op.Ticker, tsFin)
		if err != nil || vela == nil {
			slog.Warn("no closing price for open position", "ticker", op.Ticker, "ts", tsFin)
			continue
		}
		finales[op.Ticker] = vela.Close
	}
	return finales
}
