package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/simulador/config"
	"github.com/alejandrodnm/simulador/internal/adapters/report"
	"github.com/alejandrodnm/simulador/internal/adapters/storage"
	"github.com/alejandrodnm/simulador/internal/domain"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	inicio := flag.String("inicio", "", "fecha de inicio (overrides config)")
	fin := flag.String("fin", "", "fecha de fin (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *inicio != "" {
		cfg.Simulacion.FechaInicio = *inicio
	}
	if *fin != "" {
		cfg.Simulacion.FechaFin = *fin
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	base, hasta, err := cfg.Rango()
	if err != nil {
		slog.Error("invalid simulation window", "err", err)
		os.Exit(1)
	}
	// fecha_fin es parte de la corrida: fechas iguales simulan el minuto 0
	tsFin := domain.MinutosEntre(base, hasta)

	slog.Info("simulador starting",
		"config", *configPath,
		"driver", cfg.Database.Driver,
		"desde", base.Format(time.RFC3339),
		"hasta", hasta.Format(time.RFC3339),
		"minutos", tsFin+1,
	)

	almacen, err := storage.NuevoAlmacen(cfg.Database.Driver, cfg.Database.DSN, base)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Database.DSN)
		os.Exit(1)
	}
	defer almacen.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runCorrida(ctx, cfg, almacen, report.NuevaConsola(), base, tsFin); err != nil {
		slog.Error("simulation exited with error", "err", err)
		os.Exit(1)
	}

	slog.Info("simulador stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
