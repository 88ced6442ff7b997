package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del simulador.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Simulacion SimulacionConfig `yaml:"simulacion"`
	Log        LogConfig        `yaml:"log"`
}

// DatabaseConfig controla contra qué base corre la simulación.
type DatabaseConfig struct {
	Driver              string  `yaml:"driver"`                // sqlite | postgres
	DSN                 string  `yaml:"dsn"`                   // archivo SQLite o URL de postgres
	ConsultasPorSegundo float64 `yaml:"consultas_por_segundo"` // 0 = sin límite
}

// SimulacionConfig acota la ventana de minutos a reproducir.
type SimulacionConfig struct {
	FechaInicio           string  `yaml:"fecha_inicio"`
	FechaFin              string  `yaml:"fecha_fin"`
	CapitalInicialDefecto float64 `yaml:"capital_inicial_defecto"` // para inversionistas sin capital cargado
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rechaza configuraciones con las que la corrida no puede arrancar.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "pgx":
	default:
		return fmt.Errorf("config.Validate: driver %q no soportado (sqlite | postgres)", c.Database.Driver)
	}
	if c.Simulacion.FechaInicio == "" || c.Simulacion.FechaFin == "" {
		return fmt.Errorf("config.Validate: simulacion.fecha_inicio y fecha_fin son obligatorias")
	}
	return nil
}

// Rango devuelve la ventana de la simulación como instantes UTC truncados al
// minuto. Ambos extremos son parte de la corrida: fechas iguales simulan un
// único minuto.
func (c *Config) Rango() (inicio, fin time.Time, err error) {
	inicio, err = parseFecha(c.Simulacion.FechaInicio)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config.Rango: fecha_inicio: %w", err)
	}
	fin, err = parseFecha(c.Simulacion.FechaFin)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config.Rango: fecha_fin: %w", err)
	}
	if fin.Before(inicio) {
		return time.Time{}, time.Time{}, fmt.Errorf("config.Rango: fecha_fin %s es anterior a fecha_inicio %s",
			fin.Format(time.RFC3339), inicio.Format(time.RFC3339))
	}
	return inicio, fin, nil
}

// formatosFecha son los layouts aceptados, del más al menos específico.
var formatosFecha = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseFecha(s string) (time.Time, error) {
	for _, layout := range formatosFecha {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Minute), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q no reconocida", s)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	// "postgres" es el nombre amigable; el driver registrado se llama pgx
	if cfg.Database.Driver == "postgres" {
		cfg.Database.Driver = "pgx"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "simulador.db"
	}
	if cfg.Simulacion.CapitalInicialDefecto <= 0 {
		cfg.Simulacion.CapitalInicialDefecto = 10000
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
