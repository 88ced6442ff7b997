package storage

// db.go — acceso a la base del simulador sobre database/sql.
//
// Soporta dos motores: sqlite (modernc, pure Go, para corridas locales y
// tests) y postgres (pgx vía stdlib, para la base compartida). Las consultas
// se escriben con placeholders `?` y rebind las traduce a `$n` cuando el
// motor es postgres. Los timestamps viajan siempre como time.Time en UTC;
// nunca como texto.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/alejandrodnm/simulador/internal/domain"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Almacen es el adaptador de persistencia del simulador. Implementa
// ports.Persistencia y presta su conexión a los proveedores de lectura.
type Almacen struct {
	db     *sql.DB
	driver string
	base   time.Time // minuto 0 de la simulación
}

// NuevoAlmacen abre la base y, en sqlite, aplica el esquema. En postgres el
// esquema se administra por migración externa.
func NuevoAlmacen(driver, dsn string, base time.Time) (*Almacen, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage.NuevoAlmacen: open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1) // SQLite es single-writer
		db.SetMaxIdleConns(1)
		if _, err := db.Exec(esquema); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage.NuevoAlmacen: aplicar esquema: %w", err)
		}
	}
	return &Almacen{db: db, driver: driver, base: base}, nil
}

// Close cierra la conexión a la base de datos.
func (a *Almacen) Close() error {
	return a.db.Close()
}

// fechaDe traduce un minuto de simulación a tiempo real.
func (a *Almacen) fechaDe(ts int64) time.Time {
	return domain.FechaDeMinuto(a.base, ts)
}

// rebind traduce los placeholders `?` a `$n` para postgres.
func (a *Almacen) rebind(query string) string {
	if a.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ejecutar corre una escritura en su propia transacción. El simulador exige
// saber si cada escritura entró antes de seguir.
func (a *Almacen) ejecutar(ctx context.Context, query string, args ...any) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, a.rebind(query), args...); err != nil {
		return err
	}
	return tx.Commit()
}

// insertarConID inserta una fila de operaciones_simuladas y devuelve el id
// generado. Postgres no implementa LastInsertId, así que ahí se pide con
// RETURNING.
func (a *Almacen) insertarConID(ctx context.Context, query string, args ...any) (int64, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if a.driver == DriverPostgres {
		q := a.rebind(query + " RETURNING id_operacion")
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return 0, err
		}
	} else {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		if id, err = res.LastInsertId(); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit()
}

// --- helpers de columnas ---

// nullInt64 mapea 0 a NULL para las referencias opcionales.
func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullInf cubre los extremos centinela: una operación que nunca vio una vela
// conserva ±Inf, que no existe en SQL.
func nullInf(v float64) any {
	if math.IsInf(v, 0) {
		return nil
	}
	return v
}

// aBool coerce el booleano que entregue el motor: postgres devuelve bool,
// sqlite un entero 0/1.
func aBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	}
	return false
}

// aBoolDefecto es aBool con un default para columnas que pueden venir NULL.
func aBoolDefecto(v any, defecto bool) bool {
	if v == nil {
		return defecto
	}
	return aBool(v)
}

func redondear2(v float64) float64 {
	return math.Round(v*100) / 100
}

// porcentajesNiveles expresa SL y TP como distancia porcentual a la entrada,
// redondeada a 2 decimales y nunca negativa. Un nivel sin fijar reporta 0:
// no hay distancia que medir.
func porcentajesNiveles(op *domain.Operacion) (porcSL, porcTP float64) {
	if op.PrecioEntrada <= 0 {
		return 0, 0
	}
	if op.Tipo == domain.Long {
		porcSL = (op.PrecioEntrada - op.StopLoss) / op.PrecioEntrada * 100
		porcTP = (op.TakeProfit - op.PrecioEntrada) / op.PrecioEntrada * 100
	} else {
		porcSL = (op.StopLoss - op.PrecioEntrada) / op.PrecioEntrada * 100
		porcTP = (op.PrecioEntrada - op.TakeProfit) / op.PrecioEntrada * 100
	}
	if op.StopLoss <= 0 {
		porcSL = 0
	}
	if op.TakeProfit <= 0 {
		porcTP = 0
	}
	porcSL = math.Max(redondear2(porcSL), 0)
	porcTP = math.Max(redondear2(porcTP), 0)
	return porcSL, porcTP
}
