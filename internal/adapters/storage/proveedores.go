package storage

// proveedores.go — lecturas del simulador con freno de consultas.
//
// Una corrida larga barre cientos de miles de minutos y cada minuto con
// posiciones toca la base; el limitador protege la base compartida. Con
// qps <= 0 queda deshabilitado, que es lo normal contra sqlite local.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/alejandrodnm/simulador/internal/domain"
	"golang.org/x/time/rate"
)

func nuevoLimitador(consultasPorSegundo float64) *rate.Limiter {
	if consultasPorSegundo <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(consultasPorSegundo), 1)
}

func esperar(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// ProveedorSenalesDB implementa ports.ProveedorSenales leyendo
// senales_generadas minuto a minuto.
type ProveedorSenalesDB struct {
	almacen   *Almacen
	limitador *rate.Limiter
	consultas atomic.Int64
}

func NuevoProveedorSenales(a *Almacen, consultasPorSegundo float64) *ProveedorSenalesDB {
	return &ProveedorSenalesDB{almacen: a, limitador: nuevoLimitador(consultasPorSegundo)}
}

// SenalesEnMinuto devuelve las señales del minuto en orden de id, que es el
// orden canónico de procesamiento. Una señal sin apalancamiento vale 1.
func (p *ProveedorSenalesDB) SenalesEnMinuto(ctx context.Context, ts int64) ([]domain.RegistroSenal, error) {
	if err := esperar(ctx, p.limitador); err != nil {
		return nil, err
	}
	p.consultas.Add(1)

	rows, err := p.almacen.db.QueryContext(ctx, p.almacen.rebind(`
		SELECT id_senal, id_estrategia, ticker, tipo_senal, precio_senal,
		       take_profit, stop_loss, apalancamiento, mult_sl, mult_tp
		FROM senales_generadas
		WHERE timestamp = ?
		ORDER BY id_senal`),
		p.almacen.fechaDe(ts),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.SenalesEnMinuto: ts=%d: %w", ts, err)
	}
	defer rows.Close()

	var senales []domain.RegistroSenal
	for rows.Next() {
		var (
			sn             domain.RegistroSenal
			tipo           string
			precio, tp, sl sql.NullFloat64
			apal           sql.NullInt64
			multSL, multTP sql.NullFloat64
		)
		if err := rows.Scan(&sn.ID, &sn.EstrategiaID, &sn.Ticker, &tipo,
			&precio, &tp, &sl, &apal, &multSL, &multTP); err != nil {
			return nil, fmt.Errorf("storage.SenalesEnMinuto: scan: %w", err)
		}
		sn.Tipo = domain.TipoOperacion(strings.ToUpper(tipo))
		sn.PrecioSenal = precio.Float64
		sn.TakeProfit = tp.Float64
		sn.StopLoss = sl.Float64
		sn.Apalancamiento = 1
		if apal.Valid {
			sn.Apalancamiento = int(apal.Int64)
		}
		sn.MultSL = multSL.Float64
		sn.MultTP = multTP.Float64
		senales = append(senales, sn)
	}
	return senales, rows.Err()
}

// Consultas devuelve cuántas consultas hizo el proveedor.
func (p *ProveedorSenalesDB) Consultas() int64 {
	return p.consultas.Load()
}

// ProveedorPreciosDB implementa ports.ProveedorPrecios sobre ohlcv_raw_1m.
type ProveedorPreciosDB struct {
	almacen   *Almacen
	limitador *rate.Limiter
	consultas atomic.Int64
}

func NuevoProveedorPrecios(a *Almacen, consultasPorSegundo float64) *ProveedorPreciosDB {
	return &ProveedorPreciosDB{almacen: a, limitador: nuevoLimitador(consultasPorSegundo)}
}

// PrecioEnMinuto devuelve la vela del ticker en ese minuto, o nil si el
// ticker no cotizó.
func (p *ProveedorPreciosDB) PrecioEnMinuto(ctx context.Context, ticker string, ts int64) (*domain.RegistroPrecio, error) {
	if err := esperar(ctx, p.limitador); err != nil {
		return nil, err
	}
	p.consultas.Add(1)

	row := p.almacen.db.QueryRowContext(ctx, p.almacen.rebind(`
		SELECT id_vela, ticker, open, high, low, close
		FROM ohlcv_raw_1m
		WHERE ticker = ? AND timestamp = ?`),
		ticker, p.almacen.fechaDe(ts),
	)
	var v domain.RegistroPrecio
	if err := row.Scan(&v.IDVela, &v.Ticker, &v.Open, &v.High, &v.Low, &v.Close); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage.PrecioEnMinuto: %s ts=%d: %w", ticker, ts, err)
	}
	return &v, nil
}

// Consultas devuelve cuántas consultas hizo el proveedor.
func (p *ProveedorPreciosDB) Consultas() int64 {
	return p.consultas.Load()
}
