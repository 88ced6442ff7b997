package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// ErrEstrategiaNoEncontrada delata una señal que referencia una estrategia
// inexistente; el simulador lo trata como fatal.
var ErrEstrategiaNoEncontrada = errors.New("storage: estrategia no encontrada")

const columnasEstrategia = `
	SELECT id, activa, avance_minimo_pct, retroceso_proteccion_pct,
	       retroceso_parcial_pct, liquidacion_parcial_pct,
	       retroceso_sin_avance_pct, max_parciales,
	       habilitar_proteccion_ganancias, habilitar_parcial,
	       habilitar_retroceso_sin_avance
	FROM estrategias`

// CargadorEstrategiasDB implementa ports.CargadorEstrategias y permite
// precargar todas las estrategias activas de una vez.
type CargadorEstrategiasDB struct {
	almacen *Almacen
}

func NuevoCargadorEstrategias(a *Almacen) *CargadorEstrategiasDB {
	return &CargadorEstrategiasDB{almacen: a}
}

// CargarParametros lee los parámetros de una estrategia por id, esté activa
// o no: una operación ya abierta sigue gobernada por su estrategia aunque
// después se desactive.
func (c *CargadorEstrategiasDB) CargarParametros(ctx context.Context, id int64) (*domain.ParametrosEstrategia, error) {
	row := c.almacen.db.QueryRowContext(ctx,
		c.almacen.rebind(columnasEstrategia+` WHERE id = ?`), id)
	p, _, err := escanearEstrategia(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storage.CargarParametros: id=%d: %w", id, ErrEstrategiaNoEncontrada)
		}
		return nil, fmt.Errorf("storage.CargarParametros: id=%d: %w", id, err)
	}
	return p, nil
}

// CargarEstrategiasActivas trae todas las estrategias activas, para calentar
// la cache antes de la corrida.
func (c *CargadorEstrategiasDB) CargarEstrategiasActivas(ctx context.Context) (map[int64]*domain.ParametrosEstrategia, error) {
	rows, err := c.almacen.db.QueryContext(ctx, columnasEstrategia)
	if err != nil {
		return nil, fmt.Errorf("storage.CargarEstrategiasActivas: query: %w", err)
	}
	defer rows.Close()

	params := make(map[int64]*domain.ParametrosEstrategia)
	for rows.Next() {
		p, activa, err := escanearEstrategia(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.CargarEstrategiasActivas: scan: %w", err)
		}
		if !activa {
			continue
		}
		params[p.ID] = p
	}
	return params, rows.Err()
}

type escaneador interface {
	Scan(dest ...any) error
}

// escanearEstrategia arma los parámetros desde una fila. Una fila que solo
// trae los porcentajes corre con la cascada completa: flags y max_parciales
// en NULL toman el default del dominio (habilitados, 1 parcial) y activa en
// NULL cuenta como activa.
func escanearEstrategia(sc escaneador) (*domain.ParametrosEstrategia, bool, error) {
	var (
		p                          domain.ParametrosEstrategia
		activa, prot, parc, sinAvc any
		avance, retroProt          sql.NullFloat64
		retroParc, liq, retroSin   sql.NullFloat64
		maxParc                    sql.NullInt64
	)
	if err := sc.Scan(&p.ID, &activa, &avance, &retroProt, &retroParc, &liq,
		&retroSin, &maxParc, &prot, &parc, &sinAvc); err != nil {
		return nil, false, err
	}
	p.AvanceMinimoPct = avance.Float64
	p.RetrocesoProteccionPct = retroProt.Float64
	p.RetrocesoParcialPct = retroParc.Float64
	p.LiquidacionParcialPct = liq.Float64
	p.RetrocesoSinAvancePct = retroSin.Float64
	p.MaxParciales = 1
	if maxParc.Valid {
		p.MaxParciales = int(maxParc.Int64)
	}
	p.HabilitarProteccionGanancias = aBoolDefecto(prot, true)
	p.HabilitarParcial = aBoolDefecto(parc, true)
	p.HabilitarRetrocesoSinAvance = aBoolDefecto(sinAvc, true)
	return &p, aBoolDefecto(activa, true), nil
}
