package storage

// persistencia.go — escrituras sincrónicas del simulador. Cada método corre
// en su propia transacción; el llamador decide qué hacer si la escritura no
// entró (el simulador desincroniza al inversionista y lo frena).

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// InsertarOperacion da de alta la operación y devuelve el id generado.
// cnt_operaciones arranca en 1 y crece con cada DCA.
func (a *Almacen) InsertarOperacion(ctx context.Context, op *domain.Operacion, capitalTotal, capitalDisponible float64) (int64, error) {
	porcSL, porcTP := porcentajesNiveles(op)
	pmax, pmin := op.ExtremosObservados()
	esHija := 0
	if op.EsHija {
		esHija = 1
	}

	id, err := a.insertarConID(ctx, `
		INSERT INTO operaciones_simuladas
			(id_inversionista, id_estrategia, id_senal, ticker, tipo_operacion,
			 estado, entrada, take_profit, stop_loss, porc_sl, porc_tp,
			 cantidad, apalancamiento, capital_riesgo_usado, capital_bloqueado,
			 capital_total_antes, capital_disponible_antes, timestamp_apertura,
			 precio_maximo, precio_minimo, valor_total_exposicion,
			 cnt_operaciones, comisiones_acumuladas, es_hija_parcial,
			 id_operacion_padre, mult_sl_asignado, mult_tp_asignado,
			 id_vela_1m_apertura)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.InversionistaID, nullInt64(op.EstrategiaID), nullInt64(op.SenalID),
		op.Ticker, string(op.Tipo), op.Estado, op.PrecioEntrada,
		op.TakeProfit, op.StopLoss, porcSL, porcTP, op.Cantidad,
		op.Apalancamiento, op.CapitalInvertido, op.CapitalBloqueado,
		capitalTotal, capitalDisponible, a.fechaDe(op.TimestampApertura),
		pmax, pmin, op.ValorTotalExposicion(), 1, op.ComisionesAcumuladas,
		esHija, nullInt64(op.OperacionPadreID), op.MultSL, op.MultTP,
		nullInt64(op.IDVelaApertura),
	)
	if err != nil {
		return 0, fmt.Errorf("storage.InsertarOperacion: %w", err)
	}
	return id, nil
}

// ActualizarCierreTotal persiste el cierre total: estado final, resultado,
// extremos observados y la vela que lo disparó.
func (a *Almacen) ActualizarCierreTotal(ctx context.Context, op *domain.Operacion, motivo string, idVelaCierre int64) error {
	err := a.ejecutar(ctx, `
		UPDATE operaciones_simuladas SET
			estado                 = ?,
			timestamp_cierre       = ?,
			duracion_operacion     = ?,
			precio_cierre          = ?,
			resultado              = ?,
			motivo_cierre          = ?,
			precio_maximo          = ?,
			precio_minimo          = ?,
			cantidad               = 0,
			valor_total_exposicion = 0,
			comisiones_acumuladas  = ?,
			id_vela_1m_cierre      = ?
		WHERE id_operacion = ?`,
		op.Estado, a.fechaDe(op.TimestampCierre), a.duracionMinutos(op),
		op.UltimoPrecioExecCierre, op.PnLRealizado, motivo,
		nullInf(op.PrecioMax), nullInf(op.PrecioMin),
		op.ComisionesAcumuladas, nullInt64(idVelaCierre), op.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.ActualizarCierreTotal: op=%d: %w", op.ID, err)
	}
	return nil
}

// ActualizarCierreParcial persiste el cierre parcial del padre. El resultado
// se acumula sobre lo que hubiera, por si la fila ya traía un valor.
func (a *Almacen) ActualizarCierreParcial(ctx context.Context, op *domain.Operacion, idVelaCierre int64) error {
	err := a.ejecutar(ctx, `
		UPDATE operaciones_simuladas SET
			estado                 = ?,
			timestamp_cierre       = ?,
			duracion_operacion     = ?,
			precio_cierre          = ?,
			resultado              = COALESCE(resultado, 0) + ?,
			motivo_cierre          = ?,
			precio_maximo          = ?,
			precio_minimo          = ?,
			cantidad               = 0,
			valor_total_exposicion = 0,
			comisiones_acumuladas  = ?,
			id_vela_1m_cierre      = ?
		WHERE id_operacion = ?`,
		op.Estado, a.fechaDe(op.TimestampCierre), a.duracionMinutos(op),
		op.UltimoPrecioExecCierre, op.PnLRealizado, domain.MotivoParcialSL,
		nullInf(op.PrecioMax), nullInf(op.PrecioMin),
		op.ComisionesAcumuladas, nullInt64(idVelaCierre), op.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.ActualizarCierreParcial: op=%d: %w", op.ID, err)
	}
	return nil
}

// ActualizarExposicion persiste el promedio, la cantidad y los capitales
// después de un DCA, e incrementa el contador de entradas.
func (a *Almacen) ActualizarExposicion(ctx context.Context, op *domain.Operacion) error {
	porcSL, porcTP := porcentajesNiveles(op)
	err := a.ejecutar(ctx, `
		UPDATE operaciones_simuladas SET
			entrada                = ?,
			cantidad               = ?,
			capital_riesgo_usado   = ?,
			capital_bloqueado      = ?,
			valor_total_exposicion = ?,
			comisiones_acumuladas  = ?,
			cnt_operaciones        = COALESCE(cnt_operaciones, 0) + 1,
			porc_sl                = ?,
			porc_tp                = ?
		WHERE id_operacion = ?`,
		op.PrecioEntrada, op.Cantidad, op.CapitalInvertido,
		op.CapitalBloqueado, op.ValorTotalExposicion(),
		op.ComisionesAcumuladas, porcSL, porcTP, op.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.ActualizarExposicion: op=%d: %w", op.ID, err)
	}
	return nil
}

// ActualizarPnLNoRealizado guarda la valuación flotante del final de la
// corrida sin tocar el resto de la fila.
func (a *Almacen) ActualizarPnLNoRealizado(ctx context.Context, op *domain.Operacion, pyg float64) error {
	err := a.ejecutar(ctx, `
		UPDATE operaciones_simuladas SET pnl_no_realizado = ? WHERE id_operacion = ?`,
		pyg, op.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.ActualizarPnLNoRealizado: op=%d: %w", op.ID, err)
	}
	return nil
}

// ActualizarCapitalInversionista guarda el snapshot final del capital.
func (a *Almacen) ActualizarCapitalInversionista(ctx context.Context, inv *domain.Inversionista) error {
	err := a.ejecutar(ctx, `
		UPDATE inversionistas SET capital_actual = ? WHERE id = ?`,
		inv.CapitalActual, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.ActualizarCapitalInversionista: id=%d: %w", inv.ID, err)
	}
	return nil
}

// InsertarEventoLog persiste una entrada del journal. Los campos numéricos
// opcionales viajan como punteros y caen en NULL; el contexto variable va
// como JSON en detalle.
func (a *Almacen) InsertarEventoLog(ctx context.Context, ev domain.Evento, inv *domain.Inversionista) error {
	detalle := []byte("{}")
	if ev.Detalle != nil {
		var err error
		if detalle, err = json.Marshal(ev.Detalle); err != nil {
			return fmt.Errorf("storage.InsertarEventoLog: detalle: %w", err)
		}
	}
	var idInv any
	if inv != nil {
		idInv = inv.ID
	}

	err := a.ejecutar(ctx, `
		INSERT INTO log_operaciones_simuladas
			(id_ejecucion, tipo_evento, ts_evento, id_operacion, id_senal,
			 id_estrategia, id_inversionista, id_operacion_padre, id_vela_1m,
			 ticker, cantidad, stop_loss, take_profit, precio_maximo,
			 precio_minimo, precio_senal, resultado, precio_cierre,
			 capital_antes, capital_despues, motivo_no_operacion,
			 motivo_cierre, detalle)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullStr(ev.IDEjecucion), ev.Tipo, ev.TsEvento.UTC(),
		nullInt64(ev.IDOperacion), nullInt64(ev.SenalID),
		nullInt64(ev.EstrategiaID), idInv, nullInt64(ev.OperacionPadreID),
		nullInt64(ev.IDVelaApertura), nullStr(ev.Ticker), ev.Cantidad,
		ev.StopLoss, ev.TakeProfit, ev.PrecioMax, ev.PrecioMin,
		ev.PrecioSenal, ev.Resultado, ev.PrecioCierre, ev.CapitalAntes,
		ev.CapitalDespues, nullStr(ev.MotivoNoOperacion),
		nullStr(ev.MotivoCierre), string(detalle),
	)
	if err != nil {
		return fmt.Errorf("storage.InsertarEventoLog: %s: %w", ev.Tipo, err)
	}
	return nil
}

// InversionistasActivos devuelve los inversionistas con activo en verdadero,
// en orden de id. Los límites en NULL toman el default del simulador.
func (a *Almacen) InversionistasActivos(ctx context.Context) ([]domain.FilaInversionista, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, capital_aportado, capital_actual, activo,
		       usar_parametros_senal, apalancamiento, apalancamiento_maximo,
		       drawdown_max_pct, riesgo_max_pct, tamano_min_operacion,
		       tamano_max_operacion, max_operaciones_diarias,
		       max_operaciones_abiertas, slippage_open_pct,
		       slippage_close_pct, commission_pct
		FROM inversionistas
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("storage.InversionistasActivos: query: %w", err)
	}
	defer rows.Close()

	var filas []domain.FilaInversionista
	for rows.Next() {
		var (
			f                 domain.FilaInversionista
			activo, usarSenal any
			capAport, capAct  sql.NullFloat64
			apal, apalMax     sql.NullInt64
			maxDia, maxAb     sql.NullInt64
			dd, riesgoPct     sql.NullFloat64
			tamMin, tamMax    sql.NullFloat64
			sOpen, sClose     sql.NullFloat64
			comision          sql.NullFloat64
		)
		if err := rows.Scan(&f.ID, &capAport, &capAct, &activo, &usarSenal,
			&apal, &apalMax, &dd, &riesgoPct, &tamMin, &tamMax,
			&maxDia, &maxAb, &sOpen, &sClose, &comision); err != nil {
			return nil, fmt.Errorf("storage.InversionistasActivos: scan: %w", err)
		}
		if !aBool(activo) {
			continue
		}
		f.CapitalAportado = capAport.Float64
		f.CapitalActual = capAct.Float64
		f.UsarParametrosSenal = aBool(usarSenal)
		f.Apalancamiento = int(apal.Int64)
		f.ApalancamientoMax = int(apalMax.Int64)
		f.DrawdownMaxPct = dd.Float64
		f.RiesgoMaxPct = riesgoPct.Float64
		f.TamanoMin = tamMin.Float64
		f.TamanoMax = tamMax.Float64
		f.MaxOperacionesDiarias = 50
		if maxDia.Valid {
			f.MaxOperacionesDiarias = int(maxDia.Int64)
		}
		f.MaxOperacionesAbiertas = 20
		if maxAb.Valid {
			f.MaxOperacionesAbiertas = int(maxAb.Int64)
		}
		f.SlippageOpenPct = sOpen.Float64
		f.SlippageClosePct = sClose.Float64
		f.CommissionPct = comision.Float64
		filas = append(filas, f)
	}
	return filas, rows.Err()
}

// duracionMinutos mide la vida de la operación en minutos de simulación.
func (a *Almacen) duracionMinutos(op *domain.Operacion) float64 {
	return float64(op.TimestampCierre - op.TimestampApertura)
}
