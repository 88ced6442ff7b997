package simulador

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/alejandrodnm/simulador/internal/domain"
	"github.com/alejandrodnm/simulador/internal/ports"
)

// Simulador reproduce la historia minuto a minuto para un inversionista:
// primero evalúa cierres sobre las operaciones abiertas, después ingiere las
// señales del minuto (DCA si ya hay posición en esa dirección, apertura si
// no). Toda mutación de estado emite exactamente un evento en la bitácora y
// las escrituras van sincrónicas a persistencia; si una escritura falla, el
// inversionista queda desincronizado y la corrida se detiene para él.
type Simulador struct {
	inv          *domain.Inversionista
	riesgo       domain.ConfigRiesgo
	estrategias  *CacheEstrategias
	senales      ports.ProveedorSenales
	precios      ports.ProveedorPrecios
	bitacora     *Bitacora
	persistencia ports.Persistencia
	base         time.Time

	operaciones   map[int64]*domain.Operacion
	orden         []int64 // ids en orden de alta, para recorrer con determinismo
	porTickerTipo map[string]int64
}

// Nuevo arma el simulador de un inversionista sobre los puertos inyectados.
func Nuevo(
	inv *domain.Inversionista,
	riesgo domain.ConfigRiesgo,
	estrategias *CacheEstrategias,
	senales ports.ProveedorSenales,
	precios ports.ProveedorPrecios,
	bitacora *Bitacora,
	persistencia ports.Persistencia,
	base time.Time,
) *Simulador {
	return &Simulador{
		inv:           inv,
		riesgo:        riesgo,
		estrategias:   estrategias,
		senales:       senales,
		precios:       precios,
		bitacora:      bitacora,
		persistencia:  persistencia,
		base:          base,
		operaciones:   make(map[int64]*domain.Operacion),
		porTickerTipo: make(map[string]int64),
	}
}

// Run recorre los minutos [tsInicio, tsFin] inclusive. Devuelve error solo
// ante fallos de lectura (señales, velas, estrategias) o cancelación; los
// fallos de escritura desincronizan al inversionista y cortan sin error.
func (s *Simulador) Run(ctx context.Context, tsInicio, tsFin int64) error {
	for ts := tsInicio; ts <= tsFin; ts++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.inv.Halted || s.inv.Desincronizado {
			break
		}
		s.inv.ResetDiarioSiCambiaDia(domain.DiaDeMinuto(ts))

		if err := s.procesarCierres(ctx, ts); err != nil {
			return err
		}
		if s.inv.Halted || s.inv.Desincronizado {
			break
		}
		if err := s.procesarSenales(ctx, ts); err != nil {
			return err
		}
	}
	return nil
}

// procesarCierres evalúa la cascada de cierres sobre una foto de las
// operaciones: las hijas que nacen durante la pasada recién se evalúan el
// minuto siguiente.
func (s *Simulador) procesarCierres(ctx context.Context, ts int64) error {
	ids := append([]int64(nil), s.orden...)
	for _, id := range ids {
		op := s.operaciones[id]
		if !op.Abierta {
			continue
		}
		vela, err := s.precios.PrecioEnMinuto(ctx, op.Ticker, ts)
		if err != nil {
			return fmt.Errorf("simulador: leer vela %s ts=%d: %w", op.Ticker, ts, err)
		}
		if vela == nil {
			continue
		}
		op.ActualizarExtremos(vela.High, vela.Low)

		capitalAntes := s.inv.CapitalActual
		ev := evaluarCierres(op, s.inv, vela, ts)
		if ev == nil {
			continue
		}

		switch ev.tipo {
		case domain.EventoCierreTotal:
			if err := s.persistencia.ActualizarCierreTotal(ctx, op, ev.motivo, vela.IDVela); err != nil {
				s.marcarErrorPersistencia(ctx, err, "actualizar_cierre_total")
				return nil
			}
			evento := s.eventoDeOperacion(domain.EventoCierreTotal, op, ts)
			evento.SenalID = 0
			evento.PrecioSenal = nil
			evento.CapitalAntes = capitalAntes
			evento.CapitalDespues = s.inv.CapitalActual
			evento.MotivoCierre = ev.motivo
			evento.Resultado = f64(ev.pnlNet)
			evento.PrecioCierre = f64(ev.precioExec)
			evento.Detalle = detalleCierre(ev)
			s.bitacora.Log(ctx, evento)

		case domain.EventoCierreParcial:
			if err := s.persistencia.ActualizarCierreParcial(ctx, op, vela.IDVela); err != nil {
				s.marcarErrorPersistencia(ctx, err, "actualizar_cierre_parcial")
				return nil
			}
			hija := ev.hija
			idHija, err := s.persistencia.InsertarOperacion(ctx, hija, s.inv.CapitalActual, s.inv.CapitalActual)
			if err != nil {
				s.marcarErrorPersistencia(ctx, err, "insertar_hija_parcial")
				return nil
			}
			hija.ID = idHija
			s.indexar(hija)

			evento := s.eventoDeOperacion(domain.EventoCierreParcial, op, ts)
			evento.SenalID = 0
			evento.PrecioSenal = nil
			evento.CapitalAntes = capitalAntes
			evento.CapitalDespues = s.inv.CapitalActual
			evento.MotivoCierre = ev.motivo
			evento.Resultado = f64(ev.pnlNet)
			evento.PrecioCierre = f64(ev.precioExec)
			evento.Detalle = map[string]any{
				"qty_liq":     ev.cantidadLiq,
				"capital_liq": ev.capitalLiq,
				"precio_exec": ev.precioExec,
				"retro":       ev.retro,
			}
			s.bitacora.Log(ctx, evento)

			alta := s.eventoDeOperacion(domain.EventoAperturaHijaParcial, hija, ts)
			alta.SenalID = 0
			alta.PrecioSenal = nil
			alta.CapitalAntes = s.inv.CapitalActual
			alta.CapitalDespues = s.inv.CapitalActual
			alta.OperacionPadreID = op.ID
			s.bitacora.Log(ctx, alta)
		}

		if s.inv.DrawdownActivo && !s.inv.Halted {
			s.inv.Halted = true
			slog.Info("simulador: drawdown máximo alcanzado, se frena al inversionista",
				"inversionista", s.inv.ID,
				"pnl_acumulado", fmt.Sprintf("%.2f", s.inv.PnLRealizadoAcumulado))
			return nil
		}
		if s.inv.Desincronizado {
			return nil
		}
	}
	return nil
}

// procesarSenales recorre las señales del minuto en orden canónico. Una
// señal sobre una posición abierta en la misma dirección promedia (DCA); si
// no hay posición, abre.
func (s *Simulador) procesarSenales(ctx context.Context, ts int64) error {
	senales, err := s.senales.SenalesEnMinuto(ctx, ts)
	if err != nil {
		return fmt.Errorf("simulador: leer señales ts=%d: %w", ts, err)
	}
	for i := range senales {
		sn := &senales[i]
		if !sn.MultiplicadoresValidos() {
			s.rechazarMultiplicadores(ctx, sn, ts)
			continue
		}
		vela, err := s.precios.PrecioEnMinuto(ctx, sn.Ticker, ts)
		if err != nil {
			return fmt.Errorf("simulador: leer vela %s ts=%d: %w", sn.Ticker, ts, err)
		}
		if vela == nil {
			s.rechazoApertura(ctx, sn, domain.RechazoSinPrecioMinuto, map[string]any{
				"timestamp": domain.FechaDeMinuto(s.base, ts).Format(time.RFC3339),
			}, ts)
			continue
		}
		if op := s.operacionAbierta(sn.Ticker, sn.Tipo); op != nil {
			s.aplicarDCASenal(ctx, op, sn, vela, ts)
		} else if err := s.abrirOperacion(ctx, sn, vela, ts); err != nil {
			return err
		}
		if s.inv.Desincronizado {
			return nil
		}
	}
	return nil
}

// abrirOperacion corre la cadena de validaciones de apertura y, si todas
// pasan, inserta y da de alta la operación. Las validaciones que fallan
// emiten rechazo_apertura y descartan la señal; solo una estrategia
// inexistente es error fatal.
func (s *Simulador) abrirOperacion(ctx context.Context, sn *domain.RegistroSenal, vela *domain.RegistroPrecio, ts int64) error {
	if s.inv.DrawdownActivo || s.inv.Halted {
		s.rechazoApertura(ctx, sn, domain.RechazoHaltedDrawdown, map[string]any{
			"drawdown_activo": s.inv.DrawdownActivo,
			"halted":          s.inv.Halted,
		}, ts)
		return nil
	}
	if !domain.ValidarLimitesInversionista(s.inv) {
		s.rechazoApertura(ctx, sn, domain.RechazoLimites, map[string]any{
			"operaciones_hoy":         s.inv.OperacionesHoy,
			"max_operaciones_diarias": s.inv.MaxOperacionesDiarias,
		}, ts)
		return nil
	}
	abiertas := s.contarAbiertas()
	if !domain.ValidarMaxAbiertas(s.inv, abiertas) {
		s.rechazoApertura(ctx, sn, domain.RechazoMaxAbiertas, map[string]any{
			"abiertas":       abiertas,
			"max_permitidas": s.inv.MaxOperacionesAbiertas,
		}, ts)
		return nil
	}
	apalancamiento := s.seleccionarApalancamiento(sn)
	if apalancamiento == 0 {
		s.rechazoApertura(ctx, sn, domain.RechazoApalancamientoCero, map[string]any{
			"apalancamiento_calculado": sn.Apalancamiento,
		}, ts)
		return nil
	}
	monto := domain.CalcularMontoOperacion(s.inv, s.riesgo)
	if !domain.ValidarMontoRiesgo(s.riesgo, monto) {
		s.rechazoApertura(ctx, sn, domain.RechazoMontoFueraRiesgo, map[string]any{
			"monto":          monto,
			"riesgo_max_pct": s.riesgo.RiesgoMaxPct,
			"tamano_min":     s.riesgo.TamanoMin,
			"tamano_max":     s.riesgo.TamanoMax,
		}, ts)
		return nil
	}

	precioExec := vela.Close
	cantidad := (monto * float64(apalancamiento)) / math.Max(precioExec, 1e-12)
	comision := domain.CalcularComision(precioExec, cantidad, s.inv.CommissionPct)
	total := monto + comision
	if !domain.ValidarCapitalDisponible(s.inv, total) {
		s.rechazoApertura(ctx, sn, domain.RechazoCapitalInsuficiente, map[string]any{
			"capital_actual": s.inv.CapitalActual,
			"total_debitar":  total,
		}, ts)
		return nil
	}

	params, err := s.estrategias.Obtener(ctx, sn.EstrategiaID)
	if err != nil {
		return err
	}

	op := &domain.Operacion{
		InversionistaID:      s.inv.ID,
		EstrategiaID:         sn.EstrategiaID,
		SenalID:              sn.ID,
		Ticker:               sn.Ticker,
		Tipo:                 sn.Tipo,
		PrecioEntrada:        precioExec,
		TakeProfit:           sn.TakeProfit,
		StopLoss:             sn.StopLoss,
		Cantidad:             cantidad,
		Apalancamiento:       apalancamiento,
		CapitalInvertido:     monto,
		CapitalBloqueado:     monto,
		Estrategia:           params,
		Abierta:              true,
		Estado:               domain.EstadoAbierta,
		PrecioMax:            math.Inf(-1),
		PrecioMin:            math.Inf(1),
		ComisionesAcumuladas: comision,
		PermiteParcial:       true,
		TimestampApertura:    ts,
		IDVelaApertura:       vela.IDVela,
		MultSL:               sn.MultSL,
		MultTP:               sn.MultTP,
	}
	op.InicializarExtremos()

	capitalAntes := s.inv.CapitalActual
	id, err := s.persistencia.InsertarOperacion(ctx, op, s.inv.CapitalActual, s.inv.CapitalActual)
	if err != nil {
		s.marcarErrorPersistencia(ctx, err, "insertar_operacion")
		return nil
	}
	op.ID = id
	domain.DebitarCapital(s.inv, total)
	s.inv.OperacionesHoy++
	s.indexar(op)

	ev := s.eventoDeOperacion(domain.EventoApertura, op, ts)
	ev.CapitalAntes = capitalAntes
	ev.CapitalDespues = s.inv.CapitalActual
	ev.Detalle = map[string]any{
		"precio_exec":      precioExec,
		"cantidad":         cantidad,
		"monto_margen":     monto,
		"comision":         comision,
		"apalancamiento":   apalancamiento,
		"mult_sl_asignado": sn.MultSL,
		"mult_tp_asignado": sn.MultTP,
	}
	s.bitacora.Log(ctx, ev)
	return nil
}

// aplicarDCASenal promedia la posición abierta con el monto que dicta el
// sizing y registra el evento dca o su rechazo.
func (s *Simulador) aplicarDCASenal(ctx context.Context, op *domain.Operacion, sn *domain.RegistroSenal, vela *domain.RegistroPrecio, ts int64) {
	capitalAntes := s.inv.CapitalActual
	monto := domain.CalcularMontoOperacion(s.inv, s.riesgo)

	res, rechazo := aplicarDCA(op, s.inv, s.riesgo, vela.Close, monto)
	if rechazo != "" {
		ev := s.eventoDeOperacion(domain.EventoRechazoDCA, op, ts)
		ev.SenalID = sn.ID
		ev.PrecioSenal = f64(sn.PrecioSenal)
		ev.CapitalAntes = capitalAntes
		ev.CapitalDespues = s.inv.CapitalActual
		ev.MotivoNoOperacion = rechazo
		ev.Detalle = map[string]any{
			"motivo":          rechazo,
			"capital_actual":  s.inv.CapitalActual,
			"monto_base":      monto,
			"precio_close":    vela.Close,
			"cantidad_actual": op.Cantidad,
			"apalancamiento":  op.Apalancamiento,
		}
		s.bitacora.Log(ctx, ev)
		return
	}

	if err := s.persistencia.ActualizarExposicion(ctx, op); err != nil {
		s.marcarErrorPersistencia(ctx, err, "actualizar_exposicion")
		return
	}

	ev := s.eventoDeOperacion(domain.EventoDCA, op, ts)
	ev.SenalID = sn.ID
	ev.PrecioSenal = f64(sn.PrecioSenal)
	ev.CapitalAntes = capitalAntes
	ev.CapitalDespues = s.inv.CapitalActual
	ev.Detalle = res.Detalle()
	s.bitacora.Log(ctx, ev)
}

// Finalizar valora las posiciones que quedaron abiertas contra los precios
// de cierre dados; un ticker sin precio se valora a su entrada (flotante 0).
// Anota el resumen del inversionista y persiste el snapshot final de
// capital. Con drawdown activo se omite la valuación pero el resumen igual
// se emite y persiste. Un inversionista desincronizado se deja tal cual: su
// estado en base ya no es confiable. Devuelve el PnL flotante total.
func (s *Simulador) Finalizar(ctx context.Context, preciosCierre map[string]float64) float64 {
	if s.inv.Desincronizado {
		return 0
	}

	var pygTotal float64
	if !s.inv.Halted {
		for _, id := range s.orden {
			op := s.operaciones[id]
			if !op.Abierta || op.Cantidad <= 0 {
				continue
			}
			precio, ok := preciosCierre[op.Ticker]
			if !ok || precio <= 0 {
				precio = op.PrecioEntrada
			}
			pyg := op.PnLNoRealizado(precio)
			pygTotal += pyg
			ev := s.eventoDeOperacion(domain.EventoPnLNoRealizado, op, 0)
			ev.TsEvento = time.Now().UTC()
			ev.CapitalAntes = s.inv.CapitalActual
			ev.CapitalDespues = s.inv.CapitalActual
			ev.Detalle = map[string]any{
				"close":        precio,
				"pnl_flotante": pyg,
			}
			s.bitacora.Log(ctx, ev)
		}
	}

	s.bitacora.Log(ctx, domain.Evento{
		Tipo:           domain.EventoFinalizacion,
		TsEvento:       time.Now().UTC(),
		CapitalAntes:   s.inv.CapitalActual,
		CapitalDespues: s.inv.CapitalActual,
		Detalle: map[string]any{
			"capital_final":           s.inv.CapitalActual,
			"pnl_realizado_acumulado": s.inv.PnLRealizadoAcumulado,
			"pyg_no_realizado_total":  pygTotal,
			"drawdown_activo":         s.inv.DrawdownActivo,
		},
	})

	if err := s.persistencia.ActualizarCapitalInversionista(ctx, s.inv); err != nil {
		s.marcarErrorPersistencia(ctx, err, "finalizar_snapshot")
		return pygTotal
	}
	if !s.inv.Halted {
		for _, id := range s.orden {
			op := s.operaciones[id]
			if !op.Abierta {
				continue
			}
			precio, ok := preciosCierre[op.Ticker]
			if !ok || precio <= 0 {
				precio = op.PrecioEntrada
			}
			if err := s.persistencia.ActualizarPnLNoRealizado(ctx, op, op.PnLNoRealizado(precio)); err != nil {
				s.marcarErrorPersistencia(ctx, err, "finalizar_snapshot")
				return pygTotal
			}
		}
	}
	return pygTotal
}

// Operaciones devuelve las operaciones conocidas en orden de alta.
func (s *Simulador) Operaciones() []*domain.Operacion {
	out := make([]*domain.Operacion, 0, len(s.orden))
	for _, id := range s.orden {
		out = append(out, s.operaciones[id])
	}
	return out
}

// seleccionarApalancamiento resuelve el apalancamiento efectivo según la
// política del inversionista. 0 significa rechazo.
func (s *Simulador) seleccionarApalancamiento(sn *domain.RegistroSenal) int {
	if s.inv.UsarParametrosSenal {
		if sn.Apalancamiento < 1 {
			return 0
		}
		return sn.Apalancamiento
	}
	base := s.inv.Apalancamiento
	if base < 1 && s.inv.ApalancamientoMax > 0 {
		base = s.inv.ApalancamientoMax
	}
	if base < 1 {
		base = 1
	}
	return base
}

// rechazarMultiplicadores descarta una señal sin multiplicadores válidos:
// rechazo_dca si hay posición abierta en esa dirección, rechazo_apertura si
// no.
func (s *Simulador) rechazarMultiplicadores(ctx context.Context, sn *domain.RegistroSenal, ts int64) {
	if op := s.operacionAbierta(sn.Ticker, sn.Tipo); op != nil {
		ev := s.eventoDeOperacion(domain.EventoRechazoDCA, op, ts)
		ev.SenalID = sn.ID
		ev.PrecioSenal = f64(sn.PrecioSenal)
		ev.CapitalAntes = s.inv.CapitalActual
		ev.CapitalDespues = s.inv.CapitalActual
		ev.MotivoNoOperacion = domain.RechazoMultiplicadores
		ev.Detalle = map[string]any{
			"motivo":           domain.RechazoMultiplicadores,
			"mult_sl_asignado": sn.MultSL,
			"mult_tp_asignado": sn.MultTP,
		}
		s.bitacora.Log(ctx, ev)
		return
	}
	s.rechazoApertura(ctx, sn, domain.RechazoMultiplicadores, map[string]any{
		"mult_sl_asignado": sn.MultSL,
		"mult_tp_asignado": sn.MultTP,
	}, ts)
}

// rechazoApertura anota una señal descartada antes de abrir.
func (s *Simulador) rechazoApertura(ctx context.Context, sn *domain.RegistroSenal, motivo string, contexto map[string]any, ts int64) {
	s.bitacora.Log(ctx, domain.Evento{
		Tipo:              domain.EventoRechazoApertura,
		TsEvento:          domain.FechaDeMinuto(s.base, ts),
		SenalID:           sn.ID,
		EstrategiaID:      sn.EstrategiaID,
		Ticker:            sn.Ticker,
		PrecioSenal:       f64(sn.PrecioSenal),
		CapitalAntes:      s.inv.CapitalActual,
		CapitalDespues:    s.inv.CapitalActual,
		MotivoNoOperacion: motivo,
		Detalle: map[string]any{
			"motivo":       motivo,
			"id_senal":     sn.ID,
			"ticker":       sn.Ticker,
			"tipo_senal":   string(sn.Tipo),
			"precio_senal": sn.PrecioSenal,
			"contexto":     contexto,
		},
	})
}

// marcarErrorPersistencia deja al inversionista fuera de juego: el estado en
// memoria ya no coincide con el persistido, así que se frena todo.
func (s *Simulador) marcarErrorPersistencia(ctx context.Context, err error, contexto string) {
	s.inv.Desincronizado = true
	s.inv.Halted = true
	s.bitacora.Log(ctx, domain.Evento{
		Tipo:           domain.EventoErrorPersistencia,
		TsEvento:       time.Now().UTC(),
		CapitalAntes:   s.inv.CapitalActual,
		CapitalDespues: s.inv.CapitalActual,
		Detalle: map[string]any{
			"contexto": contexto,
			"error":    err.Error(),
			"capital":  s.inv.CapitalActual,
		},
	})
	slog.Error("simulador: error de persistencia, inversionista desincronizado",
		"inversionista", s.inv.ID,
		"contexto", contexto,
		"err", err)
}

// eventoDeOperacion arma el evento base con los campos que salen de la
// operación. El llamador completa capitales, motivo, resultado y detalle.
func (s *Simulador) eventoDeOperacion(tipo string, op *domain.Operacion, ts int64) domain.Evento {
	ev := domain.Evento{
		Tipo:           tipo,
		TsEvento:       domain.FechaDeMinuto(s.base, ts),
		IDOperacion:    op.ID,
		SenalID:        op.SenalID,
		EstrategiaID:   op.EstrategiaID,
		IDVelaApertura: op.IDVelaApertura,
		Ticker:         op.Ticker,
		Cantidad:       f64(op.Cantidad),
		StopLoss:       f64(op.StopLoss),
		TakeProfit:     f64(op.TakeProfit),
		PrecioSenal:    f64(op.PrecioEntrada),
	}
	if !math.IsInf(op.PrecioMax, -1) {
		ev.PrecioMax = f64(op.PrecioMax)
	}
	if !math.IsInf(op.PrecioMin, 1) {
		ev.PrecioMin = f64(op.PrecioMin)
	}
	return ev
}

func (s *Simulador) indexar(op *domain.Operacion) {
	s.operaciones[op.ID] = op
	s.orden = append(s.orden, op.ID)
	s.porTickerTipo[claveTickerTipo(op.Ticker, op.Tipo)] = op.ID
}

func (s *Simulador) operacionAbierta(ticker string, tipo domain.TipoOperacion) *domain.Operacion {
	id, ok := s.porTickerTipo[claveTickerTipo(ticker, tipo)]
	if !ok {
		return nil
	}
	op := s.operaciones[id]
	if op == nil || !op.Abierta {
		return nil
	}
	return op
}

func (s *Simulador) contarAbiertas() int {
	n := 0
	for _, op := range s.operaciones {
		if op.Abierta {
			n++
		}
	}
	return n
}

func claveTickerTipo(ticker string, tipo domain.TipoOperacion) string {
	return ticker + ":" + string(tipo)
}

func detalleCierre(ev *eventoCierre) map[string]any {
	detalle := map[string]any{
		"precio_exec": ev.precioExec,
		"comision":    ev.comision,
	}
	if ev.ratioRetro > 0 {
		detalle["ratio_retro"] = ev.ratioRetro
	}
	if ev.retro > 0 {
		detalle["retro"] = ev.retro
	}
	return detalle
}

// f64 devuelve un puntero al valor, para campos opcionales del evento.
func f64(v float64) *float64 {
	return &v
}
