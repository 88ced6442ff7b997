package simulador

import (
	"github.com/alejandrodnm/simulador/internal/domain"
)

// ResultadoDCA describe un promedio aplicado sobre una posición abierta.
type ResultadoDCA struct {
	PrecioBase     float64
	PrecioExec     float64
	MontoMargen    float64
	CantidadExtra  float64
	NuevoPromedio  float64
	Apalancamiento int
	Comision       float64
}

// Detalle arma el payload de auditoría del evento dca.
func (r *ResultadoDCA) Detalle() map[string]any {
	return map[string]any{
		"precio_base":    r.PrecioBase,
		"precio_exec":    r.PrecioExec,
		"monto_margen":   r.MontoMargen,
		"qty_add":        r.CantidadExtra,
		"nuevo_prom":     r.NuevoPromedio,
		"apalancamiento": r.Apalancamiento,
		"comision":       r.Comision,
	}
}

// aplicarDCA intenta sumar monto de margen a una operación abierta al precio
// base con slippage de entrada. La cantidad extra usa el apalancamiento de
// la operación y el nuevo precio de entrada es el promedio ponderado por
// cantidad. Si una validación falla devuelve el motivo de rechazo; los
// rechazos son eventos del journal, no errores.
func aplicarDCA(op *domain.Operacion, inv *domain.Inversionista, riesgo domain.ConfigRiesgo, precioBase, monto float64) (*ResultadoDCA, string) {
	if !domain.ValidarLimiteDCA(op, riesgo, monto) {
		return nil, domain.RechazoDCALimiteTamano
	}
	if !domain.ValidarCapitalDisponible(inv, monto) {
		return nil, domain.RechazoDCASinCapital
	}
	precioExec := domain.AplicarSlippage(precioBase, op.Tipo, inv.SlippageOpenPct, domain.LadoEntrada)
	qtyExtra := (monto * float64(op.Apalancamiento)) / precioExec
	comision := domain.CalcularComision(precioExec, qtyExtra, inv.CommissionPct)
	total := monto + comision
	if !domain.ValidarCapitalDisponible(inv, total) {
		return nil, domain.RechazoDCASinCapitalComision
	}

	nuevoProm := (op.PrecioEntrada*op.Cantidad + precioExec*qtyExtra) / (op.Cantidad + qtyExtra)
	op.PrecioEntrada = nuevoProm
	op.Cantidad += qtyExtra
	op.CapitalInvertido += monto
	op.CapitalBloqueado += monto
	op.ComisionesAcumuladas += comision
	domain.DebitarCapital(inv, total)

	return &ResultadoDCA{
		PrecioBase:     precioBase,
		PrecioExec:     precioExec,
		MontoMargen:    monto,
		CantidadExtra:  qtyExtra,
		NuevoPromedio:  nuevoProm,
		Apalancamiento: op.Apalancamiento,
		Comision:       comision,
	}, ""
}
