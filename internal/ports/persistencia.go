package ports

import (
	"context"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// Persistencia es la superficie de escritura del simulador. Cada método
// ejecuta una sola sentencia en su propia transacción; un error deja la base
// sin el cambio y al inversionista desincronizado (eso lo marca el
// simulador, no el adaptador).
type Persistencia interface {
	// InsertarOperacion da de alta la operación y devuelve su id.
	InsertarOperacion(ctx context.Context, op *domain.Operacion, capitalTotal, capitalDisponible float64) (int64, error)

	// ActualizarCierreTotal persiste el cierre total con su motivo y la vela
	// que lo disparó.
	ActualizarCierreTotal(ctx context.Context, op *domain.Operacion, motivo string, idVelaCierre int64) error

	// ActualizarCierreParcial persiste el cierre parcial del padre y acumula
	// su resultado.
	ActualizarCierreParcial(ctx context.Context, op *domain.Operacion, idVelaCierre int64) error

	// ActualizarExposicion persiste el nuevo promedio, cantidad y capitales
	// tras un DCA.
	ActualizarExposicion(ctx context.Context, op *domain.Operacion) error

	// ActualizarPnLNoRealizado guarda la valuación flotante de una operación
	// que quedó abierta al final de la corrida.
	ActualizarPnLNoRealizado(ctx context.Context, op *domain.Operacion, pyg float64) error

	// ActualizarCapitalInversionista guarda el snapshot final del capital.
	ActualizarCapitalInversionista(ctx context.Context, inv *domain.Inversionista) error

	// InsertarEventoLog persiste una entrada del journal de auditoría.
	InsertarEventoLog(ctx context.Context, ev domain.Evento, inv *domain.Inversionista) error

	// InversionistasActivos devuelve las filas de inversionistas activos, en
	// orden estable por id.
	InversionistasActivos(ctx context.Context) ([]domain.FilaInversionista, error)
}
