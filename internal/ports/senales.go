package ports

import (
	"context"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// ProveedorSenales entrega las señales generadas para un minuto simulado.
type ProveedorSenales interface {
	// SenalesEnMinuto devuelve las señales cuyo timestamp cae exactamente en
	// el minuto ts, en el orden canónico del proveedor. Un minuto sin
	// señales devuelve slice vacío sin error.
	SenalesEnMinuto(ctx context.Context, ts int64) ([]domain.RegistroSenal, error)
}
