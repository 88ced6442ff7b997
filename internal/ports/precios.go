package ports

import (
	"context"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// ProveedorPrecios entrega velas 1m por ticker y minuto simulado.
type ProveedorPrecios interface {
	// PrecioEnMinuto devuelve la vela del ticker en el minuto ts, o nil si
	// no existe vela para ese minuto. La ausencia de vela no es un error.
	PrecioEnMinuto(ctx context.Context, ticker string, ts int64) (*domain.RegistroPrecio, error)
}
