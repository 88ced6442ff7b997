package ports

import (
	"context"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// CargadorEstrategias lee parámetros de estrategia bajo demanda.
type CargadorEstrategias interface {
	// CargarParametros devuelve los parámetros de la estrategia id. Una
	// estrategia inexistente es un error: ninguna operación puede abrirse
	// sin sus umbrales de cierre.
	CargarParametros(ctx context.Context, id int64) (*domain.ParametrosEstrategia, error)
}
