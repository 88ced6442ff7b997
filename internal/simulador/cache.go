package simulador

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/simulador/internal/domain"
	"github.com/alejandrodnm/simulador/internal/ports"
)

// CacheEstrategias mantiene en memoria los parámetros de estrategia de la
// corrida, con carga perezosa contra el cargador cuando falta una. Se
// comparte entre los inversionistas de una misma corrida.
type CacheEstrategias struct {
	cargador ports.CargadorEstrategias
	params   map[int64]*domain.ParametrosEstrategia
}

// NuevaCacheEstrategias crea la caché vacía sobre el cargador dado.
func NuevaCacheEstrategias(cargador ports.CargadorEstrategias) *CacheEstrategias {
	return &CacheEstrategias{
		cargador: cargador,
		params:   make(map[int64]*domain.ParametrosEstrategia),
	}
}

// Precargar vuelca de una vez un lote de estrategias ya cargadas.
func (c *CacheEstrategias) Precargar(lote map[int64]*domain.ParametrosEstrategia) {
	for id, p := range lote {
		c.params[id] = p
	}
}

// Obtener devuelve los parámetros de la estrategia, cargándolos del backend
// la primera vez que se piden.
func (c *CacheEstrategias) Obtener(ctx context.Context, id int64) (*domain.ParametrosEstrategia, error) {
	if p, ok := c.params[id]; ok {
		return p, nil
	}
	p, err := c.cargador.CargarParametros(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("simulador: cargar estrategia %d: %w", id, err)
	}
	c.params[id] = p
	return p, nil
}

// Tamano devuelve cuántas estrategias hay en caché.
func (c *CacheEstrategias) Tamano() int {
	return len(c.params)
}
