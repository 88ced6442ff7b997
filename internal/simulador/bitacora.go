package simulador

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/simulador/internal/domain"
)

// PersistirEvento escribe un evento del journal en el backend de persistencia.
type PersistirEvento func(ctx context.Context, ev domain.Evento) error

// Bitacora es el journal de auditoría de un inversionista. Cada Log anota el
// evento en memoria y lo empuja de forma síncrona al callback de
// persistencia; un fallo del callback se degrada a warning y nunca
// interrumpe la simulación.
type Bitacora struct {
	idEjecucion string
	eventos     []domain.Evento
	persistir   PersistirEvento
}

// NuevaBitacora crea el journal de una corrida. persistir puede ser nil para
// un journal solo en memoria.
func NuevaBitacora(idEjecucion string, persistir PersistirEvento) *Bitacora {
	return &Bitacora{idEjecucion: idEjecucion, persistir: persistir}
}

// Log sella el evento con el id de ejecución, lo anota y lo persiste.
func (b *Bitacora) Log(ctx context.Context, ev domain.Evento) {
	ev.IDEjecucion = b.idEjecucion
	b.eventos = append(b.eventos, ev)
	if b.persistir == nil {
		return
	}
	if err := b.persistir(ctx, ev); err != nil {
		slog.Warn("bitacora: fallo el callback de persistencia del evento",
			"tipo", ev.Tipo,
			"ticker", ev.Ticker,
			"err", err)
	}
}

// Eventos devuelve el journal acumulado en orden de emisión.
func (b *Bitacora) Eventos() []domain.Evento {
	return b.eventos
}

// ConteoPorTipo agrupa los eventos emitidos por tipo.
func (b *Bitacora) ConteoPorTipo() map[string]int {
	conteo := make(map[string]int, len(b.eventos))
	for _, ev := range b.eventos {
		conteo[ev.Tipo]++
	}
	return conteo
}
