package ports

import (
	"context"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// Narrator define el puerto de salida hacia el servicio de texto (Anthropic, Gemini, OpenAI).
// Solo redacta una narrativa sobre un Analysis ya final: nunca altera score, tier ni alertas.
// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
type Narrator interface {
	Narrate(ctx context.Context, analysis *entity.Analysis) (string, error)
}
