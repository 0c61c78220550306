package compliance

import (
	"fmt"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// FallbackNarrative texto determinista cuando el narrador externo no está disponible.
func FallbackNarrative(a *entity.Analysis) string {
	if a == nil {
		return ""
	}
	return fmt.Sprintf("Automated analysis flagged %d alert(s); conformity score %.2f/100.", len(a.Alerts), a.Score)
}
