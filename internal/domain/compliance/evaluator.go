package compliance

import "github.com/jhoicas/fiscaliza-api/internal/domain/entity"

// Outcome resultado de un evaluador: alertas en orden de detección y penalidad ya limitada.
type Outcome struct {
	Alerts  []entity.Alert
	Penalty int
}

// Nombres de evaluadores en orden canónico (también usados en EvaluationError).
const (
	EvaluatorPrice         = "price"
	EvaluatorSupplier      = "supplier"
	EvaluatorCompatibility = "compatibility"
	EvaluatorVolume        = "volume"
)
