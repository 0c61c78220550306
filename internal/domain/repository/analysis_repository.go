package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// AnalysisRepository persistencia append-only de análisis: nunca se actualiza un registro existente.
type AnalysisRepository interface {
	// Create asigna ID si está vacío y agrega el análisis.
	Create(ctx context.Context, analysis *entity.Analysis) error
	// GetLatestByInvoice devuelve el análisis más reciente de la factura, o nil.
	GetLatestByInvoice(ctx context.Context, invoiceID string) (*entity.Analysis, error)
	// ListByInvoice historial completo, del más antiguo al más reciente.
	ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Analysis, error)
	// ListWindow análisis con created_at en [from, to) ordenados por created_at. Límites cero = abiertos.
	ListWindow(ctx context.Context, from, to time.Time) ([]entity.Analysis, error)
}
