package compliance

import (
	"context"

	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que el análisis y el estado de la factura se guarden juntos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invoiceRepo repository.InvoiceRepository,
		analysisRepo repository.AnalysisRepository,
	) error) error
}
