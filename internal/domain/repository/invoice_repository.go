package repository

import (
	"context"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InvoiceRepository define el puerto de persistencia para facturas enviadas por escuelas.
// Las facturas se guardan en crudo antes de validarse; solo cambian su estado.
type InvoiceRepository interface {
	// Create persiste cabecera y líneas. Devuelve domain.ErrDuplicate si (school_id, number) ya existe.
	Create(ctx context.Context, invoice *entity.Invoice) error
	UpdateStatus(ctx context.Context, id, status, reason string) error
	// GetByID devuelve la factura con sus líneas, o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	ExistsNumber(ctx context.Context, schoolID, number string) (bool, error)
	ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*entity.Invoice, error)
	// CountByStatus conteo de facturas creadas en [from, to) por estado (límites cero = abiertos).
	CountByStatus(ctx context.Context, from, to time.Time) (map[string]int, error)
	// PriorTotals totales declarados de las facturas no rechazadas de la escuela creadas
	// antes de `before`, excluyendo excludeID, en orden cronológico.
	PriorTotals(ctx context.Context, schoolID string, before time.Time, excludeID string) ([]decimal.Decimal, error)
}
