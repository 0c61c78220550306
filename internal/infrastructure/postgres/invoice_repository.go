package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `
	id, school_id, number, COALESCE(access_key, ''), emission_date,
	supplier_name, supplier_tax_id, declared_total, category, status,
	COALESCE(status_reason, ''), COALESCE(submitted_by, ''), created_at, updated_at`

// Create persiste la cabecera y sus líneas en orden.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, school_id, number, access_key, emission_date, supplier_name, supplier_tax_id,
		                      declared_total, category, status, status_reason, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	var emission *time.Time
	if !inv.EmissionDate.IsZero() {
		emission = &inv.EmissionDate
	}
	_, err := r.q.Exec(ctx, query,
		inv.ID, inv.SchoolID, inv.Number, nullIfEmpty(inv.AccessKey), emission,
		inv.SupplierName, inv.SupplierTaxID, inv.DeclaredTotal, string(inv.Category), inv.Status,
		nullIfEmpty(inv.StatusReason), nullIfEmpty(inv.SubmittedBy), inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number %s already exists for school: %w", inv.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}

	const lineQuery = `
		INSERT INTO invoice_lines (invoice_id, position, product_name, quantity, unit, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i, l := range inv.Lines {
		if _, err := r.q.Exec(ctx, lineQuery, inv.ID, i, l.ProductName, l.Quantity, l.Unit, l.UnitPrice); err != nil {
			return fmt.Errorf("insert invoice line %d: %w", i, err)
		}
	}
	return nil
}

// UpdateStatus mueve la factura en el flujo received -> rejected|manual-review|approved|flagged.
func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id, status, reason string) error {
	const query = `
		UPDATE invoices
		SET status = $2, status_reason = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, status, nullIfEmpty(reason))
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene la factura con sus líneas.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT product_name, quantity, unit, unit_price
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.InvoiceLine
		if err := rows.Scan(&l.ProductName, &l.Quantity, &l.Unit, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return inv, rows.Err()
}

// ExistsNumber indica si la escuela ya envió una factura con ese número.
func (r *InvoiceRepo) ExistsNumber(ctx context.Context, schoolID, number string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE school_id = $1 AND number = $2)`,
		schoolID, number,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return exists, nil
}

// ListBySchool lista cabeceras (sin líneas) de la escuela, más recientes primero.
func (r *InvoiceRepo) ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*entity.Invoice, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices WHERE school_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, schoolID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// CountByStatus conteo por estado para el panel (incluye rechazadas y en revisión manual).
func (r *InvoiceRepo) CountByStatus(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, COUNT(*)
		FROM invoices
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		GROUP BY status`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("count invoices by status: %w", err)
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// PriorTotals historial de totales para el evaluador de volumen.
func (r *InvoiceRepo) PriorTotals(ctx context.Context, schoolID string, before time.Time, excludeID string) ([]decimal.Decimal, error) {
	rows, err := r.q.Query(ctx, `
		SELECT declared_total
		FROM invoices
		WHERE school_id = $1 AND created_at < $2 AND id::text <> $3 AND status <> $4
		ORDER BY created_at`, schoolID, before, excludeID, entity.InvoiceStatusRejected)
	if err != nil {
		return nil, fmt.Errorf("prior totals: %w", err)
	}
	defer rows.Close()
	totals := make([]decimal.Decimal, 0)
	for rows.Next() {
		var v decimal.Decimal
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan prior total: %w", err)
		}
		totals = append(totals, v)
	}
	return totals, rows.Err()
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var emission *time.Time
	var category string
	err := row.Scan(
		&inv.ID, &inv.SchoolID, &inv.Number, &inv.AccessKey, &emission,
		&inv.SupplierName, &inv.SupplierTaxID, &inv.DeclaredTotal, &category, &inv.Status,
		&inv.StatusReason, &inv.SubmittedBy, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if emission != nil {
		inv.EmissionDate = *emission
	}
	inv.Category = entity.PurchaseCategory(category)
	return &inv, nil
}
