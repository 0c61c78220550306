package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
)

var _ repository.AnalysisRepository = (*AnalysisRepo)(nil)

// AnalysisRepo persistencia append-only de análisis; alertas y detalles en JSONB.
type AnalysisRepo struct {
	q Querier
}

// NewAnalysisRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAnalysisRepository(q Querier) *AnalysisRepo {
	return &AnalysisRepo{q: q}
}

const analysisColumns = `
	id, invoice_id, school_id, supplier_name, supplier_tax_id, declared_total,
	score, tier, alerts, details, requires_investigation,
	COALESCE(narrative, ''), COALESCE(narrative_source, ''), COALESCE(reference_version, ''), created_at`

// Create inserta un análisis nuevo. Nunca sobrescribe uno anterior.
func (r *AnalysisRepo) Create(ctx context.Context, a *entity.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	alerts := a.Alerts
	if alerts == nil {
		alerts = []entity.Alert{}
	}
	alertsJSON, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("marshal alerts: %w", err)
	}
	detailsJSON, err := json.Marshal(a.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	query := `
		INSERT INTO analyses (id, invoice_id, school_id, supplier_name, supplier_tax_id, declared_total,
		                      score, tier, alerts, details, requires_investigation,
		                      narrative, narrative_source, reference_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.q.Exec(ctx, query,
		a.ID, a.InvoiceID, a.SchoolID, a.SupplierName, a.SupplierTaxID, a.DeclaredTotal,
		a.Score, string(a.Tier), alertsJSON, detailsJSON, a.RequiresInvestigation,
		nullIfEmpty(a.Narrative), nullIfEmpty(a.NarrativeSource), nullIfEmpty(a.ReferenceVersion), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetLatestByInvoice último análisis de la factura.
func (r *AnalysisRepo) GetLatestByInvoice(ctx context.Context, invoiceID string) (*entity.Analysis, error) {
	a, err := scanAnalysis(r.q.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses WHERE invoice_id = $1
		ORDER BY created_at DESC, id DESC LIMIT 1`, invoiceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest analysis: %w", err)
	}
	return a, nil
}

// ListByInvoice historial de auditoría de la factura.
func (r *AnalysisRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]*entity.Analysis, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses WHERE invoice_id = $1
		ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListWindow análisis de la ventana [from, to) en orden temporal, para el agregador de portafolio.
func (r *AnalysisRepo) ListWindow(ctx context.Context, from, to time.Time) ([]entity.Analysis, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at < $2)
		ORDER BY created_at, id`, nullTime(from), nullTime(to))
	if err != nil {
		return nil, fmt.Errorf("list analyses window: %w", err)
	}
	defer rows.Close()
	list := make([]entity.Analysis, 0)
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func scanAnalysis(row pgx.Row) (*entity.Analysis, error) {
	var a entity.Analysis
	var tier string
	var alertsJSON, detailsJSON []byte
	err := row.Scan(
		&a.ID, &a.InvoiceID, &a.SchoolID, &a.SupplierName, &a.SupplierTaxID, &a.DeclaredTotal,
		&a.Score, &tier, &alertsJSON, &detailsJSON, &a.RequiresInvestigation,
		&a.Narrative, &a.NarrativeSource, &a.ReferenceVersion, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Tier = entity.RiskTier(tier)
	if err := json.Unmarshal(alertsJSON, &a.Alerts); err != nil {
		return nil, fmt.Errorf("unmarshal alerts: %w", err)
	}
	if err := json.Unmarshal(detailsJSON, &a.Details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	return &a, nil
}
