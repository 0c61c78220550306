// Package oversight contiene los casos de uso del órgano fiscalizador: panel de riesgo,
// escuelas de alto riesgo, historial de análisis y reportes.
package oversight

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/application/dto"
	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	rules "github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
	"github.com/jhoicas/fiscaliza-api/pkg/logger"
)

const (
	defaultPeriodDays = 30
	maxPeriodDays     = 366
	defaultHighRisk   = 10
)

// Deps dependencias del caso de uso. Reports y Exporter pueden ser nil si el despliegue no los usa.
type Deps struct {
	Invoices      repository.InvoiceRepository
	Analyses      repository.AnalysisRepository
	Reports       ports.AnalysisReportGenerator
	Exporter      ports.PortfolioExporter
	DefaultDays   int
	HighRiskLimit int
	Logger        *logger.Logger
	Clock         func() time.Time
}

// UseCase lecturas agregadas sobre los análisis persistidos. No modifica datos.
type UseCase struct {
	invoices      repository.InvoiceRepository
	analyses      repository.AnalysisRepository
	reports       ports.AnalysisReportGenerator
	exporter      ports.PortfolioExporter
	defaultDays   int
	highRiskLimit int
	log           *logger.Logger
	now           func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(d Deps) *UseCase {
	uc := &UseCase{
		invoices:      d.Invoices,
		analyses:      d.Analyses,
		reports:       d.Reports,
		exporter:      d.Exporter,
		defaultDays:   d.DefaultDays,
		highRiskLimit: d.HighRiskLimit,
		log:           d.Logger,
		now:           d.Clock,
	}
	if uc.defaultDays <= 0 {
		uc.defaultDays = defaultPeriodDays
	}
	if uc.highRiskLimit <= 0 {
		uc.highRiskLimit = defaultHighRisk
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// ── Panel ─────────────────────────────────────────────────────────────────────

// Dashboard resume los últimos `days` días. days == 0 usa el valor configurado.
//
// Dos consultas en paralelo:
//  1. ListWindow       → análisis de la ventana, reducidos al último por factura
//  2. CountByStatus    → facturas por estado, incluidas rejected y manual-review
func (uc *UseCase) Dashboard(ctx context.Context, days int) (*dto.DashboardResponse, error) {
	days, err := uc.periodDays(days)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	window := entity.Window{From: now.AddDate(0, 0, -days)}

	type analysesResult struct {
		list []entity.Analysis
		err  error
	}
	type statusResult struct {
		counts map[string]int
		err    error
	}

	analysesCh := make(chan analysesResult, 1)
	statusCh := make(chan statusResult, 1)

	go func() {
		list, err := uc.analyses.ListWindow(ctx, window.From, window.To)
		analysesCh <- analysesResult{list, err}
	}()
	go func() {
		counts, err := uc.invoices.CountByStatus(ctx, window.From, window.To)
		statusCh <- statusResult{counts, err}
	}()

	analyses := <-analysesCh
	status := <-statusCh

	if analyses.err != nil {
		return nil, fmt.Errorf("dashboard: análisis: %w", analyses.err)
	}
	if status.err != nil {
		return nil, fmt.Errorf("dashboard: estados: %w", status.err)
	}
	if status.counts == nil {
		status.counts = map[string]int{}
	}

	summary := rules.Summarize(rules.LatestPerInvoice(analyses.list), window)
	uc.log.Debug().Int("days", days).Int("analyses", summary.Totals.Analyses).
		Int("high_risk", len(summary.HighRiskSchools)).Msg("dashboard generado")

	return &dto.DashboardResponse{
		PeriodDays:    days,
		From:          window.From,
		GeneratedAt:   now,
		InvoiceStatus: status.counts,
		Summary:       summary,
	}, nil
}

// HighRiskSchools escuelas con media < 70, peor primero, limitadas a `limit`.
func (uc *UseCase) HighRiskSchools(ctx context.Context, days, limit int) (*dto.HighRiskSchoolsResponse, error) {
	days, err := uc.periodDays(days)
	if err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &domain.ValidationError{Field: "limit", Reason: "must be >= 0"}
	}
	if limit == 0 {
		limit = uc.highRiskLimit
	}
	window := entity.Window{From: uc.now().UTC().AddDate(0, 0, -days)}
	list, err := uc.analyses.ListWindow(ctx, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("escuelas de alto riesgo: %w", err)
	}

	schools := rules.Summarize(rules.LatestPerInvoice(list), window).HighRiskSchools
	total := len(schools)
	if len(schools) > limit {
		schools = schools[:limit]
	}
	return &dto.HighRiskSchoolsResponse{PeriodDays: days, Total: total, Schools: schools}, nil
}

// DashboardXLSX exporta el resumen del periodo a una planilla.
func (uc *UseCase) DashboardXLSX(ctx context.Context, days int) ([]byte, error) {
	if uc.exporter == nil {
		return nil, fmt.Errorf("exportación de planilla no configurada")
	}
	resp, err := uc.Dashboard(ctx, days)
	if err != nil {
		return nil, err
	}
	data, err := uc.exporter.ExportPortfolio(&resp.Summary)
	if err != nil {
		return nil, fmt.Errorf("exportar planilla: %w", err)
	}
	return data, nil
}

// ── Análisis por factura ──────────────────────────────────────────────────────

// LatestAnalysis último análisis de la factura.
func (uc *UseCase) LatestAnalysis(ctx context.Context, invoiceID string) (*entity.Analysis, error) {
	a, err := uc.analyses.GetLatestByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("último análisis: %w", err)
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

// History todos los análisis de la factura, del más antiguo al más reciente.
func (uc *UseCase) History(ctx context.Context, invoiceID string) (*dto.AnalysisHistoryResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("historial: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.analyses.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("historial: %w", err)
	}
	if list == nil {
		list = []*entity.Analysis{}
	}
	return &dto.AnalysisHistoryResponse{InvoiceID: invoiceID, Analyses: list}, nil
}

// AnalysisPDF genera el PDF de auditoría del último análisis.
func (uc *UseCase) AnalysisPDF(ctx context.Context, invoiceID string) ([]byte, error) {
	if uc.reports == nil {
		return nil, fmt.Errorf("generador de PDF no configurado")
	}
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("reporte: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	a, err := uc.LatestAnalysis(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.reports.GenerateAnalysisReport(inv, a)
	if err != nil {
		return nil, fmt.Errorf("generar PDF: %w", err)
	}
	return pdf, nil
}

// ── Facturas ──────────────────────────────────────────────────────────────────

// ListSchoolInvoices listado paginado de facturas de una escuela, más recientes primero.
func (uc *UseCase) ListSchoolInvoices(ctx context.Context, schoolID string, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	if schoolID == "" {
		return nil, &domain.ValidationError{Field: "school_id", Reason: "required"}
	}
	page.DefaultPage()
	list, err := uc.invoices.ListBySchool(ctx, schoolID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("listar facturas: %w", err)
	}
	items := make([]dto.InvoiceSummaryResponse, 0, len(list))
	for _, inv := range list {
		items = append(items, dto.ToInvoiceSummary(inv))
	}
	return &dto.InvoiceListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func (uc *UseCase) periodDays(days int) (int, error) {
	switch {
	case days == 0:
		return uc.defaultDays, nil
	case days < 0 || days > maxPeriodDays:
		return 0, &domain.ValidationError{Field: "days", Reason: fmt.Sprintf("must be between 1 and %d", maxPeriodDays)}
	}
	return days, nil
}
