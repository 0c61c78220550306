package dto

import (
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// DashboardResponse panel de fiscalización del órgano gubernamental.
type DashboardResponse struct {
	PeriodDays    int                     `json:"period_days"`
	From          time.Time               `json:"from"`
	GeneratedAt   time.Time               `json:"generated_at"`
	InvoiceStatus map[string]int          `json:"invoice_status"` // incluye rejected y manual-review
	Summary       entity.PortfolioSummary `json:"summary"`
}

// HighRiskSchoolsResponse escuelas con media < 70, peor primero.
type HighRiskSchoolsResponse struct {
	PeriodDays int                    `json:"period_days"`
	Total      int                    `json:"total"`
	Schools    []entity.SchoolSummary `json:"schools"`
}

// AnalysisHistoryResponse historial de auditoría de una factura.
type AnalysisHistoryResponse struct {
	InvoiceID string             `json:"invoice_id"`
	Analyses  []*entity.Analysis `json:"analyses"`
}
