package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de escuelas de alto riesgo.
const (
	SchoolStatusInvestigationRequired = "investigation-required" // media < 50
	SchoolStatusAttention             = "attention"
)

// Window ventana [From, To) sobre CreatedAt. Un límite cero es abierto.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains indica si t cae dentro de la ventana.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// PortfolioSummary agregado derivado de un conjunto de análisis; se recalcula bajo demanda.
type PortfolioSummary struct {
	Window               Window             `json:"window"`
	TierCounts           map[RiskTier]int   `json:"tier_counts"`
	SeverityDistribution map[Severity]int   `json:"severity_distribution"`
	Schools              []SchoolSummary    `json:"schools"`
	HighRiskSchools      []SchoolSummary    `json:"high_risk_schools"`
	Suppliers            []SupplierSummary  `json:"suppliers"`
	InflatedCommodities  []CommoditySummary `json:"inflated_commodities"`
	Totals               PortfolioTotals    `json:"totals"`
}

// SchoolSummary métricas por escuela.
type SchoolSummary struct {
	SchoolID       string  `json:"school_id"`
	MeanScore      float64 `json:"mean_score"`
	Analyses       int     `json:"analyses"`
	Alerts         int     `json:"alerts"`
	Investigations int     `json:"investigations"`
	Status         string  `json:"status,omitempty"` // solo en HighRiskSchools
}

// SupplierSummary métricas por proveedor (clave: CNPJ normalizado a dígitos).
type SupplierSummary struct {
	TaxID      string          `json:"tax_id"`
	Name       string          `json:"name"`
	MeanScore  float64         `json:"mean_score"`
	TotalValue decimal.Decimal `json:"total_value"`
	Invoices   int             `json:"invoices"`
	Schools    int             `json:"schools"`
}

// CommoditySummary producto con precio pagado por encima de la referencia.
type CommoditySummary struct {
	Commodity     string          `json:"commodity"`
	MeanPaid      decimal.Decimal `json:"mean_paid"`
	ReferenceMean decimal.Decimal `json:"reference_mean"`
	DeviationPct  decimal.Decimal `json:"deviation_pct"`
	Occurrences   int             `json:"occurrences"`
}

// PortfolioTotals totales generales de la ventana.
type PortfolioTotals struct {
	Analyses          int             `json:"analyses"`
	Schools           int             `json:"schools"`
	TotalValue        decimal.Decimal `json:"total_value"`
	MeanScore         float64         `json:"mean_score"`
	ApprovalRate      float64         `json:"approval_rate"` // % con score >= 70
	PotentialRecovery decimal.Decimal `json:"potential_recovery"`
}
