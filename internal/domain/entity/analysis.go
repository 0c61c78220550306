package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertKind tipo de hallazgo.
type AlertKind string

const (
	AlertInflatedPrice       AlertKind = "inflated-price"
	AlertIncompatibleProduct AlertKind = "incompatible-product"
	AlertIrregularSupplier   AlertKind = "irregular-supplier"
	AlertSuspiciousVolume    AlertKind = "suspicious-volume"
	// Reservados en el modelo de datos; ningún evaluador los emite (los duplicados se rechazan antes).
	AlertDuplicate   AlertKind = "duplicate"
	AlertOutOfPeriod AlertKind = "out-of-period"
)

// Severity gravedad ordenada: low < medium < high < critical.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities en orden ascendente.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank posición en el orden de severidad (-1 si es desconocida).
func (s Severity) Rank() int {
	for i, v := range Severities {
		if v == s {
			return i
		}
	}
	return -1
}

// AtLeast indica si s >= other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// RiskTier nivel de riesgo derivado del score.
type RiskTier string

const (
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// RiskTiers en orden de menor a mayor riesgo.
var RiskTiers = []RiskTier{TierLow, TierMedium, TierHigh, TierCritical}

// Alert hallazgo inmutable con evidencia tipada. Exactamente un bloque de Evidence está presente.
type Alert struct {
	Kind           AlertKind `json:"kind"`
	Severity       Severity  `json:"severity"`
	Description    string    `json:"description"`
	Evidence       Evidence  `json:"evidence"`
	Recommendation string    `json:"recommendation"`
}

// Evidence variante etiquetada según el tipo de alerta.
type Evidence struct {
	Price    *PriceEvidence    `json:"price,omitempty"`
	Supplier *SupplierEvidence `json:"supplier,omitempty"`
	Product  *ProductEvidence  `json:"product,omitempty"`
	Volume   *VolumeEvidence   `json:"volume,omitempty"`
}

// PriceEvidence precio pagado vs banda de referencia.
type PriceEvidence struct {
	Product      string          `json:"product"`
	Commodity    string          `json:"commodity"`
	Unit         string          `json:"unit,omitempty"`
	PaidPrice    decimal.Decimal `json:"paid_price"`
	MeanPrice    decimal.Decimal `json:"mean_price"`
	MaxPrice     decimal.Decimal `json:"max_price"`
	Quantity     decimal.Decimal `json:"quantity"`
	DeviationPct decimal.Decimal `json:"deviation_pct"`
	ExcessValue  decimal.Decimal `json:"excess_value"`
}

// SupplierEvidence identidad del proveedor.
type SupplierEvidence struct {
	SupplierName string `json:"supplier_name"`
	TaxID        string `json:"tax_id"`
	Digits       int    `json:"digits"`
	Denylisted   bool   `json:"denylisted"`
	Reason       string `json:"reason,omitempty"`
}

// ProductEvidence término prohibido encontrado en una línea.
type ProductEvidence struct {
	Product   string `json:"product"`
	Term      string `json:"term"`
	LineIndex int    `json:"line_index"`
}

// VolumeEvidence total de la factura vs media histórica de la escuela.
type VolumeEvidence struct {
	Total          decimal.Decimal  `json:"total"`
	HistoricalMean decimal.Decimal  `json:"historical_mean"`
	Ratio          *decimal.Decimal `json:"ratio,omitempty"` // nil si la media es cero
	HistorySize    int              `json:"history_size"`
}

// Analysis resultado inmutable de un análisis. Un re-análisis agrega un registro nuevo.
type Analysis struct {
	ID                    string          `json:"id"`
	InvoiceID             string          `json:"invoice_id"`
	SchoolID              string          `json:"school_id"`
	SupplierName          string          `json:"supplier_name"`
	SupplierTaxID         string          `json:"supplier_tax_id"`
	DeclaredTotal         decimal.Decimal `json:"declared_total"`
	Score                 float64         `json:"score"`
	Tier                  RiskTier        `json:"tier"`
	Alerts                []Alert         `json:"alerts"`
	Details               AnalysisDetails `json:"details"`
	RequiresInvestigation bool            `json:"requires_investigation"`
	Narrative             string          `json:"narrative,omitempty"`
	NarrativeSource       string          `json:"narrative_source,omitempty"`
	ReferenceVersion      string          `json:"reference_version,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// Fuentes de narrativa.
const (
	NarrativeSourceLLM      = "llm"
	NarrativeSourceFallback = "fallback"
)

// AnalysisDetails bloques de auditoría por evaluador.
type AnalysisDetails struct {
	Price         PriceDetail         `json:"price"`
	Supplier      SupplierDetail      `json:"supplier"`
	Compatibility CompatibilityDetail `json:"compatibility"`
	Volume        VolumeDetail        `json:"volume"`
}

// PriceDetail resumen del evaluador de precios.
type PriceDetail struct {
	LinesChecked int `json:"lines_checked"`
	LinesMatched int `json:"lines_matched"`
	LinesFlagged int `json:"lines_flagged"`
	RawPenalty   int `json:"raw_penalty"`
	Penalty      int `json:"penalty"`
}

// SupplierDetail resumen del evaluador de proveedor.
type SupplierDetail struct {
	Denylisted    bool `json:"denylisted"`
	ValidTaxID    bool `json:"valid_tax_id"`
	ChecksumValid bool `json:"checksum_valid"` // informativo; no penaliza
	Penalty       int  `json:"penalty"`
}

// CompatibilityDetail resumen del evaluador de compatibilidad.
type CompatibilityDetail struct {
	Evaluated  bool `json:"evaluated"`
	Matches    int  `json:"matches"`
	RawPenalty int  `json:"raw_penalty"`
	Penalty    int  `json:"penalty"`
}

// VolumeDetail resumen del evaluador de volumen.
type VolumeDetail struct {
	HistorySize    int             `json:"history_size"`
	HistoricalMean decimal.Decimal `json:"historical_mean"`
	Penalty        int             `json:"penalty"`
}

// TotalPenalty suma de las penalidades de los cuatro evaluadores.
func (d AnalysisDetails) TotalPenalty() int {
	return d.Price.Penalty + d.Supplier.Penalty + d.Compatibility.Penalty + d.Volume.Penalty
}

// Approved indica score >= 70.
func (a *Analysis) Approved() bool {
	return a.Score >= 70
}
