package compliance

import (
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Umbrales de clasificación.
const (
	ThresholdLow    = 90.0
	ThresholdMedium = 70.0
	ThresholdHigh   = 50.0
)

// Score = clamp(100 - penalidades, 0, 100) redondeado a 2 decimales.
func Score(totalPenalty int) float64 {
	s := 100 - totalPenalty
	if s < 0 {
		s = 0
	}
	if s > 100 {
		s = 100
	}
	return round2(float64(s))
}

// Classify función pura del score.
func Classify(score float64) entity.RiskTier {
	switch {
	case score >= ThresholdLow:
		return entity.TierLow
	case score >= ThresholdMedium:
		return entity.TierMedium
	case score >= ThresholdHigh:
		return entity.TierHigh
	default:
		return entity.TierCritical
	}
}

// RequiresInvestigation: score < 70 o cualquier alerta high/critical, aunque el score sea alto.
func RequiresInvestigation(score float64, alerts []entity.Alert) bool {
	if score < ThresholdMedium {
		return true
	}
	for _, a := range alerts {
		if a.Severity.AtLeast(entity.SeverityHigh) {
			return true
		}
	}
	return false
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
