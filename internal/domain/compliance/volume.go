package compliance

import (
	"fmt"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const volumePenalty = 15

var volumeFactor = decimal.NewFromInt(3)

// EvaluateVolume compara el total declarado con la media de los totales previos de la escuela.
// Sin historial no hay evidencia: sin alerta y penalidad 0.
func EvaluateVolume(total decimal.Decimal, priorTotals []decimal.Decimal) (Outcome, entity.VolumeDetail) {
	var out Outcome
	detail := entity.VolumeDetail{HistorySize: len(priorTotals)}
	if len(priorTotals) == 0 {
		return out, detail
	}

	sum := decimal.Zero
	for _, v := range priorTotals {
		sum = sum.Add(v)
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(priorTotals))))
	detail.HistoricalMean = mean.Round(2)

	if !total.GreaterThan(mean.Mul(volumeFactor)) {
		return out, detail
	}

	ev := &entity.VolumeEvidence{
		Total:          total,
		HistoricalMean: mean.Round(2),
		HistorySize:    len(priorTotals),
	}
	if !mean.IsZero() {
		ratio := total.Div(mean).Round(2)
		ev.Ratio = &ratio
	}
	out.Alerts = append(out.Alerts, entity.Alert{
		Kind:           entity.AlertSuspiciousVolume,
		Severity:       entity.SeverityHigh,
		Description:    fmt.Sprintf("Purchase total %s is more than 3x the school's historical mean %s", total.StringFixed(2), mean.StringFixed(2)),
		Evidence:       entity.Evidence{Volume: ev},
		Recommendation: "Verify the justification for the atypical purchase volume.",
	})
	out.Penalty = volumePenalty
	detail.Penalty = volumePenalty
	return out, detail
}
