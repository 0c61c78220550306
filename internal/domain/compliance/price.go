package compliance

import (
	"fmt"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	priceCriticalPenalty = 20
	priceHighPenalty     = 10
	priceCap             = 40
)

var (
	priceCriticalFactor = decimal.RequireFromString("1.5")
	priceHighFactor     = decimal.RequireFromString("1.2")
	hundred             = decimal.NewFromInt(100)
)

// EvaluatePrice compara el precio unitario de cada línea con su banda de referencia.
// Líneas sin banda se omiten. Una alerta por línea, en orden de línea; penalidad limitada a 40.
func EvaluatePrice(lines []entity.InvoiceLine, ref ReferenceData) (Outcome, entity.PriceDetail, error) {
	var out Outcome
	detail := entity.PriceDetail{LinesChecked: len(lines)}
	raw := 0

	for _, line := range lines {
		band, ok := ref.LookupPriceBand(line.ProductName)
		if !ok {
			continue
		}
		detail.LinesMatched++
		if !band.Mean.IsPositive() || !band.Max.IsPositive() {
			return Outcome{}, entity.PriceDetail{}, fmt.Errorf("banda %q inválida: mean=%s max=%s", band.Commodity, band.Mean, band.Max)
		}

		paid := line.UnitPrice
		var (
			severity entity.Severity
			penalty  int
			desc     string
			action   string
		)
		switch {
		case paid.GreaterThan(band.Max.Mul(priceCriticalFactor)):
			severity, penalty = entity.SeverityCritical, priceCriticalPenalty
			desc = fmt.Sprintf("Unit price far above market reference: %s", line.ProductName)
			action = "Investigate possible overpricing; request quotes from other suppliers."
		case paid.GreaterThan(band.Max.Mul(priceHighFactor)):
			severity, penalty = entity.SeverityHigh, priceHighPenalty
			desc = fmt.Sprintf("Unit price above market reference: %s", line.ProductName)
			action = "Verify the justification for the elevated price."
		default:
			continue
		}

		detail.LinesFlagged++
		raw += penalty
		out.Alerts = append(out.Alerts, entity.Alert{
			Kind:        entity.AlertInflatedPrice,
			Severity:    severity,
			Description: desc,
			Evidence: entity.Evidence{Price: &entity.PriceEvidence{
				Product:      line.ProductName,
				Commodity:    band.Commodity,
				Unit:         band.Unit,
				PaidPrice:    paid,
				MeanPrice:    band.Mean,
				MaxPrice:     band.Max,
				Quantity:     line.Quantity,
				DeviationPct: paid.Sub(band.Mean).Div(band.Mean).Mul(hundred).Round(2),
				ExcessValue:  paid.Sub(band.Max).Mul(line.Quantity).Round(2),
			}},
			Recommendation: action,
		})
	}

	detail.RawPenalty = raw
	detail.Penalty = min(raw, priceCap)
	out.Penalty = detail.Penalty
	return out, detail, nil
}
