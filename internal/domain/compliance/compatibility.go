package compliance

import (
	"fmt"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

const (
	forbiddenPenalty = 25
	equipmentPenalty = 20
	compatibilityCap = 30
)

// CategoryPolicy términos que no corresponden a una compra de alimentación escolar.
type CategoryPolicy struct {
	Forbidden []string // consumibles no permitidos (critical)
	Equipment []string // bienes no alimentarios (high)
}

// DefaultCategoryPolicy listas por defecto del programa.
func DefaultCategoryPolicy() CategoryPolicy {
	return CategoryPolicy{
		Forbidden: []string{"refrigerante", "salgadinho", "doce industrializado", "chocolate", "balas", "pirulito", "chips"},
		Equipment: []string{"televisao", "computador", "celular", "tablet", "ar condicionado", "mobilia", "decoracao"},
	}
}

type foldedTerm struct {
	term   string
	folded string
}

type compiledPolicy struct {
	forbidden []foldedTerm
	equipment []foldedTerm
}

func compilePolicy(p CategoryPolicy) compiledPolicy {
	return compiledPolicy{forbidden: foldTerms(p.Forbidden), equipment: foldTerms(p.Equipment)}
}

func foldTerms(terms []string) []foldedTerm {
	out := make([]foldedTerm, 0, len(terms))
	for _, t := range terms {
		if f := fold(t); f != "" {
			out = append(out, foldedTerm{term: t, folded: f})
		}
	}
	return out
}

// EvaluateCompatibility solo aplica a meal-supply. Una alerta por (línea, término);
// penalidad limitada a 30.
func EvaluateCompatibility(category entity.PurchaseCategory, lines []entity.InvoiceLine, policy CategoryPolicy) (Outcome, entity.CompatibilityDetail) {
	return evaluateCompatibility(category, lines, compilePolicy(policy))
}

func evaluateCompatibility(category entity.PurchaseCategory, lines []entity.InvoiceLine, p compiledPolicy) (Outcome, entity.CompatibilityDetail) {
	var out Outcome
	var detail entity.CompatibilityDetail
	if category != entity.CategoryMealSupply {
		return out, detail
	}
	detail.Evaluated = true

	raw := 0
	for i, line := range lines {
		name := fold(line.ProductName)
		for _, t := range p.forbidden {
			if !containsFolded(name, t.folded) {
				continue
			}
			raw += forbiddenPenalty
			out.Alerts = append(out.Alerts, entity.Alert{
				Kind:           entity.AlertIncompatibleProduct,
				Severity:       entity.SeverityCritical,
				Description:    fmt.Sprintf("Product not allowed in school meals: %s", line.ProductName),
				Evidence:       entity.Evidence{Product: &entity.ProductEvidence{Product: line.ProductName, Term: t.term, LineIndex: i}},
				Recommendation: "Block — disallowed under program rules.",
			})
		}
		for _, t := range p.equipment {
			if !containsFolded(name, t.folded) {
				continue
			}
			raw += equipmentPenalty
			out.Alerts = append(out.Alerts, entity.Alert{
				Kind:           entity.AlertIncompatibleProduct,
				Severity:       entity.SeverityHigh,
				Description:    fmt.Sprintf("Non-food item in a meal-supply invoice: %s", line.ProductName),
				Evidence:       entity.Evidence{Product: &entity.ProductEvidence{Product: line.ProductName, Term: t.term, LineIndex: i}},
				Recommendation: "Verify category or investigate diversion.",
			})
		}
	}

	detail.Matches = len(out.Alerts)
	detail.RawPenalty = raw
	detail.Penalty = min(raw, compatibilityCap)
	out.Penalty = detail.Penalty
	return out, detail
}
