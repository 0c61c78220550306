package compliance

import (
	"fmt"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
)

const (
	supplierDenylistPenalty  = 30
	supplierMalformedPenalty = 15
)

// denylistDescriber lo implementan las referencias que guardan el motivo de la restricción.
type denylistDescriber interface {
	DenylistEntry(taxID string) (entity.DenylistEntry, bool)
}

// EvaluateSupplier verifica la situación del proveedor. Ambas reglas pueden dispararse (máx. 45),
// la de lista restrictiva primero.
func EvaluateSupplier(name, taxID string, ref ReferenceData) (Outcome, entity.SupplierDetail) {
	var out Outcome
	digits := cnpj.Digits(taxID)
	detail := entity.SupplierDetail{
		ValidTaxID:    len(digits) == cnpj.Length,
		ChecksumValid: cnpj.ValidCheckDigits(digits),
	}

	if ref.IsDenylisted(taxID) {
		detail.Denylisted = true
		ev := &entity.SupplierEvidence{SupplierName: name, TaxID: taxID, Digits: len(digits), Denylisted: true}
		if d, ok := ref.(denylistDescriber); ok {
			if e, found := d.DenylistEntry(taxID); found {
				ev.Reason = e.Reason
			}
		}
		out.Alerts = append(out.Alerts, entity.Alert{
			Kind:           entity.AlertIrregularSupplier,
			Severity:       entity.SeverityCritical,
			Description:    fmt.Sprintf("Supplier with known irregularities: %s", name),
			Evidence:       entity.Evidence{Supplier: ev},
			Recommendation: "Block until regularized.",
		})
		out.Penalty += supplierDenylistPenalty
	}

	if !detail.ValidTaxID {
		out.Alerts = append(out.Alerts, entity.Alert{
			Kind:        entity.AlertIrregularSupplier,
			Severity:    entity.SeverityHigh,
			Description: fmt.Sprintf("Malformed identifier: supplier tax id has %d digits, expected %d", len(digits), cnpj.Length),
			Evidence: entity.Evidence{Supplier: &entity.SupplierEvidence{
				SupplierName: name, TaxID: taxID, Digits: len(digits), Denylisted: detail.Denylisted,
			}},
			Recommendation: "Verify the CNPJ with the federal revenue registry.",
		})
		out.Penalty += supplierMalformedPenalty
	}

	detail.Penalty = out.Penalty
	return out, detail
}
