package compliance

import (
	"fmt"
	"strings"

	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// Validate rechaza facturas estructuralmente inválidas. No se puntúa parcialmente:
// el primer campo ofensivo se devuelve como *domain.ValidationError.
func Validate(inv *entity.Invoice) error {
	if inv == nil {
		return &domain.ValidationError{Field: "invoice", Reason: "missing"}
	}
	if strings.TrimSpace(inv.SchoolID) == "" {
		return &domain.ValidationError{Field: "school_id", Reason: "required"}
	}
	if !inv.Category.Valid() {
		return &domain.ValidationError{Field: "category", Reason: fmt.Sprintf("unknown category %q", inv.Category)}
	}
	if inv.DeclaredTotal.IsNegative() {
		return &domain.ValidationError{Field: "declared_total", Reason: "must be >= 0"}
	}
	if len(inv.Lines) == 0 {
		return &domain.ValidationError{Field: "lines", Reason: "at least one line is required"}
	}
	for i, l := range inv.Lines {
		if strings.TrimSpace(l.ProductName) == "" {
			return &domain.ValidationError{Field: fmt.Sprintf("lines[%d].product_name", i), Reason: "required"}
		}
		if !l.Quantity.IsPositive() {
			return &domain.ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Reason: "must be > 0"}
		}
		if l.UnitPrice.IsNegative() {
			return &domain.ValidationError{Field: fmt.Sprintf("lines[%d].unit_price", i), Reason: "must be >= 0"}
		}
	}
	return nil
}
