package pdf_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/pdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAnalysisReport_ConAlertas(t *testing.T) {
	inv := &entity.Invoice{
		ID:            "inv-1",
		SchoolID:      "escola-1",
		Number:        "1234",
		AccessKey:     "35250311222333000181550010000012341000012348",
		EmissionDate:  time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		SupplierName:  "Distribuidora Boa Safra",
		SupplierTaxID: "11222333000181",
		DeclaredTotal: decimal.RequireFromString("1285.50"),
		Category:      entity.CategoryMealSupply,
		Lines: []entity.InvoiceLine{
			{ProductName: "Arroz tipo 1", Quantity: decimal.NewFromInt(10), Unit: "kg", UnitPrice: decimal.RequireFromString("8.50")},
		},
	}
	a := &entity.Analysis{
		ID:        "an-1",
		InvoiceID: "inv-1",
		Score:     65,
		Tier:      entity.TierHigh,
		Alerts: []entity.Alert{{
			Kind:           entity.AlertInflatedPrice,
			Severity:       entity.SeverityHigh,
			Description:    "Unit price above market reference: Arroz tipo 1",
			Recommendation: "Verify the justification for the elevated price.",
		}},
		RequiresInvestigation: true,
		Narrative:             "Preço acima da referência.\nRecomendação: Solicitar cotações.",
		ReferenceVersion:      "2025-03",
		CreatedAt:             time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	out, err := pdf.NewMarotoReportGenerator().GenerateAnalysisReport(inv, a)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateAnalysisReport_SinAlertas(t *testing.T) {
	inv := &entity.Invoice{ID: "inv-2", SchoolID: "escola-2", Number: "1", DeclaredTotal: decimal.Zero}
	a := &entity.Analysis{ID: "an-2", Score: 100, Tier: entity.TierLow, Alerts: []entity.Alert{}}

	out, err := pdf.NewMarotoReportGenerator().GenerateAnalysisReport(inv, a)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerateAnalysisReport_SinAnalisis(t *testing.T) {
	_, err := pdf.NewMarotoReportGenerator().GenerateAnalysisReport(&entity.Invoice{}, nil)
	assert.Error(t, err)
}
