package compliance_test

import (
	"testing"

	"github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferenceTable_CoincidenciaSinAcentosNiMayusculas(t *testing.T) {
	ref := testReference()

	b, ok := ref.LookupPriceBand("FEIJÃO Carioca tipo 1")
	require.True(t, ok)
	assert.Equal(t, "feijao", b.Commodity)

	b, ok = ref.LookupPriceBand("Carne Bovina (acém)")
	require.True(t, ok)
	assert.Equal(t, "carne_bovina", b.Commodity)

	_, ok = ref.LookupPriceBand("Sabonete")
	assert.False(t, ok)
}

func TestReferenceTable_PrimeraCoincidenciaGana(t *testing.T) {
	ref := compliance.NewReferenceTable(entity.ReferenceSnapshot{Bands: []entity.PriceBand{
		band("leite", "litro", "3", "4.5", "6"),
		band("arroz", "kg", "3.5", "4.8", "6.5"),
	}})
	b, ok := ref.LookupPriceBand("Arroz doce com leite")
	require.True(t, ok)
	assert.Equal(t, "leite", b.Commodity)
}

func TestReferenceTable_DenylistPorDigitos(t *testing.T) {
	ref := testReference("12.345.678/0001-90")
	assert.True(t, ref.IsDenylisted("12345678000190"))
	assert.True(t, ref.IsDenylisted("12.345.678/0001-90"))
	assert.False(t, ref.IsDenylisted("12345678000191"))
	assert.False(t, ref.IsDenylisted(""))
	assert.Equal(t, "test-v1", ref.Version())
	assert.Len(t, ref.Bands(), 4)
}

func TestEvaluatePrice_LineasSinBandaSeOmiten(t *testing.T) {
	out, detail, err := compliance.EvaluatePrice([]entity.InvoiceLine{
		line("Sabão em pó", "3", "99"),
		line("Arroz", "1", "7.00"),
	}, testReference())
	require.NoError(t, err)
	assert.Empty(t, out.Alerts)
	assert.Equal(t, 0, out.Penalty)
	assert.Equal(t, 2, detail.LinesChecked)
	assert.Equal(t, 1, detail.LinesMatched)
}

func TestEvaluatePrice_UmbralExacto(t *testing.T) {
	// 7.80 = 1.2 × 6.50 no supera el umbral.
	out, _, err := compliance.EvaluatePrice([]entity.InvoiceLine{line("Arroz", "1", "7.80")}, testReference())
	require.NoError(t, err)
	assert.Empty(t, out.Alerts)

	// 9.75 = 1.5 × 6.50 es high, no critical.
	out, _, err = compliance.EvaluatePrice([]entity.InvoiceLine{line("Arroz", "1", "9.75")}, testReference())
	require.NoError(t, err)
	require.Len(t, out.Alerts, 1)
	assert.Equal(t, entity.SeverityHigh, out.Alerts[0].Severity)
}

func TestEvaluateSupplier_CNPJValido(t *testing.T) {
	out, detail := compliance.EvaluateSupplier("Boa Safra", validCNPJ, testReference())
	assert.Empty(t, out.Alerts)
	assert.True(t, detail.ValidTaxID)
	assert.True(t, detail.ChecksumValid)
	assert.Equal(t, 0, detail.Penalty)
}

func TestEvaluateSupplier_CNPJMalFormado(t *testing.T) {
	out, detail := compliance.EvaluateSupplier("Boa Safra", "11.222.333/0001", testReference())
	require.Len(t, out.Alerts, 1)
	assert.Equal(t, entity.SeverityHigh, out.Alerts[0].Severity)
	assert.Equal(t, 12, out.Alerts[0].Evidence.Supplier.Digits)
	assert.Equal(t, 15, out.Penalty)
	assert.False(t, detail.ValidTaxID)
}

func TestEvaluateCompatibility_UnaAlertaPorTermino(t *testing.T) {
	out, detail := compliance.EvaluateCompatibility(entity.CategoryMealSupply, []entity.InvoiceLine{
		line("Chocolate com balas", "1", "10"),
	}, compliance.DefaultCategoryPolicy())
	require.Len(t, out.Alerts, 2)
	assert.Equal(t, "chocolate", out.Alerts[0].Evidence.Product.Term)
	assert.Equal(t, "balas", out.Alerts[1].Evidence.Product.Term)
	assert.Equal(t, 50, detail.RawPenalty)
	assert.Equal(t, 30, out.Penalty)
}

func TestEvaluateCompatibility_EquipoConAcento(t *testing.T) {
	out, _ := compliance.EvaluateCompatibility(entity.CategoryMealSupply, []entity.InvoiceLine{
		line("Arroz", "1", "5"),
		line("Televisão LED", "1", "2000"),
	}, compliance.DefaultCategoryPolicy())
	require.Len(t, out.Alerts, 1)
	assert.Equal(t, entity.SeverityHigh, out.Alerts[0].Severity)
	assert.Equal(t, 1, out.Alerts[0].Evidence.Product.LineIndex)
	assert.Equal(t, "Verify category or investigate diversion.", out.Alerts[0].Recommendation)
	assert.Equal(t, 20, out.Penalty)
}

func TestEvaluateVolume(t *testing.T) {
	out, detail := compliance.EvaluateVolume(d("500"), []decimal.Decimal{d("100"), d("200")})
	require.Len(t, out.Alerts, 1)
	ev := out.Alerts[0].Evidence.Volume
	require.NotNil(t, ev)
	require.NotNil(t, ev.Ratio)
	assert.Equal(t, "3.33", ev.Ratio.StringFixed(2))
	assert.Equal(t, "150.00", ev.HistoricalMean.StringFixed(2))
	assert.Equal(t, 2, ev.HistorySize)
	assert.Equal(t, 15, detail.Penalty)

	// 450 = 3 × media: no supera.
	out, _ = compliance.EvaluateVolume(d("450"), []decimal.Decimal{d("100"), d("200")})
	assert.Empty(t, out.Alerts)
}

func TestEvaluateVolume_MediaCeroOmiteRatio(t *testing.T) {
	out, _ := compliance.EvaluateVolume(d("10"), []decimal.Decimal{decimal.Zero, decimal.Zero})
	require.Len(t, out.Alerts, 1)
	assert.Nil(t, out.Alerts[0].Evidence.Volume.Ratio)

	out, _ = compliance.EvaluateVolume(decimal.Zero, []decimal.Decimal{decimal.Zero})
	assert.Empty(t, out.Alerts)
}

func TestClassify_Umbrales(t *testing.T) {
	cases := map[float64]entity.RiskTier{
		100: entity.TierLow, 90: entity.TierLow, 89.99: entity.TierMedium,
		70: entity.TierMedium, 69.99: entity.TierHigh, 50: entity.TierHigh,
		49.99: entity.TierCritical, 0: entity.TierCritical,
	}
	for score, want := range cases {
		assert.Equal(t, want, compliance.Classify(score), "score %v", score)
	}
}

func TestScore_Limites(t *testing.T) {
	assert.Equal(t, 100.0, compliance.Score(0))
	assert.Equal(t, 0.0, compliance.Score(130))
	assert.Equal(t, 100.0, compliance.Score(-5))
	assert.Equal(t, 55.0, compliance.Score(45))
}

func TestRequiresInvestigation_AlertaHighConScoreAlto(t *testing.T) {
	high := []entity.Alert{{Severity: entity.SeverityHigh}}
	low := []entity.Alert{{Severity: entity.SeverityLow}, {Severity: entity.SeverityMedium}}
	assert.True(t, compliance.RequiresInvestigation(95, high))
	assert.False(t, compliance.RequiresInvestigation(95, low))
	assert.True(t, compliance.RequiresInvestigation(69.99, nil))
	assert.False(t, compliance.RequiresInvestigation(70, nil))
}
