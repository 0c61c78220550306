package compliance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/application/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	rules "github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func reference(bands ...entity.PriceBand) *rules.ReferenceTable {
	if len(bands) == 0 {
		bands = []entity.PriceBand{
			{Commodity: "arroz", Unit: "kg", Min: d("3.50"), Mean: d("4.80"), Max: d("6.50")},
			{Commodity: "feijao", Unit: "kg", Min: d("5"), Mean: d("7.20"), Max: d("9")},
		}
	}
	return rules.NewReferenceTable(entity.ReferenceSnapshot{Version: "uc-v1", Bands: bands})
}

func invoice(number string, lines ...entity.InvoiceLine) *entity.Invoice {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &entity.Invoice{
		SchoolID:      "school-1",
		Number:        number,
		EmissionDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		SupplierName:  "Distribuidora Boa Safra",
		SupplierTaxID: "11.222.333/0001-81",
		DeclaredTotal: total,
		Category:      entity.CategoryMealSupply,
		Lines:         lines,
	}
}

func rice(qty, price string) entity.InvoiceLine {
	return entity.InvoiceLine{ProductName: "Arroz tipo 1", Quantity: d(qty), Unit: "kg", UnitPrice: d(price)}
}

type fixture struct {
	invoices *memInvoices
	analyses *memAnalyses
	tx       *memTx
	metrics  *recordingMetrics
	uc       *compliance.SubmissionUseCase
}

// tickingClock avanza un minuto por llamada para que el historial quede ordenado.
func tickingClock() func() time.Time {
	t := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newFixture(t *testing.T, ref *rules.ReferenceTable, narrator *fakeNarrator) *fixture {
	t.Helper()
	f := &fixture{invoices: newMemInvoices(), analyses: &memAnalyses{}, metrics: newRecordingMetrics()}
	f.tx = &memTx{invoices: f.invoices, analyses: f.analyses}
	deps := compliance.SubmissionDeps{
		Invoices:   f.invoices,
		Analyses:   f.analyses,
		Tx:         f.tx,
		References: staticRefs{table: ref},
		Metrics:    f.metrics,
		Clock:      tickingClock(),
	}
	if narrator != nil {
		deps.Narrator = narrator
	}
	f.uc = compliance.NewSubmissionUseCase(deps)
	return f
}

func TestSubmit_FacturaLimpia_Aprobada(t *testing.T) {
	f := newFixture(t, reference(), nil)

	a, err := f.uc.Submit(context.Background(), invoice("1001", rice("100", "5.00")))
	require.NoError(t, err)

	assert.Equal(t, 100.0, a.Score)
	assert.Equal(t, entity.TierLow, a.Tier)
	assert.Empty(t, a.Alerts)
	assert.Equal(t, entity.NarrativeSourceFallback, a.NarrativeSource)
	assert.Equal(t, "Automated analysis flagged 0 alert(s); conformity score 100.00/100.", a.Narrative)
	assert.Equal(t, "uc-v1", a.ReferenceVersion)
	assert.NotEmpty(t, a.InvoiceID)

	assert.Equal(t, entity.InvoiceStatusApproved, f.invoices.status(a.InvoiceID))
	assert.Equal(t, 1, f.analyses.count())
	assert.Equal(t, 1, f.metrics.analyses)
	assert.Equal(t, 1, f.metrics.narratives[entity.NarrativeSourceFallback])
}

func TestSubmit_ScoreBajo_Marcada(t *testing.T) {
	f := newFixture(t, reference(), nil)
	inv := invoice("1002", rice("10", "10.00"), entity.InvoiceLine{
		ProductName: "Refrigerante cola 2L", Quantity: d("12"), Unit: "un", UnitPrice: d("4"),
	})
	inv.SupplierTaxID = "123"

	a, err := f.uc.Submit(context.Background(), inv)
	require.NoError(t, err)
	assert.Less(t, a.Score, 70.0)
	assert.True(t, a.RequiresInvestigation)
	assert.Equal(t, entity.InvoiceStatusFlagged, f.invoices.status(a.InvoiceID))
}

func TestSubmit_NumeroDuplicado(t *testing.T) {
	f := newFixture(t, reference(), nil)
	_, err := f.uc.Submit(context.Background(), invoice("2001", rice("10", "5")))
	require.NoError(t, err)

	_, err = f.uc.Submit(context.Background(), invoice(" 2001 ", rice("10", "5")))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
	assert.Equal(t, 1, f.analyses.count())
	assert.Equal(t, 1, f.metrics.rejections[compliance.RejectionDuplicate])
}

func TestSubmit_MismoNumeroOtraEscuela_Permitido(t *testing.T) {
	f := newFixture(t, reference(), nil)
	_, err := f.uc.Submit(context.Background(), invoice("3001", rice("10", "5")))
	require.NoError(t, err)

	other := invoice("3001", rice("10", "5"))
	other.SchoolID = "school-2"
	_, err = f.uc.Submit(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, f.analyses.count())
}

func TestSubmit_FacturaInvalida_QuedaRechazada(t *testing.T) {
	f := newFixture(t, reference(), nil)
	inv := invoice("4001")

	_, err := f.uc.Submit(context.Background(), inv)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "lines", verr.Field)

	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, entity.InvoiceStatusRejected, f.invoices.status(inv.ID))
	assert.Zero(t, f.analyses.count())
	assert.Equal(t, 1, f.metrics.rejections[compliance.RejectionValidation])
}

func TestSubmit_FallaDeEvaluacion_RevisionManual(t *testing.T) {
	bad := entity.PriceBand{Commodity: "arroz", Unit: "kg", Min: d("0"), Mean: d("0"), Max: d("0")}
	f := newFixture(t, reference(bad), nil)
	inv := invoice("5001", rice("10", "5"))

	_, err := f.uc.Submit(context.Background(), inv)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEvaluation))
	var eerr *domain.EvaluationError
	require.ErrorAs(t, err, &eerr)
	assert.Equal(t, rules.EvaluatorPrice, eerr.Evaluator)

	assert.Equal(t, entity.InvoiceStatusManualReview, f.invoices.status(inv.ID))
	assert.Zero(t, f.analyses.count())
	assert.Equal(t, 1, f.metrics.rejections[compliance.RejectionEvaluation])
}

func TestSubmit_NarradorFalla_UsaRespaldo(t *testing.T) {
	narrator := &fakeNarrator{err: errors.New("timeout")}
	f := newFixture(t, reference(), narrator)

	a, err := f.uc.Submit(context.Background(), invoice("6001", rice("10", "8.50")))
	require.NoError(t, err)
	assert.Equal(t, entity.NarrativeSourceFallback, a.NarrativeSource)
	assert.Equal(t, "Automated analysis flagged 1 alert(s); conformity score 90.00/100.", a.Narrative)
	assert.Equal(t, 90.0, a.Score)
}

func TestSubmit_NarradorRespondeVacio_UsaRespaldo(t *testing.T) {
	f := newFixture(t, reference(), &fakeNarrator{text: "   "})

	a, err := f.uc.Submit(context.Background(), invoice("6002", rice("10", "5")))
	require.NoError(t, err)
	assert.Equal(t, entity.NarrativeSourceFallback, a.NarrativeSource)
}

func TestSubmit_NarradorNoAlteraScore(t *testing.T) {
	narrator := &fakeNarrator{text: "  Sobreprecio en arroz.  "}
	f := newFixture(t, reference(), narrator)

	a, err := f.uc.Submit(context.Background(), invoice("7001", rice("10", "8.50")))
	require.NoError(t, err)
	assert.Equal(t, "Sobreprecio en arroz.", a.Narrative)
	assert.Equal(t, entity.NarrativeSourceLLM, a.NarrativeSource)

	require.NotNil(t, narrator.seen)
	assert.Equal(t, a.Score, narrator.seen.Score)
	assert.Equal(t, a.Tier, narrator.seen.Tier)
	assert.Len(t, narrator.seen.Alerts, len(a.Alerts))
	assert.Equal(t, 1, f.metrics.narratives[entity.NarrativeSourceLLM])
}

func TestSubmit_VolumenSospechoso_ConHistorial(t *testing.T) {
	f := newFixture(t, reference(), nil)
	ctx := context.Background()
	for _, n := range []string{"8001", "8002", "8003"} {
		_, err := f.uc.Submit(ctx, invoice(n, rice("100", "5")))
		require.NoError(t, err)
	}

	a, err := f.uc.Submit(ctx, invoice("8004", rice("400", "5")))
	require.NoError(t, err)
	require.Len(t, a.Alerts, 1)
	assert.Equal(t, entity.AlertSuspiciousVolume, a.Alerts[0].Kind)
	assert.Equal(t, 3, a.Details.Volume.HistorySize)
	assert.Equal(t, "500.00", a.Details.Volume.HistoricalMean.StringFixed(2))
}

func TestSubmit_HistorialIgnoraRechazadas(t *testing.T) {
	f := newFixture(t, reference(), nil)
	ctx := context.Background()
	_, err := f.uc.Submit(ctx, invoice("9001"))
	require.Error(t, err)

	a, err := f.uc.Submit(ctx, invoice("9002", rice("100", "5")))
	require.NoError(t, err)
	assert.Zero(t, a.Details.Volume.HistorySize)
}

func TestSubmit_ErrorEnTransaccion(t *testing.T) {
	f := newFixture(t, reference(), nil)
	f.tx.err = errors.New("conexión perdida")

	inv := invoice("9101", rice("10", "5"))
	_, err := f.uc.Submit(context.Background(), inv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conexión perdida")
	assert.Equal(t, entity.InvoiceStatusReceived, f.invoices.status(inv.ID))
	assert.Zero(t, f.metrics.analyses)
}

func TestReanalyze_AgregaNuevoAnalisis(t *testing.T) {
	f := newFixture(t, reference(), nil)
	ctx := context.Background()
	first, err := f.uc.Submit(ctx, invoice("10001", rice("10", "5")))
	require.NoError(t, err)

	second, err := f.uc.Reanalyze(ctx, first.InvoiceID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Score, second.Score)

	history, err := f.analyses.ListByInvoice(ctx, first.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestReanalyze_FacturaInexistente(t *testing.T) {
	f := newFixture(t, reference(), nil)
	_, err := f.uc.Reanalyze(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubmit_Nil(t *testing.T) {
	f := newFixture(t, reference(), nil)
	_, err := f.uc.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
