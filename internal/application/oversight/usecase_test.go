package oversight_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/application/dto"
	"github.com/jhoicas/fiscaliza-api/internal/application/oversight"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

// ── Fakes ─────────────────────────────────────────────────────────────────────

type stubInvoices struct {
	byID     map[string]*entity.Invoice
	counts   map[string]int
	countErr error
	gotLimit int
	gotOff   int
}

func (s *stubInvoices) Create(context.Context, *entity.Invoice) error { return nil }
func (s *stubInvoices) UpdateStatus(context.Context, string, string, string) error {
	return nil
}
func (s *stubInvoices) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	return s.byID[id], nil
}
func (s *stubInvoices) ExistsNumber(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *stubInvoices) ListBySchool(_ context.Context, schoolID string, limit, offset int) ([]*entity.Invoice, error) {
	s.gotLimit, s.gotOff = limit, offset
	var out []*entity.Invoice
	for _, inv := range s.byID {
		if inv.SchoolID == schoolID {
			out = append(out, inv)
		}
	}
	return out, nil
}
func (s *stubInvoices) CountByStatus(context.Context, time.Time, time.Time) (map[string]int, error) {
	return s.counts, s.countErr
}
func (s *stubInvoices) PriorTotals(context.Context, string, time.Time, string) ([]decimal.Decimal, error) {
	return nil, nil
}

type stubAnalyses struct {
	list    []entity.Analysis
	gotFrom time.Time
}

func (s *stubAnalyses) Create(context.Context, *entity.Analysis) error { return nil }
func (s *stubAnalyses) GetLatestByInvoice(_ context.Context, id string) (*entity.Analysis, error) {
	var latest *entity.Analysis
	for i := range s.list {
		if s.list[i].InvoiceID == id {
			latest = &s.list[i]
		}
	}
	return latest, nil
}
func (s *stubAnalyses) ListByInvoice(_ context.Context, id string) ([]*entity.Analysis, error) {
	var out []*entity.Analysis
	for i := range s.list {
		if s.list[i].InvoiceID == id {
			out = append(out, &s.list[i])
		}
	}
	return out, nil
}
func (s *stubAnalyses) ListWindow(_ context.Context, from, to time.Time) ([]entity.Analysis, error) {
	s.gotFrom = from
	w := entity.Window{From: from, To: to}
	var out []entity.Analysis
	for _, a := range s.list {
		if w.Contains(a.CreatedAt) {
			out = append(out, a)
		}
	}
	return out, nil
}

type stubReports struct{ invoice, analysis string }

func (s *stubReports) GenerateAnalysisReport(inv *entity.Invoice, a *entity.Analysis) ([]byte, error) {
	s.invoice, s.analysis = inv.ID, a.ID
	return []byte("%PDF-1.4"), nil
}

type stubExporter struct{ summary *entity.PortfolioSummary }

func (s *stubExporter) ExportPortfolio(summary *entity.PortfolioSummary) ([]byte, error) {
	s.summary = summary
	return []byte("PK"), nil
}

func analysis(id, invoiceID, schoolID string, score float64, age time.Duration) entity.Analysis {
	tier := entity.TierLow
	if score < 70 {
		tier = entity.TierHigh
	}
	return entity.Analysis{
		ID:            id,
		InvoiceID:     invoiceID,
		SchoolID:      schoolID,
		SupplierName:  "Fornecedor",
		SupplierTaxID: "11222333000181",
		DeclaredTotal: decimal.NewFromInt(100),
		Score:         score,
		Tier:          tier,
		Alerts:        []entity.Alert{},
		CreatedAt:     now.Add(-age),
	}
}

type fixture struct {
	invoices *stubInvoices
	analyses *stubAnalyses
	reports  *stubReports
	exporter *stubExporter
	uc       *oversight.UseCase
}

func newFixture(list ...entity.Analysis) *fixture {
	f := &fixture{
		invoices: &stubInvoices{
			byID: map[string]*entity.Invoice{
				"inv-a": {ID: "inv-a", SchoolID: "school-a", Number: "1", Status: entity.InvoiceStatusApproved},
				"inv-b": {ID: "inv-b", SchoolID: "school-b", Number: "2", Status: entity.InvoiceStatusFlagged},
			},
			counts: map[string]int{entity.InvoiceStatusApproved: 1, entity.InvoiceStatusRejected: 2},
		},
		analyses: &stubAnalyses{list: list},
		reports:  &stubReports{},
		exporter: &stubExporter{},
	}
	f.uc = oversight.NewUseCase(oversight.Deps{
		Invoices: f.invoices,
		Analyses: f.analyses,
		Reports:  f.reports,
		Exporter: f.exporter,
		Clock:    func() time.Time { return now },
	})
	return f
}

const day = 24 * time.Hour

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestDashboard_VentanaPorDefecto30Dias(t *testing.T) {
	f := newFixture(
		analysis("a1", "inv-a", "school-a", 100, day),
		analysis("a2", "inv-b", "school-b", 40, 2*day),
		analysis("old", "inv-c", "school-c", 10, 40*day),
	)

	resp, err := f.uc.Dashboard(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 30, resp.PeriodDays)
	assert.Equal(t, now.AddDate(0, 0, -30), f.analyses.gotFrom)
	assert.Equal(t, now, resp.GeneratedAt)
	assert.Equal(t, 2, resp.Summary.Totals.Analyses)
	assert.Equal(t, 2, resp.InvoiceStatus[entity.InvoiceStatusRejected])
	require.Len(t, resp.Summary.HighRiskSchools, 1)
	assert.Equal(t, "school-b", resp.Summary.HighRiskSchools[0].SchoolID)
	assert.Equal(t, entity.SchoolStatusInvestigationRequired, resp.Summary.HighRiskSchools[0].Status)
}

func TestDashboard_DiasFueraDeRango(t *testing.T) {
	f := newFixture()
	for _, days := range []int{-1, 400} {
		_, err := f.uc.Dashboard(context.Background(), days)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "days", verr.Field)
	}
}

func TestDashboard_ErrorEnConteo(t *testing.T) {
	f := newFixture()
	f.invoices.countErr = errors.New("timeout")
	_, err := f.uc.Dashboard(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "estados")
}

func TestDashboard_SinDatos(t *testing.T) {
	f := newFixture()
	f.invoices.counts = nil
	resp, err := f.uc.Dashboard(context.Background(), 7)
	require.NoError(t, err)
	assert.NotNil(t, resp.InvoiceStatus)
	assert.Zero(t, resp.Summary.Totals.Analyses)
	assert.Empty(t, resp.Summary.HighRiskSchools)
}

func TestHighRiskSchools_Limite(t *testing.T) {
	f := newFixture(
		analysis("a1", "i1", "s1", 60, day),
		analysis("a2", "i2", "s2", 30, day),
		analysis("a3", "i3", "s3", 50, day),
		analysis("a4", "i4", "s4", 95, day),
	)

	resp, err := f.uc.HighRiskSchools(context.Background(), 30, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Schools, 2)
	assert.Equal(t, "s2", resp.Schools[0].SchoolID)
	assert.Equal(t, "s3", resp.Schools[1].SchoolID)
}

func TestDashboard_ReanalisisCuentaSoloElUltimo(t *testing.T) {
	f := newFixture(
		analysis("a1", "inv-a", "school-a", 40, 2*day),
		analysis("a2", "inv-a", "school-a", 90, day),
	)

	resp, err := f.uc.Dashboard(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, resp.Summary.Schools, 1)
	assert.Equal(t, 1, resp.Summary.Schools[0].Analyses)
	assert.Equal(t, 90.0, resp.Summary.Schools[0].MeanScore)
	assert.Empty(t, resp.Summary.HighRiskSchools)

	hr, err := f.uc.HighRiskSchools(context.Background(), 30, 0)
	require.NoError(t, err)
	assert.Zero(t, hr.Total)
	assert.Empty(t, hr.Schools)
}

func TestHighRiskSchools_LimiteNegativo(t *testing.T) {
	_, err := newFixture().uc.HighRiskSchools(context.Background(), 30, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDashboardXLSX_UsaResumen(t *testing.T) {
	f := newFixture(analysis("a1", "inv-a", "school-a", 80, day))
	data, err := f.uc.DashboardXLSX(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), data)
	require.NotNil(t, f.exporter.summary)
	assert.Equal(t, 1, f.exporter.summary.Totals.Analyses)
}

func TestLatestAnalysis(t *testing.T) {
	f := newFixture(
		analysis("a1", "inv-a", "school-a", 80, 2*day),
		analysis("a2", "inv-a", "school-a", 60, day),
	)
	a, err := f.uc.LatestAnalysis(context.Background(), "inv-a")
	require.NoError(t, err)
	assert.Equal(t, "a2", a.ID)

	_, err = f.uc.LatestAnalysis(context.Background(), "inv-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistory(t *testing.T) {
	f := newFixture(
		analysis("a1", "inv-a", "school-a", 80, 2*day),
		analysis("a2", "inv-a", "school-a", 60, day),
	)
	resp, err := f.uc.History(context.Background(), "inv-a")
	require.NoError(t, err)
	require.Len(t, resp.Analyses, 2)
	assert.Equal(t, "a1", resp.Analyses[0].ID)

	resp, err = f.uc.History(context.Background(), "inv-b")
	require.NoError(t, err)
	assert.NotNil(t, resp.Analyses)
	assert.Empty(t, resp.Analyses)

	_, err = f.uc.History(context.Background(), "inv-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysisPDF(t *testing.T) {
	f := newFixture(analysis("a1", "inv-a", "school-a", 80, day))
	pdf, err := f.uc.AnalysisPDF(context.Background(), "inv-a")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	assert.Equal(t, "inv-a", f.reports.invoice)
	assert.Equal(t, "a1", f.reports.analysis)

	_, err = f.uc.AnalysisPDF(context.Background(), "inv-b")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSchoolInvoices(t *testing.T) {
	f := newFixture()
	resp, err := f.uc.ListSchoolInvoices(context.Background(), "school-a", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "inv-a", resp.Items[0].ID)
	assert.Equal(t, 20, f.invoices.gotLimit)
	assert.Equal(t, 20, resp.Page.Limit)

	_, err = f.uc.ListSchoolInvoices(context.Background(), "", dto.PageRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
