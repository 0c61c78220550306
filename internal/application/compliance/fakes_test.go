package compliance_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain"
	rules "github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ── Repositorios en memoria ───────────────────────────────────────────────────

type memInvoices struct {
	mu   sync.Mutex
	byID map[string]*entity.Invoice
}

func newMemInvoices() *memInvoices { return &memInvoices{byID: map[string]*entity.Invoice{}} }

func (m *memInvoices) Create(_ context.Context, inv *entity.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.SchoolID == inv.SchoolID && e.Number == inv.Number {
			return domain.ErrDuplicate
		}
	}
	cp := *inv
	m.byID[inv.ID] = &cp
	return nil
}

func (m *memInvoices) UpdateStatus(_ context.Context, id, status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status, inv.StatusReason = status, reason
	return nil
}

func (m *memInvoices) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvoices) ExistsNumber(_ context.Context, schoolID, number string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.byID {
		if e.SchoolID == schoolID && e.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *memInvoices) ListBySchool(_ context.Context, schoolID string, limit, offset int) ([]*entity.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Invoice
	for _, e := range m.byID {
		if e.SchoolID == schoolID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memInvoices) CountByStatus(_ context.Context, _, _ time.Time) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, e := range m.byID {
		counts[e.Status]++
	}
	return counts, nil
}

func (m *memInvoices) PriorTotals(_ context.Context, schoolID string, before time.Time, excludeID string) ([]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*entity.Invoice
	for _, e := range m.byID {
		if e.SchoolID == schoolID && e.ID != excludeID && e.CreatedAt.Before(before) && e.Status != entity.InvoiceStatusRejected {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	out := make([]decimal.Decimal, 0, len(list))
	for _, e := range list {
		out = append(out, e.DeclaredTotal)
	}
	return out, nil
}

func (m *memInvoices) status(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id].Status
}

type memAnalyses struct {
	mu   sync.Mutex
	seq  int
	list []*entity.Analysis
}

func (m *memAnalyses) Create(_ context.Context, a *entity.Analysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if a.ID == "" {
		a.ID = fmt.Sprintf("analysis-%d", m.seq)
	}
	cp := *a
	m.list = append(m.list, &cp)
	return nil
}

func (m *memAnalyses) GetLatestByInvoice(_ context.Context, invoiceID string) (*entity.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.list) - 1; i >= 0; i-- {
		if m.list[i].InvoiceID == invoiceID {
			return m.list[i], nil
		}
	}
	return nil, nil
}

func (m *memAnalyses) ListByInvoice(_ context.Context, invoiceID string) ([]*entity.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Analysis
	for _, a := range m.list {
		if a.InvoiceID == invoiceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAnalyses) ListWindow(_ context.Context, from, to time.Time) ([]entity.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w := entity.Window{From: from, To: to}
	out := make([]entity.Analysis, 0)
	for _, a := range m.list {
		if w.Contains(a.CreatedAt) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memAnalyses) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.list)
}

// memTx ejecuta fn con los mismos repos en memoria (sin rollback real).
type memTx struct {
	invoices *memInvoices
	analyses *memAnalyses
	err      error
}

func (t *memTx) Run(_ context.Context, fn func(repository.InvoiceRepository, repository.AnalysisRepository) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(t.invoices, t.analyses)
}

// ── Referencia, narrador y métricas ───────────────────────────────────────────

type staticRefs struct{ table *rules.ReferenceTable }

func (s staticRefs) Current(context.Context) (*rules.ReferenceTable, error) { return s.table, nil }

type memReferenceRepo struct {
	mu    sync.Mutex
	snap  entity.ReferenceSnapshot
	calls int
	err   error
}

func (m *memReferenceRepo) Snapshot(ctx context.Context) (*entity.ReferenceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	cp := m.snap
	return &cp, nil
}

func (m *memReferenceRepo) Replace(_ context.Context, snap entity.ReferenceSnapshot, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	return nil
}

type fakeNarrator struct {
	text string
	err  error
	seen *entity.Analysis
}

func (f *fakeNarrator) Narrate(_ context.Context, a *entity.Analysis) (string, error) {
	cp := *a
	f.seen = &cp
	return f.text, f.err
}

type recordingMetrics struct {
	mu         sync.Mutex
	analyses   int
	narratives map[string]int
	rejections map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{narratives: map[string]int{}, rejections: map[string]int{}}
}

func (r *recordingMetrics) ObserveAnalysis(*entity.Analysis) {
	r.mu.Lock()
	r.analyses++
	r.mu.Unlock()
}

func (r *recordingMetrics) ObserveNarrative(source string) {
	r.mu.Lock()
	r.narratives[source]++
	r.mu.Unlock()
}

func (r *recordingMetrics) ObserveRejection(reason string) {
	r.mu.Lock()
	r.rejections[reason]++
	r.mu.Unlock()
}
