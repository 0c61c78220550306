// Package compliance implementa el motor de riesgo de conformidad para facturas de
// alimentación escolar: cuatro evaluadores puros, agregación con topes y clasificación.
// El paquete no realiza I/O ni registra logs.
package compliance

import (
	"fmt"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Engine ejecuta los evaluadores y construye el Analysis. Seguro para uso concurrente.
type Engine struct {
	policy   compiledPolicy
	parallel bool
	now      func() time.Time
}

// Option configura el Engine.
type Option func(*Engine)

// WithParallelEvaluation ejecuta los cuatro evaluadores en goroutines; el orden de alertas no cambia.
func WithParallelEvaluation() Option {
	return func(e *Engine) { e.parallel = true }
}

// WithCategoryPolicy reemplaza las listas de términos del evaluador de compatibilidad.
func WithCategoryPolicy(p CategoryPolicy) Option {
	return func(e *Engine) { e.policy = compilePolicy(p) }
}

// WithClock reemplaza el reloj usado para CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine crea un Engine con la política por defecto.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{policy: compilePolicy(DefaultCategoryPolicy()), now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Parallel indica si los evaluadores corren en paralelo.
func (e *Engine) Parallel() bool { return e.parallel }

// slot resultado de un evaluador en su posición canónica.
type slot struct {
	outcome Outcome
	err     error
}

// Analyze valida la factura, ejecuta los evaluadores y devuelve el Analysis (sin ID; lo asigna la
// persistencia). Errores: *domain.ValidationError o *domain.EvaluationError.
func (e *Engine) Analyze(inv *entity.Invoice, priorTotals []decimal.Decimal, ref ReferenceData) (*entity.Analysis, error) {
	if err := Validate(inv); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = NewReferenceTable(entity.ReferenceSnapshot{})
	}

	var details entity.AnalysisDetails
	evaluators := [4]struct {
		name string
		run  func() (Outcome, error)
	}{
		{EvaluatorPrice, func() (Outcome, error) {
			o, d, err := EvaluatePrice(inv.Lines, ref)
			details.Price = d
			return o, err
		}},
		{EvaluatorSupplier, func() (Outcome, error) {
			o, d := EvaluateSupplier(inv.SupplierName, inv.SupplierTaxID, ref)
			details.Supplier = d
			return o, nil
		}},
		{EvaluatorCompatibility, func() (Outcome, error) {
			o, d := evaluateCompatibility(inv.Category, inv.Lines, e.policy)
			details.Compatibility = d
			return o, nil
		}},
		{EvaluatorVolume, func() (Outcome, error) {
			o, d := EvaluateVolume(inv.DeclaredTotal, priorTotals)
			details.Volume = d
			return o, nil
		}},
	}

	var slots [4]slot
	if e.parallel {
		var g errgroup.Group
		for i := range evaluators {
			g.Go(func() error {
				slots[i].outcome, slots[i].err = runGuarded(evaluators[i].name, evaluators[i].run)
				return slots[i].err
			})
		}
		if err := g.Wait(); err != nil {
			// Wait devuelve el primer error en terminar; se informa el primero en orden canónico.
			return nil, firstSlotError(slots[:])
		}
	} else {
		for i := range evaluators {
			slots[i].outcome, slots[i].err = runGuarded(evaluators[i].name, evaluators[i].run)
		}
	}

	// join en orden canónico: price -> supplier -> compatibility -> volume
	alerts := make([]entity.Alert, 0)
	penalty := 0
	for _, s := range slots {
		if s.err != nil {
			return nil, s.err
		}
		alerts = append(alerts, s.outcome.Alerts...)
		penalty += s.outcome.Penalty
	}

	score := Score(penalty)
	a := &entity.Analysis{
		InvoiceID:             inv.ID,
		SchoolID:              inv.SchoolID,
		SupplierName:          inv.SupplierName,
		SupplierTaxID:         inv.SupplierTaxID,
		DeclaredTotal:         inv.DeclaredTotal,
		Score:                 score,
		Tier:                  Classify(score),
		Alerts:                alerts,
		Details:               details,
		RequiresInvestigation: RequiresInvestigation(score, alerts),
		CreatedAt:             e.now().UTC(),
	}
	if v, ok := ref.(versioned); ok {
		a.ReferenceVersion = v.Version()
	}
	return a, nil
}

func firstSlotError(slots []slot) error {
	for _, s := range slots {
		if s.err != nil {
			return s.err
		}
	}
	return nil
}

// runGuarded convierte errores y panics del evaluador en *domain.EvaluationError.
func runGuarded(name string, fn func() (Outcome, error)) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{}
			err = &domain.EvaluationError{Evaluator: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, err = fn()
	if err != nil {
		return Outcome{}, &domain.EvaluationError{Evaluator: name, Err: err}
	}
	return out, nil
}
