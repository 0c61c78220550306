// Package compliance orquesta la recepción de notas fiscales, el motor de riesgo y la
// persistencia append-only de los análisis.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	rules "github.com/jhoicas/fiscaliza-api/internal/domain/compliance"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/domain/repository"
	"github.com/jhoicas/fiscaliza-api/pkg/logger"
)

// Motivos de rechazo para métricas.
const (
	RejectionDuplicate  = "duplicate"
	RejectionValidation = "validation"
	RejectionEvaluation = "evaluation"
)

// SubmissionDeps dependencias del caso de uso. Narrator y Metrics son opcionales.
type SubmissionDeps struct {
	Invoices         repository.InvoiceRepository
	Analyses         repository.AnalysisRepository
	Tx               TxRunner
	References       ReferenceProvider
	Engine           *rules.Engine
	Narrator         ports.Narrator
	Metrics          ports.ComplianceMetrics
	NarrativeTimeout time.Duration
	Logger           *logger.Logger
	Clock            func() time.Time
}

// SubmissionUseCase recibe facturas, las persiste en crudo, las analiza y guarda el resultado.
// Ninguna factura se descarta: las inválidas quedan "rejected" y las que fallan en el motor,
// "manual-review" sin score.
type SubmissionUseCase struct {
	invoices         repository.InvoiceRepository
	analyses         repository.AnalysisRepository
	tx               TxRunner
	refs             ReferenceProvider
	engine           *rules.Engine
	narrator         ports.Narrator
	metrics          ports.ComplianceMetrics
	narrativeTimeout time.Duration
	log              *logger.Logger
	now              func() time.Time
}

// NewSubmissionUseCase construye el caso de uso.
func NewSubmissionUseCase(d SubmissionDeps) *SubmissionUseCase {
	uc := &SubmissionUseCase{
		invoices:         d.Invoices,
		analyses:         d.Analyses,
		tx:               d.Tx,
		refs:             d.References,
		engine:           d.Engine,
		narrator:         d.Narrator,
		metrics:          d.Metrics,
		narrativeTimeout: d.NarrativeTimeout,
		log:              d.Logger,
		now:              d.Clock,
	}
	if uc.engine == nil {
		uc.engine = rules.NewEngine()
	}
	if uc.metrics == nil {
		uc.metrics = ports.NopMetrics{}
	}
	if uc.narrativeTimeout <= 0 {
		uc.narrativeTimeout = 10 * time.Second
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// Submit registra una factura nueva y devuelve su análisis.
// Errores: domain.ErrDuplicate, *domain.ValidationError, *domain.EvaluationError.
func (uc *SubmissionUseCase) Submit(ctx context.Context, inv *entity.Invoice) (*entity.Analysis, error) {
	if inv == nil {
		return nil, &domain.ValidationError{Field: "invoice", Reason: "missing"}
	}
	inv.Number = strings.TrimSpace(inv.Number)
	if inv.Number != "" && inv.SchoolID != "" {
		exists, err := uc.invoices.ExistsNumber(ctx, inv.SchoolID, inv.Number)
		if err != nil {
			return nil, fmt.Errorf("submit: %w", err)
		}
		if exists {
			uc.metrics.ObserveRejection(RejectionDuplicate)
			return nil, fmt.Errorf("nota %s ya registrada para la escuela %s: %w", inv.Number, inv.SchoolID, domain.ErrDuplicate)
		}
	}

	now := uc.now().UTC()
	inv.ID = uuid.New().String()
	inv.Status = entity.InvoiceStatusReceived
	inv.StatusReason = ""
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := uc.invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			uc.metrics.ObserveRejection(RejectionDuplicate)
		}
		return nil, fmt.Errorf("guardar factura: %w", err)
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("school_id", inv.SchoolID).
		Str("number", inv.Number).Int("lines", len(inv.Lines)).Msg("factura recibida")

	return uc.analyze(ctx, inv)
}

// Reanalyze vuelve a correr el motor sobre una factura guardada y agrega un análisis nuevo.
// Los análisis anteriores se conservan para auditoría.
func (uc *SubmissionUseCase) Reanalyze(ctx context.Context, invoiceID string) (*entity.Analysis, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("reanalizar: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	uc.log.Info().Str("invoice_id", inv.ID).Str("previous_status", inv.Status).Msg("re-análisis solicitado")
	return uc.analyze(ctx, inv)
}

func (uc *SubmissionUseCase) analyze(ctx context.Context, inv *entity.Invoice) (*entity.Analysis, error) {
	if err := rules.Validate(inv); err != nil {
		uc.metrics.ObserveRejection(RejectionValidation)
		uc.markStatus(ctx, inv.ID, entity.InvoiceStatusRejected, err.Error())
		return nil, err
	}

	prior, err := uc.invoices.PriorTotals(ctx, inv.SchoolID, inv.CreatedAt, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("historial de la escuela: %w", err)
	}
	ref, err := uc.refs.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("datos de referencia: %w", err)
	}

	analysis, err := uc.engine.Analyze(inv, prior, ref)
	if err != nil {
		if errors.Is(err, domain.ErrEvaluation) {
			uc.metrics.ObserveRejection(RejectionEvaluation)
			uc.markStatus(ctx, inv.ID, entity.InvoiceStatusManualReview, err.Error())
			uc.log.Error().Err(err).Str("invoice_id", inv.ID).Msg("falla del motor; factura en revisión manual")
		}
		return nil, err
	}

	// La narrativa se agrega con el análisis ya final; nunca cambia score, tier ni alertas.
	uc.attachNarrative(ctx, analysis)

	status := entity.InvoiceStatusFlagged
	if analysis.Approved() {
		status = entity.InvoiceStatusApproved
	}
	err = uc.tx.Run(ctx, func(invoiceRepo repository.InvoiceRepository, analysisRepo repository.AnalysisRepository) error {
		if err := analysisRepo.Create(ctx, analysis); err != nil {
			return err
		}
		return invoiceRepo.UpdateStatus(ctx, inv.ID, status, "")
	})
	if err != nil {
		return nil, fmt.Errorf("guardar análisis: %w", err)
	}
	inv.Status = status

	uc.metrics.ObserveAnalysis(analysis)
	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("school_id", inv.SchoolID).
		Str("analysis_id", analysis.ID).
		Float64("score", analysis.Score).
		Str("tier", string(analysis.Tier)).
		Int("alerts", len(analysis.Alerts)).
		Bool("requires_investigation", analysis.RequiresInvestigation).
		Msg("factura analizada")
	return analysis, nil
}

func (uc *SubmissionUseCase) attachNarrative(ctx context.Context, a *entity.Analysis) {
	if uc.narrator != nil {
		nctx, cancel := context.WithTimeout(ctx, uc.narrativeTimeout)
		text, err := uc.narrator.Narrate(nctx, a)
		cancel()
		if err == nil && strings.TrimSpace(text) != "" {
			a.Narrative = strings.TrimSpace(text)
			a.NarrativeSource = entity.NarrativeSourceLLM
			uc.metrics.ObserveNarrative(a.NarrativeSource)
			return
		}
		uc.log.Warn().Err(err).Str("invoice_id", a.InvoiceID).Msg("narrador no disponible; se usa texto de respaldo")
	}
	a.Narrative = rules.FallbackNarrative(a)
	a.NarrativeSource = entity.NarrativeSourceFallback
	uc.metrics.ObserveNarrative(a.NarrativeSource)
}

func (uc *SubmissionUseCase) markStatus(ctx context.Context, invoiceID, status, reason string) {
	if err := uc.invoices.UpdateStatus(ctx, invoiceID, status, reason); err != nil {
		uc.log.Error().Err(err).Str("invoice_id", invoiceID).Str("status", status).Msg("no se pudo actualizar el estado")
	}
}
