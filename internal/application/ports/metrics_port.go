package ports

import "github.com/jhoicas/fiscaliza-api/internal/domain/entity"

// ComplianceMetrics registra contadores del flujo de fiscalización.
type ComplianceMetrics interface {
	ObserveAnalysis(analysis *entity.Analysis)
	ObserveNarrative(source string)
	ObserveRejection(reason string)
}

// NopMetrics implementación vacía.
type NopMetrics struct{}

func (NopMetrics) ObserveAnalysis(*entity.Analysis) {}
func (NopMetrics) ObserveNarrative(string)          {}
func (NopMetrics) ObserveRejection(string)          {}
