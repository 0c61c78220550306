package ports

import "github.com/jhoicas/fiscaliza-api/internal/domain/entity"

// AnalysisReportGenerator genera el PDF de auditoría de un análisis.
type AnalysisReportGenerator interface {
	GenerateAnalysisReport(invoice *entity.Invoice, analysis *entity.Analysis) ([]byte, error)
}

// PortfolioExporter exporta el resumen del portafolio a una planilla.
type PortfolioExporter interface {
	ExportPortfolio(summary *entity.PortfolioSummary) ([]byte, error)
}
