package http

import (
	"context"

	"github.com/jhoicas/fiscaliza-api/internal/application/dto"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// SubmissionService recepción y análisis de facturas.
type SubmissionService interface {
	Submit(ctx context.Context, inv *entity.Invoice) (*entity.Analysis, error)
	Reanalyze(ctx context.Context, invoiceID string) (*entity.Analysis, error)
}

// OversightService consultas del órgano fiscalizador.
type OversightService interface {
	Dashboard(ctx context.Context, days int) (*dto.DashboardResponse, error)
	DashboardXLSX(ctx context.Context, days int) ([]byte, error)
	HighRiskSchools(ctx context.Context, days, limit int) (*dto.HighRiskSchoolsResponse, error)
	LatestAnalysis(ctx context.Context, invoiceID string) (*entity.Analysis, error)
	History(ctx context.Context, invoiceID string) (*dto.AnalysisHistoryResponse, error)
	AnalysisPDF(ctx context.Context, invoiceID string) ([]byte, error)
	ListSchoolInvoices(ctx context.Context, schoolID string, page dto.PageRequest) (*dto.InvoiceListResponse, error)
}

// AuthService registro y login.
type AuthService interface {
	RegisterUser(in dto.RegisterRequest) (*dto.UserResponse, error)
	Login(in dto.LoginRequest) (*dto.LoginResponse, error)
}
