package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Submission     SubmissionService
	Oversight      OversightService
	Auth           AuthService
	NFeParser      ports.InvoiceDocumentParser // opcional
	MetricsHandler nethttp.Handler             // opcional; expone /metrics
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.Auth)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Invoices: envío por escuelas; listado por escuela (la propia para rol escola)
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Submission, deps.Oversight, deps.NFeParser)
	submitters := RequireRole(entity.RoleEscola, entity.RoleAdmin)
	invoices.Post("/", submitters, invoiceHandler.Submit)
	invoices.Post("/nfe", submitters, invoiceHandler.SubmitNFe)
	invoices.Get("/school/:schoolID", RequireRole(entity.RoleEscola, entity.RoleGoverno, entity.RoleAdmin), invoiceHandler.ListBySchool)

	// Oversight (governo/admin)
	oversight := protected.Group("/oversight", RequireRole(entity.RoleGoverno, entity.RoleAdmin))
	oversightHandler := NewOversightHandler(deps.Oversight, deps.Submission)
	oversight.Get("/dashboard", oversightHandler.Dashboard)
	oversight.Get("/dashboard.xlsx", oversightHandler.DashboardXLSX)
	oversight.Get("/high-risk-schools", oversightHandler.HighRiskSchools)
	oversight.Get("/analyses/:invoiceID", oversightHandler.LatestAnalysis)
	oversight.Get("/analyses/:invoiceID/history", oversightHandler.History)
	oversight.Get("/analyses/:invoiceID/report.pdf", oversightHandler.ReportPDF)
	oversight.Post("/invoices/:invoiceID/reanalyze", oversightHandler.Reanalyze)
}
