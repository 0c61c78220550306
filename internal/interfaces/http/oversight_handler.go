package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// OversightHandler panel y auditoría del órgano fiscalizador.
type OversightHandler struct {
	oversight  OversightService
	submission SubmissionService
}

// NewOversightHandler construye el handler.
func NewOversightHandler(oversight OversightService, submission SubmissionService) *OversightHandler {
	return &OversightHandler{oversight: oversight, submission: submission}
}

// Dashboard godoc
// @Summary      Panel de fiscalización
// @Tags         oversight
// @Produce      json
// @Param        days  query  int  false  "Ventana en días (default 30)"
// @Success      200   {object}  dto.DashboardResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/oversight/dashboard [get]
func (h *OversightHandler) Dashboard(c *fiber.Ctx) error {
	out, err := h.oversight.Dashboard(c.UserContext(), c.QueryInt("days", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DashboardXLSX godoc
// @Summary      Exportar panel a Excel
// @Tags         oversight
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        days  query  int  false  "Ventana en días (default 30)"
// @Success      200
// @Router       /api/oversight/dashboard.xlsx [get]
func (h *OversightHandler) DashboardXLSX(c *fiber.Ctx) error {
	data, err := h.oversight.DashboardXLSX(c.UserContext(), c.QueryInt("days", 0))
	if err != nil {
		return writeError(c, err)
	}
	name := fmt.Sprintf("fiscalizacion-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}

// HighRiskSchools godoc
// @Summary      Escuelas de alto riesgo
// @Tags         oversight
// @Produce      json
// @Param        days   query  int  false  "Ventana en días (default 30)"
// @Param        limit  query  int  false  "Máximo de escuelas (default 10)"
// @Success      200   {object}  dto.HighRiskSchoolsResponse
// @Router       /api/oversight/high-risk-schools [get]
func (h *OversightHandler) HighRiskSchools(c *fiber.Ctx) error {
	out, err := h.oversight.HighRiskSchools(c.UserContext(), c.QueryInt("days", 0), c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LatestAnalysis godoc
// @Summary      Último análisis de una factura
// @Tags         oversight
// @Produce      json
// @Param        invoiceID  path  string  true  "Factura"
// @Success      200   {object}  entity.Analysis
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/oversight/analyses/{invoiceID} [get]
func (h *OversightHandler) LatestAnalysis(c *fiber.Ctx) error {
	out, err := h.oversight.LatestAnalysis(c.UserContext(), c.Params("invoiceID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de análisis de una factura
// @Tags         oversight
// @Produce      json
// @Param        invoiceID  path  string  true  "Factura"
// @Success      200   {object}  dto.AnalysisHistoryResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/oversight/analyses/{invoiceID}/history [get]
func (h *OversightHandler) History(c *fiber.Ctx) error {
	out, err := h.oversight.History(c.UserContext(), c.Params("invoiceID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ReportPDF godoc
// @Summary      Informe PDF del último análisis
// @Tags         oversight
// @Produce      application/pdf
// @Param        invoiceID  path  string  true  "Factura"
// @Success      200
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/oversight/analyses/{invoiceID}/report.pdf [get]
func (h *OversightHandler) ReportPDF(c *fiber.Ctx) error {
	invoiceID := c.Params("invoiceID")
	data, err := h.oversight.AnalysisPDF(c.UserContext(), invoiceID)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="analisis-`+invoiceID+`.pdf"`)
	return c.Send(data)
}

// Reanalyze godoc
// @Summary      Re-analizar una factura
// @Tags         oversight
// @Produce      json
// @Param        invoiceID  path  string  true  "Factura"
// @Success      201   {object}  entity.Analysis
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/oversight/invoices/{invoiceID}/reanalyze [post]
func (h *OversightHandler) Reanalyze(c *fiber.Ctx) error {
	out, err := h.submission.Reanalyze(c.UserContext(), c.Params("invoiceID"))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
