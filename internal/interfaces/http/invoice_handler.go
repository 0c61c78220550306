package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/fiscaliza-api/internal/application/dto"
	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
)

// InvoiceHandler maneja el envío de notas fiscales por las escuelas.
type InvoiceHandler struct {
	submission SubmissionService
	oversight  OversightService
	parser     ports.InvoiceDocumentParser
}

// NewInvoiceHandler construye el handler. parser puede ser nil (sin endpoint NF-e).
func NewInvoiceHandler(submission SubmissionService, oversight OversightService, parser ports.InvoiceDocumentParser) *InvoiceHandler {
	return &InvoiceHandler{submission: submission, oversight: oversight, parser: parser}
}

// Submit godoc
// @Summary      Enviar nota fiscal (JSON)
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitInvoiceRequest  true  "Nota fiscal"
// @Success      201   {object}  dto.SubmissionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if ok, err := validateBody(c, &in); !ok {
		return err
	}
	inv := in.ToEntity()
	if GetRole(c) == entity.RoleEscola {
		inv.SchoolID = GetSchoolID(c)
	}
	return h.submit(c, inv)
}

// SubmitNFe godoc
// @Summary      Enviar nota fiscal (XML NF-e)
// @Tags         invoices
// @Accept       xml
// @Produce      json
// @Param        category   query  string  false  "Categoría (default meal-supply)"
// @Param        school_id  query  string  false  "Escuela (solo admin)"
// @Success      201   {object}  dto.SubmissionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      413   {object}  dto.ErrorResponse
// @Router       /api/invoices/nfe [post]
func (h *InvoiceHandler) SubmitNFe(c *fiber.Ctx) error {
	if h.parser == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "importación NF-e no configurada"})
	}
	body := c.Body()
	if len(body) == 0 {
		return invalidBody(c)
	}
	inv, err := h.parser.ParseInvoice(body)
	if err != nil {
		return writeError(c, err)
	}
	inv.Category = entity.PurchaseCategory(c.Query("category", string(entity.CategoryMealSupply)))
	if GetRole(c) == entity.RoleEscola {
		inv.SchoolID = GetSchoolID(c)
	} else {
		inv.SchoolID = strings.TrimSpace(c.Query("school_id"))
	}
	return h.submit(c, inv)
}

func (h *InvoiceHandler) submit(c *fiber.Ctx, inv *entity.Invoice) error {
	inv.SubmittedBy = GetUserID(c)
	analysis, err := h.submission.Submit(c.UserContext(), inv)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) && inv.ID != "" {
			// Quedó guardada como rejected; se informa el ID para trazabilidad.
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "VALIDATION",
				Message: "factura " + inv.ID + " rechazada: " + verr.Error(),
				Fields:  map[string]string{verr.Field: verr.Reason},
			})
		}
		return writeError(c, err)
	}
	score := analysis.Score
	out := dto.SubmissionResponse{
		InvoiceID: inv.ID,
		Status:    inv.Status,
		Score:     &score,
		Message:   "factura recibida y analizada",
	}
	if GetRole(c) != entity.RoleEscola {
		out.Analysis = analysis
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListBySchool godoc
// @Summary      Listar facturas de una escuela
// @Tags         invoices
// @Produce      json
// @Param        schoolID  path   string  true   "Escuela"
// @Param        limit     query  int     false  "Límite (default 20)"
// @Param        offset    query  int     false  "Offset"
// @Success      200   {object}  dto.InvoiceListResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/invoices/school/{schoolID} [get]
func (h *InvoiceHandler) ListBySchool(c *fiber.Ctx) error {
	schoolID := c.Params("schoolID")
	if !canAccessSchool(c, schoolID) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo puede consultar su propia escuela"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	if ok, err := validateBody(c, &page); !ok {
		return err
	}
	out, err := h.oversight.ListSchoolInvoices(c.UserContext(), schoolID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
