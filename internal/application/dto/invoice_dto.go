package dto

import (
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// SubmitInvoiceRequest nota fiscal enviada por una escuela (JSON).
// Solo se valida lo necesario para guardarla en crudo; las reglas numéricas las aplica el motor.
type SubmitInvoiceRequest struct {
	SchoolID      string               `json:"school_id" validate:"omitempty,max=64"` // ignorado para rol escola
	Number        string               `json:"number" validate:"required,max=60"`
	AccessKey     string               `json:"access_key" validate:"omitempty,nfekey"`
	EmissionDate  time.Time            `json:"emission_date" validate:"required"`
	SupplierName  string               `json:"supplier_name" validate:"required,max=200"`
	SupplierTaxID string               `json:"supplier_tax_id" validate:"required,max=32"`
	DeclaredTotal decimal.Decimal      `json:"declared_total"`
	Category      string               `json:"category" validate:"required,max=32"`
	Lines         []InvoiceLineRequest `json:"lines" validate:"dive"`
}

// InvoiceLineRequest línea de la nota fiscal.
type InvoiceLineRequest struct {
	ProductName string          `json:"product_name" validate:"max=300"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" validate:"max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ToEntity convierte la solicitud en una factura sin ID ni estado.
func (r SubmitInvoiceRequest) ToEntity() *entity.Invoice {
	inv := &entity.Invoice{
		SchoolID:      r.SchoolID,
		Number:        r.Number,
		AccessKey:     r.AccessKey,
		EmissionDate:  r.EmissionDate,
		SupplierName:  r.SupplierName,
		SupplierTaxID: r.SupplierTaxID,
		DeclaredTotal: r.DeclaredTotal,
		Category:      entity.PurchaseCategory(r.Category),
		Lines:         make([]entity.InvoiceLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		inv.Lines = append(inv.Lines, entity.InvoiceLine{
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Unit:        l.Unit,
			UnitPrice:   l.UnitPrice,
		})
	}
	return inv
}

// SubmissionResponse resultado del envío. La escuela no ve las alertas.
type SubmissionResponse struct {
	InvoiceID string           `json:"invoice_id"`
	Status    string           `json:"status"`
	Score     *float64         `json:"score,omitempty"`
	Message   string           `json:"message"`
	Analysis  *entity.Analysis `json:"analysis,omitempty"` // solo para governo/admin
}

// InvoiceSummaryResponse fila del listado de facturas de una escuela.
type InvoiceSummaryResponse struct {
	ID            string          `json:"id"`
	SchoolID      string          `json:"school_id"`
	Number        string          `json:"number"`
	SupplierName  string          `json:"supplier_name"`
	SupplierTaxID string          `json:"supplier_tax_id"`
	DeclaredTotal decimal.Decimal `json:"declared_total"`
	Category      string          `json:"category"`
	Status        string          `json:"status"`
	StatusReason  string          `json:"status_reason,omitempty"`
	EmissionDate  time.Time       `json:"emission_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceListResponse listado paginado.
type InvoiceListResponse struct {
	Items []InvoiceSummaryResponse `json:"items"`
	Page  PageResponse             `json:"page"`
}

// ToInvoiceSummary mapea la entidad al DTO de listado.
func ToInvoiceSummary(inv *entity.Invoice) InvoiceSummaryResponse {
	return InvoiceSummaryResponse{
		ID:            inv.ID,
		SchoolID:      inv.SchoolID,
		Number:        inv.Number,
		SupplierName:  inv.SupplierName,
		SupplierTaxID: inv.SupplierTaxID,
		DeclaredTotal: inv.DeclaredTotal,
		Category:      string(inv.Category),
		Status:        inv.Status,
		StatusReason:  inv.StatusReason,
		EmissionDate:  inv.EmissionDate,
		CreatedAt:     inv.CreatedAt,
	}
}
