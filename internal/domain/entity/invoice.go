package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseCategory categoría declarada de la compra.
type PurchaseCategory string

const (
	CategoryMealSupply PurchaseCategory = "meal-supply" // merenda escolar
	CategoryEquipment  PurchaseCategory = "equipment"
	CategoryServices   PurchaseCategory = "services"
	CategoryOther      PurchaseCategory = "other"
)

// Valid indica si la categoría pertenece a la enumeración.
func (c PurchaseCategory) Valid() bool {
	switch c {
	case CategoryMealSupply, CategoryEquipment, CategoryServices, CategoryOther:
		return true
	}
	return false
}

// Estados de la factura dentro del flujo de fiscalización.
const (
	InvoiceStatusReceived     = "received"      // persistida en crudo, aún sin análisis
	InvoiceStatusRejected     = "rejected"      // estructuralmente inválida (ValidationError)
	InvoiceStatusManualReview = "manual-review" // falla de evaluación; sin score
	InvoiceStatusApproved     = "approved"      // score >= 70
	InvoiceStatusFlagged      = "flagged"       // score < 70
)

// Invoice representa una nota fiscal de compra enviada por una escuela.
// El total declarado no se recalcula: el motor tolera diferencias con la suma de las líneas.
type Invoice struct {
	ID            string
	SchoolID      string
	Number        string // número de la nota (único por escuela)
	AccessKey     string // chave de acesso NF-e (44 dígitos), opcional
	EmissionDate  time.Time
	SupplierName  string
	SupplierTaxID string // CNPJ, con o sin puntuación
	DeclaredTotal decimal.Decimal
	Category      PurchaseCategory
	Lines         []InvoiceLine
	Status        string
	StatusReason  string
	SubmittedBy   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceLine línea de la nota fiscal.
type InvoiceLine struct {
	ProductName string
	Quantity    decimal.Decimal
	Unit        string
	UnitPrice   decimal.Decimal
}

// Subtotal = Quantity * UnitPrice.
func (l InvoiceLine) Subtotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}
