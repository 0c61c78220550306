package ports

import "github.com/jhoicas/fiscaliza-api/internal/domain/entity"

// InvoiceDocumentParser convierte un documento fiscal (XML NF-e) en una factura del dominio.
type InvoiceDocumentParser interface {
	ParseInvoice(data []byte) (*entity.Invoice, error)
}
