// Package nfe convierte documentos NF-e (XML de la nota fiscal electrónica brasileña)
// en facturas del dominio.
package nfe

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/nfekey"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

var _ ports.InvoiceDocumentParser = (*Parser)(nil)

// Tamaño máximo aceptado de un XML de NF-e.
const MaxDocumentSize = 2 << 20

// Parser lee nfeProc, NFe o infNFe sueltos. No valida la firma digital.
type Parser struct{}

// NewParser construye el parser.
func NewParser() *Parser { return &Parser{} }

// ParseInvoice mapea el XML a una factura sin escuela, categoría, ID ni estado.
// Errores de estructura se devuelven como *domain.ValidationError.
func (p *Parser) ParseInvoice(data []byte) (*entity.Invoice, error) {
	if len(data) == 0 {
		return nil, invalid("xml", "empty document")
	}
	if len(data) > MaxDocumentSize {
		return nil, invalid("xml", "document too large")
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, invalid("xml", err.Error())
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return nil, invalid("infNFe", "element not found")
	}

	inv := &entity.Invoice{
		AccessKey:     accessKey(inf.SelectAttrValue("Id", "")),
		Number:        text(inf, "ide/nNF"),
		SupplierName:  text(inf, "emit/xNome"),
		SupplierTaxID: text(inf, "emit/CNPJ"),
	}
	if inv.AccessKey != "" {
		if err := nfekey.Validate(inv.AccessKey); err != nil {
			return nil, invalid("infNFe/@Id", err.Error())
		}
	}
	if inv.Number == "" {
		return nil, invalid("ide/nNF", "required")
	}
	if inv.SupplierTaxID == "" {
		// Emisor persona física: se conserva el CPF para que el evaluador lo marque.
		inv.SupplierTaxID = text(inf, "emit/CPF")
	}

	emission, err := emissionDate(inf)
	if err != nil {
		return nil, err
	}
	inv.EmissionDate = emission

	if inv.DeclaredTotal, err = number(inf, "total/ICMSTot/vNF"); err != nil {
		return nil, err
	}

	for i, det := range inf.SelectElements("det") {
		prod := det.SelectElement("prod")
		if prod == nil {
			return nil, invalid(fmt.Sprintf("det[%d]/prod", i), "element not found")
		}
		qty, err := number(prod, "qCom")
		if err != nil {
			return nil, err
		}
		price, err := number(prod, "vUnCom")
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, entity.InvoiceLine{
			ProductName: text(prod, "xProd"),
			Quantity:    qty,
			Unit:        strings.ToLower(text(prod, "uCom")),
			UnitPrice:   price,
		})
	}
	return inv, nil
}

// charsetReader acepta los encodings declarados habitualmente por emisores de NF-e.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return input, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("encoding no soportado: %s", label)
}

func emissionDate(inf *etree.Element) (time.Time, error) {
	if v := text(inf, "ide/dhEmi"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, invalid("ide/dhEmi", "invalid timestamp")
		}
		return t.UTC(), nil
	}
	if v := text(inf, "ide/dEmi"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, invalid("ide/dEmi", "invalid date")
		}
		return t, nil
	}
	return time.Time{}, invalid("ide/dhEmi", "required")
}

func text(e *etree.Element, path string) string {
	if el := e.FindElement(path); el != nil {
		return strings.TrimSpace(el.Text())
	}
	return ""
}

func number(e *etree.Element, path string) (decimal.Decimal, error) {
	raw := text(e, path)
	if raw == "" {
		return decimal.Zero, invalid(path, "required")
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, invalid(path, "invalid number")
	}
	return v, nil
}

func accessKey(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), "NFe")
}

func invalid(field, reason string) error {
	return &domain.ValidationError{Field: field, Reason: reason}
}
