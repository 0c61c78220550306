// Package pdf genera el relatório de auditoría de un análisis de riesgo.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Escola + Nota Fiscal   │  Score + Risco             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FORNECEDOR: Nome + CNPJ + Valor total + Categoria          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABELA ITENS: Qtd | Produto | Unid. | P.Unit | Subtotal     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ALERTAS: Severidade | Tipo | Descrição | Recomendação       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PARECER: narrativa                                          │
//	│  FOOTER: QR com a referência do análise + versão referência │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
)

var _ ports.AnalysisReportGenerator = (*MarotoReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorDanger  = &props.Color{Red: 176, Green: 0, Blue: 32}
	colorOK      = &props.Color{Red: 0, Green: 122, Blue: 61}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoReportGenerator implementa ports.AnalysisReportGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// GenerateAnalysisReport genera el PDF y devuelve sus bytes.
func (g *MarotoReportGenerator) GenerateAnalysisReport(invoice *entity.Invoice, analysis *entity.Analysis) ([]byte, error) {
	if invoice == nil || analysis == nil {
		return nil, fmt.Errorf("pdf: factura y análisis son obligatorios")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Relatório de auditoria "+invoice.Number, true).
		WithAuthor("Fiscaliza", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice, analysis))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(supplierRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(sectionTitle("ITENS DA NOTA"))
	m.AddRows(linesHeaderRow())
	m.AddRows(linesRows(invoice.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(sectionTitle(fmt.Sprintf("ALERTAS (%d)", len(analysis.Alerts))))
	m.AddRows(alertRows(analysis.Alerts)...)

	if analysis.Narrative != "" {
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
		m.AddRows(sectionTitle("PARECER"))
		m.AddRows(text.NewRow(6+4*float64(strings.Count(analysis.Narrative, "\n")+len(analysis.Narrative)/110), analysis.Narrative,
			props.Text{Size: 8, Top: 1}))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(invoice, analysis))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: escuela + nota (izq) y score + tier (der).
func headerRow(invoice *entity.Invoice, a *entity.Analysis) core.Row {
	scoreColor := colorOK
	if a.RequiresInvestigation {
		scoreColor = colorDanger
	}
	status := "Aprovada"
	if !a.Approved() {
		status = "Sinalizada"
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New("RELATÓRIO DE AUDITORIA", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Escola: "+invoice.SchoolID, props.Text{Size: 9, Top: 9, Color: colorGray}),
			text.New(fmt.Sprintf("Nota fiscal %s   |   Emissão: %s", invoice.Number, invoice.EmissionDate.Format("02/01/2006")),
				props.Text{Size: 9, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New(fmt.Sprintf("%.2f / 100", a.Score), props.Text{
				Style: fontstyle.Bold, Size: 16, Align: align.Right, Color: scoreColor, Top: 1,
			}),
			text.New(fmt.Sprintf("Risco %s   |   %s", strings.ToUpper(string(a.Tier)), status), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 10,
			}),
			text.New(investigationLabel(a), props.Text{
				Size: 8, Align: align.Right, Top: 15, Color: scoreColor,
			}),
		),
	)
}

func supplierRow(invoice *entity.Invoice) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("FORNECEDOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(invoice.SupplierName, "—"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 5}),
			text.New(fmt.Sprintf("CNPJ: %s   |   Valor total: %s   |   Categoria: %s",
				cnpj.Format(invoice.SupplierTaxID),
				formatMoney(invoice.DeclaredTotal),
				invoice.Category,
			), props.Text{Size: 8, Top: 10, Color: colorGray}),
		),
	)
}

func sectionTitle(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 2}),
	))
}

// linesHeaderRow: cabecera de la tabla de ítems.
func linesHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).WithStyle(&props.Cell{BackgroundColor: colorPrimary}).Add(
		h("Qtd.", 1, align.Center),
		h("Produto", 5, align.Left),
		h("Unid.", 1, align.Center),
		h("Preço Unit.", 2, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

// linesRows: una fila por línea de la nota.
func linesRows(lines []entity.InvoiceLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(l.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(l.ProductName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(1).Add(text.New(l.Unit, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatMoney(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New(formatMoney(l.Subtotal()), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

// alertRows: severidad + tipo, descripción y recomendación.
func alertRows(alerts []entity.Alert) []core.Row {
	if len(alerts) == 0 {
		return []core.Row{row.New(7).Add(col.New(12).Add(
			text.New("Nenhum alerta gerado.", props.Text{Size: 8, Top: 1, Color: colorOK}),
		))}
	}
	result := make([]core.Row, 0, len(alerts))
	for _, al := range alerts {
		sevColor := colorGray
		if al.Severity.AtLeast(entity.SeverityHigh) {
			sevColor = colorDanger
		}
		result = append(result, row.New(13).Add(
			col.New(3).Add(
				text.New(strings.ToUpper(string(al.Severity)), props.Text{Style: fontstyle.Bold, Size: 8, Top: 1, Color: sevColor}),
				text.New(string(al.Kind), props.Text{Size: 7, Top: 6, Color: colorGray}),
			),
			col.New(9).Add(
				text.New(al.Description, props.Text{Size: 8, Top: 1}),
				text.New(al.Recommendation, props.Text{Size: 7, Top: 6, Color: colorGray}),
			),
		))
	}
	return result
}

// footerRow: QR con la referencia del análisis + metadatos de trazabilidad.
func footerRow(invoice *entity.Invoice, a *entity.Analysis) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(analysisReference(invoice, a), props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Análise: "+nonEmpty(a.ID, "—"), props.Text{Size: 8, Top: 4, Left: 3}),
			text.New("Gerada em: "+a.CreatedAt.UTC().Format("02/01/2006 15:04 MST"), props.Text{Size: 8, Top: 9, Left: 3, Color: colorGray}),
			text.New("Dados de referência: "+nonEmpty(a.ReferenceVersion, "—"), props.Text{Size: 8, Top: 14, Left: 3, Color: colorGray}),
			text.New(fmt.Sprintf("Penalidades: preço %d, fornecedor %d, compatibilidade %d, volume %d",
				a.Details.Price.Penalty, a.Details.Supplier.Penalty, a.Details.Compatibility.Penalty, a.Details.Volume.Penalty),
				props.Text{Size: 8, Top: 19, Left: 3, Color: colorGray}),
			text.New("Relatório gerado automaticamente. A narrativa não altera o score nem os alertas.",
				props.Text{Size: 6.5, Top: 28, Left: 3, Color: colorGray}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

// analysisReference contenido del QR.
func analysisReference(invoice *entity.Invoice, a *entity.Analysis) string {
	ref := fmt.Sprintf("fiscaliza:analysis=%s;invoice=%s;school=%s;score=%.2f", a.ID, invoice.ID, invoice.SchoolID, a.Score)
	if invoice.AccessKey != "" {
		ref += ";nfe=" + invoice.AccessKey
	}
	return ref
}

func investigationLabel(a *entity.Analysis) string {
	if a.RequiresInvestigation {
		return "Requer investigação"
	}
	return "Sem indícios relevantes"
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea en reales: "R$ 1.234,56".
func formatMoney(v decimal.Decimal) string {
	s := v.Abs().StringFixed(2)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	sign := ""
	if v.IsNegative() {
		sign = "-"
	}
	return sign + "R$ " + string(buf) + "," + frac
}
