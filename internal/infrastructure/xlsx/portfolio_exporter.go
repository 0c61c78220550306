// Package xlsx exporta el resumen del portafolio de fiscalización a una planilla Excel.
package xlsx

import (
	"fmt"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

var _ ports.PortfolioExporter = (*Exporter)(nil)

// Nombres de las hojas, en orden.
const (
	SheetSummary     = "Resumen"
	SheetSchools     = "Escuelas"
	SheetSuppliers   = "Proveedores"
	SheetCommodities = "Productos"
)

// Exporter implementa ports.PortfolioExporter con excelize.
type Exporter struct{}

// NewExporter construye el exportador.
func NewExporter() *Exporter { return &Exporter{} }

// ExportPortfolio escribe una hoja por sección y devuelve el .xlsx en memoria.
func (e *Exporter) ExportPortfolio(s *entity.PortfolioSummary) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("xlsx: resumen vacío")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	for _, name := range []string{SheetSchools, SheetSuppliers, SheetCommodities} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("xlsx: hoja %s: %w", name, err)
		}
	}

	if err := writeRows(f, SheetSummary, summaryRows(s)); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetSchools, schoolRows(s)); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetSuppliers, supplierRows(s.Suppliers)); err != nil {
		return nil, err
	}
	if err := writeRows(f, SheetCommodities, commodityRows(s.InflatedCommodities)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("xlsx: hoja %s fila %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func summaryRows(s *entity.PortfolioSummary) [][]any {
	t := s.Totals
	rows := [][]any{
		{"Indicador", "Valor"},
		{"Desde", windowBound(s.Window.From)},
		{"Hasta", windowBound(s.Window.To)},
		{"Análisis", t.Analyses},
		{"Escuelas", t.Schools},
		{"Valor total", t.TotalValue.InexactFloat64()},
		{"Score medio", t.MeanScore},
		{"Tasa de aprobación (%)", t.ApprovalRate},
		{"Recuperación potencial", t.PotentialRecovery.InexactFloat64()},
	}
	for _, tier := range entity.RiskTiers {
		rows = append(rows, []any{"Riesgo " + string(tier), s.TierCounts[tier]})
	}
	for _, sev := range entity.Severities {
		rows = append(rows, []any{"Alertas " + string(sev), s.SeverityDistribution[sev]})
	}
	return rows
}

func schoolRows(s *entity.PortfolioSummary) [][]any {
	status := make(map[string]string, len(s.HighRiskSchools))
	for _, h := range s.HighRiskSchools {
		status[h.SchoolID] = h.Status
	}
	rows := [][]any{{"Escuela", "Score medio", "Análisis", "Alertas", "Investigaciones", "Estado"}}
	for _, sc := range s.Schools {
		rows = append(rows, []any{sc.SchoolID, sc.MeanScore, sc.Analyses, sc.Alerts, sc.Investigations, status[sc.SchoolID]})
	}
	return rows
}

func supplierRows(list []entity.SupplierSummary) [][]any {
	rows := [][]any{{"CNPJ", "Proveedor", "Score medio", "Valor total", "Facturas", "Escuelas"}}
	for _, sp := range list {
		rows = append(rows, []any{sp.TaxID, sp.Name, sp.MeanScore, sp.TotalValue.InexactFloat64(), sp.Invoices, sp.Schools})
	}
	return rows
}

func commodityRows(list []entity.CommoditySummary) [][]any {
	rows := [][]any{{"Producto", "Precio medio pagado", "Media de referencia", "Desvío (%)", "Ocurrencias"}}
	for _, c := range list {
		rows = append(rows, []any{
			c.Commodity,
			c.MeanPaid.InexactFloat64(),
			c.ReferenceMean.InexactFloat64(),
			c.DeviationPct.InexactFloat64(),
			c.Occurrences,
		})
	}
	return rows
}

func windowBound(t time.Time) any {
	if t.IsZero() {
		return "abierto"
	}
	return t.Format("2006-01-02")
}
