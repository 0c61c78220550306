package xlsx_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/internal/infrastructure/xlsx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func summary() *entity.PortfolioSummary {
	return &entity.PortfolioSummary{
		Window:               entity.Window{From: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		TierCounts:           map[entity.RiskTier]int{entity.TierLow: 3, entity.TierHigh: 1},
		SeverityDistribution: map[entity.Severity]int{entity.SeverityCritical: 2},
		Schools: []entity.SchoolSummary{
			{SchoolID: "escola-a", MeanScore: 95, Analyses: 3},
			{SchoolID: "escola-b", MeanScore: 45, Analyses: 1, Alerts: 2, Investigations: 1},
		},
		HighRiskSchools: []entity.SchoolSummary{
			{SchoolID: "escola-b", MeanScore: 45, Analyses: 1, Alerts: 2, Investigations: 1, Status: entity.SchoolStatusInvestigationRequired},
		},
		Suppliers: []entity.SupplierSummary{
			{TaxID: "11222333000181", Name: "Boa Safra", MeanScore: 82.5, TotalValue: decimal.RequireFromString("1500.75"), Invoices: 4, Schools: 2},
		},
		InflatedCommodities: []entity.CommoditySummary{
			{Commodity: "feijao", MeanPaid: decimal.RequireFromString("20"), ReferenceMean: decimal.RequireFromString("7.2"), DeviationPct: decimal.RequireFromString("177.78"), Occurrences: 1},
		},
		Totals: entity.PortfolioTotals{Analyses: 4, Schools: 2, TotalValue: decimal.RequireFromString("1500.75"), MeanScore: 82.5, ApprovalRate: 75},
	}
}

func TestExportPortfolio_Hojas(t *testing.T) {
	data, err := xlsx.NewExporter().ExportPortfolio(summary())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{xlsx.SheetSummary, xlsx.SheetSchools, xlsx.SheetSuppliers, xlsx.SheetCommodities}, f.GetSheetList())

	schools, err := f.GetRows(xlsx.SheetSchools)
	require.NoError(t, err)
	require.Len(t, schools, 3)
	assert.Equal(t, "Escuela", schools[0][0])
	assert.Equal(t, "escola-b", schools[2][0])
	assert.Equal(t, entity.SchoolStatusInvestigationRequired, schools[2][5])

	suppliers, err := f.GetRows(xlsx.SheetSuppliers)
	require.NoError(t, err)
	require.Len(t, suppliers, 2)
	assert.Equal(t, "11222333000181", suppliers[1][0])
	assert.Equal(t, "1500.75", suppliers[1][3])

	products, err := f.GetRows(xlsx.SheetCommodities)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "feijao", products[1][0])

	resumen, err := f.GetRows(xlsx.SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Desde", "2025-06-01"}, resumen[1])
	assert.Equal(t, []string{"Hasta", "abierto"}, resumen[2])
	assert.Equal(t, []string{"Análisis", "4"}, resumen[3])
}

func TestExportPortfolio_Vacio(t *testing.T) {
	data, err := xlsx.NewExporter().ExportPortfolio(&entity.PortfolioSummary{})
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	_, err = xlsx.NewExporter().ExportPortfolio(nil)
	assert.Error(t, err)
}
