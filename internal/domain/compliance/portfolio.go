package compliance

import (
	"sort"

	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/jhoicas/fiscaliza-api/pkg/cnpj"
	"github.com/shopspring/decimal"
)

// Umbrales por escuela: < 70 alto riesgo; < 50 requiere investigación.
const (
	HighRiskThreshold      = 70.0
	InvestigationThreshold = 50.0
)

type schoolAcc struct {
	sum            decimal.Decimal
	n              int
	alerts         int
	investigations int
}

type supplierAcc struct {
	name    string
	sum     decimal.Decimal
	n       int
	value   decimal.Decimal
	schools map[string]struct{}
}

type commodityAcc struct {
	paidSum decimal.Decimal
	refMean decimal.Decimal
	n       int
}

// Summarize reduce análisis ya calculados a un PortfolioSummary. Filtra por ventana [From, To)
// y cuenta cada análisis recibido, re-análisis incluidos. Nunca re-evalúa.
func Summarize(analyses []entity.Analysis, window entity.Window) entity.PortfolioSummary {
	set := make([]entity.Analysis, 0, len(analyses))
	for i := range analyses {
		if window.Contains(analyses[i].CreatedAt) {
			set = append(set, analyses[i])
		}
	}

	sum := entity.PortfolioSummary{
		Window:               window,
		TierCounts:           make(map[entity.RiskTier]int, len(entity.RiskTiers)),
		SeverityDistribution: make(map[entity.Severity]int, len(entity.Severities)),
		Schools:              []entity.SchoolSummary{},
		HighRiskSchools:      []entity.SchoolSummary{},
		Suppliers:            []entity.SupplierSummary{},
		InflatedCommodities:  []entity.CommoditySummary{},
	}
	for _, t := range entity.RiskTiers {
		sum.TierCounts[t] = 0
	}
	for _, s := range entity.Severities {
		sum.SeverityDistribution[s] = 0
	}

	schools := map[string]*schoolAcc{}
	suppliers := map[string]*supplierAcc{}
	commodities := map[string]*commodityAcc{}
	scoreSum := decimal.Zero
	totalValue := decimal.Zero
	recovery := decimal.Zero
	approved := 0

	for i := range set {
		a := &set[i]
		score := decimal.NewFromFloat(a.Score)
		sum.TierCounts[a.Tier]++
		scoreSum = scoreSum.Add(score)
		totalValue = totalValue.Add(a.DeclaredTotal)
		if a.Approved() {
			approved++
		}

		sc := schools[a.SchoolID]
		if sc == nil {
			sc = &schoolAcc{}
			schools[a.SchoolID] = sc
		}
		sc.sum = sc.sum.Add(score)
		sc.n++
		sc.alerts += len(a.Alerts)
		if a.RequiresInvestigation {
			sc.investigations++
		}

		key := supplierKey(a.SupplierTaxID, a.SupplierName)
		sp := suppliers[key]
		if sp == nil {
			sp = &supplierAcc{schools: map[string]struct{}{}}
			suppliers[key] = sp
		}
		if a.SupplierName != "" {
			sp.name = a.SupplierName
		}
		sp.sum = sp.sum.Add(score)
		sp.n++
		sp.value = sp.value.Add(a.DeclaredTotal)
		sp.schools[a.SchoolID] = struct{}{}

		for _, al := range a.Alerts {
			sum.SeverityDistribution[al.Severity]++
			pe := al.Evidence.Price
			if al.Kind != entity.AlertInflatedPrice || pe == nil {
				continue
			}
			recovery = recovery.Add(pe.ExcessValue)
			c := commodities[pe.Commodity]
			if c == nil {
				c = &commodityAcc{refMean: pe.MeanPrice}
				commodities[pe.Commodity] = c
			}
			c.paidSum = c.paidSum.Add(pe.PaidPrice)
			c.n++
		}
	}

	for id, sc := range schools {
		s := entity.SchoolSummary{
			SchoolID:       id,
			MeanScore:      mean2(sc.sum, sc.n),
			Analyses:       sc.n,
			Alerts:         sc.alerts,
			Investigations: sc.investigations,
		}
		sum.Schools = append(sum.Schools, s)
		if s.MeanScore < HighRiskThreshold {
			s.Status = entity.SchoolStatusAttention
			if s.MeanScore < InvestigationThreshold {
				s.Status = entity.SchoolStatusInvestigationRequired
			}
			sum.HighRiskSchools = append(sum.HighRiskSchools, s)
		}
	}
	sort.Slice(sum.Schools, func(i, j int) bool { return sum.Schools[i].SchoolID < sum.Schools[j].SchoolID })
	sort.Slice(sum.HighRiskSchools, func(i, j int) bool {
		a, b := sum.HighRiskSchools[i], sum.HighRiskSchools[j]
		if a.MeanScore != b.MeanScore {
			return a.MeanScore < b.MeanScore
		}
		if a.Alerts != b.Alerts {
			return a.Alerts > b.Alerts
		}
		return a.SchoolID < b.SchoolID
	})

	for key, sp := range suppliers {
		sum.Suppliers = append(sum.Suppliers, entity.SupplierSummary{
			TaxID:      key,
			Name:       sp.name,
			MeanScore:  mean2(sp.sum, sp.n),
			TotalValue: sp.value,
			Invoices:   sp.n,
			Schools:    len(sp.schools),
		})
	}
	sort.Slice(sum.Suppliers, func(i, j int) bool {
		a, b := sum.Suppliers[i], sum.Suppliers[j]
		if a.MeanScore != b.MeanScore {
			return a.MeanScore < b.MeanScore
		}
		return a.TaxID < b.TaxID
	})

	for name, c := range commodities {
		meanPaid := c.paidSum.Div(decimal.NewFromInt(int64(c.n))).Round(2)
		dev := decimal.Zero
		if c.refMean.IsPositive() {
			dev = meanPaid.Sub(c.refMean).Div(c.refMean).Mul(hundred).Round(2)
		}
		sum.InflatedCommodities = append(sum.InflatedCommodities, entity.CommoditySummary{
			Commodity:     name,
			MeanPaid:      meanPaid,
			ReferenceMean: c.refMean,
			DeviationPct:  dev,
			Occurrences:   c.n,
		})
	}
	sort.Slice(sum.InflatedCommodities, func(i, j int) bool {
		a, b := sum.InflatedCommodities[i], sum.InflatedCommodities[j]
		if !a.DeviationPct.Equal(b.DeviationPct) {
			return a.DeviationPct.GreaterThan(b.DeviationPct)
		}
		return a.Commodity < b.Commodity
	})

	sum.Totals = entity.PortfolioTotals{
		Analyses:          len(set),
		Schools:           len(schools),
		TotalValue:        totalValue,
		MeanScore:         mean2(scoreSum, len(set)),
		PotentialRecovery: recovery,
	}
	if len(set) > 0 {
		sum.Totals.ApprovalRate = decimal.NewFromInt(int64(approved)).
			Div(decimal.NewFromInt(int64(len(set)))).Mul(hundred).Round(2).InexactFloat64()
	}
	return sum
}

// LatestPerInvoice deja el análisis más reciente de cada factura, preservando el orden
// de entrada. Los análisis sin InvoiceID se conservan todos.
func LatestPerInvoice(analyses []entity.Analysis) []entity.Analysis {
	latest := make(map[string]int, len(analyses))
	for i := range analyses {
		a := &analyses[i]
		if a.InvoiceID == "" {
			continue
		}
		if j, ok := latest[a.InvoiceID]; !ok || !a.CreatedAt.Before(analyses[j].CreatedAt) {
			latest[a.InvoiceID] = i
		}
	}
	out := make([]entity.Analysis, 0, len(latest))
	for i := range analyses {
		a := &analyses[i]
		if a.InvoiceID == "" || latest[a.InvoiceID] == i {
			out = append(out, *a)
		}
	}
	return out
}

func supplierKey(taxID, name string) string {
	if d := cnpj.Digits(taxID); d != "" {
		return d
	}
	return fold(name)
}

func mean2(sum decimal.Decimal, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}
