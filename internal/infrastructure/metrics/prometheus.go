// Package metrics expone los contadores del flujo de fiscalización en formato Prometheus.
package metrics

import (
	"net/http"

	"github.com/jhoicas/fiscaliza-api/internal/application/ports"
	"github.com/jhoicas/fiscaliza-api/internal/domain/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ ports.ComplianceMetrics = (*Collector)(nil)

// Collector implementa ports.ComplianceMetrics sobre un registry propio.
type Collector struct {
	registry   *prometheus.Registry
	analyses   *prometheus.CounterVec
	alerts     *prometheus.CounterVec
	narratives *prometheus.CounterVec
	rejections *prometheus.CounterVec
	score      prometheus.Histogram
}

// NewCollector registra las métricas. withRuntime agrega los collectors de Go y del proceso.
func NewCollector(withRuntime bool) *Collector {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		analyses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscaliza_analyses_total",
			Help: "Análisis persistidos por nivel de riesgo",
		}, []string{"tier"}),
		alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscaliza_alerts_total",
			Help: "Alertas generadas por tipo y severidad",
		}, []string{"kind", "severity"}),
		narratives: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscaliza_narratives_total",
			Help: "Narrativas por fuente (llm o fallback)",
		}, []string{"source"}),
		rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiscaliza_submission_rejections_total",
			Help: "Envíos que no terminaron en análisis, por motivo",
		}, []string{"reason"}),
		score: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fiscaliza_analysis_score",
			Help:    "Distribución del score de conformidad",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}

// ObserveAnalysis cuenta el análisis, su score y cada alerta.
func (c *Collector) ObserveAnalysis(a *entity.Analysis) {
	if a == nil {
		return
	}
	c.analyses.WithLabelValues(string(a.Tier)).Inc()
	c.score.Observe(a.Score)
	for _, al := range a.Alerts {
		c.alerts.WithLabelValues(string(al.Kind), string(al.Severity)).Inc()
	}
}

func (c *Collector) ObserveNarrative(source string) {
	c.narratives.WithLabelValues(source).Inc()
}

func (c *Collector) ObserveRejection(reason string) {
	c.rejections.WithLabelValues(reason).Inc()
}

// Registry registry subyacente.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler handler HTTP del endpoint /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
