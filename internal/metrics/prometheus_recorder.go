package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once               sync.Once
	stageDuration      *prom.HistogramVec
	conversionDuration prom.Histogram
	stageResults       *prom.CounterVec
	conversionOutcome  *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "kpfbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual conversion stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.conversionDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "kpfbuilder",
			Name:      "conversion_duration_seconds",
			Help:      "Total conversion duration including Previewer runtime",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kpfbuilder",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.conversionOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "kpfbuilder",
			Name:      "conversion_outcomes_total",
			Help:      "Conversion outcomes by final status",
		}, []string{"outcome"})
		reg.MustRegister(pr.stageDuration, pr.conversionDuration, pr.stageResults, pr.conversionOutcome)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveConversionDuration(d time.Duration) {
	if p == nil || p.conversionDuration == nil {
		return
	}
	p.conversionDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncConversionOutcome(outcome OutcomeLabel) {
	if p == nil || p.conversionOutcome == nil {
		return
	}
	p.conversionOutcome.WithLabelValues(string(outcome)).Inc()
}
