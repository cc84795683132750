package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "schnorrd"

// Metrics records generation, signing and verification outcomes. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry          *prometheus.Registry
	generations       *prometheus.CounterVec
	generationSeconds *prometheus.HistogramVec
	signatures        *prometheus.CounterVec
	verifications     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parameter_generations_total",
			Help:      "Parameter generation attempts by level and outcome.",
		}, []string{"level", "outcome"}),
		generationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parameter_generation_seconds",
			Help:      "Wall time of parameter generation attempts.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"level"}),
		signatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signatures_total",
			Help:      "Sign requests by outcome.",
		}, []string{"outcome"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verify requests by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.generations,
		m.generationSeconds,
		m.signatures,
		m.verifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveGeneration(level string, err error, took time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(level, outcome(err)).Inc()
	m.generationSeconds.WithLabelValues(level).Observe(took.Seconds())
}

func (m *Metrics) ObserveSign(err error) {
	if m == nil {
		return
	}
	m.signatures.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) ObserveVerify(valid bool, err error) {
	if m == nil {
		return
	}
	result := "invalid"
	switch {
	case err != nil:
		result = "error"
	case valid:
		result = "valid"
	}
	m.verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
