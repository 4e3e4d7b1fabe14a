// Package metrics exposes counters for match computations and heuristic fallbacks.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "brainbridge"

// Metrics owns a private registry so several engines can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	computations *prometheus.CounterVec
	scores       *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_computations_total",
			Help:      "Match scores computed, by branch and whether the AI opinion was used.",
		}, []string{"branch", "ai_assisted"}),
		scores: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_score",
			Help:      "Distribution of final match scores.",
			Buckets:   prometheus.LinearBuckets(50, 5, 11),
		}, []string{"branch"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heuristic_fallbacks_total",
			Help:      "Times a component used its deterministic fallback instead of the reasoning service.",
		}, []string{"component"}),
	}
	m.registry.MustRegister(m.computations, m.scores, m.fallbacks)
	return m
}

// ObserveScore records one finished match computation.
func (m *Metrics) ObserveScore(branch string, aiAssisted bool, score int) {
	if m == nil {
		return
	}
	m.computations.WithLabelValues(branch, strconv.FormatBool(aiAssisted)).Inc()
	m.scores.WithLabelValues(branch).Observe(float64(score))
}

// Fallback records that component answered heuristically.
func (m *Metrics) Fallback(component string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(component).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// WriteTextfile dumps the current values in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
