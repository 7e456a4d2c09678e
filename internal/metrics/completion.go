// Package metrics declares the Prometheus collectors recomserve exposes on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Completion modes
const (
	ModeDictionary = "dictionary"
	ModeHybrid     = "hybrid"
	ModeGenerated  = "generated"
)

// Completion outcomes
const (
	OutcomeDictionary = "dictionary" // served from the trie alone
	OutcomeFallback   = "fallback"   // generator output merged in
	OutcomeDegraded   = "degraded"   // generator failed, trie hits served
	OutcomeInvalid    = "invalid"    // prefix rejected
)

var (
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recomserve",
			Name:      "completions_total",
			Help:      "Completion requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	CompletionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recomserve",
			Name:      "completion_duration_seconds",
			Help:      "Completion latency in seconds, generator time included",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	LearnedWordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recomserve",
			Name:      "learned_words_total",
			Help:      "Words accepted from the generator and added to the dictionary",
		},
	)

	GeneratorRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recomserve",
			Name:      "generator_requests_total",
			Help:      "Generator calls by provider and status",
		},
		[]string{"provider", "status"},
	)

	GeneratorDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recomserve",
			Name:      "generator_request_duration_seconds",
			Help:      "Generator call duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	GeneratorContinuationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recomserve",
			Name:      "generator_continuations_total",
			Help:      "Raw continuations returned by the generator",
		},
		[]string{"provider"},
	)
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			CompletionsTotal,
			CompletionDuration,
			LearnedWordsTotal,
			GeneratorRequestsTotal,
			GeneratorDuration,
			GeneratorContinuationsTotal,
			httpRequestDuration,
			httpRequestsTotal,
		)
	})
}
