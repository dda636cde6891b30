// Package metrics exposes Prometheus collectors for the news pipeline and
// keeps per-run, per-topic counters for the JSON run summary.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	providerCallsTotal          *prometheus.CounterVec
	providerCallDurationSeconds *prometheus.HistogramVec
	articlesTotal               *prometheus.CounterVec
	runsTotal                   *prometheus.CounterVec
	cachedArticles              *prometheus.GaugeVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		providerCallsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_provider_calls_total",
				Help: "Total number of provider API calls, labeled by topic and outcome.",
			},
			[]string{"topic", "outcome"},
		)

		providerCallDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "news_provider_call_duration_seconds",
				Help:    "Histogram of provider API call latencies, labeled by topic.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"topic"},
		)

		articlesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_articles_total",
				Help: "Total number of articles processed, labeled by topic and stage.",
			},
			[]string{"topic", "stage"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "news_runs_total",
				Help: "Total number of update runs, labeled by result.",
			},
			[]string{"result"},
		)

		cachedArticles = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "news_cached_articles",
				Help: "Number of articles in the saved snapshot, labeled by topic.",
			},
			[]string{"topic"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveProviderCall increments the call counter and records its latency.
func ObserveProviderCall(topic, outcome string, duration time.Duration) {
	providerCallsTotal.WithLabelValues(topic, outcome).Inc()
	providerCallDurationSeconds.WithLabelValues(topic).Observe(duration.Seconds())
}

// ObserveArticles adds to the per-stage article counter. Stages are
// "fetched", "filtered" and "saved".
func ObserveArticles(topic, stage string, n int) {
	if n > 0 {
		articlesTotal.WithLabelValues(topic, stage).Add(float64(n))
	}
}

// ObserveRun increments the run counter for the given result.
func ObserveRun(result string) {
	runsTotal.WithLabelValues(result).Inc()
}

// SetCachedArticles records the snapshot size after a save.
func SetCachedArticles(topic string, n int) {
	cachedArticles.WithLabelValues(topic).Set(float64(n))
}
