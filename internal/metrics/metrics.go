// Package metrics exposes Prometheus collectors for the prediction service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xeo_predictions_total",
		Help: "Score predictions served, by post type",
	}, []string{"post_type"})

	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "xeo_prediction_duration_seconds",
		Help:    "End-to-end prediction latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	UpstreamFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xeo_upstream_failures_total",
		Help: "Failed upstream fetches, by source",
	}, []string{"source"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xeo_cache_lookups_total",
		Help: "Cache lookups by record kind and outcome (local, shared, miss, bypass)",
	}, []string{"kind", "result"})

	RewriteFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "xeo_rewrite_fallbacks_total",
		Help: "Rewrites that returned the original text because the provider failed",
	})

	CacheEvictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xeo_cache_evictions_total",
		Help: "Expired cache entries removed, by tier",
	}, []string{"tier"})
)

func init() {
	prometheus.MustRegister(Predictions, PredictionDuration, UpstreamFailures, CacheLookups, RewriteFallbacks, CacheEvictions)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePrediction records one prediction and its latency since start.
func ObservePrediction(postType string, start time.Time) {
	Predictions.WithLabelValues(postType).Inc()
	PredictionDuration.Observe(time.Since(start).Seconds())
}

// IncUpstreamFailure counts a failed fetch from source.
func IncUpstreamFailure(source string) { UpstreamFailures.WithLabelValues(source).Inc() }

// IncCacheLookup counts a cache lookup outcome for kind.
func IncCacheLookup(kind, result string) { CacheLookups.WithLabelValues(kind, result).Inc() }
