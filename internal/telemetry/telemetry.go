// Package telemetry exposes prometheus collectors for the pipeline and the
// external-provider adapters. Metrics are served on /metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PipelineRuns counts completed pipeline runs by terminal state.
	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nori_pipeline_runs_total",
		Help: "Pipeline runs by terminal state",
	}, []string{"state"})

	// PipelineDuration observes end-to-end pipeline run latency.
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "nori_pipeline_duration_seconds",
		Help:    "End-to-end pipeline run duration",
		Buckets: prometheus.DefBuckets,
	})

	// Summaries counts per-article summarization outcomes.
	Summaries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nori_summaries_total",
		Help: "Per-article summarization outcomes",
	}, []string{"outcome"})

	// ProviderRequests counts outbound calls to external providers.
	ProviderRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nori_provider_requests_total",
		Help: "Outbound provider requests by result",
	}, []string{"provider", "status"})

	// CacheLookups counts search-cache hits and misses.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nori_cache_lookups_total",
		Help: "Search result cache lookups",
	}, []string{"result"})

	// Notifications counts outbound notification attempts.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nori_notifications_total",
		Help: "Outbound notification attempts by result",
	}, []string{"status"})
)
