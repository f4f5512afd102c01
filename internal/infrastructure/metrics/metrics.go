// Package metrics provides Prometheus metrics for the pipeline and the read API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "foodlens"

var (
	// EnrichmentOutcomes counts enrichment outcomes by status (success, failed, skipped)
	EnrichmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "enrichment",
			Name:      "outcomes_total",
			Help:      "Total number of raw records processed by the enrichment batch by status",
		},
		[]string{"status"},
	)

	// CollectedRecords counts raw records seen by the collector by result (stored, duplicate)
	CollectedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collector",
			Name:      "records_total",
			Help:      "Total number of raw records seen by the collector by result",
		},
		[]string{"result"},
	)

	// LoadedProducts counts products handled by the loader by result (transferred, skipped, error)
	LoadedProducts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "products_total",
			Help:      "Total number of enriched products handled by the loader by result",
		},
		[]string{"result"},
	)

	// UpstreamRequests counts requests to the product source by status code
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of requests to the product source by status code",
		},
		[]string{"status"},
	)

	// HTTPRequests counts inbound API requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks inbound API request duration
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)

// Result labels shared by the pipeline counters
const (
	ResultStored      = "stored"
	ResultDuplicate   = "duplicate"
	ResultTransferred = "transferred"
	ResultSkipped     = "skipped"
	ResultError       = "error"
)
