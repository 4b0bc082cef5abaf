package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfoliodesk_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portfoliodesk_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Import metrics
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfoliodesk_imports_total",
			Help: "Total number of position imports",
		},
		[]string{"status"}, // success, failed
	)

	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfoliodesk_import_rows_total",
			Help: "Imported sheet rows by outcome",
		},
		[]string{"outcome"}, // created, updated, no_ticker, total_row, duplicate
	)

	// Summary metrics
	SummaryComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portfoliodesk_summary_compute_duration_seconds",
			Help:    "Time spent loading positions and aggregating the portfolio summary",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	SummaryCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portfoliodesk_summary_cache_requests_total",
			Help: "Summary cache lookups",
		},
		[]string{"result"}, // hit, miss
	)

	// Trade metrics
	TradesExecutedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portfoliodesk_trades_executed_total",
			Help: "Total number of executed trades",
		},
	)
)
