// Package observability provides Prometheus metrics for the ingestion
// pipeline.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the pipeline.
type Metrics struct {
	FilingsProcessed      prometheus.Counter
	FilingsFailed         *prometheus.CounterVec
	TransactionsExtracted prometheus.Counter
	TransactionsInserted  prometheus.Counter
	TransactionsDuplicate prometheus.Counter
	Warnings              *prometheus.CounterVec
	AlertsEmitted         *prometheus.CounterVec
	UpsertDuration        prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "form4"
	}

	return &Metrics{
		FilingsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "filings_processed_total",
			Help:      "Total number of filings processed successfully",
		}),
		FilingsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "filings_failed_total",
			Help:      "Total number of filings that failed processing by error type",
		}, []string{"error_type"}),
		TransactionsExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_extracted_total",
			Help:      "Total number of transaction line items extracted",
		}),
		TransactionsInserted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "transactions_inserted_total",
			Help:      "Total number of transaction rows inserted",
		}),
		TransactionsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "transactions_duplicate_total",
			Help:      "Total number of transaction rows discarded as duplicates",
		}),
		Warnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "warnings_total",
			Help:      "Total number of non-fatal data-integrity warnings by code",
		}, []string{"code"}),
		AlertsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts pushed to the signal consumer by tier",
		}, []string{"tier"}),
		UpsertDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "upsert_duration_seconds",
			Help:      "Filing upsert duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")
