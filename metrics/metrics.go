package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// HTTPRequestsTotal counts handled requests by route template and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "report_logger",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDurationSeconds is the handler latency per route template.
	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "report_logger",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time to serve an HTTP request, labeled by method and route.",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "route"})

	// ImagesProcessedTotal counts uploads by pipeline outcome: compressed,
	// fallback (stored unmodified) or rejected.
	ImagesProcessedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "report_logger",
		Subsystem: "images",
		Name:      "processed_total",
		Help:      "Total number of uploaded images, labeled by pipeline result.",
	}, []string{"result"})

	// ImageFileRemovalErrorsTotal counts best-effort file removals that failed.
	ImageFileRemovalErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "report_logger",
		Subsystem: "images",
		Name:      "removal_errors_total",
		Help:      "Total number of stored image files that could not be removed.",
	})

	// ReportsExportedTotal counts report rows written to spreadsheets.
	ReportsExportedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "report_logger",
		Subsystem: "export",
		Name:      "reports_total",
		Help:      "Total number of report rows exported to spreadsheets.",
	})

	// ReportEventsTotal counts report event publications by result.
	ReportEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "report_logger",
		Subsystem: "events",
		Name:      "published_total",
		Help:      "Total number of report events handed to RabbitMQ, labeled by type and result.",
	}, []string{"type", "result"})
)

// Register registers the service metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDurationSeconds,
			ImagesProcessedTotal,
			ImageFileRemovalErrorsTotal,
			ReportsExportedTotal,
			ReportEventsTotal,
		)
	})
}
