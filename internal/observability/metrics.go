// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	IngestionRunsTotal *prometheus.CounterVec
	IngestionDuration  prometheus.Histogram
	ProductsInserted   prometheus.Counter
	PricesInserted     prometheus.Counter
	DuplicatesDropped  *prometheus.CounterVec
	RecordsRejected    prometheus.Counter
	ArchiveFailures    prometheus.Counter

	// Catalog metrics
	CatalogRequestLatency *prometheus.HistogramVec
	CatalogRequestErrors  *prometheus.CounterVec

	// Query metrics
	QueryDuration *prometheus.HistogramVec
	QueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Reporting metrics
	ReportsGenerated prometheus.Counter

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with the given registerer.
// A nil registerer uses the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "grocery_price_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		IngestionRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Total number of ingestion cycles by status",
		}, []string{"status"}),
		IngestionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duration_seconds",
			Help:      "Ingestion cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ProductsInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "products_inserted_total",
			Help:      "Total number of products stored",
		}),
		PricesInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "prices_inserted_total",
			Help:      "Total number of price records stored",
		}),
		DuplicatesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "duplicates_dropped_total",
			Help:      "Total number of already known facts dropped by kind",
		}, []string{"kind"}),
		RecordsRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_rejected_total",
			Help:      "Total number of malformed catalog records rejected",
		}),
		ArchiveFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "archive_failures_total",
			Help:      "Total number of failed writes to the price archive",
		}),

		// Catalog metrics
		CatalogRequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "request_latency_seconds",
			Help:      "Catalog API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		CatalogRequestErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "request_errors_total",
			Help:      "Total number of failed catalog API requests",
		}, []string{"endpoint"}),

		// Query metrics
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Engine query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"engine", "operation"}),
		QueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "errors_total",
			Help:      "Total number of engine query errors",
		}, []string{"engine", "operation"}),

		// HTTP metrics
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		// Reporting metrics
		ReportsGenerated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reporting",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Health metrics
		LastSuccessfulIngestion: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// IngestionCounts is the subset of an ingestion result recorded as metrics.
type IngestionCounts struct {
	ProductsInserted  int
	PricesInserted    int
	ProductDuplicates int
	PriceDuplicates   int
	RecordsRejected   int
}

// RecordIngestionRun records a finished ingestion cycle.
func RecordIngestionRun(status string, duration time.Duration, c IngestionCounts) {
	m := DefaultMetrics
	m.IngestionRunsTotal.WithLabelValues(status).Inc()
	m.IngestionDuration.Observe(duration.Seconds())
	m.ProductsInserted.Add(float64(c.ProductsInserted))
	m.PricesInserted.Add(float64(c.PricesInserted))
	m.DuplicatesDropped.WithLabelValues("product").Add(float64(c.ProductDuplicates))
	m.DuplicatesDropped.WithLabelValues("price").Add(float64(c.PriceDuplicates))
	m.RecordsRejected.Add(float64(c.RecordsRejected))
	if status == "success" {
		m.LastSuccessfulIngestion.Set(float64(time.Now().Unix()))
	}
}

// RecordArchiveFailure increments the archive failure counter.
func RecordArchiveFailure() {
	DefaultMetrics.ArchiveFailures.Inc()
}

// RecordCatalogRequest records catalog API request latency and failures.
func RecordCatalogRequest(endpoint string, seconds float64, err error) {
	DefaultMetrics.CatalogRequestLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		DefaultMetrics.CatalogRequestErrors.WithLabelValues(endpoint).Inc()
	}
}

// RecordQuery records engine query metrics.
func RecordQuery(engine, operation string, seconds float64, err error) {
	DefaultMetrics.QueryDuration.WithLabelValues(engine, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.QueryErrors.WithLabelValues(engine, operation).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route string, code int, seconds float64) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}
