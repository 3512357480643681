package infrastructure

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for the dataset pipeline
// and the HTTP surface.
type Metrics struct {
	registry *prometheus.Registry

	DatasetsLoaded  prometheus.Counter
	RowsIngested    prometheus.Counter
	LoadFailures    *prometheus.CounterVec
	ExportsServed   *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	DatasetRows     prometheus.Gauge
}

// NewMetrics creates and registers all application metrics on a
// private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DatasetsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pmopulse",
			Name:      "datasets_loaded_total",
			Help:      "Number of project registers successfully loaded",
		}),
		RowsIngested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pmopulse",
			Name:      "rows_ingested_total",
			Help:      "Total project rows ingested across all loads",
		}),
		LoadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pmopulse",
			Name:      "load_failures_total",
			Help:      "Dataset loads that failed, by reason",
		}, []string{"reason"}),
		ExportsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pmopulse",
			Name:      "exports_served_total",
			Help:      "CSV exports served, by view",
		}, []string{"view"}),
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pmopulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests processed, by method and status class",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pmopulse",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pmopulse",
			Name:      "dataset_rows",
			Help:      "Rows in the currently loaded project register",
		}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
