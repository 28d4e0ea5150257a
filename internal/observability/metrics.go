// Package observability holds the process-wide Prometheus metrics and the
// OpenTelemetry tracer setup.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siaga_http_requests_total",
		Help: "Total HTTP requests by route and status code",
	}, []string{"route", "code"})
	HTTPRequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "siaga_http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	RouteFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siaga_route_fetches_total",
		Help: "Outbound routing requests by outcome",
	}, []string{"outcome"})
	RouteFetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "siaga_route_fetch_duration_ms",
		Help:    "Routing service call duration in milliseconds",
		Buckets: []float64{50, 100, 200, 500, 1000, 2000, 5000, 10000, 15000},
	})
	NavigationSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "siaga_navigation_sessions",
		Help: "Open navigation sessions",
	})
	ShelterSnapshotSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "siaga_shelter_snapshot_size",
		Help: "Number of shelters in the latest synced snapshot",
	})
	SyncRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siaga_sync_runs_total",
		Help: "Shelter sync runs by result",
	}, []string{"result"})
	StatusChangesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "siaga_status_changes_total",
		Help: "Volcano status changes by new level",
	}, []string{"level"})
)

func init() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDurationMs)
	prometheus.MustRegister(RouteFetchesTotal)
	prometheus.MustRegister(RouteFetchDurationMs)
	prometheus.MustRegister(NavigationSessions)
	prometheus.MustRegister(ShelterSnapshotSize)
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(StatusChangesTotal)
}

// Handler serves the default registry for scraping.
func Handler() http.Handler { return promhttp.Handler() }
