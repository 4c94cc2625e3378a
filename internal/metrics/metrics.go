package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg              *prometheus.Registry
	UpstreamFailures *prometheus.CounterVec
	FetchSeconds     *prometheus.HistogramVec
	IngestSkipped    *prometheus.CounterVec
	Recommendations  *prometheus.GaugeVec
	EstimatedCost    prometheus.Gauge
	Runs             *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPLatency      *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	upstreamFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_upstream_failures_total",
		Help: "Upstream fetches that failed and were degraded to empty data.",
	}, []string{"source"})
	fetchSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restock_upstream_fetch_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	ingestSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_ingest_skipped_total",
		Help: "Stock items dropped during normalization.",
	}, []string{"source"})
	recommendations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "restock_recommendations",
		Help: "Recommendations in the latest run by priority.",
	}, []string{"priority"})
	estimatedCost := prometheus.NewGauge(prometheus.GaugeOpts{Name: "restock_estimated_cost"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "restock_runs_total"}, []string{"action"})
	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_http_requests_total",
	}, []string{"route", "status"})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restock_http_request_seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	r.MustRegister(upstreamFailures, fetchSeconds, ingestSkipped, recommendations, estimatedCost, runs, httpRequests, httpLatency)
	return &Registry{
		reg:              r,
		UpstreamFailures: upstreamFailures,
		FetchSeconds:     fetchSeconds,
		IngestSkipped:    ingestSkipped,
		Recommendations:  recommendations,
		EstimatedCost:    estimatedCost,
		Runs:             runs,
		HTTPRequests:     httpRequests,
		HTTPLatency:      httpLatency,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// Gatherer exposes the underlying registry for tests and custom exporters.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) UpstreamFailure(source string) {
	r.UpstreamFailures.WithLabelValues(source).Inc()
}

func (r *Registry) ObserveFetch(source string, d time.Duration) {
	r.FetchSeconds.WithLabelValues(source).Observe(d.Seconds())
}

func (r *Registry) IngestSkip(source string, n int) {
	if n > 0 {
		r.IngestSkipped.WithLabelValues(source).Add(float64(n))
	}
}

// RecordRun publishes the outcome of one restock computation.
func (r *Registry) RecordRun(action string, byPriority map[string]int, estimatedCost float64) {
	r.Runs.WithLabelValues(action).Inc()
	for priority, n := range byPriority {
		r.Recommendations.WithLabelValues(priority).Set(float64(n))
	}
	r.EstimatedCost.Set(estimatedCost)
}

// CountRun records a computation that does not produce recommendations.
func (r *Registry) CountRun(action string) {
	r.Runs.WithLabelValues(action).Inc()
}

func (r *Registry) ObserveRequest(route, status string, d time.Duration) {
	r.HTTPRequests.WithLabelValues(route, status).Inc()
	r.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}
