package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes
const (
	OutcomeEmpty      = "empty"
	OutcomeAIFailed   = "ai_failed"
	OutcomeSaved      = "saved"
	OutcomeSaveFailed = "save_failed"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chestlogic_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chestlogic_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chestlogic_analyses_total",
			Help: "Case analysis submissions by outcome",
		},
		[]string{"outcome"},
	)

	adminGateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chestlogic_admin_gate_total",
			Help: "Admin password checks by result",
		},
		[]string{"result"},
	)
)

// ObserveAnalysis counts one case submission.
func ObserveAnalysis(outcome string) {
	analysesTotal.WithLabelValues(outcome).Inc()
}

// ObserveGate counts one admin password check.
func ObserveGate(result string) {
	adminGateTotal.WithLabelValues(result).Inc()
}

// Metrics records request count and latency. The chi route pattern is used as
// the label so record ids do not explode cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler exposes the default registry
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
