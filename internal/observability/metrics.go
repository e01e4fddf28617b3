// Package observability collects Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the Prometheus registry and application metrics. All
// record methods are nil-safe so services can run without metrics in tests.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	approvalsResolved *prometheus.CounterVec
	balancesComputed  prometheus.Counter
	trashRestores     prometheus.Counter
	conflictsTotal    *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerdesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerdesk_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	approvals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerdesk_approvals_resolved_total",
		Help: "Approval requests resolved by request type and outcome.",
	}, []string{"type", "outcome"})
	balances := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerdesk_balances_computed_total",
		Help: "Balance computations served.",
	})
	restores := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledgerdesk_trash_restores_total",
		Help: "Successful trash restores.",
	})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerdesk_conflicts_total",
		Help: "Guard conflicts by reason.",
	}, []string{"reason"})
	registry.MustRegister(requests, duration, approvals, balances, restores, conflicts)
	return &Metrics{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:     requests,
		requestDuration:   duration,
		approvalsResolved: approvals,
		balancesComputed:  balances,
		trashRestores:     restores,
		conflictsTotal:    conflicts,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// CountApproval records a resolved approval request.
func (m *Metrics) CountApproval(requestType, outcome string) {
	if m == nil {
		return
	}
	m.approvalsResolved.WithLabelValues(requestType, outcome).Inc()
}

// CountBalance records one balance computation.
func (m *Metrics) CountBalance() {
	if m == nil {
		return
	}
	m.balancesComputed.Inc()
}

// CountRestore records one successful trash restore.
func (m *Metrics) CountRestore() {
	if m == nil {
		return
	}
	m.trashRestores.Inc()
}

// CountConflict records a guard conflict.
func (m *Metrics) CountConflict(reason string) {
	if m == nil {
		return
	}
	m.conflictsTotal.WithLabelValues(reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
