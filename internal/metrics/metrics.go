package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reload results recorded by the sandbox host.
const (
	ReloadApplied    = "applied"
	ReloadSuperseded = "superseded"
	ReloadDropped    = "dropped"
)

// Metrics holds the Prometheus collectors for the preview pipeline and the
// HTTP surface. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Preview pipeline
	RefreshRequests    prometheus.Counter
	Reloads            *prometheus.CounterVec
	SessionsActive     prometheus.Gauge
	DocumentsGenerated *prometheus.CounterVec

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, so several instances
// can coexist in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RefreshRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegram_preview_refresh_requests_total",
			Help: "Refreshes requested by edits or the manual refresh control",
		}),
		Reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codegram_preview_reloads_total",
			Help: "Sandbox reloads by result",
		}, []string{"result"}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "codegram_preview_sessions_active",
			Help: "Open preview sessions",
		}),
		DocumentsGenerated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codegram_preview_documents_generated_total",
			Help: "Preview documents generated by language tag",
		}, []string{"tag"}),

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codegram_http_requests_total",
			Help: "HTTP requests by method and status",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codegram_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method"}),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRefreshRequest counts one refresh request.
func (m *Metrics) RecordRefreshRequest() {
	if m == nil {
		return
	}
	m.RefreshRequests.Inc()
}

// RecordReload counts one sandbox reload outcome.
func (m *Metrics) RecordReload(result string) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(result).Inc()
}

// RecordDocument counts one generated document.
func (m *Metrics) RecordDocument(tag string) {
	if m == nil {
		return
	}
	m.DocumentsGenerated.WithLabelValues(tag).Inc()
}

// SessionOpened and SessionClosed track live preview sessions.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
