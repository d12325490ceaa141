package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordReload(t *testing.T) {
	m := New()
	m.RecordReload(ReloadApplied)
	m.RecordReload(ReloadApplied)
	m.RecordReload(ReloadSuperseded)

	if got := testutil.ToFloat64(m.Reloads.WithLabelValues(ReloadApplied)); got != 2 {
		t.Errorf("expected 2 applied reloads, got %v", got)
	}
	if got := testutil.ToFloat64(m.Reloads.WithLabelValues(ReloadSuperseded)); got != 1 {
		t.Errorf("expected 1 superseded reload, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordRefreshRequest()
	m.RecordReload(ReloadDropped)
	m.RecordDocument("plain")
	m.SessionOpened()
	m.SessionClosed()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", w.Code)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "404")); got != 1 {
		t.Errorf("expected 1 request counted, got %v", got)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(w.Body.String(), "codegram_http_requests_total") {
		t.Error("expected exposition to contain codegram_http_requests_total")
	}
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.RecordRefreshRequest()
	if got := testutil.ToFloat64(b.RefreshRequests); got != 0 {
		t.Errorf("expected independent registries, got %v", got)
	}
}
