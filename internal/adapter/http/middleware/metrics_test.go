package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMetrics_RecordsRequest(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	handlerCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	m.Wrap(next).ServeHTTP(rr, req)

	if !handlerCalled {
		t.Fatalf("next handler was not invoked")
	}

	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Fatalf("expected in-flight gauge to return to 0, got %v", got)
	}

	counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/health", strconv.Itoa(http.StatusTeapot))
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected counter to be 1, got %v", got)
	}
}

func TestHTTPMetrics_UsesRoutePatternLabel(t *testing.T) {
	m := NewHTTPMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Wrap)
	r.Get("/accounts/{name}/balance", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/accounts/Assets:Cash/balance", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/accounts/{name}/balance", "200")
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Fatalf("expected pattern-labeled counter to be 1, got %v", got)
	}
}
