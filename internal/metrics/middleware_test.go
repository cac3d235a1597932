package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/api/v1/collections", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/v1/collections", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/v1/collections/{collection}/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/v1/collections/clients/documents/c-1", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	// The raw URL must not appear as a label; only the route pattern keeps
	// cardinality bounded.
	val := testutil.ToFloat64(
		httpRequestsTotal.WithLabelValues("GET", "/api/v1/collections/{collection}/documents/{id}", "200"))
	if val < 1 {
		t.Errorf("expected requests_total for route pattern >= 1, got %f", val)
	}
}

func TestMiddlewareDifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/conflict", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	tests := []struct {
		path           string
		expectedStatus string
	}{
		{"/ok", "200"},
		{"/missing", "404"},
		{"/conflict", "409"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestRecordImport(t *testing.T) {
	RecordImport("clients", 4, 1, 2)

	tests := []struct {
		status string
		want   float64
	}{
		{"inserted", 4},
		{"skipped", 1},
		{"failed", 2},
	}
	for _, tc := range tests {
		val := testutil.ToFloat64(importedDocuments.WithLabelValues("clients", tc.status))
		if val < tc.want {
			t.Errorf("imported_documents_total{status=%q} = %f, want >= %f", tc.status, val, tc.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/api/v1/collections", "/api/v1/collections"},
		{"/healthz", "/healthz"},
	}

	for _, tc := range tests {
		result := normalizePath(tc.input)
		if result != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}
