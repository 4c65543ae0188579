package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/renderlens/renderlens/internal/metrics"
)

type stubMetricsSource struct {
	text string
	err  error
}

func (s stubMetricsSource) ContentType() string     { return "text/plain; version=0.0.4" }
func (s stubMetricsSource) Render() (string, error) { return s.text, s.err }

func TestMetricsServesExposition(t *testing.T) {
	handler := Metrics(stubMetricsSource{text: "# HELP renderlens_panics_total x\n"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/plain; version=0.0.4" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "renderlens_panics_total") {
		t.Fatalf("expected exposition body, got %q", rec.Body.String())
	}
}

func TestMetricsRenderFailure(t *testing.T) {
	handler := Metrics(stubMetricsSource{err: errors.New("exposition failed")})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "exposition failed") {
		t.Fatalf("expected raw error text, got %q", rec.Body.String())
	}
}

func TestMetricsAgainstRegistry(t *testing.T) {
	registry := metrics.NewRegistry()
	registry.ObserveRequest(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)

	handler := Metrics(registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `renderlens_http_requests_total{method="GET",endpoint="/health",status="200"} 1`) {
		t.Fatalf("expected request counter in body, got:\n%s", body)
	}
}
