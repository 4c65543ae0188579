package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/renderlens/renderlens/internal/render"
)

func getStatus(t *testing.T, h *RenderHandler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/manim/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode status body: %v", err)
	}
	return rec, body
}

func TestStatusReportsAvailability(t *testing.T) {
	service := &stubRenderService{
		avail:   &render.Availability{Available: true, Version: "0.18.1"},
		enabled: true,
	}
	h := newTestRenderHandler(service, nil)

	rec, body := getStatus(t, h)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["available"] != true {
		t.Fatalf("expected available true, got %v", body["available"])
	}
	if body["version"] != "0.18.1" {
		t.Fatalf("expected version 0.18.1, got %v", body["version"])
	}
	if body["enabled"] != true {
		t.Fatalf("expected enabled true, got %v", body["enabled"])
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("error field should be omitted on success, got %v", body["error"])
	}
}

func TestStatusUnavailableRenderer(t *testing.T) {
	service := &stubRenderService{
		avail:   &render.Availability{Available: false, Version: ""},
		enabled: true,
	}
	h := newTestRenderHandler(service, nil)

	rec, body := getStatus(t, h)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["available"] != false {
		t.Fatalf("expected available false, got %v", body["available"])
	}
	if version, present := body["version"]; !present || version != nil {
		t.Fatalf("expected version null when renderer reports none, got %v", body["version"])
	}
}

func TestStatusDegradesOnCheckFailure(t *testing.T) {
	service := &stubRenderService{
		availErr: errors.New("connection refused"),
		enabled:  true,
	}
	h := newTestRenderHandler(service, nil)

	rec, body := getStatus(t, h)

	if rec.Code != http.StatusOK {
		t.Fatalf("degraded status must still answer 200, got %d", rec.Code)
	}
	if body["available"] != false {
		t.Fatalf("expected available false, got %v", body["available"])
	}
	version, present := body["version"]
	if !present {
		t.Fatal("version key must be present")
	}
	if version != nil {
		t.Fatalf("expected version null, got %v", version)
	}
	if body["enabled"] != false {
		t.Fatalf("expected enabled false, got %v", body["enabled"])
	}
	if body["error"] != "Status check failed" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}
