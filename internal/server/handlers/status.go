package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// statusResponse reports renderer availability. Version marshals to null
// when the probe failed.
type statusResponse struct {
	Available bool    `json:"available"`
	Version   *string `json:"version"`
	Enabled   bool    `json:"enabled"`
	Error     string  `json:"error,omitempty"`
}

// Status handles GET /manim/status. It always answers 200 so orchestration
// probes can read it even while the render subsystem is broken.
func (h *RenderHandler) Status(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.CheckAvailability(r.Context())
	if err != nil {
		h.logger.Error("renderer status check failed", zap.Error(err))
		writeJSON(w, http.StatusOK, statusResponse{
			Available: false,
			Version:   nil,
			Enabled:   false,
			Error:     "Status check failed",
		})
		return
	}

	var version *string
	if report.Version != "" {
		version = &report.Version
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Available: report.Available,
		Version:   version,
		Enabled:   h.service.Enabled(),
	})
}
