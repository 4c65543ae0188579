// Package handlers contains the HTTP handlers behind the render gateway's
// public and operational endpoints. Handlers hold no long-lived state
// beyond the collaborators injected at construction.
package handlers

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON error shape shared by every user-facing endpoint.
// RetryAfter and Details appear only where the endpoint populates them.
type errorBody struct {
	Error      string `json:"error"`
	MessageKey string `json:"messageKey"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	Details    string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
