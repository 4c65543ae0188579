package server

import (
	"encoding/json"
	"net/http"
)

type errorBody struct {
	Error      string `json:"error"`
	MessageKey string `json:"messageKey"`
}

func respondError(w http.ResponseWriter, status int, message, key string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message, MessageKey: key})
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusNotFound, "Resource not found", "error_not_found")
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "error_method_not_allowed")
}
