package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DebugConfigHandler echoes the base-path configuration so deployments
// behind path-rewriting proxies can be diagnosed from the outside.
type DebugConfigHandler struct {
	basePath    string
	environment string
	production  bool
}

// NewDebugConfigHandler captures the values the factory was configured
// with, exactly as received.
func NewDebugConfigHandler(basePath, environment string, production bool) *DebugConfigHandler {
	return &DebugConfigHandler{
		basePath:    basePath,
		environment: environment,
		production:  production,
	}
}

type basePathEcho struct {
	Raw            string `json:"raw"`
	JSONEscaped    string `json:"jsonEscaped"`
	Length         int    `json:"length"`
	Type           string `json:"type"`
	EqualsSlash    bool   `json:"equalsSlash"`
	NotEqualsSlash bool   `json:"notEqualsSlash"`
}

type debugConfigResponse struct {
	BasePath    basePathEcho `json:"basePath"`
	Environment string       `json:"environment"`
	Production  bool         `json:"production"`
	Mount       string       `json:"mountDescription"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Config handles GET /debug/config.
func (h *DebugConfigHandler) Config(w http.ResponseWriter, r *http.Request) {
	escaped, _ := json.Marshal(h.basePath)

	writeJSON(w, http.StatusOK, debugConfigResponse{
		BasePath: basePathEcho{
			Raw:            h.basePath,
			JSONEscaped:    string(escaped),
			Length:         len(h.basePath),
			Type:           fmt.Sprintf("%T", h.basePath),
			EqualsSlash:    h.basePath == "/",
			NotEqualsSlash: h.basePath != "/",
		},
		Environment: h.environment,
		Production:  h.production,
		Mount:       MountDescription(h.basePath),
		Timestamp:   time.Now().UTC(),
	})
}

// MountDescription names where the router is mounted. Startup logs and
// /debug/config report the same string.
func MountDescription(basePath string) string {
	if basePath == "/" {
		return "router mounted at root"
	}
	return fmt.Sprintf("router mounted under %s", basePath)
}
