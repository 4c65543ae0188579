package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Health handles GET /health, the liveness probe. It never consults any
// collaborator.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
	})
}

// DirProber reports whether path is an existing directory. Stat failures
// count as "not a directory", not as probe errors.
type DirProber func(ctx context.Context, path string) (bool, error)

func statDir(_ context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, nil
	}
	return info.IsDir(), nil
}

type readinessResponse struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks,omitempty"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ReadinessHandler probes the data directories the application serves
// from before declaring the process ready for traffic.
type ReadinessHandler struct {
	dataDir string
	probe   DirProber
	logger  *zap.Logger
}

// NewReadinessHandler builds a handler probing under dataDir.
func NewReadinessHandler(dataDir string, logger *zap.Logger) *ReadinessHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadinessHandler{dataDir: dataDir, probe: statDir, logger: logger}
}

// WithProber overrides the filesystem probe. Tests use it to observe
// probe scheduling.
func (h *ReadinessHandler) WithProber(probe DirProber) *ReadinessHandler {
	h.probe = probe
	return h
}

// Ready handles GET /ready. The three directory probes run in parallel;
// the response is 200 only when all of them are directories.
func (h *ReadinessHandler) Ready(w http.ResponseWriter, r *http.Request) {
	var quizzes, results, uploads bool

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		quizzes, err = h.probe(ctx, filepath.Join(h.dataDir, "quizzes"))
		return err
	})
	g.Go(func() error {
		var err error
		results, err = h.probe(ctx, filepath.Join(h.dataDir, "results"))
		return err
	})
	g.Go(func() error {
		var err error
		uploads, err = h.probe(ctx, filepath.Join(h.dataDir, "public", "uploads"))
		return err
	})

	if err := g.Wait(); err != nil {
		h.logger.Error("readiness probe failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, readinessResponse{
			Status:    "error",
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		})
		return
	}

	checks := map[string]bool{
		"quizzes": quizzes,
		"results": results,
		"uploads": uploads,
	}

	status := "ready"
	code := http.StatusOK
	if !(quizzes && results && uploads) {
		status = "not ready"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, readinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	})
}
