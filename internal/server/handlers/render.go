package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/renderlens/renderlens/internal/metrics"
	"github.com/renderlens/renderlens/internal/ratelimit"
	"github.com/renderlens/renderlens/internal/render"
	"go.uber.org/zap"
)

// Error messages and localization keys for the render endpoint. The
// messages are part of the API contract consumed by clients.
const (
	msgCodeRequired   = "code is required and must be a non-empty string"
	msgInvalidQuality = "quality must be one of: low, medium, high"
	msgRateLimited    = "Rate limit exceeded"
	msgRenderTimeout  = "Animation render timed out. Try simplifying the animation."
	msgRenderFailed   = "Render failed"

	keyCodeRequired   = "error_manim_code_required"
	keyInvalidQuality = "error_manim_invalid_quality"
	keyRateLimited    = "error_rate_limited"
	keyInvalidCode    = "error_manim_invalid_code"
	keyTimeout        = "error_manim_timeout"
	keyRenderFailed   = "error_manim_render_failed"
)

// RenderHandler serves the animation endpoints: submission and status.
type RenderHandler struct {
	service  render.Service
	limiter  *ratelimit.Limiter
	registry *metrics.Registry
	logger   *zap.Logger
}

// NewRenderHandler wires the render endpoints to their collaborators.
func NewRenderHandler(service render.Service, limiter *ratelimit.Limiter, registry *metrics.Registry, logger *zap.Logger) *RenderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderHandler{
		service:  service,
		limiter:  limiter,
		registry: registry,
		logger:   logger,
	}
}

// Render handles POST /manim/render. Validation runs before rate-limit
// accounting so malformed submissions do not consume a client's window
// budget.
func (h *RenderHandler) Render(w http.ResponseWriter, r *http.Request) {
	// Fields decode as loose values so a wrong-typed or missing field is
	// a validation failure rather than a decode failure.
	var payload struct {
		Code    any `json:"code"`
		Quality any `json:"quality"`
	}
	_ = json.NewDecoder(r.Body).Decode(&payload)

	code, _ := payload.Code.(string)
	code = strings.TrimSpace(code)
	if code == "" {
		h.observe(metrics.OutcomeInvalid, 0)
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:      msgCodeRequired,
			MessageKey: keyCodeRequired,
		})
		return
	}

	quality := render.DefaultQuality
	if payload.Quality != nil {
		raw, ok := payload.Quality.(string)
		if !ok || !render.ValidQuality(render.Quality(raw)) {
			h.observe(metrics.OutcomeInvalid, 0)
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error:      msgInvalidQuality,
				MessageKey: keyInvalidQuality,
			})
			return
		}
		quality = render.Quality(raw)
	}

	address := clientAddr(r)
	decision := h.limiter.Check(address)
	if !decision.Allowed {
		h.logger.Warn("render rate limit exceeded",
			zap.String("address", address),
			zap.Int("retryAfter", decision.RetryAfter))
		h.observe(metrics.OutcomeRateLimited, 0)
		w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfter))
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:      msgRateLimited,
			MessageKey: keyRateLimited,
			RetryAfter: decision.RetryAfter,
		})
		return
	}

	h.logger.Info("render accepted",
		zap.String("address", address),
		zap.String("quality", string(quality)),
		zap.Int("remaining", decision.Remaining))

	start := time.Now()
	result, err := h.service.RenderAnimation(r.Context(), code, render.Options{Quality: quality})
	if err != nil {
		h.renderError(w, err)
		return
	}

	h.observe(metrics.OutcomeOK, time.Since(start))
	writeJSON(w, http.StatusOK, result)
}

// renderError maps collaborator failures onto the HTTP taxonomy:
// validation 400, timeout 408, everything else a sanitized 500.
func (h *RenderHandler) renderError(w http.ResponseWriter, err error) {
	switch render.KindOf(err) {
	case render.KindValidation:
		h.observe(metrics.OutcomeInvalid, 0)
		h.logger.Warn("render rejected by renderer", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:      collaboratorMessage(err),
			MessageKey: render.MessageKeyOf(err, keyInvalidCode),
		})
	case render.KindTimeout:
		h.observe(metrics.OutcomeTimeout, 0)
		h.logger.Warn("render timed out", zap.Error(err))
		writeJSON(w, http.StatusRequestTimeout, errorBody{
			Error:      msgRenderTimeout,
			MessageKey: render.MessageKeyOf(err, keyTimeout),
		})
	default:
		h.observe(metrics.OutcomeError, 0)
		h.logger.Error("render failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:      msgRenderFailed,
			MessageKey: render.MessageKeyOf(err, keyRenderFailed),
			Details:    render.Sanitize(collaboratorMessage(err)),
		})
	}
}

func (h *RenderHandler) observe(outcome string, duration time.Duration) {
	if h.registry != nil {
		h.registry.ObserveRender(outcome, duration)
	}
}

// collaboratorMessage extracts the renderer's own message text, without
// any wrapped transport cause appended.
func collaboratorMessage(err error) string {
	if rerr, ok := render.AsError(err); ok && rerr.Message != "" {
		return rerr.Message
	}
	return err.Error()
}

// clientAddr derives the rate-limit bucket key from the request. RealIP
// middleware upstream rewrites RemoteAddr from proxy headers; anything
// unparseable falls back to the shared "unknown" bucket.
func clientAddr(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
