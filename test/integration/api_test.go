package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renderlens/renderlens/internal/config"
	"github.com/renderlens/renderlens/internal/ratelimit"
	"github.com/renderlens/renderlens/internal/render"
	"github.com/renderlens/renderlens/internal/server"
)

// scriptedService lets each scenario script the collaborator's behavior
// and observe how often it was reached.
type scriptedService struct {
	renderFn func(ctx context.Context, code string, opts render.Options) (*render.Result, error)
	statusFn func(ctx context.Context) (*render.Availability, error)
	enabled  bool
	calls    atomic.Int64
}

func (s *scriptedService) RenderAnimation(ctx context.Context, code string, opts render.Options) (*render.Result, error) {
	s.calls.Add(1)
	if s.renderFn != nil {
		return s.renderFn(ctx, code, opts)
	}
	return &render.Result{VideoPath: "/out/s.mp4", Duration: 3}, nil
}

func (s *scriptedService) CheckAvailability(ctx context.Context) (*render.Availability, error) {
	if s.statusFn != nil {
		return s.statusFn(ctx)
	}
	return &render.Availability{Available: true, Version: "0.18.1"}, nil
}

func (s *scriptedService) Enabled() bool { return s.enabled }

type serverOptions struct {
	mutateConfig func(*config.Config)
	limiter      *ratelimit.Limiter
}

func newAPIServer(t *testing.T, svc render.Service, opts serverOptions) *httptest.Server {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	cfg.DataDir = t.TempDir()
	if opts.mutateConfig != nil {
		opts.mutateConfig(cfg)
	}

	srv := server.New(server.Deps{
		Config:   cfg,
		Renderer: svc,
		Limiter:  opts.limiter,
	})
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, payload map[string]any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

const sceneCode = "from manim import *\nclass S(Scene):\n  def construct(self):\n    pass"

func TestRenderSuccessEndToEnd(t *testing.T) {
	svc := &scriptedService{enabled: true}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, body := postJSON(t, ts.URL+"/manim/render",
		map[string]any{"code": sceneCode, "quality": "low"}, nil)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/out/s.mp4", body["videoPath"])
	assert.Equal(t, float64(3), body["duration"])
	assert.Equal(t, int64(1), svc.calls.Load())
}

func TestRenderRejectsUnknownQualityEndToEnd(t *testing.T) {
	svc := &scriptedService{enabled: true}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, body := postJSON(t, ts.URL+"/manim/render",
		map[string]any{"code": sceneCode, "quality": "ultra"}, nil)

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quality must be one of: low, medium, high", body["error"])
	assert.Equal(t, "error_manim_invalid_quality", body["messageKey"])
	assert.Zero(t, svc.calls.Load(), "render service must not be invoked")
}

func TestRenderRateLimitEndToEnd(t *testing.T) {
	// The clock is read from handler goroutines, so guard it.
	var (
		mu  sync.Mutex
		now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
	limiter := ratelimit.New(ratelimit.Options{Clock: clock})

	svc := &scriptedService{enabled: true}
	ts := newAPIServer(t, svc, serverOptions{limiter: limiter})

	// Three requests from 1.2.3.4 within ten seconds; RealIP picks the
	// address out of X-Forwarded-For.
	headers := map[string]string{"X-Forwarded-For": "1.2.3.4"}
	payload := map[string]any{"code": sceneCode, "quality": "low"}

	resp, _ := postJSON(t, ts.URL+"/manim/render", payload, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	advance(5 * time.Second)
	resp, _ = postJSON(t, ts.URL+"/manim/render", payload, headers)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	advance(5 * time.Second)
	resp, body := postJSON(t, ts.URL+"/manim/render", payload, headers)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	assert.Equal(t, "Rate limit exceeded", body["error"])
	assert.Equal(t, "error_rate_limited", body["messageKey"])
	retryAfter, ok := body["retryAfter"].(float64)
	require.True(t, ok, "retryAfter must be a number, got %T", body["retryAfter"])
	assert.GreaterOrEqual(t, retryAfter, float64(50))
	assert.LessOrEqual(t, retryAfter, float64(60))
	assert.Equal(t, "50", resp.Header.Get("Retry-After"))
	assert.Equal(t, int64(2), svc.calls.Load())
}

func TestRenderTimeoutEndToEnd(t *testing.T) {
	svc := &scriptedService{
		enabled: true,
		renderFn: func(ctx context.Context, code string, opts render.Options) (*render.Result, error) {
			return nil, render.NewTimeoutError("process timeout after 30s", "")
		},
	}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, body := postJSON(t, ts.URL+"/manim/render", map[string]any{"code": sceneCode}, nil)

	require.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	assert.Equal(t, "Animation render timed out. Try simplifying the animation.", body["error"])
	assert.Equal(t, "error_manim_timeout", body["messageKey"])
}

func TestRenderFailureSanitizedEndToEnd(t *testing.T) {
	svc := &scriptedService{
		enabled: true,
		renderFn: func(ctx context.Context, code string, opts render.Options) (*render.Result, error) {
			return nil, errors.New("spawn failed at /usr/local/bin/manim (line 42)\n  at Runner.exec (/app/src/runner.js:17:9)")
		},
	}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, body := postJSON(t, ts.URL+"/manim/render", map[string]any{"code": sceneCode}, nil)

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Render failed", body["error"])
	assert.Equal(t, "error_manim_render_failed", body["messageKey"])
	assert.Equal(t, "spawn failed at [file] (line 42)", body["details"])
}

func TestReadinessEndToEnd(t *testing.T) {
	svc := &scriptedService{enabled: true}

	var dataDir string
	ts := newAPIServer(t, svc, serverOptions{
		mutateConfig: func(cfg *config.Config) {
			dataDir = cfg.DataDir
		},
	})

	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "quizzes"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "results"), 0o755))

	resp, body := getJSON(t, ts.URL+"/ready")

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "not ready", body["status"])

	checks, ok := body["checks"].(map[string]any)
	require.True(t, ok, "expected checks object")
	assert.Equal(t, true, checks["quizzes"])
	assert.Equal(t, true, checks["results"])
	assert.Equal(t, false, checks["uploads"])
	assert.NotEmpty(t, body["timestamp"])

	// Creating the missing directory flips readiness.
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "public", "uploads"), 0o755))

	resp, body = getJSON(t, ts.URL+"/ready")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}

func TestStatusDegradedEndToEnd(t *testing.T) {
	svc := &scriptedService{
		enabled: true,
		statusFn: func(ctx context.Context) (*render.Availability, error) {
			return nil, errors.New("connection refused")
		},
	}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, body := getJSON(t, ts.URL+"/manim/status")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["available"])
	version, present := body["version"]
	require.True(t, present, "version key must be present")
	assert.Nil(t, version)
	assert.Equal(t, false, body["enabled"])
	assert.Equal(t, "Status check failed", body["error"])
}

func TestOperationalEndpointsEndToEnd(t *testing.T) {
	svc := &scriptedService{enabled: true}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, body := getJSON(t, ts.URL+"/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	resp, body = getJSON(t, ts.URL+"/debug/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "router mounted at root", body["mountDescription"])

	resp, body = getJSON(t, ts.URL+"/api/stats/memory")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Regexp(t, `^\d+s$`, body["uptime"])
	memory, ok := body["memory"].(map[string]any)
	require.True(t, ok, "expected memory object")
	assert.Regexp(t, `^\d+MB$`, memory["heapUsed"])

	httpResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = httpResp.Body.Close() }()
	require.Equal(t, http.StatusOK, httpResp.StatusCode)
	assert.Equal(t, "text/plain; version=0.0.4", httpResp.Header.Get("Content-Type"))
	text, err := io.ReadAll(httpResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(text), `renderlens_http_requests_total{method="GET",endpoint="/health",status="200"}`)
}

func TestBasePathMountEndToEnd(t *testing.T) {
	svc := &scriptedService{enabled: true}
	ts := newAPIServer(t, svc, serverOptions{
		mutateConfig: func(cfg *config.Config) {
			cfg.Server.BasePath = "/manim-api"
		},
	})

	resp, body := postJSON(t, fmt.Sprintf("%s/manim-api/manim/render", ts.URL),
		map[string]any{"code": sceneCode}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/out/s.mp4", body["videoPath"])

	httpResp, err := http.Get(ts.URL + "/manim/render")
	require.NoError(t, err)
	defer func() { _ = httpResp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, httpResp.StatusCode)

	resp, body = getJSON(t, ts.URL+"/manim-api/debug/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "router mounted under /manim-api", body["mountDescription"])
	basePath, ok := body["basePath"].(map[string]any)
	require.True(t, ok, "expected basePath echo object")
	assert.Equal(t, "/manim-api", basePath["raw"])
	assert.Equal(t, false, basePath["equalsSlash"])
}

func TestMalformedBodyEndToEnd(t *testing.T) {
	svc := &scriptedService{enabled: true}
	ts := newAPIServer(t, svc, serverOptions{})

	resp, err := http.Post(ts.URL+"/manim/render", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "error_manim_code_required", body["messageKey"])
	assert.Zero(t, svc.calls.Load())
}
