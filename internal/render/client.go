package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8090"
	defaultTimeout = 60 * time.Second
)

// ClientConfig configures the renderer HTTP client.
type ClientConfig struct {
	BaseURL    string
	Enabled    bool
	Timeout    time.Duration
	Presets    PresetTable
	HTTPClient *http.Client
}

// Client implements Service against a remote renderer over HTTP.
type Client struct {
	baseURL    string
	enabled    bool
	timeout    time.Duration
	presets    PresetTable
	httpClient *http.Client
}

// NewClient returns a client with defaults applied.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	presets := cfg.Presets
	if presets == nil {
		presets = DefaultPresets()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		enabled:    cfg.Enabled,
		timeout:    timeout,
		presets:    presets,
		httpClient: httpClient,
	}
}

// Enabled reports whether rendering is switched on in configuration.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

type renderRequest struct {
	Code       string `json:"code"`
	Quality    string `json:"quality"`
	Resolution string `json:"resolution"`
	FrameRate  int    `json:"frame_rate"`
}

type renderResponse struct {
	VideoPath string  `json:"video_path"`
	Duration  float64 `json:"duration"`
}

// RenderAnimation submits code to the remote renderer and returns the
// produced video reference. Failures come back as tagged *Error values.
func (c *Client) RenderAnimation(ctx context.Context, code string, opts Options) (*Result, error) {
	if c == nil {
		return nil, NewInternalError("render client not configured", nil)
	}
	if strings.TrimSpace(code) == "" {
		return nil, NewValidationError("code is required and must be a non-empty string", "error_manim_code_required")
	}

	quality := opts.Quality
	if quality == "" {
		quality = DefaultQuality
	}
	if !ValidQuality(quality) {
		return nil, NewValidationError("quality must be one of: low, medium, high", "error_manim_invalid_quality")
	}
	preset := c.presets.Lookup(quality)

	body, err := json.Marshal(renderRequest{
		Code:       code,
		Quality:    string(quality),
		Resolution: preset.Resolution,
		FrameRate:  preset.FrameRate,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	if cancel != nil {
		defer cancel()
	}

	url := strings.TrimRight(c.baseURL, "/") + "/render"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &Error{Kind: KindTimeout, Code: CodeTimeout, Message: "render request timed out", Err: err}
		}
		return nil, NewInternalError("render request failed", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, remoteError(resp.StatusCode, respBody)
	}

	var parsed renderResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(parsed.VideoPath) == "" {
		return nil, NewInternalError("renderer returned no video path", nil)
	}

	return &Result{VideoPath: parsed.VideoPath, Duration: parsed.Duration}, nil
}

type statusResponse struct {
	Available bool   `json:"available"`
	Version   string `json:"version"`
}

// CheckAvailability probes the renderer's status endpoint.
func (c *Client) CheckAvailability(ctx context.Context) (*Availability, error) {
	if c == nil {
		return nil, NewInternalError("render client not configured", nil)
	}

	ctx, cancel := withTimeout(ctx, c.timeout)
	if cancel != nil {
		defer cancel()
	}

	url := strings.TrimRight(c.baseURL, "/") + "/status"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("status request failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed statusResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &Availability{Available: parsed.Available, Version: parsed.Version}, nil
}

// remoteError translates a non-2xx renderer response into a tagged variant.
// The renderer reports {error, message_key, code}; plain-text bodies are
// carried through as the message.
func remoteError(status int, body []byte) *Error {
	var remote struct {
		Error      string `json:"error"`
		MessageKey string `json:"message_key"`
		Code       string `json:"code"`
	}
	_ = json.Unmarshal(body, &remote)

	message := strings.TrimSpace(remote.Error)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case remote.Code == CodeValidation || status == http.StatusBadRequest:
		return NewValidationError(message, remote.MessageKey)
	case remote.Code == CodeTimeout || status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return NewTimeoutError(message, remote.MessageKey)
	default:
		err := NewInternalError(fmt.Sprintf("renderer returned status %d: %s", status, message), nil)
		err.MessageKey = remote.MessageKey
		return err
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
