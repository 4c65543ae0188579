// Package metrics holds the in-process registry backing the /metrics
// endpoint. Counters follow Prometheus text exposition conventions.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// ContentTypeText is the Prometheus text exposition content type.
const ContentTypeText = "text/plain; version=0.0.4"

// Render outcomes recorded against render_requests_total.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
)

type requestLabel struct {
	method   string
	endpoint string
	status   string
}

// Registry aggregates HTTP and render counters in memory. It is safe for
// concurrent use and renders stable, sorted exposition text.
type Registry struct {
	mu              sync.RWMutex
	requestCount    map[requestLabel]uint64
	requestDuration map[requestLabel]time.Duration
	renderOutcomes  map[string]uint64
	renderDuration  time.Duration
	renderCount     uint64
	panics          uint64
}

// NewRegistry returns an empty Registry ready for recording.
func NewRegistry() *Registry {
	return &Registry{
		requestCount:    make(map[requestLabel]uint64),
		requestDuration: make(map[requestLabel]time.Duration),
		renderOutcomes:  make(map[string]uint64),
	}
}

// ObserveRequest accumulates request count and duration per method, route
// pattern, and status. Patterns, not raw paths, keep cardinality bounded.
func (r *Registry) ObserveRequest(method, endpoint string, status int, duration time.Duration) {
	label := requestLabel{
		method:   strings.ToUpper(method),
		endpoint: endpoint,
		status:   fmt.Sprintf("%d", status),
	}
	r.mu.Lock()
	r.requestCount[label]++
	r.requestDuration[label] += duration
	r.mu.Unlock()
}

// ObserveRender records one render submission by outcome. Duration is only
// accumulated for successful renders.
func (r *Registry) ObserveRender(outcome string, duration time.Duration) {
	normalized := strings.ToLower(strings.TrimSpace(outcome))
	if normalized == "" {
		normalized = "unknown"
	}
	r.mu.Lock()
	r.renderOutcomes[normalized]++
	if normalized == OutcomeOK {
		r.renderCount++
		r.renderDuration += duration
	}
	r.mu.Unlock()
}

// RecordPanic counts a recovered handler panic.
func (r *Registry) RecordPanic() {
	r.mu.Lock()
	r.panics++
	r.mu.Unlock()
}

// ContentType declares the exposition format served at /metrics.
func (r *Registry) ContentType() string {
	return ContentTypeText
}

// Render serializes the registry. The error return is part of the metrics
// collaborator contract; this implementation cannot fail.
func (r *Registry) Render() (string, error) {
	var b strings.Builder
	r.Write(&b)
	return b.String(), nil
}

// Write renders Prometheus text exposition data with sorted label sets so
// scrapes and tests see stable output.
func (r *Registry) Write(w io.Writer) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requestLabels := r.sortedRequestLabels()
	outcomes := r.sortedRenderOutcomes()

	fmt.Fprintln(w, "# HELP renderlens_http_requests_total Total HTTP requests processed")
	fmt.Fprintln(w, "# TYPE renderlens_http_requests_total counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "renderlens_http_requests_total{method=%q,endpoint=%q,status=%q} %d\n",
			label.method, label.endpoint, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP renderlens_http_request_duration_seconds_sum Cumulative HTTP request duration in seconds")
	fmt.Fprintln(w, "# TYPE renderlens_http_request_duration_seconds_sum counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "renderlens_http_request_duration_seconds_sum{method=%q,endpoint=%q,status=%q} %f\n",
			label.method, label.endpoint, label.status, r.requestDuration[label].Seconds())
	}

	fmt.Fprintln(w, "# HELP renderlens_http_request_duration_seconds_count Observations for request durations")
	fmt.Fprintln(w, "# TYPE renderlens_http_request_duration_seconds_count counter")
	for _, label := range requestLabels {
		fmt.Fprintf(w, "renderlens_http_request_duration_seconds_count{method=%q,endpoint=%q,status=%q} %d\n",
			label.method, label.endpoint, label.status, r.requestCount[label])
	}

	fmt.Fprintln(w, "# HELP renderlens_render_requests_total Render submissions by outcome")
	fmt.Fprintln(w, "# TYPE renderlens_render_requests_total counter")
	for _, outcome := range outcomes {
		fmt.Fprintf(w, "renderlens_render_requests_total{outcome=%q} %d\n", outcome, r.renderOutcomes[outcome])
	}

	fmt.Fprintln(w, "# HELP renderlens_render_duration_seconds_sum Cumulative duration of successful renders in seconds")
	fmt.Fprintln(w, "# TYPE renderlens_render_duration_seconds_sum counter")
	fmt.Fprintf(w, "renderlens_render_duration_seconds_sum %f\n", r.renderDuration.Seconds())

	fmt.Fprintln(w, "# HELP renderlens_render_duration_seconds_count Observations for successful render durations")
	fmt.Fprintln(w, "# TYPE renderlens_render_duration_seconds_count counter")
	fmt.Fprintf(w, "renderlens_render_duration_seconds_count %d\n", r.renderCount)

	fmt.Fprintln(w, "# HELP renderlens_panics_total Recovered handler panics")
	fmt.Fprintln(w, "# TYPE renderlens_panics_total counter")
	fmt.Fprintf(w, "renderlens_panics_total %d\n", r.panics)
}

// Reset clears all counters. It is intended for test setups.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestCount = make(map[requestLabel]uint64)
	r.requestDuration = make(map[requestLabel]time.Duration)
	r.renderOutcomes = make(map[string]uint64)
	r.renderDuration = 0
	r.renderCount = 0
	r.panics = 0
}

// RenderOutcomes returns a copy of the outcome counters for tests.
func (r *Registry) RenderOutcomes() map[string]uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]uint64, len(r.renderOutcomes))
	for k, v := range r.renderOutcomes {
		out[k] = v
	}
	return out
}

func (r *Registry) sortedRequestLabels() []requestLabel {
	labels := make([]requestLabel, 0, len(r.requestCount))
	for label := range r.requestCount {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if labels[i].method != labels[j].method {
			return labels[i].method < labels[j].method
		}
		if labels[i].endpoint != labels[j].endpoint {
			return labels[i].endpoint < labels[j].endpoint
		}
		return labels[i].status < labels[j].status
	})
	return labels
}

func (r *Registry) sortedRenderOutcomes() []string {
	outcomes := make([]string, 0, len(r.renderOutcomes))
	for outcome := range r.renderOutcomes {
		outcomes = append(outcomes, outcome)
	}
	sort.Strings(outcomes)
	return outcomes
}
