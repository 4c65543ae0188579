package handlers

import (
	"fmt"
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/renderlens/renderlens/internal/realtime"
)

// GameCounter exposes the active game count from the session registry.
type GameCounter interface {
	ActiveGames() int
}

// BatchStatser exposes the batcher's counters.
type BatchStatser interface {
	Stats() realtime.Stats
}

type memorySnapshot struct {
	HeapUsed  string `json:"heapUsed"`
	HeapTotal string `json:"heapTotal"`
	RSS       string `json:"rss"`
	External  string `json:"external"`
}

type memoryStatsResponse struct {
	Memory    memorySnapshot `json:"memory"`
	Games     int            `json:"games"`
	Batch     realtime.Stats `json:"batch"`
	Uptime    string         `json:"uptime"`
	Timestamp time.Time      `json:"timestamp"`
}

// StatsHandler reports process memory alongside session and batcher
// statistics.
type StatsHandler struct {
	sessions GameCounter
	batcher  BatchStatser
	started  time.Time
}

// NewStatsHandler builds the stats handler; uptime counts from now.
func NewStatsHandler(sessions GameCounter, batcher BatchStatser) *StatsHandler {
	return &StatsHandler{sessions: sessions, batcher: batcher, started: time.Now()}
}

// WithStartTime overrides the uptime origin. Tests use it to pin uptime.
func (h *StatsHandler) WithStartTime(t time.Time) *StatsHandler {
	h.started = t
	return h
}

// MemoryStats handles GET /api/stats/memory.
func (h *StatsHandler) MemoryStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	games := 0
	if h.sessions != nil {
		games = h.sessions.ActiveGames()
	}

	var batch realtime.Stats
	if h.batcher != nil {
		batch = h.batcher.Stats()
	}

	uptime := time.Since(h.started).Round(time.Second)

	writeJSON(w, http.StatusOK, memoryStatsResponse{
		Memory: memorySnapshot{
			HeapUsed:  megabytes(m.HeapAlloc),
			HeapTotal: megabytes(m.HeapSys),
			RSS:       megabytes(m.Sys),
			External:  megabytes(m.Sys - m.HeapSys),
		},
		Games:     games,
		Batch:     batch,
		Uptime:    fmt.Sprintf("%ds", int64(uptime/time.Second)),
		Timestamp: time.Now().UTC(),
	})
}

// megabytes renders a byte count as whole megabytes.
func megabytes(bytes uint64) string {
	return fmt.Sprintf("%dMB", int64(math.Round(float64(bytes)/(1024*1024))))
}
