// Package ratelimit provides the per-client fixed-window limiter used by the
// render endpoint.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Defaults for the render endpoint. All overridable through Options.
const (
	DefaultMaxPerWindow  = 2
	DefaultWindow        = time.Minute
	DefaultJanitorPeriod = 5 * time.Minute
	DefaultJanitorGrace  = time.Minute
)

// Limiter counts requests per client address in fixed windows. State is per
// process; replicas do not coordinate.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	max    int
	window time.Duration
	clock  func() time.Time
}

// entry is the live window for one address. Once now passes resetTime the
// entry is semantically absent and is replaced on the next observation.
type entry struct {
	count     int
	resetTime time.Time
}

// Decision is the outcome of a single Check call. RetryAfter is whole
// seconds until the window resets, rounded up, set only on denial.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int
}

// Options configures a Limiter. Zero values take the defaults; Clock exists
// for tests.
type Options struct {
	MaxPerWindow int
	Window       time.Duration
	Clock        func() time.Time
}

// New returns a Limiter with defaults applied.
func New(opts Options) *Limiter {
	max := opts.MaxPerWindow
	if max <= 0 {
		max = DefaultMaxPerWindow
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	return &Limiter{
		entries: make(map[string]*entry),
		max:     max,
		window:  window,
		clock:   clock,
	}
}

// Check records one observation for address and decides whether it may
// proceed in the current window. Denials do not mutate the entry.
func (l *Limiter) Check(address string) Decision {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[address]
	if !ok || now.After(e.resetTime) {
		l.entries[address] = &entry{count: 1, resetTime: now.Add(l.window)}
		return Decision{Allowed: true, Remaining: l.max - 1}
	}

	if e.count >= l.max {
		retryAfter := int(math.Ceil(e.resetTime.Sub(now).Seconds()))
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}
	}

	e.count++
	return Decision{Allowed: true, Remaining: l.max - e.count}
}

// Sweep deletes entries whose window expired more than grace ago, returning
// the number removed.
func (l *Limiter) Sweep(grace time.Duration) int {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for address, e := range l.entries {
		if e.resetTime.Add(grace).Before(now) {
			delete(l.entries, address)
			removed++
		}
	}
	return removed
}

// StartJanitor sweeps expired entries every period and returns a stop
// function. The stop function is idempotent and must be called at shutdown
// so the ticker goroutine does not pin the process.
func (l *Limiter) StartJanitor(period, grace time.Duration) func() {
	if period <= 0 {
		period = DefaultJanitorPeriod
	}
	if grace <= 0 {
		grace = DefaultJanitorGrace
	}

	ticker := time.NewTicker(period)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				l.Sweep(grace)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// Size reports the number of tracked addresses.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
