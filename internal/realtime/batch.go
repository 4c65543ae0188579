// Package realtime carries the in-process collaborators behind the live
// game surface: the session registry and the socket-emission batcher.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultFlushInterval is the period between background queue drains.
const DefaultFlushInterval = 100 * time.Millisecond

// Event is a socket emission queued for batched delivery.
type Event struct {
	GameID  string          `json:"gameId"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Sink receives drained event batches.
type Sink interface {
	EmitBatch(events []Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(events []Event) error

// EmitBatch calls f.
func (f SinkFunc) EmitBatch(events []Event) error { return f(events) }

// Stats is a point-in-time snapshot of batcher activity. LastFlushAt is
// nil until the first batch has been emitted.
type Stats struct {
	QueuedEvents   int        `json:"queuedEvents"`
	FlushedBatches uint64     `json:"flushedBatches"`
	FlushedEvents  uint64     `json:"flushedEvents"`
	LastFlushAt    *time.Time `json:"lastFlushAt"`
}

// Batcher queues socket events and drains them through a sink on a fixed
// interval. A nil sink discards batches. Close stops the loop and performs
// a final drain; it is safe to call more than once.
type Batcher struct {
	mu             sync.Mutex
	pending        []Event
	flushedBatches uint64
	flushedEvents  uint64
	lastFlush      time.Time
	hasFlushed     bool

	sink     Sink
	logger   *zap.Logger
	interval time.Duration
	clock    func() time.Time

	done chan struct{}
	wg   sync.WaitGroup
	stop sync.Once
}

// BatcherOptions configures a Batcher. Zero values select defaults.
type BatcherOptions struct {
	// Interval between background drains. Defaults to DefaultFlushInterval.
	Interval time.Duration
	// Sink receives each drained batch. Nil discards.
	Sink Sink
	// Logger records emission failures. Defaults to a no-op logger.
	Logger *zap.Logger
	// Clock overrides time.Now for tests.
	Clock func() time.Time
}

// NewBatcher builds a Batcher and starts its flush loop.
func NewBatcher(opts BatcherOptions) *Batcher {
	b := &Batcher{
		sink:     opts.Sink,
		logger:   opts.Logger,
		interval: opts.Interval,
		clock:    opts.Clock,
		done:     make(chan struct{}),
	}
	if b.interval <= 0 {
		b.interval = DefaultFlushInterval
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.clock == nil {
		b.clock = time.Now
	}

	b.wg.Add(1)
	go b.run()
	return b
}

// Enqueue appends an event to the pending queue.
func (b *Batcher) Enqueue(event Event) {
	b.mu.Lock()
	b.pending = append(b.pending, event)
	b.mu.Unlock()
}

// Stats reports queue depth and cumulative flush counters.
func (b *Batcher) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := Stats{
		QueuedEvents:   len(b.pending),
		FlushedBatches: b.flushedBatches,
		FlushedEvents:  b.flushedEvents,
	}
	if b.hasFlushed {
		at := b.lastFlush
		stats.LastFlushAt = &at
	}
	return stats
}

// Flush drains the pending queue through the sink immediately. Empty
// queues do not produce a batch.
func (b *Batcher) Flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = nil
	b.mu.Unlock()

	if b.sink != nil {
		if err := b.sink.EmitBatch(batch); err != nil {
			b.logger.Warn("batch emission failed",
				zap.Int("events", len(batch)),
				zap.Error(err))
			return
		}
	}

	now := b.clock()
	b.mu.Lock()
	b.flushedBatches++
	b.flushedEvents += uint64(len(batch))
	b.lastFlush = now
	b.hasFlushed = true
	b.mu.Unlock()
}

// Close stops the flush loop and drains whatever is still queued.
func (b *Batcher) Close() {
	b.stop.Do(func() {
		close(b.done)
		b.wg.Wait()
		b.Flush()
	})
}

func (b *Batcher) run() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.done:
			return
		}
	}
}
