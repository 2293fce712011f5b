// Package dedupe provides idempotency tracking for ingestion events.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen ingestion event IDs so a replayed submission is
// acknowledged without being processed twice.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an ID from the seen set so it can be retried.
	// Used when an event was marked seen but failed to enqueue.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// ringDeduper implements Deduper with a map plus a fixed-size ring of
// insertion order. When the ring is full the oldest recorded ID is
// evicted. maxSize <= 0 disables eviction.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// defaultMaxSize bounds memory when no option is given.
const defaultMaxSize = 50000

// Option applies a configuration option to the deduper.
type Option func(*ringDeduper)

// WithMaxSize sets the maximum number of IDs to keep. Sizes <= 0 mean
// unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *ringDeduper) {
		d.maxSize = maxSize
	}
}

// New creates an in-memory deduper.
func New(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

// SeenAndRecord atomically checks and records an ID.
func (d *ringDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			if _, ok := d.seen[old]; ok {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen set.
func (d *ringDeduper) Unrecord(ctx context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// Size returns the current number of tracked IDs.
func (d *ringDeduper) Size() int64 {
	return d.size.Load()
}
