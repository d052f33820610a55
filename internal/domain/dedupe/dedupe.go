// Package dedupe tracks batch submission ids so a resubmitted batch is not
// assessed twice.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

// DefaultMaxSize is the number of ids remembered before the oldest is evicted.
const DefaultMaxSize = 50000

// Deduper records seen batch ids.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if it was not. The check and the insert happen atomically.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the batch can be resubmitted, for example after
	// its jobs were rejected by a full queue.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of remembered ids.
	Size() int
}

// memoryDeduper remembers ids in insertion order. When bounded, the oldest
// id is evicted to make room for a new one.
type memoryDeduper struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	seen    map[string]*list.Element
}

// NewInMemoryDeduper creates a deduper bounded at DefaultMaxSize unless
// configured otherwise.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{
		maxSize: DefaultMaxSize,
		order:   list.New(),
		seen:    make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && d.order.Len() >= d.maxSize {
		oldest := d.order.Front()
		d.order.Remove(oldest)
		delete(d.seen, oldest.Value.(string))
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *memoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order.Len()
}
