package pipeline

import (
	"sync"
	"time"

	"vink/internal/catalog"
)

// pendingItem is one deferred hypothesis awaiting a background attempt.
type pendingItem struct {
	ID         string
	Text       string
	Amount     int
	Confidence float64
	Context    catalog.MatchContext
	Attempts   int
	EnqueuedAt time.Time
}

// pendingBuffer is a concurrency-safe bounded FIFO with overwrite-oldest
// semantics. Producers are resolution calls; the single consumer is the
// background worker.
type pendingBuffer struct {
	mu       sync.Mutex
	items    []pendingItem
	capacity int
	dropped  uint64
	signal   chan struct{}
}

func newPendingBuffer(capacity int) *pendingBuffer {
	return &pendingBuffer{
		capacity: capacity,
		signal:   make(chan struct{}, 1),
	}
}

// push appends an item, evicting the oldest when full. Returns true when an
// eviction happened.
func (b *pendingBuffer) push(item pendingItem) bool {
	b.mu.Lock()
	evicted := false
	if len(b.items) >= b.capacity {
		b.items = b.items[1:]
		b.dropped++
		evicted = true
	}
	b.items = append(b.items, item)
	b.mu.Unlock()

	select {
	case b.signal <- struct{}{}:
	default:
	}
	return evicted
}

// pop removes the oldest item.
func (b *pendingBuffer) pop() (pendingItem, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == 0 {
		return pendingItem{}, false
	}
	item := b.items[0]
	b.items = b.items[1:]
	return item, true
}

func (b *pendingBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *pendingBuffer) full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items) >= b.capacity
}

func (b *pendingBuffer) drops() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
