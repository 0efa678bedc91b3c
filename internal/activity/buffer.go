package activity

import "sync"

// DefaultBufferSize is the capacity used when NewEventBuffer gets n <= 0.
const DefaultBufferSize = 1000

// EventBuffer is a bounded FIFO of events. When full, pushing a new event
// evicts the oldest one. All methods are safe for concurrent use and none
// of them block beyond the internal lock.
type EventBuffer struct {
	mu      sync.Mutex
	items   []Event
	head    int
	size    int
	dropped uint64
}

// NewEventBuffer creates a buffer holding at most n events.
func NewEventBuffer(n int) *EventBuffer {
	if n <= 0 {
		n = DefaultBufferSize
	}
	return &EventBuffer{items: make([]Event, n)}
}

// Push appends e at the tail. It reports whether the oldest event was
// evicted to make room.
func (b *EventBuffer) Push(e Event) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	evicted := false
	if b.size == len(b.items) {
		b.items[b.head] = Event{}
		b.head = (b.head + 1) % len(b.items)
		b.size--
		b.dropped++
		evicted = true
	}
	b.items[(b.head+b.size)%len(b.items)] = e
	b.size++
	return evicted
}

// PopFront removes and returns the oldest event. ok is false if the buffer
// is empty.
func (b *EventBuffer) PopFront() (e Event, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size == 0 {
		return Event{}, false
	}
	e = b.items[b.head]
	b.items[b.head] = Event{}
	b.head = (b.head + 1) % len(b.items)
	b.size--
	return e, true
}

// Len returns the number of buffered events.
func (b *EventBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the buffer capacity.
func (b *EventBuffer) Cap() int {
	return len(b.items)
}

// Dropped returns how many events have been evicted since creation.
func (b *EventBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}
