// Package bus fans dispatch records out to observability subscribers
// (the WebSocket log, tests). Publishing never blocks the dispatch path:
// slow subscribers drop records.
package bus

import (
	"sync"
	"time"
)

// DispatchRecord describes one completed dispatch.
type DispatchRecord struct {
	TraceID  string        `json:"trace_id"`
	Kind     string        `json:"kind"`
	Source   string        `json:"source"`
	Replied  bool          `json:"replied"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Subscriber is a named tap on the record stream. Multiple subscribers
// independently receive every published record (fan-out).
type Subscriber struct {
	Name string
	ch   chan DispatchRecord
}

// Bus carries dispatch records from the engine to its taps.
type Bus struct {
	mu        sync.RWMutex
	subs      []*Subscriber
	closed    bool
	closeOnce sync.Once
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{}
}

// Subscribe creates a named tap receiving copies of all published records.
// The returned channel is buffered; slow consumers drop.
func (b *Bus) Subscribe(name string) <-chan DispatchRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := &Subscriber{Name: name, ch: make(chan DispatchRecord, 64)}
	b.subs = append(b.subs, sub)
	return sub.ch
}

// Publish sends rec to every subscriber without blocking.
func (b *Bus) Publish(rec DispatchRecord) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- rec:
		default: // drop if slow
		}
	}
}

// Close closes all subscriber channels. Publish becomes a no-op.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		for _, sub := range b.subs {
			close(sub.ch)
		}
		b.mu.Unlock()
	})
}
