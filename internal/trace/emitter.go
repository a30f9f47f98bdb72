package trace

import (
	"sync"

	"github.com/trestlehq/coordinator/pkg/types"
)

// Emitter is the pluggable trace sink. Emit must be non-blocking: the
// decision path calls it synchronously and must never suspend.
type Emitter interface {
	Emit(t types.DecisionTrace)
}

// NullEmitter discards every trace; used when tracing is disabled.
type NullEmitter struct{}

// Emit implements Emitter.
func (NullEmitter) Emit(types.DecisionTrace) {}

// BufferEmitter is a FIFO bounded ring of the N most recent traces,
// oldest evicted. Safe for concurrent use: Emit and Snapshot may run on
// different goroutines, so both are mutex-guarded and Emit's critical
// section is kept O(1).
type BufferEmitter struct {
	mu       sync.Mutex
	capacity int
	items    []types.DecisionTrace
	next     int
	filled   bool
}

// NewBufferEmitter constructs a ring of the given capacity.
func NewBufferEmitter(capacity int) *BufferEmitter {
	if capacity <= 0 {
		capacity = 1
	}
	return &BufferEmitter{
		capacity: capacity,
		items:    make([]types.DecisionTrace, capacity),
	}
}

// Emit implements Emitter.
func (b *BufferEmitter) Emit(t types.DecisionTrace) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[b.next] = t
	b.next = (b.next + 1) % b.capacity
	if b.next == 0 {
		b.filled = true
	}
}

// Snapshot returns the currently buffered traces, oldest first.
func (b *BufferEmitter) Snapshot() []types.DecisionTrace {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.filled {
		out := make([]types.DecisionTrace, b.next)
		copy(out, b.items[:b.next])
		return out
	}
	out := make([]types.DecisionTrace, b.capacity)
	copy(out, b.items[b.next:])
	copy(out[b.capacity-b.next:], b.items[:b.next])
	return out
}

// CallbackEmitter hands each trace synchronously to fn. fn must not
// block; Emitter's contract forbids suspension on the decision path.
type CallbackEmitter struct {
	fn func(types.DecisionTrace)
}

// NewCallbackEmitter wraps fn as an Emitter.
func NewCallbackEmitter(fn func(types.DecisionTrace)) *CallbackEmitter {
	return &CallbackEmitter{fn: fn}
}

// Emit implements Emitter.
func (c *CallbackEmitter) Emit(t types.DecisionTrace) {
	if c.fn == nil {
		return
	}
	c.fn(t)
}
