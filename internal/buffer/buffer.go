package buffer

import (
	"sync"
)

// Buffer collects entries in arrival order. A positive capacity bounds the
// buffer; the oldest entries are discarded first.
type Buffer[T any] struct {
	mu  sync.Mutex
	ts  []T
	max int
}

func NewBuffer[T any](capacity int) *Buffer[T] {
	return &Buffer[T]{max: capacity}
}

func (b *Buffer[T]) Add(e T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ts = append(b.ts, e)
	if b.max > 0 && len(b.ts) > b.max {
		b.ts = append(b.ts[:0:0], b.ts[len(b.ts)-b.max:]...)
	}
}

// Snapshot returns a copy of the buffered entries without removing them.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]T, len(b.ts))
	copy(out, b.ts)
	return out
}

func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ts)
}

func (b *Buffer[T]) Drain() []T {
	b.mu.Lock()
	es := b.ts
	b.ts = nil
	b.mu.Unlock()
	return es
}

func (b *Buffer[T]) Reset() {
	b.Drain()
}
