package list

import (
	"context"
	"sync"
)

// Source supplies items by absolute index. FetchFrom must be idempotent for
// the same (start, size) pair within a session and may return fewer than
// size items only at a real sequence boundary. An empty result means there
// is no data in that direction.
type Source[T any] interface {
	FetchFrom(ctx context.Context, start, size int) ([]T, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc[T any] func(ctx context.Context, start, size int) ([]T, error)

// FetchFrom calls f.
func (f SourceFunc[T]) FetchFrom(ctx context.Context, start, size int) ([]T, error) {
	return f(ctx, start, size)
}

// ScrollSource is anything the list can observe for scroll position: a
// designated container or the list's own viewport.
type ScrollSource interface {
	// ScrollOffset returns the current top offset in lines.
	ScrollOffset() int
	// Subscribe registers fn to be called after every offset change and
	// returns the function that removes it.
	Subscribe(fn func()) (unsubscribe func())
}

// Viewport is the default ScrollSource. It stores an offset and notifies
// subscribers synchronously whenever the offset changes.
type Viewport struct {
	mu        sync.Mutex
	offset    int
	nextID    int
	listeners map[int]func()
}

// NewViewport returns a Viewport at offset 0.
func NewViewport() *Viewport {
	return &Viewport{listeners: make(map[int]func())}
}

// ScrollOffset implements ScrollSource.
func (v *Viewport) ScrollOffset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

// SetOffset moves the viewport. Negative offsets clamp to 0. Subscribers
// are notified only when the offset actually changes.
func (v *Viewport) SetOffset(offset int) {
	if offset < 0 {
		offset = 0
	}
	v.mu.Lock()
	if offset == v.offset {
		v.mu.Unlock()
		return
	}
	v.offset = offset
	fns := make([]func(), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Subscribe implements ScrollSource.
func (v *Viewport) Subscribe(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.listeners, id)
			v.mu.Unlock()
		})
	}
}

// Listeners returns the number of active subscriptions.
func (v *Viewport) Listeners() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}
