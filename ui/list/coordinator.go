package list

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Direction is the edge of the window a fetch extends.
type Direction int

const (
	Backward Direction = iota // toward index 0
	Forward                   // toward the unbounded tail
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Request describes one page request issued by the coordinator.
type Request struct {
	Direction Direction
	Start     int
	Size      int

	gen int
}

// Result is the outcome of a Request, produced off the UI thread and handed
// back to Resolve.
type Result[T any] struct {
	Request Request
	Items   []T
	Err     error
}

// Coordinator serializes page requests in both directions and merges their
// results into the window and the placeholder table. It is driven from a
// single goroutine (the bubbletea Update loop); only Fetch may run
// elsewhere, and it touches nothing but the source.
type Coordinator[T, P any] struct {
	source  Source[T]
	props   func(T) P
	heights *Heights
	window  Window[T, P]
	lock    Lock

	batch      int
	breakpoint int
	configured int // breakpoint as passed in; zero derives it per window

	// boundaries holds the request start that came back empty, per
	// direction. Requests reaching past it are not issued again.
	boundaries map[Direction]int

	gen    int
	issued int
	log    logrus.FieldLogger
}

// NewCoordinator builds a coordinator over an initial window. The
// breakpoint is raised to at least max(batch, initial length); zero means
// three times the initial length.
func NewCoordinator[T, P any](
	source Source[T],
	props func(T) P,
	heights *Heights,
	initial Window[T, P],
	batch, breakpoint int,
	log logrus.FieldLogger,
) *Coordinator[T, P] {
	if batch <= 0 {
		batch = 1
	}
	if log == nil {
		log = discardLogger()
	}
	if last, ok := initial.Last(); ok {
		heights.Grow(last + 1)
	}
	return &Coordinator[T, P]{
		source:     source,
		props:      props,
		heights:    heights,
		window:     initial,
		batch:      batch,
		breakpoint: resolveBreakpoint(breakpoint, batch, initial.Len()),
		configured: breakpoint,
		boundaries: make(map[Direction]int),
		log:        log,
	}
}

// resolveBreakpoint applies the configured breakpoint to a window of n
// initial entries: zero means 3n, and the result is never below batch or n.
func resolveBreakpoint(configured, batch, n int) int {
	bp := configured
	if bp <= 0 {
		bp = n * 3
	}
	return max(bp, batch, n)
}

// Window returns the current window value.
func (c *Coordinator[T, P]) Window() Window[T, P] { return c.window }

// Heights returns the placeholder table the coordinator grows.
func (c *Coordinator[T, P]) Heights() *Heights { return c.heights }

// BatchSize returns the page size.
func (c *Coordinator[T, P]) BatchSize() int { return c.batch }

// Breakpoint returns the window length past which merges evict.
func (c *Coordinator[T, P]) Breakpoint() int { return c.breakpoint }

// Busy reports whether a fetch is in flight.
func (c *Coordinator[T, P]) Busy() bool { return c.lock.Held() }

// Issued returns how many requests have been issued since construction.
func (c *Coordinator[T, P]) Issued() int { return c.issued }

// Boundary returns the recorded empty-response start for dir.
func (c *Coordinator[T, P]) Boundary(dir Direction) (int, bool) {
	b, ok := c.boundaries[dir]
	return b, ok
}

// ClearBoundaries forgets every recorded boundary so both directions may be
// tried again.
func (c *Coordinator[T, P]) ClearBoundaries() {
	c.boundaries = make(map[Direction]int)
}

// Reset swaps in a fresh window, clears boundaries and drops any in-flight
// request: its result will be ignored when it arrives. The breakpoint is
// derived again from the new window.
func (c *Coordinator[T, P]) Reset(initial Window[T, P]) {
	c.gen++
	c.window = initial
	c.breakpoint = resolveBreakpoint(c.configured, c.batch, initial.Len())
	c.ClearBoundaries()
	if last, ok := initial.Last(); ok {
		c.heights.Grow(last + 1)
	}
	c.lock.Release()
}

// Begin acquires the lock and plans a request toward dir. It reports false,
// leaving the lock open, when a fetch is already in flight, the window is
// empty, the head has been reached or dir is past a recorded boundary.
func (c *Coordinator[T, P]) Begin(dir Direction) (Request, bool) {
	if !c.lock.TryAcquire() {
		return Request{}, false
	}
	req, ok := c.plan(dir)
	if !ok {
		c.lock.Release()
		return Request{}, false
	}
	c.issued++
	c.log.WithFields(logrus.Fields{
		"direction": dir.String(),
		"start":     req.Start,
		"size":      req.Size,
	}).Debug("fetch issued")
	return req, true
}

func (c *Coordinator[T, P]) plan(dir Direction) (Request, bool) {
	first, ok := c.window.First()
	if !ok {
		return Request{}, false
	}
	last, _ := c.window.Last()

	var start int
	switch dir {
	case Backward:
		start = first - c.batch
		if start < 0 {
			return Request{}, false
		}
		if b, ok := c.boundaries[Backward]; ok && start <= b {
			return Request{}, false
		}
	case Forward:
		start = last + 1
		if b, ok := c.boundaries[Forward]; ok && start >= b {
			return Request{}, false
		}
	}
	return Request{Direction: dir, Start: start, Size: c.batch, gen: c.gen}, true
}

// Fetch runs req against the source. It is safe to call off the UI thread.
func (c *Coordinator[T, P]) Fetch(ctx context.Context, req Request) Result[T] {
	items, err := c.source.FetchFrom(ctx, req.Start, req.Size)
	return Result[T]{Request: req, Items: items, Err: err}
}

// Resolve merges res into the window and reopens the lock. It reports
// whether the window changed. Errors and empty results leave the window
// untouched; an empty result also records the boundary for its direction.
func (c *Coordinator[T, P]) Resolve(res Result[T]) bool {
	req := res.Request
	if req.gen != c.gen {
		// Issued before a Reset; the lock now belongs to someone else.
		return false
	}
	defer c.lock.Release()

	log := c.log.WithFields(logrus.Fields{
		"direction": req.Direction.String(),
		"start":     req.Start,
		"size":      req.Size,
	})
	if res.Err != nil {
		log.WithError(res.Err).Warn("fetch failed")
		return false
	}
	if len(res.Items) == 0 {
		c.boundaries[req.Direction] = req.Start
		log.Debug("boundary reached")
		return false
	}

	switch req.Direction {
	case Backward:
		c.window = c.window.Prepend(res.Items, c.props, c.breakpoint)
	case Forward:
		next := c.window.Append(res.Items, c.props, c.breakpoint)
		if last, ok := next.Last(); ok {
			c.heights.Grow(last + 1)
		}
		c.window = next
	}
	log.WithFields(logrus.Fields{
		"received": len(res.Items),
		"window":   c.window.Len(),
	}).Debug("window merged")
	return true
}
