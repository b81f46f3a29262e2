package list

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func identity(s string) string { return s }

// sliceSource serves items[start:start+size], counting calls.
type sliceSource struct {
	mu    sync.Mutex
	items []string
	calls []Request
	err   error
}

func newSliceSource(n int) *sliceSource {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	return &sliceSource{items: items}
}

func (s *sliceSource) FetchFrom(_ context.Context, start, size int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Request{Start: start, Size: size})
	if s.err != nil {
		return nil, s.err
	}
	if start < 0 || start >= len(s.items) {
		return nil, nil
	}
	end := min(start+size, len(s.items))
	return s.items[start:end], nil
}

func (s *sliceSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestCoordinator(start int, sources []string, batch, breakpoint int) *Coordinator[string, string] {
	w := NewWindow(start, sources, identity)
	return NewCoordinator[string, string](nil, identity, NewHeights(0, 1), w, batch, breakpoint, nil)
}

func resolveWith(t *testing.T, c *Coordinator[string, string], dir Direction, items ...string) Request {
	t.Helper()
	req, ok := c.Begin(dir)
	require.True(t, ok, "Begin(%s) refused", dir)
	c.Resolve(Result[string]{Request: req, Items: items})
	return req
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewCoordinator_Breakpoint(t *testing.T) {
	tests := []struct {
		name             string
		initial, batch   int
		breakpoint, want int
	}{
		{"default is three times initial", 4, 2, 0, 12},
		{"never below batch", 2, 10, 3, 10},
		{"never below initial", 8, 2, 5, 8},
		{"explicit", 3, 3, 9, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCoordinator(0, make([]string, tt.initial), tt.batch, tt.breakpoint)
			assert.Equal(t, tt.want, c.Breakpoint())
		})
	}
}

func TestCoordinator_ResetDerivesBreakpoint(t *testing.T) {
	c := newTestCoordinator(0, nil, 10, 0)
	assert.Equal(t, 10, c.Breakpoint(), "an empty window falls back to the batch")

	c.Reset(NewWindow(0, make([]string, 10), identity))
	assert.Equal(t, 30, c.Breakpoint())

	c.Reset(NewWindow(0, make([]string, 2), identity))
	assert.Equal(t, 10, c.Breakpoint())

	fixed := newTestCoordinator(0, nil, 10, 25)
	fixed.Reset(NewWindow(0, make([]string, 10), identity))
	assert.Equal(t, 25, fixed.Breakpoint(), "an explicit breakpoint is kept")
}

func TestNewCoordinator_GrowsHeights(t *testing.T) {
	h := NewHeights(0, 1)
	NewCoordinator[string, string](nil, identity, h, NewWindow(5, []string{"a", "b"}, identity), 2, 0, nil)
	assert.Equal(t, 7, h.Len())
}

// ---------------------------------------------------------------------------
// Worked examples
// ---------------------------------------------------------------------------

func TestCoordinator_ForwardExample(t *testing.T) {
	c := newTestCoordinator(10, []string{"A", "B", "C"}, 3, 9)

	req := resolveWith(t, c, Forward, "D", "E", "F")
	assert.Equal(t, 13, req.Start)
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15}, c.Window().Indices())
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, c.Window().Sources())
	assert.GreaterOrEqual(t, c.Heights().Len(), 16)
}

func TestCoordinator_ForwardEviction(t *testing.T) {
	c := newTestCoordinator(10, []string{"A", "B", "C"}, 3, 9)
	resolveWith(t, c, Forward, "D", "E", "F")

	req := resolveWith(t, c, Forward, "G", "H", "I")
	assert.Equal(t, 16, req.Start)
	assert.Equal(t, 9, c.Window().Len(), "length 9 is at the breakpoint, no eviction")

	resolveWith(t, c, Forward, "J", "K", "L")
	assert.Equal(t, 9, c.Window().Len())
	assert.Equal(t, []int{13, 14, 15, 16, 17, 18, 19, 20, 21}, c.Window().Indices())
	assert.Equal(t, []string{"D", "E", "F", "G", "H", "I", "J", "K", "L"}, c.Window().Sources())
}

func TestCoordinator_BackwardMismatch(t *testing.T) {
	c := newTestCoordinator(5, []string{"a", "b", "c", "d"}, 4, 12)

	req := resolveWith(t, c, Backward, "X", "Y")
	assert.Equal(t, 1, req.Start)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, c.Window().Indices())
	assert.Equal(t, []string{"X", "Y", "a", "b", "c", "d"}, c.Window().Sources())
}

func TestCoordinator_BackwardEvictsTail(t *testing.T) {
	c := newTestCoordinator(6, []string{"a", "b", "c"}, 3, 3)
	resolveWith(t, c, Backward, "x", "y", "z")
	assert.Equal(t, []int{3, 4, 5}, c.Window().Indices())
	assert.Equal(t, []string{"x", "y", "z"}, c.Window().Sources())
}

// ---------------------------------------------------------------------------
// Boundaries and failures
// ---------------------------------------------------------------------------

func TestCoordinator_BackwardHeadGuard(t *testing.T) {
	c := newTestCoordinator(2, []string{"a", "b"}, 3, 0)
	_, ok := c.Begin(Backward)
	assert.False(t, ok, "request would start below zero")
	assert.False(t, c.Busy(), "lock must reopen")
	assert.Equal(t, 0, c.Issued())
}

func TestCoordinator_EmptyWindowIssuesNothing(t *testing.T) {
	c := newTestCoordinator(0, nil, 3, 0)
	_, ok := c.Begin(Forward)
	assert.False(t, ok)
	assert.False(t, c.Busy())
}

func TestCoordinator_IdempotentBackwardBoundary(t *testing.T) {
	c := newTestCoordinator(6, []string{"a", "b", "c"}, 3, 0)

	req := resolveWith(t, c, Backward)
	b, ok := c.Boundary(Backward)
	require.True(t, ok)
	assert.Equal(t, req.Start, b)
	assert.Equal(t, []int{6, 7, 8}, c.Window().Indices(), "empty result changes nothing")

	_, ok = c.Begin(Backward)
	assert.False(t, ok, "same tick must not re-issue past the boundary")
	assert.False(t, c.Busy())
	assert.Equal(t, 1, c.Issued())
}

func TestCoordinator_ForwardBoundary(t *testing.T) {
	c := newTestCoordinator(0, []string{"a", "b"}, 2, 0)
	resolveWith(t, c, Forward)

	b, ok := c.Boundary(Forward)
	require.True(t, ok)
	assert.Equal(t, 2, b)

	_, ok = c.Begin(Forward)
	assert.False(t, ok)

	c.ClearBoundaries()
	_, ok = c.Begin(Forward)
	assert.True(t, ok, "cleared boundary allows another try")
}

func TestCoordinator_ErrorLeavesStateAlone(t *testing.T) {
	c := newTestCoordinator(3, []string{"a", "b", "c"}, 3, 0)
	req, ok := c.Begin(Forward)
	require.True(t, ok)

	assert.False(t, c.Resolve(Result[string]{Request: req, Err: errors.New("boom")}))
	assert.Equal(t, []int{3, 4, 5}, c.Window().Indices())
	assert.False(t, c.Busy())
	_, hasBoundary := c.Boundary(Forward)
	assert.False(t, hasBoundary, "errors are transient")
}

// ---------------------------------------------------------------------------
// Lock discipline
// ---------------------------------------------------------------------------

func TestCoordinator_SingleFlight(t *testing.T) {
	c := newTestCoordinator(0, []string{"a", "b", "c"}, 3, 0)

	req, ok := c.Begin(Forward)
	require.True(t, ok)
	assert.True(t, c.Busy())

	_, ok = c.Begin(Forward)
	assert.False(t, ok)
	_, ok = c.Begin(Backward)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Issued())

	c.Resolve(Result[string]{Request: req, Items: []string{"d"}})
	assert.False(t, c.Busy())
}

func TestCoordinator_ResetDropsInFlight(t *testing.T) {
	c := newTestCoordinator(0, []string{"a", "b", "c"}, 3, 0)
	stale, ok := c.Begin(Forward)
	require.True(t, ok)

	c.Reset(NewWindow(0, []string{"x"}, identity))
	assert.False(t, c.Busy())

	fresh, ok := c.Begin(Forward)
	require.True(t, ok)

	assert.False(t, c.Resolve(Result[string]{Request: stale, Items: []string{"late"}}))
	assert.Equal(t, []string{"x"}, c.Window().Sources())
	assert.True(t, c.Busy(), "stale result must not release the new request's lock")

	assert.True(t, c.Resolve(Result[string]{Request: fresh, Items: []string{"y"}}))
	assert.Equal(t, []string{"x", "y"}, c.Window().Sources())
}

func TestCoordinator_FetchUsesSource(t *testing.T) {
	src := newSliceSource(20)
	c := NewCoordinator[string, string](src, identity, NewHeights(0, 1),
		NewWindow(0, src.items[:5], identity), 5, 0, nil)

	req, ok := c.Begin(Forward)
	require.True(t, ok)
	res := c.Fetch(context.Background(), req)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"item-5", "item-6", "item-7", "item-8", "item-9"}, res.Items)
	assert.Equal(t, 1, src.Calls())
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestCoordinator_WindowBound(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	const batch, breakpoint = 4, 10
	c := newTestCoordinator(1000, []string{"a", "b", "c", "d"}, batch, breakpoint)

	for step := range 400 {
		dir := Direction(r.Intn(2))
		req, ok := c.Begin(dir)
		if !ok {
			c.ClearBoundaries()
			continue
		}
		items := make([]string, r.Intn(batch+1))
		for i := range items {
			items[i] = fmt.Sprintf("s%d-%d", step, i)
		}
		c.Resolve(Result[string]{Request: req, Items: items})
		require.LessOrEqual(t, c.Window().Len(), max(breakpoint, batch), "step %d", step)
	}
}

func TestCoordinator_ContiguousOnFullBatches(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	const batch = 5
	c := newTestCoordinator(5000, []string{"a", "b", "c", "d", "e"}, batch, 15)

	for step := range 200 {
		dir := Direction(r.Intn(2))
		req, ok := c.Begin(dir)
		require.True(t, ok, "step %d", step)
		c.Resolve(Result[string]{Request: req, Items: make([]string, batch)})

		idx := c.Window().Indices()
		for i := 1; i < len(idx); i++ {
			require.Equal(t, idx[i-1]+1, idx[i], "step %d: gap in %v", step, idx)
		}
	}
}
