package list

import (
	"sync"

	"charm.land/lipgloss/v2"
)

type cachedRender struct {
	content string
	width   int
	height  int
}

// Measurer renders entries, measures them and writes changed heights into
// the placeholder table. Trigger may be called from any goroutine; the rest
// runs on the UI thread.
type Measurer struct {
	mu      sync.Mutex
	cache   map[int]cachedRender
	pending map[int]bool
	visible map[int]bool
}

// NewMeasurer returns an empty Measurer.
func NewMeasurer() *Measurer {
	return &Measurer{
		cache:   make(map[int]cachedRender),
		pending: make(map[int]bool),
		visible: make(map[int]bool),
	}
}

// Trigger asks for index to be rendered and measured again on the next
// pass. Repeated triggers before that pass collapse into one.
func (m *Measurer) Trigger(index int) {
	m.mu.Lock()
	m.pending[index] = true
	m.mu.Unlock()
}

// Pending returns the indices waiting for a re-measure.
func (m *Measurer) Pending() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.pending))
	for i := range m.pending {
		out = append(out, i)
	}
	return out
}

// Measure returns the rendered content for index at width, rendering only
// when nothing is cached for that width or a re-measure was triggered. A
// non-empty render whose height differs from the table is written back and
// reported as changed. Empty renders are cached but never measured.
func (m *Measurer) Measure(index, width int, h *Heights, render func() string) (string, bool) {
	m.mu.Lock()
	c, ok := m.cache[index]
	fresh := ok && c.width == width && !m.pending[index]
	m.mu.Unlock()
	if fresh {
		return c.content, false
	}

	content := render()
	height := 0
	if content != "" {
		height = lipgloss.Height(content)
	}

	m.mu.Lock()
	m.cache[index] = cachedRender{content: content, width: width, height: height}
	delete(m.pending, index)
	if height > 0 {
		m.visible[index] = true
	}
	m.mu.Unlock()

	if height <= 0 || (index < h.Len() && h.At(index) == height) {
		return content, false
	}
	return content, h.Set(index, height)
}

// Cached returns the last render of index, if any.
func (m *Measurer) Cached(index int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cache[index]
	return c.content, ok
}

// Visible reports whether index has been measured at least once.
func (m *Measurer) Visible(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible[index]
}

// Invalidate drops every cached render so the next pass re-measures all
// entries. Visibility is kept; measured items stay on screen.
func (m *Measurer) Invalidate() {
	m.mu.Lock()
	m.cache = make(map[int]cachedRender)
	m.mu.Unlock()
}

// Reset drops every cached render, pending trigger and visibility flag.
func (m *Measurer) Reset() {
	m.mu.Lock()
	m.cache = make(map[int]cachedRender)
	m.pending = make(map[int]bool)
	m.visible = make(map[int]bool)
	m.mu.Unlock()
}

// Forget drops cached renders and state for indices not in keep.
func (m *Measurer) Forget(keep []int) {
	set := make(map[int]bool, len(keep))
	for _, i := range keep {
		set[i] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.cache {
		if !set[i] {
			delete(m.cache, i)
		}
	}
	for i := range m.visible {
		if !set[i] {
			delete(m.visible, i)
		}
	}
	for i := range m.pending {
		if !set[i] {
			delete(m.pending, i)
		}
	}
}
