package list

// DefaultPlaceholderHeight is the height, in lines, assumed for an item that
// has not been measured yet.
const DefaultPlaceholderHeight = 8

// Heights is the placeholder table: one height per absolute index. Entries
// start at the default and are refined once the item has been measured.
//
// Offset lookups are served from a memoized prefix-sum slice that is
// dropped whenever an entry changes or the table grows.
type Heights struct {
	def    int
	values []int

	// prefix[i] = sum(values[:i]); nil when stale.
	prefix []int
}

// NewHeights returns a table of n entries, all set to def. A non-positive
// def falls back to DefaultPlaceholderHeight.
func NewHeights(n, def int) *Heights {
	if def <= 0 {
		def = DefaultPlaceholderHeight
	}
	h := &Heights{def: def}
	h.Grow(n)
	return h
}

// Len returns the number of entries in the table.
func (h *Heights) Len() int { return len(h.values) }

// Default returns the placeholder height used for unmeasured entries.
func (h *Heights) Default() int { return h.def }

// At returns the height stored for absolute index i. Indices outside the
// table report the default height.
func (h *Heights) At(i int) int {
	if i < 0 || i >= len(h.values) {
		return h.def
	}
	return h.values[i]
}

// Set stores height for index i and reports whether the table changed.
// Non-positive heights are ignored: an element that measures zero has not
// been laid out yet. The table grows to cover i if needed.
func (h *Heights) Set(i, height int) bool {
	if i < 0 || height <= 0 {
		return false
	}
	if i >= len(h.values) {
		h.Grow(i + 1)
	}
	if h.values[i] == height {
		return false
	}
	h.values[i] = height
	h.prefix = nil
	return true
}

// Grow extends the table with default entries until it holds at least n
// entries. It never shrinks.
func (h *Heights) Grow(n int) {
	if n <= len(h.values) {
		return
	}
	grown := make([]int, n)
	copy(grown, h.values)
	for i := len(h.values); i < n; i++ {
		grown[i] = h.def
	}
	h.values = grown
	h.prefix = nil
}

// Offset returns the cumulative height of every index before i, that is
// the top edge of index i. Indices beyond the table count as default
// height so callers can ask about positions that have not been fetched.
func (h *Heights) Offset(i int) int {
	if i <= 0 {
		return 0
	}
	if h.prefix == nil {
		h.rebuild()
	}
	if i < len(h.prefix) {
		return h.prefix[i]
	}
	last := h.prefix[len(h.prefix)-1]
	return last + (i-len(h.values))*h.def
}

// Total returns the height of the whole table.
func (h *Heights) Total() int { return h.Offset(len(h.values)) }

// Snapshot returns a copy of the stored heights.
func (h *Heights) Snapshot() []int {
	out := make([]int, len(h.values))
	copy(out, h.values)
	return out
}

func (h *Heights) rebuild() {
	prefix := make([]int, len(h.values)+1)
	for i, v := range h.values {
		prefix[i+1] = prefix[i] + v
	}
	h.prefix = prefix
}

// Reset empties the table and refills it with n default entries.
func (h *Heights) Reset(n int) {
	h.values = nil
	h.prefix = nil
	h.Grow(n)
}
