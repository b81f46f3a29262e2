package list

// Entry is one materialized item of the active window: the source payload,
// the render props derived from it, and its absolute index in the
// unbounded sequence.
type Entry[T, P any] struct {
	Index  int
	Source T
	Props  P
}

// Window is the bounded, ordered set of materialized entries. Indices are
// strictly increasing. A Window is treated as an immutable value: every
// merge builds a new entry slice and the coordinator swaps it in whole.
type Window[T, P any] struct {
	entries []Entry[T, P]
}

// NewWindow materializes sources at the absolute indices start, start+1, ...
func NewWindow[T, P any](start int, sources []T, props func(T) P) Window[T, P] {
	entries := make([]Entry[T, P], len(sources))
	for i, s := range sources {
		entries[i] = Entry[T, P]{Index: start + i, Source: s, Props: props(s)}
	}
	return Window[T, P]{entries: entries}
}

// Len returns the number of active entries.
func (w Window[T, P]) Len() int { return len(w.entries) }

// Entries returns the active entries in order. The slice is shared; callers
// must not modify it.
func (w Window[T, P]) Entries() []Entry[T, P] { return w.entries }

// First returns the first active absolute index.
func (w Window[T, P]) First() (int, bool) {
	if len(w.entries) == 0 {
		return 0, false
	}
	return w.entries[0].Index, true
}

// Last returns the last active absolute index.
func (w Window[T, P]) Last() (int, bool) {
	if len(w.entries) == 0 {
		return 0, false
	}
	return w.entries[len(w.entries)-1].Index, true
}

// Indices returns the active absolute indices in order.
func (w Window[T, P]) Indices() []int {
	out := make([]int, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.Index
	}
	return out
}

// Sources returns the active payloads in order.
func (w Window[T, P]) Sources() []T {
	out := make([]T, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.Source
	}
	return out
}

// Lookup returns the entry stored at absolute index i.
func (w Window[T, P]) Lookup(i int) (Entry[T, P], bool) {
	lo, hi := 0, len(w.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case w.entries[mid].Index == i:
			return w.entries[mid], true
		case w.entries[mid].Index < i:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	var zero Entry[T, P]
	return zero, false
}

// Prepend returns a window with items placed before the current entries at
// indices computed by backwardIndices. When the result exceeds breakpoint,
// exactly len(items) entries are dropped from the tail. An empty window has
// no anchor to page from and is returned unchanged.
func (w Window[T, P]) Prepend(items []T, props func(T) P, breakpoint int) Window[T, P] {
	if len(w.entries) == 0 || len(items) == 0 {
		return w
	}
	idx := backwardIndices(w.Indices(), len(items))
	merged := make([]Entry[T, P], 0, len(items)+len(w.entries))
	for i, s := range items {
		merged = append(merged, Entry[T, P]{Index: idx[i], Source: s, Props: props(s)})
	}
	merged = append(merged, w.entries...)
	if len(merged) > breakpoint {
		merged = merged[:len(merged)-len(items)]
	}
	return Window[T, P]{entries: merged}
}

// Append returns a window with items placed after the current entries at
// indices computed by forwardIndices. When the result exceeds breakpoint,
// exactly len(items) entries are dropped from the head.
func (w Window[T, P]) Append(items []T, props func(T) P, breakpoint int) Window[T, P] {
	if len(w.entries) == 0 || len(items) == 0 {
		return w
	}
	idx := forwardIndices(w.Indices(), len(items))
	merged := make([]Entry[T, P], 0, len(items)+len(w.entries))
	merged = append(merged, w.entries...)
	for i, s := range items {
		merged = append(merged, Entry[T, P]{Index: idx[i], Source: s, Props: props(s)})
	}
	if len(merged) > breakpoint {
		merged = merged[len(items):]
	}
	return Window[T, P]{entries: merged}
}

// backwardIndices computes the absolute indices for n items fetched in
// front of active. The baseline shifts every active index back by
// len(active); a longer response gets extra indices below the baseline and
// a shorter one keeps only the baseline entries closest to the window.
func backwardIndices(active []int, n int) []int {
	if len(active) == 0 || n <= 0 {
		return nil
	}
	base := make([]int, len(active))
	for i, a := range active {
		base[i] = a - len(active)
	}
	switch {
	case n > len(base):
		extra := make([]int, n-len(base))
		for i := range extra {
			extra[i] = base[0] - len(extra) + i
		}
		base = append(extra, base...)
	case n < len(base):
		base = base[len(base)-n:]
	}
	return base
}

// forwardIndices computes the absolute indices for n items fetched after
// active. The baseline shifts every active index forward by len(active);
// a longer response continues after the last baseline index and a shorter
// one keeps the baseline head.
func forwardIndices(active []int, n int) []int {
	if len(active) == 0 || n <= 0 {
		return nil
	}
	base := make([]int, len(active))
	for i, a := range active {
		base[i] = a + len(active)
	}
	switch {
	case n > len(base):
		last := base[len(base)-1]
		for i := 0; len(base) < n; i++ {
			base = append(base, last+1+i)
		}
	case n < len(base):
		base = base[:n]
	}
	return base
}
