package list

import "math"

// Thresholds tune when a scroll tick turns into a fetch. Fractions are of
// the active window's extent; distances are in lines.
type Thresholds struct {
	Backward     float64 // progress below this fetches backward
	Forward      float64 // progress above this fetches forward
	Noise        float64 // progress above this is discarded
	Home         int     // offsets below this are the home position
	HideDistance int     // movement needed to flip the scroll direction
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Backward:     0.2,
		Forward:      0.7,
		Noise:        1.5,
		Home:         4,
		HideDistance: 2,
	}
}

// Decision is the outcome of evaluating one scroll tick.
type Decision int

const (
	Hold          Decision = iota // progress in the dead zone
	Dropped                       // a fetch was in flight
	Home                          // near the top; baseline reset
	Ignored                       // progress was not a usable number
	FetchBackward                 // page toward index 0
	FetchForward                  // page toward the tail
)

func (d Decision) String() string {
	switch d {
	case Hold:
		return "hold"
	case Dropped:
		return "dropped"
	case Home:
		return "home"
	case Ignored:
		return "ignored"
	case FetchBackward:
		return "fetch-backward"
	case FetchForward:
		return "fetch-forward"
	default:
		return "unknown"
	}
}

// Observer turns scroll offsets into fetch decisions and tracks the scroll
// direction for chrome that hides while scrolling down.
type Observer struct {
	th       Thresholds
	baseline int
	hidden   bool
}

// NewObserver returns an Observer with the given thresholds.
func NewObserver(th Thresholds) *Observer {
	return &Observer{th: th}
}

// Thresholds returns the observer's tuning.
func (o *Observer) Thresholds() Thresholds { return o.th }

// Hidden reports whether the last tracked movement was downward.
func (o *Observer) Hidden() bool { return o.hidden }

// Progress returns where offset sits between firstOffset and lastOffset.
// A zero-extent window yields NaN or an infinity.
func Progress(offset, firstOffset, lastOffset int) float64 {
	return float64(offset-firstOffset) / float64(lastOffset-firstOffset)
}

// Evaluate decides what a tick at offset should do. firstOffset and
// lastOffset are the placeholder offsets of the window's first and last
// active indices; busy reports whether a fetch is in flight.
func (o *Observer) Evaluate(offset, firstOffset, lastOffset int, busy bool) Decision {
	if busy {
		return Dropped
	}
	if offset < o.th.Home {
		o.baseline = offset
		o.hidden = false
		return Home
	}
	p := Progress(offset, firstOffset, lastOffset)
	switch {
	case math.IsNaN(p), math.IsInf(p, 0), p > o.th.Noise:
		return Ignored
	case p < o.th.Backward:
		return FetchBackward
	case p > o.th.Forward:
		return FetchForward
	default:
		return Hold
	}
}

// AtBottom adjusts d for a tick taken with the viewport against the bottom
// of the window, where the offset can grow no further. Anything short of a
// fetch or a dropped tick becomes a forward fetch: a viewport that covers
// most of the window keeps progress below the forward band at every
// reachable offset.
func (o *Observer) AtBottom(d Decision) Decision {
	switch d {
	case Hold, Home, Ignored:
		return FetchForward
	}
	return d
}

// Track feeds offset into the direction tracker and reports whether the
// hidden state changed. Moving down by more than the hide distance hides,
// moving up by as much shows; the home position always shows.
func (o *Observer) Track(offset int) bool {
	was := o.hidden
	switch delta := offset - o.baseline; {
	case offset < o.th.Home:
		o.baseline = offset
		o.hidden = false
	case delta > o.th.HideDistance:
		o.baseline = offset
		o.hidden = true
	case delta < -o.th.HideDistance:
		o.baseline = offset
		o.hidden = false
	}
	return was != o.hidden
}

// Reset forgets the direction baseline.
func (o *Observer) Reset() {
	o.baseline = 0
	o.hidden = false
}
