package list

import "sync/atomic"

// FetchState is the state of the scroll lock.
type FetchState int32

const (
	Idle     FetchState = iota // ready to issue a fetch
	Fetching                   // a fetch is in flight
)

func (s FetchState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	default:
		return "unknown"
	}
}

// Lock guards against more than one fetch in flight. Transitions are
// compare-and-swap so a second acquirer always loses.
type Lock struct {
	state atomic.Int32
}

// TryAcquire moves Idle to Fetching and reports whether it succeeded.
func (l *Lock) TryAcquire() bool {
	return l.state.CompareAndSwap(int32(Idle), int32(Fetching))
}

// Release moves Fetching back to Idle. Releasing an idle lock is a no-op.
func (l *Lock) Release() {
	l.state.CompareAndSwap(int32(Fetching), int32(Idle))
}

// State returns the current lock state.
func (l *Lock) State() FetchState { return FetchState(l.state.Load()) }

// Held reports whether a fetch is in flight.
func (l *Lock) Held() bool { return l.State() == Fetching }
