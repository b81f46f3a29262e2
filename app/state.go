package app

// State represents the current application state.
type State int

const (
	StateLoading  State = iota // Waiting for the first page
	StateBrowsing              // Memos on screen
	StateEmpty                 // The source has no memos
	StateError                 // The first page failed to load
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateBrowsing:
		return "browsing"
	case StateEmpty:
		return "empty"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
