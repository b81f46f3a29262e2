// Package msg defines the tea.Msg types dispatched within the memos UI.
// It imports only the memo model to stay free of cycles.
package msg

import "github.com/miosa/osa-memos/memo"

// -- Loading --

// LoadedMsg carries the first page of memos, fetched at startup or on reload.
type LoadedMsg struct {
	Memos  []memo.Memo
	Reload bool
	Err    error
}

// -- Config --

// ThemeSavedMsg reports the result of persisting a theme change.
type ThemeSavedMsg struct {
	Theme string
	Err   error
}

// -- Tick --

// TickMsg drives toast expiry.
type TickMsg struct{}
