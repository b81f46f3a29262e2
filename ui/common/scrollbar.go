package common

import (
	"strings"

	"github.com/miosa/osa-memos/style"
)

const (
	scrollTrackChar = "│"
	scrollThumbChar = "█"
)

// Scrollbar renders a vertical scrollbar one column wide and viewportHeight
// rows tall. The thumb is sized and placed proportionally to the visible
// region. When the content fits the viewport the result is empty.
func Scrollbar(viewportHeight, contentHeight, offset int) string {
	vh, ch := viewportHeight, contentHeight
	if vh <= 0 || ch <= vh {
		return ""
	}

	thumbH := min(max(vh*vh/ch, 1), vh)
	thumbTop := offset * (vh - thumbH) / (ch - vh)
	thumbTop = max(min(thumbTop, vh-thumbH), 0)

	rows := make([]string, vh)
	for i := range rows {
		if i >= thumbTop && i < thumbTop+thumbH {
			rows[i] = style.ScrollbarThumb.Render(scrollThumbChar)
		} else {
			rows[i] = style.ScrollbarTrack.Render(scrollTrackChar)
		}
	}
	return strings.Join(rows, "\n")
}
