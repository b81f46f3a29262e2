package app

import "github.com/miosa/osa-memos/ui/header"

const (
	// minListWidth keeps cards readable; narrower terminals still get this
	// width and clip.
	minListWidth = 20

	// maxListWidth caps card width on very wide terminals.
	maxListWidth = 120
)

// Layout holds computed dimensions for the current frame.
type Layout struct {
	TermWidth    int
	TermHeight   int
	HeaderHeight int // title line + separator, 0 while hidden
	StatusHeight int
	ListWidth    int
	ListHeight   int
	ListLeft     int // left margin that centers a capped list
}

// ComputeLayout calculates the layout from the terminal size and whether
// the header is shown.
//
// Rules:
//   - The header takes header.Height rows unless hidden.
//   - The status bar always takes one row.
//   - The list gets the remaining rows and the terminal width capped at
//     maxListWidth, centered.
func ComputeLayout(termW, termH int, headerShown bool) Layout {
	l := Layout{
		TermWidth:    termW,
		TermHeight:   termH,
		StatusHeight: 1,
	}
	if headerShown {
		l.HeaderHeight = header.Height
	}

	l.ListWidth = max(min(termW, maxListWidth), minListWidth)
	if termW > l.ListWidth {
		l.ListLeft = (termW - l.ListWidth) / 2
	}
	l.ListHeight = max(termH-l.HeaderHeight-l.StatusHeight, 1)
	return l
}
