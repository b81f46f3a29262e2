// Package header renders the two-line title bar above the memo list.
package header

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-memos/style"
	"github.com/miosa/osa-memos/ui/common"
)

// Height is the number of rows the header occupies when shown.
const Height = 2

// Model holds the header state. It has no Update loop.
type Model struct {
	title  string
	source string
	tag    string
	theme  string
	width  int
}

// New returns a header for the named source.
func New(source string) Model {
	return Model{title: "memos", source: source}
}

// SetSource updates the displayed source name.
func (m *Model) SetSource(s string) { m.source = s }

// SetTag updates the active tag filter. Empty clears it.
func (m *Model) SetTag(tag string) { m.tag = tag }

// SetTheme updates the displayed theme name.
func (m *Model) SetTheme(name string) { m.theme = name }

// SetWidth updates the terminal width used for the separator.
func (m *Model) SetWidth(w int) { m.width = w }

// View returns the title line and a thin separator.
func (m Model) View() string {
	if m.width <= 0 {
		return ""
	}
	sep := style.HeaderDetail.Render(" · ")
	line := style.ApplyBoldForegroundGrad(m.title)
	if m.source != "" {
		avail := m.width - lipgloss.Width(line) - lipgloss.Width(sep)
		if m.tag != "" {
			avail -= len(m.tag) + 4
		}
		line += sep + style.HeaderDetail.Render(m.displaySource(max(avail, 8)))
	}
	if m.tag != "" {
		line += sep + style.HeaderTag.Render("#"+m.tag)
	}
	if m.theme != "" {
		right := style.Hint.Render(m.theme)
		if gap := m.width - lipgloss.Width(line) - lipgloss.Width(right); gap > 0 {
			line += strings.Repeat(" ", gap) + right
		}
	}
	return line + "\n" + common.Divider(m.width)
}

// displaySource shortens file paths; other names are truncated as text.
func (m Model) displaySource(width int) string {
	kind, rest, ok := strings.Cut(m.source, ":")
	if !ok {
		return common.Truncate(m.source, width)
	}
	prefix := kind + ":"
	if kind == "files" || kind == "sqlite" {
		return prefix + common.TruncatePath(rest, max(width-len(prefix), 1))
	}
	return common.Truncate(m.source, width)
}
