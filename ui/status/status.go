// Package status provides the bottom status bar: the loaded window range,
// a spinner while a page is in flight, boundary markers and key hints.
package status

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/miosa/osa-memos/style"
	"github.com/miosa/osa-memos/ui/common"
)

// Model is the status bar state. Drive it via setter methods; Update only
// advances the spinner.
type Model struct {
	spin spinner.Model
	busy bool

	first, last int // absolute indices of the loaded window; last < first when empty
	top, bottom int // entries at the top and bottom of the viewport
	start, end  bool

	help  string
	width int
}

// New returns an idle status bar.
func New() Model {
	return Model{
		spin: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		last: -1,
	}
}

// SetWindow records the loaded window as absolute indices [first, last].
func (m *Model) SetWindow(first, last int) {
	m.first, m.last = first, last
}

// SetVisible records which entries are at the top and bottom of the viewport.
func (m *Model) SetVisible(top, bottom int) {
	m.top, m.bottom = top, bottom
}

// SetBoundaries marks whether the start and end of the data have been reached.
func (m *Model) SetBoundaries(start, end bool) {
	m.start, m.end = start, end
}

// SetHelp sets the right-aligned key hint.
func (m *Model) SetHelp(s string) { m.help = s }

// SetWidth updates the bar width.
func (m *Model) SetWidth(w int) { m.width = w }

// SetBusy marks a fetch in flight. Starting returns the spinner's first tick.
func (m *Model) SetBusy(busy bool) tea.Cmd {
	was := m.busy
	m.busy = busy
	if busy && !was {
		return m.spin.Tick
	}
	return nil
}

// Tick is the spinner's tick command, for a bar created busy.
func (m Model) Tick() tea.Msg { return m.spin.Tick() }

// Busy reports whether the spinner is running.
func (m Model) Busy() bool { return m.busy }

// Update advances the spinner while busy. Ticks arriving after the fetch
// finished are dropped so the tick chain stops.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok || !m.busy {
		return m, nil
	}
	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	return m, cmd
}

// View renders the bar on a single line.
func (m Model) View() string {
	if m.width <= 0 {
		return ""
	}
	left := m.leftView()
	right := style.Hint.Render(m.help)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if m.help == "" || gap < 2 {
		return common.PadRight(left, m.width)
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) leftView() string {
	var b strings.Builder
	if m.busy {
		m.spin.Style = style.SpinnerStyle
		b.WriteString(m.spin.View())
	} else {
		b.WriteString(" ")
	}
	b.WriteString(" ")

	if m.last < m.first {
		b.WriteString(style.StatusBar.Render("no memos"))
		return b.String()
	}
	b.WriteString(style.StatusBar.Render(fmt.Sprintf("%d–%d", m.top+1, m.bottom+1)))
	b.WriteString(style.Faint.Render(fmt.Sprintf("  loaded %d–%d (%s)",
		m.first+1, m.last+1, common.HumanCount(m.last-m.first+1))))
	if m.start {
		b.WriteString(style.StatusBoundary.Render("  ⤒ start"))
	}
	if m.end {
		b.WriteString(style.StatusBoundary.Render("  ⤓ end"))
	}
	return b.String()
}
