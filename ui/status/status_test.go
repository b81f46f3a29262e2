package status

import (
	"strings"
	"testing"

	"charm.land/bubbles/v2/spinner"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestView_Empty(t *testing.T) {
	m := New()
	assert.Empty(t, m.View(), "no width yet")
	m.SetWidth(40)
	assert.Contains(t, m.View(), "no memos")
	assert.Equal(t, 40, lipgloss.Width(m.View()))
}

func TestView_Window(t *testing.T) {
	m := New()
	m.SetWidth(80)
	m.SetWindow(10, 29)
	m.SetVisible(12, 14)
	m.SetBoundaries(false, true)
	m.SetHelp("q quit")

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "13–15")
	assert.Contains(t, out, "loaded 11–30 (20)")
	assert.Contains(t, out, "⤓ end")
	assert.NotContains(t, out, "start")
	assert.True(t, strings.HasSuffix(out, "q quit"))
	assert.Equal(t, 80, lipgloss.Width(m.View()))
}

func TestView_HelpDroppedWhenNarrow(t *testing.T) {
	m := New()
	m.SetWidth(20)
	m.SetWindow(0, 4)
	m.SetHelp("a very long key hint line")
	assert.NotContains(t, m.View(), "hint")
}

func TestSpinner(t *testing.T) {
	m := New()
	cmd := m.SetBusy(true)
	require.NotNil(t, cmd)
	assert.Nil(t, m.SetBusy(true), "already spinning")
	assert.True(t, m.Busy())

	tick := cmd()
	require.IsType(t, spinner.TickMsg{}, tick)
	m, next := m.Update(tick)
	assert.NotNil(t, next)

	m.SetBusy(false)
	_, next = m.Update(tick)
	assert.Nil(t, next, "ticks stop once idle")

	_, next = m.Update("other")
	assert.Nil(t, next)
}
