package card

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miosa/osa-memos/memo"
)

// lineRenderer renders each markdown line as-is and counts calls.
type lineRenderer struct {
	calls atomic.Int64
	err   error
}

func (r *lineRenderer) render(md string, width int, _ string) (string, error) {
	r.calls.Add(1)
	if r.err != nil {
		return "", r.err
	}
	return "\n" + md + "\n\n", nil
}

func sample(id string, lines int) memo.Memo {
	body := make([]string, lines)
	for i := range body {
		body[i] = fmt.Sprintf("line %d of the memo body", i)
	}
	content := strings.Join(body, "\n")
	return memo.Memo{
		ID:      id,
		File:    "2024.md",
		Date:    time.Date(2024, 3, 9, 23, 59, 59, 0, time.Local),
		Content: content,
		Tags:    []string{"go"},
		Length:  len([]rune(content)),
	}
}

func plainLines(s string) []string {
	return strings.Split(ansi.Strip(s), "\n")
}

// ---------------------------------------------------------------------------
// Deck
// ---------------------------------------------------------------------------

func TestDeck_PropsKeepsState(t *testing.T) {
	d := NewDeck()
	m := sample("a", 20)

	c := d.Props(m)
	require.True(t, c.Toggle())
	assert.Same(t, c, d.Props(m), "same memo, same card")
	assert.True(t, d.Props(m).Expanded())

	other := m
	other.File = "2023.md"
	assert.NotSame(t, c, d.Props(other))
	assert.Equal(t, 2, d.Len())

	d.Reset()
	assert.Zero(t, d.Len())
	assert.False(t, d.Props(m).Expanded())
}

func TestElem_Nil(t *testing.T) {
	assert.Empty(t, Elem(nil, 40, nil))
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

func TestRender_Short(t *testing.T) {
	r := &lineRenderer{}
	d := NewDeck(WithRenderer(r.render))
	c := d.Props(sample("short", 2))

	out := c.Render(50, nil)
	assert.Equal(t, 50, lipgloss.Width(out))
	lines := plainLines(out)
	assert.Contains(t, lines[1], "short")
	assert.Contains(t, lines[1], "2024-03-09 · ")
	assert.Contains(t, lines[2], "#go")
	assert.Contains(t, out, "line 1 of the memo body")
	assert.NotContains(t, out, "show more")
	assert.False(t, c.Toggle(), "short cards do not fold")
}

func TestRender_CollapsesLongMemo(t *testing.T) {
	r := &lineRenderer{}
	d := NewDeck(WithRenderer(r.render), WithCollapseLines(3))
	c := d.Props(sample("long", 20))
	require.True(t, c.Collapsible())

	folded := c.Render(60, nil)
	assert.Contains(t, folded, "show more")
	assert.Contains(t, folded, "line 2 of")
	assert.NotContains(t, folded, "line 3 of")

	require.True(t, c.Toggle())
	open := c.Render(60, nil)
	assert.Contains(t, open, "line 19 of")
	assert.Contains(t, open, "show less")
	assert.Greater(t, lipgloss.Height(open), lipgloss.Height(folded))
	assert.EqualValues(t, 1, r.calls.Load(), "body cached across toggles")
}

func TestRender_CachesPerWidth(t *testing.T) {
	r := &lineRenderer{}
	c := NewDeck(WithRenderer(r.render)).Props(sample("w", 2))

	c.Render(40, nil)
	c.Render(40, nil)
	assert.EqualValues(t, 1, r.calls.Load())
	c.Render(70, nil)
	assert.EqualValues(t, 2, r.calls.Load())
}

func TestRender_TooNarrow(t *testing.T) {
	c := NewDeck().Props(sample("n", 1))
	assert.Empty(t, c.Render(chrome, nil))
}

func TestRender_FallsBackOnError(t *testing.T) {
	r := &lineRenderer{err: errors.New("boom")}
	c := NewDeck(WithRenderer(r.render)).Props(sample("e", 2))
	assert.Contains(t, c.Render(60, nil), "line 0 of the memo body")
}

func TestRender_AsyncRemeasures(t *testing.T) {
	release := make(chan struct{})
	slow := func(md string, width int, _ string) (string, error) {
		<-release
		return "STYLED", nil
	}
	c := NewDeck(WithRenderer(slow), WithAsync(true)).Props(sample("a", 2))

	var remeasured atomic.Int64
	first := c.Render(60, func() { remeasured.Add(1) })
	assert.Contains(t, first, "line 0 of", "plain text until styled")

	c.Render(60, func() { remeasured.Add(1) })
	close(release)
	require.Eventually(t, func() bool { return remeasured.Load() == 1 }, time.Second, 5*time.Millisecond)

	assert.Contains(t, c.Render(60, nil), "STYLED")
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, remeasured.Load(), "one background render per width")
}

func TestGlamour(t *testing.T) {
	out, err := Glamour("# Title\n\nsome **bold** text", 40, "dark")
	require.NoError(t, err)
	assert.Contains(t, ansi.Strip(out), "bold")
}

func TestRenderers_ReusePerWidthAndStyle(t *testing.T) {
	rs := NewRenderers()
	for range 3 {
		out, err := rs.Render("some **bold** text", 40, "dark")
		require.NoError(t, err)
		assert.Contains(t, ansi.Strip(out), "bold")
	}
	assert.Equal(t, 1, rs.Len())

	_, err := rs.Render("text", 60, "dark")
	require.NoError(t, err)
	_, err = rs.Render("text", 40, "light")
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Len())
}
