// Package card renders memos as bordered, collapsible markdown cards.
//
// A Deck hands out one *Card per memo so expansion state survives the card
// scrolling out of the list window and back. Markdown bodies are rendered
// with glamour and cached per width and theme; in async mode the first
// render shows wrapped plain text and asks the list to re-measure once the
// styled body is ready.
package card

import (
	"fmt"
	"strings"
	"sync"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/sirupsen/logrus"

	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/memo"
	"github.com/miosa/osa-memos/style"
	"github.com/miosa/osa-memos/ui/common"
)

// CollapseThreshold is the memo length, in characters, above which a card
// starts collapsed.
const CollapseThreshold = 200

// DefaultCollapseLines is how many body lines a collapsed card shows.
const DefaultCollapseLines = 6

// chrome is the horizontal space taken by the border and padding.
const chrome = 4

// RenderFunc turns markdown into styled terminal text wrapped at width.
type RenderFunc func(md string, width int, styleName string) (string, error)

// Glamour renders markdown with the named glamour standard style on a
// renderer built for this call.
func Glamour(md string, width int, styleName string) (string, error) {
	r, err := newTermRenderer(width, styleName)
	if err != nil {
		return "", err
	}
	return render(r, md)
}

func newTermRenderer(width int, styleName string) (*glamour.TermRenderer, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styleName),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("card: glamour renderer: %w", err)
	}
	return r, nil
}

func render(r *glamour.TermRenderer, md string) (string, error) {
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("card: render markdown: %w", err)
	}
	return out, nil
}

// Renderers keeps one glamour renderer per width and style. A renderer
// serves one render at a time.
type Renderers struct {
	mu sync.Mutex
	m  map[rendererKey]*termRenderer
}

type rendererKey struct {
	width int
	style string
}

type termRenderer struct {
	mu sync.Mutex
	r  *glamour.TermRenderer
}

// NewRenderers returns an empty renderer cache.
func NewRenderers() *Renderers {
	return &Renderers{m: make(map[rendererKey]*termRenderer)}
}

// Render is a RenderFunc backed by the cache.
func (rs *Renderers) Render(md string, width int, styleName string) (string, error) {
	tr, err := rs.get(rendererKey{width: width, style: styleName})
	if err != nil {
		return "", err
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return render(tr.r, md)
}

// Len returns the number of cached renderers.
func (rs *Renderers) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.m)
}

func (rs *Renderers) get(k rendererKey) (*termRenderer, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if tr, ok := rs.m[k]; ok {
		return tr, nil
	}
	r, err := newTermRenderer(k.width, k.style)
	if err != nil {
		return nil, err
	}
	tr := &termRenderer{r: r}
	rs.m[k] = tr
	return tr, nil
}

// ---------------------------------------------------------------------------
// Deck
// ---------------------------------------------------------------------------

// Deck owns the cards of one list.
type Deck struct {
	mu    sync.Mutex
	cards map[string]*Card

	lines  int
	async  bool
	render RenderFunc
	log    logrus.FieldLogger
}

// Option configures a Deck.
type Option func(*Deck)

// WithCollapseLines sets how many body lines a collapsed card shows.
func WithCollapseLines(n int) Option {
	return func(d *Deck) {
		if n > 0 {
			d.lines = n
		}
	}
}

// WithAsync renders markdown bodies off the UI thread.
func WithAsync(on bool) Option {
	return func(d *Deck) { d.async = on }
}

// WithRenderer replaces the glamour renderer.
func WithRenderer(fn RenderFunc) Option {
	return func(d *Deck) {
		if fn != nil {
			d.render = fn
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Deck) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDeck returns an empty deck.
func NewDeck(opts ...Option) *Deck {
	d := &Deck{
		cards:  make(map[string]*Card),
		lines:  DefaultCollapseLines,
		render: NewRenderers().Render,
		log:    logger.Discard(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Props returns the card for m, creating it on first sight. It is the
// props function handed to the list.
func (d *Deck) Props(m memo.Memo) *Card {
	k := key(m)
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok := d.cards[k]; ok {
		c.mu.Lock()
		c.memo = m
		c.mu.Unlock()
		return c
	}
	c := &Card{memo: m, deck: d, bodies: make(map[bodyKey]string)}
	d.cards[k] = c
	return c
}

// Len returns the number of cards seen so far.
func (d *Deck) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cards)
}

// Reset forgets every card.
func (d *Deck) Reset() {
	d.mu.Lock()
	d.cards = make(map[string]*Card)
	d.mu.Unlock()
}

// Elem is the list's element function.
func Elem(c *Card, width int, remeasure func()) string {
	if c == nil {
		return ""
	}
	return c.Render(width, remeasure)
}

func key(m memo.Memo) string { return m.File + "#" + m.ID }

// ---------------------------------------------------------------------------
// Card
// ---------------------------------------------------------------------------

type bodyKey struct {
	width int
	theme string
}

// Card is one memo and its view state.
type Card struct {
	deck *Deck

	mu        sync.Mutex
	memo      memo.Memo
	expanded  bool
	bodies    map[bodyKey]string
	rendering map[bodyKey]bool
}

// Memo returns the card's memo.
func (c *Card) Memo() memo.Memo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.memo
}

// Collapsible reports whether the memo is long enough to fold.
func (c *Card) Collapsible() bool {
	return c.Memo().Length > CollapseThreshold
}

// Expanded reports whether a collapsible card shows its full body.
func (c *Card) Expanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded
}

// Toggle flips a collapsible card between folded and expanded. It reports
// whether anything changed.
func (c *Card) Toggle() bool {
	if !c.Collapsible() {
		return false
	}
	c.mu.Lock()
	c.expanded = !c.expanded
	c.mu.Unlock()
	return true
}

// Render draws the card at the given total width.
func (c *Card) Render(width int, remeasure func()) string {
	inner := width - chrome
	if inner <= 0 {
		return ""
	}
	m := c.Memo()

	lines := []string{c.title(m, inner)}
	if len(m.Tags) > 0 {
		tags := make([]string, len(m.Tags))
		for i, t := range m.Tags {
			tags[i] = "#" + t
		}
		lines = append(lines, style.CardTag.Render(ansi.Truncate(strings.Join(tags, " "), inner, "…")))
	}
	body := splitBody(c.body(m, inner, remeasure))
	if len(body) > 0 {
		lines = append(lines, "")
	}
	if c.Collapsible() {
		if !c.Expanded() && len(body) > c.deck.lines {
			body = append(body[:c.deck.lines:c.deck.lines], style.CardMore.Render("▾ show more"))
		} else if c.Expanded() {
			body = append(body, style.CardMore.Render("▴ show less"))
		}
	}
	lines = append(lines, body...)

	for i, l := range lines {
		lines[i] = common.PadRight(ansi.Truncate(l, inner, ""), inner)
	}
	return style.CardBorder.Render(strings.Join(lines, "\n"))
}

func (c *Card) title(m memo.Memo, width int) string {
	meta := fmt.Sprintf("%d chars", m.Length)
	if !m.Date.IsZero() {
		meta = m.Date.Format("2006-01-02") + " · " + meta
	}
	metaW := lipgloss.Width(meta)
	id := common.Truncate(m.ID, max(width-metaW-2, 1))
	gap := max(width-lipgloss.Width(id)-metaW, 1)
	return style.CardID.Render(id) + strings.Repeat(" ", gap) + style.CardMeta.Render(meta)
}

// body returns the rendered markdown for width under the current theme,
// rendering it now or, in async mode, in the background.
func (c *Card) body(m memo.Memo, width int, remeasure func()) string {
	k := bodyKey{width: width, theme: style.GlamourStyle}

	c.mu.Lock()
	if b, ok := c.bodies[k]; ok {
		c.mu.Unlock()
		return b
	}
	if !c.deck.async || remeasure == nil {
		c.mu.Unlock()
		b := c.renderBody(m.Content, k)
		c.mu.Lock()
		c.bodies[k] = b
		c.mu.Unlock()
		return b
	}
	if c.rendering == nil {
		c.rendering = make(map[bodyKey]bool)
	}
	if !c.rendering[k] {
		c.rendering[k] = true
		go func() {
			b := c.renderBody(m.Content, k)
			c.mu.Lock()
			c.bodies[k] = b
			delete(c.rendering, k)
			c.mu.Unlock()
			remeasure()
		}()
	}
	c.mu.Unlock()
	return plain(m.Content, width)
}

func (c *Card) renderBody(md string, k bodyKey) string {
	out, err := c.deck.render(md, k.width, k.theme)
	if err != nil {
		c.deck.log.WithError(err).WithField("memo", c.Memo().ID).Warn("markdown render failed")
		return plain(md, k.width)
	}
	return out
}

// plain wraps raw markdown to width.
func plain(md string, width int) string {
	return ansi.Wordwrap(strings.TrimSpace(md), width, "")
}

// splitBody splits rendered text into lines without the blank lines
// renderers put around a document.
func splitBody(s string) []string {
	lines := strings.Split(s, "\n")
	blank := func(l string) bool { return strings.TrimSpace(ansi.Strip(l)) == "" }
	for len(lines) > 0 && blank(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && blank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}
