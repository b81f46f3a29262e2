// Package list provides a virtualized, bidirectionally paginating list
// widget. A bounded window of materialized entries slides over an unbounded
// sequence addressed by absolute index: scrolling near either edge of the
// window fetches the next page from a Source, and the opposite edge is
// evicted once the window passes its breakpoint.
//
// Key properties:
//   - Heights are placeholders until an entry has been rendered and
//     measured; offsets come from a memoized prefix sum over them.
//   - Scroll events are throttled into ticks; a tick turns into at most one
//     fetch, and ticks that arrive while a fetch is in flight are dropped.
//   - Fetches run as tea.Cmds. The window and height table only change in
//     Update, when the result message arrives.
//   - Unmeasured entries render as blank placeholder lines.
package list

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/miosa/osa-memos/ui/common"
)

// ElemFunc renders one entry at the given width. It must be a pure function
// of props; content whose height changes later (a card expanding, an
// asynchronous load finishing) calls remeasure to have the entry rendered
// and measured again. remeasure is safe to call from any goroutine.
type ElemFunc[P any] func(props P, width int, remeasure func()) string

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config holds the tunables of a list.
type Config struct {
	BatchSize         int
	Breakpoint        int // 0 means three times the initial length
	PlaceholderHeight int
	Thresholds        Thresholds

	ScrollInterval    time.Duration
	ResizeInterval    time.Duration
	RemeasureInterval time.Duration
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:         10,
		PlaceholderHeight: DefaultPlaceholderHeight,
		Thresholds:        DefaultThresholds(),
		ScrollInterval:    500 * time.Millisecond,
		ResizeInterval:    150 * time.Millisecond,
		RemeasureInterval: 16 * time.Millisecond,
	}
}

type settings struct {
	cfg       Config
	width     int
	height    int
	scroll    ScrollSource
	log       logrus.FieldLogger
	ctx       context.Context
	scrollbar bool
}

// Option is a functional option for New.
type Option func(*settings)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(s *settings) { s.cfg = cfg }
}

// WithBatchSize sets the page size requested from the source.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.cfg.BatchSize = n
		}
	}
}

// WithBreakpoint sets the window length past which merges evict.
func WithBreakpoint(n int) Option {
	return func(s *settings) { s.cfg.Breakpoint = n }
}

// WithPlaceholderHeight sets the height assumed for unmeasured entries.
func WithPlaceholderHeight(h int) Option {
	return func(s *settings) { s.cfg.PlaceholderHeight = h }
}

// WithThresholds sets the scroll thresholds.
func WithThresholds(th Thresholds) Option {
	return func(s *settings) { s.cfg.Thresholds = th }
}

// WithIntervals sets the scroll, resize and remeasure throttle intervals.
func WithIntervals(scroll, resize, remeasure time.Duration) Option {
	return func(s *settings) {
		s.cfg.ScrollInterval = scroll
		s.cfg.ResizeInterval = resize
		s.cfg.RemeasureInterval = remeasure
	}
}

// WithSize sets the initial viewport dimensions.
func WithSize(w, h int) Option {
	return func(s *settings) { s.width, s.height = w, h }
}

// WithScrollSource observes an external scroll container instead of the
// list's own viewport.
func WithScrollSource(src ScrollSource) Option {
	return func(s *settings) { s.scroll = src }
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *settings) { s.log = l }
}

// WithContext sets the context passed to every fetch.
func WithContext(ctx context.Context) Option {
	return func(s *settings) { s.ctx = ctx }
}

// WithScrollbar toggles the one-column scrollbar.
func WithScrollbar(on bool) Option {
	return func(s *settings) { s.scrollbar = on }
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// Every internal message carries the list id so several lists can share a
// program without reacting to each other's events.
type (
	scrollTickMsg     struct{ id int64 }
	resizeMsg         struct{ id int64 }
	remeasureMsg      struct{ id int64 }
	fetchedMsg[T any] struct {
		id  int64
		res Result[T]
	}
)

var lastID atomic.Int64

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model is a virtualized list over a Source. T is the source payload and P
// the render props derived from it. The zero value is not usable;
// construct with New and use it through the returned pointer.
type Model[T, P any] struct {
	id      int64
	cfg     Config
	props   func(T) P
	elem    ElemFunc[P]
	initial []T

	width     int
	height    int
	scrollbar bool

	heights  *Heights
	coord    *Coordinator[T, P]
	measurer *Measurer
	observer *Observer

	viewport    *Viewport
	scroll      ScrollSource
	unsubscribe func()

	scrollThrottle    *Throttle
	resizeThrottle    *Throttle
	remeasureThrottle *Throttle

	// events carries throttled signals from timer goroutines to Update.
	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once

	ctx  context.Context
	log  logrus.FieldLogger
	last Decision
}

// New builds a list over src whose window starts with initial at absolute
// indices 0..len(initial)-1. Loading the initial page, and reporting a
// failure to do so, is the caller's job.
func New[T, P any](src Source[T], props func(T) P, elem ElemFunc[P], initial []T, opts ...Option) *Model[T, P] {
	s := settings{cfg: DefaultConfig(), ctx: context.Background(), scrollbar: true}
	for _, o := range opts {
		o(&s)
	}
	if s.log == nil {
		s.log = discardLogger()
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}

	m := &Model[T, P]{
		id:                lastID.Add(1),
		cfg:               s.cfg,
		props:             props,
		elem:              elem,
		initial:           initial,
		width:             s.width,
		height:            s.height,
		scrollbar:         s.scrollbar,
		heights:           NewHeights(len(initial), s.cfg.PlaceholderHeight),
		measurer:          NewMeasurer(),
		observer:          NewObserver(s.cfg.Thresholds),
		viewport:          NewViewport(),
		scrollThrottle:    NewThrottle(s.cfg.ScrollInterval),
		resizeThrottle:    NewThrottle(s.cfg.ResizeInterval),
		remeasureThrottle: NewThrottle(s.cfg.RemeasureInterval),
		events:            make(chan tea.Msg, 4),
		done:              make(chan struct{}),
		ctx:               s.ctx,
		log:               s.log,
	}
	m.coord = NewCoordinator(src, props, m.heights, NewWindow(0, initial, props),
		s.cfg.BatchSize, s.cfg.Breakpoint, s.log)

	scroll := s.scroll
	if scroll == nil {
		scroll = m.viewport
	}
	m.attach(scroll)
	m.layout()
	return m
}

// Init returns the command that delivers throttled events.
func (m *Model[T, P]) Init() tea.Cmd { return m.listen() }

// ID returns the list's message routing id.
func (m *Model[T, P]) ID() int64 { return m.id }

// ---------------------------------------------------------------------------
// Scroll source
// ---------------------------------------------------------------------------

// SetScrollSource switches observation to src, removing the subscription on
// the previous source. A nil src reverts to the list's own viewport.
func (m *Model[T, P]) SetScrollSource(src ScrollSource) {
	if src == nil {
		src = m.viewport
	}
	m.attach(src)
}

// ScrollSource returns the source currently observed.
func (m *Model[T, P]) ScrollSource() ScrollSource { return m.scroll }

// Viewport returns the list's own viewport.
func (m *Model[T, P]) Viewport() *Viewport { return m.viewport }

func (m *Model[T, P]) attach(src ScrollSource) {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	m.scroll = src
	m.unsubscribe = src.Subscribe(m.onScroll)
}

func (m *Model[T, P]) onScroll() {
	m.scrollThrottle.Call(func() { m.emit(scrollTickMsg{id: m.id}) })
}

// Close unsubscribes from the scroll source and stops every throttle. A
// closed list no longer fetches.
func (m *Model[T, P]) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
			m.unsubscribe = nil
		}
		m.scrollThrottle.Stop()
		m.resizeThrottle.Stop()
		m.remeasureThrottle.Stop()
		close(m.done)
	})
}

func (m *Model[T, P]) emit(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.done:
	}
}

func (m *Model[T, P]) listen() tea.Cmd {
	events, done := m.events, m.done
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Update handles mouse wheel scrolling and the list's own internal
// messages. Callers forward whichever tea.Msg events they want the list to
// respond to.
func (m *Model[T, P]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			m.ScrollUp(3)
		case tea.MouseWheelDown:
			m.ScrollDown(3)
		}

	case scrollTickMsg:
		if msg.id != m.id {
			return nil
		}
		return tea.Batch(m.tick(), m.listen())

	case resizeMsg:
		if msg.id != m.id {
			return nil
		}
		m.relayout()
		return m.listen()

	case remeasureMsg:
		if msg.id != m.id {
			return nil
		}
		m.layout()
		return m.listen()

	case fetchedMsg[T]:
		if msg.id != m.id {
			return nil
		}
		merged := m.coord.Resolve(msg.res)
		if merged {
			m.measurer.Forget(m.coord.Window().Indices())
			m.layout()
		}
		m.clamp()
		if merged && m.atBottom() {
			// Still nothing below the viewport: keep filling.
			return m.tick()
		}
	}
	return nil
}

// tick evaluates the current scroll offset and issues a fetch if the
// observer asks for one.
func (m *Model[T, P]) tick() tea.Cmd {
	offset := m.scroll.ScrollOffset()
	m.observer.Track(offset)

	w := m.coord.Window()
	first, ok := w.First()
	if !ok {
		m.last = Ignored
		return nil
	}
	last, _ := w.Last()
	m.last = m.observer.Evaluate(offset, m.heights.Offset(first), m.heights.Offset(last), m.coord.Busy())
	if m.atBottom() {
		m.last = m.observer.AtBottom(m.last)
	}
	switch m.last {
	case FetchBackward:
		return m.fetch(Backward)
	case FetchForward:
		return m.fetch(Forward)
	}
	return nil
}

// Tick evaluates the scroll position immediately, bypassing the throttle.
func (m *Model[T, P]) Tick() tea.Cmd { return m.tick() }

func (m *Model[T, P]) fetch(dir Direction) tea.Cmd {
	req, ok := m.coord.Begin(dir)
	if !ok {
		return nil
	}
	ctx, coord, id := m.ctx, m.coord, m.id
	return func() tea.Msg {
		return fetchedMsg[T]{id: id, res: coord.Fetch(ctx, req)}
	}
}

// ---------------------------------------------------------------------------
// Layout and measurement
// ---------------------------------------------------------------------------

// layout renders every active entry that is not cached, measures it and
// writes changed heights back. When heights change the entry under the top
// of the viewport is kept in place.
func (m *Model[T, P]) layout() {
	width := m.contentWidth()
	if width <= 0 {
		return
	}
	anchor, into, anchored := m.anchor()

	changed := false
	for _, e := range m.coord.Window().Entries() {
		_, c := m.measurer.Measure(e.Index, width, m.heights, func() string {
			return m.elem(e.Props, width, m.remeasureFunc(e.Index))
		})
		changed = changed || c
	}

	if changed && anchored {
		if top, ok := m.entryTop(anchor); ok {
			m.setOffset(top + into)
		}
	}
	m.clamp()
}

// relayout handles a width change: every entry is measured again and the
// boundaries are forgotten since the layout they were found under is gone.
func (m *Model[T, P]) relayout() {
	m.coord.ClearBoundaries()
	m.measurer.Invalidate()
	m.layout()
}

func (m *Model[T, P]) remeasureFunc(index int) func() {
	return func() {
		m.measurer.Trigger(index)
		m.remeasureThrottle.Call(func() { m.emit(remeasureMsg{id: m.id}) })
	}
}

// Remeasure renders and measures the entry at absolute index again right
// away. It must be called from the UI thread.
func (m *Model[T, P]) Remeasure(index int) {
	m.measurer.Trigger(index)
	m.layout()
}

// RemeasureAll renders and measures every active entry again, for changes
// that affect all of them at once such as a theme switch.
func (m *Model[T, P]) RemeasureAll() {
	m.measurer.Invalidate()
	m.layout()
}

// anchor returns the entry at the top of the viewport and how many of its
// lines are scrolled past.
func (m *Model[T, P]) anchor() (index, into int, ok bool) {
	offset := m.scroll.ScrollOffset()
	top := m.windowTop()
	for _, e := range m.coord.Window().Entries() {
		h := m.heights.At(e.Index)
		if offset < top+h {
			if offset < top {
				return 0, 0, false
			}
			return e.Index, offset - top, true
		}
		top += h
	}
	return 0, 0, false
}

// windowTop is the offset the window is anchored at: everything before the
// first active index, in placeholder heights.
func (m *Model[T, P]) windowTop() int {
	first, ok := m.coord.Window().First()
	if !ok {
		return 0
	}
	return m.heights.Offset(first)
}

// entryTop returns the top edge of the entry at absolute index, positioned
// within the active window.
func (m *Model[T, P]) entryTop(index int) (int, bool) {
	top := m.windowTop()
	for _, e := range m.coord.Window().Entries() {
		if e.Index == index {
			return top, true
		}
		top += m.heights.At(e.Index)
	}
	return 0, false
}

// ContentHeight returns the bottom edge of the window.
func (m *Model[T, P]) ContentHeight() int {
	top := m.windowTop()
	for _, e := range m.coord.Window().Entries() {
		top += m.heights.At(e.Index)
	}
	return top
}

func (m *Model[T, P]) contentWidth() int {
	if m.scrollbar {
		return m.width - 1
	}
	return m.width
}

// ---------------------------------------------------------------------------
// Sizing and reset
// ---------------------------------------------------------------------------

// SetSize updates the viewport dimensions. A width change re-measures every
// entry through the resize throttle; the first size is laid out at once.
func (m *Model[T, P]) SetSize(w, h int) {
	old := m.width
	m.width, m.height = w, h
	switch {
	case old <= 0:
		m.relayout()
	case w != old:
		m.resizeThrottle.Call(func() { m.emit(resizeMsg{id: m.id}) })
	default:
		m.clamp()
	}
}

// Width returns the viewport width.
func (m *Model[T, P]) Width() int { return m.width }

// Height returns the viewport height.
func (m *Model[T, P]) Height() int { return m.height }

// Reset remounts the list on a fresh initial page: heights, renders,
// boundaries and the scroll position all start over. A fetch in flight is
// abandoned.
func (m *Model[T, P]) Reset(initial []T) {
	m.initial = initial
	m.heights.Reset(len(initial))
	m.measurer.Reset()
	m.observer.Reset()
	m.coord.Reset(NewWindow(0, initial, m.props))
	m.last = Hold
	m.setOffset(0)
	m.layout()
	m.log.WithField("initial", len(initial)).Debug("list reset")
}

// ---------------------------------------------------------------------------
// Scrolling
// ---------------------------------------------------------------------------

// Scroller is a ScrollSource the list can move. The list's own viewport is
// one; an injected source that is not only gets observed.
type Scroller interface {
	ScrollSource
	SetOffset(offset int)
}

// Offset returns the current scroll offset.
func (m *Model[T, P]) Offset() int { return m.scroll.ScrollOffset() }

func (m *Model[T, P]) setOffset(o int) {
	if s, ok := m.scroll.(Scroller); ok {
		s.SetOffset(o)
	}
}

func (m *Model[T, P]) maxOffset() int {
	return max(0, m.ContentHeight()-m.height)
}

// atBottom reports whether the viewport shows the end of the window.
func (m *Model[T, P]) atBottom() bool {
	return m.height > 0 && m.Offset() >= m.maxOffset()
}

func (m *Model[T, P]) clamp() {
	off := m.scroll.ScrollOffset()
	if mx := m.maxOffset(); off > mx {
		m.setOffset(mx)
	}
}

// ScrollDown moves the viewport down by lines. Pushing against the bottom
// still schedules a scroll tick, so a failed forward fetch is retried.
func (m *Model[T, P]) ScrollDown(lines int) {
	to := min(m.Offset()+lines, m.maxOffset())
	if to == m.Offset() && lines > 0 {
		m.onScroll()
		return
	}
	m.setOffset(to)
}

// ScrollUp moves the viewport up by lines.
func (m *Model[T, P]) ScrollUp(lines int) {
	m.setOffset(max(m.Offset()-lines, 0))
}

// PageDown scrolls one viewport height down.
func (m *Model[T, P]) PageDown() { m.ScrollDown(m.height) }

// PageUp scrolls one viewport height up.
func (m *Model[T, P]) PageUp() { m.ScrollUp(m.height) }

// HalfPageDown scrolls half a viewport down.
func (m *Model[T, P]) HalfPageDown() { m.ScrollDown(m.height / 2) }

// HalfPageUp scrolls half a viewport up.
func (m *Model[T, P]) HalfPageUp() { m.ScrollUp(m.height / 2) }

// ScrollToTop moves to offset 0.
func (m *Model[T, P]) ScrollToTop() { m.setOffset(0) }

// ScrollToBottom moves to the last line of the window.
func (m *Model[T, P]) ScrollToBottom() {
	if m.atBottom() {
		m.onScroll()
		return
	}
	m.setOffset(m.maxOffset())
}

// ---------------------------------------------------------------------------
// State
// ---------------------------------------------------------------------------

// Window returns the active window.
func (m *Model[T, P]) Window() Window[T, P] { return m.coord.Window() }

// Heights returns the placeholder table.
func (m *Model[T, P]) Heights() *Heights { return m.heights }

// Busy reports whether a fetch is in flight.
func (m *Model[T, P]) Busy() bool { return m.coord.Busy() }

// Boundary returns the recorded exhausted start for dir.
func (m *Model[T, P]) Boundary(dir Direction) (int, bool) { return m.coord.Boundary(dir) }

// Issued returns how many fetches the list has issued.
func (m *Model[T, P]) Issued() int { return m.coord.Issued() }

// Breakpoint returns the effective window breakpoint.
func (m *Model[T, P]) Breakpoint() int { return m.coord.Breakpoint() }

// LastDecision returns what the most recent tick decided.
func (m *Model[T, P]) LastDecision() Decision { return m.last }

// Hidden reports whether the user is scrolling down, for chrome that hides.
func (m *Model[T, P]) Hidden() bool { return m.observer.Hidden() }

// Visible reports whether the entry at absolute index has been measured.
func (m *Model[T, P]) Visible(index int) bool { return m.measurer.Visible(index) }

// EntryAt returns the entry drawn at viewport row y.
func (m *Model[T, P]) EntryAt(y int) (Entry[T, P], bool) {
	row := m.Offset() + y
	top := m.windowTop()
	for _, e := range m.coord.Window().Entries() {
		h := m.heights.At(e.Index)
		if row >= top && row < top+h {
			return e, true
		}
		top += h
	}
	var zero Entry[T, P]
	return zero, false
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the part of the window inside the viewport. Rows outside
// the window and entries that have not been measured yet are blank.
func (m *Model[T, P]) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	offset := m.Offset()
	rows := make([]string, m.height)

	top := m.windowTop()
	for _, e := range m.coord.Window().Entries() {
		h := m.heights.At(e.Index)
		if top >= offset+m.height {
			break
		}
		if top+h > offset && m.measurer.Visible(e.Index) {
			if content, ok := m.measurer.Cached(e.Index); ok {
				for j, line := range splitLines(content) {
					if j >= h {
						break
					}
					if r := top + j - offset; r >= 0 && r < m.height {
						rows[r] = line
					}
				}
			}
		}
		top += h
	}

	body := strings.Join(rows, "\n")
	if !m.scrollbar {
		return body
	}
	bar := common.Scrollbar(m.height, m.ContentHeight(), offset)
	if bar == "" {
		bar = strings.TrimSuffix(strings.Repeat(" \n", m.height), "\n")
	}
	body = lipgloss.NewStyle().Width(m.contentWidth()).MaxHeight(m.height).Render(body)
	return lipgloss.JoinHorizontal(lipgloss.Top, body, bar)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// splitLines splits a rendered string into individual lines.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}
	return strings.Split(s, "\n")
}
