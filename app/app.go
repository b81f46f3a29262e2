// Package app is the root bubbletea model of the memo browser: a header, the
// virtualized memo list, a status bar and toasts.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/sirupsen/logrus"

	"github.com/miosa/osa-memos/config"
	"github.com/miosa/osa-memos/logger"
	"github.com/miosa/osa-memos/memo"
	"github.com/miosa/osa-memos/msg"
	"github.com/miosa/osa-memos/source"
	"github.com/miosa/osa-memos/style"
	"github.com/miosa/osa-memos/ui/card"
	"github.com/miosa/osa-memos/ui/common"
	"github.com/miosa/osa-memos/ui/header"
	"github.com/miosa/osa-memos/ui/list"
	"github.com/miosa/osa-memos/ui/status"
	"github.com/miosa/osa-memos/ui/toast"
)

// MemoList is the list the browser drives.
type MemoList = list.Model[memo.Memo, *card.Card]

// Model is the root model. The list is held by pointer, so copies of Model
// share it.
type Model struct {
	header header.Model
	list   *MemoList
	deck   *card.Deck
	status status.Model
	toasts toast.ToastsModel

	state        State
	layout       Layout
	headerHidden bool

	src        source.Source
	cfg        *config.Config
	configPath string
	ctx        context.Context
	log        logrus.FieldLogger

	keys   KeyMap
	width  int
	height int
	err    error
}

// Option configures New.
type Option func(*Model)

// WithConfigPath sets the file a theme change is written to.
func WithConfigPath(p string) Option {
	return func(m *Model) { m.configPath = p }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithDeck replaces the card deck, e.g. to render without glamour.
func WithDeck(d *card.Deck) Option {
	return func(m *Model) {
		if d != nil {
			m.deck = d
		}
	}
}

// New constructs the root Model over src. It applies the configured theme;
// the first page is loaded by Init.
func New(ctx context.Context, src source.Source, cfg *config.Config, opts ...Option) Model {
	m := Model{
		src:    src,
		cfg:    cfg,
		ctx:    ctx,
		log:    logger.Discard(),
		keys:   DefaultKeyMap(),
		state:  StateLoading,
		toasts: toast.NewToasts(),
		width:  80,
		height: 24,
	}
	for _, o := range opts {
		o(&m)
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if cfg.Theme != "" && cfg.Theme != config.ThemeAuto && !style.SetTheme(cfg.Theme) {
		m.log.WithField("theme", cfg.Theme).Warn("unknown theme")
	}
	if m.deck == nil {
		m.deck = card.NewDeck(
			card.WithCollapseLines(cfg.List.CollapseLines),
			card.WithAsync(true),
			card.WithLogger(m.log.WithField(logger.FieldComponent, "card")),
		)
	}

	m.header = header.New(src.Name())
	m.header.SetTag(cfg.Source.Tag)
	m.header.SetTheme(style.CurrentThemeName)

	m.layout = ComputeLayout(m.width, m.height, true)
	m.list = list.New[memo.Memo, *card.Card](src, m.deck.Props, card.Elem, nil,
		list.WithConfig(cfg.Paging()),
		list.WithSize(m.layout.ListWidth, m.layout.ListHeight),
		list.WithContext(m.ctx),
		list.WithLogger(m.log.WithField(logger.FieldComponent, "list")),
	)

	m.status = status.New()
	m.status.SetBusy(true)
	m.status.SetHelp(common.KeyHelp(m.keys.ShortHelp()...))
	m.applyLayout()
	return m
}

// List returns the memo list.
func (m Model) List() *MemoList { return m.list }

// State returns the current application state.
func (m Model) State() State { return m.state }

// Close stops the list's timers.
func (m Model) Close() { m.list.Close() }

// -- Init ---------------------------------------------------------------------

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.load(false),
		m.status.Tick,
		func() tea.Msg { return tea.RequestWindowSize() },
	)
}

// -- Update -------------------------------------------------------------------

func (m Model) Update(rawMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := rawMsg.(type) {

	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.applyLayout()
		return m, nil

	case tea.MouseWheelMsg:
		if m.state != StateBrowsing {
			return m, nil
		}
		cmd := m.list.Update(v)
		return m, tea.Batch(cmd, m.syncChrome())

	case tea.KeyPressMsg:
		return m.handleKey(v)

	// -- Loading --

	case msg.LoadedMsg:
		return m.handleLoaded(v)

	// -- Config --

	case msg.ThemeSavedMsg:
		if v.Err != nil {
			m.log.WithError(v.Err).Warn("theme not saved")
			m.toasts.Add("theme not saved: "+v.Err.Error(), toast.ToastWarning)
			return m, m.tickCmd()
		}
		return m, nil

	// -- Tick --

	case msg.TickMsg:
		m.toasts.Tick()
		if m.toasts.HasToasts() {
			return m, m.tickCmd()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(v)
		return m, cmd
	}

	// Everything else belongs to the list: throttled ticks, fetch results,
	// re-measures.
	cmd := m.list.Update(rawMsg)
	return m, tea.Batch(cmd, m.syncChrome())
}

func (m Model) handleLoaded(r msg.LoadedMsg) (tea.Model, tea.Cmd) {
	busy := m.status.SetBusy(false)
	if r.Err != nil {
		m.log.WithError(r.Err).WithField(logger.FieldSource, m.src.Name()).Error("load failed")
		m.err = r.Err
		if !r.Reload {
			m.state = StateError
		}
		m.toasts.Add("load failed: "+r.Err.Error(), toast.ToastError)
		return m, tea.Batch(busy, m.tickCmd())
	}

	m.err = nil
	if r.Reload {
		m.deck.Reset()
	}
	m.list.Reset(r.Memos)
	m.log.WithFields(logrus.Fields{
		logger.FieldCount:  len(r.Memos),
		logger.FieldSource: m.src.Name(),
	}).Info("first page loaded")

	if len(r.Memos) == 0 {
		m.state = StateEmpty
	} else {
		m.state = StateBrowsing
	}
	// A first page shorter than the viewport can't be scrolled, so the
	// list is ticked once to keep filling it.
	fill := m.list.Tick()
	cmds := []tea.Cmd{busy, fill, m.syncChrome()}
	if r.Reload {
		m.toasts.Add(fmt.Sprintf("reloaded %d memos", len(r.Memos)), toast.ToastInfo)
		cmds = append(cmds, m.tickCmd())
	}
	return m, tea.Batch(cmds...)
}

// -- Key handling -------------------------------------------------------------

func (m Model) handleKey(k tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches[tea.KeyPressMsg](k, m.keys.Quit):
		m.list.Close()
		return m, tea.Quit

	case key.Matches[tea.KeyPressMsg](k, m.keys.CycleTheme):
		return m.cycleTheme()

	case key.Matches[tea.KeyPressMsg](k, m.keys.Reload):
		m.log.Info("reload")
		return m, tea.Batch(m.load(true), m.status.SetBusy(true))
	}

	if m.state != StateBrowsing {
		return m, nil
	}

	switch {
	case key.Matches[tea.KeyPressMsg](k, m.keys.ScrollDown):
		m.list.ScrollDown(1)
	case key.Matches[tea.KeyPressMsg](k, m.keys.ScrollUp):
		m.list.ScrollUp(1)
	case key.Matches[tea.KeyPressMsg](k, m.keys.PageDown):
		m.list.PageDown()
	case key.Matches[tea.KeyPressMsg](k, m.keys.PageUp):
		m.list.PageUp()
	case key.Matches[tea.KeyPressMsg](k, m.keys.HalfPageDown):
		m.list.HalfPageDown()
	case key.Matches[tea.KeyPressMsg](k, m.keys.HalfPageUp):
		m.list.HalfPageUp()
	case key.Matches[tea.KeyPressMsg](k, m.keys.ScrollTop):
		m.list.ScrollToTop()
	case key.Matches[tea.KeyPressMsg](k, m.keys.ScrollBottom):
		m.list.ScrollToBottom()

	case key.Matches[tea.KeyPressMsg](k, m.keys.ToggleExpand):
		e, ok := m.list.EntryAt(0)
		if !ok || !e.Props.Toggle() {
			return m, nil
		}
		m.list.Remeasure(e.Index)

	case key.Matches[tea.KeyPressMsg](k, m.keys.CopyMemo):
		e, ok := m.list.EntryAt(0)
		if !ok {
			return m, nil
		}
		picked := e.Props.Memo()
		m.toasts.Add("copied "+common.Truncate(picked.ID, 30), toast.ToastInfo)
		return m, tea.Batch(tea.SetClipboard(picked.Markdown()), m.tickCmd())

	default:
		return m, nil
	}
	return m, m.syncChrome()
}

func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	next := style.NextTheme()
	style.SetTheme(next)
	m.cfg.Theme = next
	m.header.SetTheme(next)
	m.status.SetHelp(common.KeyHelp(m.keys.ShortHelp()...))
	m.list.RemeasureAll()
	m.log.WithField("theme", next).Info("theme changed")
	return m, m.saveTheme(next)
}

// -- Commands -----------------------------------------------------------------

// load fetches the first page off the UI thread.
func (m Model) load(reload bool) tea.Cmd {
	src, ctx, size := m.src, m.ctx, m.cfg.List.BatchSize
	return func() tea.Msg {
		items, err := src.FetchFrom(ctx, 0, size)
		return msg.LoadedMsg{Memos: items, Reload: reload, Err: err}
	}
}

func (m Model) saveTheme(theme string) tea.Cmd {
	path := m.configPath
	return func() tea.Msg {
		return msg.ThemeSavedMsg{Theme: theme, Err: config.SaveTheme(path, theme)}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return msg.TickMsg{} })
}

// -- Layout -------------------------------------------------------------------

// applyLayout recalculates the Layout and propagates it into sub-models.
func (m *Model) applyLayout() {
	m.layout = ComputeLayout(m.width, m.height, !m.headerHidden)
	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.list.SetSize(m.layout.ListWidth, m.layout.ListHeight)
}

// syncChrome copies list state into the header and status bar. It returns
// the spinner's first tick when a fetch has just started.
func (m *Model) syncChrome() tea.Cmd {
	if hidden := m.list.Hidden(); hidden != m.headerHidden {
		m.headerHidden = hidden
		m.applyLayout()
	}

	w := m.list.Window()
	first, ok := w.First()
	if !ok {
		m.status.SetWindow(0, -1)
		return m.status.SetBusy(m.list.Busy())
	}
	last, _ := w.Last()
	m.status.SetWindow(first, last)

	top := first
	if e, ok := m.list.EntryAt(0); ok {
		top = e.Index
	}
	bottom := top
	for y := m.layout.ListHeight - 1; y >= 0; y-- {
		if e, ok := m.list.EntryAt(y); ok {
			bottom = e.Index
			break
		}
	}
	m.status.SetVisible(top, bottom)

	_, end := m.list.Boundary(list.Forward)
	m.status.SetBoundaries(first == 0, end)
	return m.status.SetBusy(m.list.Busy())
}

// -- View ---------------------------------------------------------------------

// View returns the tea.View for the current frame.
// AltScreen and MouseMode are set on every frame.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// renderView composes the full terminal frame as a string.
func (m Model) renderView() string {
	var sections []string
	if !m.headerHidden {
		sections = append(sections, m.header.View())
	}
	sections = append(sections, m.overlayToasts(m.renderMain()))
	sections = append(sections, m.status.View())
	return strings.Join(sections, "\n")
}

// renderMain returns exactly ListHeight rows for the body.
func (m Model) renderMain() string {
	var body string
	switch m.state {
	case StateLoading:
		body = m.centered(style.EmptyState.Render("loading memos…"))
	case StateEmpty:
		body = m.centered(style.EmptyState.Render("no memos"))
	case StateError:
		box := style.ErrorBox.Render(common.Truncate(m.errText(), max(m.layout.ListWidth-4, 1)))
		hint := style.Hint.Render("ctrl+r to retry")
		body = m.centered(lipgloss.JoinVertical(lipgloss.Center, box, hint))
	default:
		body = m.list.View()
	}

	lines := strings.Split(body, "\n")
	rows := make([]string, m.layout.ListHeight)
	pad := strings.Repeat(" ", m.layout.ListLeft)
	for i := range rows {
		if i < len(lines) {
			rows[i] = pad + lines[i]
		}
	}
	return strings.Join(rows, "\n")
}

func (m Model) errText() string {
	if m.err == nil {
		return "load failed"
	}
	return m.err.Error()
}

func (m Model) centered(s string) string {
	return lipgloss.Place(m.layout.ListWidth, m.layout.ListHeight, lipgloss.Center, lipgloss.Center, s)
}

// overlayToasts replaces the bottom rows of body with the toast lines.
func (m Model) overlayToasts(body string) string {
	if !m.toasts.HasToasts() {
		return body
	}
	rows := strings.Split(body, "\n")
	toasts := strings.Split(m.toasts.View(m.width), "\n")
	start := max(len(rows)-len(toasts), 0)
	for i, t := range toasts {
		if start+i < len(rows) {
			rows[start+i] = t
		}
	}
	return strings.Join(rows, "\n")
}
