// Package ui is the terminal checkbox-tree picker built on Bubble Tea.
//
// The Model owns no tree state of its own: every row, checkbox and search
// result comes from a *tree.Engine, and the Model re-renders whenever the
// engine notifies.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/checktree/internal/datasource"
	"github.com/vanderheijden86/checktree/pkg/debug"
	"github.com/vanderheijden86/checktree/pkg/metrics"
	"github.com/vanderheijden86/checktree/pkg/tree"
	"github.com/vanderheijden86/checktree/pkg/watcher"
)

// FileChangedMsg is sent when a watched definition file changes on disk.
type FileChangedMsg struct {
	Paths []string
}

// EngineChangedMsg is sent after the engine notified its listeners.
type EngineChangedMsg struct {
	Versions tree.Versions
}

// ReadyTimeoutMsg makes the UI render even if the terminal is slow to report
// its size.
type ReadyTimeoutMsg struct{}

// ReadyTimeoutCmd sends ReadyTimeoutMsg after 100ms.
func ReadyTimeoutCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return ReadyTimeoutMsg{}
	})
}

// WatchFileCmd waits for the next settled change from w.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		return FileChangedMsg{Paths: <-w.Changed()}
	}
}

// waitForEngine blocks until the engine listener signals.
func waitForEngine(ch <-chan tree.Versions) tea.Cmd {
	return func() tea.Msg {
		return EngineChangedMsg{Versions: <-ch}
	}
}

// Options configures a Model.
type Options struct {
	Title string
	// ShowCounts appends "(checked/total)" to folder rows.
	ShowCounts bool
	// DetailWidth is the width of the detail pane; 0 hides it.
	DetailWidth int
	// Reload rebuilds the definition after a file change. Nil disables
	// reloading.
	Reload func() (tree.Definition, error)
	// Definition is what the engine was built from. Reload diffs against it;
	// when nil the status only reports the new node count.
	Definition tree.Definition
	// EngineOptions are applied to engines built on reload.
	EngineOptions []tree.Option
	Watcher       *watcher.Watcher
	Theme         *Theme
}

// Model is the picker's Bubble Tea model.
type Model struct {
	engine *tree.Engine
	def    tree.Definition // last loaded definition
	opts   Options
	theme  Theme

	notify      chan tree.Versions
	unsubscribe func()

	counts *countCache
	detail *detailPane

	search    textinput.Model
	searching bool

	cursor   int
	cursorID string
	offset   int

	width, height int
	ready         bool
	showDetail    bool

	statusMsg     string
	statusIsError bool

	confirmed bool
	quitting  bool
}

// NewModel creates a picker over e.
func NewModel(e *tree.Engine, opts Options) Model {
	var theme Theme
	if opts.Theme != nil {
		theme = *opts.Theme
	} else {
		theme = DefaultTheme(lipgloss.DefaultRenderer())
	}

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = fmt.Sprintf("search (%d+ chars)", e.MinSearchChars())
	ti.PromptStyle = theme.SearchPrompt
	ti.CharLimit = 256
	ti.SetValue(e.SearchQuery())

	m := Model{
		engine:     e,
		def:        opts.Definition,
		opts:       opts,
		theme:      theme,
		notify:     make(chan tree.Versions, 1),
		counts:     &countCache{},
		detail:     newDetailPane(opts.DetailWidth),
		search:     ti,
		showDetail: opts.DetailWidth > 0,
	}
	m.subscribe()
	if rows := e.VisibleItems(); len(rows) > 0 {
		m.cursorID = rows[0].ID
	}
	return m
}

func (m *Model) subscribe() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	ch := m.notify
	m.unsubscribe = m.engine.Subscribe(func(v tree.Versions) {
		select {
		case ch <- v:
		default:
		}
	})
}

// Engine returns the engine currently displayed. It changes after a reload.
func (m Model) Engine() *tree.Engine { return m.engine }

// Confirmed reports whether the user quit with q (as opposed to ctrl+c).
func (m Model) Confirmed() bool { return m.confirmed }

// Checked returns the checked leaves of the current engine.
func (m Model) Checked() []string { return m.engine.AllChecked() }

// Close detaches the model from its engine.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ReadyTimeoutCmd(), waitForEngine(m.notify)}
	if m.opts.Watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.search.Width = max(msg.Width-4, 10)
		m.syncCursor()

	case ReadyTimeoutMsg:
		if !m.ready {
			m.ready = true
			if m.width == 0 {
				m.width, m.height = 80, 24
			}
		}

	case EngineChangedMsg:
		m.syncCursor()
		cmds = append(cmds, waitForEngine(m.notify))

	case FileChangedMsg:
		m.reload(msg.Paths)
		if m.opts.Watcher != nil {
			cmds = append(cmds, WatchFileCmd(m.opts.Watcher))
		}

	case tea.KeyMsg:
		if m.searching {
			return m.handleSearchKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

// reload rebuilds the engine from disk and carries the query, expansion and
// selection across. The selection is restored silently so it does not read
// as a user change.
func (m *Model) reload(paths []string) {
	if m.opts.Reload == nil {
		return
	}
	start := time.Now()
	def, err := m.opts.Reload()
	if err != nil {
		m.setStatus(fmt.Sprintf("Reload error: %v", err), true)
		return
	}

	summary := fmt.Sprintf("%d nodes", len(def))
	if m.def != nil {
		summary = datasource.DiffDefinitions(m.def, def).Summary()
	}

	old := m.engine

	opts := append([]tree.Option{}, m.opts.EngineOptions...)
	opts = append(opts, tree.WithMinSearchChars(old.MinSearchChars()), tree.WithRootID(old.RootID()))
	next := tree.New(def, opts...)
	next.SetSearchQuery(old.SearchQuery())
	next.SetExpanded(old.Expanded())
	next.SetCheckedSilent(old.AllChecked())

	m.engine = next
	m.def = def
	m.subscribe()
	m.counts = &countCache{}
	m.detail.lastID = ""
	m.syncCursor()

	debug.LogTiming("ui.reload", time.Since(start))
	debug.Log("ui: reloaded %v: %s", paths, summary)
	m.setStatus("Reloaded: "+summary, false)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsError = isErr
}

// syncCursor keeps the cursor on the same node when rows move, falling back
// to the same index when that node left the view.
func (m *Model) syncCursor() {
	rows := m.engine.VisibleItems()
	if len(rows) == 0 {
		m.cursor, m.offset, m.cursorID = 0, 0, ""
		return
	}
	if idx := m.engine.IndexOf(m.cursorID); idx >= 0 {
		m.cursor = idx
	}
	m.cursor = min(max(m.cursor, 0), len(rows)-1)
	m.cursorID = rows[m.cursor].ID
	m.clampOffset()
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.cursorID = ""
	m.syncCursor()
}

func (m *Model) listHeight() int {
	h := m.height - 2 // header + footer
	if m.searching || m.engine.SearchQuery() != "" {
		h--
	}
	return max(h, 1)
}

func (m *Model) clampOffset() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(m.offset, 0)
}

// currentRow returns the row under the cursor.
func (m Model) currentRow() (tree.Row, bool) {
	rows := m.engine.VisibleItems()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return tree.Row{}, false
	}
	return rows[m.cursor], true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	m.setStatus("", false)
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "q":
		m.quitting = true
		m.confirmed = true
		return m, tea.Quit

	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "pgup", "ctrl+u":
		m.moveCursor(-m.listHeight())
	case "pgdown", "ctrl+d":
		m.moveCursor(m.listHeight())
	case "home", "g":
		m.moveCursor(-len(e.VisibleItems()))
	case "end", "G":
		m.moveCursor(len(e.VisibleItems()))

	case " ", "space", "x":
		if row, ok := m.currentRow(); ok {
			e.Toggle(row.ID, e.ViewState(row.ID) != tree.Checked)
		}

	case "enter", "l", "right":
		if row, ok := m.currentRow(); ok {
			if row.Folder && !row.Expanded {
				e.ToggleExpanded(row.ID)
			} else if !row.Folder && msg.String() == "enter" {
				e.Toggle(row.ID, e.ViewState(row.ID) != tree.Checked)
			}
		}
	case "h", "left":
		if row, ok := m.currentRow(); ok {
			if row.Folder && row.Expanded {
				e.ToggleExpanded(row.ID)
			} else if parent, ok := e.Parent(row.ID); ok && parent != e.RootID() {
				m.cursorID = parent
			}
		}
	case "E":
		e.ExpandAll()
	case "C":
		e.CollapseAll()

	case "/":
		m.searching = true
		m.search.SetValue(e.SearchQuery())
		m.search.CursorEnd()
		return m, m.search.Focus()
	case "esc":
		if e.SearchQuery() != "" {
			m.search.SetValue("")
			e.SetSearchQuery("")
		}

	case "d":
		if m.opts.DetailWidth > 0 {
			m.showDetail = !m.showDetail
		}

	case "y":
		m.copyChecked()
	}

	m.syncCursor()
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "enter", "down", "up":
		m.searching = false
		m.search.Blur()
		m.syncCursor()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.engine.SetSearchQuery("")
		m.syncCursor()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != m.engine.SearchQuery() {
		m.engine.SetSearchQuery(v)
		if rows := m.engine.VisibleItems(); len(rows) > 0 {
			m.cursor, m.cursorID = 0, rows[0].ID
		}
	}
	m.syncCursor()
	return m, cmd
}

func (m *Model) copyChecked() {
	ids := m.engine.AllChecked()
	if len(ids) == 0 {
		m.setStatus("Nothing checked", false)
		return
	}
	if err := clipboard.WriteAll(strings.Join(ids, "\n")); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %d IDs to clipboard", len(ids)), false)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}
	defer metrics.Timer(metrics.UIRender)()

	e := m.engine
	listWidth := m.width
	detailOn := m.showDetail && m.opts.DetailWidth > 0 && m.width > m.opts.DetailWidth+20
	if detailOn {
		listWidth = m.width - m.opts.DetailWidth - 1
		m.detail.setWidth(m.opts.DetailWidth)
	}

	var sb strings.Builder
	sb.WriteString(m.headerView())
	sb.WriteString("\n")

	if m.searching || e.SearchQuery() != "" {
		sb.WriteString(m.searchView())
		sb.WriteString("\n")
	}

	rows := e.VisibleItems()
	h := m.listHeight()
	lines := make([]string, 0, h)
	end := min(m.offset+h, len(rows))
	for i := m.offset; i < end; i++ {
		r := rows[i]
		v := rowView{
			Row:      r,
			Label:    e.Label(r.ID),
			State:    e.ViewState(r.ID),
			Selected: i == m.cursor,
		}
		if m.opts.ShowCounts && r.Folder {
			lc := m.counts.get(e, r.ID)
			v.Count = &lc
		}
		lines = append(lines, renderRow(m.theme, v, listWidth))
	}
	if len(rows) == 0 {
		msg := "(empty)"
		if e.IsSearchActive() {
			msg = "No matches"
		}
		lines = append(lines, m.theme.Footer.Render(msg))
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	list := lipgloss.NewStyle().Width(listWidth).Render(strings.Join(lines, "\n"))

	if detailOn {
		pane := m.detail.View(m.theme, e, m.cursorID, h)
		list = lipgloss.JoinHorizontal(lipgloss.Top, list, " ", pane)
	}
	sb.WriteString(list)
	sb.WriteString("\n")
	sb.WriteString(m.footerView())
	return sb.String()
}

func (m Model) headerView() string {
	title := m.opts.Title
	if title == "" {
		title = m.engine.Label(m.engine.RootID())
	}
	checked := len(m.engine.AllChecked())
	right := fmt.Sprintf("%d checked", checked)
	w := max(m.width-lipgloss.Width(right)-3, 1)
	return m.theme.Header.Render(padRight(truncate(title, w), w) + " " + right)
}

func (m Model) searchView() string {
	if m.searching {
		return m.search.View()
	}
	e := m.engine
	status := fmt.Sprintf("%d matches", e.MatchCount())
	if !e.IsSearchActive() {
		status = fmt.Sprintf("type %d+ chars", e.MinSearchChars())
	}
	return m.theme.SearchPrompt.Render("/ ") + e.SearchQuery() + m.theme.Footer.Render("  "+status)
}

func (m Model) footerView() string {
	if m.statusMsg != "" {
		if m.statusIsError {
			return m.theme.StatusError.Render(truncate(m.statusMsg, m.width))
		}
		return m.theme.StatusOK.Render(truncate(m.statusMsg, m.width))
	}
	help := "space toggle · enter/l open · h close · E/C all · / search · y copy · q done"
	return m.theme.Footer.Render(truncate(help, m.width))
}
