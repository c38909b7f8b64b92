package tui

import (
	"strings"
	"time"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/docdash/docdash/internal/search"
)

// keyMap holds key bindings for the help bar display.
type keyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	Select    key.Binding
	Refresh   key.Binding
	Filter    key.Binding
	Cancel    key.Binding
	Quit      key.Binding
	ScrollUp  key.Binding
	ScrollDn  key.Binding
	EscCancel key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("s+tab", "prev view")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Refresh:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Filter:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "doc type")),
		Cancel:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "cancel")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "exit")),
		ScrollUp:  key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		ScrollDn:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		EscCancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close stream")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.Select, k.Filter, k.Cancel, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.Select, k.Refresh},
		{k.Filter, k.ScrollUp, k.ScrollDn},
		{k.EscCancel, k.Cancel, k.Quit},
	}
}

//nolint:gocyclo // Keyboard handler requires branching for all key combinations
func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.Key()

	if k.Mod&tea.ModCtrl != 0 {
		switch k.Code {
		case 'c':
			return m.handleCtrlC()
		case 'd':
			return m, m.cleanup()
		case 'f':
			if m.tab == TabSearch {
				return m, m.cycleDocType()
			}
		case 'o':
			if m.tab == TabImport {
				m.folderMode = !m.folderMode
				m.importInput.Placeholder = importPlaceholder(m.folderMode)
				m.rebuildViewportContent()
				return m, nil
			}
		case 'r':
			if m.tab == TabImport {
				m.recursive = !m.recursive
				m.rebuildViewportContent()
				return m, nil
			}
		case 'x':
			if m.tab == TabDocuments {
				return m, m.deleteSelectedDocument()
			}
		}
	}

	switch k.Code {
	case tea.KeyTab:
		if k.Mod&tea.ModShift != 0 {
			return m, m.switchTab((m.tab + tabCount - 1) % tabCount)
		}
		return m, m.switchTab((m.tab + 1) % tabCount)

	case tea.KeyEnter:
		return m.handleEnter()

	case tea.KeyEscape:
		return m.handleEscape()

	case tea.KeyUp:
		if m.moveCursor(-1) {
			return m, nil
		}

	case tea.KeyDown:
		if m.moveCursor(1) {
			return m, nil
		}

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil
	}

	// Tabs without a text input treat plain letters and digits as commands.
	if m.activeInput() == nil {
		if cmd, handled := m.handleBareKey(k); handled {
			return m, cmd
		}
		return m, nil
	}

	return m.handleTyping(msg)
}

// handleBareKey handles single-rune commands on list tabs.
func (m *Model) handleBareKey(k tea.Key) (tea.Cmd, bool) {
	if k.Mod != 0 {
		return nil, false
	}

	switch k.Code {
	case 'r':
		m.loading = true
		return m.loadTab(m.tab), true
	case 's':
		if m.tab == TabReview {
			return m.saveCompletedReview(), true
		}
	case '1', '2', '3', '4', '5', '6', '7', '8':
		return m.switchTab(Tab(k.Code - '1')), true
	}
	return nil, false
}

// handleTyping forwards a key to the focused input and, on the search
// tab, reacts to text changes with the debounce pipeline.
func (m *Model) handleTyping(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	input := m.activeInput()
	before := input.Value()

	var cmd tea.Cmd
	*input, cmd = input.Update(msg)

	if m.tab == TabSearch && input.Value() != before {
		return m, tea.Batch(cmd, m.handleQueryChange())
	}
	return m, cmd
}

// handleQueryChange reacts to every edit of the search box. Short queries
// clear results immediately; anything else restarts the debounce window.
func (m *Model) handleQueryChange() tea.Cmd {
	m.searchSeq++ // Invalidates pending timers and in-flight responses

	query := strings.TrimSpace(m.searchInput.Value())
	if utf8.RuneCountInString(query) < search.MinQueryLength {
		m.clearSearch()
		m.rebuildViewportContent()
		return nil
	}

	m.searching = true
	m.rebuildViewportContent()
	return debounce(m.searchSeq)
}

// clearSearch drops results, errors and any running answer stream.
func (m *Model) clearSearch() {
	m.results = nil
	m.totalResults = 0
	m.fromCache = false
	m.searchErr = ""
	m.searching = false
	m.closeAnswer()
}

// cycleDocType advances the doc type filter and re-dispatches the query
// through the same debounce window typing uses.
func (m *Model) cycleDocType() tea.Cmd {
	if len(m.docTypes) == 0 {
		return nil
	}

	next := 0
	for i, dt := range m.docTypes {
		if dt == m.docType {
			next = i + 1
			break
		}
	}
	if next >= len(m.docTypes) {
		m.docType = "" // Back to "all"
	} else {
		m.docType = m.docTypes[next]
	}

	return m.handleQueryChange()
}

func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.tab {
	case TabSearch:
		// Enter skips the rest of the debounce window.
		query := strings.TrimSpace(m.searchInput.Value())
		if utf8.RuneCountInString(query) < search.MinQueryLength {
			return m, nil
		}
		m.searchSeq++
		m.searching = true
		m.rebuildViewportContent()
		return m, m.runSearch(m.searchSeq, m.currentQuery())

	case TabImport:
		return m, m.handleImportSubmit()

	case TabDocuments:
		if len(m.docs) > 0 {
			m.showDetail = !m.showDetail
			m.rebuildViewportContent()
		}
		return m, nil

	case TabJobs:
		if m.jobCursor < len(m.jobs) {
			job := m.jobs[m.jobCursor]
			return m, m.startTracking(job.JobID)
		}
		return m, nil

	case TabReview:
		return m, m.startSelectedReview()
	}
	return m, nil
}

func (m *Model) handleEscape() (tea.Model, tea.Cmd) {
	switch m.tab {
	case TabSearch:
		m.closeAnswer()
	case TabReview:
		m.closeReview()
	}
	m.errMsg = ""
	m.rebuildViewportContent()
	return m, nil
}

// handleCtrlC cancels the tab's running stream first; when nothing is
// running, a double press within a second exits.
func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	switch {
	case m.tab == TabSearch && m.answer != nil:
		m.closeAnswer()
		m.rebuildViewportContent()
		return m, nil
	case m.tab == TabReview && m.review != nil:
		m.closeReview()
		m.rebuildViewportContent()
		return m, nil
	}

	now := time.Now()
	if now.Sub(m.lastCtrlC) < time.Second {
		return m, m.cleanup()
	}
	m.lastCtrlC = now
	return m, m.setFlash("press ctrl+c again to exit")
}

// moveCursor moves the selection on list tabs. Reports whether the key
// was consumed.
func (m *Model) moveCursor(delta int) bool {
	clamp := func(cursor, size int) int {
		cursor += delta
		if cursor < 0 {
			return 0
		}
		if cursor >= size {
			cursor = size - 1
		}
		if cursor < 0 {
			cursor = 0
		}
		return cursor
	}

	switch m.tab {
	case TabDocuments:
		m.docCursor = clamp(m.docCursor, len(m.docs))
	case TabJobs:
		m.jobCursor = clamp(m.jobCursor, len(m.jobs))
	case TabReview:
		m.reviewCursor = clamp(m.reviewCursor, len(m.docs))
	default:
		return false
	}
	m.rebuildViewportContent()
	return true
}

func importPlaceholder(folderMode bool) string {
	if folderMode {
		return "Paste a Google Drive folder URL..."
	}
	return "Paste a Google Docs URL..."
}
