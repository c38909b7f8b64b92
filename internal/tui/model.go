// Package tui provides the Bubble Tea terminal dashboard for docdash.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	"charm.land/lipgloss/v2"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/backend/sse"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/history"
	"github.com/docdash/docdash/internal/log"
	"github.com/docdash/docdash/internal/poll"
	"github.com/docdash/docdash/internal/search"
)

// Tab identifies one dashboard view.
type Tab int

// Dashboard tabs, in display order.
const (
	TabSearch Tab = iota
	TabDocuments
	TabJobs
	TabImport
	TabReview
	TabCollections
	TabRepos
	TabGraph

	tabCount
)

func (t Tab) String() string {
	switch t {
	case TabSearch:
		return "Search"
	case TabDocuments:
		return "Documents"
	case TabJobs:
		return "Jobs"
	case TabImport:
		return "Import"
	case TabReview:
		return "Review"
	case TabCollections:
		return "Collections"
	case TabRepos:
		return "Repos"
	case TabGraph:
		return "Graph"
	default:
		return "?"
	}
}

// List sizes requested from the backend.
const (
	documentPageSize = 50
	jobPageSize      = 20
)

// Layout constants for viewport height calculation.
const (
	separatorLines = 2 // Above and below the input line
	helpLines      = 1 // Help bar height
	inputLines     = 1 // Single-line input
	minViewport    = 3 // Minimum viewport height
)

// transportErrMsg is shown for any network-level failure. Backend
// rejections keep the server's own wording instead.
const transportErrMsg = "could not reach the backend; check that it is running"

// Model is the Bubble Tea model for the docdash dashboard.
type Model struct {
	// Dependencies (direct, no interface)
	client   *backend.Client
	searcher *search.Client
	recents  *history.Store // nil disables history recording
	cfg      *config.Config
	logger   log.Logger

	ctx       context.Context
	ctxCancel context.CancelFunc // Cancels every stream and poller on exit

	// Navigation
	tab       Tab
	width     int
	height    int
	lastCtrlC time.Time

	// Chrome
	spinner  spinner.Model
	viewport viewport.Model
	viewBuf  strings.Builder // Reusable buffer for View() to reduce allocations
	help     help.Model
	keys     keyMap
	styles   Styles
	markdown *markdownRenderer

	// Transient status line; flashSeq invalidates stale clear timers.
	flash    string
	flashSeq int

	// Remote config (best effort; defaults apply when the fetch fails)
	projectName  string
	vaultEnabled bool

	// Search tab
	searchInput   textarea.Model
	searchSeq     int // Invalidates stale debounce timers and responses
	searching     bool
	results       []backend.SearchResult
	totalResults  int
	fromCache     bool
	searchErr     string
	docType       string   // Active doc type filter ("" = all)
	docTypes      []string // Available values, from the filters endpoint
	answer        *stream
	answerSources []sse.Source

	// Documents tab
	docs       []backend.Document
	docCursor  int
	showDetail bool

	// Jobs tab
	jobs      []backend.ImportJob
	jobCursor int
	poller    *poll.Poller[*backend.ImportJob]
	tracked   *backend.ImportJob

	// Import tab
	importInput textarea.Model
	folderMode  bool
	recursive   bool
	importing   bool
	importLines []string

	// Review tab
	reviewCursor int
	review       *stream
	reviewDoc    *backend.Document
	savingReview bool

	// Listing tabs
	collections []backend.Collection
	repos       []backend.Repository
	graph       *backend.Graph

	loading bool
	errMsg  string
}

// Options carry the dashboard dependencies.
type Options struct {
	Client  *backend.Client
	Search  *search.Client
	History *history.Store // Optional
	Config  *config.Config
	Logger  log.Logger
}

// New creates the dashboard model.
//
// IMPORTANT: ctx MUST be the same context passed to tea.WithContext()
// so that quitting the program also cancels streams and pollers.
func New(ctx context.Context, opts Options) (*Model, error) {
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if opts.Client == nil {
		return nil, errors.New("tui.New: backend client is required")
	}
	if opts.Search == nil {
		return nil, errors.New("tui.New: search client is required")
	}
	if opts.Config == nil {
		return nil, errors.New("tui.New: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)

	searchInput := newInput("Search the knowledge base...")
	searchInput.Focus()
	importInput := newInput("Paste a Google Docs URL...")

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	// Built-in viewport key handling is disabled; keys are routed
	// explicitly in handleKey to avoid conflicts with the inputs.
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		client:      opts.Client,
		searcher:    opts.Search,
		recents:     opts.History,
		cfg:         opts.Config,
		logger:      logger,
		ctx:         ctx,
		ctxCancel:   cancel,
		searchInput: searchInput,
		importInput: importInput,
		spinner:     sp,
		viewport:    vp,
		help:        help.New(),
		keys:        newKeyMap(),
		styles:      DefaultStyles(),
		markdown:    newMarkdownRenderer(80),
		projectName: opts.Config.ProjectName,
		width:       80, // Until the first WindowSizeMsg arrives
	}, nil
}

// newInput creates a single-line textarea with minimal styling.
func newInput(placeholder string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.SetHeight(1)
	ta.SetWidth(120) // Updated on WindowSizeMsg
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{
		Focused: cleanStyle,
		Blurred: cleanStyle,
	})
	return ta
}

// activeInput returns the textarea owning keystrokes on the current tab,
// or nil when the tab has no text input.
func (m *Model) activeInput() *textarea.Model {
	switch m.tab {
	case TabSearch:
		return &m.searchInput
	case TabImport:
		return &m.importInput
	default:
		return nil
	}
}

// closeAnswer tears down the active answer stream, if any.
func (m *Model) closeAnswer() {
	if m.answer != nil {
		m.answer.session.Close()
		m.answer = nil
	}
	m.answerSources = nil
}

// closeReview tears down the active review stream, if any.
func (m *Model) closeReview() {
	if m.review != nil {
		m.review.session.Close()
		m.review = nil
	}
	m.reviewDoc = nil
	m.savingReview = false
}

// stopTracking cancels the job poller, if any. After this returns no
// update for the old subject can arrive, so subjects never bleed together.
func (m *Model) stopTracking() {
	if m.poller != nil {
		m.poller.Cancel()
		m.poller = nil
	}
	m.tracked = nil
}
