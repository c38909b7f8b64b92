package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/backend/sse"
)

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.searchInput.Focus(),
		// Server-side settings and filter values are fetched once at
		// startup; both are best effort.
		m.fetchRemoteConfig(),
		m.loadFilters(),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo // Bubble Tea Update requires a type switch on all message types
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Viewport height: total minus tab bar, separators, input, help.
		fixedHeight := 1 + separatorLines + inputLines + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.searchInput.SetWidth(msg.Width - 4) // Room for the "> " prompt
		m.importInput.SetWidth(msg.Width - 4)
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() {
			m.rebuildViewportContent()
		}
		return m, cmd

	case remoteConfigMsg:
		// Bootstrap failure is the one error class that is swallowed
		// entirely: the dashboard runs on local defaults.
		if msg.err != nil {
			m.logger.Debug("remote config unavailable, using defaults", "error", msg.err)
			return m, nil
		}
		m.cfg.ApplyRemote(*msg.remote)
		m.projectName = m.cfg.ProjectName
		m.vaultEnabled = m.cfg.ObsidianEnabled
		m.rebuildViewportContent()
		return m, nil

	case filtersLoadedMsg:
		if msg.err != nil {
			m.logger.Debug("search filters unavailable", "error", msg.err)
			return m, nil
		}
		m.docTypes = msg.opts.DocTypes
		return m, nil

	case documentsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
		} else {
			m.errMsg = ""
			m.docs = msg.docs
			m.docCursor = clampCursor(m.docCursor, len(m.docs))
			m.reviewCursor = clampCursor(m.reviewCursor, len(m.docs))
		}
		m.rebuildViewportContent()
		return m, nil

	case jobsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
		} else {
			m.errMsg = ""
			m.jobs = msg.jobs
			m.jobCursor = clampCursor(m.jobCursor, len(m.jobs))
		}
		m.rebuildViewportContent()
		return m, nil

	case collectionsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
		} else {
			m.errMsg = ""
			m.collections = msg.collections
		}
		m.rebuildViewportContent()
		return m, nil

	case reposLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
		} else {
			m.errMsg = ""
			m.repos = msg.repos
		}
		m.rebuildViewportContent()
		return m, nil

	case graphLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = errorText(msg.err)
		} else {
			m.errMsg = ""
			m.graph = msg.graph
		}
		m.rebuildViewportContent()
		return m, nil

	case debounceMsg:
		// A newer edit supersedes this timer.
		if msg.seq != m.searchSeq {
			return m, nil
		}
		return m, m.runSearch(msg.seq, m.currentQuery())

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case streamOpenedMsg:
		return m.handleStreamOpened(msg)

	case streamEventMsg:
		return m.handleStreamEvent(msg)

	case importDoneMsg:
		m.importing = false
		if msg.err != nil {
			return m, m.setFlash("import failed: " + errorText(msg.err))
		}
		m.importInput.Reset()
		m.importLines = []string{fmt.Sprintf("queued job %s (%s)", msg.resp.JobID, msg.resp.Status)}
		m.rebuildViewportContent()
		return m, tea.Batch(
			m.setFlash("import queued: job "+msg.resp.JobID),
			m.startTracking(msg.resp.JobID),
		)

	case folderImportDoneMsg:
		m.importing = false
		if msg.err != nil {
			return m, m.setFlash("folder import failed: " + errorText(msg.err))
		}
		m.importInput.Reset()
		m.importLines = folderResultLines(msg.resp)
		m.rebuildViewportContent()
		queued := 0
		for _, j := range msg.resp.Jobs {
			if j.Queued() {
				queued++
			}
		}
		return m, m.setFlash(fmt.Sprintf("queued %d of %d documents", queued, msg.resp.TotalDocuments))

	case documentDeletedMsg:
		if msg.err != nil {
			return m, m.setFlash("delete failed: " + errorText(msg.err))
		}
		// Cached results may still reference the deleted document.
		m.searcher.Invalidate()
		m.loading = true
		return m, tea.Batch(m.setFlash("document deleted"), m.loadDocuments())

	case reviewSavedMsg:
		m.savingReview = false
		if msg.err != nil {
			return m, m.setFlash("save failed: " + errorText(msg.err))
		}
		if msg.resp.VaultPath != "" {
			return m, m.setFlash("review saved to " + msg.resp.VaultPath)
		}
		return m, m.setFlash(msg.resp.Message)

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case pollUpdateMsg:
		return m.handlePollUpdate(msg)
	}

	return m, nil
}

// busy reports whether any spinner-worthy activity is running.
func (m *Model) busy() bool {
	if m.loading || m.searching || m.importing {
		return true
	}
	if m.answer != nil && !terminalState(m.answer.session.State()) {
		return true
	}
	if m.review != nil && !terminalState(m.review.session.State()) {
		return true
	}
	return m.tracked != nil && !backend.TerminalStatus(m.tracked.Status)
}

func (m *Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	// Stale response: the query changed while this one was in flight.
	if msg.seq != m.searchSeq {
		return m, nil
	}
	m.searching = false

	if msg.err != nil {
		m.results = nil
		m.totalResults = 0
		m.fromCache = false
		m.searchErr = errorText(msg.err)
		m.closeAnswer()
		m.rebuildViewportContent()
		return m, nil
	}

	m.results = msg.resp.Results
	m.totalResults = msg.resp.TotalResults
	m.fromCache = msg.cached
	m.searchErr = ""

	// A fresh result set supersedes any running answer stream. The
	// answer is only generated when there is context to ground it on.
	m.closeAnswer()
	var cmd tea.Cmd
	if len(m.results) > 0 && m.cfg.GenerateAnswer {
		cmd = m.openAnswer(msg.query)
	}
	m.rebuildViewportContent()
	return m, cmd
}

func (m *Model) handleStreamOpened(msg streamOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.setFlash(errorText(msg.err))
	}

	s := &stream{kind: msg.kind, session: msg.session}
	switch msg.kind {
	case answerStream:
		if m.answer != nil {
			m.answer.session.Close()
		}
		m.answer = s
		m.answerSources = nil
	case reviewStream:
		if m.review != nil {
			m.review.session.Close()
		}
		m.review = s
	}
	m.rebuildViewportContent()
	return m, listenStream(msg.kind, msg.session)
}

func (m *Model) handleStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	s := m.activeStream(msg.kind)
	if s == nil || s.session != msg.session {
		return m, nil // Event for a superseded stream
	}

	if !msg.ok {
		// Channel closed: the reader exited. Final state is already on
		// the session; one last rebuild picks it up.
		m.rebuildViewportContent()
		return m, nil
	}

	ev := msg.event
	switch {
	case ev.Err != nil:
		// The buffer keeps any partial content; the view renders it
		// alongside the error message.
		s.info = ""
	case ev.Done:
		s.info = ""
	case ev.Info != "":
		s.info = ev.Info
	case ev.Sources != nil:
		if msg.kind == answerStream {
			m.answerSources = ev.Sources
		}
	}

	m.rebuildViewportContent()
	m.viewport.GotoBottom()
	return m, listenStream(msg.kind, msg.session)
}

func (m *Model) handlePollUpdate(msg pollUpdateMsg) (tea.Model, tea.Cmd) {
	// Identity comparison, like stream events compare session pointers:
	// a superseded poller for the same subject must not be able to
	// interfere with the live one.
	if m.poller == nil || msg.poller != m.poller {
		return m, nil // Update from a superseded poller
	}
	if !msg.ok {
		m.poller = nil
		return m, nil
	}

	u := msg.update
	if u.Err != nil {
		// A failed poll is not a failed job; the next poll is already
		// scheduled.
		m.logger.Debug("job poll failed", "subject", msg.poller.SubjectID(), "error", u.Err)
		return m, listenPoll(m.poller)
	}

	m.tracked = u.Value
	m.rebuildViewportContent()

	if !u.Terminal {
		return m, listenPoll(m.poller)
	}

	m.poller = nil
	cmds := []tea.Cmd{m.loadJobs()}
	switch {
	case u.Completed:
		// New documents are searchable now; cached result lists are not.
		m.searcher.Invalidate()
		cmds = append(cmds,
			m.setFlash(fmt.Sprintf("import completed: job %s (%d docs)", u.Value.JobID, u.Value.ProcessedDocs)),
			m.loadDocuments(),
		)
	case u.Value.Status == backend.StatusFailed:
		text := u.Value.ErrorMessage
		if text == "" {
			text = "job " + u.Value.JobID
		}
		cmds = append(cmds, m.setFlash("import failed: "+text))
	}
	return m, tea.Batch(cmds...)
}

// switchTab changes the active view. Leaving a view tears its stream
// down; the job poller survives switches so completion is never missed.
func (m *Model) switchTab(tab Tab) tea.Cmd {
	if tab == m.tab {
		return nil
	}

	switch m.tab {
	case TabSearch:
		m.closeAnswer()
	case TabReview:
		m.closeReview()
	}

	m.tab = tab
	m.errMsg = ""
	m.viewport.GotoTop()

	var cmds []tea.Cmd
	m.searchInput.Blur()
	m.importInput.Blur()
	if input := m.activeInput(); input != nil {
		cmds = append(cmds, input.Focus())
	}

	if load := m.loadTab(tab); load != nil {
		m.loading = true
		cmds = append(cmds, load)
	}

	m.rebuildViewportContent()
	return tea.Batch(cmds...)
}

// currentQuery assembles the search query from the input and filters.
func (m *Model) currentQuery() backend.SearchQuery {
	return backend.SearchQuery{
		Text:    strings.TrimSpace(m.searchInput.Value()),
		Limit:   m.cfg.SearchLimit,
		DocType: m.docType,
	}
}

func (m *Model) handleImportSubmit() tea.Cmd {
	if m.importing {
		return nil
	}
	url := strings.TrimSpace(m.importInput.Value())
	if url == "" {
		return m.setFlash("enter a URL first")
	}

	m.importing = true
	m.importLines = nil
	m.rebuildViewportContent()
	if m.folderMode {
		return m.submitFolderImport(url, m.recursive)
	}
	return m.submitImport(url, m.recursive)
}

// startSelectedReview opens a review stream for the highlighted document.
func (m *Model) startSelectedReview() tea.Cmd {
	if m.reviewCursor >= len(m.docs) {
		return nil
	}
	doc := m.docs[m.reviewCursor]
	m.closeReview()
	m.reviewDoc = &doc
	m.rebuildViewportContent()
	return m.openReview(doc.ID)
}

// saveCompletedReview persists the finished review to the note vault.
func (m *Model) saveCompletedReview() tea.Cmd {
	if m.review == nil || m.reviewDoc == nil || m.savingReview {
		return nil
	}
	if m.review.session.State() != sse.StateCompleted {
		return m.setFlash("wait for the review to finish first")
	}
	if !m.vaultEnabled {
		return m.setFlash("note vault is disabled on the backend")
	}

	m.savingReview = true
	return m.saveReview(backend.SaveReviewRequest{
		DocumentID:      m.reviewDoc.ID,
		DocumentTitle:   m.reviewDoc.Title,
		ReviewType:      backend.ReviewComprehensive,
		ReviewedContent: m.review.session.Buffer(),
		Model:           m.cfg.ReviewModel,
	})
}

func (m *Model) deleteSelectedDocument() tea.Cmd {
	if m.docCursor >= len(m.docs) {
		return nil
	}
	return m.deleteDocument(m.docs[m.docCursor].ID)
}

// cleanup tears everything down and quits.
func (m *Model) cleanup() tea.Cmd {
	m.closeAnswer()
	m.closeReview()
	m.stopTracking()
	m.ctxCancel()
	return tea.Quit
}

// folderResultLines renders the per-document outcome of a folder import.
// One failed document never hides the queued ones.
func folderResultLines(resp *backend.FolderImportResponse) []string {
	lines := make([]string, 0, len(resp.Jobs)+1)
	lines = append(lines, resp.Message)
	for _, j := range resp.Jobs {
		if j.Queued() {
			lines = append(lines, fmt.Sprintf("  ✓ %s (job %s)", j.DocumentName, j.JobID))
		} else {
			lines = append(lines, fmt.Sprintf("  ✗ %s: %s", j.DocumentName, j.Error))
		}
	}
	return lines
}

// errorText maps an error to its user-facing message: backend rejections
// keep the server's wording, everything transport-level gets one generic
// line.
func errorText(err error) string {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, context.Canceled):
		return "(canceled)"
	default:
		return transportErrMsg
	}
}

func clampCursor(cursor, size int) int {
	if size == 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	return cursor
}
