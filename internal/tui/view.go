package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/docdash/docdash/internal/backend/sse"
)

// View implements tea.Model.
// Uses AltScreen with a viewport holding the active tab's content.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	_, _ = m.viewBuf.WriteString(m.renderTabBar())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.viewport.View())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	if input := m.activeInput(); input != nil {
		_, _ = m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
		_, _ = m.viewBuf.WriteString(input.View())
	} else {
		_, _ = m.viewBuf.WriteString(m.styles.Muted.Render("↑/↓ select · enter to act · r to refresh"))
	}
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderSeparator())
	_, _ = m.viewBuf.WriteString("\n")

	_, _ = m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

func (m *Model) renderTabBar() string {
	parts := make([]string, 0, int(tabCount)+1)
	for t := TabSearch; t < tabCount; t++ {
		label := fmt.Sprintf("%d:%s", t+1, t)
		if t == m.tab {
			parts = append(parts, m.styles.TabActive.Render(label))
		} else {
			parts = append(parts, m.styles.TabIdle.Render(label))
		}
	}
	bar := strings.Join(parts, "  ")
	if m.projectName != "" {
		bar += "  " + m.styles.Muted.Render("· "+m.projectName)
	}
	return bar
}

func (m *Model) renderSeparator() string {
	width := max(m.width, 10)
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar shows, in priority order: flash, error, activity, help.
func (m *Model) renderStatusBar() string {
	switch {
	case m.flash != "":
		return m.styles.Flash.Render(m.flash)
	case m.errMsg != "":
		return m.styles.Error.Render(m.errMsg)
	}

	var extras []string
	if m.fromCache && m.tab == TabSearch {
		extras = append(extras, "cached")
	}
	if m.tracked != nil {
		extras = append(extras, fmt.Sprintf("job %s: %s %.0f%%",
			shortID(m.tracked.JobID), m.tracked.Status, m.tracked.ProgressPercentage))
	}

	bar := m.help.View(m.keys)
	if len(extras) > 0 {
		bar = m.styles.StatusBar.Render(strings.Join(extras, " · ")) + "  " + bar
	}
	return bar
}

// rebuildViewportContent reconstructs the viewport from the active tab's
// state. Called whenever that state changes.
func (m *Model) rebuildViewportContent() {
	var b strings.Builder

	switch m.tab {
	case TabSearch:
		m.renderSearch(&b)
	case TabDocuments:
		m.renderDocuments(&b)
	case TabJobs:
		m.renderJobs(&b)
	case TabImport:
		m.renderImport(&b)
	case TabReview:
		m.renderReview(&b)
	case TabCollections:
		m.renderCollections(&b)
	case TabRepos:
		m.renderRepos(&b)
	case TabGraph:
		m.renderGraph(&b)
	}

	m.viewport.SetContent(b.String())
}

func (m *Model) renderSearch(b *strings.Builder) {
	query := strings.TrimSpace(m.searchInput.Value())

	if query == "" && len(m.results) == 0 {
		_, _ = b.WriteString(m.styles.RenderBanner())
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.styles.RenderWelcomeTips())
		return
	}

	if m.docType != "" {
		_, _ = b.WriteString(m.styles.Muted.Render("filter: doc type = " + m.docType))
		_, _ = b.WriteString("\n\n")
	}

	switch {
	case m.searching:
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" searching..."))
		_, _ = b.WriteString("\n")
		return
	case m.searchErr != "":
		_, _ = b.WriteString(m.styles.Error.Render(m.searchErr))
		_, _ = b.WriteString("\n")
		return
	case len(m.results) == 0:
		_, _ = b.WriteString(m.styles.Info.Render("no matches for \"" + query + "\""))
		_, _ = b.WriteString("\n")
		return
	}

	_, _ = b.WriteString(m.styles.Title.Render(fmt.Sprintf("%d results", m.totalResults)))
	_, _ = b.WriteString("\n\n")

	for i, r := range m.results {
		_, _ = b.WriteString(m.styles.Selected.Render(fmt.Sprintf("%d. %s", i+1, r.DocumentTitle)))
		_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  (%.2f)", r.SimilarityScore)))
		_, _ = b.WriteString("\n")
		if r.FilePath != "" {
			_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("   %s:%d-%d", r.FilePath, r.StartLine, r.EndLine)))
			_, _ = b.WriteString("\n")
		} else if r.VaultPath != "" {
			_, _ = b.WriteString(m.styles.Muted.Render("   " + r.VaultPath))
			_, _ = b.WriteString("\n")
		}
		_, _ = b.WriteString("   " + truncate(strings.ReplaceAll(r.ChunkText, "\n", " "), 200))
		_, _ = b.WriteString("\n\n")
	}

	m.renderAnswer(b)
}

// renderAnswer shows the AI answer section under the results. Streaming
// text is raw; only the completed answer goes through the Markdown
// renderer. Partial content survives an error.
func (m *Model) renderAnswer(b *strings.Builder) {
	if m.answer == nil {
		return
	}
	session := m.answer.session

	_, _ = b.WriteString(m.styles.Title.Render("AI Answer"))
	_, _ = b.WriteString("\n")

	switch session.State() {
	case sse.StateConnecting:
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" connecting..."))
		_, _ = b.WriteString("\n")
	case sse.StateStreaming:
		if m.answer.info != "" {
			_, _ = b.WriteString(m.styles.Info.Render(m.answer.info))
			_, _ = b.WriteString("\n")
		}
		_, _ = b.WriteString(session.Buffer())
		_, _ = b.WriteString("\n")
	case sse.StateCompleted:
		_, _ = b.WriteString(m.markdown.Render(session.Buffer()))
		_, _ = b.WriteString("\n")
	case sse.StateError:
		_, _ = b.WriteString(m.styles.Error.Render(session.ErrorMessage()))
		_, _ = b.WriteString("\n")
		if partial := session.Buffer(); partial != "" {
			_, _ = b.WriteString(partial)
			_, _ = b.WriteString("\n")
		}
	}

	if len(m.answerSources) > 0 {
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.styles.Muted.Render("Sources:"))
		_, _ = b.WriteString("\n")
		for _, src := range m.answerSources {
			_, _ = b.WriteString(m.styles.Muted.Render("  • " + src.DocumentTitle))
			_, _ = b.WriteString("\n")
		}
	}
}

func (m *Model) renderDocuments(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("Documents"))
	_, _ = b.WriteString("\n\n")

	if m.loading {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" loading..."))
		_, _ = b.WriteString("\n")
		return
	}
	if len(m.docs) == 0 {
		_, _ = b.WriteString(m.styles.Info.Render("no documents yet; import one from the Import view"))
		_, _ = b.WriteString("\n")
		return
	}

	for i, doc := range m.docs {
		cursor := "  "
		style := m.styles.StatusBar
		if i == m.docCursor {
			cursor = "> "
			style = m.styles.Selected
		}
		_, _ = b.WriteString(style.Render(cursor + doc.Title))
		_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  [%s] %s", doc.DocType, doc.CreatedAt)))
		_, _ = b.WriteString("\n")
	}

	if m.showDetail && m.docCursor < len(m.docs) {
		doc := m.docs[m.docCursor]
		_, _ = b.WriteString("\n")
		_, _ = b.WriteString(m.renderSeparator())
		_, _ = b.WriteString("\n")
		if doc.Summary != "" {
			_, _ = b.WriteString(m.markdown.Render(doc.Summary))
			_, _ = b.WriteString("\n")
		}
		if len(doc.Keywords) > 0 {
			_, _ = b.WriteString(m.styles.Muted.Render("Keywords: " + strings.Join(doc.Keywords, ", ")))
			_, _ = b.WriteString("\n")
		}
		if doc.SourceURL != "" {
			_, _ = b.WriteString(m.styles.Muted.Render("Source: " + doc.SourceURL))
			_, _ = b.WriteString("\n")
		}
	}
}

func (m *Model) renderJobs(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("Import Jobs"))
	_, _ = b.WriteString("\n\n")

	if m.tracked != nil {
		_, _ = b.WriteString(m.styles.Selected.Render("Tracking " + shortID(m.tracked.JobID)))
		_, _ = b.WriteString(fmt.Sprintf("  %s  %.0f%%  (%d/%d docs, %d failed)\n\n",
			m.styles.StatusBadge(m.tracked.Status),
			m.tracked.ProgressPercentage,
			m.tracked.ProcessedDocs, m.tracked.TotalDocs, m.tracked.FailedDocs))
	}

	if m.loading {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" loading..."))
		_, _ = b.WriteString("\n")
		return
	}
	if len(m.jobs) == 0 {
		_, _ = b.WriteString(m.styles.Info.Render("no import jobs"))
		_, _ = b.WriteString("\n")
		return
	}

	for i, job := range m.jobs {
		cursor := "  "
		if i == m.jobCursor {
			cursor = "> "
		}
		_, _ = b.WriteString(cursor + shortID(job.JobID))
		_, _ = b.WriteString("  " + m.styles.StatusBadge(job.Status))
		_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %.0f%%  %s", job.ProgressPercentage, job.StartedAt)))
		if job.ErrorMessage != "" {
			_, _ = b.WriteString("  " + m.styles.Error.Render(truncate(job.ErrorMessage, 60)))
		}
		_, _ = b.WriteString("\n")
	}
}

func (m *Model) renderImport(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("Import from Google Drive"))
	_, _ = b.WriteString("\n\n")

	mode := "single document"
	if m.folderMode {
		mode = "folder"
	}
	onOff := "off"
	if m.recursive {
		onOff = "on"
	}
	_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("mode: %s (ctrl+o)   recursive: %s (ctrl+r)", mode, onOff)))
	_, _ = b.WriteString("\n\n")

	if m.importing {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" submitting..."))
		_, _ = b.WriteString("\n")
		return
	}

	for _, line := range m.importLines {
		_, _ = b.WriteString(line)
		_, _ = b.WriteString("\n")
	}
}

func (m *Model) renderReview(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("AI Review"))
	_, _ = b.WriteString("\n\n")

	if m.reviewDoc == nil {
		if len(m.docs) == 0 {
			_, _ = b.WriteString(m.styles.Info.Render("no documents to review"))
			_, _ = b.WriteString("\n")
			return
		}
		_, _ = b.WriteString(m.styles.Muted.Render("pick a document and press enter:"))
		_, _ = b.WriteString("\n\n")
		for i, doc := range m.docs {
			cursor := "  "
			style := m.styles.StatusBar
			if i == m.reviewCursor {
				cursor = "> "
				style = m.styles.Selected
			}
			_, _ = b.WriteString(style.Render(cursor + doc.Title))
			_, _ = b.WriteString("\n")
		}
		return
	}

	_, _ = b.WriteString(m.styles.Selected.Render("Reviewing: " + m.reviewDoc.Title))
	_, _ = b.WriteString("\n\n")

	if m.review == nil {
		return
	}
	session := m.review.session

	switch session.State() {
	case sse.StateConnecting:
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" connecting..."))
		_, _ = b.WriteString("\n")
	case sse.StateStreaming:
		if m.review.info != "" {
			_, _ = b.WriteString(m.styles.Info.Render(m.review.info))
			_, _ = b.WriteString("\n")
		}
		_, _ = b.WriteString(session.Buffer())
		_, _ = b.WriteString("\n")
	case sse.StateCompleted:
		_, _ = b.WriteString(m.markdown.Render(session.Buffer()))
		_, _ = b.WriteString("\n\n")
		if m.vaultEnabled {
			_, _ = b.WriteString(m.styles.Muted.Render("press s to save to the note vault"))
			_, _ = b.WriteString("\n")
		}
	case sse.StateError:
		_, _ = b.WriteString(m.styles.Error.Render(session.ErrorMessage()))
		_, _ = b.WriteString("\n")
		if partial := session.Buffer(); partial != "" {
			_, _ = b.WriteString(partial)
			_, _ = b.WriteString("\n")
		}
	}
}

func (m *Model) renderCollections(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("Collections"))
	_, _ = b.WriteString("\n\n")

	if m.loading {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" loading..."))
		_, _ = b.WriteString("\n")
		return
	}
	if len(m.collections) == 0 {
		_, _ = b.WriteString(m.styles.Info.Render("no collections"))
		_, _ = b.WriteString("\n")
		return
	}

	for _, col := range m.collections {
		_, _ = b.WriteString(m.styles.Selected.Render(col.Icon + " " + col.Name))
		_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %d docs, %d repos", col.DocumentCount, col.RepositoryCount)))
		_, _ = b.WriteString("\n")
		if col.Description != "" {
			_, _ = b.WriteString(m.styles.Muted.Render("   " + truncate(col.Description, 100)))
			_, _ = b.WriteString("\n")
		}
	}
}

func (m *Model) renderRepos(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("Code Repositories"))
	_, _ = b.WriteString("\n\n")

	if m.loading {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" loading..."))
		_, _ = b.WriteString("\n")
		return
	}
	if len(m.repos) == 0 {
		_, _ = b.WriteString(m.styles.Info.Render("no repositories indexed"))
		_, _ = b.WriteString("\n")
		return
	}

	for _, repo := range m.repos {
		_, _ = b.WriteString(m.styles.Selected.Render(repo.Name))
		_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %s · %d files · %d functions · %d LOC",
			repo.PrimaryLanguage, repo.TotalFiles, repo.TotalFunctions, repo.LinesOfCode)))
		_, _ = b.WriteString("\n")
	}
}

func (m *Model) renderGraph(b *strings.Builder) {
	_, _ = b.WriteString(m.styles.Title.Render("Knowledge Graph"))
	_, _ = b.WriteString("\n\n")

	if m.loading {
		_, _ = b.WriteString(m.spinner.View())
		_, _ = b.WriteString(m.styles.Info.Render(" loading..."))
		_, _ = b.WriteString("\n")
		return
	}
	if m.graph == nil {
		_, _ = b.WriteString(m.styles.Info.Render("graph not loaded"))
		_, _ = b.WriteString("\n")
		return
	}

	_, _ = b.WriteString(fmt.Sprintf("%d nodes, %d edges\n\n", len(m.graph.Nodes), len(m.graph.Edges)))

	// Node counts grouped by type, stable order.
	counts := map[string]int{}
	for _, n := range m.graph.Nodes {
		counts[n.Type]++
	}
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		_, _ = b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  %-12s %d", t, counts[t])))
		_, _ = b.WriteString("\n")
	}
}

// truncate shortens s to at most n runes, appending an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// shortID returns the first 8 characters of an id for compact display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
