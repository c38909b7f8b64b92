package tui

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/history"
	"github.com/docdash/docdash/internal/poll"
)

// flashDuration is how long a status flash stays visible.
const flashDuration = 4 * time.Second

// Messages for loaded data. Each carries its error so the Update loop
// owns all rendering decisions.
type (
	remoteConfigMsg struct {
		remote *config.Remote
		err    error
	}

	filtersLoadedMsg struct {
		opts *backend.FilterOptions
		err  error
	}

	documentsLoadedMsg struct {
		docs []backend.Document
		err  error
	}

	jobsLoadedMsg struct {
		jobs []backend.ImportJob
		err  error
	}

	collectionsLoadedMsg struct {
		collections []backend.Collection
		err         error
	}

	reposLoadedMsg struct {
		repos []backend.Repository
		err   error
	}

	graphLoadedMsg struct {
		graph *backend.Graph
		err   error
	}

	importDoneMsg struct {
		resp *backend.ImportResponse
		err  error
	}

	folderImportDoneMsg struct {
		resp *backend.FolderImportResponse
		err  error
	}

	documentDeletedMsg struct {
		id  string
		err error
	}

	reviewSavedMsg struct {
		resp *backend.SaveReviewResponse
		err  error
	}

	flashClearMsg struct {
		seq int
	}

	// pollUpdateMsg carries the poller itself so the Update loop can
	// compare identity. Subject strings are not enough: re-tracking the
	// same job creates a new poller with the same subject, and the old
	// poller's closure message must not be mistaken for the new one's.
	pollUpdateMsg struct {
		poller *poll.Poller[*backend.ImportJob]
		update poll.Update[*backend.ImportJob]
		ok     bool
	}
)

// fetchRemoteConfig pulls server-side settings at startup. Failure is
// swallowed by the Update loop: the dashboard runs on local defaults.
func (m *Model) fetchRemoteConfig() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		remote, err := client.AppConfig(ctx)
		return remoteConfigMsg{remote: remote, err: err}
	}
}

// loadFilters fetches the available search filter values.
func (m *Model) loadFilters() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		opts, err := client.SearchFilters(ctx)
		return filtersLoadedMsg{opts: opts, err: err}
	}
}

func (m *Model) loadDocuments() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		docs, err := client.ListDocuments(ctx, documentPageSize, 0)
		return documentsLoadedMsg{docs: docs, err: err}
	}
}

func (m *Model) loadJobs() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		jobs, err := client.ListImportJobs(ctx, jobPageSize)
		return jobsLoadedMsg{jobs: jobs, err: err}
	}
}

func (m *Model) loadCollections() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		collections, err := client.ListCollections(ctx)
		return collectionsLoadedMsg{collections: collections, err: err}
	}
}

func (m *Model) loadRepos() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		repos, err := client.ListRepositories(ctx)
		return reposLoadedMsg{repos: repos, err: err}
	}
}

func (m *Model) loadGraph() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		graph, err := client.KnowledgeGraph(ctx, backend.GraphOptions{})
		return graphLoadedMsg{graph: graph, err: err}
	}
}

// loadTab returns the loader for a tab's data, or nil when the tab has
// nothing to fetch up front.
func (m *Model) loadTab(tab Tab) tea.Cmd {
	switch tab {
	case TabDocuments, TabReview:
		return m.loadDocuments()
	case TabJobs:
		return m.loadJobs()
	case TabCollections:
		return m.loadCollections()
	case TabRepos:
		return m.loadRepos()
	case TabGraph:
		return m.loadGraph()
	default:
		return nil
	}
}

// submitImport queues a single Google Doc import.
func (m *Model) submitImport(url string, recursive bool) tea.Cmd {
	ctx, client, recents := m.ctx, m.client, m.recents
	return func() tea.Msg {
		resp, err := client.ImportGoogleDoc(ctx, url, recursive)
		if err == nil && recents != nil {
			_ = recents.Append(history.KindImport, url)
		}
		return importDoneMsg{resp: resp, err: err}
	}
}

// submitFolderImport queues every document in a Drive folder.
func (m *Model) submitFolderImport(url string, includeSubfolders bool) tea.Cmd {
	ctx, client, recents := m.ctx, m.client, m.recents
	return func() tea.Msg {
		resp, err := client.ImportGoogleFolder(ctx, url, includeSubfolders)
		if err == nil && recents != nil {
			_ = recents.Append(history.KindImport, url)
		}
		return folderImportDoneMsg{resp: resp, err: err}
	}
}

func (m *Model) deleteDocument(id string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		err := client.DeleteDocument(ctx, id)
		return documentDeletedMsg{id: id, err: err}
	}
}

// saveReview persists a completed review to the note vault.
func (m *Model) saveReview(req backend.SaveReviewRequest) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		resp, err := client.SaveReview(ctx, req)
		return reviewSavedMsg{resp: resp, err: err}
	}
}

// setFlash shows a transient status message and schedules its removal.
func (m *Model) setFlash(text string) tea.Cmd {
	m.flash = text
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{seq: seq}
	})
}

// startTracking begins polling a job until it reaches a terminal status.
// Any previously tracked subject is canceled first, so at most one poller
// (and one pending timer) exists at a time.
func (m *Model) startTracking(jobID string) tea.Cmd {
	m.stopTracking()

	client := m.client
	p := poll.New(jobID,
		func(ctx context.Context) (*backend.ImportJob, error) {
			return client.ImportJobStatus(ctx, jobID)
		},
		func(job *backend.ImportJob) string { return job.Status },
		poll.Options{Logger: m.logger},
	)
	m.poller = p
	p.Start(m.ctx)
	return listenPoll(p)
}

// listenPoll waits for the next poller update. Re-armed by the Update
// loop after each delivery; ok is false once polling has stopped.
func listenPoll(p *poll.Poller[*backend.ImportJob]) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-p.Updates()
		return pollUpdateMsg{poller: p, update: update, ok: ok}
	}
}
