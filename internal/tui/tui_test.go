package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/config"
	"github.com/docdash/docdash/internal/poll"
	"github.com/docdash/docdash/internal/search"
)

// newTestModel builds a Model against a dummy backend URL. Nothing is
// dispatched unless a test returns and runs a command.
func newTestModel(t *testing.T) *Model {
	t.Helper()

	client, err := backend.New(backend.Options{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		BackendURL:     "http://127.0.0.1:1",
		SearchLimit:    10,
		GenerateAnswer: true,
	}
	m, err := New(context.Background(), Options{
		Client: client,
		Search: search.New(client, nil),
		Config: cfg,
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestNew_RequiresDependencies(t *testing.T) {
	client, err := backend.New(backend.Options{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}
	searcher := search.New(client, nil)
	cfg := &config.Config{}

	tests := []struct {
		name string
		opts Options
	}{
		{"missing client", Options{Search: searcher, Config: cfg}},
		{"missing search", Options{Client: client, Config: cfg}},
		{"missing config", Options{Client: client, Search: searcher}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(context.Background(), tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}

	//lint:ignore SA1012 intentionally testing nil context handling
	if _, err := New(nil, Options{Client: client, Search: searcher, Config: cfg}); err == nil { //nolint:staticcheck
		t.Error("expected an error for nil context")
	}
}

func TestModel_Init(t *testing.T) {
	m := newTestModel(t)
	if cmd := m.Init(); cmd == nil {
		t.Error("Init should return startup commands")
	}
}

func TestTab_String(t *testing.T) {
	tests := []struct {
		tab  Tab
		want string
	}{
		{TabSearch, "Search"},
		{TabDocuments, "Documents"},
		{TabJobs, "Jobs"},
		{TabImport, "Import"},
		{TabReview, "Review"},
		{TabCollections, "Collections"},
		{TabRepos, "Repos"},
		{TabGraph, "Graph"},
		{Tab(42), "?"},
	}
	for _, tt := range tests {
		if got := tt.tab.String(); got != tt.want {
			t.Errorf("Tab(%d).String() = %q, want %q", tt.tab, got, tt.want)
		}
	}
}

func TestHandleQueryChange_ShortQueryClears(t *testing.T) {
	m := newTestModel(t)
	m.results = []backend.SearchResult{{DocumentID: "doc-1"}}
	m.totalResults = 1
	m.searchErr = "stale error"

	m.searchInput.SetValue("ab")
	cmd := m.handleQueryChange()

	if cmd != nil {
		t.Error("short query must not schedule a dispatch")
	}
	if len(m.results) != 0 || m.totalResults != 0 || m.searchErr != "" {
		t.Error("short query must clear previous results immediately")
	}
	if m.searching {
		t.Error("short query must not mark the model searching")
	}
}

func TestHandleQueryChange_SchedulesDebounce(t *testing.T) {
	m := newTestModel(t)

	m.searchInput.SetValue("auth")
	seqBefore := m.searchSeq
	cmd := m.handleQueryChange()

	if cmd == nil {
		t.Fatal("expected a debounce command")
	}
	if m.searchSeq != seqBefore+1 {
		t.Errorf("searchSeq = %d, want %d", m.searchSeq, seqBefore+1)
	}
	if !m.searching {
		t.Error("a pending query should mark the model searching")
	}
}

func TestDebounceMsg_StaleSeqIgnored(t *testing.T) {
	m := newTestModel(t)
	m.searchInput.SetValue("auth design")
	m.searchSeq = 5

	_, cmd := m.Update(debounceMsg{seq: 3})
	if cmd != nil {
		t.Error("a stale debounce timer must not dispatch")
	}
}

func TestSearchDone_StaleSeqIgnored(t *testing.T) {
	m := newTestModel(t)
	m.searchSeq = 7
	m.searching = true

	resp := &backend.SearchResponse{
		Results:      []backend.SearchResult{{DocumentID: "doc-1"}},
		TotalResults: 1,
	}
	_, _ = m.Update(searchDoneMsg{seq: 6, resp: resp})

	if len(m.results) != 0 {
		t.Error("a stale response must not replace current results")
	}
	if !m.searching {
		t.Error("a stale response must not clear the in-flight flag")
	}
}

func TestSearchDone_OpensAnswerOnlyWithResults(t *testing.T) {
	m := newTestModel(t)
	m.searchSeq = 1

	empty := &backend.SearchResponse{Results: nil, TotalResults: 0}
	_, cmd := m.Update(searchDoneMsg{seq: 1, resp: empty})
	if cmd != nil {
		t.Error("no answer stream without results to ground it on")
	}

	m.searchSeq = 2
	found := &backend.SearchResponse{
		Results:      []backend.SearchResult{{DocumentID: "doc-1", DocumentTitle: "PRD"}},
		TotalResults: 1,
	}
	_, cmd = m.Update(searchDoneMsg{seq: 2, resp: found, query: backend.SearchQuery{Text: "auth"}})
	if cmd == nil {
		t.Error("expected an answer stream command when results exist")
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "backend detail verbatim",
			err:  &backend.APIError{StatusCode: 422, Detail: "Invalid Google Docs URL format"},
			want: "Invalid Google Docs URL format",
		},
		{
			name: "canceled",
			err:  context.Canceled,
			want: "(canceled)",
		},
		{
			name: "transport failure is generic",
			err:  errors.New("dial tcp 127.0.0.1:8000: connect: connection refused"),
			want: transportErrMsg,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorText(tt.err); got != tt.want {
				t.Errorf("errorText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFolderResultLines(t *testing.T) {
	resp := &backend.FolderImportResponse{
		Message:        "queued 1 of 2 documents",
		TotalDocuments: 2,
		Jobs: []backend.FolderImportJob{
			{JobID: "job-a", DocumentName: "Spec A"},
			{DocumentName: "Locked", Error: "permission denied"},
		},
	}

	lines := folderResultLines(resp)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "queued 1 of 2 documents" {
		t.Errorf("summary line = %q", lines[0])
	}
	if want := "  ✓ Spec A (job job-a)"; lines[1] != want {
		t.Errorf("queued line = %q, want %q", lines[1], want)
	}
	if want := "  ✗ Locked: permission denied"; lines[2] != want {
		t.Errorf("failed line = %q, want %q", lines[2], want)
	}
}

func TestClampCursor(t *testing.T) {
	tests := []struct {
		cursor, size, want int
	}{
		{0, 0, 0},
		{3, 0, 0},
		{2, 5, 2},
		{5, 5, 4},
		{9, 3, 2},
	}
	for _, tt := range tests {
		if got := clampCursor(tt.cursor, tt.size); got != tt.want {
			t.Errorf("clampCursor(%d, %d) = %d, want %d", tt.cursor, tt.size, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	got := truncate("abcdefghij", 5)
	if len([]rune(got)) != 5 {
		t.Errorf("truncate length = %d runes, want 5", len([]rune(got)))
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("abc"); got != "abc" {
		t.Errorf("shortID(abc) = %q", got)
	}
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Errorf("shortID = %q, want first 8 chars", got)
	}
}

func TestPollUpdate_SupersededPollerIgnored(t *testing.T) {
	m := newTestModel(t)

	_ = m.startTracking("j1")
	superseded := m.poller
	// Re-tracking the same job replaces the poller but keeps the subject.
	_ = m.startTracking("j1")
	live := m.poller
	t.Cleanup(m.stopTracking)

	if superseded == live {
		t.Fatal("re-tracking should create a fresh poller")
	}

	// The old poller's channel closure must not clear tracking for the
	// live poller of the same subject.
	_, _ = m.Update(pollUpdateMsg{poller: superseded, ok: false})
	if m.poller != live {
		t.Error("superseded poller's closure cleared the live poller")
	}

	_, _ = m.Update(pollUpdateMsg{poller: superseded, update: poll.Update[*backend.ImportJob]{
		Value: &backend.ImportJob{JobID: "j1", Status: backend.StatusCompleted},
	}, ok: true})
	if m.tracked != nil && m.tracked.Status == backend.StatusCompleted {
		t.Error("superseded poller's update reached the tracked job")
	}
}

func TestSwitchTab_ClosesSearchStream(t *testing.T) {
	m := newTestModel(t)
	m.tab = TabSearch

	_ = m.switchTab(TabDocuments)

	if m.tab != TabDocuments {
		t.Errorf("tab = %v, want Documents", m.tab)
	}
	if m.answer != nil {
		t.Error("leaving the search view must close the answer stream")
	}
}
