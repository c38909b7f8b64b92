package tui

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/backend/sse"
	"github.com/docdash/docdash/internal/history"
	"github.com/docdash/docdash/internal/search"
)

// streamKind tells answer and review streams apart. Each view owns at
// most one live stream; events for a superseded stream are dropped by
// comparing the session pointer, so kinds never need sequence numbers.
type streamKind int

const (
	answerStream streamKind = iota
	reviewStream
)

// stream pairs an open session with its per-stream display state. Content
// and connection state live on the session itself (Buffer, State,
// ErrorMessage); only the transient info line is kept here.
type stream struct {
	kind    streamKind
	session *sse.Session
	info    string // Last status/info message from the backend
}

// streamOpenedMsg reports the result of opening a stream.
type streamOpenedMsg struct {
	kind    streamKind
	session *sse.Session
	err     error
}

// streamEventMsg delivers one event from a stream's channel. ok is false
// once the channel is closed and the reader has exited.
type streamEventMsg struct {
	kind    streamKind
	session *sse.Session
	event   sse.Event
	ok      bool
}

// openAnswer starts the AI answer stream for a query. Called only after
// a search returned at least one result.
func (m *Model) openAnswer(q backend.SearchQuery) tea.Cmd {
	ctx, searcher := m.ctx, m.searcher
	return func() tea.Msg {
		session, err := searcher.StreamAnswer(ctx, q)
		return streamOpenedMsg{kind: answerStream, session: session, err: err}
	}
}

// openReview starts a review stream for a document.
func (m *Model) openReview(documentID string) tea.Cmd {
	ctx, client := m.ctx, m.client
	opts := backend.StreamReviewOptions{Model: m.cfg.ReviewModel}
	return func() tea.Msg {
		session, err := client.StreamReview(ctx, documentID, opts)
		return streamOpenedMsg{kind: reviewStream, session: session, err: err}
	}
}

// listenStream waits for the next event on a session. The Update loop
// re-arms it after every delivered event, so exactly one listener exists
// per live stream.
func listenStream(kind streamKind, session *sse.Session) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-session.Events()
		return streamEventMsg{kind: kind, session: session, event: ev, ok: ok}
	}
}

// terminalState reports whether a stream state is completed or error.
func terminalState(s sse.State) bool {
	return s == sse.StateCompleted || s == sse.StateError
}

// activeStream returns the stream a message's kind refers to.
func (m *Model) activeStream(kind streamKind) *stream {
	if kind == answerStream {
		return m.answer
	}
	return m.review
}

// runSearch dispatches one debounced query against the search client.
type searchDoneMsg struct {
	seq    int
	query  backend.SearchQuery
	resp   *backend.SearchResponse
	cached bool
	err    error
}

func (m *Model) runSearch(seq int, q backend.SearchQuery) tea.Cmd {
	ctx, searcher, recents := m.ctx, m.searcher, m.recents
	return func() tea.Msg {
		resp, cached, err := searcher.Results(ctx, q)
		if err == nil && !cached && recents != nil {
			// History recording is best effort; a locked file never
			// blocks a search.
			_ = recents.Append(history.KindSearch, q.Text)
		}
		return searchDoneMsg{seq: seq, query: q, resp: resp, cached: cached, err: err}
	}
}

// debounceMsg fires when the input has been quiet long enough.
type debounceMsg struct {
	seq int
}

// debounce schedules a query dispatch; a newer seq invalidates it.
func debounce(seq int) tea.Cmd {
	return tea.Tick(search.DebounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{seq: seq}
	})
}
