// Package sse consumes the backend's Server-Sent Event streams.
//
// The backend pushes data-only SSE frames whose payload is a JSON object
// with a "type" discriminator (start, info, status, sources, content,
// done, complete, error). A Session tracks one stream and exposes:
//
//   - an append-only content buffer (arrival order, never truncated)
//   - an explicit connection state: connecting -> streaming -> completed | error
//   - a union event channel, consumed one event at a time
//
// States only move forward; error is terminal. A stream that produces no
// content within the stall ceiling is unilaterally failed, because the
// backend is not trusted to always signal completion. Partial content
// already received stays readable after an error.
package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/docdash/docdash/internal/log"
)

// State is the stream connection state.
type State int

// Connection states. Transitions are forward-only: no state is revisited,
// and both Completed and Error are terminal.
const (
	StateConnecting State = iota
	StateStreaming
	StateCompleted
	StateError
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DefaultStallTimeout is how long a stream may stay silent with an empty
// buffer before the client gives up on it.
const DefaultStallTimeout = 2 * time.Minute

// eventBufferSize bounds the event channel so a slow consumer does not
// block the reader during short render delays.
const eventBufferSize = 100

// Source is one citation attached to a generated answer.
type Source struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	Score         float64 `json:"similarity_score,omitempty"`
}

// Event is a discriminated union for all stream events.
// Exactly one of the fields below is meaningful per event.
type Event struct {
	Text    string   // content chunk (when non-empty)
	Info    string   // status/info message (when non-empty)
	Sources []Source // answer citations (when non-nil)
	Err     error    // terminal error (when non-nil)
	Done    bool     // true when the stream completed successfully
}

// wireEvent is the backend's JSON payload. The answer stream uses "text"
// for content chunks while the review stream uses "content"; both are read.
type wireEvent struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Content string   `json:"content"`
	Message string   `json:"message"`
	Sources []Source `json:"sources"`
}

func (w wireEvent) contentText() string {
	if w.Text != "" {
		return w.Text
	}
	return w.Content
}

// Connection is an open event stream, produced by a DialFunc.
type Connection struct {
	Body io.ReadCloser
}

// DialFunc opens the underlying HTTP stream. It is called once, from the
// session's reader goroutine, so Open returns immediately in the
// connecting state.
type DialFunc func(ctx context.Context) (*Connection, error)

// Config configures a Session.
type Config struct {
	// StallTimeout overrides DefaultStallTimeout (tests use short values).
	StallTimeout time.Duration
	// Logger for stream diagnostics. Nil = nop.
	Logger log.Logger
}

// Session tracks a single event stream.
//
// At most one goroutine (the internal reader) writes to the buffer and
// state; any goroutine may read them through the accessors. Close is
// idempotent and safe to call from timeouts, error paths and teardown
// simultaneously.
type Session struct {
	mu     sync.Mutex
	state  State
	buf    strings.Builder
	errMsg string

	events chan Event
	cancel context.CancelFunc
	closed sync.Once
	logger log.Logger
}

// Open starts consuming a stream. The session is returned immediately in
// the connecting state; dialing and reading happen on a reader goroutine
// whose lifetime is bounded by ctx and by Close.
func Open(ctx context.Context, cfg Config, dial DialFunc) (*Session, error) {
	if dial == nil {
		return nil, errors.New("sse.Open: dial is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	stall := cfg.StallTimeout
	if stall <= 0 {
		stall = DefaultStallTimeout
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		state:  StateConnecting,
		events: make(chan Event, eventBufferSize),
		cancel: cancel,
		logger: logger,
	}

	go s.run(ctx, dial, stall)
	return s, nil
}

// Events returns the event channel. It is closed when the reader exits;
// consumers should treat closure after a Done or Err event as normal.
func (s *Session) Events() <-chan Event { return s.events }

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Buffer returns the accumulated content: the ordered concatenation of
// every content chunk received so far. Preserved even after an error.
func (s *Session) Buffer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// ErrorMessage returns the error message, or "" unless state is error.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Close tears the stream down. Closing an already-closed session is a
// no-op; a timeout firing and an error arriving near-simultaneously must
// not trip over each other.
func (s *Session) Close() {
	s.closed.Do(func() {
		s.cancel()
	})
}

// markStreaming moves connecting -> streaming. Any other state is left alone.
func (s *Session) markStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnecting {
		s.state = StateStreaming
	}
}

// appendContent records a chunk. Returns false once the session is terminal,
// so late chunks after an error/completion are dropped rather than reordered.
func (s *Session) appendContent(text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted || s.state == StateError {
		return false
	}
	s.state = StateStreaming
	s.buf.WriteString(text)
	return true
}

// complete moves the session to completed. Returns false if already terminal.
func (s *Session) complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted || s.state == StateError {
		return false
	}
	s.state = StateCompleted
	return true
}

// fail moves the session to error with a message. Returns false if already
// terminal, which makes the transition exactly-once under racing failure
// paths (stall timer vs transport error).
func (s *Session) fail(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateCompleted || s.state == StateError {
		return false
	}
	s.state = StateError
	s.errMsg = msg
	return true
}

func (s *Session) bufferEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Len() == 0
}

// send delivers an event unless the context is gone.
func (s *Session) send(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// run dials and consumes the stream. All exit paths close the event
// channel, release the body and cancel the stall watchdog.
func (s *Session) run(ctx context.Context, dial DialFunc, stall time.Duration) {
	defer close(s.events)
	defer s.cancel()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("stream panic recovered", "panic", r)
			if s.fail(fmt.Sprintf("stream panic: %v", r)) {
				select {
				case s.events <- Event{Err: fmt.Errorf("stream panic: %v", r)}:
				default:
				}
			}
		}
	}()

	conn, err := dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return // closed while connecting
		}
		s.failAndSend(ctx, err)
		return
	}
	defer func() { _ = conn.Body.Close() }()

	// Closing the body on cancellation unblocks the scanner even when
	// the transport does not honor ctx itself. ctx is always canceled
	// before run returns, so this goroutine never outlives the session.
	go func() {
		<-ctx.Done()
		_ = conn.Body.Close()
	}()

	// Open signal: the server accepted the stream.
	s.markStreaming()

	// Stall watchdog: a stream that stays silent past the ceiling with an
	// empty buffer is failed unilaterally. Completion or first content
	// disarms it.
	watchdog := time.AfterFunc(stall, func() {
		if !s.bufferEmpty() {
			return
		}
		msg := "the stream produced no content in time; try a lighter-weight mode"
		if s.fail(msg) {
			s.logger.Warn("stream stalled, giving up", "timeout", stall)
			select {
			case s.events <- Event{Err: errors.New(msg)}:
			default:
			}
			s.cancel() // unblocks the scanner below
		}
	})
	defer watchdog.Stop()

	scanner := bufio.NewScanner(conn.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			continue

		case line == "":
			// Blank line terminates the frame.
			if data.Len() == 0 {
				continue
			}
			payload := data.String()
			data.Reset()
			if done := s.dispatch(ctx, payload, watchdog); done {
				return
			}
			continue

		default:
			// "event:"/"id:"/comment lines carry nothing the backend uses.
			continue
		}
	}

	if ctx.Err() != nil {
		return // Close() or parent cancellation; state stays as-is
	}

	// The connection dropped without a done/error frame. Partial content
	// stays in the buffer for the user to inspect.
	err = scanner.Err()
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	msg := "connection to the backend was interrupted"
	if s.fail(msg) {
		s.logger.Warn("stream ended without completion signal", "error", err)
		s.send(ctx, Event{Err: fmt.Errorf("%s: %w", msg, err)})
	}
}

// dispatch applies one decoded frame to the state machine.
// Returns true when the stream reached a terminal state.
func (s *Session) dispatch(ctx context.Context, payload string, watchdog *time.Timer) bool {
	var ev wireEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		s.logger.Debug("skipping malformed stream frame", "error", err)
		return false
	}

	switch ev.Type {
	case "start", "info", "status":
		s.markStreaming()
		if ev.Message != "" {
			s.send(ctx, Event{Info: ev.Message})
		}
		return false

	case "sources":
		s.markStreaming()
		s.send(ctx, Event{Sources: ev.Sources})
		return false

	case "content":
		text := ev.contentText()
		if text == "" {
			return false
		}
		watchdog.Stop()
		if !s.appendContent(text) {
			return true // already terminal, drop late chunk
		}
		s.send(ctx, Event{Text: text})
		return false

	case "done", "complete":
		watchdog.Stop()
		if s.complete() {
			s.send(ctx, Event{Done: true})
		}
		return true

	case "error":
		watchdog.Stop()
		msg := ev.Message
		if msg == "" {
			msg = "the backend reported a stream error"
		}
		if s.fail(msg) {
			s.send(ctx, Event{Err: errors.New(msg)})
		}
		return true

	default:
		s.logger.Debug("ignoring unknown stream event", "type", ev.Type)
		return false
	}
}

// failAndSend is the dial-failure path. Transport-level failures get a
// generic connectivity message; a backend rejection keeps the server's
// own wording (its Error() is the verbatim detail).
func (s *Session) failAndSend(ctx context.Context, err error) {
	msg := err.Error()
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg = "could not connect to the backend stream"
	}
	if s.fail(msg) {
		s.logger.Warn("stream dial failed", "error", err)
		s.send(ctx, Event{Err: err})
	}
}
