package sse

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// frame encodes one data-only SSE frame.
func frame(payload string) string {
	return "data: " + payload + "\n\n"
}

// pipeDial returns a dial func serving from the write end of a pipe, so
// tests control exactly when bytes arrive.
func pipeDial() (DialFunc, *io.PipeWriter) {
	pr, pw := io.Pipe()
	dial := func(context.Context) (*Connection, error) {
		return &Connection{Body: pr}, nil
	}
	return dial, pw
}

// drain collects every event until the channel closes or the timeout hits.
func drain(t *testing.T, s *Session) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for the event channel to close")
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateStreaming, "streaming"},
		{StateCompleted, "completed"},
		{StateError, "error"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSession_AccumulatesChunksInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = io.WriteString(pw, frame(`{"type":"status","message":"searching"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"Hel"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"lo wo"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"rld"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"done"}`))
		_ = pw.Close()
	}()

	events := drain(t, s)

	if got := s.Buffer(); got != "Hello world" {
		t.Errorf("Buffer() = %q, want %q", got, "Hello world")
	}
	if got := s.State(); got != StateCompleted {
		t.Errorf("State() = %v, want completed", got)
	}

	var text strings.Builder
	var done bool
	for _, ev := range events {
		text.WriteString(ev.Text)
		if ev.Done {
			done = true
		}
		if ev.Err != nil {
			t.Errorf("unexpected error event: %v", ev.Err)
		}
	}
	if text.String() != "Hello world" {
		t.Errorf("event text = %q, want %q", text.String(), "Hello world")
	}
	if !done {
		t.Error("expected a Done event")
	}
}

func TestSession_BackendErrorKeepsPartialContent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"partial "}`))
		_, _ = io.WriteString(pw, frame(`{"type":"error","message":"Review generation failed: model overloaded"}`))
		_ = pw.Close()
	}()

	events := drain(t, s)

	if got := s.State(); got != StateError {
		t.Fatalf("State() = %v, want error", got)
	}
	// The server's wording is preserved verbatim.
	if got := s.ErrorMessage(); got != "Review generation failed: model overloaded" {
		t.Errorf("ErrorMessage() = %q", got)
	}
	// Content received before the failure stays readable.
	if got := s.Buffer(); got != "partial " {
		t.Errorf("Buffer() = %q, want partial content preserved", got)
	}

	errCount := 0
	for _, ev := range events {
		if ev.Err != nil {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("got %d error events, want exactly 1", errCount)
	}
}

func TestSession_InterruptedConnection(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"half an ans"}`))
		_ = pw.Close() // EOF without a done frame
	}()

	events := drain(t, s)

	if got := s.State(); got != StateError {
		t.Fatalf("State() = %v, want error", got)
	}
	if got := s.ErrorMessage(); !strings.Contains(got, "interrupted") {
		t.Errorf("ErrorMessage() = %q, want interruption message", got)
	}
	if got := s.Buffer(); got != "half an ans" {
		t.Errorf("Buffer() = %q, want partial content preserved", got)
	}

	var sawErr bool
	for _, ev := range events {
		if ev.Err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Error("expected an error event")
	}
}

func TestSession_StallTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	defer func() { _ = pw.Close() }()

	s, err := Open(context.Background(), Config{StallTimeout: 50 * time.Millisecond}, dial)
	if err != nil {
		t.Fatal(err)
	}

	// The server never sends content; the watchdog must give up.
	events := drain(t, s)

	if got := s.State(); got != StateError {
		t.Fatalf("State() = %v, want error", got)
	}
	if got := s.ErrorMessage(); !strings.Contains(got, "no content") {
		t.Errorf("ErrorMessage() = %q, want stall message", got)
	}

	errCount := 0
	for _, ev := range events {
		if ev.Err != nil {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("got %d error events, want exactly 1", errCount)
	}
}

func TestSession_ContentDisarmsStallWatchdog(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{StallTimeout: 50 * time.Millisecond}, dial)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"early"}`))
		// Idle past the stall ceiling: must not fail, buffer is non-empty.
		time.Sleep(120 * time.Millisecond)
		_, _ = io.WriteString(pw, frame(`{"type":"done"}`))
		_ = pw.Close()
	}()

	drain(t, s)

	if got := s.State(); got != StateCompleted {
		t.Errorf("State() = %v, want completed", got)
	}
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	defer func() { _ = pw.Close() }()

	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()
	s.Close()

	drain(t, s) // reader must exit after Close
}

func TestSession_DialTransportFailure(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial := func(context.Context) (*Connection, error) {
		return nil, &url.Error{Op: "Get", URL: "http://localhost:1", Err: errors.New("connection refused")}
	}
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	drain(t, s)

	if got := s.State(); got != StateError {
		t.Fatalf("State() = %v, want error", got)
	}
	// Transport failures get the generic wording, not the raw error.
	if got := s.ErrorMessage(); got != "could not connect to the backend stream" {
		t.Errorf("ErrorMessage() = %q", got)
	}
}

func TestSession_DialBackendRejection(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial := func(context.Context) (*Connection, error) {
		return nil, errors.New("Document not found")
	}
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	drain(t, s)

	// A backend rejection keeps the server's own wording.
	if got := s.ErrorMessage(); got != "Document not found" {
		t.Errorf("ErrorMessage() = %q", got)
	}
}

func TestSession_ReviewContentField(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	// The review stream uses "content" instead of "text", and "complete"
	// instead of "done".
	go func() {
		_, _ = io.WriteString(pw, frame(`{"type":"start","message":"review started"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"content","content":"## Findings"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"complete"}`))
		_ = pw.Close()
	}()

	events := drain(t, s)

	if got := s.Buffer(); got != "## Findings" {
		t.Errorf("Buffer() = %q", got)
	}
	if got := s.State(); got != StateCompleted {
		t.Errorf("State() = %v, want completed", got)
	}

	var info string
	for _, ev := range events {
		if ev.Info != "" {
			info = ev.Info
		}
	}
	if info != "review started" {
		t.Errorf("info = %q, want start message", info)
	}
}

func TestSession_IgnoresMalformedAndUnknownFrames(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		_, _ = io.WriteString(pw, frame(`not json at all`))
		_, _ = io.WriteString(pw, frame(`{"type":"heartbeat"}`))
		_, _ = io.WriteString(pw, ": comment line\n\n")
		_, _ = io.WriteString(pw, frame(`{"type":"content","text":"ok"}`))
		_, _ = io.WriteString(pw, frame(`{"type":"done"}`))
		_ = pw.Close()
	}()

	drain(t, s)

	if got := s.Buffer(); got != "ok" {
		t.Errorf("Buffer() = %q, want %q", got, "ok")
	}
	if got := s.State(); got != StateCompleted {
		t.Errorf("State() = %v, want completed", got)
	}
}

func TestSession_MultiLineDataFrame(t *testing.T) {
	defer goleak.VerifyNone(t)

	dial, pw := pipeDial()
	s, err := Open(context.Background(), Config{}, dial)
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		// Two data lines in one frame join with a newline per the SSE spec.
		_, _ = io.WriteString(pw, "data: {\"type\":\"content\",\ndata: \"text\":\"joined\"}\n\n")
		_, _ = io.WriteString(pw, frame(`{"type":"done"}`))
		_ = pw.Close()
	}()

	drain(t, s)

	if got := s.Buffer(); got != "joined" {
		t.Errorf("Buffer() = %q, want %q", got, "joined")
	}
}
