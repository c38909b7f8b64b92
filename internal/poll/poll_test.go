package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/docdash/docdash/internal/backend"
)

// fastDelay keeps tests quick while preserving the scheduling shape.
func fastDelay(int) time.Duration { return time.Millisecond }

// collect drains the update channel until it closes.
func collect[T any](t *testing.T, p *Poller[T]) []Update[T] {
	t.Helper()
	var updates []Update[T]
	timeout := time.After(5 * time.Second)
	for {
		select {
		case u, ok := <-p.Updates():
			if !ok {
				return updates
			}
			updates = append(updates, u)
		case <-timeout:
			t.Fatal("timed out waiting for the poller to stop")
		}
	}
}

func TestDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{1, 2 * time.Second},
		{2, 2 * time.Second},
		{3, 5 * time.Second},
		{5, 5 * time.Second},
		{6, 10 * time.Second},
		{10, 10 * time.Second},
		{11, 15 * time.Second},
		{100, 15 * time.Second},
	}
	for _, tt := range tests {
		if got := Delay(tt.attempts); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestDelay_NeverShrinks(t *testing.T) {
	prev := time.Duration(0)
	for attempts := 1; attempts <= 30; attempts++ {
		d := Delay(attempts)
		if d < prev {
			t.Fatalf("Delay(%d) = %v, shorter than Delay(%d) = %v", attempts, d, attempts-1, prev)
		}
		prev = d
	}
}

func TestPoller_StopsOnCompleted(t *testing.T) {
	defer goleak.VerifyNone(t)

	statuses := []string{backend.StatusPending, backend.StatusProcessing, backend.StatusCompleted}
	calls := 0
	fetch := func(context.Context) (string, error) {
		status := statuses[calls]
		calls++
		return status, nil
	}

	p := New("job-1", fetch, func(s string) string { return s }, Options{DelayFunc: fastDelay})
	p.Start(context.Background())

	updates := collect(t, p)

	if len(updates) != 3 {
		t.Fatalf("got %d updates, want 3", len(updates))
	}
	last := updates[len(updates)-1]
	if !last.Terminal {
		t.Error("last update should be terminal")
	}
	if !last.Completed {
		t.Error("pending -> processing -> completed must set Completed")
	}
	if last.Attempt != 3 {
		t.Errorf("last attempt = %d, want 3", last.Attempt)
	}
	for _, u := range updates[:len(updates)-1] {
		if u.Terminal || u.Completed {
			t.Error("non-final updates must not be terminal or completed")
		}
	}

	<-p.Done()
	if calls != 3 {
		t.Errorf("fetch called %d times after terminal status, want 3", calls)
	}
}

func TestPoller_FailedIsTerminalButNotCompleted(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetch := func(context.Context) (string, error) { return backend.StatusFailed, nil }
	p := New("job-2", fetch, func(s string) string { return s }, Options{DelayFunc: fastDelay})
	p.Start(context.Background())

	updates := collect(t, p)

	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	if !updates[0].Terminal {
		t.Error("failed status must be terminal")
	}
	if updates[0].Completed {
		t.Error("failed status must not report Completed")
	}
}

func TestPoller_ImmediatelyCompleted(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetch := func(context.Context) (string, error) { return backend.StatusCompleted, nil }
	p := New("job-3", fetch, func(s string) string { return s }, Options{DelayFunc: fastDelay})
	p.Start(context.Background())

	updates := collect(t, p)

	// completed observed on the very first poll still counts as the
	// transition: the previous status was not terminal.
	if len(updates) != 1 || !updates[0].Completed {
		t.Fatalf("updates = %+v, want a single Completed update", updates)
	}
}

func TestPoller_FetchErrorsContinuePolling(t *testing.T) {
	defer goleak.VerifyNone(t)

	calls := 0
	fetch := func(context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("backend unavailable")
		}
		return backend.StatusCompleted, nil
	}

	p := New("job-4", fetch, func(s string) string { return s }, Options{DelayFunc: fastDelay})
	p.Start(context.Background())

	updates := collect(t, p)

	if len(updates) != 3 {
		t.Fatalf("got %d updates, want 3 (two errors, one terminal)", len(updates))
	}
	if updates[0].Err == nil || updates[1].Err == nil {
		t.Error("first two updates should carry the fetch error")
	}
	if updates[0].Attempt != 1 || updates[1].Attempt != 2 {
		t.Errorf("error attempts = %d, %d, want 1, 2", updates[0].Attempt, updates[1].Attempt)
	}
	if !updates[2].Terminal || !updates[2].Completed {
		t.Error("final update should be terminal and completed")
	}
}

func TestPoller_Cancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetch := func(ctx context.Context) (string, error) {
		return backend.StatusProcessing, nil
	}
	p := New("job-5", fetch, func(s string) string { return s }, Options{DelayFunc: fastDelay})
	p.Start(context.Background())

	// Let at least one poll land, then cancel.
	<-p.Updates()
	p.Cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after Cancel")
	}

	// Cancel is idempotent.
	p.Cancel()
}

func TestPoller_CancelWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	p := New("job-6", func(context.Context) (string, error) { return "", nil },
		func(s string) string { return s }, Options{})
	p.Cancel() // must not block or panic
}

func TestPoller_NoUpdatesAfterCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetch := func(context.Context) (string, error) { return backend.StatusProcessing, nil }
	old := New("job-old", fetch, func(s string) string { return s }, Options{DelayFunc: fastDelay})
	old.Start(context.Background())
	<-old.Updates()
	old.Cancel()

	// After Cancel returns, the old subject's channel drains without any
	// further processing updates sneaking in.
	for u := range old.Updates() {
		_ = u // at most one buffered update may remain; channel must close
	}

	// A newly tracked subject is unaffected.
	next := New("job-new", func(context.Context) (string, error) { return backend.StatusCompleted, nil },
		func(s string) string { return s }, Options{DelayFunc: fastDelay})
	next.Start(context.Background())
	updates := collect(t, next)
	if len(updates) != 1 || updates[0].Value != backend.StatusCompleted {
		t.Fatalf("new subject updates = %+v", updates)
	}
}

func TestPoller_SubjectID(t *testing.T) {
	p := New("abc123", func(context.Context) (string, error) { return "", nil },
		func(s string) string { return s }, Options{})
	if got := p.SubjectID(); got != "abc123" {
		t.Errorf("SubjectID() = %q", got)
	}
}
