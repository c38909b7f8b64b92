// Package poll tracks asynchronous backend jobs with progressive backoff.
//
// A Poller owns one subject (an import job or review id). It polls
// immediately on start, then schedules each next poll only after the
// previous response is processed, so there is never more than one
// in-flight poll or pending timer per subject. Delays grow with the
// attempt count; they never shrink. The poller stops on its own as soon
// as a terminal status is observed, and can be canceled at any time.
//
// Polling is deliberately decoupled from rendering: consumers receive
// updates over a channel and decide what to do with them.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/docdash/docdash/internal/backend"
	"github.com/docdash/docdash/internal/log"
)

// Delay returns the wait before the next poll, given how many polls have
// already fired for this subject (1-based). Non-decreasing in attempts.
func Delay(attempts int) time.Duration {
	switch {
	case attempts <= 2:
		return 2 * time.Second
	case attempts <= 5:
		return 5 * time.Second
	case attempts <= 10:
		return 10 * time.Second
	default:
		return 15 * time.Second
	}
}

// FetchFunc fetches the subject's current state.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// StatusFunc extracts the backend status string from a fetched value.
type StatusFunc[T any] func(T) string

// Update is a discriminated union of everything a poller can report.
type Update[T any] struct {
	Value   T
	Err     error // fetch failure; polling continues on the same schedule
	Attempt int   // 1-based poll count that produced this update

	// Completed marks the non-terminal -> completed transition: the single
	// update a user-visible notification should hang off.
	Completed bool

	// Terminal is set on the last update; no further polls are scheduled.
	Terminal bool
}

// Poller tracks a single subject until it reaches a terminal status.
type Poller[T any] struct {
	subjectID string
	fetch     FetchFunc[T]
	status    StatusFunc[T]
	logger    log.Logger

	updates chan Update[T]
	cancel  context.CancelFunc
	stopped sync.Once
	done    chan struct{}

	// delay is Delay unless overridden in tests.
	delay func(int) time.Duration
}

// Options configure a Poller.
type Options struct {
	// Logger for poll diagnostics. Nil = nop.
	Logger log.Logger

	// DelayFunc overrides the backoff schedule (tests use short delays).
	DelayFunc func(attempts int) time.Duration
}

// New creates a poller for subjectID. Nothing runs until Start.
func New[T any](subjectID string, fetch FetchFunc[T], status StatusFunc[T], opts Options) *Poller[T] {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	delay := opts.DelayFunc
	if delay == nil {
		delay = Delay
	}

	return &Poller[T]{
		subjectID: subjectID,
		fetch:     fetch,
		status:    status,
		logger:    logger,
		updates:   make(chan Update[T], 1),
		done:      make(chan struct{}),
		delay:     delay,
	}
}

// SubjectID returns the tracked subject.
func (p *Poller[T]) SubjectID() string { return p.subjectID }

// Updates returns the update channel. It is closed when polling stops,
// whether by terminal status or cancellation.
func (p *Poller[T]) Updates() <-chan Update[T] { return p.updates }

// Done is closed when the polling goroutine has fully exited.
func (p *Poller[T]) Done() <-chan struct{} { return p.done }

// Start begins polling. The first poll fires immediately; each subsequent
// poll is scheduled only after the previous response is processed.
func (p *Poller[T]) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.run(ctx)
}

// Cancel stops polling and releases the pending timer. Idempotent; safe
// to call whether or not the poller already reached a terminal status.
// After Cancel returns, no update for this subject will ever be delivered,
// so a stale subject can never leak into a newly tracked one.
func (p *Poller[T]) Cancel() {
	if p.cancel == nil {
		return // never started
	}
	p.stopped.Do(func() { p.cancel() })
	<-p.done
}

func (p *Poller[T]) run(ctx context.Context) {
	defer close(p.done)
	defer close(p.updates)

	attempts := 0
	lastStatus := ""

	timer := time.NewTimer(0) // immediate first poll
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		attempts++
		value, err := p.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Debug("poll failed", "subject", p.subjectID, "attempt", attempts, "error", err)
			if !p.deliver(ctx, Update[T]{Err: err, Attempt: attempts}) {
				return
			}
			timer.Reset(p.delay(attempts))
			continue
		}

		status := p.status(value)
		update := Update[T]{Value: value, Attempt: attempts}

		if backend.TerminalStatus(status) {
			update.Terminal = true
			// The completion notification fires only on the observed
			// non-terminal -> completed transition.
			update.Completed = status == backend.StatusCompleted && !backend.TerminalStatus(lastStatus)
			p.deliver(ctx, update)
			p.logger.Debug("subject reached terminal status",
				"subject", p.subjectID, "status", status, "attempts", attempts)
			return
		}

		lastStatus = status
		if !p.deliver(ctx, update) {
			return
		}
		timer.Reset(p.delay(attempts))
	}
}

// deliver hands an update to the consumer, dropping it only on cancellation.
// Reports whether polling should continue.
func (p *Poller[T]) deliver(ctx context.Context, u Update[T]) bool {
	select {
	case p.updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
