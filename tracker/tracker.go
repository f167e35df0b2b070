// Package tracker observes orchestrators the way a UI would: it keeps the latest state
// of every operation and records each terminal state in a history store.
package tracker

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arabah/arabah/logging"
	"github.com/arabah/arabah/request"
)

// Observable is an operation the tracker can watch.
type Observable interface {
	Name() string
	Watch(fn func(request.Snapshot)) *request.Subscription
}

// Tracker records operation statuses and outcomes.
//
// THREAD SAFETY:
// All methods are thread-safe. Each watched operation delivers its transitions on its
// own goroutine.
type Tracker struct {
	mu       sync.RWMutex
	statuses map[string]Status
	history  HistoryStore
	subs     []*request.Subscription

	logs   *logging.LogCollector
	logger *slog.Logger
	now    func() time.Time
}

// Option is a functional option for configuring the Tracker.
type Option func(*Tracker)

// WithLogger sets a custom logger for the tracker
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

// WithLogCollector attaches the captured logs of each operation to its outcomes.
func WithLogCollector(c *logging.LogCollector) Option {
	return func(t *Tracker) {
		t.logs = c
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// New creates a Tracker that saves outcomes to history.
func New(history HistoryStore, opts ...Option) *Tracker {
	t := &Tracker{
		statuses: make(map[string]Status),
		history:  history,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With("component", "tracker")
	return t
}

// Watch starts observing o. The state o is in when watched is recorded as its status
// but not as an outcome.
func (t *Tracker) Watch(o Observable) {
	name := o.Name()
	replay := true
	sub := o.Watch(func(s request.Snapshot) {
		t.observe(name, s, replay)
		replay = false
	})

	t.mu.Lock()
	defer t.mu.Unlock()
	t.subs = append(t.subs, sub)
}

func (t *Tracker) observe(name string, s request.Snapshot, replay bool) {
	now := t.now()

	t.mu.Lock()
	prev := t.statuses[name]
	status := Status{Snapshot: s, StartedAt: prev.StartedAt, UpdatedAt: now}
	if s.State == request.Loading {
		status.StartedAt = &now
	}
	t.statuses[name] = status
	history := t.history
	t.mu.Unlock()

	if replay || !s.State.IsTerminal() {
		return
	}

	outcome := Outcome{
		ID:        uuid.NewString(),
		Operation: name,
		State:     s.State,
		Error:     s.Error,
		Attempt:   s.Attempt,
		EndedAt:   now,
	}
	// a validation failure never reached Loading
	if s.State != request.ValidationError || prev.State == request.Loading {
		outcome.StartedAt = status.StartedAt
	}
	if t.logs != nil {
		outcome.Logs = t.logs.Take(name)
	}

	if err := history.Save(outcome); err != nil {
		t.logger.Error("failed to save outcome", "operation", name, "error", err)
	}
}

// Status returns the latest status of the named operation.
func (t *Tracker) Status(name string) (Status, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.statuses[name]
	return s, ok
}

// Statuses returns the latest status of every watched operation, sorted by name.
func (t *Tracker) Statuses() []Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Status, 0, len(t.statuses))
	for _, s := range t.statuses {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Operation < result[j].Operation
	})
	return result
}

// History returns recorded outcomes, most recent first.
func (t *Tracker) History() []Outcome {
	t.mu.RLock()
	history := t.history
	t.mu.RUnlock()
	return history.History()
}

// SetHistory replaces the history store, e.g. after a configuration reload.
func (t *Tracker) SetHistory(h HistoryStore) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = h
}

// Close stops observing every operation.
func (t *Tracker) Close() {
	t.mu.Lock()
	subs := t.subs
	t.subs = nil
	t.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}
