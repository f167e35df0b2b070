package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arabah/arabah/operations"
)

// ListSource provides the operations that can be refreshed.
type ListSource interface {
	Lists() []operations.Lister
}

// Available returns the names of the refreshable operations in src.
func Available(src ListSource) map[string]bool {
	available := make(map[string]bool)
	for _, l := range src.Lists() {
		available[l.Name()] = true
	}
	return available
}

// Manager owns one Trigger per refresh schedule.
type Manager struct {
	triggers []*Trigger
	specs    []TriggerSpec
	logger   *slog.Logger
}

// NewManager creates a Manager that refreshes the operations named in specs.
// Every name must resolve to a list operation in src.
func NewManager(specs []TriggerSpec, src ListSource, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "cron")

	byName := make(map[string]operations.Lister)
	for _, l := range src.Lists() {
		byName[l.Name()] = l
	}

	triggers := make([]*Trigger, 0, len(specs))
	for _, spec := range specs {
		listers := make([]operations.Lister, 0, len(spec.Operations))
		for _, name := range spec.Operations {
			l, ok := byName[name]
			if !ok {
				return nil, fmt.Errorf("unknown operation %q", name)
			}
			listers = append(listers, l)
		}

		trigger, err := NewTrigger(spec.CronSpec, func(ctx context.Context) error {
			return RefreshAll(ctx, listers, logger)
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating trigger for '%s:%s': %w",
				strings.Join(spec.Operations, operationListSeparator), spec.CronSpec, err)
		}
		triggers = append(triggers, trigger)

		logger.Info("refresh trigger registered",
			"operations", spec.Operations,
			"schedule", spec.CronSpec,
			"next_run", trigger.NextRun(),
		)
	}

	return &Manager{
		triggers: triggers,
		specs:    specs,
		logger:   logger,
	}, nil
}

// Start launches all triggers. Each trigger runs in its own goroutine.
// Returns immediately. All goroutines exit when ctx is cancelled.
func (m *Manager) Start(ctx context.Context) {
	for _, trigger := range m.triggers {
		trigger.Start(ctx)
	}
}

// Specs returns the schedules the manager was built from.
func (m *Manager) Specs() []TriggerSpec {
	return m.specs
}

// NextRun returns the earliest scheduled run time across all triggers.
// Returns zero time if there are no triggers.
func (m *Manager) NextRun() time.Time {
	var earliest time.Time
	for _, trigger := range m.triggers {
		next := trigger.NextRun()
		if earliest.IsZero() || next.Before(earliest) {
			earliest = next
		}
	}
	return earliest
}

// RefreshAll refreshes each operation in turn. A refresh that ends in Failure
// contributes its error to the returned error; one already in flight is skipped.
func RefreshAll(ctx context.Context, listers []operations.Lister, logger *slog.Logger) error {
	var errs []error
	for _, l := range listers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		snap, err := l.Refresh(ctx)
		if err != nil {
			logger.Debug("refresh skipped", "operation", l.Name(), "error", err)
			continue
		}
		if snap.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Name(), snap.Error))
		}
	}
	return errors.Join(errs...)
}
