// Package cron provides cron-based scheduling for refreshing list operations.
//
// A Trigger calls its function according to a cron schedule; a Manager owns one
// Trigger per configured schedule and refreshes the named operations when it fires.
// Both are started once and run until the context is cancelled.
//
// Example usage:
//
//	specs, err := cron.ParseTriggerSpecs("home,categories:*/15 * * * *", available)
//	manager, err := cron.NewManager(specs, ops, logger)
//	manager.Start(ctx)  // Returns immediately, runs in background
//	<-ctx.Done()        // Wait for shutdown signal
package cron

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// scheduleParser accepts the standard five fields plus descriptors such as @hourly.
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Trigger calls a function according to a cron schedule.
type Trigger struct {
	spec     string
	schedule cron.Schedule
	run      func(context.Context) error
	logger   *slog.Logger
	now      func() time.Time
}

// NewTrigger creates a new Trigger with the given cron specification.
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewTrigger(spec string, run func(context.Context) error, logger *slog.Logger) (*Trigger, error) {
	schedule, err := scheduleParser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Trigger{
		spec:     spec,
		schedule: schedule,
		run:      run,
		logger:   logger.With("schedule", spec),
		now:      time.Now,
	}, nil
}

// Start launches a goroutine that fires according to the cron schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (t *Trigger) Start(ctx context.Context) {
	go t.loop(ctx)
}

// NextRun returns the next scheduled run time from now.
func (t *Trigger) NextRun() time.Time {
	return t.schedule.Next(t.now())
}

func (t *Trigger) loop(ctx context.Context) {
	for {
		nextRun := t.NextRun()
		wait := time.NewTimer(time.Until(nextRun))

		t.logger.Debug("waiting for next scheduled refresh", "next_run", nextRun)

		select {
		case <-ctx.Done():
			wait.Stop()
			t.logger.Debug("cron trigger shutting down")
			return
		case <-wait.C:
			t.execute(ctx)
		}
	}
}

// execute runs the function once and logs the result.
func (t *Trigger) execute(ctx context.Context) {
	t.logger.Info("starting scheduled refresh")

	if err := t.run(ctx); err != nil {
		t.logger.Warn("scheduled refresh completed with error", "error", err)
	} else {
		t.logger.Info("scheduled refresh completed successfully")
	}
}
