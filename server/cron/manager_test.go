package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arabah/arabah/operations"
	"github.com/arabah/arabah/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLister is a list operation whose refresh outcome is fixed.
type fakeLister struct {
	name     string
	err      *request.NetworkError
	inFlight bool
	calls    atomic.Int32
}

func (f *fakeLister) Name() string { return f.name }

func (f *fakeLister) Snapshot() request.Snapshot {
	return request.Snapshot{Operation: f.name}
}

func (f *fakeLister) Attempts() int { return 0 }

func (f *fakeLister) Watch(func(request.Snapshot)) *request.Subscription { return nil }

func (f *fakeLister) Retry(ctx context.Context) (request.Snapshot, error) {
	return f.Refresh(ctx)
}

func (f *fakeLister) Refresh(context.Context) (request.Snapshot, error) {
	f.calls.Add(1)
	switch {
	case f.inFlight:
		return request.Snapshot{Operation: f.name, State: request.Loading}, request.ErrRequestInFlight
	case f.err != nil:
		return request.Snapshot{Operation: f.name, State: request.Failure, Error: f.err}, nil
	default:
		return request.Snapshot{Operation: f.name, State: request.Success}, nil
	}
}

type fakeSource []operations.Lister

func (s fakeSource) Lists() []operations.Lister { return s }

func TestAvailable(t *testing.T) {
	src := fakeSource{&fakeLister{name: "home"}, &fakeLister{name: "categories"}}
	assert.Equal(t, map[string]bool{"home": true, "categories": true}, Available(src))
}

func TestNewManager(t *testing.T) {
	home := &fakeLister{name: "home"}
	favorites := &fakeLister{name: "favorites"}
	src := fakeSource{home, favorites}

	specs, err := ParseTriggerSpecs("home:0 2 * * *;home,favorites:0 14 * * *", Available(src))
	require.NoError(t, err)

	manager, err := NewManager(specs, src, testLogger())
	require.NoError(t, err)
	assert.Len(t, manager.triggers, 2)
	assert.Equal(t, specs, manager.Specs())

	// Firing the second trigger refreshes both operations.
	manager.triggers[1].execute(context.Background())
	assert.Equal(t, int32(1), home.calls.Load())
	assert.Equal(t, int32(1), favorites.calls.Load())
}

func TestNewManager_UnknownOperation(t *testing.T) {
	src := fakeSource{&fakeLister{name: "home"}}
	manager, err := NewManager([]TriggerSpec{{Operations: []string{"notes"}, CronSpec: "@hourly"}}, src, nil)
	require.Error(t, err)
	assert.Nil(t, manager)
	assert.Contains(t, err.Error(), `unknown operation "notes"`)
}

func TestManager_NextRun(t *testing.T) {
	src := fakeSource{&fakeLister{name: "home"}, &fakeLister{name: "categories"}}
	specs, err := ParseTriggerSpecs("home:0 2 * * *;categories:0 14 * * *", Available(src))
	require.NoError(t, err)
	manager, err := NewManager(specs, src, testLogger())
	require.NoError(t, err)

	noon := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, trigger := range manager.triggers {
		trigger.now = func() time.Time { return noon }
	}
	assert.Equal(t, time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC), manager.NextRun())
}

func TestManager_NextRun_NoTriggers(t *testing.T) {
	manager, err := NewManager(nil, fakeSource{}, testLogger())
	require.NoError(t, err)
	assert.True(t, manager.NextRun().IsZero())
}

func TestManager_Start(t *testing.T) {
	home := &fakeLister{name: "home"}
	manager, err := NewManager([]TriggerSpec{{Operations: []string{"home"}, CronSpec: "0 2 1 1 *"}}, fakeSource{home}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	manager.Start(ctx)
	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.Equal(t, int32(0), home.calls.Load())
}

func TestRefreshAll(t *testing.T) {
	serverErr := &request.NetworkError{Kind: request.KindServer, Message: "server error", StatusCode: 500}
	home := &fakeLister{name: "home"}
	categories := &fakeLister{name: "categories", err: serverErr}
	favorites := &fakeLister{name: "favorites", inFlight: true}

	err := RefreshAll(context.Background(), []operations.Lister{home, categories, favorites}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "categories: ")
	assert.ErrorIs(t, err, request.ErrServer)
	assert.Equal(t, int32(1), home.calls.Load())
	assert.Equal(t, int32(1), categories.calls.Load())
	assert.Equal(t, int32(1), favorites.calls.Load())

	require.NoError(t, RefreshAll(context.Background(), []operations.Lister{home, favorites}, testLogger()))
}

func TestRefreshAll_Cancelled(t *testing.T) {
	home := &fakeLister{name: "home"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RefreshAll(ctx, []operations.Lister{home}, testLogger())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, home.calls.Load())
}
