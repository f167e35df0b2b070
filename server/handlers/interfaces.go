// Package handlers provides HTTP handlers for the arabah status server.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"time"

	"github.com/arabah/arabah/config"
	"github.com/arabah/arabah/operations"
	"github.com/arabah/arabah/tracker"
)

// ConfigProvider provides access to the current configuration.
type ConfigProvider interface {
	Config() *config.Config
}

// Reloader can reload its configuration. It returns the changed settings that need a
// restart to take effect.
type Reloader interface {
	Reload() ([]string, error)
}

// OperationProvider looks up operations by name.
type OperationProvider interface {
	Get(name string) (operations.Handle, bool)
	Lister(name string) (operations.Lister, bool)
}

// StatusProvider provides the latest state of every operation.
type StatusProvider interface {
	Statuses() []tracker.Status
	NextRefresh() *time.Time
}

// HistoryProvider provides access to recorded outcomes, most recent first.
type HistoryProvider interface {
	History() []tracker.Outcome
}
