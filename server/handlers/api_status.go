package handlers

import (
	"net/http"
	"time"

	"github.com/arabah/arabah/buildinfo"
	"github.com/arabah/arabah/tracker"
)

// NextRefreshResponse is the JSON response for the next scheduled refresh.
type NextRefreshResponse struct {
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run,omitempty"`
}

// APIStatusResponse is the consolidated response for /api/status.
type APIStatusResponse struct {
	Operations  []tracker.Status     `json:"operations"`
	NextRefresh NextRefreshResponse  `json:"next_refresh"`
	Build       buildinfo.Properties `json:"build"`
}

// APIStatusHandler handles requests for the consolidated status endpoint.
type APIStatusHandler struct {
	provider StatusProvider
}

// NewAPIStatusHandler creates a new APIStatusHandler.
func NewAPIStatusHandler(provider StatusProvider) *APIStatusHandler {
	return &APIStatusHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *APIStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	next := h.provider.NextRefresh()
	writeJSON(w, http.StatusOK, APIStatusResponse{
		Operations: h.provider.Statuses(),
		NextRefresh: NextRefreshResponse{
			Scheduled: next != nil,
			NextRun:   next,
		},
		Build: buildinfo.Get(),
	})
}
