package handlers

import (
	"net/http"
	"strconv"

	"github.com/arabah/arabah/logging"
	"github.com/arabah/arabah/tracker"
)

// HistoryHandler handles requests for recorded outcomes.
// Optional query parameters: operation filters by name, limit caps the result.
type HistoryHandler struct {
	provider HistoryProvider
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(provider HistoryProvider) *HistoryHandler {
	return &HistoryHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit %q", v)
			return
		}
		limit = n
	}
	operation := r.URL.Query().Get("operation")

	history := make([]tracker.Outcome, 0)
	for _, o := range h.provider.History() {
		if operation != "" && o.Operation != operation {
			continue
		}
		// logs are served by the per-outcome endpoint
		o.Logs = nil
		history = append(history, o)
		if limit > 0 && len(history) == limit {
			break
		}
	}
	writeJSON(w, http.StatusOK, history)
}

// HistoryLogsHandler handles requests for the logs of one outcome.
type HistoryLogsHandler struct {
	provider HistoryProvider
}

// NewHistoryLogsHandler creates a new HistoryLogsHandler.
func NewHistoryLogsHandler(provider HistoryProvider) *HistoryLogsHandler {
	return &HistoryLogsHandler{
		provider: provider,
	}
}

// ServeHTTP implements http.Handler. The outcome id is the {id} path value.
func (h *HistoryLogsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing outcome id")
		return
	}

	for _, o := range h.provider.History() {
		if o.ID == id {
			if o.Logs == nil {
				o.Logs = []logging.LogEntry{}
			}
			writeJSON(w, http.StatusOK, o.Logs)
			return
		}
	}
	writeError(w, http.StatusNotFound, "outcome %q not found", id)
}
