package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/arabah/arabah/request"
)

// OperationResponse is returned by the retry and refresh endpoints.
type OperationResponse struct {
	request.Snapshot
	Attempts int `json:"attempts"`
}

// RetryHandler handles requests to retry an operation with its last accepted input.
type RetryHandler struct {
	logger *slog.Logger
	ops    OperationProvider
}

// NewRetryHandler creates a new RetryHandler.
func NewRetryHandler(logger *slog.Logger, ops OperationProvider) *RetryHandler {
	return &RetryHandler{
		logger: logger,
		ops:    ops,
	}
}

// ServeHTTP implements http.Handler. The operation name is the {name} path value.
func (h *RetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	op, ok := h.ops.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown operation %q", name)
		return
	}

	h.logger.Info("retry requested", "operation", name)
	snap, err := op.Retry(r.Context())
	writeOperationResult(w, snap, op.Attempts(), err)
}

// RefreshHandler handles requests to re-run an operation that takes no input.
type RefreshHandler struct {
	logger *slog.Logger
	ops    OperationProvider
}

// NewRefreshHandler creates a new RefreshHandler.
func NewRefreshHandler(logger *slog.Logger, ops OperationProvider) *RefreshHandler {
	return &RefreshHandler{
		logger: logger,
		ops:    ops,
	}
}

// ServeHTTP implements http.Handler. The operation name is the {name} path value.
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	l, ok := h.ops.Lister(name)
	if !ok {
		if _, exists := h.ops.Get(name); exists {
			writeError(w, http.StatusBadRequest, "operation %q needs input and cannot be refreshed", name)
			return
		}
		writeError(w, http.StatusNotFound, "unknown operation %q", name)
		return
	}

	h.logger.Info("refresh requested", "operation", name)
	snap, err := l.Refresh(r.Context())
	writeOperationResult(w, snap, l.Attempts(), err)
}

// writeOperationResult reports the state an operation reached. The request itself
// succeeded even when the operation ended in Failure; the state says so.
func writeOperationResult(w http.ResponseWriter, snap request.Snapshot, attempts int, err error) {
	switch {
	case errors.Is(err, request.ErrRequestInFlight):
		writeError(w, http.StatusConflict, "%v", err)
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "%v", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "%v", err)
	default:
		writeJSON(w, http.StatusOK, OperationResponse{Snapshot: snap, Attempts: attempts})
	}
}
