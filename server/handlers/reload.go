package handlers

import (
	"log/slog"
	"net/http"
)

// ReloadResponse lists the settings that changed on disk but only apply after a restart.
type ReloadResponse struct {
	RestartRequired []string `json:"restart_required"`
}

// ReloadHandler handles requests to reload configuration from disk.
type ReloadHandler struct {
	logger   *slog.Logger
	reloader Reloader
}

// NewReloadHandler creates a new ReloadHandler.
func NewReloadHandler(logger *slog.Logger, reloader Reloader) *ReloadHandler {
	return &ReloadHandler{
		logger:   logger,
		reloader: reloader,
	}
}

// ServeHTTP implements http.Handler.
func (h *ReloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("reloading configuration")

	pending, err := h.reloader.Reload()
	if err != nil {
		h.logger.Error("failed to reload configuration", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reload configuration: %v", err)
		return
	}

	if pending == nil {
		pending = []string{}
	}
	h.logger.Info("configuration reloaded", "restart_required", pending)
	writeJSON(w, http.StatusOK, ReloadResponse{RestartRequired: pending})
}
