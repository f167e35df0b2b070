package handlers

import (
	"net/http"

	"github.com/arabah/arabah/buildinfo"
)

// HealthResponse is the body of the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// HandleHealth reports that the server is up and which build is running.
// HEAD requests get the status code only.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: buildinfo.Get().Version})
}
