package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReloader struct {
	pending []string
	err     error
}

func (m *mockReloader) Reload() ([]string, error) {
	return m.pending, m.err
}

func TestReloadHandler_Success(t *testing.T) {
	handler := NewReloadHandler(slog.Default(), &mockReloader{})

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"restart_required":[]}`, w.Body.String())
}

func TestReloadHandler_RestartRequired(t *testing.T) {
	handler := NewReloadHandler(slog.Default(), &mockReloader{pending: []string{"api", "session"}})

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp ReloadResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"api", "session"}, resp.RestartRequired)
}

func TestReloadHandler_Error(t *testing.T) {
	handler := NewReloadHandler(slog.Default(), &mockReloader{err: errors.New("config file not found")})

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "config file not found")
}
