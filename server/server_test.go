package server

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arabah/arabah/config"
	"github.com/arabah/arabah/operations"
	"github.com/arabah/arabah/request"
	"github.com/arabah/arabah/server/handlers"
	"github.com/arabah/arabah/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBackend serves the categories list and counts the calls.
func newBackend(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/api/categories" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"code":404,"message":"not found"}`))
			return
		}
		w.Write([]byte(`{"success":true,"code":200,"message":"ok","body":[{"_id":"c1","categoryName":"Fruit"}]}`))
	}))
	t.Cleanup(backend.Close)
	return backend, &calls
}

func writeServerConfig(t *testing.T, host, extra string) string {
	t.Helper()
	t.Setenv(config.PassphraseEnv, "")
	path := filepath.Join(t.TempDir(), "arabah.yaml")
	content := fmt.Sprintf("api:\n  host: %s\n%s", host, extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestServer(t *testing.T, extra string, opts ...Option) (*Server, *atomic.Int32, string) {
	t.Helper()
	backend, calls := newBackend(t)
	path := writeServerConfig(t, backend.URL, extra)
	srv, err := New(path, append([]Option{WithLogWriter(&bytes.Buffer{})}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(srv.close)
	return srv, calls, path
}

func TestNew(t *testing.T) {
	srv, _, _ := newTestServer(t, "server:\n  listener:\n    addr: 127.0.0.1:9999\n")

	assert.Equal(t, "127.0.0.1:9999", srv.addr)
	assert.Equal(t, "127.0.0.1:9999", srv.Config().Server.Listener.Addr)
	assert.IsType(t, &tracker.MemoryStore{}, srv.history)
	assert.Nil(t, srv.NextRefresh())
	assert.Nil(t, srv.certLoader)

	// Every operation is tracked from the start.
	var count int
	srv.app.Ops.Each(func(operations.Handle) { count++ })
	require.Eventually(t, func() bool {
		return len(srv.Statuses()) == count
	}, time.Second, 10*time.Millisecond)
	for _, st := range srv.Statuses() {
		assert.Equal(t, request.Idle, st.State, st.Operation)
	}
}

func TestNew_ListenAddrOverride(t *testing.T) {
	srv, _, _ := newTestServer(t, "", WithListenAddr(":7070"))
	assert.Equal(t, ":7070", srv.addr)
}

func TestNew_ConfiguredRefresh(t *testing.T) {
	srv, _, _ := newTestServer(t, "refresh:\n  - operations: [categories]\n    schedule: \"*/5 * * * *\"\n")

	require.Len(t, srv.cron.Specs(), 1)
	next := srv.NextRefresh()
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))
}

func TestNew_RefreshOverride(t *testing.T) {
	srv, _, _ := newTestServer(t, "refresh:\n  - operations: [categories]\n    schedule: \"*/5 * * * *\"\n",
		WithRefresh("home,favorites:@hourly;notifications:@daily"))

	specs := srv.cron.Specs()
	require.Len(t, specs, 2)
	assert.Equal(t, []string{"home", "favorites"}, specs[0].Operations)
}

func TestNew_Errors(t *testing.T) {
	backend, _ := newBackend(t)

	tests := []struct {
		name    string
		extra   string
		opts    []Option
		wantErr string
	}{
		{
			name:    "unknown refresh operation",
			extra:   "refresh:\n  - operations: [login]\n    schedule: \"@hourly\"\n",
			wantErr: "unknown operation 'login'",
		},
		{
			name:    "invalid refresh override",
			opts:    []Option{WithRefresh("home")},
			wantErr: "parsing refresh schedules",
		},
		{
			name:    "missing certificate",
			extra:   "server:\n  listener:\n    cert_file: /nonexistent/tls.crt\n    key_file: /nonexistent/tls.key\n",
			wantErr: "loading tls certificate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeServerConfig(t, backend.URL, tt.extra)
			_, err := New(path, append([]Option{WithLogWriter(&bytes.Buffer{})}, tt.opts...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestServer_RefreshRecordsHistory(t *testing.T) {
	srv, calls, _ := newTestServer(t, "")
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/operations/categories/refresh", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp handlers.OperationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "categories", resp.Operation)
	assert.Equal(t, request.Success, resp.State)
	assert.Equal(t, int32(1), calls.Load())

	// Outcomes are recorded on the operation's observer goroutine.
	require.Eventually(t, func() bool {
		return len(srv.History()) == 1
	}, time.Second, 10*time.Millisecond)

	outcome := srv.History()[0]
	assert.Equal(t, "categories", outcome.Operation)
	assert.Equal(t, request.Success, outcome.State)

	req = httptest.NewRequest(http.MethodGet, "/api/history?operation=categories", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var history []tracker.Outcome
	require.NoError(t, json.NewDecoder(w.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, outcome.ID, history[0].ID)

	req = httptest.NewRequest(http.MethodGet, "/api/history/"+outcome.ID+"/logs", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_Routes(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	h := srv.Handler()

	tests := []struct {
		method     string
		path       string
		wantStatus int
		wantBody   string
	}{
		{http.MethodGet, "/health", http.StatusOK, "ok"},
		{http.MethodGet, "/api/status", http.StatusOK, `"operations":`},
		{http.MethodGet, "/api/history", http.StatusOK, "[]"},
		{http.MethodGet, "/api/history/missing/logs", http.StatusNotFound, ""},
		{http.MethodGet, "/config", http.StatusOK, "host:"},
		{http.MethodPost, "/api/operations/login/refresh", http.StatusBadRequest, "cannot be refreshed"},
		{http.MethodPost, "/api/operations/nope/retry", http.StatusNotFound, "unknown operation"},
		{http.MethodGet, "/metrics", http.StatusOK, "arabah_start_time_seconds"},
		{http.MethodGet, "/api/reload", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestServer_RetryCountsMetrics(t *testing.T) {
	srv, _, _ := newTestServer(t, "")
	h := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/operations/categories/refresh", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/operations/categories/retry", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	body := w.Body.String()
	assert.Contains(t, body, `requests_total{operation="categories",state="success"} 2`)
	assert.Contains(t, body, `retries_total{attempt="1",operation="categories"} 1`)
}

func TestServer_Reload(t *testing.T) {
	srv, _, path := newTestServer(t, "")
	host := srv.Config().API.Host

	restart, err := srv.Reload()
	require.NoError(t, err)
	assert.Empty(t, restart)

	content := fmt.Sprintf("api:\n  host: %s\nbehavior:\n  max_attempts: 5\nmonitoring:\n  jobname: other\n", host)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	restart, err = srv.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"behavior"}, restart)
	assert.Equal(t, 5, srv.Config().Behavior.MaxAttempts)
	assert.Equal(t, "other", srv.Config().Monitoring.JobName)

	require.NoError(t, os.WriteFile(path, []byte("api: ["), 0o600))
	_, err = srv.Reload()
	require.Error(t, err)
	assert.Equal(t, 5, srv.Config().Behavior.MaxAttempts)
}

func TestServer_DiskHistory(t *testing.T) {
	dir := t.TempDir()
	srv, _, _ := newTestServer(t, fmt.Sprintf("server:\n  state_dir: %s\n  history_size: 5\n", dir))
	assert.IsType(t, &tracker.DiskStore{}, srv.history)

	_, err := srv.app.Ops.Categories.Start(context.Background(), operations.NoParams{})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		entries, _ := os.ReadDir(dir)
		return len(entries) == 1
	}, time.Second, 10*time.Millisecond)

	_, err = srv.Reload()
	require.NoError(t, err)
	assert.Len(t, srv.History(), 1)
}

func TestRestartRequired(t *testing.T) {
	old := &config.Config{API: config.APIConfig{Host: "https://a.example"}}
	old.SetDefaults()

	cur := *old
	assert.Empty(t, restartRequired(old, &cur))

	cur.API.Language = "ar"
	cur.Refresh = []config.RefreshTrigger{{Operations: []string{"home"}, Schedule: "@hourly"}}
	cur.Logging.Level = "debug"
	cur.Monitoring.VictoriaMetricsURL = "http://vm:8428"
	assert.Equal(t, []string{"api", "refresh", "logging"}, restartRequired(old, &cur))
}

// writeCert writes a self-signed certificate for commonName into dir.
func writeCert(t *testing.T, dir, commonName string) (string, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: commonName},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{commonName},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile := filepath.Join(dir, "tls.crt")
	keyFile := filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certFile, keyFile
}

func leafName(t *testing.T, loader *CertLoader) string {
	t.Helper()
	cert, err := loader.GetCertificate(nil)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestCertLoader(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeCert(t, dir, "first.arabah.example")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	loader, err := NewCertLoader(certFile, keyFile, logger)
	require.NoError(t, err)

	now := time.Now()
	loader.now = func() time.Time { return now }
	assert.Equal(t, "first.arabah.example", leafName(t, loader))

	// Replaced files are picked up only after the check interval.
	now = now.Add(time.Second)
	writeCert(t, dir, "second.arabah.example")
	future := now.Add(time.Hour)
	require.NoError(t, os.Chtimes(certFile, future, future))
	assert.Equal(t, "first.arabah.example", leafName(t, loader))

	now = now.Add(2 * certCheckInterval)
	assert.Equal(t, "second.arabah.example", leafName(t, loader))

	// A broken pair keeps the previous certificate.
	require.NoError(t, os.WriteFile(keyFile, []byte("garbage"), 0o600))
	require.NoError(t, os.Chtimes(keyFile, future.Add(time.Hour), future.Add(time.Hour)))
	now = now.Add(2 * certCheckInterval)
	assert.Equal(t, "second.arabah.example", leafName(t, loader))

	cfg := loader.TLSConfig()
	assert.NotNil(t, cfg.GetCertificate)
}

func TestNewCertLoader_Missing(t *testing.T) {
	_, err := NewCertLoader("/nonexistent/tls.crt", "/nonexistent/tls.key", slog.Default())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to load key pair"))
}
