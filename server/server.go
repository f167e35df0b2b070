// Package server provides the arabah status server.
//
// The server owns one long-lived operation Set. It refreshes the list operations on
// cron schedules, tracks the state of every operation and exposes them over HTTP.
//
// # Endpoints
//
//   - GET /health - Health check with the running build version
//   - GET /api/status - Latest state of every operation and the next scheduled refresh
//   - GET /api/history - Recorded outcomes, most recent first
//   - GET /api/history/{id}/logs - Logs captured for one outcome
//   - GET /config - Returns current configuration as YAML, with secrets redacted
//   - POST /api/reload - Reloads configuration from disk
//   - POST /api/operations/{name}/retry - Replays the last input of an operation
//   - POST /api/operations/{name}/refresh - Re-runs a list operation
//   - GET /metrics - Prometheus metrics
//
// # Reload
//
// The config is swapped atomically on reload, so /config always reflects the file on
// disk. The operations, the API client and the schedules are built once; settings
// that only take effect at construction are reported back as needing a restart.
//
// # Example
//
//	srv, err := server.New("/etc/arabah/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/arabah/arabah/app"
	"github.com/arabah/arabah/config"
	"github.com/arabah/arabah/metrics"
	"github.com/arabah/arabah/operations"
	"github.com/arabah/arabah/server/cron"
	"github.com/arabah/arabah/server/handlers"
	"github.com/arabah/arabah/tracker"
)

const (
	defaultReadTimeout = 10 * time.Second
	// Retry and refresh block until the backend answers.
	defaultWriteTimeout    = 2 * time.Minute
	defaultShutdownTimeout = 5 * time.Second
)

// serverDeps holds config-derived dependencies that are swapped atomically on reload.
type serverDeps struct {
	config *config.Config
}

// Server is the HTTP server for the arabah status interface.
type Server struct {
	addr       string
	configPath string
	refresh    string
	appOpts    []app.Option

	deps       atomic.Pointer[serverDeps]
	app        *app.App
	logger     *slog.Logger
	registry   *metrics.ScrapeRegistry
	history    tracker.HistoryStore
	tracker    *tracker.Tracker
	cron       *cron.Manager
	certLoader *CertLoader
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithListenAddr overrides the listen address from the config.
func WithListenAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithRefresh replaces the configured refresh triggers with a spec of the form
// "home,categories:*/15 * * * *;notifications:@hourly".
func WithRefresh(spec string) Option {
	return func(s *Server) {
		s.refresh = spec
	}
}

// WithAppOptions passes options through to app.New.
func WithAppOptions(opts ...app.Option) Option {
	return func(s *Server) {
		s.appOpts = append(s.appOpts, opts...)
	}
}

// WithLogWriter sends logs to w instead of the configured output.
func WithLogWriter(w io.Writer) Option {
	return WithAppOptions(app.WithLogWriter(w))
}

// New creates a new Server with the given config path and options.
// It loads the configuration and initializes all dependencies.
func New(configPath string, opts ...Option) (*Server, error) {
	s := &Server{configPath: configPath}
	for _, opt := range opts {
		opt(s)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	s.deps.Store(&serverDeps{config: &cfg})
	if s.addr == "" {
		s.addr = cfg.Server.Listener.Addr
	}

	s.registry, err = metrics.NewScrapeRegistry()
	if err != nil {
		return nil, fmt.Errorf("creating metrics registry: %w", err)
	}
	recorder, err := metrics.NewRequestMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("creating request metrics: %w", err)
	}

	s.app, err = app.New(cfg, append(s.appOpts, app.WithRecorder(recorder))...)
	if err != nil {
		return nil, err
	}
	s.logger = s.app.Logger.With("component", "server")

	if err := s.init(cfg); err != nil {
		s.app.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) init(cfg config.Config) error {
	history, err := newHistoryStore(cfg.Server, s.app.Logger.Logger)
	if err != nil {
		return err
	}
	s.history = history

	s.tracker = tracker.New(history,
		tracker.WithLogger(s.app.Logger.Logger),
		tracker.WithLogCollector(s.app.Logs),
	)
	s.app.Ops.Each(func(h operations.Handle) {
		s.tracker.Watch(h)
	})

	available := cron.Available(s.app.Ops)
	var specs []cron.TriggerSpec
	if s.refresh != "" {
		specs, err = cron.ParseTriggerSpecs(s.refresh, available)
	} else {
		specs, err = cron.FromConfig(cfg.Refresh, available)
	}
	if err != nil {
		return fmt.Errorf("parsing refresh schedules: %w", err)
	}
	s.cron, err = cron.NewManager(specs, s.app.Ops, s.app.Logger.Logger)
	if err != nil {
		return fmt.Errorf("creating refresh schedules: %w", err)
	}

	if l := cfg.Server.Listener; l.CertFile != "" {
		s.certLoader, err = NewCertLoader(l.CertFile, l.KeyFile, s.logger)
		if err != nil {
			return fmt.Errorf("loading tls certificate: %w", err)
		}
	}
	return nil
}

func newHistoryStore(cfg config.ServerConfig, logger *slog.Logger) (tracker.HistoryStore, error) {
	if cfg.StateDir == "" {
		return tracker.NewMemoryStore(cfg.HistorySize), nil
	}
	store, err := tracker.NewDiskStore(cfg.StateDir, cfg.HistorySize, logger)
	if err != nil {
		return nil, fmt.Errorf("opening history in %s: %w", cfg.StateDir, err)
	}
	return store, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// App returns the wired runtime.
func (s *Server) App() *app.App {
	return s.app
}

// Reload reads the config from disk and swaps it in. It returns the sections that
// changed but only take effect after a restart.
func (s *Server) Reload() ([]string, error) {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return nil, err
	}
	old := s.deps.Swap(&serverDeps{config: &cfg}).config

	if store, ok := s.history.(*tracker.DiskStore); ok {
		if err := store.Reload(); err != nil {
			s.logger.Warn("failed to reload history", "error", err)
		}
	}

	restart := restartRequired(old, &cfg)
	s.logger.Info("configuration reloaded", "config_path", s.configPath, "restart_required", restart)
	return restart, nil
}

func restartRequired(old, cur *config.Config) []string {
	sections := []struct {
		name     string
		old, cur any
	}{
		{"api", old.API, cur.API},
		{"session", old.Session, cur.Session},
		{"server", old.Server, cur.Server},
		{"refresh", old.Refresh, cur.Refresh},
		{"behavior", old.Behavior, cur.Behavior},
		{"logging", old.Logging, cur.Logging},
	}
	restart := []string{}
	for _, sec := range sections {
		if !reflect.DeepEqual(sec.old, sec.cur) {
			restart = append(restart, sec.name)
		}
	}
	return restart
}

// Config returns the current configuration.
func (s *Server) Config() *config.Config {
	return s.deps.Load().config
}

// Statuses returns the latest state of every operation.
func (s *Server) Statuses() []tracker.Status {
	return s.tracker.Statuses()
}

// History returns recorded outcomes, most recent first.
func (s *Server) History() []tracker.Outcome {
	return s.tracker.History()
}

// NextRefresh returns the next scheduled refresh, or nil if no schedule is configured.
func (s *Server) NextRefresh() *time.Time {
	next := s.cron.NextRun()
	if next.IsZero() {
		return nil
	}
	return &next
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return mux
}

// Run starts the HTTP server and the refresh schedules, and blocks until the context
// is cancelled. It performs a graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certLoader != nil {
		s.httpServer.TLSConfig = s.certLoader.TLSConfig()
	}

	if specs := s.cron.Specs(); len(specs) > 0 {
		s.logger.Info("starting refresh schedules",
			"schedules", len(specs),
			"next_run", s.cron.NextRun(),
		)
	}
	s.cron.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.addr,
			"config_path", s.configPath,
			"tls", s.certLoader != nil,
		)
		var err error
		if s.certLoader != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// close stops observing the operations and flushes the log output.
func (s *Server) close() {
	s.tracker.Close()
	if err := s.app.Close(); err != nil {
		s.logger.Error("failed to close", "error", err)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	configHandler := handlers.NewConfigHandler(s.logger, s)
	reloadHandler := handlers.NewReloadHandler(s.logger, s)
	apiStatusHandler := handlers.NewAPIStatusHandler(s)
	historyHandler := handlers.NewHistoryHandler(s)
	historyLogsHandler := handlers.NewHistoryLogsHandler(s)
	retryHandler := handlers.NewRetryHandler(s.logger, s.app.Ops)
	refreshHandler := handlers.NewRefreshHandler(s.logger, s.app.Ops)

	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/status", apiStatusHandler)
	mux.Handle("GET /api/history", historyHandler)
	mux.Handle("GET /api/history/{id}/logs", historyLogsHandler)
	mux.Handle("GET /config", configHandler)
	mux.Handle("POST /api/reload", reloadHandler)
	mux.Handle("POST /api/operations/{name}/retry", retryHandler)
	mux.Handle("POST /api/operations/{name}/refresh", refreshHandler)
	mux.Handle("GET /metrics", s.registry.Handler())
}
