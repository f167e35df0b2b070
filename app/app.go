// Package app builds the runtime shared by the status server and the CLI: the logger,
// the session store, the API client and the operation Set, all derived from one Config.
package app

import (
	"fmt"
	"io"
	"net/http"

	"github.com/arabah/arabah/apiclient"
	"github.com/arabah/arabah/config"
	"github.com/arabah/arabah/logging"
	"github.com/arabah/arabah/operations"
	"github.com/arabah/arabah/request"
	"github.com/arabah/arabah/session"
)

// DefaultLogLimit is how many records are kept per operation between outcomes.
const DefaultLogLimit = 200

// App is the wired runtime.
type App struct {
	Config  config.Config
	Logger  *logging.Logger
	Logs    *logging.LogCollector
	Session session.Store
	Client  *apiclient.Client
	Ops     *operations.Set
}

type settings struct {
	recorder   request.Recorder
	logWriter  io.Writer
	httpClient *http.Client
	store      session.Store
}

// Option configures New.
type Option func(*settings)

// WithRecorder instruments every operation.
func WithRecorder(r request.Recorder) Option {
	return func(s *settings) {
		s.recorder = r
	}
}

// WithLogWriter sends logs to w instead of cfg.Logging.Output.
func WithLogWriter(w io.Writer) Option {
	return func(s *settings) {
		s.logWriter = w
	}
}

// WithHTTPClient replaces the API client's http.Client. Timeout from the config still applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *settings) {
		s.httpClient = hc
	}
}

// WithSessionStore uses store instead of the one cfg.Session describes.
func WithSessionStore(store session.Store) Option {
	return func(s *settings) {
		s.store = store
	}
}

// New wires the runtime described by cfg. cfg must already be defaulted and validated.
func New(cfg config.Config, opts ...Option) (*App, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	var (
		logger *logging.Logger
		err    error
	)
	if s.logWriter != nil {
		logger, err = logging.NewWithWriter(cfg.Logging, s.logWriter)
	} else {
		logger, err = logging.New(cfg.Logging)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store := s.store
	if store == nil {
		store, err = NewSessionStore(cfg.Session)
		if err != nil {
			logger.Close()
			return nil, err
		}
	}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(logger.Logger),
		apiclient.WithTokenSource(store),
		apiclient.WithLanguage(cfg.API.Language),
		apiclient.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
	}
	if s.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(s.httpClient))
	}
	clientOpts = append(clientOpts, apiclient.WithTimeout(cfg.API.Timeout))

	client, err := apiclient.New(cfg.API.Host, clientOpts...)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	logs := logging.NewLogCollector(DefaultLogLimit)
	opOpts := []operations.Option{
		operations.WithLogger(logger.Capture(logs)),
		operations.WithMaxAttempts(cfg.Behavior.MaxAttempts),
	}
	if s.recorder != nil {
		opOpts = append(opOpts, operations.WithRecorder(s.recorder))
	}
	if cfg.Behavior.MemorizeInvalidInput {
		opOpts = append(opOpts, operations.WithMemorizeInvalidInput())
	}

	ops, err := operations.New(client, store, opOpts...)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to create operations: %w", err)
	}

	return &App{
		Config:  cfg,
		Logger:  logger,
		Logs:    logs,
		Session: store,
		Client:  client,
		Ops:     ops,
	}, nil
}

// NewSessionStore returns the store cfg describes: sealed on disk when a path is set,
// in memory otherwise.
func NewSessionStore(cfg config.SessionConfig) (session.Store, error) {
	if cfg.Path == "" {
		return session.NewMemoryStore(), nil
	}
	store, err := session.NewDiskStore(cfg.Path, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("opening session %s: %w", cfg.Path, err)
	}
	return store, nil
}

// Close releases the operations' observers and the log output.
func (a *App) Close() error {
	a.Ops.Close()
	return a.Logger.Close()
}
