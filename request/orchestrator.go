package request

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RequestFunc performs the transport call for one attempt. It is called at most once per
// Start or permitted Retry, and its single return is the request's completion.
type RequestFunc[P, T any] func(ctx context.Context, params P) (T, error)

// SideEffect runs once after a request succeeds, e.g. to persist a session or refresh a
// dependent list. Its error is logged and does not change the Success state.
type SideEffect[P, T any] func(ctx context.Context, params P, payload T) error

// Recorder receives orchestrator events for instrumentation.
type Recorder interface {
	RecordTransition(operation string, kind StateKind)
	RecordRetry(operation string, attempt int)
	RecordRetryExhausted(operation string)
}

// Config declares what an operation does.
type Config[P, T any] struct {
	// Name identifies the operation in logs, metrics and status output.
	Name string
	// Request is required.
	Request RequestFunc[P, T]
	// Validate defaults to NoValidation.
	Validate Validator[P]
	// OnSuccess is optional.
	OnSuccess SideEffect[P, T]
}

type options struct {
	logger             *slog.Logger
	recorder           Recorder
	maxAttempts        int
	memorizeBeforeGate bool
	newID              func() string
}

// Option configures an Orchestrator.
type Option func(*options)

// WithLogger sets a custom logger for the orchestrator
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRecorder reports transitions and retries to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithMemorizeBeforeValidation stores every Start input as the retry parameters, even
// input the validator rejects. Retrying such input fails validation again.
func WithMemorizeBeforeValidation() Option {
	return func(o *options) {
		o.memorizeBeforeGate = true
	}
}

// WithIDGenerator replaces the uuid generator used for per-attempt request ids.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// Orchestrator owns one operation's request state machine and retry memory.
//
//	Idle -> Loading -> Success | Failure | ValidationError
//
// Start and Retry block until the attempt reaches a terminal state. Only one attempt may
// be outstanding: calls made while Loading return ErrRequestInFlight and change nothing.
// Observers see every transition through Subscribe or Watch.
type Orchestrator[P, T any] struct {
	name      string
	request   RequestFunc[P, T]
	validate  Validator[P]
	onSuccess SideEffect[P, T]
	logger    *slog.Logger
	recorder  Recorder
	memorize  bool
	newID     func() string
	publisher *Publisher[State[T]]
	snapshots *Publisher[Snapshot]

	mu    sync.Mutex
	state State[T]
	retry RetryContext[P]
}

// New creates an orchestrator in the Idle state.
func New[P, T any](cfg Config[P, T], opts ...Option) (*Orchestrator[P, T], error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("operation name is required")
	}
	if cfg.Request == nil {
		return nil, fmt.Errorf("operation %s: request function is required", cfg.Name)
	}

	o := options{
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	validate := cfg.Validate
	if validate == nil {
		validate = NoValidation[P]()
	}

	initial := idleState[T](0)
	return &Orchestrator[P, T]{
		name:      cfg.Name,
		request:   cfg.Request,
		validate:  validate,
		onSuccess: cfg.OnSuccess,
		logger:    o.logger.With("component", "request", "operation", cfg.Name),
		recorder:  o.recorder,
		memorize:  o.memorizeBeforeGate,
		newID:     o.newID,
		publisher: NewPublisher(initial),
		snapshots: NewPublisher(snapshotOf(cfg.Name, initial)),
		state:     initial,
		retry:     newRetryContext[P](o.maxAttempts),
	}, nil
}

// Name returns the operation name.
func (o *Orchestrator[P, T]) Name() string {
	return o.name
}

// State returns the current state.
func (o *Orchestrator[P, T]) State() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns the current state without its payload.
func (o *Orchestrator[P, T]) Snapshot() Snapshot {
	return snapshotOf(o.name, o.State())
}

// Attempts returns the retry attempt counter.
func (o *Orchestrator[P, T]) Attempts() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.retry.Attempts()
}

// Subscribe delivers the current state and every later transition to fn.
func (o *Orchestrator[P, T]) Subscribe(fn func(State[T])) *Subscription {
	return o.publisher.Subscribe(fn)
}

// Watch is Subscribe for observers that do not need the payload.
func (o *Orchestrator[P, T]) Watch(fn func(Snapshot)) *Subscription {
	return o.snapshots.Subscribe(fn)
}

// Close releases all observers. The orchestrator must not be used afterwards; an
// attempt still in flight completes but is not delivered.
func (o *Orchestrator[P, T]) Close() {
	o.publisher.Close()
	o.snapshots.Close()
}

// Start validates params and, if they pass, issues the request and waits for its
// completion. The returned state is the terminal state this call produced.
func (o *Orchestrator[P, T]) Start(ctx context.Context, params P) (State[T], error) {
	return o.start(ctx, params)
}

// Retry replays the last memorized parameters. With nothing memorized it changes nothing
// and returns the current state. Once the attempt counter reaches the bound it publishes
// ValidationError(MaxRetryMessage) without calling the transport.
func (o *Orchestrator[P, T]) Retry(ctx context.Context) (State[T], error) {
	o.mu.Lock()
	if o.state.Kind() == Loading {
		st := o.state
		o.mu.Unlock()
		return st, ErrRequestInFlight
	}

	params, ok := o.retry.last()
	if !ok {
		st := o.state
		o.mu.Unlock()
		o.logger.Debug("retry ignored, nothing to replay")
		return st, nil
	}

	if o.retry.exhausted() {
		st := validationState[T](NewValidationError(MaxRetryMessage), o.retry.Attempts())
		o.transition(st)
		o.mu.Unlock()
		o.logger.Warn("retry limit reached", "attempts", o.retry.MaxAttempts())
		if o.recorder != nil {
			o.recorder.RecordRetryExhausted(o.name)
		}
		return st, nil
	}

	attempt := o.retry.next()
	o.transition(idleState[T](attempt))
	o.logger.Info("retrying request", "attempt", attempt, "max_attempts", o.retry.MaxAttempts())
	if o.recorder != nil {
		o.recorder.RecordRetry(o.name, attempt)
	}
	return o.begin(ctx, params, true)
}

func (o *Orchestrator[P, T]) start(ctx context.Context, params P) (State[T], error) {
	o.mu.Lock()
	if o.state.Kind() == Loading {
		st := o.state
		o.mu.Unlock()
		return st, ErrRequestInFlight
	}
	return o.begin(ctx, params, false)
}

// begin runs the validation gate and, if params pass, the request. It must be called
// with o.mu held and the state not Loading; it releases o.mu.
func (o *Orchestrator[P, T]) begin(ctx context.Context, params P, replay bool) (State[T], error) {
	if o.memorize {
		o.retry.remember(params)
	}

	if err := o.validate(params); err != nil {
		st := validationState[T](asValidationError(err), o.retry.Attempts())
		o.transition(st)
		o.mu.Unlock()
		o.logger.Warn("request rejected by validation", "error", st.Err())
		return st, nil
	}

	if !o.memorize {
		o.retry.remember(params)
	}
	if !replay {
		o.retry.reset()
	}
	attempt := o.retry.Attempts()
	o.transition(loadingState[T](attempt))
	o.mu.Unlock()

	return o.run(ctx, params, attempt)
}

func (o *Orchestrator[P, T]) run(ctx context.Context, params P, attempt int) (State[T], error) {
	requestID := o.newID()
	log := o.logger.With("request_id", requestID, "attempt", attempt)
	log.Debug("request started")

	payload, err := o.request(WithRequestID(ctx, requestID), params)

	var st State[T]
	if err != nil {
		st = failureState[T](AsNetworkError(err), attempt)
	} else {
		st = successState(payload, attempt)
	}

	o.mu.Lock()
	o.transition(st)
	o.mu.Unlock()

	if err != nil {
		log.Error("request failed", "error", st.Err())
		return st, nil
	}

	log.Info("request succeeded")
	if o.onSuccess != nil {
		if err := o.onSuccess(ctx, params, payload); err != nil {
			log.Error("success side effect failed", "error", err)
		}
	}
	return st, nil
}

// transition must be called with o.mu held.
func (o *Orchestrator[P, T]) transition(st State[T]) {
	o.state = st
	o.publisher.Publish(st)
	o.snapshots.Publish(snapshotOf(o.name, st))
	if o.recorder != nil {
		o.recorder.RecordTransition(o.name, st.Kind())
	}
}
