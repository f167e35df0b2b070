package request

import (
	"encoding/json"
	"fmt"
)

// StateKind identifies which variant of a State is active.
type StateKind int

const (
	// Idle is the initial state, and the state Retry passes through before re-entering Start.
	Idle StateKind = iota

	// Loading indicates the transport call is outstanding.
	Loading

	// Success indicates the transport returned a payload.
	Success

	// Failure indicates the transport returned an error.
	Failure

	// ValidationError indicates the request was rejected locally and never reached the transport.
	ValidationError
)

// String returns a human-readable representation of the StateKind
func (k StateKind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failure:
		return "failure"
	case ValidationError:
		return "validation_error"
	default:
		return "unknown"
	}
}

// IsTerminal returns true for Success, Failure and ValidationError.
func (k StateKind) IsTerminal() bool {
	return k == Success || k == Failure || k == ValidationError
}

// MarshalJSON implements json.Marshaler.
func (k StateKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (k *StateKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseStateKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseStateKind is the inverse of StateKind.String.
func ParseStateKind(s string) (StateKind, error) {
	for _, k := range []StateKind{Idle, Loading, Success, Failure, ValidationError} {
		if k.String() == s {
			return k, nil
		}
	}
	return Idle, fmt.Errorf("unknown state %q", s)
}

// State is the outcome of an orchestrated request. Exactly one variant is active.
// States are immutable; only an Orchestrator creates them.
type State[T any] struct {
	kind    StateKind
	payload T
	err     *NetworkError
	attempt int
}

func idleState[T any](attempt int) State[T] {
	return State[T]{kind: Idle, attempt: attempt}
}

func loadingState[T any](attempt int) State[T] {
	return State[T]{kind: Loading, attempt: attempt}
}

func successState[T any](payload T, attempt int) State[T] {
	return State[T]{kind: Success, payload: payload, attempt: attempt}
}

func failureState[T any](err *NetworkError, attempt int) State[T] {
	return State[T]{kind: Failure, err: err, attempt: attempt}
}

func validationState[T any](err *NetworkError, attempt int) State[T] {
	return State[T]{kind: ValidationError, err: err, attempt: attempt}
}

// Kind returns the active variant.
func (s State[T]) Kind() StateKind {
	return s.kind
}

// Payload returns the success payload. ok is false for every other variant.
func (s State[T]) Payload() (payload T, ok bool) {
	if s.kind != Success {
		var zero T
		return zero, false
	}
	return s.payload, true
}

// Err returns the error carried by Failure and ValidationError, nil otherwise.
func (s State[T]) Err() *NetworkError {
	return s.err
}

// Attempt returns the retry attempt that produced this state (0 for a fresh Start).
func (s State[T]) Attempt() int {
	return s.attempt
}

// String returns the kind, followed by the error message when one is present.
func (s State[T]) String() string {
	if s.err != nil {
		return fmt.Sprintf("%s(%s)", s.kind, s.err.Error())
	}
	return s.kind.String()
}

// Snapshot is a payload-free view of a State, used by observers that watch many
// orchestrators with different payload types.
type Snapshot struct {
	Operation string        `json:"operation"`
	State     StateKind     `json:"state"`
	Error     *NetworkError `json:"error,omitempty"`
	Attempt   int           `json:"attempt"`
}

func snapshotOf[T any](operation string, s State[T]) Snapshot {
	return Snapshot{
		Operation: operation,
		State:     s.kind,
		Error:     s.err,
		Attempt:   s.attempt,
	}
}
