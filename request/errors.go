package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
)

// MaxRetryMessage is the validation message published once the retry budget is spent.
const MaxRetryMessage = "max retry count reached"

// ErrRequestInFlight is returned by Start and Retry while the previous call is still Loading.
var ErrRequestInFlight = errors.New("request already in flight")

// ErrorKind classifies a NetworkError.
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindInvalidResponse
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindServer
	KindTimeout
	KindDecoding
	KindValidation
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindInvalidResponse:
		return "invalid_response"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindTimeout:
		return "timeout"
	case KindDecoding:
		return "decoding"
	case KindValidation:
		return "validation"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseErrorKind is the inverse of ErrorKind.String.
func ParseErrorKind(s string) (ErrorKind, error) {
	for k := KindTransport; k <= KindCancelled; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return KindTransport, fmt.Errorf("unknown error kind %q", s)
}

// NetworkError is the error value carried by Failure and ValidationError states.
// It is never mutated after construction.
type NetworkError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrTransport       = &NetworkError{Kind: KindTransport}
	ErrInvalidResponse = &NetworkError{Kind: KindInvalidResponse}
	ErrBadRequest      = &NetworkError{Kind: KindBadRequest}
	ErrUnauthorized    = &NetworkError{Kind: KindUnauthorized}
	ErrNotFound        = &NetworkError{Kind: KindNotFound}
	ErrServer          = &NetworkError{Kind: KindServer}
	ErrTimeout         = &NetworkError{Kind: KindTimeout}
	ErrDecoding        = &NetworkError{Kind: KindDecoding}
	ErrValidation      = &NetworkError{Kind: KindValidation}
	ErrCancelled       = &NetworkError{Kind: KindCancelled}
)

func (e *NetworkError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Kind.String() + ": " + e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a NetworkError of the same kind.
func (e *NetworkError) Is(target error) bool {
	t, ok := target.(*NetworkError)
	return ok && t.Kind == e.Kind
}

type networkErrorJSON struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *NetworkError) MarshalJSON() ([]byte, error) {
	return json.Marshal(networkErrorJSON{
		Kind:       e.Kind.String(),
		Message:    e.Error(),
		StatusCode: e.StatusCode,
	})
}

// UnmarshalJSON implements json.Unmarshaler. The wrapped error is not restored.
func (e *NetworkError) UnmarshalJSON(data []byte) error {
	var v networkErrorJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	kind, err := ParseErrorKind(v.Kind)
	if err != nil {
		return err
	}
	*e = NetworkError{Kind: kind, Message: v.Message, StatusCode: v.StatusCode}
	return nil
}

// NewValidationError returns a validation error whose message is shown verbatim.
func NewValidationError(message string) *NetworkError {
	return &NetworkError{Kind: KindValidation, Message: message}
}

// BadRequest returns a bad request error carrying the server's message.
func BadRequest(message string) *NetworkError {
	return &NetworkError{Kind: KindBadRequest, Message: message}
}

// InvalidResponse returns the error used when an expected payload section is absent.
func InvalidResponse(message string) *NetworkError {
	return &NetworkError{Kind: KindInvalidResponse, Message: message}
}

// AsNetworkError returns err as a NetworkError. Errors that already are (or wrap) a
// NetworkError are returned unmodified; context and net timeouts map to their kinds and
// anything else is wrapped as a transport error.
func AsNetworkError(err error) *NetworkError {
	if err == nil {
		return nil
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Kind: KindTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &NetworkError{Kind: KindCancelled, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &NetworkError{Kind: KindTimeout, Err: err}
	}
	return &NetworkError{Kind: KindTransport, Err: err}
}

// asValidationError keeps validator-produced NetworkErrors and wraps plain errors.
func asValidationError(err error) *NetworkError {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne
	}
	return NewValidationError(err.Error())
}
