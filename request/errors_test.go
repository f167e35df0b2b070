package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *NetworkError
		expected string
	}{
		{"message wins", &NetworkError{Kind: KindBadRequest, Message: "bad phone"}, "bad phone"},
		{"wrapped error", &NetworkError{Kind: KindTransport, Err: errors.New("connection refused")}, "transport: connection refused"},
		{"kind only", &NetworkError{Kind: KindInvalidResponse}, "invalid_response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestNetworkError_Is(t *testing.T) {
	err := fmt.Errorf("calling login: %w", &NetworkError{Kind: KindTimeout, Message: "slow"})
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrServer))
}

func TestAsNetworkError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, AsNetworkError(nil))
	})

	t.Run("existing network error is unmodified", func(t *testing.T) {
		original := BadRequest("invalid otp")
		got := AsNetworkError(fmt.Errorf("wrapped: %w", original))
		assert.Same(t, original, got)
	})

	t.Run("deadline", func(t *testing.T) {
		got := AsNetworkError(context.DeadlineExceeded)
		assert.Equal(t, KindTimeout, got.Kind)
		assert.ErrorIs(t, got, context.DeadlineExceeded)
	})

	t.Run("cancelled", func(t *testing.T) {
		assert.Equal(t, KindCancelled, AsNetworkError(context.Canceled).Kind)
	})

	t.Run("anything else is transport", func(t *testing.T) {
		got := AsNetworkError(errors.New("boom"))
		assert.Equal(t, KindTransport, got.Kind)
		assert.Equal(t, "transport: boom", got.Error())
	})
}

func TestNetworkError_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(&NetworkError{Kind: KindServer, StatusCode: 502, Message: "upstream"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"server","message":"upstream","status_code":502}`, string(data))
}

func TestAsValidationError(t *testing.T) {
	plain := asValidationError(errors.New("email required"))
	assert.Equal(t, KindValidation, plain.Kind)
	assert.Equal(t, "email required", plain.Message)

	typed := NewValidationError("name required")
	assert.Same(t, typed, asValidationError(typed))
}

func TestNetworkError_UnmarshalJSON(t *testing.T) {
	var ne NetworkError
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"timeout","message":"deadline","status_code":504}`), &ne))
	assert.Equal(t, KindTimeout, ne.Kind)
	assert.Equal(t, "deadline", ne.Message)
	assert.Equal(t, 504, ne.StatusCode)
	assert.ErrorIs(t, &ne, ErrTimeout)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"weird"}`), &ne))
}
