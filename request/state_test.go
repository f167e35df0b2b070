package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateKind_String(t *testing.T) {
	tests := []struct {
		kind     StateKind
		expected string
		terminal bool
	}{
		{Idle, "idle", false},
		{Loading, "loading", false},
		{Success, "success", true},
		{Failure, "failure", true},
		{ValidationError, "validation_error", true},
		{StateKind(42), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
			assert.Equal(t, tt.terminal, tt.kind.IsTerminal())
		})
	}
}

func TestStateKind_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]StateKind{"state": ValidationError})
	assert.NoError(t, err)
	assert.JSONEq(t, `{"state":"validation_error"}`, string(data))
}

func TestState_Payload(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := successState("payload", 2)
		p, ok := s.Payload()
		assert.True(t, ok)
		assert.Equal(t, "payload", p)
		assert.Nil(t, s.Err())
		assert.Equal(t, 2, s.Attempt())
		assert.Equal(t, "success", s.String())
	})

	t.Run("Failure", func(t *testing.T) {
		s := failureState[string](&NetworkError{Kind: KindTimeout}, 0)
		p, ok := s.Payload()
		assert.False(t, ok)
		assert.Empty(t, p)
		assert.Equal(t, KindTimeout, s.Err().Kind)
		assert.Equal(t, "failure(timeout)", s.String())
	})

	t.Run("ValidationError", func(t *testing.T) {
		s := validationState[int](NewValidationError("name required"), 0)
		_, ok := s.Payload()
		assert.False(t, ok)
		assert.Equal(t, "name required", s.Err().Error())
		assert.Equal(t, "validation_error(name required)", s.String())
	})
}

func TestSnapshotOf(t *testing.T) {
	s := failureState[int](BadRequest("phone already used"), 1)
	snap := snapshotOf("login", s)
	assert.Equal(t, "login", snap.Operation)
	assert.Equal(t, Failure, snap.State)
	assert.Equal(t, 1, snap.Attempt)
	assert.Equal(t, "phone already used", snap.Error.Message)
}

func TestStateKind_UnmarshalJSON(t *testing.T) {
	var v struct {
		State StateKind `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"state":"failure"}`), &v))
	assert.Equal(t, Failure, v.State)

	assert.Error(t, json.Unmarshal([]byte(`{"state":"pending"}`), &v))
}
