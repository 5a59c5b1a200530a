package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeNotFound, "client not found")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("matches inner code through wrap", func(t *testing.T) {
		inner := New(CodeInvariantViolation, "bad state")
		err := Wrap(inner, CodeInternal, "failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeInvariantViolation))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("store: %w", New(CodeConflict, "dup"))
		assert.True(t, Is(err, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestWrapPreservesFields(t *testing.T) {
	inner := NewValidation([]FieldError{{Path: "full_name", Message: "required"}})
	err := Wrap(inner, CodeValidation, "invalid client request")

	require.Len(t, err.Fields, 1)
	assert.Equal(t, "full_name", err.Fields[0].Path)
	assert.ErrorIs(t, err, inner)
}

func TestWithFieldDoesNotMutateReceiver(t *testing.T) {
	base := New(CodeConflict, "document already registered")
	tagged := base.WithField("document", "already registered")

	assert.Empty(t, base.Fields)
	require.Len(t, tagged.Fields, 1)
	assert.Equal(t, CodeConflict, tagged.Code)
}
