package sleutherrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeInput, "file not found")

	assert.Equal(t, ErrorTypeInput, err.Type)
	assert.Equal(t, "input: file not found", err.Error())
	assert.NotEmpty(t, err.Stack)
}

func TestWrap(t *testing.T) {
	t.Run("wraps a plain error", func(t *testing.T) {
		cause := fmt.Errorf("open /tmp/x: no such file")
		err := Wrap(cause, ErrorTypeInput, "failed to read input file")

		require.NotNil(t, err)
		assert.Equal(t, ErrorTypeInput, err.Type)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "no such file")
	})

	t.Run("nil in, nil out", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrorTypeInput, "ignored"))
	})

	t.Run("preserves the original stack", func(t *testing.T) {
		inner := New(ErrorTypeDecode, "bad bytes")
		outer := Wrap(inner, ErrorTypeInput, "ingestion failed")

		assert.Equal(t, inner.Stack, outer.Stack)
	})
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeDecode, "could not decode").
		WithDetail("path", "/tmp/data.csv").
		WithDetail("attempted_encodings", []string{"utf-8", "windows-1252"})

	assert.Equal(t, "/tmp/data.csv", err.Details["path"])
	assert.Len(t, err.Details["attempted_encodings"], 2)
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeDecode, "bad bytes")

	assert.True(t, IsType(err, ErrorTypeDecode))
	assert.False(t, IsType(err, ErrorTypeInput))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeDecode))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsType(wrapped, ErrorTypeDecode))
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		errType ErrorType
		fatal   bool
	}{
		{ErrorTypeInput, true},
		{ErrorTypeDecode, true},
		{ErrorTypeConfig, true},
		{ErrorTypeInternal, true},
		{ErrorTypeStage, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(New(tt.errType, "x")))
		})
	}

	assert.False(t, IsFatal(errors.New("plain")))
}
