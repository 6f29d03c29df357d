package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.class.String())
	}
}

func TestWrapFormatsContext(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(base, "FederatedStore", "Execute", "dispatch")

	require.Error(t, err)
	assert.Equal(t, "FederatedStore.Execute: dispatch failed: boom", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "c", "m", "a"))
	assert.NoError(t, WrapInvalid(nil, "c", "m", "a"))
	assert.NoError(t, WrapTransient(nil, "c", "m", "a"))
	assert.NoError(t, WrapFatal(nil, "c", "m", "a"))
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{
			name: "wrapped invalid",
			err:  WrapInvalid(ErrInvalidView, "Graph", "Execute", "validate view"),
			want: ErrorInvalid,
		},
		{
			name: "wrapped fatal",
			err:  WrapFatal(ErrStoreNotInitialised, "Store", "Execute", "check state"),
			want: ErrorFatal,
		},
		{
			name: "wrapped transient",
			err:  WrapTransient(ErrStorageUnavailable, "Store", "Execute", "read"),
			want: ErrorTransient,
		},
		{
			name: "sentinel invalid without wrapping",
			err:  ErrGraphIDRequired,
			want: ErrorInvalid,
		},
		{
			name: "sentinel fatal without wrapping",
			err:  ErrMissingConfig,
			want: ErrorFatal,
		},
		{
			name: "unknown error defaults to transient",
			err:  errors.New("something odd"),
			want: ErrorTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	base := fmt.Errorf("read schema: %w", ErrKeyNotFound)
	err := WrapTransient(base, "GraphLibrary", "Get", "lookup")

	var ce *ClassifiedError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "GraphLibrary", ce.Component)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestIsTransientPatternMatch(t *testing.T) {
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(WrapInvalid(ErrInvalidView, "c", "m", "a")))
}
