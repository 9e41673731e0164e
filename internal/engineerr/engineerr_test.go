package engineerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	err := New(NetworkTransient, "GetTicker", errors.New("dial tcp: timeout"))
	wrapped := fmt.Errorf("tick failed: %w", err)

	assert.True(t, Is(wrapped, NetworkTransient))
	assert.False(t, Is(wrapped, OperationalFault))
}

func TestIsTransientCoversNetworkAndMalformed(t *testing.T) {
	assert.True(t, IsTransient(New(NetworkTransient, "op", nil)))
	assert.True(t, IsTransient(New(MalformedResponse, "op", nil)))
	assert.False(t, IsTransient(New(OperationalFault, "op", nil)))
}

func TestIsOperationalCoversFaultAndFatal(t *testing.T) {
	assert.True(t, IsOperational(New(OperationalFault, "op", nil)))
	assert.True(t, IsOperational(New(FatalUnhandled, "op", nil)))
	assert.False(t, IsOperational(New(NetworkTransient, "op", nil)))
}

func TestErrorStringIncludesOpKindAndCause(t *testing.T) {
	err := New(DependencyUnsatisfied, "Flush", errors.New("connection refused"))
	assert.Contains(t, err.Error(), "Flush")
	assert.Contains(t, err.Error(), "dependency_unsatisfied")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorStringWithoutCause(t *testing.T) {
	err := New(ConfigInvalid, "loadStrategy", nil)
	assert.Equal(t, "loadStrategy: config_invalid", err.Error())
}

func TestUnwrapExposesUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	err := New(NetworkTransient, "op", cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), NetworkTransient))
}
