package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepError_Error(t *testing.T) {
	e := NewTestError("run-1", "test common wheels", 1, nil)
	msg := e.Error()

	assert.Contains(t, msg, "TEST_FAILED")
	assert.Contains(t, msg, "test common wheels")
	assert.Contains(t, msg, "exited 1")
	assert.Contains(t, msg, "run=run-1")
}

func TestStepError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	e := NewSetupError("run-1", "checkout", -1, cause)

	assert.ErrorIs(t, e, cause)
}

func TestIsAborted(t *testing.T) {
	abort := NewAbortError("r", "download binary", errors.New("context canceled"))

	assert.True(t, IsAborted(abort))
	assert.False(t, IsAborted(NewSetupError("r", "checkout", 128, nil)))
	assert.False(t, IsAborted(errors.New("plain")))

	// Wrapped errors are still recognized.
	wrapped := fmt.Errorf("run failed: %w", abort)
	assert.True(t, IsAborted(wrapped))
}
