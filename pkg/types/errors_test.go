package types

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapSigningError(t *testing.T) {
	assert.Nil(t, WrapSigningError(nil))

	cancelled := fmt.Errorf("confirm: %w", ErrSigningCancelled)
	assert.Same(t, cancelled, WrapSigningError(cancelled))

	cause := fmt.Errorf("confirm signing: %w", context.Canceled)
	err := WrapSigningError(cause)
	assert.True(t, errors.Is(err, ErrSigningFailed))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrSigningCancelled))
	assert.Equal(t, "signing failed: confirm signing: context canceled", err.Error())

	var se *SigningError
	assert.True(t, errors.As(fmt.Errorf("sign: %w", err), &se))
	assert.Same(t, cause, se.Cause)
}
