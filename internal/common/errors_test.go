package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := &ValidationError{Violations: []FieldViolation{
		{Field: "email", Message: "must be a valid email address"},
		{Field: "password", Message: "is required"},
	}}

	wrapped := fmt.Errorf("register: %w", err)
	assert.True(t, errors.Is(wrapped, ErrValidation))
	assert.False(t, errors.Is(wrapped, ErrPolicy))

	var ve *ValidationError
	require.True(t, errors.As(wrapped, &ve))
	assert.Len(t, ve.Violations, 2)
	assert.Equal(t, "validation failed: email: must be a valid email address; password: is required", err.Error())
}

func TestPolicyError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("register: %w", &PolicyError{Reason: "Password must contain at least one number"})

	assert.True(t, errors.Is(err, ErrPolicy))
	assert.False(t, errors.Is(err, ErrValidation))

	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Password must contain at least one number", pe.Reason)
}
