package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServiceError_Error(t *testing.T) {
	err := NewServiceError(ErrorTypeValidation, "BAD_PHONE", "phone number is invalid")
	assert.Equal(t, "phone number is invalid (BAD_PHONE)", err.Error())

	err.Details = "too few digits"
	assert.Equal(t, "phone number is invalid: too few digits (BAD_PHONE)", err.Error())
}

func TestServiceError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewTransportError("createChatInviteLink", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsTransport(err))
	assert.False(t, IsDatabase(err))
}

func TestIsType_SeesThroughWrapping(t *testing.T) {
	inner := NewDatabaseError("save member", errors.New("deadlock"))
	wrapped := fmt.Errorf("eviction pass: %w", inner)

	assert.True(t, IsDatabase(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeDatabase))
	assert.False(t, IsType(wrapped, ErrorTypeTransport))
}

func TestIsType_PlainError(t *testing.T) {
	assert.False(t, IsType(errors.New("plain"), ErrorTypeTransport))
	assert.False(t, IsTransport(nil))
}
