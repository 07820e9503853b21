package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	t.Run("passes through domain errors, even wrapped", func(t *testing.T) {
		original := NewOTPExpired()
		wrapped := fmt.Errorf("verify: %w", original)

		de := ToDomainError(wrapped)
		require.NotNil(t, de)
		assert.Equal(t, "OTP_EXPIRED", de.Code)
		assert.Equal(t, http.StatusGone, de.HTTPStatus)
	})

	t.Run("maps missing rows to NOT_FOUND", func(t *testing.T) {
		de := ToDomainError(pgx.ErrNoRows)
		require.NotNil(t, de)
		assert.Equal(t, "NOT_FOUND", de.Code)
	})

	t.Run("maps deadline to STORE_UNAVAILABLE", func(t *testing.T) {
		de := ToDomainError(context.DeadlineExceeded)
		require.NotNil(t, de)
		assert.Equal(t, "STORE_UNAVAILABLE", de.Code)
		assert.Equal(t, http.StatusServiceUnavailable, de.HTTPStatus)
	})

	t.Run("unknown errors become INTERNAL_ERROR", func(t *testing.T) {
		de := ToDomainError(errors.New("boom"))
		require.NotNil(t, de)
		assert.Equal(t, "INTERNAL_ERROR", de.Code)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
	})
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewStoreUnavailable(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestNewInvalidTransitionDetails(t *testing.T) {
	de := ToDomainError(NewInvalidTransition("closed", "resolved"))
	require.NotNil(t, de)
	assert.Equal(t, "INVALID_TRANSITION", de.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, de.HTTPStatus)
	assert.Equal(t, "closed", de.Details["from"])
	assert.Equal(t, "resolved", de.Details["to"])
}
