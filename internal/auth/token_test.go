package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

const testSecret = "test-secret-do-not-use"

func verifiedAccount() *domain.Account {
	phone := "+919876543210"
	return &domain.Account{
		ID:         "acc-1",
		Name:       "Asha",
		Phone:      &phone,
		Role:       domain.RoleCustomer,
		IsVerified: true,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	account := verifiedAccount()

	token, exp, err := tm.Issue(account)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, claims.AccountID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)
	assert.True(t, claims.Verified)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager("other-secret", time.Hour).Issue(verifiedAccount())
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	claims := &Claims{
		AccountID: "acc-1",
		Role:      domain.RoleCustomer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "acc-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestParseRejectsGarbage(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := tm.Parse(token)
		assert.ErrorIs(t, err, ErrMalformed, token)
	}
}

func TestParseRejectsUnsignedAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		AccountID: "acc-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).Parse(token)
	require.Error(t, err)
}
