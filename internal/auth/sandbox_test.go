package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

func demoAccount() *domain.Account {
	phone := "+919876500001"
	return &domain.Account{
		ID:         "acc-demo",
		Name:       "Demo Citizen",
		Phone:      &phone,
		Role:       domain.RoleCustomer,
		IsVerified: true,
	}
}

func encodeBundle(t *testing.T, bundle SandboxBundle) string {
	t.Helper()
	raw, err := json.Marshal(bundle)
	require.NoError(t, err)
	return "demo." + base64.RawURLEncoding.EncodeToString(raw)
}

func TestSandboxIssuer(t *testing.T) {
	issuer := NewSandboxIssuer(24*time.Hour, []string{"+919876500001", "Demo.Admin@Example.org"})

	t.Run("allowlist matches phone and email case-insensitively", func(t *testing.T) {
		assert.True(t, issuer.Allows(demoAccount()))

		email := "demo.admin@example.org"
		assert.True(t, issuer.Allows(&domain.Account{Email: &email}))

		other := "+919999999999"
		assert.False(t, issuer.Allows(&domain.Account{Phone: &other}))
	})

	t.Run("refuses to issue for identities off the allowlist", func(t *testing.T) {
		phone := "+919999999999"
		_, _, err := issuer.Issue(&domain.Account{ID: "acc-x", Phone: &phone})
		assert.ErrorIs(t, err, ErrSandboxIdentity)
	})

	t.Run("issued bundles carry the discriminator and snapshot", func(t *testing.T) {
		token, exp, err := issuer.Issue(demoAccount())
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(token, "demo."))
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), exp, time.Minute)
	})
}

func TestCredentialDecoder(t *testing.T) {
	issuer := NewSandboxIssuer(24*time.Hour, []string{"+919876500001"})
	tokens := NewTokenManager(testSecret, time.Hour)

	t.Run("signed token decodes to the signed variant", func(t *testing.T) {
		decoder := NewCredentialDecoder(tokens, issuer, true)
		token, _, err := tokens.Issue(verifiedAccount())
		require.NoError(t, err)

		cred, err := decoder.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, CredentialSigned, cred.Kind)
		require.NotNil(t, cred.Claims)
		assert.Nil(t, cred.Sandbox)
	})

	t.Run("sandbox bundle decodes to the sandbox variant", func(t *testing.T) {
		decoder := NewCredentialDecoder(tokens, issuer, true)
		token, _, err := issuer.Issue(demoAccount())
		require.NoError(t, err)

		cred, err := decoder.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, CredentialSandbox, cred.Kind)
		require.NotNil(t, cred.Sandbox)
		assert.Equal(t, "acc-demo", cred.Sandbox.AccountID)
	})

	t.Run("sandbox bundles are refused when sandbox mode is off", func(t *testing.T) {
		token, _, err := issuer.Issue(demoAccount())
		require.NoError(t, err)

		decoder := NewCredentialDecoder(tokens, issuer, false)
		_, err = decoder.Decode(token)
		assert.ErrorIs(t, err, ErrSandboxDisabled)
	})

	t.Run("a bundle naming a non-demo identity is never honored", func(t *testing.T) {
		decoder := NewCredentialDecoder(tokens, issuer, true)
		forged := encodeBundle(t, SandboxBundle{
			Sandbox:   true,
			AccountID: "acc-1",
			Name:      "Asha",
			Phone:     "+919876543210",
			Role:      domain.RoleAdmin,
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		})
		_, err := decoder.Decode(forged)
		assert.ErrorIs(t, err, ErrSandboxIdentity)
	})

	t.Run("a bundle mixing a demo identity with a foreign one is refused", func(t *testing.T) {
		// Pairing the published demo phone with someone else's email must not
		// open a resolution path to that email's account.
		decoder := NewCredentialDecoder(tokens, issuer, true)
		mixed := encodeBundle(t, SandboxBundle{
			Sandbox:   true,
			AccountID: "acc-demo",
			Phone:     "+919876500001",
			Email:     "victim@example.org",
			Role:      domain.RoleCustomer,
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		})
		_, err := decoder.Decode(mixed)
		assert.ErrorIs(t, err, ErrSandboxIdentity)
	})

	t.Run("a bundle naming no identity at all is refused", func(t *testing.T) {
		decoder := NewCredentialDecoder(tokens, issuer, true)
		empty := encodeBundle(t, SandboxBundle{
			Sandbox:   true,
			AccountID: "acc-demo",
			Role:      domain.RoleCustomer,
			IssuedAt:  time.Now(),
			ExpiresAt: time.Now().Add(time.Hour),
		})
		_, err := decoder.Decode(empty)
		assert.ErrorIs(t, err, ErrSandboxIdentity)
	})

	t.Run("expired bundles are rejected", func(t *testing.T) {
		decoder := NewCredentialDecoder(tokens, issuer, true)
		stale := encodeBundle(t, SandboxBundle{
			Sandbox:   true,
			AccountID: "acc-demo",
			Phone:     "+919876500001",
			Role:      domain.RoleCustomer,
			IssuedAt:  time.Now().Add(-48 * time.Hour),
			ExpiresAt: time.Now().Add(-24 * time.Hour),
		})
		_, err := decoder.Decode(stale)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("the discriminator never reaches the signed-token parser", func(t *testing.T) {
		// A signed token with the prefix bolted on must fail as a sandbox
		// bundle rather than fall through to signature verification.
		decoder := NewCredentialDecoder(tokens, issuer, true)
		signed, _, err := tokens.Issue(verifiedAccount())
		require.NoError(t, err)

		cred, err := decoder.Decode("demo." + signed)
		assert.Nil(t, cred)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("garbage after the discriminator is malformed", func(t *testing.T) {
		decoder := NewCredentialDecoder(tokens, issuer, true)
		for _, token := range []string{"demo.", "demo.%%%", "demo." + base64.RawURLEncoding.EncodeToString([]byte("not json"))} {
			_, err := decoder.Decode(token)
			assert.ErrorIs(t, err, ErrMalformed, token)
		}
	})
}
