package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/config"
	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

func authConfigForTest() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:    "test-secret-do-not-use",
		TokenTTLDays: 30,
		BcryptCost:   4, // minimum cost keeps the suite fast
	}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an account and issues a signed token", func(t *testing.T) {
		accounts := newFakeAccountRepo()
		svc := NewAuthService(authConfigForTest(), AuthDependencies{AccountRepo: accounts})

		account, token, exp, err := svc.Register(ctx, "Asha", "Asha@Example.org", "s3cret-pass", nil)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleCustomer, account.Role)
		assert.False(t, account.IsVerified)
		require.NotNil(t, account.Email)
		assert.Equal(t, "asha@example.org", *account.Email)
		assert.NotEmpty(t, token)
		assert.False(t, strings.HasPrefix(token, "demo."))
		assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), exp, time.Minute)

		claims, err := svc.TokenManager().Parse(token)
		require.NoError(t, err)
		assert.Equal(t, account.ID, claims.AccountID)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		accounts := newFakeAccountRepo()
		svc := NewAuthService(authConfigForTest(), AuthDependencies{AccountRepo: accounts})

		_, _, _, err := svc.Register(ctx, "Asha", "asha@example.org", "s3cret-pass", nil)
		require.NoError(t, err)

		_, _, _, err = svc.Register(ctx, "Imposter", "ASHA@example.org", "other-pass", nil)
		de := apperrors.ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, "CONFLICT", de.Code)
	})

	t.Run("rejects duplicate phone", func(t *testing.T) {
		accounts := newFakeAccountRepo()
		svc := NewAuthService(authConfigForTest(), AuthDependencies{AccountRepo: accounts})

		phone := "+919876543210"
		_, _, _, err := svc.Register(ctx, "Asha", "asha@example.org", "s3cret-pass", &phone)
		require.NoError(t, err)

		_, _, _, err = svc.Register(ctx, "Ravi", "ravi@example.org", "other-pass", &phone)
		de := apperrors.ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, "CONFLICT", de.Code)
	})

	t.Run("requires all fields", func(t *testing.T) {
		accounts := newFakeAccountRepo()
		svc := NewAuthService(authConfigForTest(), AuthDependencies{AccountRepo: accounts})
		_, _, _, err := svc.Register(ctx, "Asha", "", "s3cret-pass", nil)
		de := apperrors.ToDomainError(err)
		require.NotNil(t, de)
		assert.Equal(t, "VALIDATION_FAILED", de.Code)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) *AuthService {
		t.Helper()
		accounts := newFakeAccountRepo()
		svc := NewAuthService(authConfigForTest(), AuthDependencies{AccountRepo: accounts})
		_, _, _, err := svc.Register(ctx, "Asha", "asha@example.org", "s3cret-pass", nil)
		require.NoError(t, err)
		return svc
	}

	t.Run("valid credentials", func(t *testing.T) {
		svc := setup(t)
		account, token, _, err := svc.Login(ctx, "asha@example.org", "s3cret-pass")
		require.NoError(t, err)
		assert.Equal(t, "Asha", account.Name)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password and unknown email yield the same error code", func(t *testing.T) {
		svc := setup(t)
		_, _, _, err := svc.Login(ctx, "asha@example.org", "wrong-pass")
		assert.Equal(t, "INVALID_CREDENTIAL", apperrors.ToDomainError(err).Code)

		_, _, _, err = svc.Login(ctx, "nobody@example.org", "s3cret-pass")
		assert.Equal(t, "INVALID_CREDENTIAL", apperrors.ToDomainError(err).Code)
	})

	t.Run("otp placeholder accounts cannot password-login", func(t *testing.T) {
		accounts := newFakeAccountRepo()
		svc := NewAuthService(authConfigForTest(), AuthDependencies{AccountRepo: accounts})
		email := "placeholder@example.org"
		require.NoError(t, accounts.Create(ctx, &domain.Account{Email: &email, Role: domain.RoleCustomer}))

		_, _, _, err := svc.Login(ctx, email, "anything")
		assert.Equal(t, "INVALID_CREDENTIAL", apperrors.ToDomainError(err).Code)
	})
}

func TestSandboxIssuance(t *testing.T) {
	ctx := context.Background()

	cfg := authConfigForTest()
	cfg.SandboxEnabled = true
	cfg.DemoIdentities = []string{"demo.citizen@example.org"}
	cfg.SandboxTTLHours = 24

	accounts := newFakeAccountRepo()
	svc := NewAuthService(cfg, AuthDependencies{AccountRepo: accounts})

	t.Run("demo identity receives a sandbox bundle", func(t *testing.T) {
		account, token, _, err := svc.Register(ctx, "Demo Citizen", "demo.citizen@example.org", "demo-pass", nil)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(token, "demo."))

		decoder := auth.NewCredentialDecoder(svc.TokenManager(), svc.SandboxIssuer(), true)
		cred, err := decoder.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, auth.CredentialSandbox, cred.Kind)
		require.NotNil(t, cred.Sandbox)
		assert.Equal(t, account.ID, cred.Sandbox.AccountID)
	})

	t.Run("regular identity still receives a signed token", func(t *testing.T) {
		_, token, _, err := svc.Register(ctx, "Asha", "asha@example.org", "s3cret-pass", nil)
		require.NoError(t, err)
		assert.False(t, strings.HasPrefix(token, "demo."))
	})
}
