package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/config"
	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/repository"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

// AuthService coordinates registration, login and token issuance. Demo
// accounts receive sandbox bundles when sandbox mode is enabled; everyone
// else gets a signed token.
type AuthService struct {
	accounts       repository.AccountRepository
	tokenMgr       *auth.TokenManager
	sandbox        *auth.SandboxIssuer
	sandboxEnabled bool
	bcryptCost     int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:       deps.AccountRepo,
		tokenMgr:       auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()),
		sandbox:        auth.NewSandboxIssuer(cfg.SandboxTTL(), cfg.DemoIdentities),
		sandboxEnabled: cfg.SandboxEnabled,
		bcryptCost:     cfg.BcryptCost,
	}
}

// Register creates a new account with an email credential.
func (s *AuthService) Register(ctx context.Context, name, email, password string, phone *string) (*domain.Account, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewValidationError("name, email and password are required", nil)
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
	}
	if phone != nil {
		if _, err := s.accounts.GetByPhone(ctx, *phone); err == nil {
			return nil, "", time.Time{}, apperrors.NewConflict("phone already registered", map[string]any{"phone": *phone})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}

	account := &domain.Account{
		Name:         name,
		Email:        &email,
		Phone:        phone,
		PasswordHash: &hash,
		Role:         domain.RoleCustomer,
		IsVerified:   false,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
	}

	token, exp, err := s.issue(account)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return account, token, exp, nil
}

// Login authenticates an email credential.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Account, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewInvalidCredential("invalid email or password", nil)
		}
		return nil, "", time.Time{}, apperrors.NewStoreUnavailable(err)
	}
	if !account.HasCredential() {
		return nil, "", time.Time{}, apperrors.NewInvalidCredential("invalid email or password", nil)
	}
	if err := auth.ComparePassword(*account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInvalidCredential("invalid email or password", nil)
	}

	token, exp, err := s.issue(account)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return account, token, exp, nil
}

// IssueFor mints a session token for an already-verified account, e.g. after
// a successful OTP verification.
func (s *AuthService) IssueFor(account *domain.Account) (string, time.Time, error) {
	token, exp, err := s.issue(account)
	if err != nil {
		return "", time.Time{}, apperrors.NewInternalError(err)
	}
	return token, exp, nil
}

func (s *AuthService) issue(account *domain.Account) (string, time.Time, error) {
	if s.sandboxEnabled && s.sandbox.Allows(account) {
		return s.sandbox.Issue(account)
	}
	return s.tokenMgr.Issue(account)
}

// TokenManager exposes the signed-token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// SandboxIssuer exposes the demo issuer for middleware wiring.
func (s *AuthService) SandboxIssuer() *auth.SandboxIssuer {
	return s.sandbox
}
