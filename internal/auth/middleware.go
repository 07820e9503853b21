package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/repository"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	AccountID string
	Name      string
	Role      domain.AccountRole
	Verified  bool
	// Demo marks sandbox-bundle callers. Their principal is bound to the
	// stored demo account, never to the unsigned bundle's snapshot.
	Demo    bool
	Account *domain.Account
}

// Middleware validates bearer credentials and loads principals.
type Middleware struct {
	decoder  *CredentialDecoder
	accounts repository.AccountRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(decoder *CredentialDecoder, accounts repository.AccountRepository) *Middleware {
	return &Middleware{decoder: decoder, accounts: accounts}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// HandleOptional resolves a principal when a bearer token is present but
// lets anonymous requests through (used on complaint submission).
func (m *Middleware) HandleOptional(c *fiber.Ctx) error {
	if c.Get("Authorization") == "" {
		return c.Next()
	}
	principal, err := m.resolve(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *Middleware) resolve(c *fiber.Ctx) (*Principal, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, apperrors.NewUnauthorized("invalid authorization header")
	}

	credential, err := m.decoder.Decode(parts[1])
	if err != nil {
		switch {
		case errors.Is(err, ErrExpired):
			return nil, apperrors.NewUnauthorized("token expired")
		case errors.Is(err, ErrSandboxDisabled), errors.Is(err, ErrSandboxIdentity):
			return nil, apperrors.NewUnauthorized("sandbox token rejected")
		default:
			return nil, apperrors.NewUnauthorized("invalid token")
		}
	}

	switch credential.Kind {
	case CredentialSandbox:
		// Bundles are unsigned, so the embedded snapshot is never proof of
		// identity. The principal comes from the stored demo account looked
		// up by the allowlisted identity; a bundle whose id or role disagree
		// with the store is forged and rejected.
		bundle := credential.Sandbox
		account, err := m.lookupDemoAccount(c, bundle)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("sandbox token rejected")
			}
			return nil, apperrors.MapError(err)
		}
		if bundle.AccountID != account.ID || bundle.Role != account.Role {
			return nil, apperrors.NewUnauthorized("sandbox token rejected")
		}
		return &Principal{
			AccountID: account.ID,
			Name:      account.Name,
			Role:      account.Role,
			Verified:  account.IsVerified,
			Demo:      true,
			Account:   account,
		}, nil
	case CredentialSigned:
		// Re-fetch so a deleted account invalidates outstanding tokens.
		account, err := m.accounts.GetByID(c.Context(), credential.Claims.AccountID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewUnauthorized("account not found")
			}
			return nil, apperrors.MapError(err)
		}
		return &Principal{
			AccountID: account.ID,
			Name:      account.Name,
			Role:      account.Role,
			Verified:  account.IsVerified,
			Account:   account,
		}, nil
	default:
		return nil, apperrors.NewUnauthorized("unknown credential")
	}
}

// lookupDemoAccount resolves the stored account for a sandbox bundle. The
// decoder has already verified every identity in the bundle is allowlisted,
// so any of them is safe to resolve by.
func (m *Middleware) lookupDemoAccount(c *fiber.Ctx, bundle *SandboxBundle) (*domain.Account, error) {
	if bundle.Phone != "" {
		return m.accounts.GetByPhone(c.Context(), bundle.Phone)
	}
	return m.accounts.GetByEmail(c.Context(), bundle.Email)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
