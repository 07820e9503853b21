package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// Credential validation errors.
var (
	ErrMalformed        = errors.New("malformed token")
	ErrExpired          = errors.New("token expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrSandboxDisabled  = errors.New("sandbox tokens not accepted")
	ErrSandboxIdentity  = errors.New("identity not on sandbox allowlist")
)

// sandboxPrefix is the discriminator separating demo bundles from signed
// tokens. The prefix is checked before any parsing, never as a fallback.
const sandboxPrefix = "demo."

// CredentialKind tags the two variants of a presented credential.
type CredentialKind int

const (
	CredentialSigned CredentialKind = iota
	CredentialSandbox
)

// SandboxBundle is a self-describing, unsigned session credential for demo
// accounts. It carries its own account snapshot so the validator never maps
// it onto a real stored account.
type SandboxBundle struct {
	Sandbox   bool               `json:"sandbox"`
	AccountID string             `json:"account_id"`
	Name      string             `json:"name"`
	Phone     string             `json:"phone,omitempty"`
	Email     string             `json:"email,omitempty"`
	Role      domain.AccountRole `json:"role"`
	IssuedAt  time.Time          `json:"issued_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// Credential is the tagged union the validator dispatches on.
type Credential struct {
	Kind    CredentialKind
	Claims  *Claims
	Sandbox *SandboxBundle
}

// SandboxIssuer mints demo bundles for allowlisted identities.
type SandboxIssuer struct {
	ttl       time.Duration
	allowlist map[string]struct{}
}

// NewSandboxIssuer builds an issuer from the configured demo identities
// (phone numbers or email addresses).
func NewSandboxIssuer(ttl time.Duration, identities []string) *SandboxIssuer {
	allow := make(map[string]struct{}, len(identities))
	for _, id := range identities {
		allow[strings.ToLower(id)] = struct{}{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SandboxIssuer{ttl: ttl, allowlist: allow}
}

// Allows reports whether any of the account's identities is a demo identity.
func (si *SandboxIssuer) Allows(account *domain.Account) bool {
	if account.Phone != nil {
		if _, ok := si.allowlist[strings.ToLower(*account.Phone)]; ok {
			return true
		}
	}
	if account.Email != nil {
		if _, ok := si.allowlist[strings.ToLower(*account.Email)]; ok {
			return true
		}
	}
	return false
}

// allowsBundle checks the embedded snapshot identities against the allowlist.
// Every identity the bundle names must be a demo identity: a bundle mixing an
// allowlisted identity with a real account's phone or email is rejected, so
// the middleware can safely resolve the principal by any identity present.
func (si *SandboxIssuer) allowsBundle(bundle *SandboxBundle) bool {
	if bundle.Phone == "" && bundle.Email == "" {
		return false
	}
	if bundle.Phone != "" {
		if _, ok := si.allowlist[strings.ToLower(bundle.Phone)]; !ok {
			return false
		}
	}
	if bundle.Email != "" {
		if _, ok := si.allowlist[strings.ToLower(bundle.Email)]; !ok {
			return false
		}
	}
	return true
}

// Issue encodes the account snapshot into a demo bundle.
func (si *SandboxIssuer) Issue(account *domain.Account) (string, time.Time, error) {
	if !si.Allows(account) {
		return "", time.Time{}, ErrSandboxIdentity
	}
	now := time.Now()
	bundle := SandboxBundle{
		Sandbox:   true,
		AccountID: account.ID,
		Name:      account.Name,
		Role:      account.Role,
		IssuedAt:  now,
		ExpiresAt: now.Add(si.ttl),
	}
	// Only allowlisted identities are embedded, so the bundle always passes
	// its own decoder even when the account carries extra identities.
	if account.Phone != nil {
		if _, ok := si.allowlist[strings.ToLower(*account.Phone)]; ok {
			bundle.Phone = *account.Phone
		}
	}
	if account.Email != nil {
		if _, ok := si.allowlist[strings.ToLower(*account.Email)]; ok {
			bundle.Email = *account.Email
		}
	}
	raw, err := json.Marshal(bundle)
	if err != nil {
		return "", time.Time{}, err
	}
	return sandboxPrefix + base64.RawURLEncoding.EncodeToString(raw), bundle.ExpiresAt, nil
}

// CredentialDecoder turns a raw bearer token into a tagged Credential.
type CredentialDecoder struct {
	tokens         *TokenManager
	sandbox        *SandboxIssuer
	sandboxEnabled bool
}

// NewCredentialDecoder constructs the decoder used by the middleware.
func NewCredentialDecoder(tokens *TokenManager, sandbox *SandboxIssuer, sandboxEnabled bool) *CredentialDecoder {
	return &CredentialDecoder{tokens: tokens, sandbox: sandbox, sandboxEnabled: sandboxEnabled}
}

// Decode dispatches on the discriminator first. Sandbox bundles are decoded
// and expiry-checked; anything else must be a valid signed token.
func (d *CredentialDecoder) Decode(token string) (*Credential, error) {
	if strings.HasPrefix(token, sandboxPrefix) {
		if !d.sandboxEnabled || d.sandbox == nil {
			return nil, ErrSandboxDisabled
		}
		raw, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(token, sandboxPrefix))
		if err != nil {
			return nil, ErrMalformed
		}
		var bundle SandboxBundle
		if err := json.Unmarshal(raw, &bundle); err != nil || !bundle.Sandbox {
			return nil, ErrMalformed
		}
		if time.Now().After(bundle.ExpiresAt) {
			return nil, ErrExpired
		}
		if !d.sandbox.allowsBundle(&bundle) {
			return nil, ErrSandboxIdentity
		}
		return &Credential{Kind: CredentialSandbox, Sandbox: &bundle}, nil
	}

	claims, err := d.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	return &Credential{Kind: CredentialSigned, Claims: claims}, nil
}
