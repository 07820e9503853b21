package domain

import "time"

// AccountRole enumerates portal roles.
type AccountRole string

const (
	RoleCustomer AccountRole = "CUSTOMER"
	RoleStaff    AccountRole = "STAFF"
	RoleAdmin    AccountRole = "ADMIN"
)

// Account is the domain model for anyone who can authenticate: citizens,
// staff and administrators. Phone-only accounts have no password hash.
type Account struct {
	ID           string
	Name         string
	Phone        *string
	Email        *string
	PasswordHash *string
	Role         AccountRole
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasCredential reports whether the account can log in with a password.
func (a *Account) HasCredential() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// IsPrivileged reports whether the account may run the admin workflow.
func (a *Account) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleStaff
}
