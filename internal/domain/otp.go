package domain

import "time"

// OTPPurpose tags why a code was issued.
type OTPPurpose string

const (
	OTPPurposeLogin OTPPurpose = "LOGIN"
)

// OneTimeCode is a short-lived numeric credential bound to a phone number.
// At most one unused row per phone is treated as active; issuing a new code
// removes prior unused or expired rows.
type OneTimeCode struct {
	ID        string
	Phone     string
	Code      string
	Purpose   OTPPurpose
	Attempts  int
	Used      bool
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the code is past its window at the given instant.
func (c *OneTimeCode) ExpiredAt(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
