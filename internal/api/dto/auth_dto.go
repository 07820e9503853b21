package dto

import (
	"time"

	"github.com/spec-kit/grievance-portal/internal/domain"
)

// SendOTPRequest payload.
type SendOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// VerifyOTPRequest payload.
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}

// RegisterRequest payload.
type RegisterRequest struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"phone,omitempty"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the account projection returned with tokens.
type UserResponse struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Phone      *string            `json:"phone,omitempty"`
	Email      *string            `json:"email,omitempty"`
	Role       domain.AccountRole `json:"role"`
	IsVerified bool               `json:"isVerified"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// NewUserResponse maps an account to its API projection.
func NewUserResponse(account *domain.Account) UserResponse {
	return UserResponse{
		ID:         account.ID,
		Name:       account.Name,
		Phone:      account.Phone,
		Email:      account.Email,
		Role:       account.Role,
		IsVerified: account.IsVerified,
		CreatedAt:  account.CreatedAt,
	}
}
