package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/grievance-portal/internal/api/dto"
	"github.com/spec-kit/grievance-portal/internal/auth"
	"github.com/spec-kit/grievance-portal/internal/service"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

// AuthHandler serves OTP and credential authentication endpoints.
type AuthHandler struct {
	otp  *service.OTPService
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(otpService *service.OTPService, authService *service.AuthService) *AuthHandler {
	return &AuthHandler{otp: otpService, auth: authService}
}

// SendOTP POST /auth/send-otp.
func (h *AuthHandler) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PhoneNumber == "" {
		return apperrors.NewValidationError("phoneNumber required", nil)
	}

	expiresIn, err := h.otp.RequestCode(c.Context(), req.PhoneNumber)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OTP sent successfully", fiber.Map{
		"expiresIn": int(expiresIn.Seconds()),
	})
}

// VerifyOTP POST /auth/verify-otp.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PhoneNumber == "" || req.OTP == "" {
		return apperrors.NewValidationError("phoneNumber and otp required", nil)
	}

	account, err := h.otp.VerifyCode(c.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		return err
	}
	token, _, err := h.auth.IssueFor(account)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OTP verified successfully", fiber.Map{
		"token": token,
		"user":  dto.NewUserResponse(account),
	})
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	account, token, _, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password, req.Phone)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "registration successful", fiber.Map{
		"token": token,
		"user":  dto.NewUserResponse(account),
	})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	account, token, _, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "login successful", fiber.Map{
		"token": token,
		"user":  dto.NewUserResponse(account),
	})
}

// ValidateToken GET /auth/validate-token.
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user := fiber.Map{
		"id":         principal.AccountID,
		"name":       principal.Name,
		"role":       principal.Role,
		"isVerified": principal.Verified,
		"demo":       principal.Demo,
	}
	if principal.Account != nil {
		return respond(c, http.StatusOK, "token valid", fiber.Map{
			"user": dto.NewUserResponse(principal.Account),
		})
	}
	return respond(c, http.StatusOK, "token valid", fiber.Map{"user": user})
}
