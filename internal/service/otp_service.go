package service

import (
	"context"
	"crypto/rand"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/config"
	"github.com/spec-kit/grievance-portal/internal/domain"
	"github.com/spec-kit/grievance-portal/internal/events"
	"github.com/spec-kit/grievance-portal/internal/gateway"
	"github.com/spec-kit/grievance-portal/internal/observability"
	"github.com/spec-kit/grievance-portal/internal/repository"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util"
)

// phonePattern is the canonical regional format accepted by the portal.
var phonePattern = regexp.MustCompile(`^\+91[6-9][0-9]{9}$`)

// OTPService owns the one-time-code lifecycle: issue, verify, sweep.
type OTPService struct {
	codes      repository.OTPRepository
	accounts   repository.AccountRepository
	sms        gateway.SMSSender
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.OTPConfig
}

// OTPDependencies bundles collaborators for the OTP service.
type OTPDependencies struct {
	OTPRepo     repository.OTPRepository
	AccountRepo repository.AccountRepository
	SMS         gateway.SMSSender
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewOTPService builds the service.
func NewOTPService(cfg config.OTPConfig, deps OTPDependencies) *OTPService {
	return &OTPService{
		codes:      deps.OTPRepo,
		accounts:   deps.AccountRepo,
		sms:        deps.SMS,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		cfg:        cfg,
	}
}

// RequestCode issues a fresh code for the phone, invalidating prior unused or
// expired codes, and hands it to the SMS gateway. The code never appears in
// the return value; callers only learn the expiry window.
func (s *OTPService) RequestCode(ctx context.Context, phone string) (time.Duration, error) {
	if !phonePattern.MatchString(phone) {
		return 0, apperrors.NewValidationError("phone number must match +91 mobile format", map[string]any{"phoneNumber": phone})
	}

	if err := s.codes.DeleteStale(ctx, phone); err != nil {
		return 0, apperrors.NewStoreUnavailable(err)
	}

	value, err := generateNumericCode(s.cfg.CodeLength)
	if err != nil {
		return 0, apperrors.NewInternalError(err)
	}

	code := &domain.OneTimeCode{
		Phone:     phone,
		Code:      value,
		Purpose:   domain.OTPPurposeLogin,
		Attempts:  0,
		Used:      false,
		ExpiresAt: time.Now().Add(s.cfg.TTL()),
	}
	if err := s.codes.Create(ctx, code); err != nil {
		return 0, apperrors.NewStoreUnavailable(err)
	}

	if _, err := s.accounts.UpsertPlaceholder(ctx, phone); err != nil {
		return 0, apperrors.NewStoreUnavailable(err)
	}

	if err := s.sms.SendCode(ctx, phone, value, code.ExpiresAt); err != nil {
		s.logger.Error("otp delivery failed", zap.String("phone", phone), zap.Error(err))
		return 0, apperrors.NewDomainError("DELIVERY_FAILED", "could not deliver OTP, please retry", http.StatusBadGateway, nil)
	}

	s.metrics.RecordDomainEvent("otp_issued")
	s.publish(ctx, events.Event{
		Type: events.EventOTPIssued,
		Payload: events.OTPIssuedPayload{
			Phone:     phone,
			Code:      value,
			ExpiresAt: code.ExpiresAt,
		},
	})

	return s.cfg.TTL(), nil
}

// VerifyCode checks a submitted code against the active row for the phone.
// On success the row is marked used (retained for audit until the sweep), the
// account is marked verified and returned for token issuance. Attempt
// accounting and the used flag rely on single-row conditional updates, so two
// concurrent verifications cannot both succeed.
func (s *OTPService) VerifyCode(ctx context.Context, phone, submitted string) (*domain.Account, error) {
	if !phonePattern.MatchString(phone) {
		return nil, apperrors.NewValidationError("phone number must match +91 mobile format", map[string]any{"phoneNumber": phone})
	}

	code, err := s.codes.GetActive(ctx, phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("OTP", map[string]any{"phoneNumber": phone})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	now := time.Now()
	if code.ExpiredAt(now) {
		_ = s.codes.Delete(ctx, code.ID)
		return nil, apperrors.NewOTPExpired()
	}

	if code.Attempts >= s.cfg.MaxAttempts {
		_ = s.codes.Delete(ctx, code.ID)
		return nil, apperrors.NewAttemptsExhausted()
	}

	if submitted != code.Code {
		attempts, err := s.codes.IncrementAttempts(ctx, code.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				// Row consumed by a concurrent verification.
				return nil, apperrors.NewNotFound("OTP", nil)
			}
			return nil, apperrors.NewStoreUnavailable(err)
		}
		remaining := s.cfg.MaxAttempts - attempts
		if remaining < 0 {
			remaining = 0
		}
		return nil, apperrors.NewInvalidCredential("incorrect OTP", map[string]any{"attemptsRemaining": remaining})
	}

	if err := s.codes.MarkUsed(ctx, code.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("OTP", nil)
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}

	account, err := s.accounts.UpsertPlaceholder(ctx, phone)
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if !account.IsVerified {
		if err := s.accounts.MarkVerified(ctx, account.ID); err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		account.IsVerified = true
	}

	s.metrics.RecordDomainEvent("otp_verified")
	return account, nil
}

// SweepExpired removes expired and used rows. It is stateless and idempotent
// so the periodic worker can be disabled or externalized without affecting
// verification correctness.
func (s *OTPService) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.codes.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.metrics.RecordDomainEvent("otp_swept")
		s.logger.Info("swept one-time codes", zap.Int64("deleted", deleted))
	}
	return deleted, nil
}

func (s *OTPService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// generateNumericCode draws a fixed-length digit string from crypto/rand.
// Bytes >= 250 are rejected so each digit stays uniform (250 is the largest
// multiple of 10 within a byte).
func generateNumericCode(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	const digits = "0123456789"
	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			out = append(out, digits[int(b)%10])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
