package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/service"
)

// StartOTPSweeper runs the expired-code sweep on a fixed interval until the
// context is cancelled. The sweep is idempotent so a missed or duplicated run
// never affects verification correctness.
func StartOTPSweeper(ctx context.Context, otpService *service.OTPService, interval time.Duration, logger *zap.Logger) {
	if otpService == nil {
		return
	}
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := otpService.SweepExpired(ctx); err != nil {
					logger.Warn("otp sweep failed", zap.Error(err))
				}
			}
		}
	}()
}
