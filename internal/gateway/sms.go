package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/grievance-portal/internal/config"
)

// SMSSender delivers one-time codes to phones. Delivery failure must surface
// as an error within a bounded time, never a hang.
type SMSSender interface {
	SendCode(ctx context.Context, phone, code string, expiresAt time.Time) error
}

// WebhookSMSGateway posts delivery requests to an external SMS provider.
type WebhookSMSGateway struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewSMSGateway builds a webhook-backed sender, or a log-only sender when no
// gateway URL is configured (development mode).
func NewSMSGateway(cfg config.SMSConfig, logger *zap.Logger) SMSSender {
	if cfg.GatewayURL == "" {
		logger.Warn("SMS_GATEWAY_URL not configured; codes will only be logged")
		return &logSMSGateway{logger: logger}
	}
	return &WebhookSMSGateway{
		url:    cfg.GatewayURL,
		client: &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
	}
}

type smsPayload struct {
	Phone     string    `json:"phone"`
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SendCode posts the code to the provider with the client's bounded timeout.
func (g *WebhookSMSGateway) SendCode(ctx context.Context, phone, code string, expiresAt time.Time) error {
	body, err := json.Marshal(smsPayload{
		Phone:     phone,
		Message:   fmt.Sprintf("Your grievance portal verification code is %s", code),
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	g.logger.Info("otp dispatched", zap.String("phone", phone))
	return nil
}

// logSMSGateway logs instead of delivering; used when no provider is wired.
type logSMSGateway struct {
	logger *zap.Logger
}

func (g *logSMSGateway) SendCode(_ context.Context, phone, code string, expiresAt time.Time) error {
	g.logger.Info("otp delivery (log only)",
		zap.String("phone", phone),
		zap.String("code", code),
		zap.Time("expires_at", expiresAt),
	)
	return nil
}
