package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "grievance-portal", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 6, cfg.OTP.CodeLength)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL())
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL())
	assert.False(t, cfg.Auth.SandboxEnabled)
}

func TestLoadRejectsSandboxInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_SANDBOX_ENABLED", "true")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_SANDBOX_ENABLED")
}

func TestLoadParsesDemoIdentities(t *testing.T) {
	t.Setenv("AUTH_SANDBOX_ENABLED", "true")
	t.Setenv("AUTH_DEMO_IDENTITIES", " +919876500001 , demo.admin@example.org ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"+919876500001", "demo.admin@example.org"}, cfg.Auth.DemoIdentities)
}

func TestDurationFallbacks(t *testing.T) {
	assert.Equal(t, 5*time.Minute, OTPConfig{}.TTL())
	assert.Equal(t, 10*time.Minute, OTPConfig{}.SweepInterval())
	assert.Equal(t, 24*time.Hour, AuthConfig{}.SandboxTTL())
	assert.Equal(t, 5*time.Second, SMSConfig{}.Timeout())
}
