package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	OTP      OTPConfig
	SMS      SMSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLDays    int
	BcryptCost      int
	SandboxEnabled  bool
	DemoIdentities  []string
	SandboxTTLHours int
}

// OTPConfig bounds the one-time-code lifecycle.
type OTPConfig struct {
	CodeLength         int
	TTLMinutes         int
	MaxAttempts        int
	SweepIntervalMin   int
	RateLimitPerMinute int
}

// SMSConfig points at the outbound delivery gateway.
type SMSConfig struct {
	GatewayURL     string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "grievance-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLDays:    getEnvAsInt("AUTH_TOKEN_TTL_DAYS", 30),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 12),
			SandboxEnabled:  getEnvAsBool("AUTH_SANDBOX_ENABLED", false),
			DemoIdentities:  getEnvAsList("AUTH_DEMO_IDENTITIES"),
			SandboxTTLHours: getEnvAsInt("AUTH_SANDBOX_TTL_HOURS", 24),
		},
		OTP: OTPConfig{
			CodeLength:         getEnvAsInt("OTP_CODE_LENGTH", 6),
			TTLMinutes:         getEnvAsInt("OTP_TTL_MINUTES", 5),
			MaxAttempts:        getEnvAsInt("OTP_MAX_ATTEMPTS", 3),
			SweepIntervalMin:   getEnvAsInt("OTP_SWEEP_INTERVAL_MINUTES", 10),
			RateLimitPerMinute: getEnvAsInt("OTP_RATE_LIMIT_PER_MINUTE", 5),
		},
		SMS: SMSConfig{
			GatewayURL:     getEnv("SMS_GATEWAY_URL", ""),
			TimeoutSeconds: getEnvAsInt("SMS_TIMEOUT_SECONDS", 5),
		},
	}

	if cfg.Auth.SandboxEnabled && strings.EqualFold(cfg.App.Env, "production") {
		return nil, fmt.Errorf("AUTH_SANDBOX_ENABLED must be false in production")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// TokenTTL returns the production token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	if a.TokenTTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(a.TokenTTLDays) * 24 * time.Hour
}

// SandboxTTL returns the demo bundle lifetime.
func (a AuthConfig) SandboxTTL() time.Duration {
	if a.SandboxTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.SandboxTTLHours) * time.Hour
}

// TTL returns the code validity window.
func (o OTPConfig) TTL() time.Duration {
	if o.TTLMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(o.TTLMinutes) * time.Minute
}

// SweepInterval returns the cleanup cadence.
func (o OTPConfig) SweepInterval() time.Duration {
	if o.SweepIntervalMin <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(o.SweepIntervalMin) * time.Minute
}

// Timeout bounds a single gateway call.
func (s SMSConfig) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
