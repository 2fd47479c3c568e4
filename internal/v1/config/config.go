// Package config validates the process environment (spec §6 Configuration).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Config holds validated environment configuration.
type Config struct {
	// Required variables
	JWTSecret string
	Port      string

	// Optional variables with defaults
	LogLevel       string
	AllowedOrigins string

	// TestMode suppresses the network listener (NODE_ENV/MODE=test), so the
	// room registry and match engine can be exercised in-process without
	// binding a port.
	TestMode bool

	// Rate limits, in ulule/limiter's "<count>-<period>" format.
	RateLimitWsHandshake string
	RateLimitWsEvent     string
}

// ValidateEnv validates all required environment variables and returns a
// Config object. Returns an error if any required variable is missing or
// invalid.
func ValidateEnv() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWTSecret) < 32 {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least 32 characters (got %d)", len(cfg.JWTSecret)))
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		errs = append(errs, "PORT is required")
	} else {
		port, err := strconv.Atoi(cfg.Port)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got '%s')", cfg.Port))
		}
	}

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.TestMode = isTestMode()

	cfg.RateLimitWsHandshake = getEnvOrDefault("RATE_LIMIT_WS_HANDSHAKE", "50-M")
	cfg.RateLimitWsEvent = getEnvOrDefault("RATE_LIMIT_WS_EVENT", "600-M")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return cfg, nil
}

// LogValidated writes a single startup line summarizing the validated
// config, redacting the secret.
func (cfg *Config) LogValidated(logger *zap.Logger) {
	logger.Info("environment configuration validated",
		zap.String("jwt_secret", redactSecret(cfg.JWTSecret)),
		zap.String("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("test_mode", cfg.TestMode),
	)
}

// isTestMode reports whether NODE_ENV or MODE selects test mode, in which
// case the caller should suppress the network listener (spec §6).
func isTestMode() bool {
	for _, v := range []string{os.Getenv("NODE_ENV"), os.Getenv("MODE")} {
		if strings.EqualFold(v, "test") {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func redactSecret(secret string) string {
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:8] + "***"
}
