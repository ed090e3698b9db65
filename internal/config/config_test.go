package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 6, cfg.OTP.Digits)
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, time.Minute, cfg.OTP.Cooldown)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.JWT.LoginTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.VerifyTTL)
	assert.Equal(t, "Africa/Lagos", cfg.Delivery.TimeZone)
	assert.Equal(t, "riders.location", cfg.NATS.LocationSubject)
	assert.Equal(t, 1.0, cfg.TraceSampleRatio)
	assert.True(t, cfg.InsecureJWTSecret())
	assert.False(t, cfg.SMTP.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-real-secret")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT_BACKEND", "MEMORY")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "a-real-secret", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.False(t, cfg.InsecureJWTSecret())
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SMTP_HOST=smtp.example.com\nSMTP_SENDER_EMAIL=noreply@example.com\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SMTP_HOST")
		os.Unsetenv("SMTP_SENDER_EMAIL")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.True(t, cfg.SMTP.Enabled())
}

func TestConfig_Validate(t *testing.T) {
	t.Setenv("OTP_DIGITS", "2")
	t.Setenv("RATE_LIMIT_BACKEND", "etcd")
	t.Setenv("DELIVERY_TIMEZONE", "Mars/Olympus")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OTP_DIGITS")
	assert.Contains(t, err.Error(), "RATE_LIMIT_BACKEND")
	assert.Contains(t, err.Error(), "DELIVERY_TIMEZONE")
	assert.Contains(t, err.Error(), "OTEL_TRACES_SAMPLER_ARG")
}
