package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "change-me-edhf-logistics-secret"

type HTTPConfig struct {
	Port            string        `mapstructure:"HTTP_PORT"`
	ReadTimeout     time.Duration `mapstructure:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"HTTP_WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"HTTP_SHUTDOWN_TIMEOUT"`
	MaxUploadBytes  int64         `mapstructure:"HTTP_MAX_UPLOAD_BYTES"`
}

type MongoConfig struct {
	URI      string `mapstructure:"MONGO_URI"`
	Database string `mapstructure:"MONGO_DATABASE"`
	User     string `mapstructure:"MONGO_USER"`
	Password string `mapstructure:"MONGO_PASSWORD"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type NATSConfig struct {
	URL             string `mapstructure:"NATS_URL"`
	LocationSubject string `mapstructure:"NATS_LOCATION_SUBJECT"`
	DeliverySubject string `mapstructure:"NATS_DELIVERY_SUBJECT"`
	AccountSubject  string `mapstructure:"NATS_ACCOUNT_SUBJECT"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"JWT_SECRET"`
	LoginTTL  time.Duration `mapstructure:"JWT_LOGIN_TTL"`
	VerifyTTL time.Duration `mapstructure:"JWT_VERIFY_TTL"`
}

type OTPConfig struct {
	Digits      int           `mapstructure:"OTP_DIGITS"`
	TTL         time.Duration `mapstructure:"OTP_TTL"`
	Cooldown    time.Duration `mapstructure:"OTP_RESEND_COOLDOWN"`
	MaxAttempts int           `mapstructure:"OTP_MAX_ATTEMPTS"`
	HashCost    int           `mapstructure:"OTP_HASH_COST"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"SMTP_HOST"`
	Port        int    `mapstructure:"SMTP_PORT"`
	Username    string `mapstructure:"SMTP_USERNAME"`
	Password    string `mapstructure:"SMTP_PASSWORD"`
	SenderEmail string `mapstructure:"SMTP_SENDER_EMAIL"`
	SenderName  string `mapstructure:"SMTP_SENDER_NAME"`
	Encryption  string `mapstructure:"SMTP_ENCRYPTION"`
	ServerName  string `mapstructure:"SMTP_SERVER_NAME"`
	AdminEmail  string `mapstructure:"ADMIN_EMAIL"`
}

// Enabled reports whether enough is configured to actually send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.Port != 0 && c.SenderEmail != ""
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"MINIO_ENDPOINT"`
	AccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	SecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	Bucket    string `mapstructure:"MINIO_BUCKET"`
	UseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
}

type RateLimitConfig struct {
	// Backend is "redis" or "memory".
	Backend  string        `mapstructure:"RATE_LIMIT_BACKEND"`
	Requests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	Window   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
}

type DeliveryConfig struct {
	TimeZone    string        `mapstructure:"DELIVERY_TIMEZONE"`
	LocationTTL time.Duration `mapstructure:"RIDER_LOCATION_TTL"`
}

type Config struct {
	ServiceName  string `mapstructure:"SERVICE_NAME"`
	Env          string `mapstructure:"APP_ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	LogFormat    string `mapstructure:"LOG_FORMAT"`
	LogFile      string `mapstructure:"LOG_OUTPUT_FILE"`
	MetricsPort  string `mapstructure:"METRICS_PORT"`
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// TraceSampleRatio is the share of new root traces that are recorded.
	TraceSampleRatio float64 `mapstructure:"OTEL_TRACES_SAMPLER_ARG"`

	HTTP      HTTPConfig      `mapstructure:",squash"`
	Mongo     MongoConfig     `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	NATS      NATSConfig      `mapstructure:",squash"`
	JWT       JWTConfig       `mapstructure:",squash"`
	OTP       OTPConfig       `mapstructure:",squash"`
	SMTP      SMTPConfig      `mapstructure:",squash"`
	Minio     MinioConfig     `mapstructure:",squash"`
	RateLimit RateLimitConfig `mapstructure:",squash"`
	Delivery  DeliveryConfig  `mapstructure:",squash"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVICE_NAME", "edhf-logistics")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT_FILE", "stdout")
	v.SetDefault("METRICS_PORT", "9100")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_TRACES_SAMPLER_ARG", 1.0)

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("HTTP_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP_WRITE_TIMEOUT", 30*time.Second)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second)
	v.SetDefault("HTTP_MAX_UPLOAD_BYTES", 5<<20)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "edhf_logistics")
	v.SetDefault("MONGO_USER", "")
	v.SetDefault("MONGO_PASSWORD", "")

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("NATS_URL", "nats://localhost:4222")
	v.SetDefault("NATS_LOCATION_SUBJECT", "riders.location")
	v.SetDefault("NATS_DELIVERY_SUBJECT", "deliveries")
	v.SetDefault("NATS_ACCOUNT_SUBJECT", "accounts")

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_LOGIN_TTL", 24*time.Hour)
	v.SetDefault("JWT_VERIFY_TTL", 7*24*time.Hour)

	v.SetDefault("OTP_DIGITS", 6)
	v.SetDefault("OTP_TTL", 10*time.Minute)
	v.SetDefault("OTP_RESEND_COOLDOWN", time.Minute)
	v.SetDefault("OTP_MAX_ATTEMPTS", 5)
	v.SetDefault("OTP_HASH_COST", 10)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_SENDER_EMAIL", "")
	v.SetDefault("SMTP_SENDER_NAME", "EDHF Logistics")
	v.SetDefault("SMTP_ENCRYPTION", "starttls")
	v.SetDefault("SMTP_SERVER_NAME", "")
	v.SetDefault("ADMIN_EMAIL", "")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "profile-images")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("RATE_LIMIT_BACKEND", "redis")
	v.SetDefault("RATE_LIMIT_REQUESTS", 10)
	v.SetDefault("RATE_LIMIT_WINDOW", time.Minute)

	v.SetDefault("DELIVERY_TIMEZONE", "Africa/Lagos")
	v.SetDefault("RIDER_LOCATION_TTL", 10*time.Minute)
}

// Load reads an optional .env file, then the environment, on top of defaults.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// A missing file is normal outside local development.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.RateLimit.Backend = strings.ToLower(cfg.RateLimit.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Mongo.Database == "" {
		errs = append(errs, errors.New("MONGO_DATABASE is required"))
	}
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		errs = append(errs, fmt.Errorf("OTP_DIGITS must be between 4 and 10, got %d", c.OTP.Digits))
	}
	if c.OTP.MaxAttempts <= 0 {
		errs = append(errs, errors.New("OTP_MAX_ATTEMPTS must be positive"))
	}
	if c.RateLimit.Backend != "redis" && c.RateLimit.Backend != "memory" {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND must be redis or memory, got %q", c.RateLimit.Backend))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG must be between 0 and 1, got %g", c.TraceSampleRatio))
	}
	if _, err := time.LoadLocation(c.Delivery.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("DELIVERY_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// InsecureJWTSecret reports whether the signing secret is still the shipped default.
func (c *Config) InsecureJWTSecret() bool {
	return c.JWT.Secret == defaultJWTSecret
}
