// Package otp implements the one-time-code lifecycle shared by every
// account kind: issuing, verifying with an attempt cap, and resending
// behind a cooldown.
//
// The engine only mutates the in-memory domain.OTPRecord; callers persist it.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Digits      int
	TTL         time.Duration
	Cooldown    time.Duration
	MaxAttempts int
	HashCost    int
}

func DefaultConfig() Config {
	return Config{
		Digits:      6,
		TTL:         10 * time.Minute,
		Cooldown:    time.Minute,
		MaxAttempts: 5,
		HashCost:    bcrypt.DefaultCost,
	}
}

type Engine struct {
	cfg      Config
	now      func() time.Time
	generate func(digits int) (string, error)
}

type Option func(*Engine)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithGenerator overrides the random code source.
func WithGenerator(gen func(digits int) (string, error)) Option {
	return func(e *Engine) { e.generate = gen }
}

func NewEngine(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Digits <= 0 {
		cfg.Digits = def.Digits
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.Cooldown < 0 {
		cfg.Cooldown = 0
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.HashCost < bcrypt.MinCost || cfg.HashCost > bcrypt.MaxCost {
		cfg.HashCost = def.HashCost
	}
	e := &Engine{cfg: cfg, now: time.Now, generate: NewCode}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

// Issue replaces rec with a fresh code and returns the plaintext for delivery.
func (e *Engine) Issue(rec *domain.OTPRecord) (string, error) {
	code, err := e.generate(e.cfg.Digits)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), e.cfg.HashCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}
	now := e.now()
	expires := now.Add(e.cfg.TTL)
	*rec = domain.OTPRecord{
		CodeHash:   string(hash),
		ExpiresAt:  &expires,
		Attempts:   0,
		LastSentAt: &now,
	}
	return code, nil
}

// Verify checks code for an unverified account. On success the account is
// marked verified and the code is cleared. A wrong code increments Attempts
// and returns domain.ErrInvalidOTP.
func (e *Engine) Verify(creds *domain.Credentials, code string) error {
	if !creds.OTP.Exists() {
		return domain.ErrOTPNotFound
	}
	if creds.Verified {
		return domain.ErrAlreadyVerified
	}
	if err := e.check(&creds.OTP, code); err != nil {
		return err
	}
	creds.Verified = true
	consume(&creds.OTP)
	return nil
}

// Redeem checks code without touching the verified flag. Used for password reset.
func (e *Engine) Redeem(rec *domain.OTPRecord, code string) error {
	if !rec.Exists() {
		return domain.ErrOTPNotFound
	}
	if err := e.check(rec, code); err != nil {
		return err
	}
	consume(rec)
	return nil
}

// Resend issues a new code for an unverified account once the cooldown has passed.
func (e *Engine) Resend(creds *domain.Credentials) (string, error) {
	if creds.Verified {
		return "", domain.ErrAlreadyVerified
	}
	return e.Reissue(&creds.OTP)
}

// Reissue is Issue behind the resend cooldown.
func (e *Engine) Reissue(rec *domain.OTPRecord) (string, error) {
	if err := e.CheckCooldown(rec); err != nil {
		return "", err
	}
	return e.Issue(rec)
}

func (e *Engine) CheckCooldown(rec *domain.OTPRecord) error {
	if rec.LastSentAt != nil && e.now().Sub(*rec.LastSentAt) < e.cfg.Cooldown {
		return domain.ErrResendCooldown
	}
	return nil
}

func (e *Engine) check(rec *domain.OTPRecord, code string) error {
	if rec.Attempts >= e.cfg.MaxAttempts {
		return domain.ErrTooManyAttempts
	}
	if !rec.Usable(e.now()) {
		return domain.ErrOTPExpired
	}
	code = strings.TrimSpace(code)
	if err := bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("compare otp: %w", err)
		}
		rec.Attempts++
		return domain.ErrInvalidOTP
	}
	return nil
}

// consume drops the code but keeps LastSentAt so the cooldown still applies.
func consume(rec *domain.OTPRecord) {
	rec.CodeHash = ""
	rec.ExpiresAt = nil
	rec.Attempts = 0
}

// NewCode returns a numeric code with each digit drawn uniformly from crypto/rand.
func NewCode(digits int) (string, error) {
	if digits <= 0 {
		return "", errors.New("invalid otp digits")
	}
	var b strings.Builder
	b.Grow(digits)
	ten := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}
