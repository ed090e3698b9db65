package otp

import (
	"fmt"
	"testing"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// sequenceGenerator hands out 100001, 100002, ...
func sequenceGenerator() func(int) (string, error) {
	n := 100000
	return func(int) (string, error) {
		n++
		return fmt.Sprintf("%06d", n), nil
	}
}

func newTestEngine() (*Engine, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.HashCost = bcrypt.MinCost
	return NewEngine(cfg, WithClock(clock.Now), WithGenerator(sequenceGenerator())), clock
}

func TestEngine_Issue(t *testing.T) {
	e, clock := newTestEngine()
	var rec domain.OTPRecord
	rec.Attempts = 3

	code, err := e.Issue(&rec)
	require.NoError(t, err)
	assert.Equal(t, "100001", code)
	assert.NotEqual(t, code, rec.CodeHash)
	assert.Equal(t, 0, rec.Attempts)
	require.NotNil(t, rec.ExpiresAt)
	assert.Equal(t, clock.Now().Add(10*time.Minute), *rec.ExpiresAt)
	require.NotNil(t, rec.LastSentAt)
	assert.Equal(t, clock.Now(), *rec.LastSentAt)
}

func TestEngine_VerifyBeforeIssue(t *testing.T) {
	e, _ := newTestEngine()
	for _, code := range []string{"", "000000", "100001"} {
		creds := &domain.Credentials{}
		assert.ErrorIs(t, e.Verify(creds, code), domain.ErrOTPNotFound)
	}
}

func TestEngine_VerifySuccess(t *testing.T) {
	e, _ := newTestEngine()
	creds := &domain.Credentials{}
	code, err := e.Issue(&creds.OTP)
	require.NoError(t, err)

	require.NoError(t, e.Verify(creds, code))
	assert.True(t, creds.Verified)
	assert.Empty(t, creds.OTP.CodeHash)
	assert.Nil(t, creds.OTP.ExpiresAt)
	assert.Equal(t, 0, creds.OTP.Attempts)

	assert.ErrorIs(t, e.Verify(creds, code), domain.ErrAlreadyVerified)
}

func TestEngine_ExpiryBoundary(t *testing.T) {
	testCases := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"one second before expiry", 10*time.Minute - time.Second, nil},
		{"one second after expiry", 10*time.Minute + time.Second, domain.ErrOTPExpired},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, clock := newTestEngine()
			creds := &domain.Credentials{}
			code, err := e.Issue(&creds.OTP)
			require.NoError(t, err)

			clock.Advance(tc.elapsed)
			err = e.Verify(creds, code)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, creds.Verified)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.False(t, creds.Verified)
			}
		})
	}
}

func TestEngine_AttemptCapUntilResend(t *testing.T) {
	e, clock := newTestEngine()
	creds := &domain.Credentials{}
	code, err := e.Issue(&creds.OTP)
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		assert.ErrorIs(t, e.Verify(creds, "999999"), domain.ErrInvalidOTP)
		assert.Equal(t, i, creds.OTP.Attempts)
	}

	// The correct code is refused once the cap is reached.
	assert.ErrorIs(t, e.Verify(creds, code), domain.ErrTooManyAttempts)
	assert.Equal(t, domain.KindRateLimited, domain.KindOf(domain.ErrTooManyAttempts))

	clock.Advance(time.Minute)
	newCode, err := e.Resend(creds)
	require.NoError(t, err)
	assert.Equal(t, 0, creds.OTP.Attempts)
	require.NoError(t, e.Verify(creds, newCode))
}

func TestEngine_ResendCooldown(t *testing.T) {
	e, clock := newTestEngine()
	creds := &domain.Credentials{}
	first, err := e.Issue(&creds.OTP)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = e.Resend(creds)
	assert.ErrorIs(t, err, domain.ErrResendCooldown)

	clock.Advance(30 * time.Second)
	second, err := e.Resend(creds)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	assert.ErrorIs(t, e.Verify(creds, first), domain.ErrInvalidOTP)
	require.NoError(t, e.Verify(creds, second))
}

func TestEngine_ResendVerified(t *testing.T) {
	e, _ := newTestEngine()
	creds := &domain.Credentials{Verified: true}
	_, err := e.Resend(creds)
	assert.ErrorIs(t, err, domain.ErrAlreadyVerified)
}

func TestEngine_RedeemKeepsVerifiedFlag(t *testing.T) {
	e, clock := newTestEngine()
	creds := &domain.Credentials{Verified: true}

	assert.ErrorIs(t, e.Redeem(&creds.OTP, "123456"), domain.ErrOTPNotFound)

	code, err := e.Reissue(&creds.OTP)
	require.NoError(t, err)
	assert.ErrorIs(t, e.Redeem(&creds.OTP, "000000"), domain.ErrInvalidOTP)
	require.NoError(t, e.Redeem(&creds.OTP, code))
	assert.True(t, creds.Verified)

	// A redeemed code cannot be used twice.
	assert.ErrorIs(t, e.Redeem(&creds.OTP, code), domain.ErrOTPExpired)

	// Cooldown still counts from the last issuance.
	_, err = e.Reissue(&creds.OTP)
	assert.ErrorIs(t, err, domain.ErrResendCooldown)
	clock.Advance(time.Minute)
	_, err = e.Reissue(&creds.OTP)
	assert.NoError(t, err)
}

func TestNewCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, c := range code {
			require.True(t, c >= '0' && c <= '9', "non-digit in %q", code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 1)

	_, err := NewCode(0)
	assert.Error(t, err)
}

func TestNewEngine_Defaults(t *testing.T) {
	e := NewEngine(Config{HashCost: 99})
	cfg := e.Config()
	assert.Equal(t, 6, cfg.Digits)
	assert.Equal(t, 10*time.Minute, cfg.TTL)
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, bcrypt.DefaultCost, cfg.HashCost)
}
