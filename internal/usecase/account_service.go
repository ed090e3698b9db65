package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/otp"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/platform/metrics"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AccountServiceConfig struct {
	LoginTTL     time.Duration
	VerifyTTL    time.Duration
	PasswordCost int
	// EventSubject receives account lifecycle events. Empty disables them.
	EventSubject string
}

// AccountEvent is published when an account is created or verified.
type AccountEvent struct {
	Event string    `json:"event"`
	Kind  string    `json:"kind"`
	ID    string    `json:"id"`
	Email string    `json:"email"`
	At    time.Time `json:"at"`
}

// AccountService runs the signup, verification and session flows for one
// principal kind.
type AccountService[P domain.Principal] struct {
	repo     repository.AccountRepository[P]
	newP     func(domain.SignupForm) P
	prepare  func(ctx context.Context, p P) error
	otp      *otp.Engine
	sessions Sessions
	mailer   Mailer
	storage  FileStorage
	events   Publisher
	metrics  *metrics.MetricsManager
	cfg      AccountServiceConfig
	kind     string
	log      *logger.Logger
}

type AccountOption[P domain.Principal] func(*AccountService[P])

// WithPrepare runs fn on a new account just before it is stored.
func WithPrepare[P domain.Principal](fn func(ctx context.Context, p P) error) AccountOption[P] {
	return func(s *AccountService[P]) { s.prepare = fn }
}

func WithStorage[P domain.Principal](st FileStorage) AccountOption[P] {
	return func(s *AccountService[P]) { s.storage = st }
}

func WithAccountEvents[P domain.Principal](p Publisher) AccountOption[P] {
	return func(s *AccountService[P]) { s.events = p }
}

func WithAccountMetrics[P domain.Principal](m *metrics.MetricsManager) AccountOption[P] {
	return func(s *AccountService[P]) { s.metrics = m }
}

func NewAccountService[P domain.Principal](
	repo repository.AccountRepository[P],
	newP func(domain.SignupForm) P,
	engine *otp.Engine,
	sessions Sessions,
	mailer Mailer,
	cfg AccountServiceConfig,
	log *logger.Logger,
	opts ...AccountOption[P],
) *AccountService[P] {
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	if cfg.LoginTTL == 0 {
		cfg.LoginTTL = 24 * time.Hour
	}
	if cfg.VerifyTTL == 0 {
		cfg.VerifyTTL = 7 * 24 * time.Hour
	}
	kind := newP(domain.SignupForm{}).Kind()
	s := &AccountService[P]{
		repo:     repo,
		newP:     newP,
		otp:      engine,
		sessions: sessions,
		mailer:   mailer,
		cfg:      cfg,
		kind:     kind,
		log:      log.Named("AccountService").With(zap.String("kind", kind)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Kind is the principal kind this service manages.
func (s *AccountService[P]) Kind() string { return s.kind }

func (s *AccountService[P]) storeErr(err error) error {
	return storageError(err, titleCase(s.kind)+" not found")
}

func (s *AccountService[P]) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "AccountService."+name, trace.WithAttributes(attribute.String("account.kind", s.kind)))
}

func (s *AccountService[P]) findByEmail(ctx context.Context, email string) (P, error) {
	var zero P
	email = domain.NormalizeEmail(email)
	if email == "" {
		return zero, domain.Validation("Email is required")
	}
	p, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return zero, s.storeErr(err)
	}
	return p, nil
}

func (s *AccountService[P]) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkNewPassword(password, confirm string) error {
	if password == "" || confirm == "" {
		return domain.Validation("Password and confirm password are required")
	}
	if password != confirm {
		return domain.ErrPasswordMismatch
	}
	return nil
}

// Signup validates and stores a new account, then mails its verification code.
func (s *AccountService[P]) Signup(ctx context.Context, form domain.SignupForm, image *Upload) (P, error) {
	ctx, span := s.span(ctx, "Signup")
	defer span.End()
	var zero P

	if err := form.Require("email", "password", "confirmPassword"); err != nil {
		return zero, err
	}
	p := s.newP(form)
	if err := p.Validate(); err != nil {
		return zero, err
	}
	password := form.Get("password")
	if err := checkNewPassword(password, form.Get("confirmPassword")); err != nil {
		return zero, err
	}

	acc := p.Account()
	hash, err := s.hashPassword(password)
	if err != nil {
		return zero, err
	}
	acc.PasswordHash = hash

	if image != nil && s.storage != nil {
		url, err := s.storage.Upload(ctx, image.Filename, image.Data)
		if err != nil {
			s.log.Error("Profile image upload failed", zap.String("email", acc.Email), zap.Error(err))
			return zero, domain.Dependency("Failed to upload profile image", err)
		}
		acc.ProfileImage = url
	}

	if s.prepare != nil {
		if err := s.prepare(ctx, p); err != nil {
			return zero, err
		}
	}

	code, err := s.otp.Issue(&acc.OTP)
	if err != nil {
		return zero, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return zero, s.storeErr(err)
	}
	s.metrics.OTPIssued(s.kind, "verification")

	if err := s.mailer.SendVerificationCode(ctx, acc.Email, p.DisplayName(), code, s.otp.Config().TTL); err != nil {
		s.log.Error("Failed to send verification email", zap.String("id", acc.ID.Hex()), zap.Error(err))
		return zero, err
	}

	s.log.Info("Account created", zap.String("id", acc.ID.Hex()))
	publish(ctx, s.events, s.cfg.EventSubject, AccountEvent{
		Event: "created", Kind: s.kind, ID: acc.ID.Hex(), Email: acc.Email, At: acc.CreatedAt,
	}, s.log)
	return p, nil
}

// spendAttempt charges a compared guess against the code's attempt budget.
// The charge is conditional in storage, so once concurrent guesses have used
// the budget every later one fails with ErrTooManyAttempts, even a match.
func (s *AccountService[P]) spendAttempt(ctx context.Context, id string, guessErr error) error {
	if guessErr != nil && !errors.Is(guessErr, domain.ErrInvalidOTP) {
		return guessErr
	}
	err := s.repo.IncrementOTPAttempts(ctx, id, s.otp.Config().MaxAttempts)
	switch {
	case err == nil:
		return guessErr
	case errors.Is(err, repository.ErrUpdateFailed):
		return domain.ErrTooManyAttempts
	case guessErr != nil:
		s.log.Error("Failed to record OTP attempt", zap.String("id", id), zap.Error(err))
		return guessErr
	default:
		return s.storeErr(err)
	}
}

func otpOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidOTP):
		return "invalid"
	case errors.Is(err, domain.ErrOTPExpired):
		return "expired"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "locked"
	default:
		return "rejected"
	}
}

// VerifyEmail checks the emailed code and returns a long-lived session token.
func (s *AccountService[P]) VerifyEmail(ctx context.Context, email, code string) (string, P, error) {
	ctx, span := s.span(ctx, "VerifyEmail")
	defer span.End()
	var zero P

	if strings.TrimSpace(code) == "" {
		return "", zero, domain.Validation("Email and OTP are required")
	}
	p, err := s.findByEmail(ctx, email)
	if err != nil {
		return "", zero, err
	}
	acc := p.Account()
	id := acc.ID.Hex()

	err = s.spendAttempt(ctx, id, s.otp.Verify(acc, code))
	s.metrics.OTPVerification(s.kind, otpOutcome(err))
	if err != nil {
		return "", zero, err
	}
	if err := s.repo.MarkVerified(ctx, id); err != nil {
		return "", zero, s.storeErr(err)
	}

	token, err := s.sessions.Issue(p, s.cfg.VerifyTTL)
	if err != nil {
		return "", zero, err
	}
	s.log.Info("Email verified", zap.String("id", id))
	publish(ctx, s.events, s.cfg.EventSubject, AccountEvent{
		Event: "verified", Kind: s.kind, ID: id, Email: acc.Email, At: time.Now().UTC(),
	}, s.log)
	return token, p, nil
}

// ResendOTP issues and mails a fresh code, subject to the resend cooldown.
func (s *AccountService[P]) ResendOTP(ctx context.Context, email string) error {
	ctx, span := s.span(ctx, "ResendOTP")
	defer span.End()

	p, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	acc := p.Account()
	code, err := s.otp.Resend(acc)
	if err != nil {
		return err
	}
	if err := s.repo.SaveOTP(ctx, acc.ID.Hex(), acc.OTP); err != nil {
		return s.storeErr(err)
	}
	s.metrics.OTPIssued(s.kind, "resend")
	return s.mailer.SendVerificationCode(ctx, acc.Email, p.DisplayName(), code, s.otp.Config().TTL)
}

// Login checks the password and returns a session token for verified accounts.
func (s *AccountService[P]) Login(ctx context.Context, email, password string) (string, P, error) {
	ctx, span := s.span(ctx, "Login")
	defer span.End()
	var zero P

	if password == "" {
		return "", zero, domain.Validation("Email and password are required")
	}
	p, err := s.findByEmail(ctx, email)
	if err != nil {
		s.metrics.Login(s.kind, "not_found")
		return "", zero, err
	}
	acc := p.Account()
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		s.metrics.Login(s.kind, "bad_password")
		return "", zero, domain.ErrIncorrectPassword
	}
	if !acc.Verified {
		s.metrics.Login(s.kind, "unverified")
		return "", zero, domain.ErrNotVerified
	}

	token, err := s.sessions.Issue(p, s.cfg.LoginTTL)
	if err != nil {
		return "", zero, err
	}
	s.metrics.Login(s.kind, "success")
	return token, p, nil
}

// ForgotPassword mails a reset code to a verified account.
func (s *AccountService[P]) ForgotPassword(ctx context.Context, email string) error {
	ctx, span := s.span(ctx, "ForgotPassword")
	defer span.End()

	p, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	acc := p.Account()
	if !acc.Verified {
		return domain.ErrNotVerified
	}
	code, err := s.otp.Reissue(&acc.OTP)
	if err != nil {
		return err
	}
	if err := s.repo.SaveOTP(ctx, acc.ID.Hex(), acc.OTP); err != nil {
		return s.storeErr(err)
	}
	s.metrics.OTPIssued(s.kind, "password_reset")
	return s.mailer.SendPasswordReset(ctx, acc.Email, p.DisplayName(), code, s.otp.Config().TTL)
}

// ResetPassword redeems a reset code and stores the new password. Like
// ForgotPassword it is only open to verified accounts.
func (s *AccountService[P]) ResetPassword(ctx context.Context, email, code, password, confirm string) error {
	ctx, span := s.span(ctx, "ResetPassword")
	defer span.End()

	if strings.TrimSpace(code) == "" {
		return domain.Validation("Email and OTP are required")
	}
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	p, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	acc := p.Account()
	if !acc.Verified {
		return domain.ErrNotVerified
	}
	id := acc.ID.Hex()

	err = s.spendAttempt(ctx, id, s.otp.Redeem(&acc.OTP, code))
	s.metrics.OTPVerification(s.kind, otpOutcome(err))
	if err != nil {
		return err
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return s.storeErr(err)
	}
	s.log.Info("Password reset", zap.String("id", id))
	return nil
}

func (s *AccountService[P]) GetProfile(ctx context.Context, id string) (P, error) {
	var zero P
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return zero, s.storeErr(err)
	}
	return p, nil
}

// UpdateProfile applies the editable fields in patch and an optional new image.
func (s *AccountService[P]) UpdateProfile(ctx context.Context, id string, patch map[string]string, image *Upload) (P, error) {
	ctx, span := s.span(ctx, "UpdateProfile")
	defer span.End()
	var zero P

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return zero, s.storeErr(err)
	}
	changed, err := p.ApplyProfile(patch)
	if err != nil {
		return zero, err
	}
	if image != nil && s.storage != nil {
		url, err := s.storage.Upload(ctx, image.Filename, image.Data)
		if err != nil {
			return zero, domain.Dependency("Failed to upload profile image", err)
		}
		p.Account().ProfileImage = url
		changed["profile_image"] = url
	}
	if len(changed) == 0 {
		return p, nil
	}
	if err := s.repo.UpdateFields(ctx, id, changed); err != nil {
		return zero, s.storeErr(err)
	}
	return p, nil
}

func (s *AccountService[P]) ChangePassword(ctx context.Context, id, oldPassword, password, confirm string) error {
	ctx, span := s.span(ctx, "ChangePassword")
	defer span.End()

	if oldPassword == "" {
		return domain.Validation("Old password, new password and confirm password are required")
	}
	if err := checkNewPassword(password, confirm); err != nil {
		return err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.storeErr(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.Account().PasswordHash), []byte(oldPassword)); err != nil {
		return domain.ErrIncorrectPassword
	}
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return s.storeErr(err)
	}
	return nil
}

// Logout revokes token for the rest of its lifetime.
func (s *AccountService[P]) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.ErrMissingToken
	}
	return s.sessions.Revoke(ctx, token)
}

// RiderPreparer gives a new rider its public number and pending status.
func RiderPreparer(counters repository.CounterRepository) func(ctx context.Context, r *domain.Rider) error {
	return func(ctx context.Context, r *domain.Rider) error {
		seq, err := counters.Next(ctx, "rider")
		if err != nil {
			return domain.Dependency("Failed to allocate rider id", err)
		}
		r.RiderID = domain.FormatRiderID(seq)
		r.Status = domain.RiderPending
		r.IsAvailable = false
		return nil
	}
}
