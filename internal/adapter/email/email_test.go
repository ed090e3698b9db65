package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/config"
	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to      []string
	subject string
	html    string
	text    string
}

type recordingSender struct {
	sent []sentMail
	err  error
}

func (r *recordingSender) Send(_ context.Context, to []string, subject, bodyHTML, bodyText string) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{to: to, subject: subject, html: bodyHTML, text: bodyText})
	return nil
}

func TestNewSMTPSender_IncompleteConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.SMTPConfig
	}{
		{name: "Missing Host", cfg: config.SMTPConfig{Port: 587, SenderEmail: "noreply@edhf.ng"}},
		{name: "Missing Port", cfg: config.SMTPConfig{Host: "smtp.example.com", SenderEmail: "noreply@edhf.ng"}},
		{name: "Missing SenderEmail", cfg: config.SMTPConfig{Host: "smtp.example.com", Port: 587}},
		{name: "All Missing", cfg: config.SMTPConfig{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSMTPSender(tc.cfg, logger.NewNop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be configured")
		})
	}
}

func TestNewSMTPSender_Encryption(t *testing.T) {
	base := config.SMTPConfig{Host: "smtp.example.com", Port: 465, SenderEmail: "noreply@edhf.ng", SenderName: "EDHF"}

	ssl := base
	ssl.Encryption = "SSL"
	s, err := NewSMTPSender(ssl, logger.NewNop())
	require.NoError(t, err)
	impl := s.(*smtpSender)
	assert.True(t, impl.d.SSL)
	assert.Equal(t, "smtp.example.com", impl.d.TLSConfig.ServerName)
	assert.Equal(t, "EDHF <noreply@edhf.ng>", impl.from())

	starttls := base
	starttls.Encryption = "starttls"
	starttls.ServerName = "mail.edhf.ng"
	starttls.SenderName = ""
	s, err = NewSMTPSender(starttls, logger.NewNop())
	require.NoError(t, err)
	impl = s.(*smtpSender)
	assert.False(t, impl.d.SSL)
	assert.Equal(t, "mail.edhf.ng", impl.d.TLSConfig.ServerName)
	assert.Equal(t, "noreply@edhf.ng", impl.from())
}

func TestBuildMessage(t *testing.T) {
	_, err := buildMessage("a@b.c", nil, "s", "<p>x</p>", "")
	assert.Error(t, err)

	_, err = buildMessage("a@b.c", []string{"x@y.z"}, "s", "", "")
	assert.Error(t, err)

	m, err := buildMessage("a@b.c", []string{"x@y.z"}, "Subject", "<p>x</p>", "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"Subject"}, m.GetHeader("Subject"))
}

func TestSMTPSender_ContextCancelled(t *testing.T) {
	// Port 1 on localhost is closed; the cancelled context must win or the dial fails.
	s, err := NewSMTPSender(config.SMTPConfig{Host: "127.0.0.1", Port: 1, SenderEmail: "noreply@edhf.ng"}, logger.NewNop())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Send(ctx, []string{"x@y.z"}, "s", "", "body")
	assert.Error(t, err)
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(logger.NewNop())
	assert.NoError(t, s.Send(context.Background(), []string{"x@y.z"}, "s", "<p>x</p>", ""))
	assert.Error(t, s.Send(context.Background(), nil, "s", "<p>x</p>", ""))
}

func TestDispatcher_Templates(t *testing.T) {
	rec := &recordingSender{}
	d := NewDispatcher(rec, "ops@edhf.ng", logger.NewNop())
	ctx := context.Background()

	require.NoError(t, d.SendVerificationCode(ctx, "ada@example.com", "Ada <Obi>", "123456", 10*time.Minute))
	require.NoError(t, d.SendPasswordReset(ctx, "ada@example.com", "Ada", "654321", 30*time.Second))
	require.Len(t, rec.sent, 2)

	verify := rec.sent[0]
	assert.Equal(t, []string{"ada@example.com"}, verify.to)
	assert.Equal(t, "Verify Your Email Address", verify.subject)
	assert.Contains(t, verify.html, "<b>123456</b>")
	assert.Contains(t, verify.html, "Ada &lt;Obi&gt;")
	assert.Contains(t, verify.html, "10 minutes")
	assert.Contains(t, verify.text, "123456")

	reset := rec.sent[1]
	assert.Equal(t, "Reset Your Password", reset.subject)
	assert.Contains(t, reset.html, "654321")
	assert.Contains(t, reset.text, "1 minutes")
}

func TestDispatcher_WeekendAlert(t *testing.T) {
	del := &domain.Delivery{
		TrackingID: "20240504-002",
		Price:      3000,
		Sender: domain.Sender{
			FullName:       "Ada Obi",
			PickupLocation: "Ikeja",
			PhoneNumber:    "08031234567",
			PickupDate:     time.Date(2024, 5, 4, 0, 0, 0, 0, time.UTC),
		},
		Receiver: domain.Receiver{FullName: "Tunde Bello", DeliveryLocation: "Surulere", PhoneNumber: "07012345678"},
	}

	rec := &recordingSender{}
	require.NoError(t, NewDispatcher(rec, "ops@edhf.ng", logger.NewNop()).SendWeekendDeliveryAlert(context.Background(), del))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, []string{"ops@edhf.ng"}, rec.sent[0].to)
	assert.True(t, strings.Contains(rec.sent[0].subject, "20240504-002"))
	assert.Contains(t, rec.sent[0].html, "Saturday, 04 May 2024")
	assert.Contains(t, rec.sent[0].text, "NGN 3000.00")

	rec = &recordingSender{}
	require.NoError(t, NewDispatcher(rec, "", logger.NewNop()).SendWeekendDeliveryAlert(context.Background(), del))
	assert.Empty(t, rec.sent)
}

func TestDispatcher_SenderFailureIsDependencyError(t *testing.T) {
	rec := &recordingSender{err: errors.New("connection refused")}
	err := NewDispatcher(rec, "", logger.NewNop()).SendVerificationCode(context.Background(), "a@b.c", "A", "1", time.Minute)
	require.Error(t, err)
	assert.Equal(t, domain.KindDependency, domain.KindOf(err))
}
