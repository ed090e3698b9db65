package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/el-rey08/EDHF-logistics/internal/config"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type Sender interface {
	Send(ctx context.Context, to []string, subject, bodyHTML, bodyText string) error
}

type smtpSender struct {
	cfg config.SMTPConfig
	log *logger.Logger
	d   *gomail.Dialer
}

func NewSMTPSender(cfg config.SMTPConfig, log *logger.Logger) (Sender, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	serverName := cfg.ServerName
	if serverName == "" {
		serverName = cfg.Host
	}
	switch strings.ToLower(cfg.Encryption) {
	case "ssl":
		dialer.SSL = true
		dialer.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	case "tls", "starttls":
		dialer.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	}

	return &smtpSender{
		cfg: cfg,
		log: log.Named("SMTPSender"),
		d:   dialer,
	}, nil
}

func (s *smtpSender) from() string {
	if s.cfg.SenderName == "" {
		return s.cfg.SenderEmail
	}
	return fmt.Sprintf("%s <%s>", s.cfg.SenderName, s.cfg.SenderEmail)
}

func (s *smtpSender) Send(ctx context.Context, to []string, subject, bodyHTML, bodyText string) error {
	m, err := buildMessage(s.from(), to, subject, bodyHTML, bodyText)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- s.d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		s.log.Warn("Email sending cancelled or timed out", zap.Strings("to", to), zap.String("subject", subject), zap.Error(ctx.Err()))
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err = <-done:
		if err != nil {
			s.log.Error("Failed to send email", zap.Strings("to", to), zap.String("subject", subject), zap.Error(err))
			return fmt.Errorf("failed to send email: %w", err)
		}
	}

	s.log.Info("Email sent successfully", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}

func buildMessage(from string, to []string, subject, bodyHTML, bodyText string) (*gomail.Message, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("no recipients provided for email")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)

	switch {
	case bodyHTML != "":
		m.SetBody("text/html", bodyHTML)
		if bodyText != "" {
			m.AddAlternative("text/plain", bodyText)
		}
	case bodyText != "":
		m.SetBody("text/plain", bodyText)
	default:
		return nil, fmt.Errorf("email body (HTML or Text) must be provided")
	}
	return m, nil
}

// logSender stands in when SMTP is not configured. It only logs.
type logSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) Sender {
	return &logSender{log: log.Named("LogSender")}
}

func (s *logSender) Send(_ context.Context, to []string, subject, bodyHTML, bodyText string) error {
	if len(to) == 0 {
		return fmt.Errorf("no recipients provided for email")
	}
	s.log.Info("SMTP disabled, email not sent",
		zap.Strings("to", to),
		zap.String("subject", subject),
		zap.Int("html_bytes", len(bodyHTML)),
		zap.Int("text_bytes", len(bodyText)),
	)
	return nil
}
