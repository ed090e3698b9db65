package email

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"go.uber.org/zap"
)

// Dispatcher renders the application's messages and hands them to a Sender.
type Dispatcher struct {
	sender     Sender
	adminEmail string
	log        *logger.Logger
}

func NewDispatcher(sender Sender, adminEmail string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, adminEmail: adminEmail, log: log.Named("EmailDispatcher")}
}

func minutes(ttl time.Duration) int {
	m := int(ttl / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

func (d *Dispatcher) SendVerificationCode(ctx context.Context, to, name, code string, ttl time.Duration) error {
	subject := "Verify Your Email Address"
	htmlBody := fmt.Sprintf(`<p>Hello %s,</p>
<p>Welcome to EDHF Logistics. Your verification code is: <b>%s</b></p>
<p>This code will expire in %d minutes.</p>
<p>If you did not request this, please ignore this email.</p>`, html.EscapeString(name), html.EscapeString(code), minutes(ttl))
	textBody := fmt.Sprintf("Hello %s,\nWelcome to EDHF Logistics. Your verification code is: %s\nThis code will expire in %d minutes.\nIf you did not request this, please ignore this email.",
		name, code, minutes(ttl))
	return d.send(ctx, to, subject, htmlBody, textBody)
}

func (d *Dispatcher) SendPasswordReset(ctx context.Context, to, name, code string, ttl time.Duration) error {
	subject := "Reset Your Password"
	htmlBody := fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your password. Your reset code is: <b>%s</b></p>
<p>This code will expire in %d minutes.</p>
<p>If you did not request a password reset, you can ignore this email.</p>`, html.EscapeString(name), html.EscapeString(code), minutes(ttl))
	textBody := fmt.Sprintf("Hello %s,\nWe received a request to reset your password. Your reset code is: %s\nThis code will expire in %d minutes.\nIf you did not request a password reset, you can ignore this email.",
		name, code, minutes(ttl))
	return d.send(ctx, to, subject, htmlBody, textBody)
}

// SendWeekendDeliveryAlert asks the admin to assign a rider by hand. It is a
// no-op when no admin address is configured.
func (d *Dispatcher) SendWeekendDeliveryAlert(ctx context.Context, del *domain.Delivery) error {
	if d.adminEmail == "" {
		d.log.Warn("ADMIN_EMAIL not set, skipping weekend delivery alert", zap.String("tracking_id", del.TrackingID))
		return nil
	}
	pickup := del.Sender.PickupDate.Format("Monday, 02 Jan 2006")
	subject := fmt.Sprintf("Weekend delivery %s needs manual assignment", del.TrackingID)
	htmlBody := fmt.Sprintf(`<p>A standard delivery was booked for a weekend pickup and needs a rider assigned manually.</p>
<ul>
<li>Tracking ID: <b>%s</b></li>
<li>Pickup date: %s</li>
<li>From: %s, %s (%s)</li>
<li>To: %s, %s (%s)</li>
<li>Price: &#8358;%.2f</li>
</ul>`,
		html.EscapeString(del.TrackingID), pickup,
		html.EscapeString(del.Sender.FullName), html.EscapeString(del.Sender.PickupLocation), html.EscapeString(del.Sender.PhoneNumber),
		html.EscapeString(del.Receiver.FullName), html.EscapeString(del.Receiver.DeliveryLocation), html.EscapeString(del.Receiver.PhoneNumber),
		del.Price)
	textBody := fmt.Sprintf("Weekend delivery %s needs manual assignment.\nPickup date: %s\nFrom: %s, %s\nTo: %s, %s\nPrice: NGN %.2f",
		del.TrackingID, pickup, del.Sender.FullName, del.Sender.PickupLocation,
		del.Receiver.FullName, del.Receiver.DeliveryLocation, del.Price)
	return d.send(ctx, d.adminEmail, subject, htmlBody, textBody)
}

func (d *Dispatcher) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if err := d.sender.Send(ctx, []string{to}, subject, htmlBody, textBody); err != nil {
		return domain.Dependency("Failed to send email", err)
	}
	return nil
}
