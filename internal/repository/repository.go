package repository

import (
	"context"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
)

// AccountRepository stores one principal kind.
type AccountRepository[P domain.Principal] interface {
	Create(ctx context.Context, p P) error
	FindByID(ctx context.Context, id string) (P, error)
	FindByEmail(ctx context.Context, email string) (P, error)
	// SaveOTP replaces the embedded OTP record.
	SaveOTP(ctx context.Context, id string, rec domain.OTPRecord) error
	// IncrementOTPAttempts adds one attempt atomically while fewer than limit
	// are recorded. It returns ErrUpdateFailed once the cap is reached.
	IncrementOTPAttempts(ctx context.Context, id string, limit int) error
	MarkVerified(ctx context.Context, id string) error
	// UpdatePassword stores hash and drops any outstanding code.
	UpdatePassword(ctx context.Context, id, hash string) error
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}

type RiderRepository interface {
	AccountRepository[*domain.Rider]
	ListByStatus(ctx context.Context, status domain.RiderStatus) ([]*domain.Rider, error)
	ListAvailable(ctx context.Context) ([]*domain.Rider, error)
	// SetStatus moves a rider out of from. It fails with ErrUpdateFailed when
	// the stored status is no longer from.
	SetStatus(ctx context.Context, id string, from, to domain.RiderStatus, approvedBy string) error
	SetAvailability(ctx context.Context, id string, available bool) error
	IncrementDeliveries(ctx context.Context, id string) error
}

type DeliveryRepository interface {
	Create(ctx context.Context, d *domain.Delivery) error
	FindByID(ctx context.Context, id string) (*domain.Delivery, error)
	FindByTrackingID(ctx context.Context, trackingID string) (*domain.Delivery, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Delivery, error)
	ListByRider(ctx context.Context, riderID string) ([]*domain.Delivery, error)
	// UpdateStatus is a compare-and-set on the current status.
	UpdateStatus(ctx context.Context, d *domain.Delivery, from domain.DeliveryStatus) error
}

// CounterRepository hands out monotonically increasing sequence numbers per name.
type CounterRepository interface {
	Next(ctx context.Context, name string) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, limit int64) ([]*domain.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type RevocationRepository interface {
	Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
}

type LocationStore interface {
	Save(ctx context.Context, loc domain.RiderLocation) error
	Get(ctx context.Context, riderID string) (*domain.RiderLocation, error)
}
