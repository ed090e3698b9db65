package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("edhf-logistics/usecase")

// Mailer sends the application's transactional emails.
type Mailer interface {
	SendVerificationCode(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendWeekendDeliveryAlert(ctx context.Context, d *domain.Delivery) error
}

type Sessions interface {
	Issue(p domain.Principal, ttl time.Duration) (string, error)
	Revoke(ctx context.Context, token string) error
}

type FileStorage interface {
	Upload(ctx context.Context, fileName string, data []byte) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, subject string, message any) error
}

// LocationFeed streams raw messages published on a subject until ctx ends.
type LocationFeed interface {
	Subscribe(ctx context.Context, subject string) (<-chan []byte, error)
}

// Upload is a file received with a request.
type Upload struct {
	Filename string
	Data     []byte
}

// storageError turns a repository failure into a client-facing domain error.
func storageError(err error, notFoundMsg string) error {
	var dup *repository.DuplicateError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &dup):
		if dup.Field == "" {
			return domain.Conflict("Record already exists")
		}
		return domain.Conflict("An account with this %s already exists", fieldLabel(dup.Field))
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrInvalidID):
		return domain.NotFound("%s", notFoundMsg)
	case errors.Is(err, repository.ErrUpdateFailed):
		return domain.ErrStaleWrite.Wrap(err)
	default:
		return domain.Dependency("Database error", err)
	}
}

func fieldLabel(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		field = field[i+1:]
	}
	return strings.ReplaceAll(field, "_", " ")
}

// publish sends an event and only logs a failure; events never fail a request.
func publish(ctx context.Context, p Publisher, subject string, msg any, log *logger.Logger) {
	if p == nil || subject == "" {
		return
	}
	if err := p.Publish(ctx, subject, msg); err != nil {
		log.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
