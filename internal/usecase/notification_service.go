package usecase

import (
	"context"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.uber.org/zap"
)

const notificationListLimit = 50

type NotificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
	log  *logger.Logger
}

func NewNotificationService(repo repository.NotificationRepository, log *logger.Logger) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now, log: log.Named("NotificationService")}
}

// Notify stores an in-app notification. Failures are logged and swallowed so
// the action that triggered it still succeeds.
func (s *NotificationService) Notify(ctx context.Context, recipientID, title, message string, typ domain.NotificationType, relatedID string) {
	if s == nil || recipientID == "" {
		return
	}
	n := &domain.Notification{
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		Type:        typ,
		RelatedID:   relatedID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Warn("Failed to store notification", zap.String("recipient_id", recipientID), zap.String("title", title), zap.Error(err))
	}
}

// List returns the recipient's most recent notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID string) ([]*domain.Notification, error) {
	out, err := s.repo.ListByRecipient(ctx, recipientID, notificationListLimit)
	if err != nil {
		return nil, storageError(err, "Notifications not found")
	}
	return out, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID string) error {
	return storageError(s.repo.MarkRead(ctx, id, recipientID), "Notification not found")
}
