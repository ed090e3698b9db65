package mongo

import (
	"context"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type NotificationRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *mongo.Database, log *logger.Logger) *NotificationRepository {
	coll := db.Collection("notifications")
	log = log.Named("NotificationRepository")
	err := ensureIndexes(coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		log.Warn("Failed to create indexes for notifications collection", zap.Error(err))
	}
	return &NotificationRepository{coll: coll, logger: log}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, n); err != nil {
		r.logger.Error("Database error creating notification", zap.String("recipient", n.RecipientID), zap.Error(err))
		return err
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit int64) ([]*domain.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := r.coll.Find(ctx, bson.M{"recipient_id": recipientID}, opts)
	if err != nil {
		r.logger.Error("Database error listing notifications", zap.String("recipient", recipientID), zap.Error(err))
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*domain.Notification{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	oid, err := objectID(id)
	if err != nil {
		return repository.ErrNotFound
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": oid, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		r.logger.Error("Database error marking notification read", zap.String("id", id), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
