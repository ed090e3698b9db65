package mongo

import (
	"context"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type DeliveryRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

var _ repository.DeliveryRepository = (*DeliveryRepository)(nil)

func NewDeliveryRepository(db *mongo.Database, log *logger.Logger) *DeliveryRepository {
	coll := db.Collection("deliveries")
	log = log.Named("DeliveryRepository")
	err := ensureIndexes(coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tracking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		log.Warn("Failed to create indexes for deliveries collection (may already exist)", zap.Error(err))
	}
	return &DeliveryRepository{coll: coll, logger: log}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *domain.Delivery) error {
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		err = translateWriteError(err)
		r.logger.Error("Database error during delivery creation", zap.String("trackingID", d.TrackingID), zap.Error(err))
		return err
	}
	r.logger.Info("Delivery created", zap.String("id", d.ID.Hex()), zap.String("trackingID", d.TrackingID))
	return nil
}

func (r *DeliveryRepository) findOne(ctx context.Context, filter bson.M) (*domain.Delivery, error) {
	var d domain.Delivery
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		err = notFound(err)
		if err != repository.ErrNotFound {
			r.logger.Error("Database error fetching delivery", zap.Any("filter", filter), zap.Error(err))
		}
		return nil, err
	}
	return &d, nil
}

func (r *DeliveryRepository) FindByID(ctx context.Context, id string) (*domain.Delivery, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *DeliveryRepository) FindByTrackingID(ctx context.Context, trackingID string) (*domain.Delivery, error) {
	return r.findOne(ctx, bson.M{"tracking_id": trackingID})
}

func (r *DeliveryRepository) list(ctx context.Context, filter bson.M) ([]*domain.Delivery, error) {
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		r.logger.Error("Database error listing deliveries", zap.Any("filter", filter), zap.Error(err))
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*domain.Delivery{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *DeliveryRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Delivery, error) {
	return r.list(ctx, bson.M{"user_id": userID})
}

func (r *DeliveryRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.Delivery, error) {
	return r.list(ctx, bson.M{"rider_id": riderID})
}

func (r *DeliveryRepository) UpdateStatus(ctx context.Context, d *domain.Delivery, from domain.DeliveryStatus) error {
	set := bson.M{"status": d.Status, "updated_at": d.UpdatedAt}
	if d.RiderID != "" {
		set["rider_id"] = d.RiderID
	}
	if d.UpdatedAt.IsZero() {
		set["updated_at"] = time.Now().UTC()
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": d.ID, "status": from}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Database error updating delivery status", zap.String("id", d.ID.Hex()), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		r.logger.Warn("Delivery status changed concurrently", zap.String("id", d.ID.Hex()), zap.String("from", string(from)))
		return repository.ErrUpdateFailed
	}
	r.logger.Info("Delivery status updated", zap.String("id", d.ID.Hex()), zap.String("status", string(d.Status)))
	return nil
}
