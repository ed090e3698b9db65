package mongo

import (
	"context"

	"github.com/el-rey08/EDHF-logistics/internal/domain"
	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type RiderRepository struct {
	*AccountRepository[domain.Rider, *domain.Rider]
}

var _ repository.RiderRepository = (*RiderRepository)(nil)

func NewRiderRepository(db *mongo.Database, log *logger.Logger) *RiderRepository {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}, Options: options.Index().SetUnique(true)}
	}
	base := NewAccountRepository[domain.Rider, *domain.Rider](db, "riders", log,
		unique("rider_id"),
		unique("phone_number"),
		unique("government_id_number"),
		unique("vehicle.plate_number"),
		mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "is_available", Value: 1}}},
	)
	return &RiderRepository{AccountRepository: base}
}

func (r *RiderRepository) ListByStatus(ctx context.Context, status domain.RiderStatus) ([]*domain.Rider, error) {
	return r.find(ctx, bson.M{"status": status}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (r *RiderRepository) ListAvailable(ctx context.Context) ([]*domain.Rider, error) {
	return r.find(ctx, bson.M{
		"status":       domain.RiderApproved,
		"is_verified":  true,
		"is_available": true,
	}, options.Find().SetSort(bson.D{{Key: "rating", Value: -1}}))
}

func (r *RiderRepository) SetStatus(ctx context.Context, id string, from, to domain.RiderStatus, approvedBy string) error {
	oid, err := objectID(id)
	if err != nil {
		return repository.ErrNotFound
	}
	set := bson.M{"status": to, "updated_at": r.now().UTC()}
	if approvedBy != "" {
		set["approved_by"] = approvedBy
	}
	if to != domain.RiderApproved {
		set["is_available"] = false
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid, "status": from}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Database error setting rider status", zap.String("id", id), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		r.logger.Warn("Rider status changed concurrently or rider missing",
			zap.String("id", id), zap.String("from", string(from)), zap.String("to", string(to)))
		return repository.ErrUpdateFailed
	}
	r.logger.Info("Rider status updated", zap.String("id", id), zap.String("status", string(to)))
	return nil
}

func (r *RiderRepository) SetAvailability(ctx context.Context, id string, available bool) error {
	return r.updateByID(ctx, "SetAvailability", id, bson.M{"$set": bson.M{"is_available": available}})
}

func (r *RiderRepository) IncrementDeliveries(ctx context.Context, id string) error {
	return r.updateByID(ctx, "IncrementDeliveries", id, bson.M{"$inc": bson.M{"total_deliveries": 1}})
}
