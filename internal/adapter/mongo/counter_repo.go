package mongo

import (
	"context"
	"fmt"

	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// CounterRepository keeps named sequences as {_id: name, seq: n} documents.
type CounterRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

func NewCounterRepository(db *mongo.Database, log *logger.Logger) *CounterRepository {
	return &CounterRepository{coll: db.Collection("counters"), logger: log.Named("CounterRepository")}
}

// Next atomically increments name and returns the new value, starting at 1.
func (r *CounterRepository) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).Decode(&doc)
	if err != nil {
		r.logger.Error("Failed to advance counter", zap.String("name", name), zap.Error(err))
		return 0, fmt.Errorf("advance counter %s: %w", name, err)
	}
	r.logger.Debug("Counter advanced", zap.String("name", name), zap.Int64("seq", doc.Seq))
	return doc.Seq, nil
}
