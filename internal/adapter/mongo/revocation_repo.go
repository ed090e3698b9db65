package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/el-rey08/EDHF-logistics/internal/platform/logger"
	"github.com/el-rey08/EDHF-logistics/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// RevocationRepository is the logout blacklist. A TTL index on expires_at
// lets MongoDB purge entries once the token would have expired anyway.
type RevocationRepository struct {
	coll   *mongo.Collection
	logger *logger.Logger
}

var _ repository.RevocationRepository = (*RevocationRepository)(nil)

func NewRevocationRepository(db *mongo.Database, log *logger.Logger) *RevocationRepository {
	coll := db.Collection("revoked_tokens")
	log = log.Named("RevocationRepository")
	err := ensureIndexes(coll, []mongo.IndexModel{
		{Keys: bson.D{{Key: "token_hash", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	if err != nil {
		log.Warn("Failed to create indexes for revoked_tokens collection", zap.Error(err))
	}
	return &RevocationRepository{coll: coll, logger: log}
}

func (r *RevocationRepository) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	_, err := r.coll.InsertOne(ctx, bson.M{
		"token_hash": tokenHash,
		"expires_at": expiresAt.UTC(),
		"revoked_at": time.Now().UTC(),
	})
	err = translateWriteError(err)
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil
	}
	if err != nil {
		r.logger.Error("Failed to record revoked token", zap.Error(err))
		return err
	}
	return nil
}

func (r *RevocationRepository) IsRevoked(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"token_hash": tokenHash}, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("Failed to check revoked token", zap.Error(err))
		return false, err
	}
	return n > 0, nil
}
