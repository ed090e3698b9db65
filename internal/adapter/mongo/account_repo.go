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

// AccountRepository persists one principal kind in its own collection.
// T is the document struct and P its pointer, which implements domain.Principal.
type AccountRepository[T any, P interface {
	*T
	domain.Principal
}] struct {
	coll   *mongo.Collection
	logger *logger.Logger
	now    func() time.Time
}

// NewAccountRepository ensures a unique email index plus any extra indexes.
func NewAccountRepository[T any, P interface {
	*T
	domain.Principal
}](db *mongo.Database, collection string, log *logger.Logger, extra ...mongo.IndexModel) *AccountRepository[T, P] {
	coll := db.Collection(collection)
	log = log.Named("AccountRepository").With(zap.String("collection", collection))

	indexes := append([]mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}, extra...)
	if err := ensureIndexes(coll, indexes); err != nil {
		log.Warn("Failed to create indexes (may already exist)", zap.Error(err))
	} else {
		log.Info("Successfully ensured indexes")
	}

	return &AccountRepository[T, P]{coll: coll, logger: log, now: time.Now}
}

func (r *AccountRepository[T, P]) Create(ctx context.Context, p P) error {
	acc := p.Account()
	if acc.ID.IsZero() {
		acc.ID = primitive.NewObjectID()
	}
	now := r.now().UTC()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		err = translateWriteError(err)
		if dup, ok := err.(*repository.DuplicateError); ok {
			r.logger.Warn("Duplicate account", zap.String("email", acc.Email), zap.String("field", dup.Field))
			return dup
		}
		r.logger.Error("Database error during account creation", zap.String("email", acc.Email), zap.Error(err))
		return err
	}
	r.logger.Info("Account created", zap.String("id", acc.ID.Hex()))
	return nil
}

func (r *AccountRepository[T, P]) findOne(ctx context.Context, filter bson.M) (P, error) {
	var doc T
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		err = notFound(err)
		if err != repository.ErrNotFound {
			r.logger.Error("Database error fetching account", zap.Any("filter", filter), zap.Error(err))
		}
		return nil, err
	}
	return P(&doc), nil
}

func (r *AccountRepository[T, P]) FindByID(ctx context.Context, id string) (P, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository[T, P]) FindByEmail(ctx context.Context, email string) (P, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *AccountRepository[T, P]) updateByID(ctx context.Context, op, id string, update bson.M) error {
	oid, err := objectID(id)
	if err != nil {
		return repository.ErrNotFound
	}
	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = r.now().UTC()
	} else {
		update["$set"] = bson.M{"updated_at": r.now().UTC()}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		err = translateWriteError(err)
		r.logger.Error("Database error during "+op, zap.String("id", id), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		r.logger.Debug("Account not found for "+op, zap.String("id", id))
		return repository.ErrNotFound
	}
	r.logger.Debug(op+" applied", zap.String("id", id))
	return nil
}

func (r *AccountRepository[T, P]) SaveOTP(ctx context.Context, id string, rec domain.OTPRecord) error {
	return r.updateByID(ctx, "SaveOTP", id, bson.M{"$set": bson.M{"otp": rec}})
}

func (r *AccountRepository[T, P]) IncrementOTPAttempts(ctx context.Context, id string, limit int) error {
	oid, err := objectID(id)
	if err != nil {
		return repository.ErrNotFound
	}
	filter := bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"otp.attempts": bson.M{"$lt": limit}},
			bson.M{"otp.attempts": bson.M{"$exists": false}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"otp.attempts": 1},
		"$set": bson.M{"updated_at": r.now().UTC()},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Database error during IncrementOTPAttempts", zap.String("id", id), zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		r.logger.Warn("OTP attempt cap reached or account missing", zap.String("id", id), zap.Int("limit", limit))
		return repository.ErrUpdateFailed
	}
	return nil
}

func (r *AccountRepository[T, P]) MarkVerified(ctx context.Context, id string) error {
	return r.updateByID(ctx, "MarkVerified", id, bson.M{
		"$set":   bson.M{"is_verified": true, "otp.attempts": 0},
		"$unset": bson.M{"otp.code_hash": "", "otp.expires_at": ""},
	})
}

func (r *AccountRepository[T, P]) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.updateByID(ctx, "UpdatePassword", id, bson.M{
		"$set":   bson.M{"password": hash, "otp.attempts": 0},
		"$unset": bson.M{"otp.code_hash": "", "otp.expires_at": ""},
	})
}

func (r *AccountRepository[T, P]) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	return r.updateByID(ctx, "UpdateFields", id, bson.M{"$set": set})
}

func (r *AccountRepository[T, P]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]P, error) {
	cur, err := r.coll.Find(ctx, filter, opts...)
	if err != nil {
		r.logger.Error("Database error listing accounts", zap.Any("filter", filter), zap.Error(err))
		return nil, err
	}
	defer cur.Close(ctx)

	out := []P{}
	for cur.Next(ctx) {
		var doc T
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, P(&doc))
	}
	return out, cur.Err()
}

var _ repository.AccountRepository[*domain.User] = (*AccountRepository[domain.User, *domain.User])(nil)
var _ repository.AccountRepository[*domain.Company] = (*AccountRepository[domain.Company, *domain.Company])(nil)

// NewUserRepository indexes users by email and phone number.
func NewUserRepository(db *mongo.Database, log *logger.Logger) *AccountRepository[domain.User, *domain.User] {
	return NewAccountRepository[domain.User, *domain.User](db, "users", log,
		mongo.IndexModel{Keys: bson.D{{Key: "phone_number", Value: 1}}, Options: options.Index().SetUnique(true)},
	)
}

func NewCompanyRepository(db *mongo.Database, log *logger.Logger) *AccountRepository[domain.Company, *domain.Company] {
	return NewAccountRepository[domain.Company, *domain.Company](db, "companies", log)
}
