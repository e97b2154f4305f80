package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

const usersCollection = "users"

// MongoUserRepo stores users as documents in the "users" collection.
type MongoUserRepo struct {
	coll *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes the store relies on. Idempotent.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_1")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_1")},
	})
	return err
}

func (r *MongoUserRepo) Create(ctx context.Context, u *entity.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &DuplicateKeyError{Field: duplicateFieldFromMessage(err.Error())}
		}
		return err
	}
	return nil
}

func (r *MongoUserRepo) FindByEmail(ctx context.Context, email string, withHash bool) (*entity.User, error) {
	opts := options.FindOne()
	if !withHash {
		opts.SetProjection(bson.D{{Key: "password", Value: 0}})
	}
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, opts)
}

func (r *MongoUserRepo) FindByID(ctx context.Context, id int64) (*entity.User, error) {
	opts := options.FindOne().SetProjection(bson.D{{Key: "password", Value: 0}})
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, opts)
}

func (r *MongoUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptionsBuilder) (*entity.User, error) {
	var u entity.User
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// duplicateFieldFromMessage picks the field out of an E11000 message, which
// names the violated index ("... index: email_1 dup key: ...").
func duplicateFieldFromMessage(msg string) string {
	switch {
	case strings.Contains(msg, "email_1"):
		return "email"
	case strings.Contains(msg, "username_1"):
		return "username"
	}
	return "id"
}
