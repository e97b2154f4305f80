package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const tokensCollection = "tokens"

type refreshDoc struct {
	TokenHash string    `bson:"_id"`
	UserID    int64     `bson:"userId"`
	ExpiresAt time.Time `bson:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt"`
}

// MongoRefreshRepo stores refresh records in the "tokens" collection.
type MongoRefreshRepo struct {
	coll *mongo.Collection
}

func NewMongoRefreshRepo(db *mongo.Database) *MongoRefreshRepo {
	return &MongoRefreshRepo{coll: db.Collection(tokensCollection)}
}

// EnsureIndexes adds a user index and a TTL index so the server drops
// expired records on its own, on top of DeleteExpired.
func (r *MongoRefreshRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	return err
}

func (r *MongoRefreshRepo) Record(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	doc := refreshDoc{TokenHash: HashToken(token), UserID: userID, ExpiresAt: expiresAt.UTC(), CreatedAt: time.Now().UTC()}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil && !mongo.IsDuplicateKeyError(err) {
		return err
	}
	return nil
}

func (r *MongoRefreshRepo) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: HashToken(token)}}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *MongoRefreshRepo) Delete(ctx context.Context, token string) error {
	_, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: HashToken(token)}})
	return err
}

func (r *MongoRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lt", Value: now.UTC()}}}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
