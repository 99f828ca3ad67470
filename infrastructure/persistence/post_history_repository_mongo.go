package persistence

import (
	"context"

	"social-relay/domain/model"
	"social-relay/domain/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const postHistoryCollection = "post_history"

// PostHistoryRepositoryMongo keeps post history documents in MongoDB.
type PostHistoryRepositoryMongo struct {
	collection *mongo.Collection
}

func NewPostHistoryRepositoryMongo(client *mongo.Client, database string) repository.IPostHistory {
	return &PostHistoryRepositoryMongo{collection: client.Database(database).Collection(postHistoryCollection)}
}

// EnsurePostHistoryIndexMongo creates the provider/actor lookup index.
func EnsurePostHistoryIndexMongo(ctx context.Context, client *mongo.Client, database string) error {
	_, err := client.Database(database).Collection(postHistoryCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "provider", Value: 1}, {Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *PostHistoryRepositoryMongo) Record(ctx context.Context, rec *model.PostRecord) error {
	_, err := r.collection.InsertOne(ctx, rec)
	return err
}

func (r *PostHistoryRepositoryMongo) ListByActor(ctx context.Context, provider, actorID string, limit int) ([]*model.PostRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.D{{Key: "provider", Value: provider}, {Key: "actor_id", Value: actorID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	list := []*model.PostRecord{}
	if err := cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
