package model

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the stores rely on. Idempotent; called
// once at boot.
func EnsureIndexes(ctx context.Context) error {
	type spec struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}
	uniq := options.Index().SetUnique(true)

	specs := []spec{
		{(&User{}).Collection(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: uniq},
		}},
		{(&FriendEdge{}).Collection(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "friend_id", Value: 1}}, Options: uniq},
			{Keys: bson.D{{Key: "request_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}}},
		}},
		{(&ConversationParticipant{}).Collection(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: uniq},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		}},
		{(&Message{}).Collection(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}}},
		}},
		{(&Notification{}).Collection(), []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
		}},
	}

	for _, s := range specs {
		if _, err := s.coll.Indexes().CreateMany(ctx, s.models); err != nil {
			return err
		}
	}
	return nil
}
