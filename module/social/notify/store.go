package notify

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// Store abstracts notification persistence; Mongo in production, memory in
// tests (memstore.go).
type Store interface {
	Insert(ctx context.Context, n *model.Notification) error
	List(ctx context.Context, userID string, page, limit int, unreadOnly bool) ([]*model.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead is idempotent; ErrNotFound only when the record does not
	// exist for that owner.
	MarkRead(ctx context.Context, id, userID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

type mongoStore struct{}

func NewMongoStore() Store { return &mongoStore{} }

func coll() *mongo.Collection { return (&model.Notification{}).Collection() }

func (s *mongoStore) Insert(ctx context.Context, n *model.Notification) error {
	if _, err := coll().InsertOne(ctx, n); err != nil {
		return errs.WrapMsg(err, "insert notification", "user", n.UserID, "type", n.Type)
	}
	return nil
}

func (s *mongoStore) List(ctx context.Context, userID string, page, limit int, unreadOnly bool) ([]*model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}
	total, err := coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, errs.WrapMsg(err, "count notifications")
	}
	cur, err := coll().Find(ctx, filter, options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, errs.WrapMsg(err, "find notifications")
	}
	defer func() { _ = cur.Close(ctx) }()
	var out []*model.Notification
	for cur.Next(ctx) {
		var n model.Notification
		if err := cur.Decode(&n); err != nil {
			return nil, 0, errs.WrapMsg(err, "decode notification")
		}
		out = append(out, &n)
	}
	return out, total, nil
}

func (s *mongoStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	n, err := coll().CountDocuments(ctx, bson.M{"user_id": userID, "is_read": false})
	if err != nil {
		return 0, errs.WrapMsg(err, "count unread notifications")
	}
	return n, nil
}

func (s *mongoStore) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	res, err := coll().UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}})
	if err != nil {
		return errs.WrapMsg(err, "mark notification read", "id", id)
	}
	if res.MatchedCount == 0 {
		// distinguish re-ack (fine) from a foreign or missing record
		n, err := coll().CountDocuments(ctx, bson.M{"_id": id, "user_id": userID})
		if err != nil {
			return errs.WrapMsg(err, "check notification", "id", id)
		}
		if n == 0 {
			return errs.ErrNotFound.WrapMsg("notification", "id", id)
		}
	}
	return nil
}

func (s *mongoStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	res, err := coll().UpdateMany(ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true, "read_at": at}})
	if err != nil {
		return 0, errs.WrapMsg(err, "mark all notifications read")
	}
	return res.ModifiedCount, nil
}
