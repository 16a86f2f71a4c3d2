package friends

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"linkup/module/social/model"
	"linkup/service/mgo"
	"linkup/tools/errs"
)

// Store abstracts friend-edge persistence. Pair operations are atomic: both
// mirrored rows change in one unit or not at all.
type Store interface {
	// InsertPair writes the mirrored pending rows; ErrConflict when any edge
	// already exists between the two users, in either direction.
	InsertPair(ctx context.Context, sent, received *model.FriendEdge) error
	GetEdge(ctx context.Context, userID, friendID string) (*model.FriendEdge, error)
	// GetPair returns the sent and received rows of a request.
	GetPair(ctx context.Context, requestID string) (sent, received *model.FriendEdge, err error)
	// AcceptPair flips received pending_received -> accepted and the mirror
	// to accepted as one transaction. ErrInvalidState when the receiver row
	// is not pending (resolved request, double accept).
	AcceptPair(ctx context.Context, requestID, accepterID string) error
	// Ignore flips the receiver row pending_received -> ignored; the sender
	// row stays pending_sent, the sender is never told.
	Ignore(ctx context.Context, requestID, userID string) error
	DeletePair(ctx context.Context, requestID string) (int64, error)
	// DeleteAccepted removes both directions of an accepted friendship.
	DeleteAccepted(ctx context.Context, userID, friendID string) (int64, error)
	ListByStatus(ctx context.Context, userID, status string) ([]*model.FriendEdge, error)
}

type mongoStore struct{}

func NewMongoStore() Store { return &mongoStore{} }

func coll() *mongo.Collection { return (&model.FriendEdge{}).Collection() }

func (s *mongoStore) InsertPair(ctx context.Context, sent, received *model.FriendEdge) error {
	return mgo.WithTx(ctx, func(sc mongo.SessionContext) error {
		n, err := coll().CountDocuments(sc, bson.M{"$or": bson.A{
			bson.M{"user_id": sent.UserID, "friend_id": sent.FriendID},
			bson.M{"user_id": sent.FriendID, "friend_id": sent.UserID},
		}})
		if err != nil {
			return errs.WrapMsg(err, "count friend edges")
		}
		if n > 0 {
			return errs.ErrConflict.WrapMsg("relationship already exists",
				"user", sent.UserID, "friend", sent.FriendID)
		}
		if _, err := coll().InsertMany(sc, []any{sent, received}); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return errs.ErrConflict.WrapMsg("relationship already exists")
			}
			return errs.WrapMsg(err, "insert friend edges")
		}
		return nil
	})
}

func (s *mongoStore) GetEdge(ctx context.Context, userID, friendID string) (*model.FriendEdge, error) {
	var e model.FriendEdge
	err := coll().FindOne(ctx, bson.M{"user_id": userID, "friend_id": friendID}).Decode(&e)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrNotFound.WrapMsg("friend edge", "user", userID, "friend", friendID)
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "find friend edge")
	}
	return &e, nil
}

func (s *mongoStore) GetPair(ctx context.Context, requestID string) (*model.FriendEdge, *model.FriendEdge, error) {
	cur, err := coll().Find(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return nil, nil, errs.WrapMsg(err, "find request pair", "request", requestID)
	}
	defer func() { _ = cur.Close(ctx) }()
	var sent, received *model.FriendEdge
	for cur.Next(ctx) {
		var e model.FriendEdge
		if err := cur.Decode(&e); err != nil {
			return nil, nil, errs.WrapMsg(err, "decode friend edge")
		}
		cp := e
		switch e.Status {
		case model.FriendStatusPendingReceived, model.FriendStatusIgnored:
			received = &cp
		case model.FriendStatusPendingSent:
			sent = &cp
		default:
			// accepted pair: direction by creation order is gone, pick by slot
			if sent == nil {
				sent = &cp
			} else {
				received = &cp
			}
		}
	}
	if sent == nil && received == nil {
		return nil, nil, errs.ErrNotFound.WrapMsg("friend request", "request", requestID)
	}
	return sent, received, nil
}

func (s *mongoStore) AcceptPair(ctx context.Context, requestID, accepterID string) error {
	now := time.Now()
	return mgo.WithTx(ctx, func(sc mongo.SessionContext) error {
		// check-and-set on the receiver row is the single-writer guard:
		// exactly one of two concurrent accepts can match it.
		res, err := coll().UpdateOne(sc,
			bson.M{"request_id": requestID, "user_id": accepterID, "status": model.FriendStatusPendingReceived},
			bson.M{"$set": bson.M{"status": model.FriendStatusAccepted, "updated_at": now}})
		if err != nil {
			return errs.WrapMsg(err, "accept receiver edge", "request", requestID)
		}
		if res.ModifiedCount == 0 {
			return errs.ErrInvalidState.WrapMsg("request is not pending", "request", requestID)
		}
		_, err = coll().UpdateOne(sc,
			bson.M{"request_id": requestID, "user_id": bson.M{"$ne": accepterID}},
			bson.M{"$set": bson.M{"status": model.FriendStatusAccepted, "updated_at": now}})
		if err != nil {
			return errs.WrapMsg(err, "accept sender edge", "request", requestID)
		}
		return nil
	})
}

func (s *mongoStore) Ignore(ctx context.Context, requestID, userID string) error {
	res, err := coll().UpdateOne(ctx,
		bson.M{"request_id": requestID, "user_id": userID, "status": model.FriendStatusPendingReceived},
		bson.M{"$set": bson.M{"status": model.FriendStatusIgnored, "updated_at": time.Now()}})
	if err != nil {
		return errs.WrapMsg(err, "ignore request", "request", requestID)
	}
	if res.ModifiedCount == 0 {
		return errs.ErrInvalidState.WrapMsg("request is not pending", "request", requestID)
	}
	return nil
}

func (s *mongoStore) DeletePair(ctx context.Context, requestID string) (int64, error) {
	res, err := coll().DeleteMany(ctx, bson.M{"request_id": requestID})
	if err != nil {
		return 0, errs.WrapMsg(err, "delete request pair", "request", requestID)
	}
	return res.DeletedCount, nil
}

func (s *mongoStore) DeleteAccepted(ctx context.Context, userID, friendID string) (int64, error) {
	res, err := coll().DeleteMany(ctx, bson.M{
		"status": model.FriendStatusAccepted,
		"$or": bson.A{
			bson.M{"user_id": userID, "friend_id": friendID},
			bson.M{"user_id": friendID, "friend_id": userID},
		},
	})
	if err != nil {
		return 0, errs.WrapMsg(err, "delete friendship")
	}
	return res.DeletedCount, nil
}

func (s *mongoStore) ListByStatus(ctx context.Context, userID, status string) ([]*model.FriendEdge, error) {
	cur, err := coll().Find(ctx, bson.M{"user_id": userID, "status": status})
	if err != nil {
		return nil, errs.WrapMsg(err, "list friend edges", "user", userID, "status", status)
	}
	defer func() { _ = cur.Close(ctx) }()
	var out []*model.FriendEdge
	for cur.Next(ctx) {
		var e model.FriendEdge
		if err := cur.Decode(&e); err != nil {
			return nil, errs.WrapMsg(err, "decode friend edge")
		}
		cp := e
		out = append(out, &cp)
	}
	return out, nil
}
