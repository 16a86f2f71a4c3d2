package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"linkup/service/mgo"
)

// Friend edge statuses. A request writes two mirrored rows (sent/received);
// acceptance flips both to accepted in one transaction so the relation is
// queryable from either side from that instant.
const (
	FriendStatusPendingSent     = "pending_sent"
	FriendStatusPendingReceived = "pending_received"
	FriendStatusAccepted        = "accepted"
	FriendStatusIgnored         = "ignored"
)

// FriendEdge is one direction of a relationship. Unique index on
// (user_id, friend_id); RequestID is shared by the mirrored pair.
type FriendEdge struct {
	ID        string    `bson:"_id"`        // uuid
	RequestID string    `bson:"request_id"` // pair handle, used by accept/ignore/cancel
	UserID    string    `bson:"user_id"`    // owner of this row
	FriendID  string    `bson:"friend_id"`  // the other side
	Status    string    `bson:"status"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (e *FriendEdge) GetTableName() string { return "friend_edges" }

func (e *FriendEdge) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(e.GetTableName())
}
