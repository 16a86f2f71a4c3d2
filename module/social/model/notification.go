package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"linkup/service/mgo"
)

// Notification types mirror the live-push event names where both channels
// carry the event; CONVERSATION_INVITE / CONVERSATION_ACCEPTED are the
// durable counterparts of the conversation request frames.
const (
	NotificationFriendRequestReceived = "FRIEND_REQUEST_RECEIVED"
	NotificationFriendRequestAccepted = "FRIEND_REQUEST_ACCEPTED"
	NotificationConversationInvite    = "CONVERSATION_INVITE"
	NotificationConversationAccepted  = "CONVERSATION_ACCEPTED"
	NotificationSystem                = "SYSTEM_NOTIFICATION"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
)

// Notification is the durable record; its lifecycle is independent from any
// live push attempt.
type Notification struct {
	ID          string         `bson:"_id" json:"id"` // uuid
	UserID      string         `bson:"user_id" json:"userId"`
	Type        string         `bson:"type" json:"type"`
	Title       string         `bson:"title" json:"title"`
	Body        string         `bson:"body" json:"body"`
	FromUserID  string         `bson:"from_user_id,omitempty" json:"fromUserId,omitempty"`
	RelatedID   string         `bson:"related_id,omitempty" json:"relatedId,omitempty"`
	RelatedType string         `bson:"related_type,omitempty" json:"relatedType,omitempty"`
	ActionURL   string         `bson:"action_url,omitempty" json:"actionUrl,omitempty"`
	Priority    string         `bson:"priority" json:"priority"`
	Metadata    map[string]any `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IsRead      bool           `bson:"is_read" json:"isRead"`
	CreatedAt   time.Time      `bson:"created_at" json:"createdAt"`
	ReadAt      *time.Time     `bson:"read_at,omitempty" json:"readAt,omitempty"`
}

func (n *Notification) GetTableName() string { return "notifications" }

func (n *Notification) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(n.GetTableName())
}
