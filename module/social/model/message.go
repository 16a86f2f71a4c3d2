package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"linkup/service/mgo"
)

// Message. SeenAt is write-once: set exactly once from nil, never reset.
// DeletedForAll messages stay in the collection but are excluded from
// every fetch.
type Message struct {
	ID             string     `bson:"_id" json:"id"` // snowflake string
	ConversationID string     `bson:"conversation_id" json:"conversationId"`
	SenderID       string     `bson:"sender_id" json:"senderId"`
	Content        string     `bson:"content" json:"content"`
	CreatedAt      time.Time  `bson:"created_at" json:"createdAt"`
	SeenAt         *time.Time `bson:"seen_at,omitempty" json:"seenAt,omitempty"`
	DeletedForAll  bool       `bson:"deleted_for_all" json:"-"`
}

func (m *Message) GetTableName() string { return "messages" }

func (m *Message) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(m.GetTableName())
}
