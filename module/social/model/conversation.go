package model

import (
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"linkup/service/mgo"
)

const (
	ConversationDirect = "direct"
	ConversationGroup  = "group"
)

// Participant statuses. The transition is one-way pending -> accepted;
// rejection deletes the row instead of reverting status.
const (
	ParticipantPending  = "pending"
	ParticipantAccepted = "accepted"
)

// Conversation kind is immutable; the participant set grows only via invite.
type Conversation struct {
	ID            string    `bson:"_id" json:"id"` // uuid
	Kind          string    `bson:"kind" json:"kind"`
	LastMessageID string    `bson:"last_message_id,omitempty" json:"lastMessageId,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updatedAt"`
}

func (c *Conversation) GetTableName() string { return "conversations" }

func (c *Conversation) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(c.GetTableName())
}

// ConversationParticipant is unique per (conversation_id, user_id).
// UnreadCount never goes below zero; resets happen in the same transaction
// as the seen-batch so readers never observe a half-applied unit.
type ConversationParticipant struct {
	ID             string    `bson:"_id" json:"id"` // uuid
	ConversationID string    `bson:"conversation_id" json:"conversationId"`
	UserID         string    `bson:"user_id" json:"userId"`
	Status         string    `bson:"status" json:"status"`
	UnreadCount    int64     `bson:"unread_count" json:"unreadCount"`
	InvitedBy      string    `bson:"invited_by,omitempty" json:"invitedBy,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

func (p *ConversationParticipant) GetTableName() string { return "conversation_participants" }

func (p *ConversationParticipant) Collection() *mongo.Collection {
	return mgo.GetDB().Collection(p.GetTableName())
}
