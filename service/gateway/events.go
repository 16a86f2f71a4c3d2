package gateway

import (
	"encoding/json"
	"time"

	"linkup/tools/errs"
)

// EventType enumerates every frame the gateway pushes to a live connection.
type EventType string

const (
	EventFriendOnline                EventType = "FRIEND_ONLINE"
	EventFriendOffline               EventType = "FRIEND_OFFLINE"
	EventFriendRequestReceived       EventType = "FRIEND_REQUEST_RECEIVED"
	EventFriendRequestAccepted       EventType = "FRIEND_REQUEST_ACCEPTED"
	EventConversationRequestReceived EventType = "CONVERSATION_REQUEST_RECEIVED"
	EventConversationRequestAccepted EventType = "CONVERSATION_REQUEST_ACCEPTED"
	EventMessagesSeen                EventType = "MESSAGES_SEEN"
	EventNewMessage                  EventType = "NEW_MESSAGE"
)

// Event is the closed union of push payloads. Only the types below implement
// it; Encode type-switches over the full set so an unhandled payload is a
// programming error caught at the push boundary, not a silently dropped frame.
type Event interface {
	Type() EventType
}

type FriendOnline struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
}

type FriendOffline struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Timestamp   time.Time `json:"timestamp"`
}

type FriendRequestReceived struct {
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderUsername string    `json:"senderUsername"`
	RequestID      string    `json:"requestId"`
	Timestamp      time.Time `json:"timestamp"`
}

type FriendRequestAccepted struct {
	AccepterID       string    `json:"accepterId"`
	AccepterName     string    `json:"accepterName"`
	AccepterUsername string    `json:"accepterUsername"`
	Timestamp        time.Time `json:"timestamp"`
}

type ConversationRequestReceived struct {
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderUsername string    `json:"senderUsername"`
	ConversationID string    `json:"conversationId"`
	MessagePreview string    `json:"messagePreview"`
	Timestamp      time.Time `json:"timestamp"`
}

type ConversationRequestAccepted struct {
	AccepterID       string    `json:"accepterId"`
	AccepterName     string    `json:"accepterName"`
	AccepterUsername string    `json:"accepterUsername"`
	ConversationID   string    `json:"conversationId"`
	Timestamp        time.Time `json:"timestamp"`
}

type MessagesSeen struct {
	ConversationID string    `json:"conversationId"`
	SeenBy         string    `json:"seenBy"`
	SeenAt         time.Time `json:"seenAt"`
	MessageCount   int       `json:"messageCount"`
	MessageIDs     []string  `json:"messageIds"`
}

type NewMessage struct {
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	SenderUsername string    `json:"senderUsername"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func (FriendOnline) Type() EventType                { return EventFriendOnline }
func (FriendOffline) Type() EventType               { return EventFriendOffline }
func (FriendRequestReceived) Type() EventType       { return EventFriendRequestReceived }
func (FriendRequestAccepted) Type() EventType       { return EventFriendRequestAccepted }
func (ConversationRequestReceived) Type() EventType { return EventConversationRequestReceived }
func (ConversationRequestAccepted) Type() EventType { return EventConversationRequestAccepted }
func (MessagesSeen) Type() EventType                { return EventMessagesSeen }
func (NewMessage) Type() EventType                  { return EventNewMessage }

// envelope is the wire shape: { "type": ..., "data": ... }.
type envelope struct {
	Type EventType `json:"type"`
	Data Event     `json:"data"`
}

// Encode serializes an event into its push frame.
func Encode(ev Event) ([]byte, error) {
	switch ev.(type) {
	case FriendOnline, FriendOffline,
		FriendRequestReceived, FriendRequestAccepted,
		ConversationRequestReceived, ConversationRequestAccepted,
		MessagesSeen, NewMessage:
		return json.Marshal(envelope{Type: ev.Type(), Data: ev})
	default:
		return nil, errs.New("unknown push event", "type", ev.Type())
	}
}
