package notify

import (
	"linkup/module/social/model"
	"linkup/tools/decode"
)

// InviteMetadata is the typed view of a CONVERSATION_INVITE metadata map.
type InviteMetadata struct {
	SenderUsername    string `json:"senderUsername"`
	SenderDisplayName string `json:"senderDisplayName"`
	ConversationID    string `json:"conversationId"`
	MessagePreview    string `json:"messagePreview"`
	IsMessageRequest  bool   `json:"isMessageRequest"`
}

// FriendRequestMetadata is the typed view of a FRIEND_REQUEST_RECEIVED
// metadata map.
type FriendRequestMetadata struct {
	SenderUsername    string `json:"senderUsername"`
	SenderDisplayName string `json:"senderDisplayName"`
	RequestID         string `json:"requestId"`
}

// ParseInviteMetadata maps the stored metadata onto its typed shape. Metadata
// is schemaless in the store; consumers that care about structure go through
// here instead of digging into the map.
func ParseInviteMetadata(n *model.Notification) (InviteMetadata, error) {
	var m InviteMetadata
	err := decode.Decode(n.Metadata, &m, decode.DefaultOptions())
	return m, err
}

func ParseFriendRequestMetadata(n *model.Notification) (FriendRequestMetadata, error) {
	var m FriendRequestMetadata
	err := decode.Decode(n.Metadata, &m, decode.DefaultOptions())
	return m, err
}

// TypedMetadata resolves a notification's metadata to the typed shape for
// its type. Types without a declared shape, and maps that fail to decode,
// keep the raw map.
func TypedMetadata(n *model.Notification) any {
	switch n.Type {
	case model.NotificationConversationInvite:
		if m, err := ParseInviteMetadata(n); err == nil {
			return m
		}
	case model.NotificationFriendRequestReceived:
		if m, err := ParseFriendRequestMetadata(n); err == nil {
			return m
		}
	}
	return n.Metadata
}
