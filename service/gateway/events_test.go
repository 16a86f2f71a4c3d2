package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCoversEveryEventType(t *testing.T) {
	at := time.Now()
	events := []Event{
		FriendOnline{UserID: "u", Timestamp: at},
		FriendOffline{UserID: "u", Timestamp: at},
		FriendRequestReceived{SenderID: "u", RequestID: "r", Timestamp: at},
		FriendRequestAccepted{AccepterID: "u", Timestamp: at},
		ConversationRequestReceived{SenderID: "u", ConversationID: "c", Timestamp: at},
		ConversationRequestAccepted{AccepterID: "u", ConversationID: "c", Timestamp: at},
		MessagesSeen{ConversationID: "c", SeenBy: "u", SeenAt: at},
		NewMessage{ConversationID: "c", MessageID: "m", Timestamp: at},
	}
	for _, ev := range events {
		data, err := Encode(ev)
		require.NoError(t, err, "type %s", ev.Type())

		var frame map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &frame))
		var typ string
		require.NoError(t, json.Unmarshal(frame["type"], &typ))
		assert.Equal(t, string(ev.Type()), typ)
		assert.Contains(t, frame, "data")
	}
}

type bogusEvent struct{}

func (bogusEvent) Type() EventType { return "BOGUS" }

func TestEncodeRejectsUnknownEvent(t *testing.T) {
	_, err := Encode(bogusEvent{})
	assert.Error(t, err)
}

func TestMessagePreviewFieldsOnWire(t *testing.T) {
	data, err := Encode(ConversationRequestReceived{
		SenderID:       "u1",
		SenderName:     "Alice",
		SenderUsername: "alice",
		ConversationID: "c1",
		MessagePreview: "hey",
		Timestamp:      time.Now(),
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"messagePreview":"hey"`)
	assert.Contains(t, string(data), `"type":"CONVERSATION_REQUEST_RECEIVED"`)
}
