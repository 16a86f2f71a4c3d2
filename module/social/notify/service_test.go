package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

func seedNotifications(t *testing.T, store *MemStore, userID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	base := time.Now()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("n-%d", i)
		require.NoError(t, store.Insert(context.Background(), &model.Notification{
			ID:        id,
			UserID:    userID,
			Type:      model.NotificationSystem,
			Title:     "t",
			Body:      "b",
			Priority:  model.PriorityLow,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
		ids = append(ids, id)
	}
	return ids
}

func TestListPagesNewestFirst(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	seedNotifications(t, store, "u1", 5)

	page, err := svc.List(context.Background(), "u1", 1, 2, false)
	require.NoError(t, err)
	assert.EqualValues(t, 5, page.Total)
	assert.EqualValues(t, 5, page.UnreadCount)
	require.Len(t, page.Notifications, 2)
	assert.Equal(t, "n-4", page.Notifications[0].ID)
	assert.Equal(t, "n-3", page.Notifications[1].ID)

	page, err = svc.List(context.Background(), "u1", 3, 2, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, "n-0", page.Notifications[0].ID)
}

func TestListResolvesTypedMetadata(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	require.NoError(t, store.Insert(context.Background(), &model.Notification{
		ID:       "n-1",
		UserID:   "u1",
		Type:     model.NotificationConversationInvite,
		Priority: model.PriorityHigh,
		Metadata: map[string]any{
			"senderUsername":   "alice",
			"conversationId":   "c1",
			"messagePreview":   "hey",
			"isMessageRequest": true,
		},
		CreatedAt: time.Now(),
	}))
	require.NoError(t, store.Insert(context.Background(), &model.Notification{
		ID:        "n-2",
		UserID:    "u1",
		Type:      model.NotificationSystem,
		Priority:  model.PriorityLow,
		Metadata:  map[string]any{"key": "value"},
		CreatedAt: time.Now().Add(time.Second),
	}))

	page, err := svc.List(context.Background(), "u1", 1, 10, false)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)

	meta, ok := page.Notifications[1].Metadata.(InviteMetadata)
	require.True(t, ok)
	assert.Equal(t, "alice", meta.SenderUsername)
	assert.Equal(t, "c1", meta.ConversationID)
	assert.Equal(t, "hey", meta.MessagePreview)
	assert.True(t, meta.IsMessageRequest)

	// no declared shape: the raw map passes through
	raw, ok := page.Notifications[0].Metadata.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", raw["key"])
}

func TestMarkReadIsIdempotent(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ids := seedNotifications(t, store, "u1", 1)

	require.NoError(t, svc.MarkRead(context.Background(), "u1", ids[0]))
	rows := store.All("u1")
	require.NotNil(t, rows[0].ReadAt)
	firstReadAt := *rows[0].ReadAt

	// a second ack succeeds and keeps the original read timestamp
	require.NoError(t, svc.MarkRead(context.Background(), "u1", ids[0]))
	rows = store.All("u1")
	assert.Equal(t, firstReadAt, *rows[0].ReadAt)

	n, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestMarkReadForeignNotification(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ids := seedNotifications(t, store, "u1", 1)

	err := svc.MarkRead(context.Background(), "intruder", ids[0])
	assert.Equal(t, errs.CodeNotFound, errs.Code(err))
}

func TestMarkAllRead(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	seedNotifications(t, store, "u1", 3)

	n, err := svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	unread, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, unread)

	// already read: nothing left to update
	n, err = svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestListUnreadOnly(t *testing.T) {
	store := NewMemStore()
	svc := NewService(store)
	ids := seedNotifications(t, store, "u1", 3)
	require.NoError(t, svc.MarkRead(context.Background(), "u1", ids[1]))

	page, err := svc.List(context.Background(), "u1", 1, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	for _, row := range page.Notifications {
		assert.False(t, row.IsRead)
	}
}
