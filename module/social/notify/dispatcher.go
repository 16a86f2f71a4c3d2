package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"linkup/logger"
	"linkup/module/social/model"
	"linkup/service/gateway"
	"linkup/tools/errs"
)

// LivePusher is the connection-registry surface the dispatcher needs.
type LivePusher interface {
	IsConnected(userID string) bool
	PushEvent(userID string, ev gateway.Event) error
}

// UserReader resolves the user snapshots embedded in titles and payloads.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// FriendChecker and ParticipantChecker back the conversation-invite guards:
// an invite between existing friends, or toward a non-pending participant,
// is not a message request and produces no notification.
type FriendChecker interface {
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
}

type ParticipantChecker interface {
	ParticipantStatus(ctx context.Context, conversationID, userID string) (string, error)
}

// Event is a semantic notification event. Durable fields always persist;
// Push, when set, is the structurally equivalent live frame.
type Event struct {
	TargetID    string
	Type        string
	Title       string
	Body        string
	FromUserID  string
	RelatedID   string
	RelatedType string
	ActionURL   string
	Priority    string
	Metadata    map[string]any
	Push        gateway.Event
}

// Dispatcher fans a semantic event out to the durable store and, best
// effort, to the target's live connections. The durable write is the source
// of truth; the push is a latency optimization only.
type Dispatcher struct {
	store        Store
	users        UserReader
	pusher       LivePusher
	friends      FriendChecker
	participants ParticipantChecker
}

func NewDispatcher(store Store, users UserReader, pusher LivePusher, friends FriendChecker, participants ParticipantChecker) *Dispatcher {
	return &Dispatcher{store: store, users: users, pusher: pusher, friends: friends, participants: participants}
}

// Dispatch persists exactly one record for the event and then attempts the
// live push. Persist failure is the only failure surfaced; push failures are
// logged and swallowed and never roll the record back.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	if ev.Priority == "" {
		ev.Priority = model.PriorityMedium
	}
	n := &model.Notification{
		ID:          uuid.NewString(),
		UserID:      ev.TargetID,
		Type:        ev.Type,
		Title:       ev.Title,
		Body:        ev.Body,
		FromUserID:  ev.FromUserID,
		RelatedID:   ev.RelatedID,
		RelatedType: ev.RelatedType,
		ActionURL:   ev.ActionURL,
		Priority:    ev.Priority,
		Metadata:    ev.Metadata,
		CreatedAt:   time.Now(),
	}
	if err := d.store.Insert(ctx, n); err != nil {
		return errs.ErrDeliveryPersist.WrapMsg("durable notification write failed",
			"user", ev.TargetID, "type", ev.Type)
	}
	d.PushLive(ev.TargetID, ev.Push)
	return nil
}

// PushLive delivers a live-only frame; errors are swallowed at this
// granularity so one bad connection never blocks a batch.
func (d *Dispatcher) PushLive(userID string, ev gateway.Event) {
	if ev == nil || !d.pusher.IsConnected(userID) {
		return
	}
	if err := d.pusher.PushEvent(userID, ev); err != nil {
		logger.Infof("[notify] live push dropped user=%s type=%s: %v", userID, ev.Type(), err)
	}
}

// FriendRequestReceived notifies the receiver of a new friend request.
func (d *Dispatcher) FriendRequestReceived(ctx context.Context, receiverID, senderID, requestID string) error {
	sender, err := d.users.GetByID(ctx, senderID)
	if err != nil {
		return err
	}
	now := time.Now()
	return d.Dispatch(ctx, Event{
		TargetID:    receiverID,
		Type:        model.NotificationFriendRequestReceived,
		Title:       "New Friend Request",
		Body:        fmt.Sprintf("%s sent you a friend request", sender.Name()),
		FromUserID:  senderID,
		RelatedID:   requestID,
		RelatedType: "friend_request",
		ActionURL:   "/friends/requests",
		Priority:    model.PriorityMedium,
		Metadata: map[string]any{
			"senderUsername":    sender.Username,
			"senderDisplayName": sender.DisplayName,
			"requestId":         requestID,
		},
		Push: gateway.FriendRequestReceived{
			SenderID:       sender.ID,
			SenderName:     sender.Name(),
			SenderUsername: sender.Username,
			RequestID:      requestID,
			Timestamp:      now,
		},
	})
}

// FriendRequestAccepted notifies the original sender.
func (d *Dispatcher) FriendRequestAccepted(ctx context.Context, senderID, accepterID string) error {
	accepter, err := d.users.GetByID(ctx, accepterID)
	if err != nil {
		return err
	}
	now := time.Now()
	return d.Dispatch(ctx, Event{
		TargetID:    senderID,
		Type:        model.NotificationFriendRequestAccepted,
		Title:       "Friend Request Accepted",
		Body:        fmt.Sprintf("%s accepted your friend request", accepter.Name()),
		FromUserID:  accepterID,
		RelatedType: "friend_request",
		ActionURL:   "/friends",
		Priority:    model.PriorityMedium,
		Metadata: map[string]any{
			"accepterUsername":    accepter.Username,
			"accepterDisplayName": accepter.DisplayName,
		},
		Push: gateway.FriendRequestAccepted{
			AccepterID:       accepter.ID,
			AccepterName:     accepter.Name(),
			AccepterUsername: accepter.Username,
			Timestamp:        now,
		},
	})
}

// ConversationRequestReceived notifies the invited party of a message
// request. Skipped when the two are already friends or the receiver's
// participant row is not pending: not a message-request scenario.
func (d *Dispatcher) ConversationRequestReceived(ctx context.Context, receiverID, senderID, conversationID, messageContent string) error {
	sender, err := d.users.GetByID(ctx, senderID)
	if err != nil {
		return err
	}
	if friends, err := d.friends.AreFriends(ctx, senderID, receiverID); err != nil {
		return err
	} else if friends {
		return nil
	}
	status, err := d.participants.ParticipantStatus(ctx, conversationID, receiverID)
	if err != nil || status != model.ParticipantPending {
		return nil
	}

	now := time.Now()
	return d.Dispatch(ctx, Event{
		TargetID:    receiverID,
		Type:        model.NotificationConversationInvite,
		Title:       "New Message Request",
		Body:        fmt.Sprintf("%s: %s", sender.Name(), truncate(messageContent, 80)),
		FromUserID:  senderID,
		RelatedID:   conversationID,
		RelatedType: "conversation",
		ActionURL:   "/inbox?conversation=" + conversationID,
		Priority:    model.PriorityHigh,
		Metadata: map[string]any{
			"senderUsername":    sender.Username,
			"senderDisplayName": sender.DisplayName,
			"conversationId":    conversationID,
			"messagePreview":    head(messageContent, 100),
			"isMessageRequest":  true,
		},
		Push: gateway.ConversationRequestReceived{
			SenderID:       sender.ID,
			SenderName:     sender.Name(),
			SenderUsername: sender.Username,
			ConversationID: conversationID,
			MessagePreview: truncate(messageContent, 50),
			Timestamp:      now,
		},
	})
}

// ConversationRequestAccepted notifies the inviter that the request was accepted.
func (d *Dispatcher) ConversationRequestAccepted(ctx context.Context, senderID, accepterID, conversationID string) error {
	accepter, err := d.users.GetByID(ctx, accepterID)
	if err != nil {
		return err
	}
	now := time.Now()
	return d.Dispatch(ctx, Event{
		TargetID:    senderID,
		Type:        model.NotificationConversationAccepted,
		Title:       "Message Request Accepted",
		Body:        fmt.Sprintf("%s accepted your message request", accepter.Name()),
		FromUserID:  accepterID,
		RelatedID:   conversationID,
		RelatedType: "conversation",
		ActionURL:   "/inbox?conversation=" + conversationID,
		Priority:    model.PriorityMedium,
		Metadata: map[string]any{
			"accepterUsername":    accepter.Username,
			"accepterDisplayName": accepter.DisplayName,
			"conversationId":      conversationID,
		},
		Push: gateway.ConversationRequestAccepted{
			AccepterID:       accepter.ID,
			AccepterName:     accepter.Name(),
			AccepterUsername: accepter.Username,
			ConversationID:   conversationID,
			Timestamp:        now,
		},
	})
}

// truncate cuts to n runes and appends an ellipsis when anything was cut.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// head cuts to n runes without an ellipsis.
func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
