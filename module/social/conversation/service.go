package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkup/module/social/model"
	"linkup/service/gateway"
	"linkup/tools/errs"
	"linkup/tools/ids"
)

// Notifier is the dispatcher surface for conversation transitions. The
// dispatcher owns the message-request guards; the state machine calls it
// unconditionally after the transition commits.
type Notifier interface {
	ConversationRequestReceived(ctx context.Context, receiverID, senderID, conversationID, messageContent string) error
	ConversationRequestAccepted(ctx context.Context, senderID, accepterID, conversationID string) error
}

// UserReader resolves sender snapshots embedded in push frames.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// LivePusher is the connection-registry surface for live-only frames
// (seen receipts, new-message fan-out).
type LivePusher interface {
	IsConnected(userID string) bool
	PushEvent(userID string, ev gateway.Event) error
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Service owns the conversation lifecycle: direct creation with a pending
// invite, the pending -> accepted participant transition, message append and
// the seen-batch.
type Service struct {
	store    Store
	users    UserReader
	notifier Notifier
	pusher   LivePusher
}

func NewService(store Store, users UserReader, notifier Notifier, pusher LivePusher) *Service {
	return &Service{store: store, users: users, notifier: notifier, pusher: pusher}
}

// CreateDirect opens a direct conversation carrying the first message. The
// sender joins accepted, the recipient joins pending with one unread; the
// recipient's invite notification follows the commit.
func (s *Service) CreateDirect(ctx context.Context, senderID, recipientID, content string) (*model.Conversation, *model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, errs.ErrBadRequest.WrapMsg("message content is empty")
	}
	if senderID == recipientID {
		return nil, nil, errs.ErrBadRequest.WrapMsg("cannot message yourself")
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	msg := &model.Message{
		ID:        ids.GenerateString(),
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
	}
	conv := &model.Conversation{
		ID:            uuid.NewString(),
		Kind:          model.ConversationDirect,
		LastMessageID: msg.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	msg.ConversationID = conv.ID
	parts := []*model.ConversationParticipant{
		{
			ID: uuid.NewString(), ConversationID: conv.ID, UserID: senderID,
			Status: model.ParticipantAccepted, CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), ConversationID: conv.ID, UserID: recipientID,
			Status: model.ParticipantPending, UnreadCount: 1, InvitedBy: senderID,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	if err := s.store.CreateDirect(ctx, conv, parts, msg); err != nil {
		return nil, nil, err
	}
	if err := s.notifier.ConversationRequestReceived(ctx, recipientID, senderID, conv.ID, content); err != nil {
		return conv, msg, err
	}
	return conv, msg, nil
}

// SendMessage appends to a conversation the sender has accepted. Pending
// participants cannot reply; that is the message-request gate.
func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, content string) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errs.ErrBadRequest.WrapMsg("message content is empty")
	}
	p, err := s.store.GetParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "id", conversationID)
	}
	if p.Status != model.ParticipantAccepted {
		return nil, errs.ErrInvalidState.WrapMsg("cannot reply before accepting the request",
			"conversation", conversationID)
	}
	msg := &model.Message{
		ID:             ids.GenerateString(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      time.Now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.fanOutNewMessage(ctx, msg)
	return msg, nil
}

func (s *Service) fanOutNewMessage(ctx context.Context, msg *model.Message) {
	sender, err := s.users.GetByID(ctx, msg.SenderID)
	if err != nil {
		return
	}
	parts, err := s.store.ListParticipants(ctx, msg.ConversationID)
	if err != nil {
		return
	}
	ev := gateway.NewMessage{
		ConversationID: msg.ConversationID,
		MessageID:      msg.ID,
		SenderID:       sender.ID,
		SenderName:     sender.Name(),
		SenderUsername: sender.Username,
		Content:        msg.Content,
		Timestamp:      msg.CreatedAt,
	}
	for _, p := range parts {
		if p.UserID == msg.SenderID || p.Status != model.ParticipantAccepted {
			continue
		}
		if !s.pusher.IsConnected(p.UserID) {
			continue
		}
		// per-recipient isolation: one dead connection never blocks the rest
		_ = s.pusher.PushEvent(p.UserID, ev)
	}
}

// MessagesPage is one page of conversation history, oldest first.
type MessagesPage struct {
	Messages []*model.Message `json:"messages"`
	CanReply bool             `json:"canReply"`
	HasMore  bool             `json:"hasMore"`
}

// FetchMessages pages history backwards from the cursor (exclusive). With
// markAsSeen, unseen messages from others on the page are stamped and the
// requester's unread counter resets in the same unit, then other accepted
// live participants get a seen receipt.
func (s *Service) FetchMessages(ctx context.Context, conversationID, requesterID string, limit int, before *time.Time, markAsSeen bool) (*MessagesPage, error) {
	p, err := s.store.GetParticipant(ctx, conversationID, requesterID)
	if err != nil {
		// non-participants cannot tell the conversation exists
		return nil, errs.ErrNotFound.WrapMsg("conversation", "id", conversationID)
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	msgs, err := s.store.ListMessagesBefore(ctx, conversationID, before, limit)
	if err != nil {
		return nil, err
	}

	if markAsSeen && p.Status == model.ParticipantAccepted {
		if err := s.markSeen(ctx, conversationID, requesterID, msgs); err != nil {
			return nil, err
		}
	}

	// store order is newest first; clients render oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return &MessagesPage{
		Messages: msgs,
		CanReply: p.Status == model.ParticipantAccepted,
		HasMore:  len(msgs) == limit,
	}, nil
}

func (s *Service) markSeen(ctx context.Context, conversationID, requesterID string, msgs []*model.Message) error {
	var unseen []string
	for _, m := range msgs {
		if m.SenderID != requesterID && m.SeenAt == nil {
			unseen = append(unseen, m.ID)
		}
	}
	if len(unseen) == 0 {
		return nil
	}
	seenAt := time.Now()
	marked, err := s.store.MarkSeen(ctx, conversationID, requesterID, unseen, seenAt)
	if err != nil {
		return err
	}
	if len(marked) == 0 {
		return nil
	}
	stamped := make(map[string]bool, len(marked))
	for _, id := range marked {
		stamped[id] = true
	}
	for _, m := range msgs {
		if stamped[m.ID] {
			at := seenAt
			m.SeenAt = &at
		}
	}

	parts, err := s.store.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil
	}
	// the receipt carries the ids this reader actually stamped; a racing
	// reader's batch is its own receipt
	ev := gateway.MessagesSeen{
		ConversationID: conversationID,
		SeenBy:         requesterID,
		SeenAt:         seenAt,
		MessageCount:   len(marked),
		MessageIDs:     marked,
	}
	for _, op := range parts {
		if op.UserID == requesterID || op.Status != model.ParticipantAccepted {
			continue
		}
		if !s.pusher.IsConnected(op.UserID) {
			continue
		}
		_ = s.pusher.PushEvent(op.UserID, ev)
	}
	return nil
}

// AcceptInvite flips the requester's participant row pending -> accepted.
// In a direct conversation the sole other accepted participant (the inviter)
// is notified that the request was accepted.
func (s *Service) AcceptInvite(ctx context.Context, conversationID, userID string) error {
	if _, err := s.store.GetParticipant(ctx, conversationID, userID); err != nil {
		return errs.ErrNotFound.WrapMsg("conversation", "id", conversationID)
	}
	if err := s.store.AcceptParticipant(ctx, conversationID, userID); err != nil {
		return err
	}
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.Kind != model.ConversationDirect {
		return nil
	}
	parts, err := s.store.ListParticipants(ctx, conversationID)
	if err != nil {
		return err
	}
	var others []string
	for _, p := range parts {
		if p.UserID != userID && p.Status == model.ParticipantAccepted {
			others = append(others, p.UserID)
		}
	}
	if len(others) != 1 {
		return nil
	}
	return s.notifier.ConversationRequestAccepted(ctx, others[0], userID, conversationID)
}

// RejectInvite deletes the requester's pending row; the inviter is not told.
func (s *Service) RejectInvite(ctx context.Context, conversationID, userID string) error {
	if _, err := s.store.GetParticipant(ctx, conversationID, userID); err != nil {
		return errs.ErrNotFound.WrapMsg("conversation", "id", conversationID)
	}
	return s.store.DeleteParticipant(ctx, conversationID, userID)
}

// StatusChecker answers participant-status lookups straight from the store,
// empty when the row is absent. The notification dispatcher uses it as the
// invite guard without depending on the full service.
type StatusChecker struct {
	Store Store
}

func (c StatusChecker) ParticipantStatus(ctx context.Context, conversationID, userID string) (string, error) {
	p, err := c.Store.GetParticipant(ctx, conversationID, userID)
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			return "", nil
		}
		return "", err
	}
	return p.Status, nil
}

// List returns the requester's conversations, most recently active first.
func (s *Service) List(ctx context.Context, userID string) ([]*ListItem, error) {
	return s.store.ListForUser(ctx, userID)
}
