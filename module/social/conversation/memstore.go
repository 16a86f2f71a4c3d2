package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// MemStore is the in-memory Store used by tests. One lock covers every
// multi-write unit, mirroring the mongo transactions.
type MemStore struct {
	mu       sync.Mutex
	convs    map[string]*model.Conversation
	parts    map[string]*model.ConversationParticipant // conv|user
	messages map[string][]*model.Message               // conv -> append order
}

func NewMemStore() *MemStore {
	return &MemStore{
		convs:    make(map[string]*model.Conversation),
		parts:    make(map[string]*model.ConversationParticipant),
		messages: make(map[string][]*model.Message),
	}
}

func pkey(conversationID, userID string) string { return conversationID + "|" + userID }

func (s *MemStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("conversation", "id", id)
	}
	cp := *c
	return &cp, nil
}

func (s *MemStore) GetParticipant(ctx context.Context, conversationID, userID string) (*model.ConversationParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[pkey(conversationID, userID)]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("participant", "conversation", conversationID)
	}
	cp := *p
	return &cp, nil
}

func (s *MemStore) ListParticipants(ctx context.Context, conversationID string) ([]*model.ConversationParticipant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ConversationParticipant
	for _, p := range s.parts {
		if p.ConversationID == conversationID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemStore) CreateDirect(ctx context.Context, conv *model.Conversation, parts []*model.ConversationParticipant, first *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[conv.ID]; ok {
		return errs.ErrConflict.WrapMsg("conversation already exists", "id", conv.ID)
	}
	cc := *conv
	s.convs[conv.ID] = &cc
	for _, p := range parts {
		cp := *p
		s.parts[pkey(p.ConversationID, p.UserID)] = &cp
	}
	cm := *first
	s.messages[conv.ID] = append(s.messages[conv.ID], &cm)
	return nil
}

func (s *MemStore) AppendMessage(ctx context.Context, msg *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[msg.ConversationID]
	if !ok {
		return errs.ErrNotFound.WrapMsg("conversation", "id", msg.ConversationID)
	}
	cm := *msg
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &cm)
	for _, p := range s.parts {
		if p.ConversationID == msg.ConversationID && p.UserID != msg.SenderID {
			p.UnreadCount++
		}
	}
	c.LastMessageID = msg.ID
	c.UpdatedAt = msg.CreatedAt
	return nil
}

func (s *MemStore) ListMessagesBefore(ctx context.Context, conversationID string, before *time.Time, limit int) ([]*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Message
	for _, m := range s.messages[conversationID] {
		if m.DeletedForAll {
			continue
		}
		if before != nil && !m.CreatedAt.Before(*before) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) MarkSeen(ctx context.Context, conversationID, userID string, messageIDs []string, seenAt time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		ids[id] = true
	}
	var marked []string
	for _, m := range s.messages[conversationID] {
		if ids[m.ID] && m.SeenAt == nil {
			at := seenAt
			m.SeenAt = &at
			marked = append(marked, m.ID)
		}
	}
	if p, ok := s.parts[pkey(conversationID, userID)]; ok && p.UnreadCount > 0 {
		p.UnreadCount = 0
		p.UpdatedAt = seenAt
	}
	return marked, nil
}

func (s *MemStore) AcceptParticipant(ctx context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parts[pkey(conversationID, userID)]
	if !ok || p.Status != model.ParticipantPending {
		return errs.ErrInvalidState.WrapMsg("invitation is not pending", "conversation", conversationID)
	}
	p.Status = model.ParticipantAccepted
	p.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) DeleteParticipant(ctx context.Context, conversationID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pkey(conversationID, userID)
	p, ok := s.parts[k]
	if !ok || p.Status != model.ParticipantPending {
		return errs.ErrInvalidState.WrapMsg("invitation is not pending", "conversation", conversationID)
	}
	delete(s.parts, k)
	return nil
}

func (s *MemStore) ListForUser(ctx context.Context, userID string) ([]*ListItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []*ListItem
	for _, p := range s.parts {
		if p.UserID != userID {
			continue
		}
		c, ok := s.convs[p.ConversationID]
		if !ok {
			continue
		}
		cp, cc := *p, *c
		it := &ListItem{Conversation: &cc, Participant: &cp}
		for _, m := range s.messages[c.ID] {
			if m.ID == c.LastMessageID {
				cm := *m
				it.LastMessage = &cm
			}
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Conversation.UpdatedAt.After(items[j].Conversation.UpdatedAt)
	})
	return items, nil
}

// Messages returns a snapshot of one conversation's messages in insert order.
func (s *MemStore) Messages(conversationID string) []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Message, 0, len(s.messages[conversationID]))
	for _, m := range s.messages[conversationID] {
		cp := *m
		out = append(out, &cp)
	}
	return out
}
