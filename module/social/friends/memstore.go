package friends

import (
	"context"
	"sync"
	"time"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// MemStore is the in-memory Store used by tests. Pair operations hold one
// lock so they are atomic the same way the mongo transactions are.
type MemStore struct {
	mu    sync.Mutex
	edges map[string]*model.FriendEdge // user|friend -> edge
}

func NewMemStore() *MemStore {
	return &MemStore{edges: make(map[string]*model.FriendEdge)}
}

func key(userID, friendID string) string { return userID + "|" + friendID }

func (s *MemStore) InsertPair(ctx context.Context, sent, received *model.FriendEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.edges[key(sent.UserID, sent.FriendID)]; ok {
		return errs.ErrConflict.WrapMsg("relationship already exists")
	}
	if _, ok := s.edges[key(sent.FriendID, sent.UserID)]; ok {
		return errs.ErrConflict.WrapMsg("relationship already exists")
	}
	cs, cr := *sent, *received
	s.edges[key(sent.UserID, sent.FriendID)] = &cs
	s.edges[key(received.UserID, received.FriendID)] = &cr
	return nil
}

func (s *MemStore) GetEdge(ctx context.Context, userID, friendID string) (*model.FriendEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[key(userID, friendID)]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("friend edge")
	}
	cp := *e
	return &cp, nil
}

func (s *MemStore) GetPair(ctx context.Context, requestID string) (*model.FriendEdge, *model.FriendEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sent, received *model.FriendEdge
	for _, e := range s.edges {
		if e.RequestID != requestID {
			continue
		}
		cp := *e
		switch e.Status {
		case model.FriendStatusPendingReceived, model.FriendStatusIgnored:
			received = &cp
		case model.FriendStatusPendingSent:
			sent = &cp
		default:
			if sent == nil {
				sent = &cp
			} else {
				received = &cp
			}
		}
	}
	if sent == nil && received == nil {
		return nil, nil, errs.ErrNotFound.WrapMsg("friend request")
	}
	return sent, received, nil
}

func (s *MemStore) AcceptPair(ctx context.Context, requestID, accepterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var recv *model.FriendEdge
	for _, e := range s.edges {
		if e.RequestID == requestID && e.UserID == accepterID {
			recv = e
		}
	}
	if recv == nil || recv.Status != model.FriendStatusPendingReceived {
		return errs.ErrInvalidState.WrapMsg("request is not pending")
	}
	now := time.Now()
	for _, e := range s.edges {
		if e.RequestID == requestID {
			e.Status = model.FriendStatusAccepted
			e.UpdatedAt = now
		}
	}
	return nil
}

func (s *MemStore) Ignore(ctx context.Context, requestID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.edges {
		if e.RequestID == requestID && e.UserID == userID && e.Status == model.FriendStatusPendingReceived {
			e.Status = model.FriendStatusIgnored
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return errs.ErrInvalidState.WrapMsg("request is not pending")
}

func (s *MemStore) DeletePair(ctx context.Context, requestID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, e := range s.edges {
		if e.RequestID == requestID {
			delete(s.edges, k)
			n++
		}
	}
	return n, nil
}

func (s *MemStore) DeleteAccepted(ctx context.Context, userID, friendID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range []string{key(userID, friendID), key(friendID, userID)} {
		if e, ok := s.edges[k]; ok && e.Status == model.FriendStatusAccepted {
			delete(s.edges, k)
			n++
		}
	}
	return n, nil
}

func (s *MemStore) ListByStatus(ctx context.Context, userID, status string) ([]*model.FriendEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.FriendEdge
	for _, e := range s.edges {
		if e.UserID == userID && e.Status == status {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}
