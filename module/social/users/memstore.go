package users

import (
	"context"
	"sync"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// MemStore is the in-memory Store used by tests across the social packages.
type MemStore struct {
	mu   sync.RWMutex
	byID map[string]*model.User
}

func NewMemStore() *MemStore {
	return &MemStore{byID: make(map[string]*model.User)}
}

func (s *MemStore) Create(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range s.byID {
		if ex.Username == u.Username || (u.Email != "" && ex.Email == u.Email) {
			return errs.ErrConflict.WrapMsg("username or email already taken")
		}
	}
	cp := *u
	s.byID[u.ID] = &cp
	return nil
}

func (s *MemStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	cp := *u
	return &cp, nil
}

func (s *MemStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound.WrapMsg("user", "username", username)
}
