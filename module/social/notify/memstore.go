package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// MemStore is the in-memory Store used by tests.
type MemStore struct {
	mu   sync.RWMutex
	rows map[string]*model.Notification

	// FailInsert forces Insert to fail; tests use it to exercise the
	// delivery-persist-failure path.
	FailInsert bool
}

func NewMemStore() *MemStore {
	return &MemStore{rows: make(map[string]*model.Notification)}
}

func (s *MemStore) Insert(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert {
		return errs.New("insert failed")
	}
	cp := *n
	s.rows[n.ID] = &cp
	return nil
}

func (s *MemStore) List(ctx context.Context, userID string, page, limit int, unreadOnly bool) ([]*model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*model.Notification
	for _, n := range s.rows {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		cp := *n
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *MemStore) CountUnread(ctx context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, row := range s.rows {
		if row.UserID == userID && !row.IsRead {
			n++
		}
	}
	return n, nil
}

func (s *MemStore) MarkRead(ctx context.Context, id, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.UserID != userID {
		return errs.ErrNotFound.WrapMsg("notification", "id", id)
	}
	if !row.IsRead {
		row.IsRead = true
		row.ReadAt = &at
	}
	return nil
}

func (s *MemStore) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, row := range s.rows {
		if row.UserID == userID && !row.IsRead {
			row.IsRead = true
			t := at
			row.ReadAt = &t
			n++
		}
	}
	return n, nil
}

// All returns every stored row for a user, newest first (test helper).
func (s *MemStore) All(userID string) []*model.Notification {
	out, _, _ := s.List(context.Background(), userID, 1, 1000, false)
	return out
}
