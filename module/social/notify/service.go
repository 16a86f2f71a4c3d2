package notify

import (
	"context"
	"time"

	"linkup/module/social/model"
)

// Service is the read/ack side of the notification inbox.
type Service struct {
	store Store
}

func NewService(store Store) *Service { return &Service{store: store} }

// View is one inbox listing row: the stored record with its metadata
// resolved to the typed shape for its notification type.
type View struct {
	*model.Notification
	Metadata any `json:"metadata,omitempty"`
}

type Page struct {
	Notifications []*View `json:"notifications"`
	Total         int64   `json:"total"`
	PageNum       int     `json:"page"`
	Limit         int     `json:"limit"`
	UnreadCount   int64   `json:"unreadCount"`
}

func (s *Service) List(ctx context.Context, userID string, page, limit int, unreadOnly bool) (*Page, error) {
	rows, total, err := s.store.List(ctx, userID, page, limit, unreadOnly)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	views := make([]*View, 0, len(rows))
	for _, n := range rows {
		views = append(views, &View{Notification: n, Metadata: TypedMetadata(n)})
	}
	return &Page{Notifications: views, Total: total, PageNum: page, Limit: limit, UnreadCount: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnread(ctx, userID)
}

// MarkRead is idempotent: re-acking a read notification is a no-op success.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, notificationID, userID, time.Now())
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllRead(ctx, userID, time.Now())
}
