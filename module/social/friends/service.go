package friends

import (
	"context"
	"time"

	"github.com/google/uuid"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

// Notifier is the dispatcher surface the state machine calls after a
// transition commits. Exactly one call per transition with a counterpart.
type Notifier interface {
	FriendRequestReceived(ctx context.Context, receiverID, senderID, requestID string) error
	FriendRequestAccepted(ctx context.Context, senderID, accepterID string) error
}

// UserReader resolves user snapshots for listings and target validation.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// OnlineChecker adds the live online flag to friend listings.
type OnlineChecker interface {
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// Service owns the friend-request lifecycle:
// none -> pending -> {accepted, ignored, cancelled-back-to-none},
// plus accepted -> none via Remove.
type Service struct {
	store    Store
	users    UserReader
	notifier Notifier
	online   OnlineChecker
}

func NewService(store Store, users UserReader, notifier Notifier, online OnlineChecker) *Service {
	return &Service{store: store, users: users, notifier: notifier, online: online}
}

// SendRequest creates the mirrored pending pair and notifies the receiver.
func (s *Service) SendRequest(ctx context.Context, fromID, toID string) (string, error) {
	if fromID == toID {
		return "", errs.ErrBadRequest.WrapMsg("cannot friend yourself")
	}
	if _, err := s.users.GetByID(ctx, toID); err != nil {
		return "", err
	}
	now := time.Now()
	requestID := uuid.NewString()
	sent := &model.FriendEdge{
		ID: uuid.NewString(), RequestID: requestID,
		UserID: fromID, FriendID: toID,
		Status: model.FriendStatusPendingSent, CreatedAt: now, UpdatedAt: now,
	}
	received := &model.FriendEdge{
		ID: uuid.NewString(), RequestID: requestID,
		UserID: toID, FriendID: fromID,
		Status: model.FriendStatusPendingReceived, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.store.InsertPair(ctx, sent, received); err != nil {
		return "", err
	}
	if err := s.notifier.FriendRequestReceived(ctx, toID, fromID, requestID); err != nil {
		return requestID, err
	}
	return requestID, nil
}

// Accept resolves a pending request. The store's check-and-set guarantees a
// concurrent second accept gets invalid-state, not a double apply.
func (s *Service) Accept(ctx context.Context, requestID, accepterID string) error {
	sent, received, err := s.store.GetPair(ctx, requestID)
	if err != nil {
		return err
	}
	if received == nil || received.UserID != accepterID {
		return errs.ErrNotFound.WrapMsg("friend request", "request", requestID)
	}
	if err := s.store.AcceptPair(ctx, requestID, accepterID); err != nil {
		return err
	}
	senderID := received.FriendID
	if sent != nil {
		senderID = sent.UserID
	}
	return s.notifier.FriendRequestAccepted(ctx, senderID, accepterID)
}

// Ignore hides the request from the receiver; the sender is not notified.
func (s *Service) Ignore(ctx context.Context, requestID, userID string) error {
	_, received, err := s.store.GetPair(ctx, requestID)
	if err != nil {
		return err
	}
	if received == nil || received.UserID != userID {
		return errs.ErrNotFound.WrapMsg("friend request", "request", requestID)
	}
	return s.store.Ignore(ctx, requestID, userID)
}

// Cancel withdraws an unresolved request; only the sender may cancel.
func (s *Service) Cancel(ctx context.Context, requestID, userID string) error {
	sent, _, err := s.store.GetPair(ctx, requestID)
	if err != nil {
		return err
	}
	if sent == nil || sent.UserID != userID {
		return errs.ErrNotFound.WrapMsg("friend request", "request", requestID)
	}
	if sent.Status != model.FriendStatusPendingSent {
		return errs.ErrInvalidState.WrapMsg("request is not pending", "request", requestID)
	}
	_, err = s.store.DeletePair(ctx, requestID)
	return err
}

// Remove deletes an accepted friendship in both directions.
func (s *Service) Remove(ctx context.Context, userID, friendID string) error {
	n, err := s.store.DeleteAccepted(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound.WrapMsg("friendship", "user", userID, "friend", friendID)
	}
	return nil
}

// AreFriends reports whether an accepted edge exists (either direction is
// equivalent once materialized).
func (s *Service) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	e, err := s.store.GetEdge(ctx, userID, otherID)
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			return false, nil
		}
		return false, err
	}
	return e.Status == model.FriendStatusAccepted, nil
}

// Status returns the edge status from userID's perspective, or "none".
func (s *Service) Status(ctx context.Context, userID, otherID string) (string, error) {
	e, err := s.store.GetEdge(ctx, userID, otherID)
	if err != nil {
		if errs.Code(err) == errs.CodeNotFound {
			return "none", nil
		}
		return "", err
	}
	return e.Status, nil
}

// ListFriendIDs returns the accepted friend set; the presence fan-out
// iterates this.
func (s *Service) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	edges, err := s.store.ListByStatus(ctx, userID, model.FriendStatusAccepted)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.FriendID)
	}
	return out, nil
}

// FriendView is a friend listing row.
type FriendView struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	AvatarURL   string    `json:"avatarUrl,omitempty"`
	RequestID   string    `json:"requestId,omitempty"`
	Online      bool      `json:"online"`
	Since       time.Time `json:"since"`
}

// ListByStatus assembles listing rows for one edge status with user
// snapshots and, for accepted friends, the live online flag.
func (s *Service) ListByStatus(ctx context.Context, userID, status string) ([]FriendView, error) {
	edges, err := s.store.ListByStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	out := make([]FriendView, 0, len(edges))
	for _, e := range edges {
		u, err := s.users.GetByID(ctx, e.FriendID)
		if err != nil {
			// dangling edge (deleted account); skip the row
			continue
		}
		v := FriendView{
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.Name(),
			AvatarURL:   u.AvatarURL,
			RequestID:   e.RequestID,
			Since:       e.UpdatedAt,
		}
		if status == model.FriendStatusAccepted && s.online != nil {
			on, err := s.online.IsOnline(ctx, u.ID)
			if err == nil {
				v.Online = on
			}
		}
		out = append(out, v)
	}
	return out, nil
}
