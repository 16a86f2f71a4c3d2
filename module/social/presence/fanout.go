package presence

import (
	"context"

	"linkup/logger"
	"linkup/module/social/model"
	"linkup/service/gateway"
)

// UserReader resolves the transitioning user's snapshot and privacy flag.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// FriendLister yields the accepted friend set to notify.
type FriendLister interface {
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
}

// LivePusher delivers live-only presence frames; nothing durable is written
// for presence.
type LivePusher interface {
	IsConnected(userID string) bool
	PushEvent(userID string, ev gateway.Event) error
}

// Fanout consumes queued transitions and pushes FRIEND_ONLINE /
// FRIEND_OFFLINE frames to each connected friend. Consent is read at
// fan-out time from the transitioning user's privacy flag.
type Fanout struct {
	users   UserReader
	friends FriendLister
	pusher  LivePusher
}

func NewFanout(users UserReader, friends FriendLister, pusher LivePusher) *Fanout {
	return &Fanout{users: users, friends: friends, pusher: pusher}
}

// HandleTransition processes one queued transition end to end.
func (f *Fanout) HandleTransition(ctx context.Context, data []byte) error {
	tr, err := DecodeTransition(data)
	if err != nil {
		return err
	}
	u, err := f.users.GetByID(ctx, tr.UserID)
	if err != nil {
		return err
	}
	if u.OnlinePrivacy == model.OnlinePrivacyPrivate {
		return nil
	}
	friendIDs, err := f.friends.ListFriendIDs(ctx, tr.UserID)
	if err != nil {
		return err
	}

	var ev gateway.Event
	if tr.Online {
		ev = gateway.FriendOnline{
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.Name(),
			Timestamp:   tr.At,
		}
	} else {
		ev = gateway.FriendOffline{
			UserID:      u.ID,
			Username:    u.Username,
			DisplayName: u.Name(),
			Timestamp:   tr.At,
		}
	}
	for _, fid := range friendIDs {
		if !f.pusher.IsConnected(fid) {
			continue
		}
		// one broken connection must not stop the rest of the fan-out
		if err := f.pusher.PushEvent(fid, ev); err != nil {
			logger.Infof("[presence] fan-out push dropped user=%s friend=%s: %v", tr.UserID, fid, err)
		}
	}
	return nil
}
