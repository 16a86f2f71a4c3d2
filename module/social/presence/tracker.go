package presence

import (
	"context"
	"encoding/json"
	"time"

	"linkup/logger"
	"linkup/tools/errs"
)

// SubjectTransition carries online/offline transitions from the gateway to
// the fan-out consumer.
const SubjectTransition = "linkup.presence.transition"

// Transition is the queued presence event.
type Transition struct {
	UserID string    `json:"userId"`
	Online bool      `json:"online"`
	At     time.Time `json:"at"`
}

// Store is the TTL-keyed liveness record behind the tracker.
type Store interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
	IsOnline(ctx context.Context, userID string) (bool, error)
}

// Publisher queues transitions for asynchronous fan-out.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Tracker maintains per-user liveness. The record self-expires, so a crashed
// gateway that never calls HandleDisconnect still converges to offline within
// one TTL.
type Tracker struct {
	store Store
	pub   Publisher
}

func NewTracker(store Store, pub Publisher) *Tracker {
	return &Tracker{store: store, pub: pub}
}

// HandleConnect marks the user online and queues the transition. The liveness
// write must land; the queue publish is best effort.
func (t *Tracker) HandleConnect(ctx context.Context, userID string) error {
	if err := t.store.MarkOnline(ctx, userID); err != nil {
		return err
	}
	t.publish(userID, true)
	return nil
}

// Touch refreshes the liveness record; the heartbeat path.
func (t *Tracker) Touch(ctx context.Context, userID string) {
	if err := t.store.MarkOnline(ctx, userID); err != nil {
		logger.Warnf("[presence] heartbeat refresh failed user=%s: %v", userID, err)
	}
}

// HandleDisconnect marks the user offline and queues the transition.
func (t *Tracker) HandleDisconnect(ctx context.Context, userID string) error {
	if err := t.store.MarkOffline(ctx, userID); err != nil {
		return err
	}
	t.publish(userID, false)
	return nil
}

func (t *Tracker) IsOnline(ctx context.Context, userID string) (bool, error) {
	return t.store.IsOnline(ctx, userID)
}

func (t *Tracker) publish(userID string, online bool) {
	data, err := json.Marshal(Transition{UserID: userID, Online: online, At: time.Now()})
	if err != nil {
		logger.Errorf("[presence] encode transition user=%s: %v", userID, err)
		return
	}
	if err := t.pub.Publish(SubjectTransition, data); err != nil {
		logger.Warnf("[presence] transition publish dropped user=%s online=%t: %v", userID, online, err)
	}
}

// DecodeTransition parses a queued transition payload.
func DecodeTransition(data []byte) (Transition, error) {
	var tr Transition
	if err := json.Unmarshal(data, &tr); err != nil {
		return tr, errs.WrapMsg(err, "decode presence transition")
	}
	return tr, nil
}
