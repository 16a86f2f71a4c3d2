package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup/tools/errs"
)

// memPresence mimics the redis record: a mark grants a TTL lease, liveness
// is the lease not having lapsed. The clock is advanced manually.
type memPresence struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      time.Time
	leases   map[string]time.Time
	sets     int
	failNext bool
}

func newMemPresence(ttl time.Duration) *memPresence {
	return &memPresence{ttl: ttl, now: time.Now(), leases: map[string]time.Time{}}
}

func (s *memPresence) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = s.now.Add(d)
}

func (s *memPresence) MarkOnline(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errs.New("store down")
	}
	s.leases[userID] = s.now.Add(s.ttl)
	s.sets++
	return nil
}

func (s *memPresence) MarkOffline(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.leases, userID)
	return nil
}

func (s *memPresence) IsOnline(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.leases[userID]
	return ok && s.now.Before(exp), nil
}

type memPublisher struct {
	mu   sync.Mutex
	msgs []Transition
}

func (p *memPublisher) Publish(subject string, data []byte) error {
	tr, err := DecodeTransition(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, tr)
	return nil
}

func (p *memPublisher) published() []Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Transition(nil), p.msgs...)
}

func TestConnectMarksOnlineAndPublishes(t *testing.T) {
	store, pub := newMemPresence(time.Minute), &memPublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	require.NoError(t, tr.HandleConnect(ctx, "u1"))

	on, err := tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, on)

	msgs := pub.published()
	require.Len(t, msgs, 1)
	assert.Equal(t, "u1", msgs[0].UserID)
	assert.True(t, msgs[0].Online)
	assert.WithinDuration(t, time.Now(), msgs[0].At, time.Minute)
}

func TestDisconnectMarksOfflineAndPublishes(t *testing.T) {
	store, pub := newMemPresence(time.Minute), &memPublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	require.NoError(t, tr.HandleConnect(ctx, "u1"))
	require.NoError(t, tr.HandleDisconnect(ctx, "u1"))

	on, err := tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, on)

	msgs := pub.published()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].Online)
}

func TestStoreFailureSuppressesPublish(t *testing.T) {
	store, pub := newMemPresence(time.Minute), &memPublisher{}
	tr := NewTracker(store, pub)
	store.failNext = true

	err := tr.HandleConnect(context.Background(), "u1")
	assert.Error(t, err)
	assert.Empty(t, pub.published())
}

func TestOnlineLapsesAfterTTLWithoutRefresh(t *testing.T) {
	store, pub := newMemPresence(30*time.Second), &memPublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	require.NoError(t, tr.HandleConnect(ctx, "u1"))
	store.advance(20 * time.Second)
	on, err := tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, on)

	// a heartbeat renews the lease
	tr.Touch(ctx, "u1")
	store.advance(20 * time.Second)
	on, err = tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, on)

	// no refresh: the record lapses without an explicit disconnect
	store.advance(31 * time.Second)
	on, err = tr.IsOnline(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, on)
}

func TestTouchRefreshesWithoutPublishing(t *testing.T) {
	store, pub := newMemPresence(time.Minute), &memPublisher{}
	tr := NewTracker(store, pub)
	ctx := context.Background()

	require.NoError(t, tr.HandleConnect(ctx, "u1"))
	tr.Touch(ctx, "u1")
	tr.Touch(ctx, "u1")

	store.mu.Lock()
	sets := store.sets
	store.mu.Unlock()
	assert.Equal(t, 3, sets)
	// heartbeats refresh liveness but are not transitions
	assert.Len(t, pub.published(), 1)
}
