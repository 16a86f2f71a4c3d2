package friends

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkup/module/social/model"
	"linkup/tools/errs"
)

type stubUsers struct{ byID map[string]*model.User }

func (s stubUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, errs.ErrNotFound.WrapMsg("user", "id", id)
	}
	return u, nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	received []string // receiver ids
	accepted []string // original sender ids
}

func (n *recordingNotifier) FriendRequestReceived(_ context.Context, receiverID, _, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, receiverID)
	return nil
}

func (n *recordingNotifier) FriendRequestAccepted(_ context.Context, senderID, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, senderID)
	return nil
}

type stubOnline struct{ online map[string]bool }

func (s stubOnline) IsOnline(_ context.Context, id string) (bool, error) {
	return s.online[id], nil
}

func newTestService() (*Service, *MemStore, *recordingNotifier) {
	store := NewMemStore()
	notifier := &recordingNotifier{}
	us := stubUsers{byID: map[string]*model.User{
		"alice": {ID: "alice", Username: "alice", DisplayName: "Alice"},
		"bob":   {ID: "bob", Username: "bob", DisplayName: "Bob"},
		"carol": {ID: "carol", Username: "carol"},
	}}
	svc := NewService(store, us, notifier, stubOnline{online: map[string]bool{"bob": true}})
	return svc, store, notifier
}

func TestSendRequestCreatesMirroredPair(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	reqID, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotEmpty(t, reqID)

	sent, err := store.GetEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusPendingSent, sent.Status)

	recv, err := store.GetEdge(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusPendingReceived, recv.Status)
	assert.Equal(t, sent.RequestID, recv.RequestID)

	assert.Equal(t, []string{"bob"}, notifier.received)
}

func TestSendRequestToSelf(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.SendRequest(context.Background(), "alice", "alice")
	assert.Equal(t, errs.CodeBadRequest, errs.Code(err))
}

func TestSendRequestToUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.SendRequest(context.Background(), "alice", "nobody")
	assert.Equal(t, errs.CodeNotFound, errs.Code(err))
}

func TestSendRequestDuplicateConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	_, err = svc.SendRequest(ctx, "alice", "bob")
	assert.Equal(t, errs.CodeConflict, errs.Code(err))

	// the reverse direction is the same relationship
	_, err = svc.SendRequest(ctx, "bob", "alice")
	assert.Equal(t, errs.CodeConflict, errs.Code(err))
}

func TestAcceptFlipsBothEdgesAndNotifiesSender(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	reqID, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.Accept(ctx, reqID, "bob"))

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		e, err := store.GetEdge(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, model.FriendStatusAccepted, e.Status)
	}
	assert.Equal(t, []string{"alice"}, notifier.accepted)

	both, err := svc.AreFriends(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, both)
}

func TestAcceptTwiceIsInvalidState(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Accept(ctx, reqID, "bob"))
	err := svc.Accept(ctx, reqID, "bob")
	assert.Equal(t, errs.CodeInvalidState, errs.Code(err))
}

func TestConcurrentAcceptSingleWinner(t *testing.T) {
	svc, _, notifier := newTestService()
	ctx := context.Background()

	reqID, err := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Accept(ctx, reqID, "bob")
		}()
	}
	wg.Wait()
	close(results)

	var wins, invalid int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errs.Code(err) == errs.CodeInvalidState:
			invalid++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, invalid)
	// only the winning accept notified the sender
	assert.Equal(t, []string{"alice"}, notifier.accepted)
}

func TestAcceptByWrongUserIsNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	// neither the sender nor a third party can accept
	assert.Equal(t, errs.CodeNotFound, errs.Code(svc.Accept(ctx, reqID, "alice")))
	assert.Equal(t, errs.CodeNotFound, errs.Code(svc.Accept(ctx, reqID, "carol")))
}

func TestIgnoreKeepsSenderUnaware(t *testing.T) {
	svc, store, notifier := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Ignore(ctx, reqID, "bob"))

	recv, err := store.GetEdge(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusIgnored, recv.Status)

	// the sender's row still reads pending
	sent, err := store.GetEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, model.FriendStatusPendingSent, sent.Status)

	assert.Empty(t, notifier.accepted)
}

func TestIgnoredRequestsListing(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Ignore(ctx, reqID, "bob"))

	rows, err := svc.ListByStatus(ctx, "bob", model.FriendStatusIgnored)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].UserID)
	assert.Equal(t, reqID, rows[0].RequestID)

	// an ignored request leaves the incoming listing
	pending, err := svc.ListByStatus(ctx, "bob", model.FriendStatusPendingReceived)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCancelOnlyBySender(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	assert.Equal(t, errs.CodeNotFound, errs.Code(svc.Cancel(ctx, reqID, "bob")))

	require.NoError(t, svc.Cancel(ctx, reqID, "alice"))
	status, err := svc.Status(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "none", status)
}

func TestCancelAfterAcceptIsInvalidState(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Accept(ctx, reqID, "bob"))
	assert.Equal(t, errs.CodeInvalidState, errs.Code(svc.Cancel(ctx, reqID, "alice")))
}

func TestRemoveFriendship(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Accept(ctx, reqID, "bob"))
	require.NoError(t, svc.Remove(ctx, "alice", "bob"))

	both, err := svc.AreFriends(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, both)

	assert.Equal(t, errs.CodeNotFound, errs.Code(svc.Remove(ctx, "alice", "bob")))
}

func TestListByStatusWithOnlineFlag(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	reqID, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Accept(ctx, reqID, "bob"))

	rows, err := svc.ListByStatus(ctx, "alice", model.FriendStatusAccepted)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0].UserID)
	assert.Equal(t, "Bob", rows[0].DisplayName)
	assert.True(t, rows[0].Online)
	assert.WithinDuration(t, time.Now(), rows[0].Since, time.Minute)
}

func TestListFriendIDs(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	r1, _ := svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, svc.Accept(ctx, r1, "bob"))
	_, err := svc.SendRequest(ctx, "alice", "carol") // left pending
	require.NoError(t, err)

	ids, err := svc.ListFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)
}
