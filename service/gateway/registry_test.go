package gateway

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (f *fakeSender) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), data...)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeSender) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeSender) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSender) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSender) firstFrame() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return nil
	}
	return f.frames[0]
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestSendToUserFansOutToAllConns(t *testing.T) {
	r := NewRegistry(Config{}, LifecycleHooks{})
	defer r.Close()

	a, b := &fakeSender{}, &fakeSender{}
	r.Register("u1", a)
	r.Register("u1", b)

	require.NoError(t, r.SendToUser("u1", []byte(`{"x":1}`)))
	require.Eventually(t, func() bool {
		return a.frameCount() == 1 && b.frameCount() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSendToOfflineUserIsNoop(t *testing.T) {
	r := NewRegistry(Config{}, LifecycleHooks{})
	defer r.Close()
	assert.NoError(t, r.SendToUser("ghost", []byte("hi")))
}

func TestIsConnected(t *testing.T) {
	r := NewRegistry(Config{}, LifecycleHooks{})
	defer r.Close()

	c := r.Register("u1", &fakeSender{})
	assert.True(t, r.IsConnected("u1"))
	r.Unregister(c.ID())
	assert.False(t, r.IsConnected("u1"))
}

func TestLifecycleHooksFireOnFirstAndLastConn(t *testing.T) {
	online := make(chan string, 4)
	offline := make(chan string, 4)
	r := NewRegistry(Config{}, LifecycleHooks{
		OnUserOnline:  func(u string) { online <- u },
		OnUserOffline: func(u string) { offline <- u },
	})
	defer r.Close()

	c1 := r.Register("u1", &fakeSender{})
	c2 := r.Register("u1", &fakeSender{})

	select {
	case u := <-online:
		assert.Equal(t, "u1", u)
	case <-time.After(time.Second):
		t.Fatal("online hook did not fire")
	}
	select {
	case <-online:
		t.Fatal("online hook fired for a second connection")
	case <-time.After(50 * time.Millisecond):
	}

	r.Unregister(c1.ID())
	select {
	case <-offline:
		t.Fatal("offline hook fired while a connection remained")
	case <-time.After(50 * time.Millisecond):
	}

	r.Unregister(c2.ID())
	select {
	case u := <-offline:
		assert.Equal(t, "u1", u)
	case <-time.After(time.Second):
		t.Fatal("offline hook did not fire")
	}
}

func TestUnregisterClosesTransport(t *testing.T) {
	r := NewRegistry(Config{}, LifecycleHooks{})
	defer r.Close()

	ws := &fakeSender{}
	c := r.Register("u1", ws)
	r.Unregister(c.ID())
	require.Eventually(t, ws.isClosed, time.Second, 5*time.Millisecond)
}

func TestPushEventWritesEnvelope(t *testing.T) {
	r := NewRegistry(Config{}, LifecycleHooks{})
	defer r.Close()

	ws := &fakeSender{}
	r.Register("u1", ws)

	at := time.Now()
	require.NoError(t, r.PushEvent("u1", FriendOnline{
		UserID: "u2", Username: "bob", DisplayName: "Bob", Timestamp: at,
	}))
	require.Eventually(t, func() bool { return ws.frameCount() == 1 }, time.Second, 5*time.Millisecond)

	var frame struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ws.firstFrame(), &frame))
	assert.Equal(t, "FRIEND_ONLINE", frame.Type)

	var data FriendOnline
	require.NoError(t, json.Unmarshal(frame.Data, &data))
	assert.Equal(t, "u2", data.UserID)
	assert.Equal(t, "bob", data.Username)
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	r := NewRegistry(Config{SendQueueSize: 1}, LifecycleHooks{})
	defer r.Close()

	c := r.Register("u1", &blockedSender{})
	// first frame is picked up by the pump, second fills the queue
	_ = c.enqueue([]byte("a"))
	_ = c.enqueue([]byte("b"))
	require.Eventually(t, func() bool {
		return c.enqueue([]byte("c")) != nil
	}, time.Second, 5*time.Millisecond)
}

// blockedSender simulates a stuck peer: writes never complete quickly.
type blockedSender struct{}

func (blockedSender) WriteMessage(int, []byte) error {
	time.Sleep(5 * time.Second)
	return nil
}
func (blockedSender) SetWriteDeadline(time.Time) error { return nil }
func (blockedSender) Close() error                     { return nil }
