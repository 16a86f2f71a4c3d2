package gateway

import (
	"sync"
	"time"

	"linkup/logger"
	"linkup/tools/errs"
	"linkup/tools/ids"
	"linkup/tools/safe"

	"github.com/gorilla/websocket"
)

// Sender is the write half of a transport handle. *websocket.Conn satisfies it.
type Sender interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Conn is one live connection owned by the registry for its lifetime.
// Each connection has its own send queue and write pump so a slow recipient
// never stalls the goroutine that enqueued the frame.
type Conn struct {
	id          string
	userID      string
	ws          Sender
	connectedAt time.Time

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Conn) ID() string             { return c.id }
func (c *Conn) UserID() string         { return c.userID }
func (c *Conn) ConnectedAt() time.Time { return c.connectedAt }

// enqueue is non-blocking; when the queue is full the frame is dropped.
// Live push is best-effort, the durable channel carries the guarantee.
func (c *Conn) enqueue(data []byte) error {
	select {
	case <-c.done:
		return errs.New("connection closed", "conn", c.id)
	default:
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errs.New("send queue full", "conn", c.id, "user", c.userID)
	}
}

func (c *Conn) writePump(writeTimeout time.Duration) {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("[gateway] write failed, closing pump")
				c.close()
				return
			}
		}
	}
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// LifecycleHooks fire on the first connection of a user and after the last
// one is gone. The presence tracker consumes them; registration itself does
// not imply presence.
type LifecycleHooks struct {
	OnUserOnline  func(userID string)
	OnUserOffline func(userID string)
}

type Config struct {
	SendQueueSize int
	WriteTimeout  time.Duration
}

func (c *Config) norm() {
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = 256
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Registry maps a user id to its live connections. Constructed at process
// start, shut down explicitly; all operations are safe under concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]map[string]*Conn // user -> conn_id -> conn
	byConn map[string]*Conn            // conn_id -> conn

	conf   Config
	hooks  LifecycleHooks
	closed bool
}

func NewRegistry(conf Config, hooks LifecycleHooks) *Registry {
	conf.norm()
	return &Registry{
		byUser: make(map[string]map[string]*Conn),
		byConn: make(map[string]*Conn),
		conf:   conf,
		hooks:  hooks,
	}
}

// Register adopts a transport handle for a user and returns the connection.
// Multiple connections per user are allowed (multiple devices).
func (r *Registry) Register(userID string, ws Sender) *Conn {
	c := &Conn{
		id:          ids.GenerateString(),
		userID:      userID,
		ws:          ws,
		connectedAt: time.Now(),
		send:        make(chan []byte, r.conf.SendQueueSize),
		done:        make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		c.close()
		return c
	}
	m := r.byUser[userID]
	if m == nil {
		m = make(map[string]*Conn)
		r.byUser[userID] = m
	}
	m[c.id] = c
	r.byConn[c.id] = c
	first := len(m) == 1
	r.mu.Unlock()

	go c.writePump(r.conf.WriteTimeout)

	if first && r.hooks.OnUserOnline != nil {
		safe.Go(func() { r.hooks.OnUserOnline(userID) })
	}
	return c
}

// Unregister closes and removes a connection. Unknown ids are a no-op.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	c, ok := r.byConn[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.byConn, connID)
	last := false
	if m := r.byUser[c.userID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(r.byUser, c.userID)
			last = true
		}
	}
	r.mu.Unlock()

	c.close()
	if last && r.hooks.OnUserOffline != nil {
		safe.Go(func() { r.hooks.OnUserOffline(c.userID) })
	}
}

// ActiveConns returns the user's live connections, possibly empty.
func (r *Registry) ActiveConns(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]) > 0
}

// SendToUser enqueues a frame on every connection of the user. A user with
// no connections is a send no-op, not an error.
func (r *Registry) SendToUser(userID string, data []byte) error {
	conns := r.ActiveConns(userID)
	var lastErr error
	for _, c := range conns {
		if err := c.enqueue(data); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// PushEvent encodes an event and fans it out to the user's connections.
func (r *Registry) PushEvent(userID string, ev Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	return r.SendToUser(userID, data)
}

// Close shuts every connection down. Lifecycle hooks do not fire on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	conns := make([]*Conn, 0, len(r.byConn))
	for _, c := range r.byConn {
		conns = append(conns, c)
	}
	r.byUser = make(map[string]map[string]*Conn)
	r.byConn = make(map[string]*Conn)
	r.closed = true
	r.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}
