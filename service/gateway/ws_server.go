package gateway

import (
	"context"
	"net/http"
	"time"

	"linkup/logger"
	"linkup/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Heartbeats is the presence surface the gateway drives: a touch on every
// client ping keeps the TTL record alive.
type Heartbeats interface {
	Touch(ctx context.Context, userID string)
}

type WsServer struct {
	reg       *Registry
	presence  Heartbeats
	jwtOpts   security.Options
	heartbeat time.Duration
}

func NewWsServer(reg *Registry, presence Heartbeats, jwtOpts security.Options, heartbeat time.Duration) *WsServer {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &WsServer{reg: reg, presence: presence, jwtOpts: jwtOpts, heartbeat: heartbeat}
}

// HandleWS authenticates the handshake, registers the connection and runs
// the read loop until the peer goes away.
func (s *WsServer) HandleWS(c *gin.Context) {
	token := c.Query("token")
	userID, err := security.Verify(s.jwtOpts, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade error user=%s: %v", userID, err)
		return
	}

	conn := s.reg.Register(userID, ws)
	defer s.reg.Unregister(conn.ID())

	// Read deadline is pushed forward by client pings; a silent peer times
	// out after two missed heartbeats and the presence TTL lapses on its own.
	deadline := 2 * s.heartbeat
	_ = ws.SetReadDeadline(time.Now().Add(deadline))
	ws.SetPingHandler(func(appData string) error {
		_ = ws.SetReadDeadline(time.Now().Add(deadline))
		s.presence.Touch(c.Request.Context(), userID)
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		mt, _, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Debugf("[ws] peer closed conn=%s user=%s", conn.ID(), userID)
			} else {
				logger.Infof("[ws] read err conn=%s user=%s: %v", conn.ID(), userID, rerr)
			}
			return
		}
		// The socket is push-only; inbound data frames are ignored.
		if mt == websocket.TextMessage || mt == websocket.BinaryMessage {
			continue
		}
	}
}
