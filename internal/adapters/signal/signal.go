// Package signal is the websocket transport for operators and viewers.
// It parses inbound control envelopes, hands them to the gateway and
// owns the connection resources; rooms never touch the transport.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/app"
	"github.com/tkoskin/praisecast/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

const joinLimit = 10

type Controller struct {
	Gateway *app.Gateway

	limiter    *JoinRateLimiter
	readLimit  int64
	pingPeriod time.Duration
}

func NewController(gw *app.Gateway, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Gateway:    gw,
		limiter:    NewJoinRateLimiter(joinLimit, time.Minute),
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
	}
}

// WsConn is the outbound half of one websocket session. It implements
// core.Sender: TrySend never blocks, a full send queue reports
// backpressure instead.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and starts the session pumps. The
// client token cookie identifies the user; the connection id is fresh
// per transport session.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	userID := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	id := core.ConnID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("user", userID).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, userID, conn)
}
