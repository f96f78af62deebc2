package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/freedesktop/telepathy-phoenix/internal/adapters/rtc"
	"github.com/freedesktop/telepathy-phoenix/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalWSController turns WebSocket offers into calls handed to Handler on
// the controller loop.
type SignalWSController struct {
	Handler    core.CallHandler
	Dispatcher core.Dispatcher
	Calls      rtc.Config
	Limiter    *CallRateLimiter
	ReadLimit  int64
	PingPeriod time.Duration
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan []byte
	ctl  *SignalWSController

	mu     sync.RWMutex
	closed bool
	call   *rtc.Call
}

func (c *wsSignalConn) TrySend(f []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
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

// Call is the call currently bound to the connection, if any.
func (c *wsSignalConn) Call() *rtc.Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.call
}

func (c *wsSignalConn) bindCall(call *rtc.Call) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.call != nil {
		return false
	}
	c.call = call
	return true
}

func (c *wsSignalConn) unbindCall(call *rtc.Call) {
	c.mu.Lock()
	if c.call == call {
		c.call = nil
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	client := c.GetString("client_token")
	log.Info().Str("module", "signal").Str("client", client).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan []byte, 32),
		ctl:  ctl,
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, client, conn)
	}()
}
