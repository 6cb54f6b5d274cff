package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// WSConn carries the protocol over WebSocket text frames, one XML
// element per frame. Web-facing INDI bridges expose this endpoint.
type WSConn struct {
	ws  *websocket.Conn
	cfg Config
	connLog

	closeCh   chan struct{}
	closeOnce sync.Once
	readMu    sync.Mutex
	writeMu   sync.Mutex
}

// DialWebSocket connects to an INDI WebSocket endpoint (a ws:// or
// wss:// URL).
func DialWebSocket(ctx context.Context, url string, cfg Config) (*WSConn, error) {
	cfg = cfg.withDefaults()

	// Apply timeout from config if the context doesn't have one.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	return NewWSConn(ws, cfg), nil
}

// NewWSConn wraps an established WebSocket connection. The returned
// WSConn owns ws and closes it on Shutdown.
func NewWSConn(ws *websocket.Conn, cfg Config) *WSConn {
	cfg = cfg.withDefaults()

	c := &WSConn{
		ws:      ws,
		cfg:     cfg,
		connLog: connLog{logger: cfg.Logger, connID: cfg.ConnID},
		closeCh: make(chan struct{}),
	}
	if addr := ws.RemoteAddr(); addr != nil {
		c.remote = addr.String()
	}
	c.logState("", "connected", "")
	return c
}

// LocalAddr returns the local network address.
func (c *WSConn) LocalAddr() net.Addr {
	return c.ws.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *WSConn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// Read blocks until the next text frame arrives and decodes it as one
// element. A normal close handshake surfaces as io.EOF; a binary
// frame is a protocol violation and returns ErrBinaryFrame.
func (c *WSConn) Read() (wire.Command, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnClosed
	default:
	}

	if c.cfg.ReadTimeout > 0 {
		c.ws.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		defer c.ws.SetReadDeadline(time.Time{})
	}

	msgType, data, err := c.ws.ReadMessage()
	if err != nil {
		select {
		case <-c.closeCh:
			return nil, ErrConnClosed
		default:
		}
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, io.EOF
		}
		c.logError(log.DirectionIn, "read", err)
		return nil, err
	}
	if msgType != websocket.TextMessage {
		c.logError(log.DirectionIn, "read", ErrBinaryFrame)
		return nil, ErrBinaryFrame
	}

	c.logFrame(log.DirectionIn, data)

	cmd, err := wire.Unmarshal(data)
	if err != nil {
		c.logError(log.DirectionIn, "decode", err)
		return nil, err
	}
	return cmd, nil
}

// Write encodes cmd and delivers it as one text frame.
func (c *WSConn) Write(cmd wire.Command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnClosed
	default:
	}

	if c.cfg.WriteTimeout > 0 {
		c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		defer c.ws.SetWriteDeadline(time.Time{})
	}

	data := wire.Marshal(cmd)
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		select {
		case <-c.closeCh:
			return ErrConnClosed
		default:
		}
		c.logError(log.DirectionOut, "write", err)
		return fmt.Errorf("write: %w", err)
	}

	c.logFrame(log.DirectionOut, data)
	return nil
}

// Shutdown performs the close handshake and closes the connection.
// Safe to call more than once.
func (c *WSConn) Shutdown() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)

		// Best effort; the peer may already be gone.
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

		err = c.ws.Close()
		c.logState("connected", "closed", "")
	})
	return err
}
