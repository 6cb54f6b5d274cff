package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// TCPConn is a blocking connection over a stream socket. This is the
// standard INDI transport (indiserver listens on TCP port 7624).
type TCPConn struct {
	conn net.Conn
	cfg  Config
	connLog

	// Inbound: streaming decoder over a capture buffer so raw element
	// bytes can be attributed by stream offset.
	capture *captureReader
	dec     *wire.Decoder

	// Outbound: encoder over a capture so the logged frame is exactly
	// what went on the wire.
	out *captureWriter
	enc *wire.Encoder

	closeCh   chan struct{}
	closeOnce sync.Once
	readMu    sync.Mutex
	writeMu   sync.Mutex
}

// DialTCP connects to an INDI server at addr (host:port).
func DialTCP(ctx context.Context, addr string, cfg Config) (*TCPConn, error) {
	cfg = cfg.withDefaults()

	// Apply timeout from config if the context doesn't have one.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	return NewTCPConn(conn, cfg), nil
}

// NewTCPConn wraps an established network connection. The returned
// TCPConn owns conn and closes it on Shutdown.
func NewTCPConn(conn net.Conn, cfg Config) *TCPConn {
	cfg = cfg.withDefaults()

	capture := newCaptureReader(conn)
	out := newCaptureWriter(conn)
	c := &TCPConn{
		conn:    conn,
		cfg:     cfg,
		connLog: connLog{logger: cfg.Logger, connID: cfg.ConnID},
		capture: capture,
		dec:     wire.NewDecoder(capture),
		out:     out,
		enc:     wire.NewEncoder(out),
		closeCh: make(chan struct{}),
	}
	if addr := conn.RemoteAddr(); addr != nil {
		c.remote = addr.String()
	}
	c.logState("", "connected", "")
	return c
}

// LocalAddr returns the local network address.
func (c *TCPConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr returns the remote network address.
func (c *TCPConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Read blocks until the next command arrives. io.EOF means the peer
// closed the stream cleanly; ErrConnClosed means Shutdown was called.
// Decode errors are returned unwrapped and leave the stream position
// undefined.
func (c *TCPConn) Read() (wire.Command, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnClosed
	default:
	}

	if c.cfg.ReadTimeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	from := c.dec.InputOffset()
	cmd, err := c.dec.Next()
	if err != nil {
		select {
		case <-c.closeCh:
			return nil, ErrConnClosed
		default:
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		c.logError(log.DirectionIn, "read", err)
		return nil, err
	}

	raw := c.capture.take(from, c.dec.InputOffset())
	c.logFrame(log.DirectionIn, bytes.TrimSpace(raw))

	return cmd, nil
}

// Write encodes cmd and delivers it as one newline-terminated element.
func (c *TCPConn) Write(cmd wire.Command) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnClosed
	default:
	}

	if c.cfg.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		defer c.conn.SetWriteDeadline(time.Time{})
	}

	c.out.reset()
	if err := c.enc.Encode(cmd); err != nil {
		select {
		case <-c.closeCh:
			return ErrConnClosed
		default:
		}
		c.logError(log.DirectionOut, "write", err)
		return fmt.Errorf("write: %w", err)
	}

	c.logFrame(log.DirectionOut, bytes.TrimSpace(c.out.frame()))
	return nil
}

// Shutdown closes the connection. Blocked reads and writes return
// ErrConnClosed. Safe to call more than once.
func (c *TCPConn) Shutdown() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
		c.logState("connected", "closed", "")
	})
	return err
}
