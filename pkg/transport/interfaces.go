package transport

import (
	"errors"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Connection errors.
var (
	// ErrConnClosed is returned by Read and Write after Shutdown, and
	// by reads that fail because the connection went away underneath.
	ErrConnClosed = errors.New("connection closed")

	// ErrBinaryFrame is returned when a WebSocket peer sends a binary
	// frame. The protocol carries XML text only, BLOBs included.
	ErrBinaryFrame = errors.New("binary frame received")
)

// Conn is a single INDI connection. Read and Write may be used
// concurrently with each other but each from one goroutine at a time.
type Conn interface {
	// Read blocks until the next command is decoded from the peer.
	// It returns io.EOF at a clean end of stream and ErrConnClosed
	// after Shutdown. Decode errors are returned as-is; the stream
	// position is undefined afterwards.
	Read() (wire.Command, error)

	// Write encodes and delivers one command to the peer.
	Write(cmd wire.Command) error

	// Shutdown closes the connection. It is idempotent; blocked reads
	// and writes return promptly with ErrConnClosed.
	Shutdown() error
}

// Compile-time interface satisfaction checks.
var (
	_ Conn = (*TCPConn)(nil)
	_ Conn = (*WSConn)(nil)
	_ Conn = (*AsyncConn)(nil)
)
