package transport

import (
	"sync"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// asyncQueueSize bounds the incoming and outgoing queues. A full
// incoming queue applies backpressure to the reader goroutine rather
// than buffering without limit.
const asyncQueueSize = 16

// ReadResult is one result from an AsyncConn's reader goroutine.
// Exactly one of Cmd and Err is set.
type ReadResult struct {
	Cmd wire.Command
	Err error
}

// AsyncConn splits a Conn into reader and writer goroutines so
// callers can consume commands from a channel and write without
// blocking on the peer. It also satisfies Conn itself.
type AsyncConn struct {
	conn Conn

	incoming chan ReadResult
	outgoing chan wire.Command

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	writeErrMu sync.Mutex
	writeErr   error
}

// NewAsync wraps conn and starts its reader and writer goroutines.
// The AsyncConn owns conn and shuts it down on Shutdown.
func NewAsync(conn Conn) *AsyncConn {
	a := &AsyncConn{
		conn:     conn,
		incoming: make(chan ReadResult, asyncQueueSize),
		outgoing: make(chan wire.Command, asyncQueueSize),
		done:     make(chan struct{}),
	}
	a.wg.Add(2)
	go a.readLoop()
	go a.writeLoop()
	return a
}

// Incoming returns the channel of decoded commands. The reader
// delivers its terminal error as the last result and then closes the
// channel; after Shutdown the channel is closed without one.
func (a *AsyncConn) Incoming() <-chan ReadResult {
	return a.incoming
}

// Read drains one result from Incoming. It returns ErrConnClosed once
// the channel is exhausted.
func (a *AsyncConn) Read() (wire.Command, error) {
	res, ok := <-a.incoming
	if !ok {
		return nil, ErrConnClosed
	}
	return res.Cmd, res.Err
}

// Write enqueues cmd for the writer goroutine and returns without
// waiting for delivery. Once a write has failed, Write reports that
// first error on every subsequent call.
func (a *AsyncConn) Write(cmd wire.Command) error {
	if err := a.writeError(); err != nil {
		return err
	}
	select {
	case <-a.done:
		return ErrConnClosed
	case a.outgoing <- cmd:
		return nil
	}
}

// Shutdown stops both goroutines and closes the underlying
// connection. Safe to call more than once.
func (a *AsyncConn) Shutdown() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.done)
		err = a.conn.Shutdown()
		a.wg.Wait()
	})
	return err
}

func (a *AsyncConn) readLoop() {
	defer a.wg.Done()
	defer close(a.incoming)

	for {
		cmd, err := a.conn.Read()
		if err != nil {
			select {
			case a.incoming <- ReadResult{Err: err}:
			case <-a.done:
			}
			return
		}
		select {
		case a.incoming <- ReadResult{Cmd: cmd}:
		case <-a.done:
			return
		}
	}
}

func (a *AsyncConn) writeLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			return
		case cmd := <-a.outgoing:
			if a.writeError() != nil {
				continue // the pipe already failed, drop
			}
			if err := a.conn.Write(cmd); err != nil {
				a.setWriteErr(err)
			}
		}
	}
}

func (a *AsyncConn) setWriteErr(err error) {
	a.writeErrMu.Lock()
	if a.writeErr == nil {
		a.writeErr = err
	}
	a.writeErrMu.Unlock()
}

func (a *AsyncConn) writeError() error {
	a.writeErrMu.Lock()
	defer a.writeErrMu.Unlock()
	return a.writeErr
}
