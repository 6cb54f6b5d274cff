package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
	"github.com/twinkle-astronomy/indi-go/pkg/notify"
	"github.com/twinkle-astronomy/indi-go/pkg/transport"
	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Config configures a client.
type Config struct {
	// Logger receives protocol events. Defaults to NoopLogger. Pass
	// the same logger as the transport's Config to get one merged
	// stream of frames, commands, and state changes.
	Logger log.Logger

	// ConnID identifies this connection in log events. A random UUID
	// is generated when empty.
	ConnID string

	// Device restricts the initial getProperties to one device.
	// Empty asks for everything.
	Device string

	// Property restricts the initial getProperties to one property of
	// Device. Ignored when Device is empty.
	Property string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
	if c.ConnID == "" {
		c.ConnID = uuid.NewString()
	}
	return c
}

// Client mirrors one INDI server connection.
type Client struct {
	conn   transport.Conn
	store  *store
	logger log.Logger
	connID string

	connected *notify.Notify[bool]

	// done is closed when the reader loop has exited and the tree is
	// torn down.
	done chan struct{}
}

// New starts a client on an established connection. It immediately
// sends getProperties (scoped by cfg's filters) and starts the reader
// goroutine; definitions begin flowing into the device tree before
// New returns.
func New(conn transport.Conn, cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		conn:      conn,
		store:     newStore(cfg.Logger, cfg.ConnID),
		logger:    cfg.Logger,
		connID:    cfg.ConnID,
		connected: notify.NewNotify(true),
		done:      make(chan struct{}),
	}

	get := &wire.GetProperties{Version: wire.ProtocolVersion}
	if cfg.Device != "" {
		get.Device = &cfg.Device
		if cfg.Property != "" {
			get.Name = &cfg.Property
		}
	}
	if err := c.Send(get); err != nil {
		// The reader loop will observe the same failure and tear down.
		slog.Warn("indi client: getProperties failed", "conn", c.connID, "error", err)
	}

	go c.readLoop()
	return c
}

// Connected reports the connection state. The cell flips to false on
// teardown and stays readable afterwards.
func (c *Client) Connected() *notify.Notify[bool] { return c.connected }

// Devices returns the device-list cell. It bumps when a device
// appears or disappears; property definitions bump the device's own
// Parameters cell instead. Treat snapshots as read-only.
func (c *Client) Devices() *notify.Notify[map[string]*Device] { return c.store.devices }

// GetDevice waits for the named device to appear and returns a handle
// for it. The caller's ctx bounds the wait.
func (c *Client) GetDevice(ctx context.Context, name string) (*ActiveDevice, error) {
	m, err := c.store.devices.Wait(ctx, func(m map[string]*Device) bool {
		_, ok := m[name]
		return ok
	})
	if err != nil {
		if errors.Is(err, notify.ErrClosed) {
			return nil, fmt.Errorf("get device %q: %w: %w", name, ErrDisconnected, err)
		}
		return nil, fmt.Errorf("get device %q: %w: %w", name, ErrDeviceNotFound, err)
	}
	return &ActiveDevice{client: c, device: m[name]}, nil
}

// Send encodes and delivers one command. It is the sanctioned
// outbound path; the transports serialize concurrent writers.
func (c *Client) Send(cmd wire.Command) error {
	if err := c.conn.Write(cmd); err != nil {
		if errors.Is(err, transport.ErrConnClosed) {
			return fmt.Errorf("send: %w: %w", ErrDisconnected, err)
		}
		return fmt.Errorf("send: %w", err)
	}
	c.logCommand(log.DirectionOut, cmd)
	return nil
}

// Shutdown closes the connection and waits for the reader loop to
// finish tearing down the device tree. It is idempotent.
func (c *Client) Shutdown() error {
	err := c.conn.Shutdown()
	<-c.done
	return err
}

// readLoop pulls commands off the connection and applies them to the
// store. It is the device tree's only writer.
func (c *Client) readLoop() {
	defer c.teardown()
	for {
		cmd, err := c.conn.Read()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, transport.ErrConnClosed):
				// Clean end of stream or local shutdown.
			default:
				// A failed decode leaves the stream position unknown;
				// resyncing could fold in garbage, so tear down.
				c.logError(log.LayerWire, "read", err)
				slog.Warn("indi client: read failed, disconnecting", "conn", c.connID, "error", err)
			}
			return
		}
		c.logCommand(log.DirectionIn, cmd)
		if err := c.store.apply(cmd); err != nil {
			c.logError(log.LayerClient, "apply", err)
			slog.Warn("indi client: update dropped", "conn", c.connID, "error", err)
		}
	}
}

// teardown stops I/O and resolves every outstanding wait: Connected
// flips false, then every cell in the tree closes.
func (c *Client) teardown() {
	_ = c.conn.Shutdown()
	c.connected.Set(false)
	c.store.closeAll()
	close(c.done)
}

// closeCause classifies a notify.ErrClosed observed mid-wait: after
// teardown every cell is closed, so the wait died with the
// connection; otherwise the entity was removed by a delProperty and
// removed is the better description.
func (c *Client) closeCause(removed error) error {
	if !c.connected.Get() {
		return ErrDisconnected
	}
	return removed
}

func (c *Client) logCommand(dir log.Direction, cmd wire.Command) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    dir,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Command:      log.SummarizeCommand(cmd),
	})
}

func (c *Client) logError(layer log.Layer, op string, err error) {
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.connID,
		Direction:    log.DirectionIn,
		Layer:        layer,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: op,
		},
	})
}
