// Package cli carries the plumbing shared by the indi command line
// tools: profile resolution, flag overrides, and dialing the server
// described by the resulting profile.
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/uuid"

	"github.com/twinkle-astronomy/indi-go/pkg/client"
	"github.com/twinkle-astronomy/indi-go/pkg/config"
	"github.com/twinkle-astronomy/indi-go/pkg/log"
	"github.com/twinkle-astronomy/indi-go/pkg/transport"
)

// Options holds the connection flags common to the tools. Zero values
// defer to the profile.
type Options struct {
	ConfigPath  string
	Host        string
	Port        uint
	URL         string
	Timeout     float64
	ProtocolLog string
}

// AddFlags registers the common connection flags on fs.
func (o *Options) AddFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "profile file (YAML)")
	fs.StringVar(&o.Host, "host", "", "INDI server host (overrides the profile)")
	fs.UintVar(&o.Port, "port", 0, "INDI server port (overrides the profile)")
	fs.StringVar(&o.URL, "url", "", "ws:// or wss:// endpoint instead of TCP")
	fs.Float64Var(&o.Timeout, "timeout", 0, "operation timeout in seconds")
	fs.StringVar(&o.ProtocolLog, "protocol-log", "", "append protocol events to this .ilog file")
}

// Profile resolves the effective profile: the file at ConfigPath, or
// the defaults, with the flag overrides applied on top. A host or port
// override selects TCP even when the file names a WebSocket URL; a URL
// override wins over everything.
func (o *Options) Profile() (*config.Profile, error) {
	p := config.Default()
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return nil, err
		}
		p = loaded
	}
	if o.Host != "" {
		p.Server.Host = o.Host
		p.Server.URL = ""
	}
	if o.Port != 0 {
		if o.Port > 65535 {
			return nil, fmt.Errorf("port %d out of range", o.Port)
		}
		p.Server.Port = uint16(o.Port)
		p.Server.URL = ""
	}
	if o.URL != "" {
		p.Server.URL = o.URL
	}
	if o.Timeout > 0 {
		p.Timeouts.Get = o.Timeout
		p.Timeouts.Change = o.Timeout
	}
	if o.ProtocolLog != "" {
		p.Log.Path = o.ProtocolLog
	}
	return p, nil
}

// Connect dials the profile's server and starts a client on the
// connection. The device and property arguments scope the initial
// getProperties; empty strings ask for everything. Extra loggers are
// fed the same protocol events as the profile's log file.
//
// The returned closer shuts the client down and releases the log file.
func Connect(ctx context.Context, p *config.Profile, device, property string, extra ...log.Logger) (*client.Client, func(), error) {
	var fileLog *log.FileLogger
	loggers := make([]log.Logger, 0, len(extra)+1)
	if p.Log.Path != "" {
		fl, err := log.NewFileLogger(p.Log.Path)
		if err != nil {
			return nil, nil, err
		}
		fileLog = fl
		loggers = append(loggers, fl)
	}
	loggers = append(loggers, extra...)

	var logger log.Logger
	switch len(loggers) {
	case 0:
		logger = log.NoopLogger{}
	case 1:
		logger = loggers[0]
	default:
		logger = log.NewMultiLogger(loggers...)
	}

	// One connection ID across transport and client merges their
	// events into a single stream.
	connID := uuid.NewString()
	tcfg := transport.Config{
		DialTimeout: p.ConnectTimeout(),
		Logger:      logger,
		ConnID:      connID,
	}

	var (
		conn transport.Conn
		err  error
	)
	if p.Server.URL != "" {
		conn, err = transport.DialWebSocket(ctx, p.Server.URL, tcfg)
	} else {
		conn, err = transport.DialTCP(ctx, p.Addr(), tcfg)
	}
	if err != nil {
		if fileLog != nil {
			fileLog.Close()
		}
		return nil, nil, err
	}

	c := client.New(conn, client.Config{
		Logger:   logger,
		ConnID:   connID,
		Device:   device,
		Property: property,
	})
	closer := func() {
		c.Shutdown()
		if fileLog != nil {
			fileLog.Close()
		}
	}
	return c, closer, nil
}

// MessageRelay is a Logger that hands device messages to a consumer,
// typically an interactive console. Other events pass through
// untouched to whatever else is in the logger stack.
type MessageRelay struct {
	ch chan log.Event
}

// NewMessageRelay returns a relay with a small buffer. Messages are
// dropped when the consumer lags rather than stalling the reader.
func NewMessageRelay() *MessageRelay {
	return &MessageRelay{ch: make(chan log.Event, 64)}
}

// Log queues device message events for the consumer.
func (r *MessageRelay) Log(ev log.Event) {
	if ev.DeviceMessage == nil {
		return
	}
	select {
	case r.ch <- ev:
	default:
	}
}

// Events returns the channel the consumer reads from.
func (r *MessageRelay) Events() <-chan log.Event {
	return r.ch
}
