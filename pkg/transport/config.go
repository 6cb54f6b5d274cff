package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/twinkle-astronomy/indi-go/pkg/log"
)

// Config configures a connection.
type Config struct {
	// DialTimeout bounds connection establishment when the caller's
	// context carries no deadline of its own (default: 30s).
	DialTimeout time.Duration

	// ReadTimeout is the timeout for a single Read (0 = no timeout).
	// Servers stay silent between updates, so most clients leave this
	// unset.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for write operations (0 = no timeout).
	WriteTimeout time.Duration

	// Logger receives protocol events. Defaults to NoopLogger.
	Logger log.Logger

	// ConnID identifies this connection in log events. A random UUID
	// is generated when empty.
	ConnID string
}

// DefaultConfig returns the default connection configuration.
func DefaultConfig() Config {
	return Config{
		DialTimeout: 30 * time.Second,
	}
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.DialTimeout == 0 {
		c.DialTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = log.NoopLogger{}
	}
	if c.ConnID == "" {
		c.ConnID = uuid.NewString()
	}
	return c
}
