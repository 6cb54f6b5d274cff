// Package config loads client profiles: where the INDI server lives,
// how BLOBs are handled, operation timeouts, and the protocol log
// destination. Profiles are YAML files; explicit tool flags override
// whatever the file says.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/twinkle-astronomy/indi-go/pkg/wire"
)

// Profile is one client configuration.
type Profile struct {
	Server   ServerConfig   `yaml:"server"`
	Blob     BlobConfig     `yaml:"blob"`
	Timeouts TimeoutsConfig `yaml:"timeouts"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig locates the INDI server.
type ServerConfig struct {
	// Host and Port locate a TCP indiserver.
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`

	// URL selects a WebSocket endpoint (ws:// or wss://) instead.
	// When set it takes precedence over Host and Port.
	URL string `yaml:"url"`
}

// BlobConfig controls BLOB transfer.
type BlobConfig struct {
	// Enable is the connection's BLOB policy: never, also, or only.
	Enable string `yaml:"enable"`

	// Dir is where capture tools write received images.
	Dir string `yaml:"dir"`
}

// TimeoutsConfig holds operation timeouts in seconds. Zero keeps the
// default.
type TimeoutsConfig struct {
	Connect float64 `yaml:"connect"`
	Get     float64 `yaml:"get"`
	Change  float64 `yaml:"change"`
}

// LogConfig controls protocol logging.
type LogConfig struct {
	// Path of the .ilog protocol log file. Empty disables logging.
	Path string `yaml:"path"`
}

// Default returns the profile used when no file is given: a local
// indiserver on the standard port, BLOBs disabled.
func Default() *Profile {
	return &Profile{
		Server: ServerConfig{
			Host: "localhost",
			Port: 7624,
		},
		Blob: BlobConfig{
			Enable: "never",
		},
		Timeouts: TimeoutsConfig{
			Connect: 30,
			Get:     5,
			Change:  60,
		},
	}
}

// Load reads and validates the profile at path. Fields absent from
// the file keep their defaults.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile from YAML bytes. Unknown keys are errors.
func Parse(data []byte) (*Profile, error) {
	p := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) validate() error {
	if p.Server.URL != "" {
		u, err := url.Parse(p.Server.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return fmt.Errorf("server.url: %q is not a ws:// or wss:// URL", p.Server.URL)
		}
	} else {
		if p.Server.Host == "" {
			return errors.New("server.host: required when server.url is unset")
		}
		if p.Server.Port == 0 {
			return errors.New("server.port: required when server.url is unset")
		}
	}

	switch p.Blob.Enable {
	case "", "never", "also", "only":
	default:
		return fmt.Errorf("blob.enable: %q is not never, also, or only", p.Blob.Enable)
	}

	if p.Timeouts.Connect < 0 {
		return errors.New("timeouts.connect: negative")
	}
	if p.Timeouts.Get < 0 {
		return errors.New("timeouts.get: negative")
	}
	if p.Timeouts.Change < 0 {
		return errors.New("timeouts.change: negative")
	}
	return nil
}

// Addr returns the TCP dial address.
func (p *Profile) Addr() string {
	return net.JoinHostPort(p.Server.Host, strconv.Itoa(int(p.Server.Port)))
}

// BlobPolicy maps the profile's blob.enable word to the wire policy.
func (p *Profile) BlobPolicy() wire.BlobEnable {
	switch p.Blob.Enable {
	case "also":
		return wire.BlobAlso
	case "only":
		return wire.BlobOnly
	default:
		return wire.BlobNever
	}
}

// ConnectTimeout returns the dial timeout.
func (p *Profile) ConnectTimeout() time.Duration {
	return secondsOr(p.Timeouts.Connect, 30*time.Second)
}

// GetTimeout bounds definition waits in the query tools.
func (p *Profile) GetTimeout() time.Duration {
	return secondsOr(p.Timeouts.Get, 5*time.Second)
}

// ChangeTimeout bounds change-and-confirm waits.
func (p *Profile) ChangeTimeout() time.Duration {
	return secondsOr(p.Timeouts.Change, 60*time.Second)
}

func secondsOr(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
