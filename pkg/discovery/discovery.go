package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the mDNS service type INDI servers advertise.
	ServiceType = "_indi._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the standard indiserver port.
	DefaultPort = 7624

	// BrowseTimeout is the default bound on FindFirst.
	BrowseTimeout = 10 * time.Second
)

// ErrNoServers means browsing ended without finding a server.
var ErrNoServers = errors.New("discovery: no servers found")

// Server is one discovered INDI server.
type Server struct {
	// InstanceName is the advertised instance name, unique per server.
	InstanceName string

	// Host is the advertised mDNS hostname.
	Host string

	// Port is the TCP port the server listens on.
	Port uint16

	// Addresses holds the resolved IPv4 and IPv6 addresses, aggregated
	// across interfaces.
	Addresses []string
}

// Addr returns a dialable host:port, preferring a resolved address
// over the mDNS hostname.
func (s *Server) Addr() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// Config configures browsing behavior.
type Config struct {
	// BrowseTimeout bounds FindFirst when the caller's context carries
	// no deadline. Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface restricts browsing to one network interface. Empty
	// means all multicast-capable interfaces.
	Interface string
}

// DefaultConfig returns the default browsing configuration.
func DefaultConfig() Config {
	return Config{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}
