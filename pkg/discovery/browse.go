package discovery

import (
	"context"
	"net"

	"github.com/enbility/zeroconf/v3"
)

// Browse watches for INDI servers until ctx ends. Servers are
// aggregated by instance name: each instance is emitted once, and
// announcements from further interfaces merge their addresses into
// the already-emitted entry. The channel closes when ctx is done.
func Browse(ctx context.Context, config Config) (<-chan *Server, error) {
	out := make(chan *Server)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)

		servers := make(map[string]*Server)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				srv := entryToServer(entry)
				if srv == nil {
					continue
				}

				existing, found := servers[srv.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, srv.Addresses)
					continue
				}
				servers[srv.InstanceName] = srv
				select {
				case out <- srv:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				// Drop the addresses that came from the vanished
				// interface; the server itself goes when none remain.
				if existing, found := servers[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(servers, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, browseOptions(config)...)
	}()

	return out, nil
}

// FindFirst returns the first INDI server seen. When ctx carries no
// deadline the config's BrowseTimeout applies.
func FindFirst(ctx context.Context, config Config) (*Server, error) {
	if _, ok := ctx.Deadline(); !ok {
		timeout := config.BrowseTimeout
		if timeout <= 0 {
			timeout = BrowseTimeout
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results, err := Browse(ctx, config)
	if err != nil {
		return nil, err
	}

	select {
	case srv, ok := <-results:
		if !ok {
			return nil, ErrNoServers
		}
		return srv, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// browseOptions returns zeroconf client options based on config.
func browseOptions(config Config) []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if config.Interface != "" {
		iface, err := net.InterfaceByName(config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}
	return opts
}

// entryToServer converts one mDNS announcement. Entries without a
// usable port are dropped.
func entryToServer(entry *zeroconf.ServiceEntry) *Server {
	if entry.Port <= 0 {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &Server{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
	}
}

// mergeAddresses adds incoming addresses to the list, skipping
// duplicates.
func mergeAddresses(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range incoming {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses filters out the addresses carried by a removal
// entry.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
