package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures broker advertising.
type AdvertiserConfig struct {
	// Interface restricts advertising to one interface. Empty means all.
	Interface string

	// TTL overrides the mDNS record TTL.
	TTL time.Duration
}

// BrowserConfig configures broker browsing.
type BrowserConfig struct {
	// Interface restricts browsing to one interface. Empty means all.
	Interface string
}

// Advertiser announces a Pulse broker over mDNS.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates a new mDNS advertiser.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	return &Advertiser{config: config}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *Advertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Advertise starts announcing the broker. A previous announcement for this
// advertiser is replaced.
func (a *Advertiser) Advertise(info *BrokerInfo, port int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	instanceName := fmt.Sprintf("Pulse-%s", info.Name)
	if err := ValidateInstanceName(instanceName); err != nil {
		return err
	}

	txtStrings := TXTRecordsToStrings(EncodeBrokerTXT(info))

	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instanceName,
		ServiceType,
		Domain,
		port,
		txtStrings,
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register broker service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the announcement.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// Browser discovers Pulse brokers over mDNS.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates a new mDNS browser.
func NewBrowser(config BrowserConfig) *Browser {
	return &Browser{config: config}
}

// Browse searches for brokers until ctx expires. Announcements are
// aggregated by instance name: addresses from multiple interfaces are
// combined into a single entry, and a service is dropped when its last
// address disappears.
func (b *Browser) Browse(ctx context.Context, clusterID string) (<-chan *BrokerService, error) {
	out := make(chan *BrokerService)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	go func() {
		defer close(out)

		// Track services by instance name, aggregating addresses
		services := make(map[string]*BrokerService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToBroker(entry)
				if svc == nil {
					continue
				}

				// Filter by cluster if specified
				if clusterID != "" && svc.Info.ClusterID != clusterID {
					continue
				}

				existing, found := services[svc.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				} else {
					services[svc.InstanceName] = svc
					select {
					case out <- svc:
					case <-ctx.Done():
						return
					}
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// FindFirst returns the first broker discovered for a cluster, or
// ErrNotFound when ctx expires first. An empty clusterID matches any broker.
func (b *Browser) FindFirst(ctx context.Context, clusterID string) (*BrokerService, error) {
	results, err := b.Browse(ctx, clusterID)
	if err != nil {
		return nil, err
	}

	select {
	case svc, ok := <-results:
		if !ok {
			return nil, ErrNotFound
		}
		return svc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrNotFound, ctx.Err())
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	// Select specific interface if configured
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// entryToBroker converts a zeroconf entry to a BrokerService.
// Entries with malformed TXT records are ignored.
func entryToBroker(entry *zeroconf.ServiceEntry) *BrokerService {
	txt := StringsToTXTRecords(entry.Text)
	info, err := DecodeBrokerTXT(txt)
	if err != nil {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &BrokerService{
		InstanceName: entry.Instance,
		Addresses:    addrs,
		Port:         entry.Port,
		Info:         *info,
	}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses removes addresses from a zeroconf entry from the list.
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
