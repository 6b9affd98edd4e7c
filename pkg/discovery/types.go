package discovery

import (
	"errors"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the mDNS service type for Pulse brokers.
	ServiceType = "_pulse._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default Pulse broker port.
	DefaultPort = 4333
)

// TXT record key constants.
const (
	TXTKeyClusterID  = "CL" // Cluster ID (16 hex chars)
	TXTKeyName       = "NM" // Broker name
	TXTKeyVersion    = "VN" // Protocol version (optional)
	TXTKeyMaxPayload = "MP" // Maximum payload size in bytes (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// ClusterIDLength is the length of a cluster ID (16 hex chars = 64 bits).
	ClusterIDLength = 16
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("no broker found")
)

// BrokerInfo describes a broker as announced over mDNS.
type BrokerInfo struct {
	// ClusterID identifies the broker cluster (16 hex chars).
	ClusterID string

	// Name is the broker's human-readable name.
	Name string

	// Version is the protocol version the broker speaks (optional).
	Version string

	// MaxPayload is the broker's frame payload limit in bytes (optional).
	MaxPayload uint32
}

// BrokerService is a discovered broker instance.
type BrokerService struct {
	// InstanceName is the mDNS instance name.
	InstanceName string

	// Addresses are the broker's IP addresses, all interfaces merged.
	Addresses []string

	// Port is the broker's listen port.
	Port int

	// Info holds the decoded TXT records.
	Info BrokerInfo
}
