package discovery

import (
	"context"
	"time"
)

// Advertiser publishes the provisioning service.
type Advertiser interface {
	// Advertise starts (or replaces) the advertisement.
	Advertise(ctx context.Context, info *ProvisioningInfo) error

	// Stop withdraws the advertisement. It is safe to call when idle.
	Stop() error
}

// Browser finds advertised provisioning services.
type Browser interface {
	// Browse streams services until ctx is done.
	Browse(ctx context.Context) (<-chan *ProvisioningService, error)
}

// AdvertiserConfig configures the mDNS advertiser.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: DefaultTTL}
}

// BrowserConfig configures the mDNS browser.
type BrowserConfig struct {
	// Interface restricts browsing to one interface. Empty means all.
	Interface string
}
