package provisioning

import (
	"context"
	"time"

	"github.com/mash-protocol/devprov/pkg/binding"
	"github.com/mash-protocol/devprov/pkg/credstore"
	"github.com/mash-protocol/devprov/pkg/discovery"
	"github.com/mash-protocol/devprov/pkg/listener"
)

// Radio controls the WiFi interface.
type Radio interface {
	StartSoftAP(ctx context.Context, ssid, password string) error
	StopSoftAP(ctx context.Context) error

	// Connect switches to station mode and joins the network.
	Connect(ctx context.Context, ssid, password string) error

	// HasAddress reports whether the station interface has an IP address.
	HasAddress(ctx context.Context) (bool, error)

	LinkUp() bool

	// SmartConfig blocks until the network credentials are received.
	SmartConfig(ctx context.Context) (ssid, password string, err error)
}

// ControlListener runs one local control session.
type ControlListener interface {
	Run(ctx context.Context) listener.Result
}

// ListenerFactory creates a control listener whose session lasts at most budget.
type ListenerFactory func(budget time.Duration) ControlListener

// Binder performs the cloud binding handshake.
type Binder interface {
	Bind(ctx context.Context, identity binding.DeviceIdentity, token string) binding.Result
}

// Indicator signals "waiting for the app" to the user.
type Indicator interface {
	Start(ctx context.Context)
	Stop() error
}

// Deps are the collaborators of the Orchestrator.
type Deps struct {
	Store       credstore.Store
	Radio       Radio
	NewListener ListenerFactory
	Binder      Binder

	// Indicator is optional.
	Indicator Indicator

	// Advertiser is optional. When set, the control port is advertised
	// over mDNS while waiting for credentials.
	Advertiser discovery.Advertiser
}
