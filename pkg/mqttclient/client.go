package mqttclient

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/mash-protocol/devprov/pkg/binding"
)

// DefaultBroker is the broker URL template; {productId} is substituted.
const DefaultBroker = "tls://{productId}.iotcloud.tencentdevices.com:8883"

// Default timing values.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultKeepAlive      = 240 * time.Second
	DefaultAckTimeout     = 5 * time.Second
	DefaultCredentialTTL  = 24 * time.Hour
	DefaultQueueSize      = 64
)

// ErrNotConnected is returned by Publish and Subscribe on a closed session.
var ErrNotConnected = errors.New("mqttclient: not connected")

// Config configures a Client.
type Config struct {
	// Broker URL; "{productId}" is replaced with the device's product id.
	Broker string

	// SDKAppID is embedded in the username (default 12010126).
	SDKAppID string

	// ConnectTimeout bounds the CONNECT handshake (default 10s).
	ConnectTimeout time.Duration

	// KeepAlive is the MQTT keep-alive interval (default 240s).
	KeepAlive time.Duration

	// AckTimeout bounds the wait for SUBACK and PUBACK before a timeout
	// event is raised (default 5s).
	AckTimeout time.Duration

	// CredentialTTL is how long the signed credentials stay valid (default 24h).
	CredentialTTL time.Duration

	// AutoReconnect lets the session reconnect after a lost connection.
	AutoReconnect bool

	// TLSConfig for tls:// and ssl:// brokers (optional).
	TLSConfig *tls.Config

	// NewClient creates the Paho client (default mqtt.NewClient).
	NewClient func(opts *mqtt.ClientOptions) mqtt.Client

	// Now returns the current time (default time.Now).
	Now func() time.Time

	// Logger for operational logging (optional).
	Logger *slog.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Broker:         DefaultBroker,
		SDKAppID:       DefaultSDKAppID,
		ConnectTimeout: DefaultConnectTimeout,
		KeepAlive:      DefaultKeepAlive,
		AckTimeout:     DefaultAckTimeout,
		CredentialTTL:  DefaultCredentialTTL,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Broker == "" {
		c.Broker = def.Broker
	}
	if c.SDKAppID == "" {
		c.SDKAppID = def.SDKAppID
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = def.KeepAlive
	}
	if c.AckTimeout <= 0 {
		c.AckTimeout = def.AckTimeout
	}
	if c.CredentialTTL <= 0 {
		c.CredentialTTL = def.CredentialTTL
	}
	if c.NewClient == nil {
		c.NewClient = mqtt.NewClient
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Client opens MQTT sessions. It implements binding.Client.
type Client struct {
	config Config
}

// New creates a Client.
func New(config Config) *Client {
	config.applyDefaults()
	return &Client{config: config}
}

// BrokerURL returns the broker URL for a product.
func (c *Client) BrokerURL(productID string) string {
	return strings.ReplaceAll(c.config.Broker, "{productId}", productID)
}

// Connect opens an MQTT session for identity.
func (c *Client) Connect(ctx context.Context, identity binding.DeviceIdentity, onEvent binding.EventHandler) (binding.Session, error) {
	creds, err := NewCredentials(identity, c.config.SDKAppID, newConnID(), c.config.Now().Add(c.config.CredentialTTL))
	if err != nil {
		return nil, err
	}

	s := newSession(onEvent, c.config.AckTimeout, c.config.Logger)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(c.BrokerURL(identity.ProductID))
	opts.SetClientID(creds.ClientID)
	opts.SetUsername(creds.Username)
	opts.SetPassword(creds.Password)
	opts.SetCleanSession(true)
	opts.SetKeepAlive(c.config.KeepAlive)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetAutoReconnect(c.config.AutoReconnect)
	opts.SetConnectRetry(false)
	if c.config.TLSConfig != nil {
		opts.SetTLSConfig(c.config.TLSConfig)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.debugLog("mqttclient: connection lost", "error", err)
		s.enqueueEvent(binding.Event{Type: binding.EventDisconnect})
	})
	opts.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		s.debugLog("mqttclient: reconnecting")
	})
	opts.SetOnConnectHandler(func(mqtt.Client) {
		if s.connectedOnce.Swap(true) {
			s.enqueueEvent(binding.Event{Type: binding.EventReconnect})
		}
	})

	s.client = c.config.NewClient(opts)

	token := s.client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		s.client.Disconnect(0)
		return nil, ctx.Err()
	case <-time.After(c.config.ConnectTimeout):
		s.client.Disconnect(0)
		return nil, fmt.Errorf("mqttclient: connect %s: timed out", creds.ClientID)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqttclient: connect %s: %w", creds.ClientID, err)
	}

	s.debugLog("mqttclient: connected", "client_id", creds.ClientID)
	return s, nil
}

// Compile-time interface satisfaction check.
var _ binding.Client = (*Client)(nil)
