package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mash-protocol/devprov/pkg/version"
	"github.com/mash-protocol/devprov/pkg/wire"
)

// DefaultDeviceAddr is the device's control endpoint while its soft-AP is up.
const DefaultDeviceAddr = "192.168.4.1:8266"

// ErrIncompatibleVersion is returned when the device speaks another major
// protocol version.
var ErrIncompatibleVersion = errors.New("incompatible protocol version")

// Client sends control commands to a device and waits for its reply.
type Client struct {
	// Addr is the device control endpoint (host:port).
	Addr string

	// Timeout bounds a single command round trip.
	Timeout time.Duration

	// Retries is how many times a command is resent when no reply arrives.
	Retries int
}

// NewClient creates a client for the given device endpoint.
func NewClient(addr string, timeout time.Duration) *Client {
	if addr == "" {
		addr = DefaultDeviceAddr
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{Addr: addr, Timeout: timeout, Retries: 2}
}

// SendCredentials delivers network credentials and a binding token.
func (c *Client) SendCredentials(ctx context.Context, ssid, password, token string) (*wire.DeviceReply, error) {
	return c.Send(ctx, wire.CredentialsAndToken{SSID: ssid, Password: password, Token: token})
}

// SendToken delivers a binding token only.
func (c *Client) SendToken(ctx context.Context, token string) (*wire.DeviceReply, error) {
	return c.Send(ctx, wire.TokenOnly{Token: token})
}

// QueryLog asks the device for its recent error log.
func (c *Client) QueryLog(ctx context.Context) (*wire.DeviceReply, error) {
	return c.Send(ctx, wire.LogQuery{})
}

// Send encodes cmd, writes it to the device and returns the decoded reply.
// The reply's protocol version is checked against version.Current.
func (c *Client) Send(ctx context.Context, cmd wire.Command) (*wire.DeviceReply, error) {
	payload, err := wire.EncodeCommand(cmd)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", c.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.Addr, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, wire.MaxDatagramSize)
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if _, err := conn.Write(payload); err != nil {
			return nil, fmt.Errorf("send %s: %w", cmd.Type(), err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.Timeout))

		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("read reply: %w", err)
		}

		reply, err := wire.DecodeDeviceReply(buf[:n])
		if err != nil {
			return nil, fmt.Errorf("decode reply: %w", err)
		}
		if !version.CompatibleWithCurrent(reply.ProtoVersion) {
			return reply, fmt.Errorf("%w: device %q, app %q", ErrIncompatibleVersion, reply.ProtoVersion, version.Current)
		}
		return reply, nil
	}
	return nil, fmt.Errorf("no reply from %s after %d attempts: %w", c.Addr, c.Retries+1, lastErr)
}
