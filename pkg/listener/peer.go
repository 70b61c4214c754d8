package listener

import (
	"context"
	"errors"
	"net"
	"time"
)

// ErrNoPeerAddress is returned when replying to a peer without a source address.
var ErrNoPeerAddress = errors.New("listener: peer address unknown")

// PeerEndpoint is the reply channel to the app that sent a command.
type PeerEndpoint struct {
	Conn net.PacketConn
	Addr net.Addr
}

// Usable reports whether a reply can be sent.
func (p PeerEndpoint) Usable() bool {
	return p.Conn != nil && p.Addr != nil
}

// Send writes data to the peer, retrying up to attempts times with delay
// between attempts while writes fail. It returns the number of writes
// issued and the last error.
func (p PeerEndpoint) Send(ctx context.Context, data []byte, attempts int, delay time.Duration) (int, error) {
	if !p.Usable() {
		return 0, ErrNoPeerAddress
	}
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 1; i <= attempts; i++ {
		if _, err = p.Conn.WriteTo(data, p.Addr); err == nil {
			return i, nil
		}
		if i == attempts {
			return i, err
		}
		select {
		case <-ctx.Done():
			return i, ctx.Err()
		case <-time.After(delay):
		}
	}
	return attempts, err
}
