package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/devprov/pkg/credstore"
	"github.com/mash-protocol/devprov/pkg/log"
	"github.com/mash-protocol/devprov/pkg/version"
	"github.com/mash-protocol/devprov/pkg/wire"
)

// Default configuration values.
const (
	DefaultPort                 = 8266
	DefaultSliceTimeout         = 5 * time.Second
	DefaultSessionTimeout       = 5 * time.Minute
	DefaultMaxConsecutiveErrors = 3
	DefaultReplyAttempts        = 3
	DefaultReplyDelay           = 200 * time.Millisecond
)

// Listener errors.
var (
	ErrNotListening     = errors.New("listener: not listening")
	ErrAlreadyListening = errors.New("listener: already listening")
	ErrSessionFinished  = errors.New("listener: session already finished")
)

// ErrorLogSource provides the entries sent in reply to LOG_QUERY.
// *log.RingLogger implements it.
type ErrorLogSource interface {
	LogEntries() []wire.LogEntry
}

// Config configures a Listener.
type Config struct {
	// Address to bind (default ":8266", all addresses).
	Address string

	// ProductID and DeviceName are sent back to the app in the device reply.
	ProductID  string
	DeviceName string

	// SliceTimeout bounds each wait for a datagram (default 5s).
	SliceTimeout time.Duration

	// SessionTimeout is the total session budget (default 5m).
	SessionTimeout time.Duration

	// MaxConsecutiveErrors is how many consecutive receive or wait errors
	// are tolerated before the session fails (default 3).
	MaxConsecutiveErrors int

	// ReplyAttempts bounds reply writes while they fail (default 3).
	ReplyAttempts int

	// ReplyDelay is the pause between failing reply writes (default 200ms).
	ReplyDelay time.Duration

	// SessionID tags protocol events. Generated when empty.
	SessionID string

	// ErrorLog answers LOG_QUERY (optional).
	ErrorLog ErrorLogSource

	// ListenPacket opens the socket (default net.ListenPacket).
	ListenPacket func(network, address string) (net.PacketConn, error)

	// Logger for operational logging (optional).
	Logger *slog.Logger

	// ProtocolLogger receives protocol events (optional).
	ProtocolLogger log.Logger
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Address:              fmt.Sprintf(":%d", DefaultPort),
		SliceTimeout:         DefaultSliceTimeout,
		SessionTimeout:       DefaultSessionTimeout,
		MaxConsecutiveErrors: DefaultMaxConsecutiveErrors,
		ReplyAttempts:        DefaultReplyAttempts,
		ReplyDelay:           DefaultReplyDelay,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.SliceTimeout <= 0 {
		c.SliceTimeout = def.SliceTimeout
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = def.SessionTimeout
	}
	if c.MaxConsecutiveErrors <= 0 {
		c.MaxConsecutiveErrors = def.MaxConsecutiveErrors
	}
	if c.ReplyAttempts <= 0 {
		c.ReplyAttempts = def.ReplyAttempts
	}
	if c.ReplyDelay <= 0 {
		c.ReplyDelay = def.ReplyDelay
	}
	if c.SessionID == "" {
		c.SessionID = uuid.New().String()
	}
	if c.ListenPacket == nil {
		c.ListenPacket = net.ListenPacket
	}
}

// Listener serves one control-channel session.
type Listener struct {
	config Config
	store  credstore.Store
	logger *slog.Logger
	events log.Logger

	mu       sync.Mutex
	conn     net.PacketConn
	finished bool
}

// New creates a Listener that persists received credentials to store.
func New(config Config, store credstore.Store) *Listener {
	config.applyDefaults()
	return &Listener{
		config: config,
		store:  store,
		logger: config.Logger,
		events: log.OrNoop(config.ProtocolLogger),
	}
}

// SessionID returns the id tagging this session's protocol events.
func (l *Listener) SessionID() string {
	return l.config.SessionID
}

// Listen binds the UDP socket.
func (l *Listener) Listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finished {
		return ErrSessionFinished
	}
	if l.conn != nil {
		return ErrAlreadyListening
	}

	conn, err := l.config.ListenPacket("udp", l.config.Address)
	if err != nil {
		return fmt.Errorf("listener: bind %s: %w", l.config.Address, err)
	}
	l.conn = conn
	l.debugLog("listener: bound", "addr", conn.LocalAddr().String())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Run binds the socket and serves the session.
func (l *Listener) Run(ctx context.Context) Result {
	if err := l.Listen(); err != nil {
		l.logError(err.Error(), "bind")
		return ioFailure(FailureBind, err)
	}
	return l.Serve(ctx)
}

// Serve waits for one command and returns the session result. The socket
// is closed before Serve returns.
func (l *Listener) Serve(ctx context.Context) Result {
	l.mu.Lock()
	conn := l.conn
	l.mu.Unlock()
	if conn == nil {
		return ioFailure(FailureBind, ErrNotListening)
	}

	defer l.close()

	// Cancellation unblocks a pending read.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	l.logState("", "LISTENING", "")
	result := l.serve(ctx, conn)
	l.logState("LISTENING", result.Outcome.String(), reasonOf(result))
	l.debugLog("listener: session finished", "outcome", result.Outcome.String(), "failure", result.Failure.String())
	return result
}

func (l *Listener) serve(ctx context.Context, conn net.PacketConn) Result {
	buf := make([]byte, wire.MaxDatagramSize)
	deadline := time.Now().Add(l.config.SessionTimeout)
	recvErrors, waitErrors := 0, 0

	for {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeStopped}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Result{Outcome: OutcomeTimedOut}
		}

		if err := conn.SetReadDeadline(time.Now().Add(min(l.config.SliceTimeout, remaining))); err != nil {
			waitErrors++
			l.logError(err.Error(), "wait")
			if waitErrors > l.config.MaxConsecutiveErrors {
				return ioFailure(FailureWait, fmt.Errorf("listener: wait: %w", err))
			}
			continue
		}
		waitErrors = 0
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeStopped}
		}

		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Outcome: OutcomeStopped}
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			recvErrors++
			l.logError(err.Error(), "receive")
			if recvErrors > l.config.MaxConsecutiveErrors {
				return ioFailure(FailureReceive, fmt.Errorf("listener: receive: %w", err))
			}
			continue
		}
		recvErrors = 0

		if result, done := l.handleDatagram(ctx, PeerEndpoint{Conn: conn, Addr: addr}, buf[:n]); done {
			return result
		}
	}
}

// handleDatagram processes one datagram. It reports done=false when the
// datagram was dropped and the session continues.
func (l *Listener) handleDatagram(ctx context.Context, peer PeerEndpoint, data []byte) (Result, bool) {
	cmd, err := wire.Decode(data)
	if err != nil {
		l.logDatagram(peer, data, 0, true)
		l.logError(err.Error(), "decode")
		l.debugLog("listener: dropped datagram", "from", addrString(peer.Addr), "error", err)
		return Result{}, false
	}

	// Credentials are never captured verbatim.
	_, hasSecret := cmd.(wire.CredentialsAndToken)
	l.logDatagram(peer, data, int(cmd.Type()), !hasSecret)

	switch c := cmd.(type) {
	case wire.CredentialsAndToken:
		rec := credstore.Record{SSID: c.SSID, Password: c.Password, Token: c.Token}
		if err := credstore.SaveRecord(l.store, rec); err != nil {
			l.logError(err.Error(), "persist")
			return ioFailure(FailurePersist, err), true
		}
		l.debugLog("listener: credentials received", "ssid", c.SSID, "from", addrString(peer.Addr))
		l.reply(ctx, peer, nil)
		return Result{Outcome: OutcomeCredentials, Record: rec, Token: c.Token, Peer: peer.Addr}, true

	case wire.TokenOnly:
		if err := credstore.SaveToken(l.store, c.Token); err != nil {
			l.logError(err.Error(), "persist")
			return ioFailure(FailurePersist, err), true
		}
		l.debugLog("listener: token received", "from", addrString(peer.Addr))
		l.reply(ctx, peer, nil)
		return Result{Outcome: OutcomeTokenOnly, Token: c.Token, Peer: peer.Addr}, true

	case wire.LogQuery:
		var entries []wire.LogEntry
		if l.config.ErrorLog != nil {
			entries = l.config.ErrorLog.LogEntries()
		}
		l.debugLog("listener: log query", "from", addrString(peer.Addr), "entries", len(entries))
		l.reply(ctx, peer, entries)
		return Result{Outcome: OutcomeStopped, Peer: peer.Addr}, true
	}

	// Decode only returns the command types handled above.
	return Result{}, false
}

// reply sends the device identity to the peer. Failures are logged only;
// the command has already been persisted.
func (l *Listener) reply(ctx context.Context, peer PeerEndpoint, errorLog []wire.LogEntry) {
	if !peer.Usable() {
		l.debugLog("listener: no peer address, reply skipped")
		return
	}

	data, err := wire.EncodeDeviceReply(wire.DeviceReply{
		ProductID:    l.config.ProductID,
		DeviceName:   l.config.DeviceName,
		ProtoVersion: version.Current,
		ErrorLog:     errorLog,
	})
	if err != nil {
		l.logError(err.Error(), "reply")
		return
	}

	writes, err := peer.Send(ctx, data, l.config.ReplyAttempts, l.config.ReplyDelay)
	if err != nil {
		l.logError(err.Error(), "reply")
		l.debugLog("listener: reply failed", "to", addrString(peer.Addr), "writes", writes, "error", err)
		return
	}

	l.events.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  l.config.SessionID,
		Direction:  log.DirectionOut,
		Layer:      log.LayerListener,
		Category:   log.CategoryDatagram,
		RemoteAddr: addrString(peer.Addr),
		ProductID:  l.config.ProductID,
		DeviceName: l.config.DeviceName,
		Datagram:   log.NewDatagramEvent(data, int(wire.CmdDeviceReply), true),
	})
}

func (l *Listener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
	l.finished = true
}

func (l *Listener) logDatagram(peer PeerEndpoint, data []byte, cmdType int, capture bool) {
	l.events.Log(log.Event{
		Timestamp:  time.Now(),
		SessionID:  l.config.SessionID,
		Direction:  log.DirectionIn,
		Layer:      log.LayerListener,
		Category:   log.CategoryDatagram,
		RemoteAddr: addrString(peer.Addr),
		Datagram:   log.NewDatagramEvent(data, cmdType, capture),
	})
}

func (l *Listener) logError(msg, where string) {
	l.events.Log(log.NewErrorEvent(l.config.SessionID, log.LayerListener, msg, where))
}

func (l *Listener) logState(oldState, newState, reason string) {
	l.events.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: l.config.SessionID,
		Direction: log.DirectionNone,
		Layer:     log.LayerListener,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityListener,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}

func (l *Listener) debugLog(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}

func reasonOf(r Result) string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return ""
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
