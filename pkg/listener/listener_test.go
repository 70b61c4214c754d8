package listener

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/devprov/pkg/credstore"
	"github.com/mash-protocol/devprov/pkg/log"
	"github.com/mash-protocol/devprov/pkg/wire"
)

func testConfig() Config {
	return Config{
		Address:        "127.0.0.1:0",
		ProductID:      "PID1",
		DeviceName:     "lamp01",
		SliceTimeout:   50 * time.Millisecond,
		SessionTimeout: 2 * time.Second,
		ReplyDelay:     5 * time.Millisecond,
	}
}

// startListener binds a listener and serves it in the background.
func startListener(t *testing.T, cfg Config, store credstore.Store) (*Listener, <-chan Result) {
	t.Helper()
	l := New(cfg, store)
	require.NoError(t, l.Listen())

	done := make(chan Result, 1)
	go func() { done <- l.Serve(context.Background()) }()
	return l, done
}

// dialApp opens the app side of the control channel.
func dialApp(t *testing.T, addr net.Addr) *net.UDPConn {
	t.Helper()
	conn, err := net.DialUDP("udp", nil, addr.(*net.UDPAddr))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readReply(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	buf := make([]byte, wire.MaxDatagramSize)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	return buf[:n]
}

func waitResult(t *testing.T, done <-chan Result) Result {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(3 * time.Second):
		t.Fatal("listener did not finish")
		return Result{}
	}
}

func TestTokenOnlyScenario(t *testing.T) {
	store := credstore.NewMemoryStore()
	l, done := startListener(t, testConfig(), store)

	app := dialApp(t, l.Addr())
	_, err := app.Write([]byte(`{"cmdType":1,"token":"abc123"}`))
	require.NoError(t, err)

	reply := readReply(t, app)
	assert.Equal(t, `{"cmdType":3,"productId":"PID1","deviceName":"lamp01","protoVersion":"2.0"}`+"\r\n", string(reply))

	r := waitResult(t, done)
	assert.Equal(t, OutcomeTokenOnly, r.Outcome)
	assert.Equal(t, "abc123", r.Token)

	token, err := store.Get(credstore.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, []string{credstore.KeyToken}, store.Writes())

	// Exactly one reply datagram.
	require.NoError(t, app.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err = app.Read(make([]byte, 64))
	assert.Error(t, err)
}

func TestCredentialsScenario(t *testing.T) {
	store := credstore.NewMemoryStore()
	l, done := startListener(t, testConfig(), store)

	app := dialApp(t, l.Addr())
	_, err := app.Write([]byte(`{"cmdType":2,"ssid":"MyNet","password":"Secret1","token":"tok01"}` + "\r\n"))
	require.NoError(t, err)

	reply, err := wire.DecodeDeviceReply(readReply(t, app))
	require.NoError(t, err)
	assert.Equal(t, "PID1", reply.ProductID)

	r := waitResult(t, done)
	require.Equal(t, OutcomeCredentials, r.Outcome)
	assert.Equal(t, credstore.Record{SSID: "MyNet", Password: "Secret1", Token: "tok01"}, r.Record)
	assert.NotNil(t, r.Peer)

	rec, err := credstore.LoadRecord(store)
	require.NoError(t, err)
	assert.Equal(t, r.Record, rec)
}

func TestMalformedDatagramIsDropped(t *testing.T) {
	store := credstore.NewMemoryStore()
	l, done := startListener(t, testConfig(), store)

	app := dialApp(t, l.Addr())
	for _, payload := range []string{"garbage", `{"cmdType":2,"ssid":"x"}`, `{"cmdType":42}`} {
		_, err := app.Write([]byte(payload))
		require.NoError(t, err)
	}
	_, err := app.Write([]byte(`{"cmdType":1,"token":"ok"}`))
	require.NoError(t, err)

	r := waitResult(t, done)
	assert.Equal(t, OutcomeTokenOnly, r.Outcome)
	assert.Equal(t, "ok", r.Token)
	assert.Equal(t, []string{credstore.KeyToken}, store.Writes())
}

func TestSessionTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.SessionTimeout = 150 * time.Millisecond

	start := time.Now()
	r := New(cfg, credstore.NewMemoryStore()).Run(context.Background())

	assert.Equal(t, OutcomeTimedOut, r.Outcome)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestContextCancelStops(t *testing.T) {
	cfg := testConfig()
	cfg.SliceTimeout = 10 * time.Second
	cfg.SessionTimeout = time.Minute

	l := New(cfg, credstore.NewMemoryStore())
	require.NoError(t, l.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- l.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	r := waitResult(t, done)
	assert.Equal(t, OutcomeStopped, r.Outcome)
	assert.Nil(t, l.Addr(), "socket should be closed")
}

func TestPersistFailureReturnsWithoutReply(t *testing.T) {
	store := credstore.NewMemoryStore()
	boom := errors.New("nvs write failed")
	store.FailSet(credstore.KeyPassword, boom)

	l, done := startListener(t, testConfig(), store)
	app := dialApp(t, l.Addr())
	_, err := app.Write([]byte(`{"cmdType":2,"ssid":"MyNet","password":"Secret1","token":"tok01"}`))
	require.NoError(t, err)

	r := waitResult(t, done)
	assert.Equal(t, OutcomeIOFailure, r.Outcome)
	assert.Equal(t, FailurePersist, r.Failure)
	assert.ErrorIs(t, r.Err, boom)

	require.NoError(t, app.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, err = app.Read(make([]byte, 64))
	assert.Error(t, err, "no reply expected after a persist failure")
}

func TestLogQueryRepliesWithErrorLog(t *testing.T) {
	ring := log.NewRingLogger(4)
	ring.Log(log.NewErrorEvent("old", log.LayerBinding, "publish timed out", "").WithCode(5))

	cfg := testConfig()
	cfg.ErrorLog = ring
	l, done := startListener(t, cfg, credstore.NewMemoryStore())

	app := dialApp(t, l.Addr())
	_, err := app.Write([]byte(`{"cmdType":4}`))
	require.NoError(t, err)

	reply, err := wire.DecodeDeviceReply(readReply(t, app))
	require.NoError(t, err)
	require.Len(t, reply.ErrorLog, 1)
	assert.Equal(t, "BINDING", reply.ErrorLog[0].Layer)
	assert.Equal(t, 5, reply.ErrorLog[0].Code)

	assert.Equal(t, OutcomeStopped, waitResult(t, done).Outcome)
}

func TestBindFailure(t *testing.T) {
	cfg := testConfig()
	cfg.ListenPacket = func(string, string) (net.PacketConn, error) {
		return nil, errors.New("address in use")
	}

	r := New(cfg, credstore.NewMemoryStore()).Run(context.Background())
	assert.Equal(t, OutcomeIOFailure, r.Outcome)
	assert.Equal(t, FailureBind, r.Failure)
}

func TestSingleSession(t *testing.T) {
	cfg := testConfig()
	cfg.SessionTimeout = 50 * time.Millisecond
	l := New(cfg, credstore.NewMemoryStore())

	assert.Equal(t, OutcomeTimedOut, l.Run(context.Background()).Outcome)
	assert.ErrorIs(t, l.Listen(), ErrSessionFinished)

	r := l.Serve(context.Background())
	assert.Equal(t, FailureBind, r.Failure)
	assert.ErrorIs(t, r.Err, ErrNotListening)
}

// fakeConn is a PacketConn whose reads, deadlines and writes are scripted.
type fakeConn struct {
	mu          sync.Mutex
	readErr     error
	deadlineErr error
	writeErrs   []error
	writes      int
	closed      bool
}

func (c *fakeConn) ReadFrom([]byte) (int, net.Addr, error) {
	return 0, nil, c.readErr
}

func (c *fakeConn) WriteTo(b []byte, _ net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if len(c.writeErrs) > 0 {
		err := c.writeErrs[0]
		c.writeErrs = c.writeErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) LocalAddr() net.Addr { return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)} }
func (c *fakeConn) SetDeadline(time.Time) error { return nil }
func (c *fakeConn) SetReadDeadline(time.Time) error { return c.deadlineErr }
func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func fakeConfig(conn *fakeConn) Config {
	cfg := testConfig()
	cfg.ListenPacket = func(string, string) (net.PacketConn, error) { return conn, nil }
	return cfg
}

func TestConsecutiveReceiveErrors(t *testing.T) {
	conn := &fakeConn{readErr: errors.New("network down")}

	r := New(fakeConfig(conn), credstore.NewMemoryStore()).Run(context.Background())
	assert.Equal(t, OutcomeIOFailure, r.Outcome)
	assert.Equal(t, FailureReceive, r.Failure)
	assert.True(t, conn.closed)
}

func TestConsecutiveWaitErrors(t *testing.T) {
	conn := &fakeConn{deadlineErr: errors.New("bad descriptor")}

	r := New(fakeConfig(conn), credstore.NewMemoryStore()).Run(context.Background())
	assert.Equal(t, OutcomeIOFailure, r.Outcome)
	assert.Equal(t, FailureWait, r.Failure)
}

func TestPeerSendRetriesWhileFailing(t *testing.T) {
	conn := &fakeConn{writeErrs: []error{errors.New("busy"), errors.New("busy"), nil}}
	peer := PeerEndpoint{Conn: conn, Addr: &net.UDPAddr{IP: net.IPv4(192, 168, 4, 2), Port: 50000}}

	writes, err := peer.Send(context.Background(), []byte("x"), 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 3, writes)
}

func TestPeerSendGivesUp(t *testing.T) {
	boom := errors.New("busy")
	conn := &fakeConn{writeErrs: []error{boom, boom, boom, nil}}
	peer := PeerEndpoint{Conn: conn, Addr: &net.UDPAddr{}}

	writes, err := peer.Send(context.Background(), []byte("x"), 3, time.Millisecond)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, writes)
}

func TestPeerWithoutAddress(t *testing.T) {
	peer := PeerEndpoint{Conn: &fakeConn{}}
	assert.False(t, peer.Usable())

	_, err := peer.Send(context.Background(), []byte("x"), 3, time.Millisecond)
	assert.ErrorIs(t, err, ErrNoPeerAddress)
}
