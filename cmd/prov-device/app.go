package main

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/mash-protocol/devprov/pkg/binding"
	"github.com/mash-protocol/devprov/pkg/config"
	"github.com/mash-protocol/devprov/pkg/credstore"
	"github.com/mash-protocol/devprov/pkg/discovery"
	"github.com/mash-protocol/devprov/pkg/light"
	"github.com/mash-protocol/devprov/pkg/listener"
	provlog "github.com/mash-protocol/devprov/pkg/log"
	"github.com/mash-protocol/devprov/pkg/mqttclient"
	"github.com/mash-protocol/devprov/pkg/provisioning"
	"github.com/mash-protocol/devprov/pkg/wifi"
)

// App holds the wired components of the device.
type App struct {
	store        credstore.Store
	radio        *wifi.Radio
	ring         *provlog.RingLogger
	orchestrator *provisioning.Orchestrator

	closers []io.Closer
}

// Close releases the store and the protocol log file.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}

// build wires every component from the configuration.
func build(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// The hostapd/wpa_supplicant radio is the only one shipped and it cannot
	// receive SmartConfig frames.
	if cfg.Method == config.MethodSmartConfig {
		return nil, fmt.Errorf("method %s: %w", cfg.Method, wifi.ErrSmartConfigUnsupported)
	}

	app := &App{}

	store, closer, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	app.store = store
	if closer != nil {
		app.closers = append(app.closers, closer)
	}

	if err := credstore.SeedIdentity(store, credstore.Identity{
		ProductID:     cfg.Identity.ProductID,
		DeviceName:    cfg.Identity.DeviceName,
		DeviceSecret:  cfg.Identity.DeviceSecret,
		ProductSecret: cfg.Identity.ProductSecret,
	}); err != nil {
		app.Close()
		return nil, fmt.Errorf("seed identity: %w", err)
	}

	app.ring = provlog.NewRingLogger(cfg.Logging.ErrorLogSize)
	events := []provlog.Logger{app.ring, provlog.NewSlogAdapter(logger)}
	if cfg.Logging.ProtocolLog != "" {
		fl, err := provlog.NewFileLogger(cfg.Logging.ProtocolLog)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("protocol log: %w", err)
		}
		app.closers = append(app.closers, fl)
		events = append(events, fl)
	}
	protocolLogger := provlog.NewMultiLogger(events...)

	app.radio = wifi.NewRadio(wifi.Config{
		Interface:  cfg.SoftAP.Interface,
		RuntimeDir: cfg.RuntimeDir,
		Channel:    cfg.SoftAP.Channel,
		Logger:     logger,
	})

	tlsConfig, err := brokerTLS(cfg.Broker)
	if err != nil {
		app.Close()
		return nil, err
	}
	client := mqttclient.New(mqttclient.Config{
		Broker:         cfg.Broker.URL,
		SDKAppID:       cfg.Broker.SDKAppID,
		ConnectTimeout: cfg.Broker.ConnectTimeout.Std(),
		KeepAlive:      cfg.Broker.KeepAlive.Std(),
		CredentialTTL:  cfg.Broker.CredentialTTL.Std(),
		AutoReconnect:  true,
		TLSConfig:      tlsConfig,
		Logger:         logger,
	})
	sequencer := binding.NewSequencer(client, binding.Config{
		MaxRetries:     cfg.Binding.MaxRetries,
		NoRetry:        cfg.Binding.NoRetry,
		WaitInterval:   cfg.Binding.WaitInterval.Std(),
		LinkUp:         app.radio.LinkUp,
		Logger:         logger,
		ProtocolLogger: protocolLogger,
	})

	deps := provisioning.Deps{
		Store:       store,
		Radio:       app.radio,
		NewListener: listenerFactory(cfg, store, app.ring, logger, protocolLogger),
		Binder:      sequencer,
		Indicator:   light.NewBreather(light.NewLogOutput(logger), light.DefaultBreathPeriod, logger),
	}
	if cfg.Discovery.Enabled {
		deps.Advertiser = discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
			Interface: cfg.Discovery.Interface,
			TTL:       discovery.DefaultTTL,
		})
	}

	orch, err := provisioning.New(orchestratorConfig(cfg, logger, protocolLogger), deps)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.orchestrator = orch
	return app, nil
}

func orchestratorConfig(cfg *config.Config, logger *slog.Logger, events provlog.Logger) provisioning.Config {
	pc := provisioning.DefaultConfig()
	switch cfg.Method {
	case config.MethodSmartConfig:
		pc.Method = provisioning.SmartConfig{}
	default:
		pc.Method = provisioning.SoftAPUDP{SSID: cfg.SoftAP.SSID, Password: cfg.SoftAP.Password}
	}
	if d := cfg.Listener.SessionTimeout.Std(); d > 0 {
		pc.SessionTimeout = d
	}
	if cfg.Provisioning.AddressPollAttempts > 0 {
		pc.AddressPollAttempts = cfg.Provisioning.AddressPollAttempts
	}
	if d := cfg.Provisioning.AddressPollInterval.Std(); d > 0 {
		pc.AddressPollInterval = d
	}
	pc.ListenerPort = listenerPort(cfg.Listener.Address)
	pc.Logger = logger
	pc.ProtocolLogger = events
	return pc
}

func listenerFactory(cfg *config.Config, store credstore.Store, ring *provlog.RingLogger, logger *slog.Logger, events provlog.Logger) provisioning.ListenerFactory {
	return func(budget time.Duration) provisioning.ControlListener {
		return listener.New(listener.Config{
			Address:              cfg.Listener.Address,
			ProductID:            cfg.Identity.ProductID,
			DeviceName:           cfg.Identity.DeviceName,
			SliceTimeout:         cfg.Listener.SliceTimeout.Std(),
			SessionTimeout:       budget,
			MaxConsecutiveErrors: cfg.Listener.MaxConsecutiveErrors,
			ErrorLog:             ring,
			Logger:               logger,
			ProtocolLogger:       events,
		}, store)
	}
}

// openStore opens the configured credential store. The returned closer is
// nil for backends without resources.
func openStore(s config.Store) (credstore.Store, io.Closer, error) {
	switch s.Backend {
	case config.StoreMemory:
		return credstore.NewMemoryStore(), nil, nil
	case config.StoreSQLite:
		st, err := credstore.OpenSQLiteStore(s.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return st, st, nil
	case config.StoreFile, "":
		st, err := credstore.NewFileStore(s.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return st, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrInvalidStore, s.Backend)
	}
}

// brokerTLS builds the TLS configuration for the broker connection.
func brokerTLS(b config.Broker) (*tls.Config, error) {
	tc := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: b.InsecureSkipVerify, //nolint:gosec // opt-in for test brokers
	}
	if b.CAFile == "" {
		return tc, nil
	}

	pem, err := os.ReadFile(b.CAFile)
	if err != nil {
		return nil, fmt.Errorf("read broker CA: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("broker CA %s: no certificates found", b.CAFile)
	}
	tc.RootCAs = pool
	return tc, nil
}

// listenerPort extracts the UDP port from a listen address.
func listenerPort(address string) uint16 {
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return listener.DefaultPort
	}
	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil || n == 0 {
		return listener.DefaultPort
	}
	return uint16(n)
}
