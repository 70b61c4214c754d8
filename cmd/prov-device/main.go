// Command prov-device runs device provisioning and cloud binding.
//
// On start it seeds the device identity into the credential store, then
// runs the provisioning orchestrator: with no stored network it opens a
// soft-AP and waits for the companion app on the local
// control port, joins the received network and binds the device to the
// cloud account with the received token. Failed attempts are restarted
// with exponential backoff; once the attempts are used up the device
// joins the pre-configured fallback network, if any.
//
// Usage:
//
//	prov-device [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-method string        Provisioning method: softap (smartconfig is rejected by the bundled radio)
//	-store string         Credential store backend: file, sqlite, memory
//	-store-path string    Credential store path
//	-broker string        MQTT broker URL ({productId} is substituted)
//	-max-attempts int     Provisioning attempts before falling back
//	-protocol-log string  File path for protocol event logging (CBOR format)
//	-log-level string     Log level: debug, info, warn, error
//	-check                Print the stored provisioning state and exit
//
// Examples:
//
//	# Provision with the settings from a config file
//	prov-device -config /etc/devprov/device.yaml
//
//	# Debug a binding problem against a local broker
//	prov-device -config device.yaml -broker tcp://127.0.0.1:1883 -log-level debug -protocol-log /tmp/device.plog
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mash-protocol/devprov/pkg/config"
	"github.com/mash-protocol/devprov/pkg/credstore"
	"github.com/mash-protocol/devprov/pkg/provisioning"
	"github.com/mash-protocol/devprov/pkg/retry"
)

// Flags override values from the configuration file when set.
type Flags struct {
	ConfigFile  string
	Method      string
	Store       string
	StorePath   string
	Broker      string
	MaxAttempts int
	ProtocolLog string
	LogLevel    string
	Check       bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.Method, "method", "", "Provisioning method: softap (smartconfig is rejected by the bundled radio)")
	flag.StringVar(&flags.Store, "store", "", "Credential store backend: file, sqlite, memory")
	flag.StringVar(&flags.StorePath, "store-path", "", "Credential store path")
	flag.StringVar(&flags.Broker, "broker", "", "MQTT broker URL ({productId} is substituted)")
	flag.IntVar(&flags.MaxAttempts, "max-attempts", 0, "Provisioning attempts before falling back")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "File path for protocol event logging (CBOR format)")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&flags.Check, "check", false, "Print the stored provisioning state and exit")
}

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	flag.Parse()
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	cfg, err := loadConfig(flags)
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return 1
	}

	logger := newLogger(os.Stderr, cfg.Logging.Level)

	log.Println("Device Provisioning")
	log.Println("===================")
	log.Printf("Product:     %s", cfg.Identity.ProductID)
	log.Printf("Device:      %s", cfg.Identity.DeviceName)
	log.Printf("Method:      %s", cfg.Method)
	log.Printf("Store:       %s %s", cfg.Store.Backend, cfg.Store.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(cfg, logger)
	if err != nil {
		log.Printf("Startup failed: %v", err)
		return 1
	}
	defer app.Close()

	if flags.Check {
		state, rec, err := app.orchestrator.Check(ctx)
		if err != nil {
			log.Printf("Check failed: %v", err)
			return 1
		}
		log.Printf("Next state: %s (%s)", state, rec)
		return 0
	}

	app.orchestrator.OnStateChange(func(old, new provisioning.State) {
		log.Printf("[STATE] %s -> %s", old, new)
	})

	runner := retry.NewRunner(retry.Config{
		MaxAttempts: cfg.Provisioning.MaxAttempts,
		Logger:      logger,
	})
	runner.OnRetry(func(attempt int, delay time.Duration, err error) {
		log.Printf("Attempt %d failed: %v (retrying in %s)", attempt, err, delay.Round(time.Second))
	})

	err = runner.Do(ctx, func(ctx context.Context, attempt int) error {
		log.Printf("Provisioning attempt %d/%d", attempt, cfg.Provisioning.MaxAttempts)
		report, err := app.orchestrator.Run(ctx)
		if err != nil {
			if errors.Is(err, credstore.ErrIdentityMissing) || errors.Is(err, provisioning.ErrAlreadyRunning) {
				return retry.Permanent(err)
			}
			return err
		}
		printReport(report)
		return nil
	})

	switch {
	case err == nil:
		log.Println("Device is provisioned and bound")
		return 0
	case ctx.Err() != nil:
		log.Println("Interrupted")
		return 0
	}

	log.Printf("Provisioning failed: %v", err)
	if errs := app.ring.LogEntries(); len(errs) > 0 {
		log.Printf("Last %d errors:", len(errs))
		for _, e := range errs {
			log.Printf("  [%s] %s", e.Layer, e.Message)
		}
	}
	if !cfg.HasFallback() || retry.IsPermanent(err) {
		return 1
	}
	if err := joinFallback(ctx, app.orchestrator, cfg.Fallback); err != nil {
		log.Printf("Fallback network failed: %v", err)
		return 1
	}
	log.Printf("Joined fallback network %q", cfg.Fallback.SSID)
	return 0
}

// loadConfig reads the configuration file (if any) and applies flag overrides.
func loadConfig(f Flags) (*config.Config, error) {
	cfg := config.Default()
	if f.ConfigFile != "" {
		loaded, err := config.Load(f.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if f.Method != "" {
		cfg.Method = f.Method
	}
	if f.Store != "" {
		cfg.Store.Backend = f.Store
	}
	if f.StorePath != "" {
		cfg.Store.Path = f.StorePath
	}
	if f.Broker != "" {
		cfg.Broker.URL = f.Broker
	}
	if f.MaxAttempts > 0 {
		cfg.Provisioning.MaxAttempts = f.MaxAttempts
	}
	if f.ProtocolLog != "" {
		cfg.Logging.ProtocolLog = f.ProtocolLog
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fallbackJoiner joins a network with the orchestrator's address polling.
type fallbackJoiner interface {
	JoinNetwork(ctx context.Context, ssid, password string) error
}

func joinFallback(ctx context.Context, j fallbackJoiner, n config.Network) error {
	log.Printf("Joining fallback network %q", n.SSID)
	return j.JoinNetwork(ctx, n.SSID, n.Password)
}

func printReport(r provisioning.Report) {
	log.Println("")
	log.Println("============================================")
	log.Println("           PROVISIONING REPORT              ")
	log.Println("============================================")
	log.Printf("  Session: %s", r.SessionID)
	log.Printf("  State:   %s", r.State)
	log.Printf("  Network: %s", r.Record.SSID)
	if r.AlreadyBound {
		log.Println("  Binding: already bound")
	} else if r.Binding != nil {
		log.Printf("  Binding: %s after %d attempt(s)", r.Binding, r.Binding.Attempts)
	}
	log.Println("============================================")
	log.Println("")
}

// newLogger returns a text slog.Logger at the named level.
func newLogger(w *os.File, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(level)}))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
