package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Provisioning methods.
const (
	MethodSoftAP      = "softap"
	MethodSmartConfig = "smartconfig"
)

// Validation errors.
var (
	ErrMissingIdentity = errors.New("config: identity incomplete")
	ErrInvalidMethod   = errors.New("config: unknown provisioning method")
	ErrInvalidStore    = errors.New("config: unknown store backend")
	ErrInvalidValue    = errors.New("config: invalid value")
)

// Duration is a time.Duration read from a duration string.
type Duration time.Duration

// UnmarshalYAML parses strings like "1m30s". Bare integers are seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!int" {
		var secs int64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the time.Duration value.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the prov-device configuration file.
type Config struct {
	Identity     Identity     `yaml:"identity"`
	Method       string       `yaml:"method"`
	SoftAP       SoftAP       `yaml:"softap"`
	Listener     Listener     `yaml:"listener"`
	Binding      Binding      `yaml:"binding"`
	Broker       Broker       `yaml:"broker"`
	Store        Store        `yaml:"store"`
	Logging      Logging      `yaml:"logging"`
	Fallback     Network      `yaml:"fallback"`
	Provisioning Provisioning `yaml:"provisioning"`
	Discovery    Discovery    `yaml:"discovery"`

	// RuntimeDir holds generated hostapd / wpa_supplicant files.
	RuntimeDir string `yaml:"runtime_dir"`
}

// Identity is the device identity seeded into the credential store.
type Identity struct {
	ProductID     string `yaml:"product_id"`
	DeviceName    string `yaml:"device_name"`
	DeviceSecret  string `yaml:"device_secret"`
	ProductSecret string `yaml:"product_secret"`
}

// SoftAP configures the access point opened while waiting for the app.
type SoftAP struct {
	SSID      string `yaml:"ssid"`
	Password  string `yaml:"password"`
	Interface string `yaml:"interface"`
	Channel   int    `yaml:"channel"`
}

// Listener configures the local control listener.
type Listener struct {
	Address              string   `yaml:"address"`
	SessionTimeout       Duration `yaml:"session_timeout"`
	SliceTimeout         Duration `yaml:"slice_timeout"`
	MaxConsecutiveErrors int      `yaml:"max_consecutive_errors"`
}

// Binding configures the cloud binding sequencer.
type Binding struct {
	MaxRetries   int      `yaml:"max_retries"`
	NoRetry      bool     `yaml:"no_retry"`
	WaitInterval Duration `yaml:"wait_interval"`
}

// Broker configures the MQTT connection.
type Broker struct {
	// URL overrides the broker derived from the product id.
	URL                string   `yaml:"url"`
	SDKAppID           string   `yaml:"sdk_app_id"`
	ConnectTimeout     Duration `yaml:"connect_timeout"`
	KeepAlive          Duration `yaml:"keep_alive"`
	CredentialTTL      Duration `yaml:"credential_ttl"`
	CAFile             string   `yaml:"ca_file"`
	InsecureSkipVerify bool     `yaml:"insecure_skip_verify"`
}

// Store selects the credential store backend.
type Store struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

// Logging configures operational and protocol logging.
type Logging struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// ProtocolLog is a .plog file receiving protocol events.
	ProtocolLog string `yaml:"protocol_log"`

	// ErrorLogSize bounds the error entries returned for LOG_QUERY.
	ErrorLogSize int `yaml:"error_log_size"`
}

// Network is a WiFi network.
type Network struct {
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
}

// Provisioning configures the orchestrator and its restart policy.
type Provisioning struct {
	MaxAttempts         int      `yaml:"max_attempts"`
	AddressPollAttempts int      `yaml:"address_poll_attempts"`
	AddressPollInterval Duration `yaml:"address_poll_interval"`
}

// Discovery configures the mDNS advert.
type Discovery struct {
	Enabled   bool   `yaml:"enabled"`
	Interface string `yaml:"interface"`
}

// Default returns a configuration with defaults and no identity.
func Default() *Config {
	return &Config{
		Method: MethodSoftAP,
		SoftAP: SoftAP{
			SSID:      "qcloud_setup",
			Interface: "wlan0",
			Channel:   6,
		},
		Listener: Listener{
			Address:              ":8266",
			SessionTimeout:       Duration(5 * time.Minute),
			SliceTimeout:         Duration(5 * time.Second),
			MaxConsecutiveErrors: 3,
		},
		Binding: Binding{
			MaxRetries:   2,
			WaitInterval: Duration(time.Second),
		},
		Broker: Broker{
			SDKAppID:       "12010126",
			ConnectTimeout: Duration(10 * time.Second),
			KeepAlive:      Duration(240 * time.Second),
			CredentialTTL:  Duration(24 * time.Hour),
		},
		Store: Store{
			Backend: StoreFile,
			Path:    "/var/lib/devprov/credentials.json",
		},
		Logging: Logging{
			Level:        "info",
			ErrorLogSize: 16,
		},
		Provisioning: Provisioning{
			MaxAttempts:         3,
			AddressPollAttempts: 20,
			AddressPollInterval: Duration(time.Second),
		},
		Discovery:  Discovery{Enabled: true},
		RuntimeDir: "/run/devprov",
	}
}

// Parse reads a configuration from YAML bytes on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

// Validate checks the configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	if c.Identity.ProductID == "" || c.Identity.DeviceName == "" || c.Identity.DeviceSecret == "" {
		return ErrMissingIdentity
	}

	switch c.Method {
	case MethodSoftAP:
		if len(c.SoftAP.SSID) == 0 || len(c.SoftAP.SSID) > 32 {
			return fmt.Errorf("%w: softap.ssid must be 1-32 bytes", ErrInvalidValue)
		}
		if n := len(c.SoftAP.Password); n != 0 && (n < 8 || n > 63) {
			return fmt.Errorf("%w: softap.password must be empty or 8-63 bytes", ErrInvalidValue)
		}
	case MethodSmartConfig:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMethod, c.Method)
	}

	switch c.Store.Backend {
	case StoreFile, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for %s", ErrInvalidValue, c.Store.Backend)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStore, c.Store.Backend)
	}

	if c.Provisioning.MaxAttempts < 1 {
		return fmt.Errorf("%w: provisioning.max_attempts must be >= 1", ErrInvalidValue)
	}
	if c.Listener.SessionTimeout < 0 || c.Listener.SliceTimeout < 0 {
		return fmt.Errorf("%w: negative listener timeout", ErrInvalidValue)
	}
	if c.Fallback.Password != "" && c.Fallback.SSID == "" {
		return fmt.Errorf("%w: fallback.password without fallback.ssid", ErrInvalidValue)
	}
	return nil
}

// HasFallback reports whether a pre-configured network is set.
func (c *Config) HasFallback() bool {
	return c.Fallback.SSID != ""
}

// LoadError reports a configuration file problem.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
