package wifi

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Radio errors.
var (
	ErrSmartConfigUnsupported = errors.New("wifi: smartconfig not supported on this radio")
	ErrSoftAPNotRunning       = errors.New("wifi: soft-AP not running")
)

// Runner executes external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args and returns its combined output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(out))
	}
	return out, nil
}

// Config configures a Radio.
type Config struct {
	// Interface is the wireless interface (default "wlan0").
	Interface string

	// RuntimeDir holds generated configuration and pid files
	// (default "/run/devprov"). wpa_supplicant must be started with
	// -c RuntimeDir/wpa_supplicant.conf.
	RuntimeDir string

	// Channel for the soft-AP (default 6).
	Channel int

	// Runner executes hostapd and wpa_cli (default ExecRunner).
	Runner Runner

	// Addrs lists the interface addresses (default from net.InterfaceByName).
	Addrs func(iface string) ([]net.Addr, error)

	// Logger for operational logging (optional).
	Logger *slog.Logger
}

// Radio controls a wireless interface.
type Radio struct {
	config Config

	mu     sync.Mutex
	apUp   bool
	joined string
}

// NewRadio creates a Radio.
func NewRadio(config Config) *Radio {
	if config.Interface == "" {
		config.Interface = "wlan0"
	}
	if config.RuntimeDir == "" {
		config.RuntimeDir = "/run/devprov"
	}
	if config.Channel == 0 {
		config.Channel = 6
	}
	if config.Runner == nil {
		config.Runner = ExecRunner{}
	}
	if config.Addrs == nil {
		config.Addrs = interfaceAddrs
	}
	return &Radio{config: config}
}

func (r *Radio) hostapdConf() string { return filepath.Join(r.config.RuntimeDir, "hostapd.conf") }
func (r *Radio) hostapdPID() string  { return filepath.Join(r.config.RuntimeDir, "hostapd.pid") }
func (r *Radio) supplicantConf() string {
	return filepath.Join(r.config.RuntimeDir, "wpa_supplicant.conf")
}

// StartSoftAP brings up an access point. An empty password opens the network.
func (r *Radio) StartSoftAP(ctx context.Context, ssid, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conf, err := hostapdConfig(r.config.Interface, ssid, password, r.config.Channel)
	if err != nil {
		return err
	}
	if err := writeFile(r.hostapdConf(), conf); err != nil {
		return err
	}
	if _, err := r.config.Runner.Run(ctx, "hostapd", "-B", "-P", r.hostapdPID(), r.hostapdConf()); err != nil {
		return fmt.Errorf("wifi: start soft-AP: %w", err)
	}
	r.apUp = true
	r.debugLog("wifi: soft-AP started", "ssid", ssid, "iface", r.config.Interface)
	return nil
}

// StopSoftAP stops the access point started by StartSoftAP.
func (r *Radio) StopSoftAP(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.apUp {
		return ErrSoftAPNotRunning
	}
	data, err := os.ReadFile(r.hostapdPID())
	if err != nil {
		return fmt.Errorf("wifi: stop soft-AP: %w", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("wifi: stop soft-AP: bad pid file: %w", err)
	}
	if _, err := r.config.Runner.Run(ctx, "kill", strconv.Itoa(pid)); err != nil {
		return fmt.Errorf("wifi: stop soft-AP: %w", err)
	}
	r.apUp = false
	r.debugLog("wifi: soft-AP stopped")
	return nil
}

// Connect joins ssid in station mode. It returns once the supplicant has
// accepted the network; use HasAddress to wait for an address.
func (r *Radio) Connect(ctx context.Context, ssid, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conf, err := supplicantConfig(ssid, password)
	if err != nil {
		return err
	}
	if err := writeFile(r.supplicantConf(), conf); err != nil {
		return err
	}
	if _, err := r.config.Runner.Run(ctx, "wpa_cli", "-i", r.config.Interface, "reconfigure"); err != nil {
		return fmt.Errorf("wifi: join %q: %w", ssid, err)
	}
	r.joined = ssid
	r.debugLog("wifi: joining network", "ssid", ssid, "iface", r.config.Interface)
	return nil
}

// HasAddress reports whether the interface has a routable IPv4 address.
func (r *Radio) HasAddress(context.Context) (bool, error) {
	addrs, err := r.config.Addrs(r.config.Interface)
	if err != nil {
		return false, err
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip := ipNet.IP.To4(); ip != nil && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() {
			return true, nil
		}
	}
	return false, nil
}

// LinkUp reports whether station mode is configured and has an address.
func (r *Radio) LinkUp() bool {
	r.mu.Lock()
	joined := r.joined != ""
	r.mu.Unlock()
	if !joined {
		return false
	}
	ok, err := r.HasAddress(context.Background())
	return err == nil && ok
}

// SmartConfig is not available on hostapd/wpa_supplicant radios.
func (r *Radio) SmartConfig(context.Context) (string, string, error) {
	return "", "", ErrSmartConfigUnsupported
}

func (r *Radio) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}

func hostapdConfig(iface, ssid, password string, channel int) (string, error) {
	if len(ssid) == 0 || len(ssid) > MaxSSIDLength {
		return "", ErrInvalidSSID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "interface=%s\n", iface)
	b.WriteString("driver=nl80211\n")
	fmt.Fprintf(&b, "ssid=%s\n", ssid)
	b.WriteString("hw_mode=g\n")
	fmt.Fprintf(&b, "channel=%d\n", channel)
	if password != "" {
		psk, err := DerivePSK(ssid, password)
		if err != nil {
			return "", err
		}
		b.WriteString("wpa=2\n")
		b.WriteString("wpa_key_mgmt=WPA-PSK\n")
		b.WriteString("rsn_pairwise=CCMP\n")
		fmt.Fprintf(&b, "wpa_psk=%s\n", psk)
	}
	return b.String(), nil
}

func supplicantConfig(ssid, password string) (string, error) {
	if len(ssid) == 0 || len(ssid) > MaxSSIDLength {
		return "", ErrInvalidSSID
	}
	var b strings.Builder
	b.WriteString("ctrl_interface=/run/wpa_supplicant\n")
	b.WriteString("update_config=0\n\n")
	b.WriteString("network={\n")
	fmt.Fprintf(&b, "\tssid=%s\n", hex.EncodeToString([]byte(ssid)))
	if password == "" {
		b.WriteString("\tkey_mgmt=NONE\n")
	} else {
		psk, err := DerivePSK(ssid, password)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\tpsk=%s\n", psk)
	}
	b.WriteString("}\n")
	return b.String(), nil
}

func writeFile(path, contents string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(contents), 0600)
}

func interfaceAddrs(name string) ([]net.Addr, error) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return iface.Addrs()
}
