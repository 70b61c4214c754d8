package credstore

import (
	"errors"
	"fmt"
)

// Persisted keys.
const (
	KeySSID          = "ssid"
	KeyPassword      = "psw"
	KeyToken         = "token"
	KeyProductID     = "product_id"
	KeyDeviceName    = "device_name"
	KeyDeviceSecret  = "device_secret"
	KeyProductSecret = "product_secret"
)

// Store errors.
var (
	ErrNotFound        = errors.New("credstore: key not found")
	ErrIdentityMissing = errors.New("credstore: device identity incomplete")
	ErrClosed          = errors.New("credstore: store closed")
)

// Store is a string key/value store. Implementations must be safe for
// concurrent use and must serialize writes.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(key string) (string, error)

	// Set stores value under key. An empty value is stored as such.
	Set(key, value string) error
}

// Record holds the credentials received over the control channel.
type Record struct {
	SSID     string
	Password string
	Token    string
}

// String masks the password.
func (r Record) String() string {
	return fmt.Sprintf("Record{SSID: %q, Password: ****, Token: %q}", r.SSID, r.Token)
}

// HasNetwork reports whether the record names a WiFi network.
func (r Record) HasNetwork() bool {
	return r.SSID != ""
}

// Identity is the cloud identity of the device.
type Identity struct {
	ProductID     string
	DeviceName    string
	DeviceSecret  string
	ProductSecret string
}

// SaveRecord writes token, psw and ssid, in that order. The stored SSID
// marks the device as provisioned, so it is written last and any previously
// stored SSID is cleared first: an interrupted save leaves no network
// behind and the next boot waits for credentials again. The first failing
// write aborts and is returned.
func SaveRecord(s Store, r Record) error {
	prev, err := getOptional(s, KeySSID)
	if err != nil {
		return err
	}
	if prev != "" {
		if err := s.Set(KeySSID, ""); err != nil {
			return fmt.Errorf("credstore: save %s: %w", KeySSID, err)
		}
	}

	for _, kv := range [...][2]string{
		{KeyToken, r.Token},
		{KeyPassword, r.Password},
		{KeySSID, r.SSID},
	} {
		if err := s.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("credstore: save %s: %w", kv[0], err)
		}
	}
	return nil
}

// SaveToken writes only the token.
func SaveToken(s Store, token string) error {
	if err := s.Set(KeyToken, token); err != nil {
		return fmt.Errorf("credstore: save %s: %w", KeyToken, err)
	}
	return nil
}

// ClearToken erases the stored token after it has been consumed.
func ClearToken(s Store) error {
	return SaveToken(s, "")
}

// LoadRecord reads the stored credentials. Missing keys load as empty strings.
func LoadRecord(s Store) (Record, error) {
	var r Record
	var err error
	if r.SSID, err = getOptional(s, KeySSID); err != nil {
		return Record{}, err
	}
	if r.Password, err = getOptional(s, KeyPassword); err != nil {
		return Record{}, err
	}
	if r.Token, err = getOptional(s, KeyToken); err != nil {
		return Record{}, err
	}
	return r, nil
}

// LoadIdentity reads the device identity. ProductID, DeviceName and
// DeviceSecret are required; ProductSecret is optional.
func LoadIdentity(s Store) (Identity, error) {
	var id Identity
	var err error
	if id.ProductID, err = getOptional(s, KeyProductID); err != nil {
		return Identity{}, err
	}
	if id.DeviceName, err = getOptional(s, KeyDeviceName); err != nil {
		return Identity{}, err
	}
	if id.DeviceSecret, err = getOptional(s, KeyDeviceSecret); err != nil {
		return Identity{}, err
	}
	if id.ProductSecret, err = getOptional(s, KeyProductSecret); err != nil {
		return Identity{}, err
	}

	switch {
	case id.ProductID == "":
		return Identity{}, fmt.Errorf("%w: %s", ErrIdentityMissing, KeyProductID)
	case id.DeviceName == "":
		return Identity{}, fmt.Errorf("%w: %s", ErrIdentityMissing, KeyDeviceName)
	case id.DeviceSecret == "":
		return Identity{}, fmt.Errorf("%w: %s", ErrIdentityMissing, KeyDeviceSecret)
	}
	return id, nil
}

// SeedIdentity writes the identity keys. Used at manufacturing time and by
// prov-device when the identity comes from its configuration file.
func SeedIdentity(s Store, id Identity) error {
	for _, kv := range [...][2]string{
		{KeyProductID, id.ProductID},
		{KeyDeviceName, id.DeviceName},
		{KeyDeviceSecret, id.DeviceSecret},
		{KeyProductSecret, id.ProductSecret},
	} {
		if err := s.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("credstore: save %s: %w", kv[0], err)
		}
	}
	return nil
}

func getOptional(s Store, key string) (string, error) {
	v, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credstore: load %s: %w", key, err)
	}
	return v, nil
}
