package wifi

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

// WPA2 passphrase bounds (IEEE 802.11i).
const (
	MinPassphraseLength = 8
	MaxPassphraseLength = 63
	MaxSSIDLength       = 32
)

// PSK errors.
var (
	ErrInvalidSSID       = errors.New("wifi: ssid must be 1..32 bytes")
	ErrInvalidPassphrase = errors.New("wifi: passphrase must be 8..63 characters")
)

// DerivePSK computes the 256-bit WPA2 pre-shared key for a passphrase and
// SSID, hex encoded.
func DerivePSK(ssid, passphrase string) (string, error) {
	if len(ssid) == 0 || len(ssid) > MaxSSIDLength {
		return "", ErrInvalidSSID
	}
	if len(passphrase) < MinPassphraseLength || len(passphrase) > MaxPassphraseLength {
		return "", ErrInvalidPassphrase
	}
	key := pbkdf2.Key([]byte(passphrase), []byte(ssid), 4096, 32, sha1.New)
	return hex.EncodeToString(key), nil
}
