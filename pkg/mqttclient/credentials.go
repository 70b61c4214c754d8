package mqttclient

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mash-protocol/devprov/pkg/binding"
)

// DefaultSDKAppID is the application id embedded in the username.
const DefaultSDKAppID = "12010126"

// ErrInvalidSecret is returned when the device secret is not valid base64.
var ErrInvalidSecret = errors.New("mqttclient: device secret is not base64")

// Credentials are the MQTT CONNECT credentials for a device.
type Credentials struct {
	ClientID string
	Username string
	Password string
}

// NewCredentials derives the credentials for identity. connID is a short
// per-connection nonce; expiry is when the signature stops being accepted.
func NewCredentials(identity binding.DeviceIdentity, sdkAppID, connID string, expiry time.Time) (Credentials, error) {
	key, err := base64.StdEncoding.DecodeString(identity.DeviceSecret)
	if err != nil {
		return Credentials{}, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	clientID := identity.ProductID + identity.DeviceName
	username := fmt.Sprintf("%s;%s;%s;%d", clientID, sdkAppID, connID, expiry.Unix())

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(username))

	return Credentials{
		ClientID: clientID,
		Username: username,
		Password: hex.EncodeToString(mac.Sum(nil)) + ";hmacsha256",
	}, nil
}

// newConnID returns a 5 character connection nonce.
func newConnID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:5]
}
