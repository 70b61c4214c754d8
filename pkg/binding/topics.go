package binding

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// MethodBindToken is the method name of the bind request.
const MethodBindToken = "app_bind_token"

// UpTopic returns the device-to-cloud service topic.
func UpTopic(productID, deviceName string) string {
	return fmt.Sprintf("$thing/up/service/%s/%s", productID, deviceName)
}

// DownTopic returns the cloud-to-device service topic.
func DownTopic(productID, deviceName string) string {
	return fmt.Sprintf("$thing/down/service/%s/%s", productID, deviceName)
}

type bindRequest struct {
	Method      string          `json:"method"`
	ClientToken string          `json:"clientToken"`
	Params      bindTokenParams `json:"params"`
}

type bindTokenParams struct {
	Token string `json:"token"`
}

// BindRequestPayload builds the app_bind_token request body.
func BindRequestPayload(deviceName, token string, now time.Time) ([]byte, error) {
	return json.Marshal(bindRequest{
		Method:      MethodBindToken,
		ClientToken: deviceName + "-" + strconv.FormatInt(now.UnixMilli(), 10),
		Params:      bindTokenParams{Token: token},
	})
}

// ParseReplyCode extracts the integer "code" from a reply body. It returns
// CodeReplyFormat with ErrReplyFormat when the body is not JSON or carries
// no integer code.
func ParseReplyCode(payload []byte) (int, error) {
	var reply struct {
		Code *json.Number `json:"code"`
	}
	if err := json.Unmarshal(payload, &reply); err != nil {
		return CodeReplyFormat, fmt.Errorf("%w: %v", ErrReplyFormat, err)
	}
	if reply.Code == nil {
		return CodeReplyFormat, fmt.Errorf("%w: missing code", ErrReplyFormat)
	}
	code, err := reply.Code.Int64()
	if err != nil {
		return CodeReplyFormat, fmt.Errorf("%w: code %q", ErrReplyFormat, reply.Code.String())
	}
	return int(code), nil
}
