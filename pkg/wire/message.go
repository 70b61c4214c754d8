package wire

import (
	"fmt"
	"strings"
)

// CmdType identifies a control-channel message.
type CmdType int

// Control-channel command types. The values are a fixed protocol table.
const (
	// CmdTokenOnly carries only a binding token (SmartConfig flow).
	CmdTokenOnly CmdType = 1

	// CmdSSIDPasswordToken carries WiFi credentials plus a binding token (soft-AP flow).
	CmdSSIDPasswordToken CmdType = 2

	// CmdDeviceReply is the device identity acknowledgment sent back to the app.
	CmdDeviceReply CmdType = 3

	// CmdLogQuery asks the device for its error log and ends the session.
	CmdLogQuery CmdType = 4
)

// String returns the command name.
func (c CmdType) String() string {
	switch c {
	case CmdTokenOnly:
		return "TOKEN_ONLY"
	case CmdSSIDPasswordToken:
		return "SSID_PW_TOKEN"
	case CmdDeviceReply:
		return "DEVICE_REPLY"
	case CmdLogQuery:
		return "LOG_QUERY"
	default:
		return fmt.Sprintf("CMD(%d)", int(c))
	}
}

// Protocol limits.
const (
	// MaxTokenLength is the maximum binding token length in bytes.
	MaxTokenLength = 32

	// MaxDatagramSize is the largest control datagram the device reads.
	MaxDatagramSize = 1024

	// Terminator ends every control message.
	Terminator = "\r\n"
)

// Command is a decoded app-to-device command.
// Implementations are TokenOnly, CredentialsAndToken and LogQuery.
type Command interface {
	// Type returns the wire command type.
	Type() CmdType
}

// TokenOnly carries a binding token without WiFi credentials.
type TokenOnly struct {
	Token string
}

// Type implements Command.
func (TokenOnly) Type() CmdType { return CmdTokenOnly }

// CredentialsAndToken carries station credentials and a binding token.
type CredentialsAndToken struct {
	SSID     string
	Password string
	Token    string
}

// Type implements Command.
func (CredentialsAndToken) Type() CmdType { return CmdSSIDPasswordToken }

// String masks the password so commands can be logged.
func (c CredentialsAndToken) String() string {
	return fmt.Sprintf("{ssid:%q password:%s token:%q}", c.SSID, strings.Repeat("*", len(c.Password)), c.Token)
}

// LogQuery asks for the device error log.
type LogQuery struct{}

// Type implements Command.
func (LogQuery) Type() CmdType { return CmdLogQuery }

// DeviceReply acknowledges a command and identifies the device to the app.
type DeviceReply struct {
	CmdType      CmdType    `json:"cmdType"`
	ProductID    string     `json:"productId"`
	DeviceName   string     `json:"deviceName"`
	ProtoVersion string     `json:"protoVersion"`
	ErrorLog     []LogEntry `json:"errorLog,omitempty"`
}

// LogEntry is one error log record returned in reply to LOG_QUERY.
type LogEntry struct {
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64  `json:"ts"`
	Layer     string `json:"layer"`
	Code      int    `json:"code,omitempty"`
	Message   string `json:"msg"`
}

// Compile-time interface satisfaction checks.
var (
	_ Command = TokenOnly{}
	_ Command = CredentialsAndToken{}
	_ Command = LogQuery{}
)
