package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Decode parses one app-to-device datagram.
//
// The result is either a Command (TokenOnly, CredentialsAndToken or
// LogQuery) or a *DecodeError. Trailing "\r\n" and surrounding whitespace
// are ignored.
func Decode(payload []byte) (Command, error) {
	fields, cmd, err := decodeEnvelope(payload)
	if err != nil {
		return nil, err
	}

	switch cmd {
	case CmdTokenOnly:
		token, err := requireString(fields, "token")
		if err != nil {
			return nil, err
		}
		return TokenOnly{Token: boundToken(token)}, nil

	case CmdSSIDPasswordToken:
		ssid, err := requireString(fields, "ssid")
		if err != nil {
			return nil, err
		}
		password, err := requireString(fields, "password")
		if err != nil {
			return nil, err
		}
		token, err := requireString(fields, "token")
		if err != nil {
			return nil, err
		}
		return CredentialsAndToken{SSID: ssid, Password: password, Token: boundToken(token)}, nil

	case CmdLogQuery:
		return LogQuery{}, nil

	default:
		return nil, &DecodeError{Kind: KindUnknownCommand, Value: int64(cmd)}
	}
}

// decodeEnvelope returns the object fields and the numeric cmdType.
func decodeEnvelope(payload []byte) (map[string]json.RawMessage, CmdType, error) {
	text := bytes.TrimSpace(payload)
	if len(text) == 0 {
		return nil, 0, malformed(errors.New("empty payload"))
	}
	if !utf8.Valid(text) {
		return nil, 0, malformed(errors.New("payload is not valid UTF-8"))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(text, &fields); err != nil {
		return nil, 0, malformed(err)
	}
	if fields == nil {
		return nil, 0, malformed(errors.New("payload is not a JSON object"))
	}

	raw, ok := fields["cmdType"]
	if !ok {
		return nil, 0, malformed(errors.New("cmdType absent"))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, 0, malformed(err)
	}
	num, ok := v.(json.Number)
	if !ok {
		return nil, 0, malformed(fmt.Errorf("cmdType is not numeric: %s", raw))
	}
	n, err := num.Int64()
	if err != nil {
		return nil, 0, malformed(fmt.Errorf("cmdType is not an integer: %s", num))
	}

	return fields, CmdType(n), nil
}

// requireString returns a non-empty string field or a MissingField error.
func requireString(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", missingField(name)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || s == "" {
		return "", missingField(name)
	}
	return s, nil
}

// boundToken truncates a token to MaxTokenLength bytes.
func boundToken(token string) string {
	if len(token) > MaxTokenLength {
		return token[:MaxTokenLength]
	}
	return token
}

// commandEnvelope is the JSON shape of app-to-device commands.
type commandEnvelope struct {
	CmdType  CmdType `json:"cmdType"`
	SSID     string  `json:"ssid,omitempty"`
	Password string  `json:"password,omitempty"`
	Token    string  `json:"token,omitempty"`
}

// EncodeCommand encodes a command the way a companion app sends it.
func EncodeCommand(cmd Command) ([]byte, error) {
	env := commandEnvelope{}
	switch c := cmd.(type) {
	case TokenOnly:
		env.CmdType = CmdTokenOnly
		env.Token = c.Token
	case CredentialsAndToken:
		env.CmdType = CmdSSIDPasswordToken
		env.SSID = c.SSID
		env.Password = c.Password
		env.Token = c.Token
	case LogQuery:
		env.CmdType = CmdLogQuery
	default:
		return nil, fmt.Errorf("wire: cannot encode command %T", cmd)
	}
	return terminate(json.Marshal(env))
}

// EncodeDeviceReply encodes the device identity acknowledgment.
// CmdType is always set to CmdDeviceReply.
func EncodeDeviceReply(reply DeviceReply) ([]byte, error) {
	reply.CmdType = CmdDeviceReply
	return terminate(json.Marshal(reply))
}

// DecodeDeviceReply parses a device reply datagram on the app side.
func DecodeDeviceReply(payload []byte) (*DeviceReply, error) {
	_, cmd, err := decodeEnvelope(payload)
	if err != nil {
		return nil, err
	}
	if cmd != CmdDeviceReply {
		return nil, &DecodeError{Kind: KindUnknownCommand, Value: int64(cmd)}
	}

	var reply DeviceReply
	if err := json.Unmarshal(bytes.TrimSpace(payload), &reply); err != nil {
		return nil, malformed(err)
	}
	if reply.ProductID == "" {
		return nil, missingField("productId")
	}
	if reply.DeviceName == "" {
		return nil, missingField("deviceName")
	}
	return &reply, nil
}

func terminate(data []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	return append(data, Terminator...), nil
}
