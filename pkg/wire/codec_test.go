package wire

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_TokenOnly(t *testing.T) {
	cmd, err := Decode([]byte(`{"cmdType":1,"token":"abc123"}`))
	require.NoError(t, err)
	assert.Equal(t, TokenOnly{Token: "abc123"}, cmd)
	assert.Equal(t, CmdTokenOnly, cmd.Type())
}

func TestDecode_CredentialsAndToken(t *testing.T) {
	cmd, err := Decode([]byte("{\"cmdType\":2,\"ssid\":\"MyNet\",\"password\":\"Secret1\",\"token\":\"tok01\"}\r\n"))
	require.NoError(t, err)
	assert.Equal(t, CredentialsAndToken{SSID: "MyNet", Password: "Secret1", Token: "tok01"}, cmd)
}

func TestDecode_LogQuery(t *testing.T) {
	cmd, err := Decode([]byte(`{"cmdType":4}`))
	require.NoError(t, err)
	assert.Equal(t, LogQuery{}, cmd)
}

func TestDecode_MalformedEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"Empty", ""},
		{"Whitespace", " \r\n"},
		{"NotJSON", "hello"},
		{"Truncated", `{"cmdType":2,"ssid":"My`},
		{"Array", `[1,2,3]`},
		{"Null", `null`},
		{"Number", `42`},
		{"MissingCmdType", `{"token":"abc"}`},
		{"StringCmdType", `{"cmdType":"1","token":"abc"}`},
		{"BoolCmdType", `{"cmdType":true}`},
		{"NullCmdType", `{"cmdType":null}`},
		{"FractionalCmdType", `{"cmdType":1.5,"token":"abc"}`},
		{"InvalidUTF8", "{\"cmdType\":1,\"token\":\"\xff\xfe\"}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Decode([]byte(tt.payload))
			assert.Nil(t, cmd)
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
			assert.NotErrorIs(t, err, ErrMissingField)
			assert.NotErrorIs(t, err, ErrUnknownCommand)
		})
	}
}

func TestDecode_MissingField(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"TokenOnlyNoToken", `{"cmdType":1}`, "token"},
		{"TokenOnlyEmptyToken", `{"cmdType":1,"token":""}`, "token"},
		{"TokenOnlyNumericToken", `{"cmdType":1,"token":123}`, "token"},
		{"NoSSID", `{"cmdType":2,"password":"p","token":"t"}`, "ssid"},
		{"NoPassword", `{"cmdType":2,"ssid":"s","token":"t"}`, "password"},
		{"NoToken", `{"cmdType":2,"ssid":"s","password":"p"}`, "token"},
		{"EmptySSID", `{"cmdType":2,"ssid":"","password":"p","token":"t"}`, "ssid"},
		{"AllMissingReportsFirst", `{"cmdType":2}`, "ssid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Decode([]byte(tt.payload))
			assert.Nil(t, cmd)
			require.ErrorIs(t, err, ErrMissingField)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Equal(t, KindMissingField, decErr.Kind)
			assert.Equal(t, tt.field, decErr.Field)
		})
	}
}

func TestDecode_UnknownCommand(t *testing.T) {
	for _, payload := range []string{`{"cmdType":0}`, `{"cmdType":3}`, `{"cmdType":99}`, `{"cmdType":-1}`} {
		t.Run(payload, func(t *testing.T) {
			cmd, err := Decode([]byte(payload))
			assert.Nil(t, cmd)
			require.ErrorIs(t, err, ErrUnknownCommand)

			var decErr *DecodeError
			require.True(t, errors.As(err, &decErr))
			assert.Contains(t, err.Error(), "unknown command")
		})
	}
}

func TestDecode_TokenBound(t *testing.T) {
	long := strings.Repeat("x", MaxTokenLength) + "overflow"

	cmd, err := Decode([]byte(`{"cmdType":1,"token":"` + long + `"}`))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("x", MaxTokenLength), cmd.(TokenOnly).Token)

	cmd, err = Decode([]byte(`{"cmdType":2,"ssid":"` + long + `","password":"` + long + `","token":"` + long + `"}`))
	require.NoError(t, err)
	creds := cmd.(CredentialsAndToken)
	assert.Equal(t, long, creds.SSID, "ssid is not bounded")
	assert.Equal(t, long, creds.Password, "password is not bounded")
	assert.Len(t, creds.Token, MaxTokenLength)
}

func TestDecode_CredentialsRoundTrip(t *testing.T) {
	tests := []CredentialsAndToken{
		{SSID: "MyNet", Password: "Secret1", Token: "tok01"},
		{SSID: "café wifi", Password: `p"a\ss`, Token: strings.Repeat("t", MaxTokenLength)},
		{SSID: strings.Repeat("s", 32), Password: strings.Repeat("p", 32), Token: "a"},
	}

	for _, want := range tests {
		data, err := EncodeCommand(want)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(string(data), Terminator))

		got, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecode_NeverPanicsOnPrefixes(t *testing.T) {
	full := `{"cmdType":2,"ssid":"MyNet","password":"Secret1","token":"tok01"}`
	for i := 0; i <= len(full); i++ {
		assert.NotPanics(t, func() {
			cmd, err := Decode([]byte(full[:i]))
			assert.True(t, (cmd == nil) != (err == nil), "prefix %d: exactly one of cmd/err must be set", i)
		})
	}
}

func TestEncodeDeviceReply(t *testing.T) {
	data, err := EncodeDeviceReply(DeviceReply{ProductID: "PID1", DeviceName: "lamp01", ProtoVersion: "2.0"})
	require.NoError(t, err)
	assert.Equal(t, `{"cmdType":3,"productId":"PID1","deviceName":"lamp01","protoVersion":"2.0"}`+Terminator, string(data))

	reply, err := DecodeDeviceReply(data)
	require.NoError(t, err)
	assert.Equal(t, CmdDeviceReply, reply.CmdType)
	assert.Equal(t, "lamp01", reply.DeviceName)
}

func TestDecodeDeviceReply_Errors(t *testing.T) {
	_, err := DecodeDeviceReply([]byte(`{"cmdType":1,"token":"x"}`))
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = DecodeDeviceReply([]byte(`{"cmdType":3,"deviceName":"d"}`))
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = DecodeDeviceReply([]byte(`garbage`))
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestCredentialsAndToken_StringMasksPassword(t *testing.T) {
	s := CredentialsAndToken{SSID: "n", Password: "secret", Token: "t"}.String()
	assert.NotContains(t, s, "secret")
	assert.Contains(t, s, "******")
}

func TestCmdType_String(t *testing.T) {
	assert.Equal(t, "TOKEN_ONLY", CmdTokenOnly.String())
	assert.Equal(t, "SSID_PW_TOKEN", CmdSSIDPasswordToken.String())
	assert.Equal(t, "DEVICE_REPLY", CmdDeviceReply.String())
	assert.Equal(t, "LOG_QUERY", CmdLogQuery.String())
	assert.Equal(t, "CMD(42)", CmdType(42).String())
}
