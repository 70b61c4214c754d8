// Package wire defines the JSON control-channel format used between a
// companion app and an unprovisioned device on the soft-AP network.
//
// Each UDP datagram carries exactly one JSON object terminated by "\r\n".
// The object always has an integer "cmdType" field selecting the message:
//
//	1  TOKEN_ONLY      app -> device  {"cmdType":1,"token":"..."}
//	2  SSID_PW_TOKEN   app -> device  {"cmdType":2,"ssid":"...","password":"...","token":"..."}
//	3  DEVICE_REPLY    device -> app  {"cmdType":3,"productId":"...","deviceName":"...","protoVersion":"2.0"}
//	4  LOG_QUERY       app -> device  {"cmdType":4}
//
// # Decoding
//
// [Decode] is total: every payload yields either a [Command] or a
// [*DecodeError]. It never panics on truncated or garbage input. Binding
// tokens are bounded to [MaxTokenLength] bytes; longer tokens are silently
// truncated so a hostile app cannot grow device buffers.
//
// # Errors
//
// Decode errors match the sentinels [ErrMalformedEnvelope],
// [ErrMissingField] and [ErrUnknownCommand] with errors.Is.
package wire
