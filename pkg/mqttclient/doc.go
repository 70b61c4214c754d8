// Package mqttclient implements binding.Client over MQTT using the Eclipse
// Paho client.
//
// Paho delivers acks, messages and connection changes on its own
// goroutines. The session queues them and runs the binding callbacks only
// from inside Session.Yield, on the caller's goroutine.
//
// Credentials follow the IoT Explorer device scheme:
//
//	client id  {productId}{deviceName}
//	username   {clientId};{sdkAppId};{connId};{expiry}
//	password   hex(HMAC-SHA256(base64decode(deviceSecret), username));hmacsha256
package mqttclient
