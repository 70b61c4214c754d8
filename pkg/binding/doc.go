// Package binding binds a device to a cloud user account over a messaging
// session.
//
// The Sequencer connects with the device identity, subscribes to the
// device's down topic, publishes the app_bind_token request on the up topic
// and waits for the cloud's reply code. Every wait is a bounded number of
// Session.Yield cycles; session events and inbound messages are delivered
// synchronously from inside Yield.
//
// Topics:
//
//	$thing/up/service/{productId}/{deviceName}     device -> cloud
//	$thing/down/service/{productId}/{deviceName}   cloud -> device
package binding
