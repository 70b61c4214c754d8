// Package listener implements the local UDP control channel used while the
// device is unprovisioned.
//
// A Listener binds one UDP socket, waits in bounded slices for a single
// command from the companion app, persists what it receives, answers with
// the device identity and returns. One Listener serves exactly one session;
// the socket is closed when Serve returns.
package listener
