// Package discovery advertises the provisioning control listener over mDNS
// and lets companion apps find it.
//
// While the soft-AP is up the device registers one instance of
// _devprov._udp.local. whose port is the control listener's UDP port. TXT
// records carry the product id, device name and protocol version so an app
// can check compatibility before sending credentials.
package discovery
