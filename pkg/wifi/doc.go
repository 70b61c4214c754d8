// Package wifi switches a Linux wireless interface between soft-AP and
// station mode using hostapd and wpa_supplicant.
//
// Soft-AP mode writes a hostapd configuration and starts hostapd in the
// background. Station mode writes a wpa_supplicant network block with a
// precomputed PSK and asks the running supplicant to reload it. All
// external commands go through a Runner so tests can script them.
package wifi
