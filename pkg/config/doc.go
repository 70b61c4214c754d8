// Package config loads the prov-device YAML configuration file.
//
// Durations are written as Go duration strings ("5m", "500ms") or bare
// integers, read as seconds. Missing fields take the defaults of the
// component they configure, so a minimal file only carries the device
// identity:
//
//	identity:
//	  product_id: ABCDEF1234
//	  device_name: lamp01
//	  device_secret: c2VjcmV0
package config
