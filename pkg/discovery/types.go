package discovery

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Service constants.
const (
	ServiceType = "_devprov._udp"
	Domain      = "local."

	// MaxInstanceNameLen is the DNS-SD instance label limit.
	MaxInstanceNameLen = 63

	// DefaultTTL is the record TTL.
	DefaultTTL = 120 * time.Second
)

// TXT record keys.
const (
	TXTKeyProductID    = "pid"
	TXTKeyDeviceName   = "dn"
	TXTKeyProtoVersion = "pv"
)

// Discovery errors.
var (
	ErrMissingRequired     = errors.New("discovery: missing required TXT field")
	ErrInstanceNameTooLong = errors.New("discovery: instance name too long")
)

// ProvisioningInfo describes an unprovisioned device.
type ProvisioningInfo struct {
	ProductID    string
	DeviceName   string
	ProtoVersion string

	// Port is the control listener UDP port.
	Port uint16
}

// InstanceName returns the DNS-SD instance name, "{productId}-{deviceName}"
// cut to MaxInstanceNameLen.
func (i *ProvisioningInfo) InstanceName() string {
	name := fmt.Sprintf("%s-%s", i.ProductID, i.DeviceName)
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// ProvisioningService is a device found by a Browser.
type ProvisioningService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	ProvisioningInfo
}

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for a ProvisioningInfo.
func EncodeTXT(info *ProvisioningInfo) TXTRecordMap {
	txt := TXTRecordMap{
		TXTKeyProductID:  info.ProductID,
		TXTKeyDeviceName: info.DeviceName,
	}
	if info.ProtoVersion != "" {
		txt[TXTKeyProtoVersion] = info.ProtoVersion
	}
	return txt
}

// DecodeTXT parses TXT records into a ProvisioningInfo. Port is not set.
func DecodeTXT(txt TXTRecordMap) (*ProvisioningInfo, error) {
	info := &ProvisioningInfo{}
	var ok bool

	if info.ProductID, ok = txt[TXTKeyProductID]; !ok || info.ProductID == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyProductID)
	}
	if info.DeviceName, ok = txt[TXTKeyDeviceName]; !ok || info.DeviceName == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyDeviceName)
	}
	info.ProtoVersion = txt[TXTKeyProtoVersion]
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}
