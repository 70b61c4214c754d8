// Package version provides control-channel protocol version parsing and
// compatibility checks.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the soft-AP control protocol version implemented by this module.
// It is reported to the companion app in every device reply.
const Current = "2.0"

// ProtoVersion represents a parsed "major.minor" protocol version.
type ProtoVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (ProtoVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return ProtoVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return ProtoVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return ProtoVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return ProtoVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the version as "major.minor".
func (v ProtoVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v ProtoVersion) Compatible(other ProtoVersion) bool {
	return v.Major == other.Major
}

// CompatibleWithCurrent reports whether a peer-reported version string can
// talk to this implementation. Unparsable versions are never compatible.
func CompatibleWithCurrent(peer string) bool {
	pv, err := Parse(peer)
	if err != nil {
		return false
	}
	current, _ := Parse(Current)
	return current.Compatible(pv)
}
