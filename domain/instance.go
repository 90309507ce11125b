package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxSingleByteAddress is the highest arbitration ID the gateway binds a worker to.
const MaxSingleByteAddress uint32 = 0xFF

// Instance is one diagnosable node reported by the controller on GET /instances.
// ID is the controller's key (e.g. "0x90"), Address is the arbitration ID parsed from it.
type Instance struct {
	ID      string
	Name    string
	Address uint32
}

// InSingleByteRange reports whether the instance address fits the single-byte addressing the gateway supports.
func (i Instance) InSingleByteRange() bool {
	return i.Address <= MaxSingleByteAddress
}

// ParseAddress parses a controller instance ID of the form "0x<hex>" into an arbitration ID.
//
// Parameter id: instance ID string; the "0x" (or "0X") prefix is required, hex digits are case-insensitive.
//
// Returns: (address, nil) on success; (0, error) when the prefix is missing, there are no digits or the value overflows uint32.
//
// Called from adapters.ControllerHTTP when mapping /instances records and from handlers when parsing rx_id path params.
func ParseAddress(id string) (uint32, error) {
	s := strings.TrimSpace(id)
	if len(s) < 3 || (s[:2] != "0x" && s[:2] != "0X") {
		return 0, fmt.Errorf("address %q must be 0x-prefixed hex", id)
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("address %q: %w", id, err)
	}
	return uint32(v), nil
}

// FormatAddress renders an arbitration ID the way the controller keys its routes:
// "0x" followed by at least two lowercase, zero-padded hex digits (144 -> "0x90", 10 -> "0x0a").
func FormatAddress(addr uint32) string {
	return fmt.Sprintf("0x%02x", addr)
}
