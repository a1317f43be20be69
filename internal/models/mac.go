package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"strings"
)

// MAC is a 48-bit hardware address. It is comparable so it can key maps.
type MAC [6]byte

// ParseMAC parses a colon, dash or dot separated 48-bit hardware address.
func ParseMAC(s string) (MAC, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil {
		return MAC{}, err
	}
	m, ok := FromHardwareAddr(hw)
	if !ok {
		return MAC{}, fmt.Errorf("address %q is not 48 bits", s)
	}
	return m, nil
}

// FromHardwareAddr converts a net.HardwareAddr, reporting false for non-EUI-48 addresses.
func FromHardwareAddr(hw net.HardwareAddr) (MAC, bool) {
	var m MAC
	if len(hw) != len(m) {
		return m, false
	}
	copy(m[:], hw)
	return m, true
}

// String renders the address as upper-case colon separated hex.
func (m MAC) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Compare orders addresses bytewise.
func (m MAC) Compare(o MAC) int {
	return bytes.Compare(m[:], o[:])
}

// IsZero reports whether the address is all zeroes.
func (m MAC) IsZero() bool {
	return m == MAC{}
}

// IsBroadcast reports whether the address is ff:ff:ff:ff:ff:ff.
func (m MAC) IsBroadcast() bool {
	return m == MAC{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
}

// Uint64 packs the address into the low 48 bits of a uint64.
func (m MAC) Uint64() uint64 {
	var buf [8]byte
	copy(buf[2:], m[:])
	return binary.BigEndian.Uint64(buf[:])
}
