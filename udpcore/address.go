//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// IP address and port value.
//

package udpcore

import (
	"fmt"
	"net/netip"

	"github.com/cespare/xxhash/v2"
	"github.com/rbmk-project/nanosock/netipx"
)

// Address is an immutable IP address and port.
//
// Address is a comparable value: == and [Address.Equal] agree, and
// [Address.Hash] is consistent with equality. The zero value is an
// invalid address. IPv6 zones naming an existing interface by index
// are stored using the interface name, so both spellings are equal.
type Address struct {
	ap netip.AddrPort
}

// NewAddress creates an [Address] from an IP literal and a port.
//
// Domain names are not resolved here; see [*Factory.GetConnectEndPoint].
// The returned error wraps [ErrInvalidAddress].
func NewAddress(host string, port uint16) (Address, error) {
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return AddressFromAddrPort(netip.AddrPortFrom(addr, port)), nil
}

// ParseAddress parses the [Address.String] representation of an
// [Address] (e.g., "127.0.0.1:7777" or "[::1]:7777").
//
// The returned error wraps [ErrInvalidAddress].
func ParseAddress(s string) (Address, error) {
	ap, err := netip.ParseAddrPort(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return AddressFromAddrPort(ap), nil
}

// AddressFromAddrPort creates an [Address] from a [netip.AddrPort].
func AddressFromAddrPort(ap netip.AddrPort) Address {
	addr := netipx.CanonicalZone(ap.Addr())
	return Address{netip.AddrPortFrom(addr, ap.Port())}
}

// AddrPort returns the underlying [netip.AddrPort].
func (a Address) AddrPort() netip.AddrPort {
	return a.ap
}

// IsValid returns whether the address is not the zero value.
func (a Address) IsValid() bool {
	return a.ap.IsValid()
}

// Equal returns whether the two addresses have identical host
// (including the IPv6 zone) and port.
func (a Address) Equal(other Address) bool {
	return a.ap == other.ap
}

// Hash returns a hash of the address consistent with [Address.Equal].
func (a Address) Hash() uint64 {
	// MarshalBinary never fails for AddrPort.
	data, _ := a.ap.MarshalBinary()
	return xxhash.Sum64(data)
}

// String returns the host:port representation of the address.
func (a Address) String() string {
	return a.ap.String()
}
