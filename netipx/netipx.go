// SPDX-License-Identifier: GPL-3.0-or-later

// Package netipx contains [net/netip] extensions.
package netipx

import (
	"net"
	"net/netip"
	"strconv"
)

// Unmap converts an IPv4-mapped IPv6 address (e.g., ::ffff:1.2.3.4)
// to the equivalent IPv4 address, preserving the port.
//
// Dual-stack sockets report IPv4 peers using the mapped form; we unmap
// so that the same peer compares equal regardless of the socket family.
func Unmap(ap netip.AddrPort) netip.AddrPort {
	if !ap.Addr().Is4In6() {
		return ap
	}
	return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
}

// CanonicalZone replaces a numeric IPv6 zone (e.g., fe80::1%2) with
// the name of the corresponding interface (e.g., fe80::1%eth0).
//
// The kernel reports zones as interface indexes, while users write
// interface names; using names everywhere keeps equal peers equal.
// Zones that are already names, or numeric zones not matching any
// interface, are returned unchanged.
func CanonicalZone(addr netip.Addr) netip.Addr {
	zone := addr.Zone()
	if zone == "" {
		return addr
	}
	index, err := strconv.ParseUint(zone, 10, 31)
	if err != nil {
		return addr
	}
	ifi, err := net.InterfaceByIndex(int(index))
	if err != nil {
		return addr
	}
	return addr.WithZone(ifi.Name)
}

// Canonical returns the canonical form of ap, with the address
// unmapped (see [Unmap]) and the zone named (see [CanonicalZone]).
func Canonical(ap netip.AddrPort) netip.AddrPort {
	ap = Unmap(ap)
	return netip.AddrPortFrom(CanonicalZone(ap.Addr()), ap.Port())
}

// IsLiteral returns whether host is an IP address literal
// rather than a domain name that needs resolving.
func IsLiteral(host string) bool {
	_, err := netip.ParseAddr(host)
	return err == nil
}
