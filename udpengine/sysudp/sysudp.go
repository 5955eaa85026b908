//go:build unix || windows

// SPDX-License-Identifier: GPL-3.0-or-later

// Package sysudp implements [udpengine.Engine] using the BSD sockets
// API through [golang.org/x/sys/unix] and the Winsock API through
// [golang.org/x/sys/windows].
//
// Handles are file descriptors (or SOCKETs on Windows). IPv6 sockets
// are dual stack and we translate IPv4 addresses to and from the
// IPv4-mapped form, so callers always see plain IPv4 addresses for IPv4
// peers. IPv6 zones are reported using interface names.
package sysudp

import (
	"net"
	"net/netip"
	"strconv"
	"sync/atomic"

	"github.com/rbmk-project/nanosock/netipx"
	"github.com/rbmk-project/nanosock/udpengine"
)

// Engine is the native [udpengine.Engine].
//
// Construct using [New].
type Engine struct {
	// initialized tracks whether Initialize was called.
	initialized atomic.Bool
}

// New creates a new [*Engine].
func New() *Engine {
	return &Engine{}
}

var _ udpengine.Engine = &Engine{}

// zoneToIndex maps an IPv6 zone to the interface index.
func zoneToIndex(zone string) (uint32, error) {
	if index, err := strconv.ParseUint(zone, 10, 32); err == nil {
		return uint32(index), nil
	}
	ifi, err := net.InterfaceByName(zone)
	if err != nil {
		return 0, errEINVAL
	}
	return uint32(ifi.Index), nil
}

// addrPortFromIP builds the canonical [netip.AddrPort] for a peer
// reported by the kernel as an IPv6 address, zone index, and port.
func addrPortFromIP(ip [16]byte, zoneID uint32, port int) netip.AddrPort {
	addr := netip.AddrFrom16(ip)
	if zoneID != 0 && !addr.Is4In6() {
		addr = addr.WithZone(strconv.FormatUint(uint64(zoneID), 10))
	}
	return netipx.Canonical(netip.AddrPortFrom(addr, uint16(port)))
}
