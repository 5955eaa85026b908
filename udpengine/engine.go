//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Engine definition.
//

package udpengine

import (
	"errors"
	"net/netip"
	"time"
)

// Handle identifies a socket owned by an [Engine].
type Handle int

// InvalidHandle is the [Handle] returned alongside errors.
const InvalidHandle Handle = -1

// Family is the address family of a socket.
type Family int

const (
	// FamilyIPv4 creates IPv4-only sockets.
	FamilyIPv4 Family = 4

	// FamilyIPv6 creates dual-stack IPv6 sockets, which also
	// carry IPv4 traffic using IPv4-mapped addresses.
	FamilyIPv6 Family = 6
)

// String returns the string representation of the family.
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "inet"
	case FamilyIPv6:
		return "inet6"
	default:
		return "unknown"
	}
}

// FamilyOf returns the [Family] to use for a socket bound or
// connected to the given address.
func FamilyOf(addr netip.Addr) Family {
	if addr.Is4() {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// DefaultBufferSize is the default size of the kernel send and
// receive buffers, sized to absorb bursts without drops.
const DefaultBufferSize = 256 * 1024

var (
	// ErrWouldBlock indicates that no datagram is available.
	ErrWouldBlock = errors.New("udpengine: operation would block")

	// ErrUnsupported indicates that the engine cannot run here.
	ErrUnsupported = errors.New("udpengine: not supported on this platform")

	// ErrNotInitialized indicates using an engine before Initialize.
	ErrNotInitialized = errors.New("udpengine: engine not initialized")

	// ErrInvalidHandle indicates an unknown or destroyed [Handle].
	ErrInvalidHandle = errors.New("udpengine: invalid handle")
)

// Engine is the native UDP engine.
//
// Engines do not need to be safe for concurrent use of the same
// [Handle], but must allow concurrent use of distinct handles. The
// Initialize and Deinitialize methods are serialized by [Library].
type Engine interface {
	// Initialize sets up the library-wide context.
	Initialize() error

	// Deinitialize tears down the library-wide context.
	Deinitialize() error

	// Create creates a non-blocking datagram socket of the given family
	// with the given send and receive buffer sizes.
	Create(family Family, sendBufferSize, receiveBufferSize int) (Handle, error)

	// Bind binds the socket to the given local address.
	Bind(h Handle, addr netip.AddrPort) error

	// Connect fixes the default peer of the socket and filters
	// incoming datagrams so that only the peer's are received.
	Connect(h Handle, addr netip.AddrPort) error

	// Poll returns whether the socket is readable within timeout. A
	// zero timeout performs a check without waiting. A socket having
	// a pending error is readable so Receive can report the error.
	Poll(h Handle, timeout time.Duration) (bool, error)

	// Send sends a datagram to addr. The zero addr means the peer
	// configured using Connect.
	Send(h Handle, addr netip.AddrPort, data []byte) (int, error)

	// Receive reads one datagram into buf and returns the number of
	// bytes read and the sender address. It returns [ErrWouldBlock]
	// when there is nothing to read.
	Receive(h Handle, buf []byte) (int, netip.AddrPort, error)

	// LocalAddr returns the address the socket is bound to.
	LocalAddr(h Handle) (netip.AddrPort, error)

	// Destroy closes the socket and invalidates the handle.
	Destroy(h Handle) error
}
