// SPDX-License-Identifier: GPL-3.0-or-later

package udpengine

import (
	"net/netip"
	"time"
)

// UnsupportedEngine is the [Engine] for platforms without native
// sockets (e.g., js/wasm). Initialize and Deinitialize succeed, so that
// a library can be acquired, while every socket operation fails
// with [ErrUnsupported].
type UnsupportedEngine struct{}

var _ Engine = UnsupportedEngine{}

// Initialize implements [Engine].
func (UnsupportedEngine) Initialize() error { return nil }

// Deinitialize implements [Engine].
func (UnsupportedEngine) Deinitialize() error { return nil }

// Create implements [Engine].
func (UnsupportedEngine) Create(Family, int, int) (Handle, error) {
	return InvalidHandle, ErrUnsupported
}

// Bind implements [Engine].
func (UnsupportedEngine) Bind(Handle, netip.AddrPort) error {
	return ErrUnsupported
}

// Connect implements [Engine].
func (UnsupportedEngine) Connect(Handle, netip.AddrPort) error {
	return ErrUnsupported
}

// Poll implements [Engine].
func (UnsupportedEngine) Poll(Handle, time.Duration) (bool, error) {
	return false, ErrUnsupported
}

// Send implements [Engine].
func (UnsupportedEngine) Send(Handle, netip.AddrPort, []byte) (int, error) {
	return 0, ErrUnsupported
}

// Receive implements [Engine].
func (UnsupportedEngine) Receive(Handle, []byte) (int, netip.AddrPort, error) {
	return 0, netip.AddrPort{}, ErrUnsupported
}

// LocalAddr implements [Engine].
func (UnsupportedEngine) LocalAddr(Handle) (netip.AddrPort, error) {
	return netip.AddrPort{}, ErrUnsupported
}

// Destroy implements [Engine].
func (UnsupportedEngine) Destroy(Handle) error {
	return ErrUnsupported
}
