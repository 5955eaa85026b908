//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Simulated UDP socket.
//

package netsim

import (
	"net/netip"
	"sync"

	"github.com/eapache/queue"
	"github.com/rbmk-project/nanosock/udpengine"
)

// socket is a simulated UDP socket.
type socket struct {
	// closeOnce ensures we close just once.
	closeOnce sync.Once

	// family is the socket family.
	family udpengine.Family

	// handle is the socket handle.
	handle udpengine.Handle

	// local is the local address, invalid until bound.
	local netip.AddrPort

	// netx is the network owning the socket.
	netx *Network

	// queue contains the received *Packet.
	queue *queue.Queue

	// remote is the connected peer, invalid if not connected.
	remote netip.AddrPort
}

// newSocket creates a new, unbound socket.
func newSocket(netx *Network, handle udpengine.Handle, family udpengine.Family) *socket {
	return &socket{
		family: family,
		handle: handle,
		netx:   netx,
		queue:  queue.New(),
	}
}

// Close implements [io.Closer].
func (s *socket) Close() error {
	s.closeOnce.Do(func() {
		s.netx.mu.Lock()
		s.netx.closeLocked(s)
		s.netx.mu.Unlock()
	})
	return nil
}

// accepts returns whether the socket family can reach addr. Dual-stack
// IPv6 sockets accept both families.
func (s *socket) accepts(addr netip.Addr) bool {
	return s.family == udpengine.FamilyIPv6 || addr.Is4()
}

// unspecified returns the unspecified address of the socket family.
func (s *socket) unspecified() netip.Addr {
	if s.family == udpengine.FamilyIPv4 {
		return netip.IPv4Unspecified()
	}
	return netip.IPv6Unspecified()
}

// deliver enqueues pkt unless the socket is connected to another
// peer or the queue is full, in which case the packet is dropped.
//
// The caller must hold the network lock.
func (s *socket) deliver(pkt *Packet, queueSize int) {
	if s.remote.IsValid() && s.remote != pkt.SrcAddr {
		return
	}
	if s.queue.Length() >= queueSize {
		return
	}
	s.queue.Add(pkt)
}
