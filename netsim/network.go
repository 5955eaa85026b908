//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Simulated network implementing udpengine.Engine.
//

package netsim

import (
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/rbmk-project/nanosock/closepool"
	"github.com/rbmk-project/nanosock/netipx"
	"github.com/rbmk-project/nanosock/udpengine"
)

const (
	// firstEphemeralPort is the first port we assign to sockets
	// binding or sending without an explicit port.
	firstEphemeralPort = 49152

	// maxPayloadSize is the largest UDP payload over IPv4.
	maxPayloadSize = 65507

	// DefaultQueueSize is the default maximum number of datagrams
	// queued for a socket before we start dropping.
	DefaultQueueSize = 1024
)

// Network is a simulated UDP network.
//
// Construct using [NewNetwork].
//
// A [*Network] is safe for concurrent use by multiple goroutines.
type Network struct {
	// addrs contains the addresses owned by the network.
	addrs []netip.Addr

	// filter is the optional packet filter.
	filter func(pkt *Packet) bool

	// handles maps handles to sockets.
	handles map[udpengine.Handle]*socket

	// initialized tracks whether Initialize was called.
	initialized bool

	// mu protects all the mutable fields.
	mu sync.Mutex

	// nexthandle is the next handle to assign.
	nexthandle udpengine.Handle

	// nextport tracks the next available ephemeral port.
	nextport uint16

	// pool contains sockets to close on Deinitialize.
	pool closepool.Pool

	// ports maps bound local addresses to sockets.
	ports map[netip.AddrPort]*socket

	// queueSize is the per-socket receive queue size.
	queueSize int
}

// NewNetwork creates a new [*Network] owning the given addresses in
// addition to the IPv4 and IPv6 loopback addresses.
func NewNetwork(addrs ...netip.Addr) *Network {
	return &Network{
		addrs:      append([]netip.Addr{}, addrs...),
		handles:    map[udpengine.Handle]*socket{},
		nexthandle: 1,
		nextport:   firstEphemeralPort,
		ports:      map[netip.AddrPort]*socket{},
		queueSize:  DefaultQueueSize,
	}
}

var _ udpengine.Engine = &Network{}

// Addresses returns the non-loopback addresses owned by the network.
func (n *Network) Addresses() []netip.Addr {
	return append([]netip.Addr{}, n.addrs...)
}

// SetFilter installs a filter invoked for each sent [*Packet]. The
// packet is delivered only when the filter returns true. Passing nil
// removes the filter. The filter runs with the network locked and must
// not call methods of the [*Network].
func (n *Network) SetFilter(filter func(pkt *Packet) bool) {
	n.mu.Lock()
	n.filter = filter
	n.mu.Unlock()
}

// SetQueueSize sets the maximum number of datagrams queued for each
// socket. Values lower than one restore [DefaultQueueSize].
func (n *Network) SetQueueSize(size int) {
	if size < 1 {
		size = DefaultQueueSize
	}
	n.mu.Lock()
	n.queueSize = size
	n.mu.Unlock()
}

// Initialize implements [udpengine.Engine].
func (n *Network) Initialize() error {
	n.mu.Lock()
	n.initialized = true
	n.mu.Unlock()
	return nil
}

// Deinitialize implements [udpengine.Engine].
//
// Sockets that are still open are closed.
func (n *Network) Deinitialize() error {
	n.mu.Lock()
	n.initialized = false
	n.mu.Unlock()
	return n.pool.Close()
}

// Create implements [udpengine.Engine].
//
// Buffer sizes are ignored: the queue size controls buffering.
func (n *Network) Create(family udpengine.Family, _, _ int) (udpengine.Handle, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.initialized {
		return udpengine.InvalidHandle, udpengine.ErrNotInitialized
	}
	if family != udpengine.FamilyIPv4 && family != udpengine.FamilyIPv6 {
		return udpengine.InvalidHandle, EAFNOSUPPORT
	}
	sock := newSocket(n, n.nexthandle, family)
	n.handles[sock.handle] = sock
	n.nexthandle++
	n.pool.Add(sock)
	return sock.handle, nil
}

// Bind implements [udpengine.Engine].
func (n *Network) Bind(h udpengine.Handle, addr netip.AddrPort) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	sock, err := n.socketLocked(h)
	if err != nil {
		return err
	}
	if sock.local.IsValid() {
		return EINVAL
	}
	return n.bindLocked(sock, netipx.Unmap(addr))
}

// Connect implements [udpengine.Engine].
//
// Connecting an unbound socket implicitly binds it to the
// unspecified address and an ephemeral port.
func (n *Network) Connect(h udpengine.Handle, addr netip.AddrPort) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	sock, err := n.socketLocked(h)
	if err != nil {
		return err
	}
	raddr := netipx.Unmap(addr)
	if !sock.accepts(raddr.Addr()) {
		return EAFNOSUPPORT
	}
	if err := n.maybeAutoBindLocked(sock); err != nil {
		return err
	}
	sock.remote = raddr
	return nil
}

// Poll implements [udpengine.Engine].
func (n *Network) Poll(h udpengine.Handle, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		n.mu.Lock()
		sock, err := n.socketLocked(h)
		var ready bool
		if err == nil {
			ready = sock.queue.Length() > 0
		}
		n.mu.Unlock()
		if err != nil || ready {
			return ready, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}
		time.Sleep(min(remaining, time.Millisecond))
	}
}

// Send implements [udpengine.Engine].
//
// Sending from an unbound socket implicitly binds it. A datagram
// without a receiver is silently dropped, as UDP would do.
func (n *Network) Send(h udpengine.Handle, addr netip.AddrPort, data []byte) (int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sock, err := n.socketLocked(h)
	if err != nil {
		return 0, err
	}

	// Figure out the destination.
	dst := netipx.Unmap(addr)
	if !dst.IsValid() {
		if dst = sock.remote; !dst.IsValid() {
			return 0, ENOTCONN
		}
	}
	if !sock.accepts(dst.Addr()) {
		return 0, EAFNOSUPPORT
	}
	if len(data) > maxPayloadSize {
		return 0, EMSGSIZE
	}

	// Figure out the source.
	if err := n.maybeAutoBindLocked(sock); err != nil {
		return 0, err
	}
	src, err := n.sourceLocked(sock, dst.Addr())
	if err != nil {
		return 0, err
	}

	// As the kernel does, copy the payload.
	pkt := &Packet{
		SrcAddr: src,
		DstAddr: dst,
		Payload: append([]byte{}, data...),
	}
	if n.filter != nil && !n.filter(pkt) {
		return len(data), nil
	}
	if peer := n.findPortLocked(pkt.DstAddr); peer != nil {
		peer.deliver(pkt, n.queueSize)
	}
	return len(data), nil
}

// Receive implements [udpengine.Engine].
func (n *Network) Receive(h udpengine.Handle, buf []byte) (int, netip.AddrPort, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sock, err := n.socketLocked(h)
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	if sock.queue.Length() <= 0 {
		return 0, netip.AddrPort{}, udpengine.ErrWouldBlock
	}
	pkt := sock.queue.Remove().(*Packet)
	return copy(buf, pkt.Payload), pkt.SrcAddr, nil
}

// LocalAddr implements [udpengine.Engine].
//
// The local address of an unbound socket is the unspecified
// address of the socket family with port zero.
func (n *Network) LocalAddr(h udpengine.Handle) (netip.AddrPort, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	sock, err := n.socketLocked(h)
	if err != nil {
		return netip.AddrPort{}, err
	}
	if !sock.local.IsValid() {
		return netip.AddrPortFrom(sock.unspecified(), 0), nil
	}
	return sock.local, nil
}

// Destroy implements [udpengine.Engine].
func (n *Network) Destroy(h udpengine.Handle) error {
	n.mu.Lock()
	sock, err := n.socketLocked(h)
	n.mu.Unlock()
	if err != nil {
		return err
	}
	n.pool.Remove(sock)
	return sock.Close()
}

// socketLocked returns the socket bound to the given handle.
//
// The caller must hold the mu lock.
func (n *Network) socketLocked(h udpengine.Handle) (*socket, error) {
	sock := n.handles[h]
	if sock == nil {
		return nil, udpengine.ErrInvalidHandle
	}
	return sock, nil
}

// closeLocked forgets about the given socket.
//
// The caller must hold the mu lock.
func (n *Network) closeLocked(sock *socket) {
	if n.handles[sock.handle] == sock {
		delete(n.handles, sock.handle)
	}
	if sock.local.IsValid() && n.ports[sock.local] == sock {
		delete(n.ports, sock.local)
	}
}

// owns returns whether the network owns the given address.
func (n *Network) owns(addr netip.Addr) bool {
	return addr.IsUnspecified() || addr.IsLoopback() || slices.Contains(n.addrs, addr.WithZone(""))
}

// bindLocked binds sock to the given unmapped address.
//
// The caller must hold the mu lock.
func (n *Network) bindLocked(sock *socket, addr netip.AddrPort) error {
	if !sock.accepts(addr.Addr()) {
		return EAFNOSUPPORT
	}
	if !n.owns(addr.Addr()) {
		return EADDRNOTAVAIL
	}
	if addr.Port() == 0 {
		port, err := n.ephemeralPortLocked(addr.Addr())
		if err != nil {
			return err
		}
		addr = netip.AddrPortFrom(addr.Addr(), port)
	}
	if n.inUseLocked(addr) {
		return EADDRINUSE
	}
	sock.local = addr
	n.ports[addr] = sock
	return nil
}

// maybeAutoBindLocked binds an unbound socket to the unspecified
// address of its family and an ephemeral port.
//
// The caller must hold the mu lock.
func (n *Network) maybeAutoBindLocked(sock *socket) error {
	if sock.local.IsValid() {
		return nil
	}
	return n.bindLocked(sock, netip.AddrPortFrom(sock.unspecified(), 0))
}

// inUseLocked returns whether another socket is bound to a
// conflicting address with the same port. Unspecified addresses
// conflict with every address.
//
// The caller must hold the mu lock.
func (n *Network) inUseLocked(addr netip.AddrPort) bool {
	for bound := range n.ports {
		if bound.Port() != addr.Port() {
			continue
		}
		if bound.Addr() == addr.Addr() || bound.Addr().IsUnspecified() || addr.Addr().IsUnspecified() {
			return true
		}
	}
	return false
}

// ephemeralPortLocked returns a free ephemeral port for addr.
//
// The caller must hold the mu lock.
func (n *Network) ephemeralPortLocked(addr netip.Addr) (uint16, error) {
	const numEphemeralPorts = 65536 - firstEphemeralPort
	for range numEphemeralPorts {
		port := n.nextport
		n.nextport++
		if n.nextport == 0 {
			n.nextport = firstEphemeralPort
		}
		if !n.inUseLocked(netip.AddrPortFrom(addr, port)) {
			return port, nil
		}
	}
	return 0, EADDRINUSE
}

// sourceLocked returns the source address for sending from sock to dst.
//
// The caller must hold the mu lock.
func (n *Network) sourceLocked(sock *socket, dst netip.Addr) (netip.AddrPort, error) {
	port := sock.local.Port()
	if !sock.local.Addr().IsUnspecified() {
		return sock.local, nil
	}
	if dst.IsLoopback() {
		if dst.Is4() {
			return netip.AddrPortFrom(netip.AddrFrom4([4]byte{127, 0, 0, 1}), port), nil
		}
		return netip.AddrPortFrom(netip.IPv6Loopback(), port), nil
	}
	for _, addr := range n.addrs {
		if addr.Is4() == dst.Is4() {
			return netip.AddrPortFrom(addr, port), nil
		}
	}
	return netip.AddrPort{}, EHOSTUNREACH
}

// findPortLocked finds the socket that should receive a datagram
// sent to dst, trying first the exact address and then the
// unspecified addresses. It returns nil when there is no such socket.
//
// The caller must hold the mu lock.
func (n *Network) findPortLocked(dst netip.AddrPort) *socket {
	if !n.owns(dst.Addr()) || dst.Addr().IsUnspecified() {
		return nil
	}
	if sock := n.ports[dst]; sock != nil {
		return sock
	}
	if dst.Addr().Is4() {
		if sock := n.ports[netip.AddrPortFrom(netip.IPv4Unspecified(), dst.Port())]; sock != nil {
			return sock
		}
	}
	return n.ports[netip.AddrPortFrom(netip.IPv6Unspecified(), dst.Port())]
}
