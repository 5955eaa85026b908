//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Non-blocking UDP socket.
//

package udpcore

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/nanosock/udpengine"
)

// Socket is a non-blocking UDP socket.
//
// A socket is either bound (server role) or connected (client role),
// exactly once, and then used for Poll, Receive, and Send until Close.
// Calling any other method before Bind or Connect, calling Bind or
// Connect twice, or calling any method after Close, violates the
// contract and panics.
//
// A socket is not safe for concurrent use by multiple goroutines.
type Socket interface {
	// Bind binds the socket to the given local endpoint.
	Bind(local EndPoint) error

	// Connect fixes the default peer of the socket. For UDP, this
	// is a local operation and no packet is exchanged.
	Connect(remote EndPoint) error

	// Close closes the socket. It must be called at most once.
	Close() error

	// Poll returns whether a datagram is ready. It never blocks.
	Poll() bool

	// Receive reads a datagram into buf without blocking. When no
	// datagram is ready, it returns zero, a nil [EndPoint], and a nil
	// error. Otherwise, it returns the number of bytes read and an
	// independent [EndPoint] identifying the sender.
	Receive(buf []byte) (int, EndPoint, error)

	// Send sends data to the given endpoint without blocking. Delivery
	// is not guaranteed; only local failures are reported. A connected
	// socket only sends to the endpoint it is connected to.
	Send(to EndPoint, data []byte) error

	// LocalEndPoint returns the local endpoint, which includes
	// the port chosen by the system when binding to port zero.
	LocalEndPoint() (EndPoint, error)
}

// socketState is the state of a [*UDPSocket].
type socketState int

const (
	stateUnbound = socketState(iota)
	stateBound
	stateConnected
	stateClosed
)

// String returns the string representation of the state.
func (s socketState) String() string {
	switch s {
	case stateUnbound:
		return "unbound"
	case stateBound:
		return "bound"
	case stateConnected:
		return "connected"
	default:
		return "closed"
	}
}

// UDPSocket is the [Socket] implementation using an [udpengine.Engine].
//
// Construct using [NewUDPSocket] or, more commonly, [*Factory].
type UDPSocket struct {
	engine            udpengine.Engine
	handle            udpengine.Handle
	receiveBufferSize int
	remote            Address // only when connected
	sendBufferSize    int
	state             socketState
}

var _ Socket = &UDPSocket{}

// NewUDPSocket creates a new unbound [*UDPSocket]. The engine handle is
// created when calling Bind or Connect, using the given buffer sizes.
func NewUDPSocket(engine udpengine.Engine, sendBufferSize, receiveBufferSize int) *UDPSocket {
	return &UDPSocket{
		engine:            engine,
		handle:            udpengine.InvalidHandle,
		receiveBufferSize: receiveBufferSize,
		sendBufferSize:    sendBufferSize,
		state:             stateUnbound,
	}
}

// Bind implements [Socket].
//
// On failure, the socket remains unbound. The returned
// error wraps [ErrBind] and the underlying cause.
func (s *UDPSocket) Bind(local EndPoint) error {
	s.mustBeIn("Bind", stateUnbound)
	addr, ok := addressOf(local)
	if !ok {
		return fmt.Errorf("%w: %w", ErrBind, ErrInvalidAddress)
	}
	if err := s.open(addr, s.engine.Bind); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBind, addr, err)
	}
	s.state = stateBound
	return nil
}

// Connect implements [Socket].
//
// On failure, the socket remains unbound. The returned
// error wraps [ErrConnect] and the underlying cause.
func (s *UDPSocket) Connect(remote EndPoint) error {
	s.mustBeIn("Connect", stateUnbound)
	addr, ok := addressOf(remote)
	if !ok {
		return fmt.Errorf("%w: %w", ErrConnect, ErrInvalidAddress)
	}
	if err := s.open(addr, s.engine.Connect); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	s.remote = addr
	s.state = stateConnected
	return nil
}

// open creates the engine handle and binds or connects it.
func (s *UDPSocket) open(addr Address, fx func(udpengine.Handle, netip.AddrPort) error) error {
	family := udpengine.FamilyOf(addr.AddrPort().Addr())
	handle, err := s.engine.Create(family, s.sendBufferSize, s.receiveBufferSize)
	if err != nil {
		return err
	}
	if err := fx(handle, addr.AddrPort()); err != nil {
		s.engine.Destroy(handle)
		return err
	}
	s.handle = handle
	return nil
}

// Close implements [Socket].
func (s *UDPSocket) Close() error {
	s.mustBeIn("Close", stateUnbound, stateBound, stateConnected)
	handle := s.handle
	s.handle = udpengine.InvalidHandle
	s.state = stateClosed
	if handle == udpengine.InvalidHandle {
		return nil
	}
	return s.engine.Destroy(handle)
}

// Poll implements [Socket].
//
// Engine failures are reported as readable, so that the
// caller observes them by calling Receive.
func (s *UDPSocket) Poll() bool {
	s.mustBeIn("Poll", stateBound, stateConnected)
	ready, err := s.engine.Poll(s.handle, 0)
	return ready || err != nil
}

// Receive implements [Socket].
//
// The returned error wraps [ErrReceive] and the underlying cause.
func (s *UDPSocket) Receive(buf []byte) (int, EndPoint, error) {
	s.mustBeIn("Receive", stateBound, stateConnected)
	count, from, err := s.engine.Receive(s.handle, buf)
	switch {
	case errors.Is(err, udpengine.ErrWouldBlock):
		return 0, nil, nil
	case err != nil:
		return 0, nil, fmt.Errorf("%w: %w", ErrReceive, err)
	default:
		return count, IPEndPoint{AddressFromAddrPort(from)}, nil
	}
}

// Send implements [Socket].
//
// The returned error wraps [ErrSend] and the underlying cause. On a
// connected socket, sending to any endpoint other than the connected
// one fails with [ErrNotPeer] on every platform.
func (s *UDPSocket) Send(to EndPoint, data []byte) error {
	s.mustBeIn("Send", stateBound, stateConnected)
	addr, ok := addressOf(to)
	if !ok {
		return fmt.Errorf("%w: %w", ErrSend, ErrInvalidAddress)
	}

	// Connected sockets use the default peer, since some systems
	// refuse an explicit destination on a connected socket.
	dst := addr.AddrPort()
	if s.state == stateConnected {
		if !addr.Equal(s.remote) {
			return fmt.Errorf("%w: %s: %w", ErrSend, addr, ErrNotPeer)
		}
		dst = netip.AddrPort{}
	}

	if _, err := s.engine.Send(s.handle, dst, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSend, addr, err)
	}
	return nil
}

// LocalEndPoint implements [Socket].
func (s *UDPSocket) LocalEndPoint() (EndPoint, error) {
	s.mustBeIn("LocalEndPoint", stateBound, stateConnected)
	local, err := s.engine.LocalAddr(s.handle)
	if err != nil {
		return nil, err
	}
	return IPEndPoint{AddressFromAddrPort(local)}, nil
}

// mustBeIn panics unless the socket is in one of the given states.
func (s *UDPSocket) mustBeIn(op string, states ...socketState) {
	for _, state := range states {
		if s.state == state {
			return
		}
	}
	runtimex.Assert(false, fmt.Sprintf("udpcore: %s on %s socket", op, s.state))
}
