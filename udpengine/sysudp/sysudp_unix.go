//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package sysudp

import (
	"net/netip"
	"time"

	"github.com/rbmk-project/nanosock/udpengine"
	"golang.org/x/sys/unix"
)

// errEINVAL is the error returned for unknown IPv6 zones.
const errEINVAL = unix.EINVAL

// Initialize implements [udpengine.Engine].
//
// On Unix there is no library-wide socket state to set up, so this
// only records that the engine may now create sockets.
func (e *Engine) Initialize() error {
	e.initialized.Store(true)
	return nil
}

// Deinitialize implements [udpengine.Engine].
func (e *Engine) Deinitialize() error {
	e.initialized.Store(false)
	return nil
}

// Create implements [udpengine.Engine].
func (e *Engine) Create(family udpengine.Family, sendBufferSize, receiveBufferSize int) (udpengine.Handle, error) {
	if !e.initialized.Load() {
		return udpengine.InvalidHandle, udpengine.ErrNotInitialized
	}

	domain := unix.AF_INET
	if family == udpengine.FamilyIPv6 {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return udpengine.InvalidHandle, err
	}
	unix.CloseOnExec(fd)

	if err := e.setup(fd, family, sendBufferSize, receiveBufferSize); err != nil {
		unix.Close(fd)
		return udpengine.InvalidHandle, err
	}
	return udpengine.Handle(fd), nil
}

// setup configures a freshly created socket.
func (e *Engine) setup(fd int, family udpengine.Family, sendBufferSize, receiveBufferSize int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return err
	}
	if family == udpengine.FamilyIPv6 {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0); err != nil {
			return err
		}
	}
	if sendBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, sendBufferSize); err != nil {
			return err
		}
	}
	if receiveBufferSize > 0 {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, receiveBufferSize); err != nil {
			return err
		}
	}
	return nil
}

// Bind implements [udpengine.Engine].
func (e *Engine) Bind(h udpengine.Handle, addr netip.AddrPort) error {
	sa, err := e.sockaddr(int(h), addr)
	if err != nil {
		return err
	}
	return unix.Bind(int(h), sa)
}

// Connect implements [udpengine.Engine].
func (e *Engine) Connect(h udpengine.Handle, addr netip.AddrPort) error {
	sa, err := e.sockaddr(int(h), addr)
	if err != nil {
		return err
	}
	return unix.Connect(int(h), sa)
}

// Poll implements [udpengine.Engine].
func (e *Engine) Poll(h udpengine.Handle, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{
		Fd:     int32(h),
		Events: unix.POLLIN,
	}}
	count, err := unix.Poll(fds, int(timeout/time.Millisecond))
	switch {
	case err == unix.EINTR:
		return false, nil
	case err != nil:
		return false, err
	case fds[0].Revents&unix.POLLNVAL != 0:
		return false, unix.EBADF
	default:
		return count > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLERR) != 0, nil
	}
}

// Send implements [udpengine.Engine].
func (e *Engine) Send(h udpengine.Handle, addr netip.AddrPort, data []byte) (int, error) {
	var to unix.Sockaddr
	if addr.IsValid() {
		sa, err := e.sockaddr(int(h), addr)
		if err != nil {
			return 0, err
		}
		to = sa
	}
	if err := unix.Sendto(int(h), data, 0, to); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Receive implements [udpengine.Engine].
func (e *Engine) Receive(h udpengine.Handle, buf []byte) (int, netip.AddrPort, error) {
	count, from, err := unix.Recvfrom(int(h), buf, 0)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return 0, netip.AddrPort{}, udpengine.ErrWouldBlock
	case err != nil:
		return 0, netip.AddrPort{}, err
	default:
		return count, addrPortFromSockaddr(from), nil
	}
}

// LocalAddr implements [udpengine.Engine].
func (e *Engine) LocalAddr(h udpengine.Handle) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(int(h))
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPortFromSockaddr(sa), nil
}

// Destroy implements [udpengine.Engine].
func (e *Engine) Destroy(h udpengine.Handle) error {
	return unix.Close(int(h))
}

// sockaddr converts addr to a sockaddr suitable for the family of fd.
//
// We learn the family of fd from getsockname, which reports it
// even for sockets that are not bound yet.
func (e *Engine) sockaddr(fd int, addr netip.AddrPort) (unix.Sockaddr, error) {
	local, err := unix.Getsockname(fd)
	if err != nil {
		return nil, err
	}
	if _, ok := local.(*unix.SockaddrInet4); ok {
		ip := addr.Addr().Unmap()
		if !ip.Is4() {
			return nil, unix.EAFNOSUPPORT
		}
		return &unix.SockaddrInet4{Port: int(addr.Port()), Addr: ip.As4()}, nil
	}
	sa := &unix.SockaddrInet6{Port: int(addr.Port()), Addr: addr.Addr().As16()}
	if zone := addr.Addr().Zone(); zone != "" {
		index, err := zoneToIndex(zone)
		if err != nil {
			return nil, err
		}
		sa.ZoneId = index
	}
	return sa, nil
}

// addrPortFromSockaddr converts a sockaddr to an unmapped [netip.AddrPort].
func addrPortFromSockaddr(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		return addrPortFromIP(sa.Addr, sa.ZoneId, sa.Port)
	default:
		return netip.AddrPortFrom(netip.IPv6Unspecified(), 0)
	}
}
