//go:build windows

// SPDX-License-Identifier: GPL-3.0-or-later

package sysudp

import (
	"net/netip"
	"time"
	"unsafe"

	"github.com/rbmk-project/nanosock/udpengine"
	"golang.org/x/sys/windows"
)

// errEINVAL is the error returned for unknown IPv6 zones.
const errEINVAL = windows.WSAEINVAL

const (
	// winsockVersion is the Winsock 2.2 version word.
	winsockVersion = 0x0202

	// fionbio toggles the non-blocking mode of a socket.
	fionbio = 0x8004667e

	// pollrdnorm, pollerr and pollnval are the WSAPoll event bits we use.
	pollrdnorm = 0x0100
	pollerr    = 0x0001
	pollnval   = 0x0004

	// soProtocolInfoW is the SO_PROTOCOL_INFOW socket option.
	soProtocolInfoW = 0x2005
)

// wsaPollFd is the WSAPOLLFD structure.
type wsaPollFd struct {
	fd      windows.Handle
	events  int16
	revents int16
}

var procWSAPoll = windows.NewLazySystemDLL("ws2_32.dll").NewProc("WSAPoll")

// wsaPoll calls WSAPoll, which x/sys/windows does not wrap.
func wsaPoll(fds []wsaPollFd, timeout int) (int, error) {
	if err := procWSAPoll.Find(); err != nil {
		return 0, err
	}
	r1, _, e1 := procWSAPoll.Call(
		uintptr(unsafe.Pointer(&fds[0])), uintptr(len(fds)), uintptr(int32(timeout)))
	if int32(r1) < 0 {
		return 0, e1
	}
	return int(int32(r1)), nil
}

// Initialize implements [udpengine.Engine].
//
// Every successful call must be paired with Deinitialize, since
// Winsock counts WSAStartup invocations.
func (e *Engine) Initialize() error {
	var data windows.WSAData
	if err := windows.WSAStartup(winsockVersion, &data); err != nil {
		return err
	}
	e.initialized.Store(true)
	return nil
}

// Deinitialize implements [udpengine.Engine].
func (e *Engine) Deinitialize() error {
	e.initialized.Store(false)
	return windows.WSACleanup()
}

// Create implements [udpengine.Engine].
func (e *Engine) Create(family udpengine.Family, sendBufferSize, receiveBufferSize int) (udpengine.Handle, error) {
	if !e.initialized.Load() {
		return udpengine.InvalidHandle, udpengine.ErrNotInitialized
	}

	domain := windows.AF_INET
	if family == udpengine.FamilyIPv6 {
		domain = windows.AF_INET6
	}
	s, err := windows.Socket(domain, windows.SOCK_DGRAM, windows.IPPROTO_UDP)
	if err != nil {
		return udpengine.InvalidHandle, err
	}

	if err := e.setup(s, family, sendBufferSize, receiveBufferSize); err != nil {
		windows.Closesocket(s)
		return udpengine.InvalidHandle, err
	}
	return udpengine.Handle(s), nil
}

// setup configures a freshly created socket.
func (e *Engine) setup(s windows.Handle, family udpengine.Family, sendBufferSize, receiveBufferSize int) error {
	if err := ioctl(s, fionbio, 1); err != nil {
		return err
	}

	// Without this, an ICMP port unreachable for a previous send
	// makes the next receive fail with WSAECONNRESET.
	if err := ioctl(s, windows.SIO_UDP_CONNRESET, 0); err != nil {
		return err
	}

	if family == udpengine.FamilyIPv6 {
		if err := windows.SetsockoptInt(s, windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, 0); err != nil {
			return err
		}
	}
	if sendBufferSize > 0 {
		if err := windows.SetsockoptInt(s, windows.SOL_SOCKET, windows.SO_SNDBUF, sendBufferSize); err != nil {
			return err
		}
	}
	if receiveBufferSize > 0 {
		if err := windows.SetsockoptInt(s, windows.SOL_SOCKET, windows.SO_RCVBUF, receiveBufferSize); err != nil {
			return err
		}
	}
	return nil
}

// ioctl sets a uint32 socket control value using WSAIoctl.
func ioctl(s windows.Handle, code uint32, value uint32) error {
	var returned uint32
	return windows.WSAIoctl(s, code, (*byte)(unsafe.Pointer(&value)),
		uint32(unsafe.Sizeof(value)), nil, 0, &returned, nil, 0)
}

// Bind implements [udpengine.Engine].
func (e *Engine) Bind(h udpengine.Handle, addr netip.AddrPort) error {
	sa, err := e.sockaddr(windows.Handle(h), addr)
	if err != nil {
		return err
	}
	return windows.Bind(windows.Handle(h), sa)
}

// Connect implements [udpengine.Engine].
func (e *Engine) Connect(h udpengine.Handle, addr netip.AddrPort) error {
	sa, err := e.sockaddr(windows.Handle(h), addr)
	if err != nil {
		return err
	}
	return windows.Connect(windows.Handle(h), sa)
}

// Poll implements [udpengine.Engine].
func (e *Engine) Poll(h udpengine.Handle, timeout time.Duration) (bool, error) {
	fds := []wsaPollFd{{
		fd:     windows.Handle(h),
		events: pollrdnorm,
	}}
	count, err := wsaPoll(fds, int(timeout/time.Millisecond))
	switch {
	case err == windows.WSAEINTR:
		return false, nil
	case err != nil:
		return false, err
	case fds[0].revents&pollnval != 0:
		return false, windows.WSAENOTSOCK
	default:
		return count > 0 && fds[0].revents&(pollrdnorm|pollerr) != 0, nil
	}
}

// Send implements [udpengine.Engine].
func (e *Engine) Send(h udpengine.Handle, addr netip.AddrPort, data []byte) (int, error) {
	s := windows.Handle(h)
	if !addr.IsValid() {
		return e.sendConnected(s, data)
	}
	sa, err := e.sockaddr(s, addr)
	if err != nil {
		return 0, err
	}
	if err := windows.Sendto(s, data, 0, sa); err != nil {
		return 0, mapWouldBlock(err)
	}
	return len(data), nil
}

// sendConnected sends to the connected peer, since Sendto
// requires an explicit destination.
func (e *Engine) sendConnected(s windows.Handle, data []byte) (int, error) {
	var buf windows.WSABuf
	buf.Len = uint32(len(data))
	if len(data) > 0 {
		buf.Buf = &data[0]
	}
	var sent uint32
	if err := windows.WSASend(s, &buf, 1, &sent, 0, nil, nil); err != nil {
		return 0, mapWouldBlock(err)
	}
	return int(sent), nil
}

// Receive implements [udpengine.Engine].
//
// Winsock fails with WSAEMSGSIZE when the datagram does not fit buf,
// after filling buf and the source address. We report that case as
// a short read, which is what the BSD sockets API does.
func (e *Engine) Receive(h udpengine.Handle, buf []byte) (int, netip.AddrPort, error) {
	var (
		wsabuf  = windows.WSABuf{Len: uint32(len(buf))}
		rsa     windows.RawSockaddrAny
		rsaLen  = int32(unsafe.Sizeof(rsa))
		flags   uint32
		counter uint32
	)
	if len(buf) > 0 {
		wsabuf.Buf = &buf[0]
	}
	err := windows.WSARecvFrom(windows.Handle(h), &wsabuf, 1, &counter, &flags, &rsa, &rsaLen, nil, nil)
	count := int(counter)
	switch {
	case err == windows.WSAEMSGSIZE:
		count = len(buf)
	case err != nil:
		return 0, netip.AddrPort{}, mapWouldBlock(err)
	}
	from, err := rsa.Sockaddr()
	if err != nil {
		return 0, netip.AddrPort{}, err
	}
	return count, addrPortFromSockaddr(from), nil
}

// mapWouldBlock maps WSAEWOULDBLOCK to [udpengine.ErrWouldBlock].
func mapWouldBlock(err error) error {
	if err == windows.WSAEWOULDBLOCK {
		return udpengine.ErrWouldBlock
	}
	return err
}

// LocalAddr implements [udpengine.Engine].
func (e *Engine) LocalAddr(h udpengine.Handle) (netip.AddrPort, error) {
	sa, err := windows.Getsockname(windows.Handle(h))
	if err != nil {
		return netip.AddrPort{}, err
	}
	return addrPortFromSockaddr(sa), nil
}

// Destroy implements [udpengine.Engine].
func (e *Engine) Destroy(h udpengine.Handle) error {
	return windows.Closesocket(windows.Handle(h))
}

// sockaddr converts addr to a sockaddr suitable for the family of s.
//
// Winsock fails getsockname for sockets that are not bound yet, so
// we learn the family of s from SO_PROTOCOL_INFOW instead.
func (e *Engine) sockaddr(s windows.Handle, addr netip.AddrPort) (windows.Sockaddr, error) {
	var info windows.WSAProtocolInfo
	size := int32(unsafe.Sizeof(info))
	err := windows.Getsockopt(s, windows.SOL_SOCKET, soProtocolInfoW, (*byte)(unsafe.Pointer(&info)), &size)
	if err != nil {
		return nil, err
	}
	if info.AddressFamily == windows.AF_INET {
		ip := addr.Addr().Unmap()
		if !ip.Is4() {
			return nil, windows.WSAEAFNOSUPPORT
		}
		return &windows.SockaddrInet4{Port: int(addr.Port()), Addr: ip.As4()}, nil
	}
	sa := &windows.SockaddrInet6{Port: int(addr.Port()), Addr: addr.Addr().As16()}
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
func addrPortFromSockaddr(sa windows.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *windows.SockaddrInet6:
		return addrPortFromIP(sa.Addr, sa.ZoneId, sa.Port)
	default:
		return netip.AddrPortFrom(netip.IPv6Unspecified(), 0)
	}
}
