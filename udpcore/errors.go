//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Error definitions.
//

package udpcore

import "errors"

// Errors wrapped by the errors this package returns. Use [errors.Is]
// to check for them; the underlying cause (e.g., an errno) remains
// reachable through [errors.Is] and [errors.As] as well.
var (
	// ErrInvalidAddress indicates a malformed IP literal.
	ErrInvalidAddress = errors.New("udpcore: invalid address")

	// ErrHostResolution indicates that a host name did not
	// resolve to any address.
	ErrHostResolution = errors.New("udpcore: cannot resolve host")

	// ErrBind indicates that binding a socket failed.
	ErrBind = errors.New("udpcore: bind failed")

	// ErrConnect indicates that connecting a socket failed.
	ErrConnect = errors.New("udpcore: connect failed")

	// ErrSend indicates that sending a datagram failed.
	ErrSend = errors.New("udpcore: send failed")

	// ErrNotPeer indicates sending from a connected socket to an
	// endpoint other than the one it is connected to.
	ErrNotPeer = errors.New("udpcore: not the connected peer")

	// ErrReceive indicates that receiving a datagram failed.
	ErrReceive = errors.New("udpcore: receive failed")

	// ErrUnsupportedPlatform indicates that the platform cannot
	// host raw UDP sockets (e.g., a browser sandbox).
	ErrUnsupportedPlatform = errors.New("udpcore: raw UDP sockets not supported on this platform")
)
