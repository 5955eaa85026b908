//go:build unix

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// UNIX errno definitions.
//

package netsim

import "golang.org/x/sys/unix"

const (
	// EADDRNOTAVAIL is the address not available error.
	EADDRNOTAVAIL = unix.EADDRNOTAVAIL

	// EADDRINUSE is the address in use error.
	EADDRINUSE = unix.EADDRINUSE

	// EAFNOSUPPORT is the address family not supported error.
	EAFNOSUPPORT = unix.EAFNOSUPPORT

	// EHOSTUNREACH is the host unreachable error.
	EHOSTUNREACH = unix.EHOSTUNREACH

	// EINVAL is the invalid argument error.
	EINVAL = unix.EINVAL

	// EMSGSIZE is the message too long error.
	EMSGSIZE = unix.EMSGSIZE

	// ENOTCONN is the not connected error.
	ENOTCONN = unix.ENOTCONN
)
