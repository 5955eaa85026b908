//go:build windows

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Windows errno definitions.
//

package netsim

import "golang.org/x/sys/windows"

const (
	// EADDRNOTAVAIL is the address not available error.
	EADDRNOTAVAIL = windows.WSAEADDRNOTAVAIL

	// EADDRINUSE is the address in use error.
	EADDRINUSE = windows.WSAEADDRINUSE

	// EAFNOSUPPORT is the address family not supported error.
	EAFNOSUPPORT = windows.WSAEAFNOSUPPORT

	// EHOSTUNREACH is the host unreachable error.
	EHOSTUNREACH = windows.WSAEHOSTUNREACH

	// EINVAL is the invalid argument error.
	EINVAL = windows.WSAEINVAL

	// EMSGSIZE is the message too long error.
	EMSGSIZE = windows.WSAEMSGSIZE

	// ENOTCONN is the not connected error.
	ENOTCONN = windows.WSAENOTCONN
)
