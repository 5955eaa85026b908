//go:build !unix && !windows

//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Errno definitions for sandboxed platforms (e.g., js and wasip1).
//

package netsim

import "syscall"

const (
	// EADDRNOTAVAIL is the address not available error.
	EADDRNOTAVAIL = syscall.EADDRNOTAVAIL

	// EADDRINUSE is the address in use error.
	EADDRINUSE = syscall.EADDRINUSE

	// EAFNOSUPPORT is the address family not supported error.
	EAFNOSUPPORT = syscall.EAFNOSUPPORT

	// EHOSTUNREACH is the host unreachable error.
	EHOSTUNREACH = syscall.EHOSTUNREACH

	// EINVAL is the invalid argument error.
	EINVAL = syscall.EINVAL

	// EMSGSIZE is the message too long error.
	EMSGSIZE = syscall.EMSGSIZE

	// ENOTCONN is the not connected error.
	ENOTCONN = syscall.ENOTCONN
)
