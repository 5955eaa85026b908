// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package errclass implements error classification for datagram sockets.

The general idea is to classify golang errors to an enum of strings
with names resembling standard Unix error names. We use the result as
the `errClass` field of structured logs.

This package extends `github.com/rbmk-project/common/errclass`, which
handles the generic network, DNS, and TLS errors, with the classes
that only make sense for non-blocking datagram sockets.

# Design Principles

1. Preserve original error in `err` in the structured logs.

2. Add the classified error as the `errClass` field.

3. Use [errors.Is] for classification.

4. Map the nil error to an empty string.

# Datagram Errors

- [EWOULDBLOCK] for [udpengine.ErrWouldBlock] and the EAGAIN errno

- [EMSGSIZE] when the datagram does not fit the socket buffer

- [EAFNOSUPPORT] when the destination family does not match the socket

- [EUNSUPPORTED] for [udpengine.ErrUnsupported]

The system error constants are defined in platform-specific files:

- unix.go for Unix-like systems using x/sys/unix

- windows.go for Windows systems using x/sys/windows

- other.go for sandboxes (e.g., js/wasm) using [syscall]

# Fallback

On Unix and Windows everything else goes through the common classifier,
which returns [EGENERIC] for unclassified errors. Sandboxes lack the
common classifier's system error constants, so there we return
[EGENERIC] directly.
*/
package errclass

import (
	"errors"

	"github.com/rbmk-project/nanosock/udpengine"
)

const (
	// EWOULDBLOCK indicates that a non-blocking operation could not
	// complete immediately.
	EWOULDBLOCK = "EWOULDBLOCK"

	// EMSGSIZE is the message too long error.
	EMSGSIZE = "EMSGSIZE"

	// EAFNOSUPPORT is the address family not supported error.
	EAFNOSUPPORT = "EAFNOSUPPORT"

	// EUNSUPPORTED indicates that raw sockets are not available.
	EUNSUPPORTED = "EUNSUPPORTED"

	// EADDRINUSE is the address in use error.
	EADDRINUSE = "EADDRINUSE"

	// EADDRNOTAVAIL is the address not available error.
	EADDRNOTAVAIL = "EADDRNOTAVAIL"

	// ECONNREFUSED is the connection refused error.
	ECONNREFUSED = "ECONNREFUSED"

	// EDNS_NONAME is the DNS error for "no such host".
	EDNS_NONAME = "EDNS_NONAME"

	// EGENERIC is the generic, unclassified error.
	EGENERIC = "EGENERIC"
)

// errorsIsMap contains the datagram errors we can map using [errors.Is].
var errorsIsMap = map[error]string{
	udpengine.ErrWouldBlock:  EWOULDBLOCK,
	udpengine.ErrUnsupported: EUNSUPPORTED,
	errEAGAIN:                EWOULDBLOCK,
	errEMSGSIZE:              EMSGSIZE,
	errEAFNOSUPPORT:          EAFNOSUPPORT,
}

// New classifies the given error and returns its class.
func New(err error) string {
	if err == nil {
		return ""
	}
	for target, class := range errorsIsMap {
		if errors.Is(err, target) {
			return class
		}
	}
	return fallback(err)
}
