//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "golang.org/x/sys/unix"

const (
	errEAGAIN       = unix.EAGAIN
	errEMSGSIZE     = unix.EMSGSIZE
	errEAFNOSUPPORT = unix.EAFNOSUPPORT
)
