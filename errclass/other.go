//go:build !unix && !windows

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "syscall"

const (
	errEAGAIN       = syscall.EAGAIN
	errEMSGSIZE     = syscall.EMSGSIZE
	errEAFNOSUPPORT = syscall.EAFNOSUPPORT
)

// fallback returns [EGENERIC] for every error.
func fallback(err error) string {
	return EGENERIC
}
