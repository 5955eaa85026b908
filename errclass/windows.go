//go:build windows

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "golang.org/x/sys/windows"

const (
	errEAGAIN       = windows.WSAEWOULDBLOCK
	errEMSGSIZE     = windows.WSAEMSGSIZE
	errEAFNOSUPPORT = windows.WSAEAFNOSUPPORT
)
