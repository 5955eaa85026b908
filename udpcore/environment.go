//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Execution environment capabilities.
//

package udpcore

import "runtime"

// Environment describes the capabilities of the execution environment.
type Environment interface {
	// SupportsRawSockets returns whether the environment can
	// host native UDP sockets.
	SupportsRawSockets() bool
}

// RuntimeEnvironment is the [Environment] derived from [runtime.GOOS].
//
// Browser (js) and WASI (wasip1) sandboxes cannot host raw UDP
// sockets; every other platform can.
type RuntimeEnvironment struct{}

var _ Environment = RuntimeEnvironment{}

// SupportsRawSockets implements [Environment].
func (RuntimeEnvironment) SupportsRawSockets() bool {
	switch runtime.GOOS {
	case "js", "wasip1":
		return false
	default:
		return true
	}
}

// StaticEnvironment is an [Environment] with a fixed answer.
type StaticEnvironment bool

var _ Environment = StaticEnvironment(false)

// SupportsRawSockets implements [Environment].
func (se StaticEnvironment) SupportsRawSockets() bool {
	return bool(se)
}
