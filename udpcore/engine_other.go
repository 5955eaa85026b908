//go:build !unix && !windows

// SPDX-License-Identifier: GPL-3.0-or-later

package udpcore

import "github.com/rbmk-project/nanosock/udpengine"

// newDefaultEngine returns an engine that fails every socket operation.
func newDefaultEngine() udpengine.Engine {
	return udpengine.UnsupportedEngine{}
}
