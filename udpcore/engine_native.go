//go:build unix || windows

// SPDX-License-Identifier: GPL-3.0-or-later

package udpcore

import (
	"github.com/rbmk-project/nanosock/udpengine"
	"github.com/rbmk-project/nanosock/udpengine/sysudp"
)

// newDefaultEngine returns the native engine.
func newDefaultEngine() udpengine.Engine {
	return sysudp.New()
}
