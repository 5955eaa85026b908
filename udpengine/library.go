//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Reference-counted engine lifecycle.
//

package udpengine

import (
	"sync"

	"github.com/rbmk-project/common/runtimex"
)

// Library reference counts the library-wide state of an [Engine].
//
// The engine is initialized by the first [*Library.Acquire] and
// deinitialized by the [*Library.Release] that brings the count
// back to zero. The mutex is held while initializing and
// deinitializing, so a concurrent Acquire cannot observe a
// half-initialized engine, nor can a Release deinitialize the
// engine while another user still holds it.
//
// Construct using [NewLibrary].
type Library struct {
	// count is the number of live acquirers.
	count int

	// engine is the wrapped engine.
	engine Engine

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// NewLibrary creates a new [*Library] wrapping the given [Engine].
func NewLibrary(engine Engine) *Library {
	return &Library{engine: engine}
}

// Engine returns the wrapped [Engine].
func (lib *Library) Engine() Engine {
	return lib.engine
}

// Acquire increments the reference count, initializing the engine
// when the count was zero. On error the count is unchanged.
func (lib *Library) Acquire() error {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	if lib.count == 0 {
		if err := lib.engine.Initialize(); err != nil {
			return err
		}
	}
	lib.count++
	return nil
}

// Release decrements the reference count, deinitializing the engine
// when the count reaches zero.
//
// Calling Release more times than Acquire is a programming error
// and causes a panic.
func (lib *Library) Release() error {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	runtimex.Assert(lib.count > 0, "udpengine: Release without matching Acquire")
	lib.count--
	if lib.count == 0 {
		return lib.engine.Deinitialize()
	}
	return nil
}

// Count returns the current reference count.
func (lib *Library) Count() int {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	return lib.count
}
