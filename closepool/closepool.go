// SPDX-License-Identifier: GPL-3.0-or-later

// Package closepool allows pooling [io.Closer] instances
// and closing them in a single operation.
//
// We use it to track sockets still open when an engine is
// deinitialized, so that tearing down the engine releases them.
package closepool

import (
	"errors"
	"io"
	"slices"
	"sync"
)

// Pool allows pooling a set of [io.Closer].
//
// The zero value is ready to use.
type Pool struct {
	// handles contains the [io.Closer] to close.
	handles []io.Closer

	// mu provides mutual exclusion.
	mu sync.Mutex
}

// Add adds a given [io.Closer] to the pool.
func (p *Pool) Add(conn io.Closer) {
	p.mu.Lock()
	p.handles = append(p.handles, conn)
	p.mu.Unlock()
}

// Remove removes a given [io.Closer] from the pool without closing
// it. Use this method when the owner closes the [io.Closer] on its
// own, so that the pool does not close it a second time. Removing
// an [io.Closer] that is not in the pool is a no-op.
func (p *Pool) Remove(conn io.Closer) {
	p.mu.Lock()
	p.handles = slices.DeleteFunc(p.handles, func(c io.Closer) bool {
		return c == conn
	})
	p.mu.Unlock()
}

// Len returns the number of [io.Closer] inside the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}

// Close closes all the [io.Closer] inside the pool iterating
// in backward order, so the most recently added is closed first.
// The returned error is the join of all the errors that occurred
// when closing. After Close, the pool is empty and reusable.
func (p *Pool) Close() error {
	// Lock and copy the [io.Closer] to close.
	p.mu.Lock()
	conns := p.handles
	p.handles = nil
	p.mu.Unlock()

	// Close all the [io.Closer].
	var errv []error
	for _, conn := range slices.Backward(conns) {
		if err := conn.Close(); err != nil {
			errv = append(errv, err)
		}
	}
	return errors.Join(errv...)
}
