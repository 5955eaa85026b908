// SPDX-License-Identifier: GPL-3.0-or-later

package udpengine_test

import (
	"errors"
	"net/netip"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbmk-project/nanosock/udpengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingEngine is an [udpengine.Engine] that only counts the
// library-wide lifecycle calls.
type countingEngine struct {
	inits   atomic.Int64
	deinits atomic.Int64
	live    atomic.Int64
	initErr error
}

var _ udpengine.Engine = &countingEngine{}

func (e *countingEngine) Initialize() error {
	if e.initErr != nil {
		return e.initErr
	}
	e.inits.Add(1)
	// Observing more than one live context means we double-initialized.
	if e.live.Add(1) != 1 {
		panic("double initialization")
	}
	return nil
}

func (e *countingEngine) Deinitialize() error {
	e.deinits.Add(1)
	e.live.Add(-1)
	return nil
}

func (e *countingEngine) Create(udpengine.Family, int, int) (udpengine.Handle, error) {
	return udpengine.InvalidHandle, errors.New("not implemented")
}

func (e *countingEngine) Bind(udpengine.Handle, netip.AddrPort) error { return nil }

func (e *countingEngine) Connect(udpengine.Handle, netip.AddrPort) error { return nil }

func (e *countingEngine) Poll(udpengine.Handle, time.Duration) (bool, error) { return false, nil }

func (e *countingEngine) Send(udpengine.Handle, netip.AddrPort, []byte) (int, error) {
	return 0, nil
}

func (e *countingEngine) Receive(udpengine.Handle, []byte) (int, netip.AddrPort, error) {
	return 0, netip.AddrPort{}, udpengine.ErrWouldBlock
}

func (e *countingEngine) LocalAddr(udpengine.Handle) (netip.AddrPort, error) {
	return netip.AddrPort{}, nil
}

func (e *countingEngine) Destroy(udpengine.Handle) error { return nil }

func TestLibrary(t *testing.T) {
	t.Run("acquire and release sequence", func(t *testing.T) {
		engine := &countingEngine{}
		lib := udpengine.NewLibrary(engine)
		assert.Same(t, engine, lib.Engine())

		require.NoError(t, lib.Acquire())
		assert.Equal(t, int64(1), engine.inits.Load())
		assert.Equal(t, 1, lib.Count())

		require.NoError(t, lib.Acquire())
		assert.Equal(t, int64(1), engine.inits.Load())
		assert.Equal(t, 2, lib.Count())

		require.NoError(t, lib.Release())
		assert.Equal(t, int64(0), engine.deinits.Load())
		assert.Equal(t, 1, lib.Count())

		require.NoError(t, lib.Release())
		assert.Equal(t, int64(1), engine.deinits.Load())
		assert.Equal(t, 0, lib.Count())

		// A new acquire after teardown initializes again.
		require.NoError(t, lib.Acquire())
		assert.Equal(t, int64(2), engine.inits.Load())
		require.NoError(t, lib.Release())
	})

	t.Run("initialize failure leaves count unchanged", func(t *testing.T) {
		expectedErr := errors.New("mocked initialize error")
		lib := udpengine.NewLibrary(&countingEngine{initErr: expectedErr})
		err := lib.Acquire()
		assert.ErrorIs(t, err, expectedErr)
		assert.Equal(t, 0, lib.Count())
	})

	t.Run("release without acquire panics", func(t *testing.T) {
		lib := udpengine.NewLibrary(&countingEngine{})
		assert.Panics(t, func() {
			lib.Release()
		})
	})

	t.Run("concurrent usage", func(t *testing.T) {
		engine := &countingEngine{}
		lib := udpengine.NewLibrary(engine)

		// Keep one reference so the counter cannot hit zero
		// while the goroutines below are running.
		require.NoError(t, lib.Acquire())

		var wg sync.WaitGroup
		for i := 0; i < 64; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					if err := lib.Acquire(); err != nil {
						panic(err)
					}
					if err := lib.Release(); err != nil {
						panic(err)
					}
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(1), engine.inits.Load())
		assert.Equal(t, int64(0), engine.deinits.Load())
		assert.Equal(t, 1, lib.Count())

		require.NoError(t, lib.Release())
		assert.Equal(t, int64(1), engine.deinits.Load())
		assert.Equal(t, int64(0), engine.live.Load())
	})
}

func TestFamily(t *testing.T) {
	assert.Equal(t, udpengine.FamilyIPv4, udpengine.FamilyOf(netip.MustParseAddr("127.0.0.1")))
	assert.Equal(t, udpengine.FamilyIPv6, udpengine.FamilyOf(netip.MustParseAddr("::")))
	assert.Equal(t, udpengine.FamilyIPv6, udpengine.FamilyOf(netip.MustParseAddr("::ffff:1.2.3.4")))
	assert.Equal(t, "inet", udpengine.FamilyIPv4.String())
	assert.Equal(t, "inet6", udpengine.FamilyIPv6.String())
	assert.Equal(t, "unknown", udpengine.Family(0).String())
}
