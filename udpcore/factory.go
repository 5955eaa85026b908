//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Socket and endpoint factory.
//

package udpcore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rbmk-project/nanosock/errclass"
	"github.com/rbmk-project/nanosock/udpengine"
)

// defaultLibrary is the [*udpengine.Library] shared by every
// [*Factory] whose [*Config] does not set a Library.
var defaultLibrary = udpengine.NewLibrary(newDefaultEngine())

// DefaultLibrary returns the [*udpengine.Library] wrapping the native
// engine, which factories use unless configured otherwise.
func DefaultLibrary() *udpengine.Library {
	return defaultLibrary
}

// Factory creates sockets and endpoints.
//
// Each live [*Factory] holds a reference to its [*udpengine.Library],
// so the engine is initialized while at least one factory exists.
// Sockets created by a factory must be closed before the factory.
//
// A [*Factory] is safe for concurrent use by multiple goroutines
// as long as its [*Config] is not modified after construction.
//
// Construct using [NewFactory].
type Factory struct {
	closeonce sync.Once
	config    *Config
	library   *udpengine.Library
}

// NewFactory validates the config and acquires the library, which
// initializes the engine if no other factory is holding it.
//
// The returned error either wraps [ErrInvalidConfig] or is the
// engine initialization error.
func NewFactory(config *Config) (*Factory, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	library := config.Library
	if library == nil {
		library = defaultLibrary
	}
	fx := &Factory{config: config, library: library}
	if err := fx.acquire(); err != nil {
		return nil, err
	}
	return fx, nil
}

// acquire acquires the library and logs the result.
func (fx *Factory) acquire() error {
	err := fx.library.Acquire()
	fx.emitLibraryEvent("libraryAcquire", err)
	return err
}

// Close releases the library, deinitializing the engine when this
// is the last live factory. Subsequent calls are no-ops.
func (fx *Factory) Close() (err error) {
	fx.closeonce.Do(func() {
		err = fx.library.Release()
		fx.emitLibraryEvent("libraryRelease", err)
	})
	return
}

// emitLibraryEvent emits a debug event about the library count.
func (fx *Factory) emitLibraryEvent(msg string, err error) {
	if fx.config.Logger != nil {
		fx.config.Logger.Debug(
			msg,
			slog.Int("libraryCount", fx.library.Count()),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.Time("t", fx.config.timeNow()),
		)
	}
}

// CreateClientSocket creates a new unbound [Socket] meant to be connected.
//
// The returned error is [ErrUnsupportedPlatform] when the environment
// cannot host raw UDP sockets; no socket is allocated in such a case.
func (fx *Factory) CreateClientSocket() (Socket, error) {
	return fx.createSocket()
}

// CreateServerSocket creates a new unbound [Socket] meant to be bound.
//
// The returned error is [ErrUnsupportedPlatform] when the environment
// cannot host raw UDP sockets; no socket is allocated in such a case.
func (fx *Factory) CreateServerSocket() (Socket, error) {
	return fx.createSocket()
}

// createSocket creates a new, possibly wrapped, [Socket].
func (fx *Factory) createSocket() (Socket, error) {
	if !fx.config.environment().SupportsRawSockets() {
		return nil, ErrUnsupportedPlatform
	}
	sock := NewUDPSocket(
		fx.library.Engine(),
		fx.config.SendBufferSize,
		fx.config.ReceiveBufferSize,
	)
	return fx.maybeWrapSocket(sock), nil
}

// GetBindEndPoint returns the wildcard [EndPoint] servers bind to,
// using the configured BindHost and Port.
func (fx *Factory) GetBindEndPoint() (EndPoint, error) {
	ep, err := NewEndPoint(fx.config.BindHost, fx.config.Port)
	if err != nil {
		return nil, err
	}
	return ep, nil
}

// GetConnectEndPoint returns the [EndPoint] clients connect to.
//
// An empty host selects the configured Host and a zero port selects the
// configured Port. IP literals are used as is; domain names are resolved
// and we use the first address. The returned error wraps [ErrHostResolution]
// when the lookup fails or returns no addresses.
func (fx *Factory) GetConnectEndPoint(ctx context.Context, host string, port uint16) (EndPoint, error) {
	if host == "" {
		host = fx.config.Host
	}
	if port == 0 {
		port = fx.config.Port
	}
	addrs, err := fx.maybeLookupHost(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHostResolution, host, err)
	}
	if len(addrs) <= 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrHostResolution, host)
	}
	ep, err := NewEndPoint(addrs[0], port)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrHostResolution, host, err)
	}
	return ep, nil
}
