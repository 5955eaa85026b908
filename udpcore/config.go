//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Factory configuration.
//

package udpcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbmk-project/nanosock/netipx"
	"github.com/rbmk-project/nanosock/udpengine"
)

// DefaultHost is the default host used by [*Factory.GetConnectEndPoint].
const DefaultHost = "localhost"

// DefaultPort is the default port used by the [*Factory] endpoints.
const DefaultPort = 7777

// DefaultBindHost is the default wildcard host used by
// [*Factory.GetBindEndPoint]. The IPv6 wildcard accepts
// both IPv4 and IPv6 peers on dual-stack systems.
const DefaultBindHost = "::"

// ErrInvalidConfig indicates that a [*Config] is not valid.
var ErrInvalidConfig = errors.New("udpcore: invalid config")

// Config contains configuration for a [*Factory].
//
// Construct using [NewConfig], then modify the fields you need
// before calling [NewFactory]. Do not modify a [*Config] while
// a [*Factory] is using it.
type Config struct {
	// BindHost is the wildcard IP address used by
	// [*Factory.GetBindEndPoint]. It must be an IP literal.
	BindHost string

	// Environment is the optional [Environment] used to decide
	// whether we can create sockets. If this field is nil, we
	// use [RuntimeEnvironment].
	Environment Environment

	// Host is the default host for [*Factory.GetConnectEndPoint]. It
	// may be either an IP literal or a domain name.
	Host string

	// Library is the optional [*udpengine.Library] to acquire. If this
	// field is nil, we use the library wrapping the native engine,
	// which is shared by every [*Factory] in the process.
	Library *udpengine.Library

	// Logger is the optional structured logger for emitting
	// structured diagnostic events. If this field is nil, we
	// will not be emitting structured logs.
	Logger *slog.Logger

	// LookupHostFunc is the optional function to resolve a domain
	// name to IP addresses. If this field is nil, we use the
	// default [*net.Resolver] from the [net] package.
	LookupHostFunc func(ctx context.Context, domain string) ([]string, error)

	// Port is the default port for the [*Factory] endpoints.
	Port uint16

	// ReceiveBufferSize is the socket receive buffer size in bytes. Zero
	// means using the system default.
	ReceiveBufferSize int

	// SendBufferSize is the socket send buffer size in bytes. Zero
	// means using the system default.
	SendBufferSize int

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time
}

// NewConfig creates a new [*Config] with default values.
func NewConfig() *Config {
	return &Config{
		BindHost:          DefaultBindHost,
		Environment:       nil,
		Host:              DefaultHost,
		Library:           nil,
		Logger:            nil,
		LookupHostFunc:    nil,
		Port:              DefaultPort,
		ReceiveBufferSize: udpengine.DefaultBufferSize,
		SendBufferSize:    udpengine.DefaultBufferSize,
		TimeNow:           nil,
	}
}

// validate returns an error wrapping [ErrInvalidConfig] when
// the configuration cannot be used.
func (c *Config) validate() error {
	if !netipx.IsLiteral(c.BindHost) {
		return fmt.Errorf("%w: BindHost is not an IP address: %q", ErrInvalidConfig, c.BindHost)
	}
	if c.ReceiveBufferSize < 0 {
		return fmt.Errorf("%w: negative ReceiveBufferSize: %d", ErrInvalidConfig, c.ReceiveBufferSize)
	}
	if c.SendBufferSize < 0 {
		return fmt.Errorf("%w: negative SendBufferSize: %d", ErrInvalidConfig, c.SendBufferSize)
	}
	return nil
}

// environment returns the [Environment] to use.
func (c *Config) environment() Environment {
	if c.Environment != nil {
		return c.Environment
	}
	return RuntimeEnvironment{}
}

// timeNow is a function that returns the current time.
func (c *Config) timeNow() time.Time {
	if c.TimeNow != nil {
		return c.TimeNow()
	}
	return time.Now()
}
