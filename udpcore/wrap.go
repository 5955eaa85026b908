//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Socket wrapper.
//

package udpcore

import (
	"context"
	"log/slog"
	"time"

	"github.com/rbmk-project/nanosock/errclass"
)

// maybeWrapSocket wraps a socket when it makes sense to do so.
func (fx *Factory) maybeWrapSocket(sock Socket) Socket {
	if sock != nil && fx.config.Logger != nil {
		sock = WrapSocket(context.Background(), fx.config.Logger, fx.config.TimeNow, sock)
	}
	return sock
}

// WrapSocket wraps a given [Socket] to emit structured logs using the
// given logger. The timeNow argument may be nil, in which case we use
// [time.Now]. The context is only used for logging.
//
// Receive only logs when it returns a datagram or an error, since
// callers invoke it on every tick.
func WrapSocket(ctx context.Context, logger *slog.Logger, timeNow func() time.Time, sock Socket) Socket {
	if timeNow == nil {
		timeNow = time.Now
	}
	return &socketWrapper{
		ctx:     ctx,
		laddr:   "",
		logger:  logger,
		raddr:   "",
		sock:    sock,
		timeNow: timeNow,
	}
}

// socketWrapper wraps a [Socket].
type socketWrapper struct {
	ctx     context.Context // only used for logging
	laddr   string
	logger  *slog.Logger
	raddr   string
	sock    Socket
	timeNow func() time.Time
}

var _ Socket = &socketWrapper{}

// Bind implements [Socket].
func (c *socketWrapper) Bind(local EndPoint) error {
	t0 := c.timeNow()
	c.logger.InfoContext(
		c.ctx,
		"bindStart",
		slog.String("localAddr", endpointString(local)),
		slog.String("protocol", "udp"),
		slog.Time("t", t0),
	)

	err := c.sock.Bind(local)
	c.laddr = c.localAddr(err, local)

	c.logger.InfoContext(
		c.ctx,
		"bindDone",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return err
}

// Connect implements [Socket].
func (c *socketWrapper) Connect(remote EndPoint) error {
	t0 := c.timeNow()
	raddr := endpointString(remote)
	c.logger.InfoContext(
		c.ctx,
		"connectStart",
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", raddr),
		slog.Time("t", t0),
	)

	err := c.sock.Connect(remote)
	c.laddr = c.localAddr(err, nil)
	if err == nil {
		c.raddr = raddr
	}

	c.logger.InfoContext(
		c.ctx,
		"connectDone",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", raddr),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return err
}

// localAddr returns the local address to log after Bind or Connect.
func (c *socketWrapper) localAddr(err error, fallback EndPoint) string {
	if err != nil {
		return ""
	}
	if local, err := c.sock.LocalEndPoint(); err == nil {
		return local.String()
	}
	return endpointString(fallback)
}

// Close implements [Socket].
func (c *socketWrapper) Close() error {
	t0 := c.timeNow()
	c.logger.InfoContext(
		c.ctx,
		"closeStart",
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", c.raddr),
		slog.Time("t", t0),
	)

	err := c.sock.Close()

	c.logger.InfoContext(
		c.ctx,
		"closeDone",
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", c.raddr),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return err
}

// Poll implements [Socket].
func (c *socketWrapper) Poll() bool {
	return c.sock.Poll()
}

// Receive implements [Socket].
func (c *socketWrapper) Receive(buf []byte) (int, EndPoint, error) {
	t0 := c.timeNow()
	count, from, err := c.sock.Receive(buf)
	if from == nil && err == nil {
		return count, from, err
	}

	c.logger.InfoContext(
		c.ctx,
		"recvFromDone",
		slog.Int("ioBufferSize", len(buf)),
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", endpointString(from)),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return count, from, err
}

// Send implements [Socket].
func (c *socketWrapper) Send(to EndPoint, data []byte) error {
	t0 := c.timeNow()
	raddr := endpointString(to)
	c.logger.InfoContext(
		c.ctx,
		"sendToStart",
		slog.Int("ioBufferSize", len(data)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", raddr),
		slog.Time("t", t0),
	)

	err := c.sock.Send(to, data)

	c.logger.InfoContext(
		c.ctx,
		"sendToDone",
		slog.Int("ioBufferSize", len(data)),
		slog.Any("err", err),
		slog.String("errClass", errclass.New(err)),
		slog.String("localAddr", c.laddr),
		slog.String("protocol", "udp"),
		slog.String("remoteAddr", raddr),
		slog.Time("t0", t0),
		slog.Time("t", c.timeNow()),
	)
	return err
}

// LocalEndPoint implements [Socket].
func (c *socketWrapper) LocalEndPoint() (EndPoint, error) {
	return c.sock.LocalEndPoint()
}

// endpointString is a nil-safe way to format an [EndPoint].
func endpointString(ep EndPoint) string {
	if ep == nil {
		return ""
	}
	return ep.String()
}
