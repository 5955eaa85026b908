// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package netsim provides a simulated UDP network that developers can use
to write deterministic tests and to run the sockets of this module
without touching the host network.

# Usage and Features

The [NewNetwork] function creates a [*Network] owning a given set of IP
addresses in addition to the loopback addresses. A [*Network] implements
[udpengine.Engine], so it can be wrapped by a [udpengine.Library] and
passed to the socket factory instead of the native engine.

Sockets created on the same [*Network] exchange datagrams through
in-memory queues. Like the kernel, the simulation:

- refuses to bind addresses the network does not own ([EADDRNOTAVAIL]);

- refuses to bind a port already in use ([EADDRINUSE]);

- assigns ephemeral ports starting from 49152;

- lets connected sockets receive only datagrams from their peer;

- silently drops datagrams for which there is no receiver, as
  well as datagrams exceeding the bounded receive queue.

The [*Network.SetFilter] method installs a hook that sees every
[*Packet] and may drop it, which is useful to simulate loss. The
[*Blackholer] filter drops whole flows matching a destination or
a payload pattern for a given duration.

The errors returned by this package are the same [syscall.Errno] the
kernel would generate in similar cases (we use the [x/sys] repository
to pull system-dependent error values).

# Design Documents

This package is experimental and has no design documents for now.
*/
package netsim
