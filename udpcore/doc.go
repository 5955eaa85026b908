// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package udpcore provides non-blocking UDP sockets and endpoints for
game-networking middleware.

The middleware sees two interfaces: [Socket] and [EndPoint]. A
[*Factory] produces sockets for the client and server roles, resolves
the configured host and port into endpoints, and manages the
reference-counted lifecycle of the underlying [udpengine.Engine].

A typical server binds once and then, at every tick of its loop,
drains the socket:

	sock, _ := factory.CreateServerSocket()
	local, _ := factory.GetBindEndPoint()
	_ = sock.Bind(local)
	buf := make([]byte, 1500)
	for sock.Poll() {
		count, from, err := sock.Receive(buf)
		// ...
	}

No operation blocks, and there are no timeouts at this layer.

# Features

- [Address] and [IPEndPoint], comparable values usable as map keys;

- [*UDPSocket] over any [udpengine.Engine] (native or simulated);

- [NewDNSLookupHostFunc] to resolve names through a given DNS server;

- structured logs via [log/slog], with errors classified by errclass.

# Design Documents

This package is experimental and has no design documents for now.
*/
package udpcore
