// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package udpengine defines the contract between sockets and the native
UDP engine that actually moves datagrams.

An [Engine] exposes a small set of primitives (create, bind, connect,
poll, send, receive, destroy) operating on opaque [Handle] values, plus
a library-wide [Engine.Initialize] and [Engine.Deinitialize] pair. The
[Library] type reference counts the library-wide state so that many
independent users within the same process can share one engine.

Implementations live in subpackages (e.g., sysudp) and in packages
providing alternative transports (e.g., a simulated network).

All the primitives are non-blocking. When no datagram is available,
[Engine.Receive] returns [ErrWouldBlock], which is a normal outcome
rather than a failure.
*/
package udpengine
