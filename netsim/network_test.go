// SPDX-License-Identifier: GPL-3.0-or-later

package netsim_test

import (
	"net/netip"
	"testing"
	"time"

	"github.com/rbmk-project/nanosock/netsim"
	"github.com/rbmk-project/nanosock/udpengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newInitializedNetwork creates and initializes a [*netsim.Network].
func newInitializedNetwork(t *testing.T, addrs ...netip.Addr) *netsim.Network {
	n := netsim.NewNetwork(addrs...)
	require.NoError(t, n.Initialize())
	t.Cleanup(func() { n.Deinitialize() })
	return n
}

// mustBind creates a socket and binds it to the given address.
func mustBind(t *testing.T, n *netsim.Network, addr string) (udpengine.Handle, netip.AddrPort) {
	ap := netip.MustParseAddrPort(addr)
	h, err := n.Create(udpengine.FamilyOf(ap.Addr()), 0, 0)
	require.NoError(t, err)
	require.NoError(t, n.Bind(h, ap))
	local, err := n.LocalAddr(h)
	require.NoError(t, err)
	return h, local
}

func TestNetworkLifecycle(t *testing.T) {
	t.Run("create before initialize", func(t *testing.T) {
		n := netsim.NewNetwork()
		h, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		assert.ErrorIs(t, err, udpengine.ErrNotInitialized)
		assert.Equal(t, udpengine.InvalidHandle, h)
	})

	t.Run("unknown family", func(t *testing.T) {
		n := newInitializedNetwork(t)
		_, err := n.Create(udpengine.Family(0), 0, 0)
		assert.ErrorIs(t, err, netsim.EAFNOSUPPORT)
	})

	t.Run("destroy invalidates the handle", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, local := mustBind(t, n, "127.0.0.1:9001")
		require.NoError(t, n.Destroy(h))

		_, err := n.Poll(h, 0)
		assert.ErrorIs(t, err, udpengine.ErrInvalidHandle)
		assert.ErrorIs(t, n.Destroy(h), udpengine.ErrInvalidHandle)

		// The port is free again.
		_, again := mustBind(t, n, local.String())
		assert.Equal(t, local, again)
	})

	t.Run("deinitialize closes leftover sockets", func(t *testing.T) {
		n := netsim.NewNetwork()
		require.NoError(t, n.Initialize())
		h, local := mustBind(t, n, "127.0.0.1:9001")
		require.NoError(t, n.Deinitialize())

		_, err := n.LocalAddr(h)
		assert.ErrorIs(t, err, udpengine.ErrInvalidHandle)

		require.NoError(t, n.Initialize())
		defer n.Deinitialize()
		_, again := mustBind(t, n, local.String())
		assert.Equal(t, local, again)
	})
}

func TestNetworkBind(t *testing.T) {
	t.Run("ephemeral ports", func(t *testing.T) {
		n := newInitializedNetwork(t)
		_, first := mustBind(t, n, "127.0.0.1:0")
		_, second := mustBind(t, n, "127.0.0.1:0")
		assert.Equal(t, uint16(49152), first.Port())
		assert.Equal(t, uint16(49153), second.Port())
	})

	t.Run("address in use", func(t *testing.T) {
		n := newInitializedNetwork(t)
		mustBind(t, n, "0.0.0.0:7777")
		h, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)
		err = n.Bind(h, netip.MustParseAddrPort("127.0.0.1:7777"))
		assert.ErrorIs(t, err, netsim.EADDRINUSE)
	})

	t.Run("address not owned", func(t *testing.T) {
		n := newInitializedNetwork(t, netip.MustParseAddr("10.0.0.1"))
		h, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)
		err = n.Bind(h, netip.MustParseAddrPort("10.0.0.2:7777"))
		assert.ErrorIs(t, err, netsim.EADDRNOTAVAIL)
		assert.NoError(t, n.Bind(h, netip.MustParseAddrPort("10.0.0.1:7777")))
	})

	t.Run("double bind", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, _ := mustBind(t, n, "127.0.0.1:0")
		err := n.Bind(h, netip.MustParseAddrPort("127.0.0.1:0"))
		assert.ErrorIs(t, err, netsim.EINVAL)
	})

	t.Run("IPv4 socket with IPv6 address", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)
		err = n.Bind(h, netip.MustParseAddrPort("[::1]:7777"))
		assert.ErrorIs(t, err, netsim.EAFNOSUPPORT)
	})

	t.Run("unbound local address", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, err := n.Create(udpengine.FamilyIPv6, 0, 0)
		require.NoError(t, err)
		local, err := n.LocalAddr(h)
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddrPort("[::]:0"), local)
	})
}

func TestNetworkDatagrams(t *testing.T) {
	t.Run("nothing to read", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, _ := mustBind(t, n, "127.0.0.1:9001")

		ok, err := n.Poll(h, 0)
		require.NoError(t, err)
		assert.False(t, ok)

		count, from, err := n.Receive(h, make([]byte, 8))
		assert.ErrorIs(t, err, udpengine.ErrWouldBlock)
		assert.Zero(t, count)
		assert.False(t, from.IsValid())
	})

	t.Run("send and receive", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, clientAddr := mustBind(t, n, "127.0.0.1:0")

		count, err := n.Send(client, serverAddr, []byte{1, 2, 3})
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		ok, err := n.Poll(server, 0)
		require.NoError(t, err)
		assert.True(t, ok)

		buf := make([]byte, 8)
		count, from, err := n.Receive(server, buf)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, buf[:count])
		assert.Equal(t, clientAddr, from)
	})

	t.Run("payload is copied", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, _ := mustBind(t, n, "127.0.0.1:0")

		data := []byte("abc")
		_, err := n.Send(client, serverAddr, data)
		require.NoError(t, err)
		data[0] = 'x'

		buf := make([]byte, 8)
		count, _, err := n.Receive(server, buf)
		require.NoError(t, err)
		assert.Equal(t, "abc", string(buf[:count]))
	})

	t.Run("short buffer truncates", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, _ := mustBind(t, n, "127.0.0.1:0")

		_, err := n.Send(client, serverAddr, []byte("abcdef"))
		require.NoError(t, err)

		buf := make([]byte, 2)
		count, _, err := n.Receive(server, buf)
		require.NoError(t, err)
		assert.Equal(t, "ab", string(buf[:count]))

		_, _, err = n.Receive(server, buf)
		assert.ErrorIs(t, err, udpengine.ErrWouldBlock)
	})

	t.Run("dual-stack socket sees IPv4 peers", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, err := n.Create(udpengine.FamilyIPv6, 0, 0)
		require.NoError(t, err)
		require.NoError(t, n.Bind(server, netip.MustParseAddrPort("[::]:7777")))
		client, clientAddr := mustBind(t, n, "127.0.0.1:0")

		_, err = n.Send(client, netip.MustParseAddrPort("127.0.0.1:7777"), []byte{1})
		require.NoError(t, err)

		_, from, err := n.Receive(server, make([]byte, 8))
		require.NoError(t, err)
		assert.Equal(t, clientAddr, from)
	})

	t.Run("connected socket filters peers", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		other, _ := mustBind(t, n, "127.0.0.1:0")

		client, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)
		require.NoError(t, n.Connect(client, serverAddr))
		local, err := n.LocalAddr(client)
		require.NoError(t, err)
		clientAddr := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), local.Port())

		_, err = n.Send(other, clientAddr, []byte("spoof"))
		require.NoError(t, err)
		_, err = n.Send(server, clientAddr, []byte("reply"))
		require.NoError(t, err)

		buf := make([]byte, 8)
		count, from, err := n.Receive(client, buf)
		require.NoError(t, err)
		assert.Equal(t, "reply", string(buf[:count]))
		assert.Equal(t, serverAddr, from)

		_, _, err = n.Receive(client, buf)
		assert.ErrorIs(t, err, udpengine.ErrWouldBlock)
	})

	t.Run("connected socket uses the default peer", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)
		require.NoError(t, n.Connect(client, serverAddr))

		_, err = n.Send(client, netip.AddrPort{}, []byte("hi"))
		require.NoError(t, err)
		ok, err := n.Poll(server, 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not connected", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, _ := mustBind(t, n, "127.0.0.1:0")
		_, err := n.Send(h, netip.AddrPort{}, []byte("hi"))
		assert.ErrorIs(t, err, netsim.ENOTCONN)
	})

	t.Run("message too long", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, _ := mustBind(t, n, "127.0.0.1:0")
		_, err := n.Send(h, netip.MustParseAddrPort("127.0.0.1:9001"), make([]byte, 70000))
		assert.ErrorIs(t, err, netsim.EMSGSIZE)
	})

	t.Run("no receiver", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, _ := mustBind(t, n, "127.0.0.1:0")
		count, err := n.Send(h, netip.MustParseAddrPort("127.0.0.1:9001"), []byte("void"))
		assert.NoError(t, err)
		assert.Equal(t, 4, count)
	})

	t.Run("no route", func(t *testing.T) {
		n := newInitializedNetwork(t)
		h, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)
		_, err = n.Send(h, netip.MustParseAddrPort("8.8.8.8:53"), []byte("query"))
		assert.ErrorIs(t, err, netsim.EHOSTUNREACH)
	})

	t.Run("owned address as source", func(t *testing.T) {
		n := newInitializedNetwork(t, netip.MustParseAddr("10.0.0.1"))
		server, serverAddr := mustBind(t, n, "10.0.0.1:9001")
		client, err := n.Create(udpengine.FamilyIPv4, 0, 0)
		require.NoError(t, err)

		_, err = n.Send(client, serverAddr, []byte{1})
		require.NoError(t, err)
		_, from, err := n.Receive(server, make([]byte, 8))
		require.NoError(t, err)
		assert.Equal(t, netip.MustParseAddr("10.0.0.1"), from.Addr())
		assert.Equal(t, uint16(49152), from.Port())
	})

	t.Run("bounded queue drops", func(t *testing.T) {
		n := newInitializedNetwork(t)
		n.SetQueueSize(2)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, _ := mustBind(t, n, "127.0.0.1:0")

		for i := byte(0); i < 5; i++ {
			_, err := n.Send(client, serverAddr, []byte{i})
			require.NoError(t, err)
		}

		buf := make([]byte, 8)
		var got []byte
		for {
			count, _, err := n.Receive(server, buf)
			if err != nil {
				assert.ErrorIs(t, err, udpengine.ErrWouldBlock)
				break
			}
			got = append(got, buf[:count]...)
		}
		assert.Equal(t, []byte{0, 1}, got)
	})

	t.Run("filter drops packets", func(t *testing.T) {
		n := newInitializedNetwork(t)
		var seen []string
		n.SetFilter(func(pkt *netsim.Packet) bool {
			seen = append(seen, pkt.String())
			return pkt.Payload[0]%2 == 0
		})
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, _ := mustBind(t, n, "127.0.0.1:49999")

		for i := byte(0); i < 4; i++ {
			_, err := n.Send(client, serverAddr, []byte{i})
			require.NoError(t, err)
		}

		buf := make([]byte, 8)
		var got []byte
		for {
			count, _, err := n.Receive(server, buf)
			if err != nil {
				break
			}
			got = append(got, buf[:count]...)
		}
		assert.Equal(t, []byte{0, 2}, got)
		assert.Len(t, seen, 4)
		assert.Equal(t, "127.0.0.1:49999 -> 127.0.0.1:9001 udp length=1", seen[0])
	})

	t.Run("poll with timeout", func(t *testing.T) {
		n := newInitializedNetwork(t)
		server, serverAddr := mustBind(t, n, "127.0.0.1:9001")
		client, _ := mustBind(t, n, "127.0.0.1:0")

		go func() {
			time.Sleep(5 * time.Millisecond)
			n.Send(client, serverAddr, []byte{1})
		}()

		ok, err := n.Poll(server, 5*time.Second)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
