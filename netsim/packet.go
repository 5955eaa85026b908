//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Simulated datagram.
//

package netsim

import (
	"fmt"
	"net/netip"
)

// Packet is a simulated UDP datagram.
type Packet struct {
	// SrcAddr is the source address and port.
	SrcAddr netip.AddrPort

	// DstAddr is the destination address and port.
	DstAddr netip.AddrPort

	// Payload is the datagram payload.
	Payload []byte
}

// String returns the string representation of the packet.
func (p *Packet) String() string {
	return fmt.Sprintf("%s -> %s udp length=%d", p.SrcAddr, p.DstAddr, len(p.Payload))
}
