// SPDX-License-Identifier: GPL-3.0-or-later

package netsim

import (
	"bytes"
	"net/netip"
	"sync"
	"time"
)

// Blackholer is a [*Network] filter that blackholes UDP flows, with
// optional destination and payload matching. Once a flow is
// blackholed, all its datagrams are dropped for the configured
// duration. Install it using [*Network.SetFilter]:
//
//	n.SetFilter(netsim.NewBlackholer(time.Minute, target, nil).Filter)
type Blackholer struct {
	// target specifies an optional specific endpoint to filter
	// if zero, applies to all flows.
	target netip.AddrPort

	// pattern is an optional byte pattern to match in payload
	// if nil, only considers the target (if set).
	pattern []byte

	// duration specifies how long to maintain blackholing state.
	duration time.Duration

	// TimeNow is an optional function that returns the current time.
	// If this field is nil, the [time.Now] function will be used.
	TimeNow func() time.Time

	// mu protects access to blocked.
	mu sync.Mutex

	// blocked tracks blackholed flows.
	blocked map[flow]time.Time
}

// flow identifies a UDP flow.
type flow struct {
	src netip.AddrPort
	dst netip.AddrPort
}

// NewBlackholer creates a new [*Blackholer] instance.
//
// The duration parameter controls how long flows remain blackholed.
//
// If target is zero, it applies to all flows.
//
// If pattern is nil, it doesn't perform payload matching.
func NewBlackholer(duration time.Duration, target netip.AddrPort, pattern []byte) *Blackholer {
	return &Blackholer{
		target:   target,
		pattern:  pattern,
		duration: duration,
		mu:       sync.Mutex{},
		blocked:  make(map[flow]time.Time),
	}
}

// Filter returns false for datagrams that should be dropped.
func (b *Blackholer) Filter(pkt *Packet) bool {
	// Check if this flow is already blocked
	key := flow{src: pkt.SrcAddr, dst: pkt.DstAddr}
	now := b.timeNow()
	b.mu.Lock()
	deadline, ok := b.blocked[key]
	blocked := ok && now.Before(deadline)
	if ok && !blocked {
		delete(b.blocked, key)
	}
	b.mu.Unlock()
	if blocked {
		return false
	}

	// Check if we need to filter specific endpoint
	if b.target.IsValid() && pkt.DstAddr != b.target {
		return true
	}

	// If we have a pattern, check payload
	if b.pattern != nil && !bytes.Contains(pkt.Payload, b.pattern) {
		return true
	}

	// Block this flow
	b.mu.Lock()
	b.blocked[key] = now.Add(b.duration)
	b.mu.Unlock()
	return false
}

// timeNow is a function that returns the current time.
func (b *Blackholer) timeNow() time.Time {
	if b.TimeNow != nil {
		return b.TimeNow()
	}
	return time.Now()
}
