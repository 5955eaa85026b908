//go:build unix || windows

// SPDX-License-Identifier: GPL-3.0-or-later

package udpcore

import (
	"context"

	"github.com/rbmk-project/dnscore"
)

// NewDNSLookupHostFunc returns a function suitable for [Config.LookupHostFunc]
// that resolves domain names using DNS-over-UDP with the given server
// (e.g., "8.8.8.8:53"), instead of the system resolver.
//
// The function queries for A and AAAA records and returns the IPv4
// addresses before the IPv6 addresses.
func NewDNSLookupHostFunc(server string) func(ctx context.Context, domain string) ([]string, error) {
	config := dnscore.NewConfig()
	config.AddServer(dnscore.NewServerAddr(dnscore.ProtocolUDP, server))
	reso := &dnscore.Resolver{
		Config:    config,
		Transport: &dnscore.Transport{},
	}
	return reso.LookupHost
}
