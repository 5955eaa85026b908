//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Internal code for DNS lookups.
//

package udpcore

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/rbmk-project/nanosock/errclass"
	"github.com/rbmk-project/nanosock/netipx"
)

// maybeLookupHost resolves a domain name to IP addresses unless the domain
// is already an IP address, in which case we short circuit the lookup.
func (fx *Factory) maybeLookupHost(ctx context.Context, domain string) ([]string, error) {
	// handle the case where domain is already an IP address
	if netipx.IsLiteral(domain) {
		return []string{domain}, nil
	}

	// Emit structured event before the lookup
	t0 := fx.emitLookupHostStart(ctx, domain)

	// Perform the actual lookup
	addrs, err := fx.doLookupHost(ctx, domain)

	// Emit structured event after the lookup
	fx.emitLookupHostDone(ctx, domain, t0, addrs, err)

	// Returns results to the caller
	return addrs, err
}

// doLookupHost performs the DNS lookup.
func (fx *Factory) doLookupHost(ctx context.Context, domain string) ([]string, error) {
	// if there is a custom LookupHostFunc, use it
	if fx.config.LookupHostFunc != nil {
		return fx.config.LookupHostFunc(ctx, domain)
	}

	// otherwise fallback to the system resolver
	reso := &net.Resolver{}
	return reso.LookupHost(ctx, domain)
}

// emitLookupHostStart emits a structured event before the lookup.
func (fx *Factory) emitLookupHostStart(ctx context.Context, domain string) time.Time {
	t0 := fx.config.timeNow()
	if fx.config.Logger != nil {
		fx.config.Logger.InfoContext(
			ctx,
			"lookupHostStart",
			slog.String("dnsLookupDomain", domain),
			slog.Time("t", t0),
		)
	}
	return t0
}

// emitLookupHostDone emits a structured event after the lookup.
func (fx *Factory) emitLookupHostDone(ctx context.Context,
	domain string, t0 time.Time, addrs []string, err error) {
	if fx.config.Logger != nil {
		fx.config.Logger.InfoContext(
			ctx,
			"lookupHostDone",
			slog.String("dnsLookupDomain", domain),
			slog.Any("dnsResolvedAddrs", addrs),
			slog.Any("err", err),
			slog.String("errClass", errclass.New(err)),
			slog.Time("t0", t0),
			slog.Time("t", fx.config.timeNow()),
		)
	}
}
