package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	netmail "net/mail"
	"strings"

	"blitiri.com.ar/go/spf"
	"github.com/Goofygiraffe06/prepwise/internal/logging"
)

var ErrRelayUnresolved = errors.New("relay host has no addresses")

// SenderPolicy checks whether the From domain's SPF record authorizes the relay we hand
// mail to. A relay outside the policy gets our DKIM-signed mail rejected or junked.
type SenderPolicy struct {
	resolver spf.DNSResolver
}

// NewSenderPolicy uses resolver for every DNS query; nil means net.DefaultResolver.
func NewSenderPolicy(resolver spf.DNSResolver) *SenderPolicy {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &SenderPolicy{resolver: resolver}
}

// Check evaluates the SPF policy of from's domain for every address of relayAddr and
// returns the first result that is not a pass, or spf.Pass.
func (p *SenderPolicy) Check(ctx context.Context, relayAddr, from string) (spf.Result, error) {
	sender, err := netmail.ParseAddress(from)
	if err != nil {
		return spf.None, fmt.Errorf("sender address: %w", err)
	}
	_, domain, _ := strings.Cut(sender.Address, "@")

	ips, err := p.relayIPs(ctx, relayAddr)
	if err != nil {
		return spf.TempError, err
	}

	for _, ip := range ips {
		res, err := spf.CheckHostWithSender(ip, domain, sender.Address,
			spf.WithContext(ctx),
			spf.WithResolver(p.resolver),
		)
		logging.DebugLog("SPF check result=%s domain=%s relay=%s", res, domain, ip)
		if res != spf.Pass {
			return res, err
		}
	}
	return spf.Pass, nil
}

func (p *SenderPolicy) relayIPs(ctx context.Context, relayAddr string) ([]net.IP, error) {
	host, _, err := net.SplitHostPort(relayAddr)
	if err != nil {
		return nil, fmt.Errorf("relay address: %w", err)
	}
	if ip := net.ParseIP(host); ip != nil {
		return []net.IP{ip}, nil
	}

	addrs, err := p.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve relay: %w", err)
	}
	if len(addrs) == 0 {
		return nil, ErrRelayUnresolved
	}
	ips := make([]net.IP, 0, len(addrs))
	for _, a := range addrs {
		ips = append(ips, a.IP)
	}
	return ips, nil
}
