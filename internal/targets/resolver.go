package targets

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolver rejects public-looking hostnames that resolve to local
// addresses, e.g. a DNS record pointing at 127.0.0.1.
type Resolver struct {
	client *dns.Client
	server string
}

func NewResolver(server string, timeout time.Duration) *Resolver {
	if server == "" {
		server = "8.8.8.8:53"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		client: &dns.Client{Timeout: timeout},
		server: server,
	}
}

// Lookup returns the A and AAAA addresses of host.
func (r *Resolver) Lookup(ctx context.Context, host string) ([]net.IP, error) {
	var ips []net.IP
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qtype)
		m.RecursionDesired = true

		resp, _, err := r.client.ExchangeContext(ctx, m, r.server)
		if err != nil {
			return nil, fmt.Errorf("dns query failed: %w", err)
		}
		if resp.Rcode != dns.RcodeSuccess {
			if resp.Rcode == dns.RcodeNameError {
				return nil, fmt.Errorf("%w: host %s does not exist", ErrInvalidURL, host)
			}
			return nil, fmt.Errorf("dns query failed with code: %s", dns.RcodeToString[resp.Rcode])
		}

		for _, ans := range resp.Answer {
			switch rr := ans.(type) {
			case *dns.A:
				ips = append(ips, rr.A)
			case *dns.AAAA:
				ips = append(ips, rr.AAAA)
			}
		}
	}
	return ips, nil
}

// CheckHost fails when host resolves to nothing or to a local address.
func (r *Resolver) CheckHost(ctx context.Context, host string) error {
	if ip := net.ParseIP(host); ip != nil {
		if IsLocalIP(ip) {
			return fmt.Errorf("%w: local and private addresses cannot be monitored", ErrInvalidURL)
		}
		return nil
	}

	ips, err := r.Lookup(ctx, host)
	if err != nil {
		return err
	}
	if len(ips) == 0 {
		return fmt.Errorf("%w: host %s has no A or AAAA records", ErrInvalidURL, host)
	}
	for _, ip := range ips {
		if IsLocalIP(ip) {
			return fmt.Errorf("%w: host %s resolves to local address %s", ErrInvalidURL, host, ip)
		}
	}
	return nil
}

// Validator normalizes URLs and, when a resolver is configured, checks
// where their host points.
type Validator struct {
	resolver *Resolver
}

func NewValidator(resolver *Resolver) *Validator {
	return &Validator{resolver: resolver}
}

func (v *Validator) Validate(ctx context.Context, rawURL string) (string, error) {
	normalized, err := Normalize(rawURL)
	if err != nil {
		return "", err
	}
	if v == nil || v.resolver == nil {
		return normalized, nil
	}
	if err := v.resolver.CheckHost(ctx, Hostname(normalized)); err != nil {
		return "", err
	}
	return normalized, nil
}
