package probe

import (
	"context"
	"crypto/md5"
	"strings"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/omnibust/omnibust/internal/engine"
)

// Outcome status codes for DNS probes: a name that resolves maps to 200
// and NXDOMAIN to 404, so the shared filter stack treats resolution like
// any other hit/miss signal.
const (
	dnsStatusFound    = 200
	dnsStatusNotFound = 404
)

// DNS resolves candidate subdomains via a single upstream resolver.
type DNS struct {
	client *mdns.Client
	server string
}

// NewDNS creates a DNS prober. resolver is "host:port"; when empty, the
// system resolver from /etc/resolv.conf is used, falling back to Cloudflare.
func NewDNS(resolver string) *DNS {
	if resolver == "" {
		if cc, err := mdns.ClientConfigFromFile("/etc/resolv.conf"); err == nil && len(cc.Servers) > 0 {
			resolver = cc.Servers[0] + ":" + cc.Port
		} else {
			resolver = "1.1.1.1:53"
		}
	} else if !strings.Contains(resolver, ":") {
		resolver += ":53"
	}
	return &DNS{
		client: new(mdns.Client),
		server: resolver,
	}
}

// Probe looks up A then AAAA records for the descriptor's host. NXDOMAIN
// and empty answers are valid misses, not errors; only transport failures
// (timeouts, refused connections) return an error so the engine retries.
func (p *DNS) Probe(ctx context.Context, d engine.Descriptor) (*engine.Outcome, error) {
	start := time.Now()

	var addrs []string
	var cname string
	rcode := mdns.RcodeSuccess

	for _, qtype := range []uint16{mdns.TypeA, mdns.TypeAAAA} {
		m := new(mdns.Msg)
		m.SetQuestion(mdns.Fqdn(d.Host), qtype)
		m.RecursionDesired = true

		in, _, err := p.client.ExchangeContext(ctx, m, p.server)
		if err != nil {
			return nil, err
		}
		if in.Rcode == mdns.RcodeNameError {
			rcode = in.Rcode
			break // NXDOMAIN is definitive, no point asking for AAAA
		}
		for _, rr := range in.Answer {
			switch a := rr.(type) {
			case *mdns.A:
				addrs = append(addrs, a.A.String())
			case *mdns.AAAA:
				addrs = append(addrs, a.AAAA.String())
			case *mdns.CNAME:
				cname = strings.TrimSuffix(a.Target, ".")
			}
		}
	}

	status := dnsStatusNotFound
	if rcode == mdns.RcodeSuccess && len(addrs) > 0 {
		status = dnsStatusFound
	}

	// Body carries the resolved addresses so regex filters and baseline
	// hashing work uniformly across modes.
	body := []byte(strings.Join(addrs, ","))

	return &engine.Outcome{
		Descriptor:    d,
		StatusCode:    status,
		ContentLength: int64(len(body)),
		Body:          body,
		BodyHash:      md5.Sum(body),
		URL:           d.Host,
		RedirectURL:   cname,
		Addrs:         addrs,
		Duration:      time.Since(start),
	}, nil
}
