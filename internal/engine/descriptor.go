package engine

import (
	"context"
	"time"
)

// Mode selects the request-generation strategy for a session.
type Mode int

const (
	ModeDir Mode = iota
	ModeDNS
	ModeVHost
	ModeFuzz
)

func (m Mode) String() string {
	switch m {
	case ModeDir:
		return "dir"
	case ModeDNS:
		return "dns"
	case ModeVHost:
		return "vhost"
	case ModeFuzz:
		return "fuzz"
	}
	return "unknown"
}

// Descriptor is one unit of work for the worker pool: a single candidate
// derived from a wordlist entry. Immutable once created.
type Descriptor struct {
	Mode  Mode
	Scope string // enumeration context: dir path prefix, DNS zone, vhost base, fuzz template URL
	Word  string // the wordlist entry this candidate was derived from
	Depth int    // 0 for seed descriptors, parent+1 for recursed ones

	Method  string            // HTTP method. Empty defaults to GET.
	Path    string            // dir mode: URL path relative to the base target
	Host    string            // vhost: Host header override; dns: name to resolve
	URL     string            // fuzz mode: fully substituted URL
	Headers map[string]string // fuzz mode: substituted extra headers
	Body    string            // fuzz mode: substituted request body
}

// Outcome holds the result of probing one descriptor. Every descriptor
// submitted to a session yields exactly one outcome: retries collapse into
// the final attempt's result, or a terminal Err after the retry budget is
// exhausted.
type Outcome struct {
	Descriptor    Descriptor
	StatusCode    int
	ContentLength int64
	Body          []byte   // raw body, retained only when body rules are active
	BodyHash      [16]byte // MD5
	WordCount     int
	LineCount     int
	URL           string
	RedirectURL   string
	Addrs         []string // dns mode: resolved addresses
	Duration      time.Duration
	Err           error // terminal error; outcome carries no response data when set
}

// Finding is an accepted outcome, the only artifact crossing the engine
// boundary to reporting.
type Finding struct {
	Outcome Outcome

	// Unverified is set when wildcard calibration failed for the finding's
	// scope: the result could not be checked against a baseline and may be
	// a false positive.
	Unverified bool
}

// Prober performs the actual network operation for one descriptor. One
// implementation per mode; transport concerns (proxy, TLS, headers) are
// configured at construction and opaque to the engine.
type Prober interface {
	Probe(ctx context.Context, d Descriptor) (*Outcome, error)
}

// Acceptor decides whether an outcome becomes a Finding. Prepare is called
// before the first Accept for a scope and establishes any per-scope
// baseline; it reports whether the scope is unverified (calibration failed).
type Acceptor interface {
	Prepare(ctx context.Context, scope string) (unverified bool)
	Accept(out *Outcome) (ok bool, reason string)
}

// AcceptAll is an Acceptor with no rules.
type AcceptAll struct{}

func (AcceptAll) Prepare(context.Context, string) bool { return false }
func (AcceptAll) Accept(*Outcome) (bool, string)       { return true, "" }
