package engine

import (
	"context"
	"net/url"
	"strings"

	"github.com/omnibust/omnibust/internal/wordlist"
)

// Generator lazily produces the descriptors for one scope. Generate calls
// emit for each descriptor in wordlist order and stops early when emit
// returns false or ctx is cancelled. Generators never materialize the full
// candidate set and are cheap to instantiate per scope, so recursion can
// restart the same wordlist view against a new scope.
type Generator interface {
	Generate(ctx context.Context, emit func(Descriptor) bool)
}

// DirGenerator derives path candidates for a directory scope. Words are the
// already extension-expanded wordlist view; Scope is "" for the target root
// or a prefix ending in "/" for a recursed subdirectory.
type DirGenerator struct {
	Scope   string
	Words   []string
	Methods []string // empty defaults to GET only
	Depth   int
	Skip    func(word string) // invalid-entry callback, may be nil
}

func (g *DirGenerator) Generate(ctx context.Context, emit func(Descriptor) bool) {
	methods := g.Methods
	if len(methods) == 0 {
		methods = []string{"GET"}
	}
	for _, word := range g.Words {
		if ctx.Err() != nil {
			return
		}
		if !validPathWord(word) {
			g.skip(word)
			continue
		}
		path := g.Scope + strings.TrimLeft(word, "/")
		for _, m := range methods {
			d := Descriptor{
				Mode:   ModeDir,
				Scope:  g.Scope,
				Word:   word,
				Depth:  g.Depth,
				Method: m,
				Path:   path,
			}
			if !emit(d) {
				return
			}
		}
	}
}

func (g *DirGenerator) skip(word string) {
	if g.Skip != nil {
		g.Skip(word)
	}
}

// DNSGenerator derives subdomain candidates for a DNS zone. Entries that
// are not valid DNS labels are skipped, never fatal.
type DNSGenerator struct {
	Zone  string
	Words []string
	Depth int
	Skip  func(word string)
}

func (g *DNSGenerator) Generate(ctx context.Context, emit func(Descriptor) bool) {
	zone := strings.Trim(g.Zone, ".")
	for _, word := range g.Words {
		if ctx.Err() != nil {
			return
		}
		if !wordlist.ValidLabel(word) {
			if g.Skip != nil {
				g.Skip(word)
			}
			continue
		}
		d := Descriptor{
			Mode:  ModeDNS,
			Scope: zone,
			Word:  word,
			Depth: g.Depth,
			Host:  word + "." + zone,
		}
		if !emit(d) {
			return
		}
	}
}

// VHostGenerator derives Host header candidates against a fixed base URL.
type VHostGenerator struct {
	Domain string // base domain the candidate labels are prefixed to
	Words  []string
	Skip   func(word string)
}

func (g *VHostGenerator) Generate(ctx context.Context, emit func(Descriptor) bool) {
	domain := strings.Trim(g.Domain, ".")
	for _, word := range g.Words {
		if ctx.Err() != nil {
			return
		}
		if !wordlist.ValidLabel(word) {
			if g.Skip != nil {
				g.Skip(word)
			}
			continue
		}
		d := Descriptor{
			Mode:  ModeVHost,
			Scope: domain,
			Word:  word,
			Host:  word + "." + domain,
			Path:  "/",
		}
		if !emit(d) {
			return
		}
	}
}

// Template is a fuzz-mode request shape. Every occurrence of the FUZZ
// keyword in URL, header values, and body is replaced with the candidate
// word, supporting multiple occurrences.
type Template struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    string
}

// FuzzKeyword is the substitution token in fuzz templates.
const FuzzKeyword = "FUZZ"

// Substitute returns the template with every FUZZ occurrence replaced.
func (t Template) Substitute(word string) (method, rawURL string, headers map[string]string, body string) {
	method = t.Method
	rawURL = strings.ReplaceAll(t.URL, FuzzKeyword, word)
	body = strings.ReplaceAll(t.Body, FuzzKeyword, word)
	if len(t.Headers) > 0 {
		headers = make(map[string]string, len(t.Headers))
		for k, v := range t.Headers {
			headers[k] = strings.ReplaceAll(v, FuzzKeyword, word)
		}
	}
	return method, rawURL, headers, body
}

// FuzzGenerator substitutes each word into a request template.
type FuzzGenerator struct {
	Template Template
	Words    []string
	Skip     func(word string)
}

func (g *FuzzGenerator) Generate(ctx context.Context, emit func(Descriptor) bool) {
	for _, word := range g.Words {
		if ctx.Err() != nil {
			return
		}
		method, rawURL, headers, body := g.Template.Substitute(word)
		if _, err := url.Parse(rawURL); err != nil || !validPathWord(word) {
			if g.Skip != nil {
				g.Skip(word)
			}
			continue
		}
		d := Descriptor{
			Mode:    ModeFuzz,
			Scope:   g.Template.URL,
			Word:    word,
			Method:  method,
			URL:     rawURL,
			Headers: headers,
			Body:    body,
		}
		if !emit(d) {
			return
		}
	}
}

// StaticGenerator emits pre-built descriptors, used to feed crawled paths
// back into a running session.
type StaticGenerator struct {
	Items []Descriptor
}

func (g *StaticGenerator) Generate(ctx context.Context, emit func(Descriptor) bool) {
	for _, d := range g.Items {
		if ctx.Err() != nil {
			return
		}
		if !emit(d) {
			return
		}
	}
}

// validPathWord rejects entries that cannot appear in an HTTP request line.
func validPathWord(word string) bool {
	if word == "" {
		return false
	}
	for _, r := range word {
		if r < 0x20 || r == 0x7f || r == ' ' {
			return false
		}
	}
	return true
}
