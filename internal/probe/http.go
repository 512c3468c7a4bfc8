// Package probe implements the per-mode network capability behind the scan
// engine. Transport concerns (proxy, TLS, headers, redirects) live here;
// the engine only schedules.
package probe

import (
	"context"
	"crypto/md5"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omnibust/omnibust/internal/config"
	"github.com/omnibust/omnibust/internal/engine"
)

// HTTP probes web targets; it serves the dir, vhost, and fuzz modes.
type HTTP struct {
	client    *http.Client
	baseURL   *url.URL
	headers   map[string]string
	userAgent string
}

// NewHTTP creates an HTTP prober from the resolved options.
func NewHTTP(opts *config.Options) (*HTTP, error) {
	base, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", opts.URL, err)
	}
	if base.Scheme == "" {
		base.Scheme = "http"
	}
	base.Path = strings.TrimRight(base.Path, "/")

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
		MaxIdleConnsPerHost: opts.Threads,
		MaxIdleConns:        opts.Threads,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	client := &http.Client{
		Transport: transport,
	}

	if !opts.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = "omnibust/1.0"
	}

	return &HTTP{
		client:    client,
		baseURL:   base,
		headers:   opts.Headers,
		userAgent: ua,
	}, nil
}

// Probe sends one HTTP request for the descriptor. The deadline comes from
// ctx; the engine sets it per attempt.
func (p *HTTP) Probe(ctx context.Context, d engine.Descriptor) (*engine.Outcome, error) {
	targetURL := d.URL
	if targetURL == "" {
		targetURL = p.baseURL.String() + "/" + strings.TrimLeft(d.Path, "/")
	}

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if d.Body != "" {
		body = strings.NewReader(d.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", p.userAgent)
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}
	if d.Host != "" {
		req.Host = d.Host
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body for %s: %w", targetURL, err)
	}
	elapsed := time.Since(start)

	bodyStr := string(raw)
	wordCount := len(strings.Fields(bodyStr))
	lineCount := strings.Count(bodyStr, "\n") + 1
	if len(raw) == 0 {
		lineCount = 0
	}

	out := &engine.Outcome{
		Descriptor:    d,
		StatusCode:    resp.StatusCode,
		ContentLength: int64(len(raw)),
		Body:          raw,
		BodyHash:      md5.Sum(raw),
		WordCount:     wordCount,
		LineCount:     lineCount,
		URL:           targetURL,
		Duration:      elapsed,
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		out.RedirectURL = resp.Header.Get("Location")
	}

	return out, nil
}
