// Package crawl harvests additional scan candidates from response bodies:
// same-origin paths referenced by href, src, and action attributes.
package crawl

import (
	"net/url"
	"regexp"
	"strings"
)

// Ref is a same-origin reference discovered in a response body. Path is
// normalized with no leading or trailing slash, ready to be scanned.
type Ref struct {
	Path string
	Attr string // the attribute it came from: href, src, or action
}

// Attribute order fixes the order of extracted refs.
var linkAttrs = []string{"href", "src", "action"}

var attrPattern = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(linkAttrs))
	for _, a := range linkAttrs {
		m[a] = regexp.MustCompile(`(?i)` + a + `\s*=\s*["']([^"']+)["']`)
	}
	return m
}()

// Extract returns de-duplicated same-origin references found in body,
// resolved against baseURL. Non-HTTP URIs, bare fragments, and foreign
// hosts are dropped.
func Extract(body []byte, baseURL string) []Ref {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	content := string(body)
	seen := make(map[string]struct{})
	var refs []Ref

	for _, attr := range linkAttrs {
		for _, m := range attrPattern[attr].FindAllStringSubmatch(content, -1) {
			path, ok := normalize(base, m[1])
			if !ok {
				continue
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			refs = append(refs, Ref{Path: path, Attr: attr})
		}
	}

	return refs
}

func normalize(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(raw, "#") {
		return "", false
	}

	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Host != "" && resolved.Host != base.Host {
		return "", false
	}

	path := strings.Trim(resolved.Path, "/")
	if path == "" {
		return "", false
	}
	return path, true
}
