package filter

import (
	"regexp"

	"github.com/omnibust/omnibust/internal/calibrate"
	"github.com/omnibust/omnibust/internal/engine"
)

// WildcardFilter rejects outcomes indistinguishable from the scope's
// calibrated baseline. An explicit match-regex hit overrides suppression:
// user intent on a literal match wins over the heuristic.
type WildcardFilter struct {
	cal           *calibrate.Calibrator
	matchOverride *regexp.Regexp
}

// NewWildcardFilter wires the calibrator into the chain. matchOverride may
// be nil.
func NewWildcardFilter(cal *calibrate.Calibrator, matchOverride *regexp.Regexp) *WildcardFilter {
	return &WildcardFilter{cal: cal, matchOverride: matchOverride}
}

func (f *WildcardFilter) Name() string { return "wildcard" }

func (f *WildcardFilter) ShouldFilter(out *engine.Outcome) bool {
	// Empty 200 bodies are almost always a catch-all, not real content.
	if out.Descriptor.Mode != engine.ModeDNS && out.StatusCode == 200 && out.ContentLength == 0 {
		return true
	}
	b := f.cal.Cached(out.Descriptor.Scope)
	if !f.cal.IsWildcard(b, out) {
		return false
	}
	if f.matchOverride != nil && f.matchOverride.Match(out.Body) {
		return false
	}
	return true
}
