package filter

import (
	"regexp"

	"github.com/omnibust/omnibust/internal/engine"
)

// MatchRegexFilter only passes outcomes whose body matches the pattern.
type MatchRegexFilter struct {
	re *regexp.Regexp
}

// NewMatchRegexFilter creates a filter requiring the body to match re.
func NewMatchRegexFilter(re *regexp.Regexp) *MatchRegexFilter {
	return &MatchRegexFilter{re: re}
}

func (f *MatchRegexFilter) Name() string { return "match-regex" }

func (f *MatchRegexFilter) ShouldFilter(out *engine.Outcome) bool {
	return !f.re.Match(out.Body)
}

// FilterRegexFilter hides outcomes whose body matches the pattern.
type FilterRegexFilter struct {
	re *regexp.Regexp
}

// NewFilterRegexFilter creates a filter hiding bodies that match re.
func NewFilterRegexFilter(re *regexp.Regexp) *FilterRegexFilter {
	return &FilterRegexFilter{re: re}
}

func (f *FilterRegexFilter) Name() string { return "filter-regex" }

func (f *FilterRegexFilter) ShouldFilter(out *engine.Outcome) bool {
	return f.re.Match(out.Body)
}
