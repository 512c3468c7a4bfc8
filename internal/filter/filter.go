package filter

import (
	"context"

	"github.com/omnibust/omnibust/internal/engine"
)

// Filter decides whether an outcome should be rejected. Every rule is a
// pure function of (outcome, baseline, config) so rules can be unit-tested
// independently and acceptance is idempotent.
type Filter interface {
	Name() string
	ShouldFilter(out *engine.Outcome) bool
}

// Chain applies filters in order, short-circuiting on the first match.
// It implements engine.Acceptor.
type Chain struct {
	filters  []Filter
	wildcard *WildcardFilter
}

// NewChain returns an empty filter chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
	if wf, ok := f.(*WildcardFilter); ok {
		c.wildcard = wf
	}
}

// Apply runs every filter against the outcome. Returns true and the filter
// name if the outcome should be rejected.
func (c *Chain) Apply(out *engine.Outcome) (bool, string) {
	for _, f := range c.filters {
		if f.ShouldFilter(out) {
			return true, f.Name()
		}
	}
	return false, ""
}

// Prepare establishes the wildcard baseline for a scope before any of its
// outcomes are judged. Reports whether the scope is unverified.
func (c *Chain) Prepare(ctx context.Context, scope string) bool {
	if c.wildcard == nil {
		return false
	}
	_, unverified := c.wildcard.cal.Baseline(ctx, scope)
	return unverified
}

// Accept implements engine.Acceptor.
func (c *Chain) Accept(out *engine.Outcome) (bool, string) {
	rejected, name := c.Apply(out)
	return !rejected, name
}
