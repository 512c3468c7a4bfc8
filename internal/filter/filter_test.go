package filter

import (
	"context"
	"crypto/md5"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnibust/omnibust/internal/calibrate"
	"github.com/omnibust/omnibust/internal/engine"
)

func outcome(status int, body string) *engine.Outcome {
	raw := []byte(body)
	return &engine.Outcome{
		StatusCode:    status,
		ContentLength: int64(len(raw)),
		Body:          raw,
		BodyHash:      md5.Sum(raw),
	}
}

func TestStatusFilterExcludeWinsOverInclude(t *testing.T) {
	f := NewStatusFilter([]int{200, 403}, []int{403})

	assert.False(t, f.ShouldFilter(outcome(200, "")))
	assert.True(t, f.ShouldFilter(outcome(403, "")), "exclude is checked first")
	assert.True(t, f.ShouldFilter(outcome(500, "")), "not in include list")
}

func TestStatusFilterIncludeOnly(t *testing.T) {
	f := NewStatusFilter([]int{301}, nil)
	assert.False(t, f.ShouldFilter(outcome(301, "")))
	assert.True(t, f.ShouldFilter(outcome(200, "")))
}

func TestSizeFilter(t *testing.T) {
	f := NewSizeFilter([]int{0}, nil)
	assert.True(t, f.ShouldFilter(outcome(200, "")))
	assert.False(t, f.ShouldFilter(outcome(200, "body")))

	m := NewSizeFilter(nil, []int{4})
	assert.False(t, m.ShouldFilter(outcome(200, "body")))
	assert.True(t, m.ShouldFilter(outcome(200, "other body")))
}

func TestRegexFilters(t *testing.T) {
	match := NewMatchRegexFilter(regexp.MustCompile(`admin`))
	assert.False(t, match.ShouldFilter(outcome(200, "the admin panel")))
	assert.True(t, match.ShouldFilter(outcome(200, "nothing here")))

	hide := NewFilterRegexFilter(regexp.MustCompile(`Access Denied`))
	assert.True(t, hide.ShouldFilter(outcome(200, "Access Denied")))
	assert.False(t, hide.ShouldFilter(outcome(200, "Welcome")))
}

func TestChainShortCircuitsInOrder(t *testing.T) {
	chain := NewChain()
	chain.Add(NewStatusFilter(nil, []int{404}))
	chain.Add(NewSizeFilter([]int{0}, nil))

	rejected, name := chain.Apply(outcome(404, ""))
	assert.True(t, rejected)
	assert.Equal(t, "status", name, "first matching rule names the rejection")

	rejected, name = chain.Apply(outcome(200, ""))
	assert.True(t, rejected)
	assert.Equal(t, "size", name)

	rejected, _ = chain.Apply(outcome(200, "content"))
	assert.False(t, rejected)
}

func TestChainApplyIsPure(t *testing.T) {
	chain := NewChain()
	chain.Add(NewStatusFilter(nil, []int{404}))

	out := outcome(200, "stable")
	for i := 0; i < 3; i++ {
		rejected, _ := chain.Apply(out)
		assert.False(t, rejected, "same outcome must judge the same every time")
	}
}

type stubProber struct{ body string }

func (p stubProber) Probe(_ context.Context, d engine.Descriptor) (*engine.Outcome, error) {
	raw := []byte(p.body)
	return &engine.Outcome{
		Descriptor:    d,
		StatusCode:    200,
		ContentLength: int64(len(raw)),
		Body:          raw,
		BodyHash:      md5.Sum(raw),
	}, nil
}

func dirProbe(scope, word string) engine.Descriptor {
	return engine.Descriptor{Mode: engine.ModeDir, Scope: scope, Word: word, Path: scope + word}
}

func TestWildcardFilterSuppressesBaselineMatches(t *testing.T) {
	cal := calibrate.New(calibrate.Config{Threshold: 50}, stubProber{body: "soft 404 page"}, dirProbe)

	chain := NewChain()
	chain.Add(NewWildcardFilter(cal, nil))

	unverified := chain.Prepare(context.Background(), "")
	require.False(t, unverified)

	// Indistinguishable from the calibrated baseline.
	ok, reason := chain.Accept(outcome(200, "soft 404 page"))
	assert.False(t, ok)
	assert.Equal(t, "wildcard", reason)

	// Clearly different content survives.
	ok, _ = chain.Accept(outcome(200, string(make([]byte, 500))))
	assert.True(t, ok)
}

func TestWildcardFilterMatchOverrideWins(t *testing.T) {
	cal := calibrate.New(calibrate.Config{Threshold: 50}, stubProber{body: "soft 404 with secret"}, dirProbe)

	chain := NewChain()
	chain.Add(NewWildcardFilter(cal, regexp.MustCompile(`secret`)))
	chain.Prepare(context.Background(), "")

	// Baseline match, but the user's match-regex hits: kept.
	ok, _ := chain.Accept(outcome(200, "soft 404 with secret"))
	assert.True(t, ok, "explicit match-regex overrides wildcard suppression")
}

func TestWildcardFilterEmptyTwoHundred(t *testing.T) {
	cal := calibrate.New(calibrate.Config{}, stubProber{body: "x"}, dirProbe)
	f := NewWildcardFilter(cal, nil)

	assert.True(t, f.ShouldFilter(outcome(200, "")), "empty 200 bodies are catch-alls")
	assert.False(t, f.ShouldFilter(outcome(204, "")))
}

func TestDeduperThreshold(t *testing.T) {
	d := NewDeduper(2)

	f := engine.Finding{Outcome: *outcome(200, "same page")}
	assert.False(t, d.Repeat(&f))
	assert.False(t, d.Repeat(&f))
	assert.True(t, d.Repeat(&f), "third identical response exceeds the threshold")

	other := engine.Finding{Outcome: *outcome(200, "different content entirely")}
	assert.False(t, d.Repeat(&other))
}
