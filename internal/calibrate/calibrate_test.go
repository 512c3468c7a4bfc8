package calibrate

import (
	"context"
	"crypto/md5"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnibust/omnibust/internal/engine"
)

type proberFunc func(ctx context.Context, d engine.Descriptor) (*engine.Outcome, error)

func (f proberFunc) Probe(ctx context.Context, d engine.Descriptor) (*engine.Outcome, error) {
	return f(ctx, d)
}

func dirProbe(scope, word string) engine.Descriptor {
	return engine.Descriptor{Mode: engine.ModeDir, Scope: scope, Word: word, Path: scope + word}
}

func fixedOutcome(d engine.Descriptor, status int, body string) *engine.Outcome {
	raw := []byte(body)
	return &engine.Outcome{
		Descriptor:    d,
		StatusCode:    status,
		ContentLength: int64(len(raw)),
		Body:          raw,
		BodyHash:      md5.Sum(raw),
	}
}

func TestBaselineCalibratesOncePerScope(t *testing.T) {
	var probes atomic.Int64
	prober := proberFunc(func(_ context.Context, d engine.Descriptor) (*engine.Outcome, error) {
		probes.Add(1)
		return fixedOutcome(d, 404, "not found"), nil
	})

	c := New(Config{Probes: 3}, prober, dirProbe)

	b1, unverified := c.Baseline(context.Background(), "")
	require.NotNil(t, b1)
	assert.False(t, unverified)
	assert.Equal(t, 404, b1.Status)
	assert.Equal(t, int64(3), probes.Load())

	b2, _ := c.Baseline(context.Background(), "")
	assert.Same(t, b1, b2, "second call must hit the cache")
	assert.Equal(t, int64(3), probes.Load())

	c.Baseline(context.Background(), "admin/")
	assert.Equal(t, int64(6), probes.Load(), "new scope calibrates separately")
}

func TestBaselineNoisyOnStatusDisagreement(t *testing.T) {
	var n atomic.Int64
	prober := proberFunc(func(_ context.Context, d engine.Descriptor) (*engine.Outcome, error) {
		if n.Add(1) == 1 {
			return fixedOutcome(d, 200, "ok page"), nil
		}
		return fixedOutcome(d, 404, "missing"), nil
	})

	c := New(Config{Probes: 3}, prober, dirProbe)
	b, _ := c.Baseline(context.Background(), "")
	require.NotNil(t, b)
	assert.True(t, b.Noisy)
}

func TestBaselineNoisyOnLengthSpread(t *testing.T) {
	bodies := []string{"short", string(make([]byte, 500)), "tiny"}
	var n atomic.Int64
	prober := proberFunc(func(_ context.Context, d engine.Descriptor) (*engine.Outcome, error) {
		i := int(n.Add(1)) - 1
		return fixedOutcome(d, 200, bodies[i%len(bodies)]), nil
	})

	c := New(Config{Probes: 3, Threshold: 50}, prober, dirProbe)
	b, _ := c.Baseline(context.Background(), "")
	require.NotNil(t, b)
	assert.True(t, b.Noisy)
}

func TestBaselineFailsOpen(t *testing.T) {
	prober := proberFunc(func(context.Context, engine.Descriptor) (*engine.Outcome, error) {
		return nil, errors.New("timeout")
	})

	c := New(Config{Probes: 3}, prober, dirProbe)
	b, unverified := c.Baseline(context.Background(), "")
	assert.Nil(t, b)
	assert.True(t, unverified, "calibration failure flags the scope, never aborts it")
}

func TestIsWildcardStableBaseline(t *testing.T) {
	soft404 := "custom error page"
	prober := proberFunc(func(_ context.Context, d engine.Descriptor) (*engine.Outcome, error) {
		return fixedOutcome(d, 200, soft404), nil
	})

	c := New(Config{Probes: 3, Threshold: 50}, prober, dirProbe)
	b, _ := c.Baseline(context.Background(), "")
	require.NotNil(t, b)
	require.False(t, b.Noisy)

	// Same status and hash: wildcard.
	same := fixedOutcome(dirProbe("", "ghost"), 200, soft404)
	assert.True(t, c.IsWildcard(b, same))

	// Same status, different hash, similar length: still wildcard via the
	// length bucket.
	similar := fixedOutcome(dirProbe("", "other"), 200, "custom error pagX")
	assert.True(t, c.IsWildcard(b, similar))

	// Different status: real finding.
	diffStatus := fixedOutcome(dirProbe("", "admin"), 301, soft404)
	assert.False(t, c.IsWildcard(b, diffStatus))

	// Same status, clearly different length and hash: real finding.
	real := fixedOutcome(dirProbe("", "admin"), 200, string(make([]byte, 400)))
	assert.False(t, c.IsWildcard(b, real))
}

func TestIsWildcardNoisyRequiresLengthAndHash(t *testing.T) {
	var n atomic.Int64
	prober := proberFunc(func(_ context.Context, d engine.Descriptor) (*engine.Outcome, error) {
		if n.Add(1) == 1 {
			return fixedOutcome(d, 200, "variant one"), nil
		}
		return fixedOutcome(d, 404, "variant two"), nil
	})

	c := New(Config{Probes: 3, Threshold: 50, HashBody: true}, prober, dirProbe)
	b, _ := c.Baseline(context.Background(), "")
	require.NotNil(t, b)
	require.True(t, b.Noisy)

	// Length within threshold but hash unseen: kept with hashing on.
	unseen := fixedOutcome(dirProbe("", "x"), 200, "variant ten")
	assert.False(t, c.IsWildcard(b, unseen))

	// Exact replay of a probe body: suppressed.
	replay := fixedOutcome(dirProbe("", "y"), 200, "variant one")
	assert.True(t, c.IsWildcard(b, replay))
}

func TestIsWildcardNilBaseline(t *testing.T) {
	c := New(Config{}, nil, dirProbe)
	out := fixedOutcome(dirProbe("", "x"), 200, "anything")
	assert.False(t, c.IsWildcard(nil, out), "uncalibrated scopes never suppress")
}

func TestIsWildcardDNSAddrSubset(t *testing.T) {
	c := New(Config{}, nil, dirProbe)
	b := &Baseline{Addrs: map[string]struct{}{"1.2.3.4": {}, "1.2.3.5": {}}}

	subset := &engine.Outcome{
		Descriptor: engine.Descriptor{Mode: engine.ModeDNS},
		Addrs:      []string{"1.2.3.4"},
	}
	assert.True(t, c.IsWildcard(b, subset))

	novel := &engine.Outcome{
		Descriptor: engine.Descriptor{Mode: engine.ModeDNS},
		Addrs:      []string{"1.2.3.4", "9.9.9.9"},
	}
	assert.False(t, c.IsWildcard(b, novel), "an address outside the baseline set is a real record")

	empty := &engine.Outcome{Descriptor: engine.Descriptor{Mode: engine.ModeDNS}}
	assert.False(t, c.IsWildcard(b, empty))
}
