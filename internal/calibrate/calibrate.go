// Package calibrate detects wildcard behavior: servers (or DNS zones) that
// answer every candidate, making positives indistinguishable from noise
// without a baseline.
package calibrate

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omnibust/omnibust/internal/engine"
)

// Baseline is the "non-existent response" signature for one scope,
// computed once on first contact with the scope and cached for the
// session's lifetime.
type Baseline struct {
	Status  int
	Length  int64      // median probe length
	Hashes  [][16]byte // body hashes observed across probes
	Lengths []int64
	Addrs   map[string]struct{} // dns mode: addresses a random label resolved to

	// Noisy means the calibration probes disagreed (status or wildly
	// different lengths). Wildcard matching then requires status AND
	// length bucket AND, when hashing is enabled, hash equality, instead
	// of the looser default.
	Noisy bool
}

type scopeEntry struct {
	once       sync.Once
	baseline   *Baseline
	unverified bool
}

// Config tunes calibration; probes run under the same timeout/retry policy
// as real probes.
type Config struct {
	Probes    int // probes per scope, clamped to 1..3
	Retries   int
	Timeout   time.Duration
	Threshold int  // byte tolerance for the length bucket
	HashBody  bool // require hash equality for noisy scopes
}

// Calibrator lazily establishes one Baseline per scope. probeFor builds a
// mode-appropriate descriptor for an improbable candidate name, keeping the
// calibrator itself mode-agnostic.
type Calibrator struct {
	cfg      Config
	prober   engine.Prober
	probeFor func(scope, word string) engine.Descriptor
	scopes   sync.Map // scope -> *scopeEntry
}

func New(cfg Config, prober engine.Prober, probeFor func(scope, word string) engine.Descriptor) *Calibrator {
	if cfg.Probes < 1 {
		cfg.Probes = 3
	}
	if cfg.Probes > 3 {
		cfg.Probes = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 50
	}
	return &Calibrator{cfg: cfg, prober: prober, probeFor: probeFor}
}

// Baseline returns the scope's baseline, calibrating on first call.
// unverified is true when calibration failed entirely: the scope proceeds
// uncalibrated and its findings are flagged rather than dropped.
func (c *Calibrator) Baseline(ctx context.Context, scope string) (*Baseline, bool) {
	v, _ := c.scopes.LoadOrStore(scope, &scopeEntry{})
	e := v.(*scopeEntry)
	e.once.Do(func() {
		e.baseline, e.unverified = c.calibrate(ctx, scope)
	})
	return e.baseline, e.unverified
}

// Cached returns the baseline if the scope was already calibrated, without
// triggering calibration.
func (c *Calibrator) Cached(scope string) *Baseline {
	if v, ok := c.scopes.Load(scope); ok {
		return v.(*scopeEntry).baseline
	}
	return nil
}

func (c *Calibrator) calibrate(ctx context.Context, scope string) (*Baseline, bool) {
	var outs []*engine.Outcome
	for i := 0; i < c.cfg.Probes; i++ {
		d := c.probeFor(scope, "omnibust-"+uuid.NewString())
		if out := c.probe(ctx, d); out != nil {
			outs = append(outs, out)
		}
	}
	if len(outs) == 0 {
		return nil, true // fail open: uncalibrated, findings flagged
	}

	b := &Baseline{Status: outs[0].StatusCode}
	lengths := make([]int64, 0, len(outs))
	for _, out := range outs {
		lengths = append(lengths, out.ContentLength)
		b.Hashes = append(b.Hashes, out.BodyHash)
		if out.StatusCode != b.Status {
			b.Noisy = true
		}
		for _, addr := range out.Addrs {
			if b.Addrs == nil {
				b.Addrs = make(map[string]struct{})
			}
			b.Addrs[addr] = struct{}{}
		}
	}
	sort.Slice(lengths, func(i, j int) bool { return lengths[i] < lengths[j] })
	b.Lengths = lengths
	b.Length = lengths[len(lengths)/2]
	if lengths[len(lengths)-1]-lengths[0] > int64(c.cfg.Threshold) {
		b.Noisy = true
	}
	return b, false
}

// probe runs one calibration request with the session's retry policy.
func (c *Calibrator) probe(ctx context.Context, d engine.Descriptor) *engine.Outcome {
	for i := 0; i <= c.cfg.Retries; i++ {
		if ctx.Err() != nil {
			return nil
		}
		pctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		out, err := c.prober.Probe(pctx, d)
		cancel()
		if err == nil {
			return out
		}
	}
	return nil
}

// IsWildcard reports whether an outcome is indistinguishable from the
// scope's baseline. A nil baseline (uncalibrated scope) never matches.
func (c *Calibrator) IsWildcard(b *Baseline, out *engine.Outcome) bool {
	if b == nil {
		return false
	}

	if out.Descriptor.Mode == engine.ModeDNS {
		// A zone whose random labels resolve is a wildcard zone; a real
		// subdomain pointing at the same addresses is indistinguishable.
		if len(b.Addrs) == 0 || len(out.Addrs) == 0 {
			return false
		}
		for _, addr := range out.Addrs {
			if _, ok := b.Addrs[addr]; !ok {
				return false
			}
		}
		return true
	}

	if out.StatusCode != b.Status {
		return false
	}
	hashMatch := c.hashMatch(b, out.BodyHash)
	lenMatch := abs64(out.ContentLength-b.Length) <= int64(c.cfg.Threshold)
	if b.Noisy {
		if c.cfg.HashBody {
			return lenMatch && hashMatch
		}
		return lenMatch
	}
	return hashMatch || lenMatch
}

func (c *Calibrator) hashMatch(b *Baseline, hash [16]byte) bool {
	for _, h := range b.Hashes {
		if h == hash {
			return true
		}
	}
	return false
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
