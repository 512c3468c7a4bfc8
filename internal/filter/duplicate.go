package filter

import (
	"sync"

	"github.com/omnibust/omnibust/internal/engine"
)

// responseKey identifies a unique response shape by status code and body hash.
type responseKey struct {
	statusCode int
	bodyHash   [16]byte
}

// fuzzyKey groups responses by status and structural shape (line count +
// bucketed word count). This catches catch-all pages that embed the
// requested URL in the body, where each hash is unique but line count and
// word count are nearly identical.
type fuzzyKey struct {
	statusCode int
	lineCount  int
	wordBucket int // wordCount / 5
}

// Deduper suppresses findings that repeat the same response shape past a
// threshold. It is stateful, so it is NOT part of the acceptance chain
// (acceptance stays a pure function); the runner applies it on the output
// side, after counters are updated. It catches catch-all routes (e.g.
// /app/login/* always serving the same login page) that per-scope
// calibration can't see because its probes hit a different route.
type Deduper struct {
	mu             sync.Mutex
	seen           map[responseKey]int
	fuzzySeen      map[fuzzyKey]int
	threshold      int
	fuzzyThreshold int
}

// NewDeduper returns a suppressor that lets up to threshold identical
// responses through before hiding the rest. Fuzzy detection uses 3x the
// threshold, minimum 5.
func NewDeduper(threshold int) *Deduper {
	fuzzyT := threshold * 3
	if fuzzyT < 5 {
		fuzzyT = 5
	}
	return &Deduper{
		seen:           make(map[responseKey]int),
		fuzzySeen:      make(map[fuzzyKey]int),
		threshold:      threshold,
		fuzzyThreshold: fuzzyT,
	}
}

// Repeat records the finding and reports whether it exceeds the repeat
// thresholds and should be hidden from output.
func (d *Deduper) Repeat(f *engine.Finding) bool {
	exact := responseKey{
		statusCode: f.Outcome.StatusCode,
		bodyHash:   f.Outcome.BodyHash,
	}
	fuzzy := fuzzyKey{
		statusCode: f.Outcome.StatusCode,
		lineCount:  f.Outcome.LineCount,
		wordBucket: f.Outcome.WordCount / 5,
	}

	d.mu.Lock()
	d.seen[exact]++
	exactCount := d.seen[exact]
	d.fuzzySeen[fuzzy]++
	fuzzyCount := d.fuzzySeen[fuzzy]
	d.mu.Unlock()

	return exactCount > d.threshold || fuzzyCount > d.fuzzyThreshold
}
