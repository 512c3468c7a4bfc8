package output

import (
	"fmt"
	"os"
	"time"

	"github.com/omnibust/omnibust/internal/engine"
)

// Progress displays session progress on stderr by polling the engine's
// counters. The queued total can grow mid-session (recursion, crawling),
// so the percentage is relative to what has been queued so far.
type Progress struct {
	counters *engine.Counters
	start    time.Time
	done     chan struct{}
	quiet    bool
}

// NewProgress creates a progress display over the session counters. Call
// Start() to begin updates.
func NewProgress(counters *engine.Counters, quiet bool) *Progress {
	return &Progress{
		counters: counters,
		start:    time.Now(),
		done:     make(chan struct{}),
		quiet:    quiet,
	}
}

// Start begins periodically printing progress to stderr.
func (p *Progress) Start() {
	if p.quiet {
		return
	}
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(os.Stderr, "\n")
				return
			}
		}
	}()
}

// Stop ends the progress display.
func (p *Progress) Stop() {
	close(p.done)
}

// ClearLine erases the progress line so a finding can be printed cleanly.
func (p *Progress) ClearLine() {
	if p.quiet {
		return
	}
	fmt.Fprint(os.Stderr, "\r\033[K")
}

// Redraw reprints the progress line after a finding interrupted it.
func (p *Progress) Redraw() {
	if p.quiet {
		return
	}
	p.print()
}

func (p *Progress) print() {
	s := p.counters.Snapshot()
	elapsed := time.Since(p.start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(s.Completed) / elapsed
	}

	pct := float64(0)
	if s.Queued > 0 {
		pct = float64(s.Completed) / float64(s.Queued) * 100
	}

	eta := ""
	if rate > 0 && s.Completed < s.Queued {
		remaining := float64(s.Queued-s.Completed) / rate
		eta = fmt.Sprintf("ETA: %s", time.Duration(remaining*float64(time.Second)).Round(time.Second))
	}

	fmt.Fprintf(os.Stderr, "\r\033[K[%3.0f%%] %d/%d | %d in flight | %.0f req/s | Found: %d | Filtered: %d | Errors: %d | %s",
		pct, s.Completed, s.Queued, s.InFlight, rate,
		s.Accepted, s.Filtered, s.Errors, eta)
}
