package output

import (
	"sort"

	"github.com/omnibust/omnibust/internal/engine"
)

// SortedWriter buffers findings and replays them sorted by a field when
// WriteFooter is called. It wraps any other Writer.
type SortedWriter struct {
	inner    Writer
	sortBy   string
	findings []*engine.Finding
}

// NewSortedWriter wraps inner and buffers findings for sorted replay.
func NewSortedWriter(inner Writer, sortBy string) *SortedWriter {
	return &SortedWriter{inner: inner, sortBy: sortBy}
}

func (w *SortedWriter) WriteHeader() error {
	return w.inner.WriteHeader()
}

func (w *SortedWriter) WriteResult(f *engine.Finding) error {
	cpy := *f
	w.findings = append(w.findings, &cpy)
	return nil
}

func (w *SortedWriter) WriteFooter(stats Stats) error {
	sort.Slice(w.findings, func(i, j int) bool {
		a, b := &w.findings[i].Outcome, &w.findings[j].Outcome
		switch w.sortBy {
		case "status":
			return a.StatusCode < b.StatusCode
		case "size":
			return a.ContentLength < b.ContentLength
		case "path":
			return a.URL < b.URL
		default:
			return false
		}
	})
	for _, f := range w.findings {
		if err := w.inner.WriteResult(f); err != nil {
			return err
		}
	}
	return w.inner.WriteFooter(stats)
}

func (w *SortedWriter) Close() error {
	return w.inner.Close()
}
