// Package output renders findings in the supported formats and drives the
// progress display. Writers consume findings as the engine emits them; the
// sorted wrapper buffers for replay.
package output

import (
	"fmt"
	"time"

	"github.com/omnibust/omnibust/internal/engine"
)

// Stats holds aggregate session statistics for the footer line.
type Stats struct {
	TotalRequests  int64
	FilteredCount  int64
	ErrorCount     int64
	Duration       time.Duration
	RequestsPerSec float64
}

// Writer is implemented by each output format.
type Writer interface {
	WriteHeader() error
	WriteResult(f *engine.Finding) error
	WriteFooter(stats Stats) error
	Close() error
}

// New builds a writer for the named format, wrapping it in a SortedWriter
// when sortBy is set.
func New(format, outputFile, sortBy string, noColor, quiet, showIPs bool) (Writer, error) {
	var (
		w   Writer
		err error
	)
	switch format {
	case "", "text":
		var tw *TextWriter
		tw, err = NewTextWriter(outputFile, noColor, quiet)
		if err == nil {
			tw.ShowIPs(showIPs)
			w = tw
		}
	case "json":
		w, err = NewJSONWriter(outputFile)
	case "csv":
		w, err = NewCSVWriter(outputFile)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if sortBy != "" {
		w = NewSortedWriter(w, sortBy)
	}
	return w, nil
}
