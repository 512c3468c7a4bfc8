package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/omnibust/omnibust/internal/engine"
)

// CSVWriter writes findings in CSV format.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// NewCSVWriter creates a CSV output writer.
func NewCSVWriter(outputFile string) (*CSVWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
	}
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}, nil
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"mode", "url", "word", "status", "size", "redirect", "addrs", "unverified"})
}

func (c *CSVWriter) WriteResult(f *engine.Finding) error {
	out := &f.Outcome
	unverified := ""
	if f.Unverified {
		unverified = "true"
	}
	return c.w.Write([]string{
		out.Descriptor.Mode.String(),
		out.URL,
		out.Descriptor.Word,
		fmt.Sprintf("%d", out.StatusCode),
		fmt.Sprintf("%d", out.ContentLength),
		out.RedirectURL,
		strings.Join(out.Addrs, " "),
		unverified,
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
