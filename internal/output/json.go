package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/omnibust/omnibust/internal/engine"
)

type jsonEntry struct {
	Mode          string   `json:"mode"`
	Method        string   `json:"method,omitempty"`
	Host          string   `json:"host,omitempty"`
	URL           string   `json:"url"`
	Path          string   `json:"path,omitempty"`
	Word          string   `json:"word"`
	Depth         int      `json:"depth"`
	StatusCode    int      `json:"status"`
	ContentLength int64    `json:"size"`
	RedirectURL   string   `json:"redirect,omitempty"`
	Addrs         []string `json:"addrs,omitempty"`
	Unverified    bool     `json:"unverified,omitempty"`
}

// JSONWriter writes findings as a JSON array.
type JSONWriter struct {
	w       io.Writer
	closer  io.Closer
	entries []jsonEntry
}

// NewJSONWriter creates a JSON output writer.
func NewJSONWriter(outputFile string) (*JSONWriter, error) {
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
	return &JSONWriter{w: w, closer: closer}, nil
}

func (j *JSONWriter) WriteHeader() error { return nil }

func (j *JSONWriter) WriteResult(f *engine.Finding) error {
	out := &f.Outcome
	j.entries = append(j.entries, jsonEntry{
		Mode:          out.Descriptor.Mode.String(),
		Method:        out.Descriptor.Method,
		Host:          out.Descriptor.Host,
		URL:           out.URL,
		Path:          out.Descriptor.Path,
		Word:          out.Descriptor.Word,
		Depth:         out.Descriptor.Depth,
		StatusCode:    out.StatusCode,
		ContentLength: out.ContentLength,
		RedirectURL:   out.RedirectURL,
		Addrs:         out.Addrs,
		Unverified:    f.Unverified,
	})
	return nil
}

func (j *JSONWriter) WriteFooter(stats Stats) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	return enc.Encode(j.entries)
}

func (j *JSONWriter) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
