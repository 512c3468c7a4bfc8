// Package hook executes a user-supplied shell command for each finding,
// for pipelines like desktop notifications or feeding other tools.
package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/omnibust/omnibust/internal/engine"
)

// findingJSON is the JSON payload sent to the hook command via stdin.
type findingJSON struct {
	Mode          string   `json:"mode"`
	Method        string   `json:"method,omitempty"`
	Host          string   `json:"host,omitempty"`
	URL           string   `json:"url"`
	Path          string   `json:"path,omitempty"`
	Word          string   `json:"word"`
	StatusCode    int      `json:"status"`
	ContentLength int64    `json:"size"`
	RedirectURL   string   `json:"redirect,omitempty"`
	Addrs         []string `json:"addrs,omitempty"`
	WordCount     int      `json:"words"`
	LineCount     int      `json:"lines"`
	Unverified    bool     `json:"unverified,omitempty"`
}

// Runner executes a shell command for each finding.
type Runner struct {
	cmd   string
	quiet bool
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet}
}

// Run executes the hook command with the finding as JSON on stdin.
// The command runs with a 30-second timeout. Errors are logged but
// do not halt the scan.
func (r *Runner) Run(f *engine.Finding) {
	out := &f.Outcome
	payload := findingJSON{
		Mode:          out.Descriptor.Mode.String(),
		Method:        out.Descriptor.Method,
		Host:          out.Descriptor.Host,
		URL:           out.URL,
		Path:          out.Descriptor.Path,
		Word:          out.Descriptor.Word,
		StatusCode:    out.StatusCode,
		ContentLength: out.ContentLength,
		RedirectURL:   out.RedirectURL,
		Addrs:         out.Addrs,
		WordCount:     out.WordCount,
		LineCount:     out.LineCount,
		Unverified:    f.Unverified,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shell, args := shellCommand()
	// Replace {url}, {status}, {path} placeholders in the command.
	expanded := r.cmd
	expanded = strings.ReplaceAll(expanded, "{url}", out.URL)
	expanded = strings.ReplaceAll(expanded, "{path}", out.Descriptor.Path)
	expanded = strings.ReplaceAll(expanded, "{word}", out.Descriptor.Word)
	expanded = strings.ReplaceAll(expanded, "{status}", fmt.Sprintf("%d", out.StatusCode))
	expanded = strings.ReplaceAll(expanded, "{size}", fmt.Sprintf("%d", out.ContentLength))
	expanded = strings.ReplaceAll(expanded, "{method}", out.Descriptor.Method)
	expanded = strings.ReplaceAll(expanded, "{host}", out.Descriptor.Host)

	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "[hook] error: %v\n", err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(os.Stderr, "[hook] %s", output)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
