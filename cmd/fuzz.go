package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omnibust/omnibust/internal/engine"
	"github.com/omnibust/omnibust/internal/reqparse"
	"github.com/omnibust/omnibust/internal/runner"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz",
	Short: "Substitute wordlist entries anywhere in a request",
	Example: `  omnibust fuzz -u "https://example.com/?search=FUZZ" -w payloads.txt
  omnibust fuzz -u https://example.com -H "X-Api-Key: FUZZ" -w keys.txt
  omnibust fuzz -u https://example.com/login --methods POST --body "user=admin&pass=FUZZ"
  omnibust fuzz -r login.req -w passwords.txt`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateCommon(); err != nil {
			return err
		}
		if opts.RequestFile != "" {
			if err := loadFuzzTemplate(cmd); err != nil {
				return err
			}
		}
		if opts.URL == "" {
			return fmt.Errorf("target URL required: use -u or --request-file")
		}
		if !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
			opts.URL = "http://" + opts.URL
		}
		if !templateHasKeyword() {
			return fmt.Errorf("no %s keyword found in URL, headers, or body", engine.FuzzKeyword)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.RunFuzz(ctx, &opts)
	},
	SilenceUsage: true,
}

// loadFuzzTemplate seeds the request template from a raw HTTP request
// export. The FUZZ keyword may sit anywhere in it: path, headers, or body.
// Explicit flags win over the parsed values.
func loadFuzzTemplate(cmd *cobra.Command) error {
	parsed, err := reqparse.ParseFile(opts.RequestFile)
	if err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}
	if !cmd.Flags().Changed("url") {
		opts.URL = parsed.URL + parsed.Path
	}
	if !cmd.Flags().Changed("body") {
		opts.Body = parsed.Body
	}
	if !cmd.Flags().Changed("methods") && parsed.Method != "" {
		opts.Methods = []string{parsed.Method}
	}
	if opts.Headers == nil {
		opts.Headers = make(map[string]string)
	}
	for key, val := range parsed.Headers {
		k := strings.ToLower(key)
		if k == "host" || k == "content-length" || k == "accept-encoding" {
			continue
		}
		if _, exists := opts.Headers[key]; !exists {
			opts.Headers[key] = val
		}
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "[+] Loaded request template from %s -> %s\n", opts.RequestFile, opts.URL)
	}
	return nil
}

func templateHasKeyword() bool {
	if strings.Contains(opts.URL, engine.FuzzKeyword) || strings.Contains(opts.Body, engine.FuzzKeyword) {
		return true
	}
	for k, v := range opts.Headers {
		if strings.Contains(k, engine.FuzzKeyword) || strings.Contains(v, engine.FuzzKeyword) {
			return true
		}
	}
	return false
}

func init() {
	f := fuzzCmd.Flags()
	f.StringVarP(&opts.URL, "url", "u", "", "Request URL template containing the FUZZ keyword")
	f.StringVar(&opts.Body, "body", "", "Request body template")
	f.StringSliceVar(&opts.Methods, "methods", nil, "HTTP method for the template (first entry is used)")
	f.StringVarP(&opts.RequestFile, "request-file", "r", "", "Raw HTTP request file used as the template")
}
