package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omnibust/omnibust/internal/reqparse"
	"github.com/omnibust/omnibust/internal/runner"
)

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Enumerate paths and files on a web server",
	Example: `  omnibust dir -u https://example.com
  omnibust dir -u https://example.com -e php,html --recursive --max-depth 2
  omnibust dir -r burp.req -e php
  omnibust dir --cidr 10.0.0.0/24 --ports 80,8080`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateCommon(); err != nil {
			return err
		}
		if opts.RequestFile != "" {
			if err := loadRequestFile(cmd); err != nil {
				return err
			}
		}
		if opts.URL == "" && opts.URLsFile == "" && opts.CIDRTargets == "" {
			return fmt.Errorf("target required: use -u, -l, --cidr, or --request-file")
		}
		if opts.URL != "" && !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
			opts.URL = "http://" + opts.URL
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.RunDir(ctx, &opts)
	},
	SilenceUsage: true,
}

func init() {
	f := dirCmd.Flags()
	f.StringVarP(&opts.URL, "url", "u", "", "Target URL")
	f.StringVarP(&opts.URLsFile, "urls-file", "l", "", "File with one URL per line")
	f.StringSliceVarP(&opts.Extensions, "extensions", "e", nil, "File extensions to test (e.g. php,html,js)")
	f.BoolVarP(&opts.ForceExtensions, "force-extensions", "f", false, "Append extensions to every wordlist entry")
	f.BoolVar(&opts.BackupExtensions, "backup-extensions", false, "Also probe backup variants (.bak, .old, ~, ...)")
	f.BoolVar(&opts.Recursive, "recursive", false, "Recurse into discovered directories")
	f.IntVarP(&opts.MaxDepth, "max-depth", "R", 3, "Maximum recursion depth")
	f.BoolVar(&opts.Crawl, "crawl", false, "Crawl response bodies for additional paths")
	f.IntVar(&opts.CrawlDepth, "crawl-depth", 2, "Maximum crawl depth (link-following hops)")
	f.StringVar(&opts.CIDRTargets, "cidr", "", "CIDR range to scan (e.g. 192.168.1.0/24)")
	f.StringVar(&opts.Ports, "ports", "", "Ports for CIDR targets (comma-separated)")
	f.StringVarP(&opts.RequestFile, "request-file", "r", "", "Raw HTTP request file (e.g. Burp Suite export)")
	f.StringSliceVar(&opts.Methods, "methods", nil, "HTTP methods to try per path (e.g. GET,POST,PUT)")
}

// loadRequestFile seeds target, headers, and User-Agent from a raw HTTP
// request export. Explicit flags win over the parsed values.
func loadRequestFile(cmd *cobra.Command) error {
	parsed, err := reqparse.ParseFile(opts.RequestFile)
	if err != nil {
		return fmt.Errorf("parsing request file: %w", err)
	}
	if !cmd.Flags().Changed("url") {
		opts.URL = parsed.URL
	}
	if opts.Headers == nil {
		opts.Headers = make(map[string]string)
	}
	for key, val := range parsed.Headers {
		k := strings.ToLower(key)
		// Hop-by-hop and encoding headers make no sense replayed per probe.
		if k == "host" || k == "content-length" || k == "accept-encoding" {
			continue
		}
		if _, exists := opts.Headers[key]; !exists {
			opts.Headers[key] = val
		}
	}
	if !cmd.Flags().Changed("user-agent") {
		if ua, ok := parsed.Headers["User-Agent"]; ok {
			opts.UserAgent = ua
		}
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "[+] Loaded request from %s -> %s\n", opts.RequestFile, opts.URL)
	}
	return nil
}
