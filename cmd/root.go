// Package cmd wires the CLI: one subcommand per scan mode over a shared
// option set.
package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/omnibust/omnibust/internal/config"
	"github.com/omnibust/omnibust/internal/updater"
	"github.com/omnibust/omnibust/pkg/version"
)

var (
	opts        config.Options
	configFile  string
	updateFlag  bool
	headerFlags []string
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "domain", "urls-file", "wordlist", "extensions", "force-extensions", "backup-extensions", "cidr", "ports", "request-file"}},
	{"DISCOVERY", []string{"recursive", "max-depth", "crawl", "crawl-depth"}},
	{"MATCHERS", []string{"include-status", "match-size", "match-regex"}},
	{"FILTERS", []string{"exclude-status", "exclude-size", "filter-regex", "calibrate", "calibrate-threshold", "hash-body", "dedupe"}},
	{"RATE-LIMIT", []string{"threads", "timeout", "delay", "rate-limit", "retries", "retry-server-errors", "adaptive-throttle"}},
	{"HTTP", []string{"header", "user-agent", "proxy", "follow-redirects", "methods", "body"}},
	{"DNS", []string{"resolver", "show-ips"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "sort", "tree", "on-result"}},
	{"CONFIGURATION", []string{"config", "resume-file"}},
	{"UPDATE", []string{"update"}},
}

var rootCmd = &cobra.Command{
	Use:     "omnibust <mode> [flags]",
	Short:   "Concurrent network enumeration: paths, subdomains, vhosts, fuzzing",
	Version: version.Version,
	Long: `omnibust enumerates hidden attack surface with one scan engine and four
modes: dir (paths and files), dns (subdomains), vhost (virtual hosts),
and fuzz (keyword substitution anywhere in a request). Per-scope wildcard
calibration suppresses catch-all responses in every mode.`,
	Example: `  omnibust dir -u https://example.com
  omnibust dir -u https://example.com -e php,html -t 50 --recursive
  omnibust dir -l urls.txt -w wordlist.txt -x 403,500
  omnibust dir --cidr 192.168.1.0/24 --ports 80,443,8080
  omnibust dns -d example.com -w subdomains.txt --show-ips
  omnibust vhost -u https://10.0.0.5 -d example.com
  omnibust fuzz -u "https://example.com/?q=FUZZ" -w payloads.txt
  omnibust dir -u https://example.com --on-result "notify-send {url}"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if updateFlag {
			return updater.Update()
		}
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()

	// Wordlist
	pf.StringVarP(&opts.WordlistPath, "wordlist", "w", "", "Custom wordlist path (default: built-in)")

	// Performance
	pf.IntVarP(&opts.Threads, "threads", "t", 25, "Number of concurrent workers")
	pf.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Per-request timeout")
	pf.DurationVar(&opts.Delay, "delay", 0, "Delay between requests per worker")
	pf.IntVar(&opts.RateLimit, "rate-limit", 0, "Global request rate cap in req/s (0 = unlimited)")
	pf.IntVar(&opts.Retries, "retries", 0, "Retry attempts on transient network errors")
	pf.BoolVar(&opts.RetryServerErrors, "retry-server-errors", false, "Also retry 429 and 5xx responses")
	pf.BoolVar(&opts.AdaptiveThrottle, "adaptive-throttle", false, "Auto back-off on 429/rate limits")

	// Calibration
	pf.BoolVar(&opts.Calibrate, "calibrate", true, "Per-scope wildcard calibration")
	pf.IntVar(&opts.CalibrateThreshold, "calibrate-threshold", 50, "Size tolerance in bytes for wildcard matching")
	pf.BoolVar(&opts.HashBody, "hash-body", false, "Require body hash equality for noisy baselines")

	// Filtering
	pf.VarP(&intSliceValue{target: &opts.IncludeStatus}, "include-status", "i", "Only show these status codes (comma-separated)")
	pf.VarP(&intSliceValue{target: &opts.ExcludeStatus}, "exclude-status", "x", "Hide these status codes (comma-separated)")
	pf.Var(&intSliceValue{target: &opts.ExcludeSize}, "exclude-size", "Hide responses of these sizes (comma-separated)")
	pf.Var(&intSliceValue{target: &opts.MatchSize}, "match-size", "Only show responses of these sizes (comma-separated)")
	pf.StringVar(&opts.MatchRegex, "match-regex", "", "Only show responses whose body matches this regex")
	pf.StringVar(&opts.FilterRegex, "filter-regex", "", "Hide responses whose body matches this regex")
	pf.IntVar(&opts.Dedupe, "dedupe", 0, "Hide repeated response shapes past this count (0 = off)")

	// Output
	pf.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path")
	pf.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, csv")
	pf.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	pf.StringVar(&opts.SortBy, "sort", "", "Sort results: status, path, size (buffers until scan completes)")
	pf.BoolVar(&opts.Tree, "tree", false, "Print directory tree summary after scan")
	pf.StringVar(&opts.OnResultCmd, "on-result", "", "Shell command to run for each finding (receives JSON on stdin)")

	// HTTP
	pf.StringSliceVarP(&headerFlags, "header", "H", nil, "Custom headers (Key: Value)")
	pf.StringVar(&opts.UserAgent, "user-agent", "", "Custom User-Agent string")
	pf.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")
	pf.BoolVar(&opts.FollowRedirects, "follow-redirects", false, "Follow HTTP redirects")

	// Configuration
	pf.StringVar(&configFile, "config", "", "YAML config file (flags set on the command line win)")
	pf.StringVar(&opts.ResumeFile, "resume-file", "", "File to save/load scan progress for resume")

	// Update
	rootCmd.Flags().BoolVar(&updateFlag, "update", false, "Update omnibust to the latest version")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := applyConfigFile(cmd, configFile); err != nil {
				return err
			}
		}
		return parseHeaders()
	}

	// Custom help: categorized flags like httpx.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(rootCmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", rootCmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nModes:\n")
		for _, sub := range rootCmd.Commands() {
			if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
				continue
			}
			fmt.Fprintf(w, "   %-8s %s\n", sub.Name(), sub.Short)
		}
		fmt.Fprintf(w, "\nExamples:\n%s\n", rootCmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		flags := cmd.Flags()
		flags.AddFlagSet(cmd.InheritedFlags())
		for _, g := range helpGroups {
			var lines []string
			for _, name := range g.flags {
				if f := flags.Lookup(name); f != nil {
					lines = append(lines, formatFlag(f))
				}
			}
			if len(lines) == 0 {
				continue
			}
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, l := range lines {
				fmt.Fprintln(w, l)
			}
		}
		fmt.Fprintln(w)
	})

	rootCmd.AddCommand(dirCmd, dnsCmd, vhostCmd, fuzzCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyConfigFile loads the YAML file into opts while keeping any value the
// user set explicitly on the command line. Flag values are snapshotted
// before the load (the file writes through the same bound fields) and
// re-applied afterwards.
func applyConfigFile(cmd *cobra.Command, path string) error {
	type savedFlag struct {
		flag  *pflag.Flag
		value string
		slice []string
		ints  []int
	}
	var saved []savedFlag

	cmd.Flags().Visit(func(f *pflag.Flag) {
		s := savedFlag{flag: f}
		switch v := f.Value.(type) {
		case *intSliceValue:
			s.ints = append([]int(nil), *v.target...)
		case pflag.SliceValue:
			s.slice = v.GetSlice()
		default:
			s.value = f.Value.String()
		}
		saved = append(saved, s)
	})

	if err := config.LoadFile(path, &opts); err != nil {
		return err
	}

	for _, s := range saved {
		switch v := s.flag.Value.(type) {
		case *intSliceValue:
			*v.target = s.ints
		case pflag.SliceValue:
			if err := v.Replace(s.slice); err != nil {
				return err
			}
		default:
			if err := s.flag.Value.Set(s.value); err != nil {
				return err
			}
		}
	}
	return nil
}

// parseHeaders folds repeated -H flags into the options header map. Config
// file headers stay unless overridden by an explicit flag.
func parseHeaders() error {
	if len(headerFlags) == 0 {
		return nil
	}
	if opts.Headers == nil {
		opts.Headers = make(map[string]string, len(headerFlags))
	}
	for _, h := range headerFlags {
		parts := strings.SplitN(h, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
		}
		opts.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return nil
}

// validateCommon checks flags shared by every mode.
func validateCommon() error {
	if len(opts.IncludeStatus) > 0 && len(opts.ExcludeStatus) > 0 {
		return fmt.Errorf("--include-status and --exclude-status are mutually exclusive")
	}
	if opts.SortBy != "" && opts.SortBy != "status" && opts.SortBy != "path" && opts.SortBy != "size" {
		return fmt.Errorf("--sort must be one of: status, path, size")
	}
	switch opts.OutputFormat {
	case "", "text", "json", "csv":
	default:
		return fmt.Errorf("--format must be one of: text, json, csv")
	}
	return nil
}

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	parts := strings.Split(s, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
                          _ __               __
  ____  ____ ___  ____  (_) /_  __  _______/ /_
 / __ \/ __ '__ \/ __ \/ / __ \/ / / / ___/ __/
/ /_/ / / / / / / / / / / /_/ / /_/ (__  ) /_
\____/_/ /_/ /_/_/ /_/_/_.___/\__,_/____/\__/   %s

`, ver)
}
