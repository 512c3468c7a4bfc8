// Package runner assembles a scan from the resolved options: wordlist,
// prober, calibrator, filter chain, session, and output, then drives the
// finding stream to completion.
package runner

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/omnibust/omnibust/internal/calibrate"
	"github.com/omnibust/omnibust/internal/config"
	"github.com/omnibust/omnibust/internal/crawl"
	"github.com/omnibust/omnibust/internal/engine"
	"github.com/omnibust/omnibust/internal/filter"
	"github.com/omnibust/omnibust/internal/hook"
	"github.com/omnibust/omnibust/internal/netutil"
	"github.com/omnibust/omnibust/internal/output"
	"github.com/omnibust/omnibust/internal/probe"
	"github.com/omnibust/omnibust/internal/resume"
	"github.com/omnibust/omnibust/internal/wordlist"
)

// scanSpec captures what differs between the four modes. The pipeline
// around it (calibration, filtering, session, output) is shared.
type scanSpec struct {
	mode      engine.Mode
	label     string // human-readable target for banner and log lines
	prober    engine.Prober
	words     []string
	seed      func(s *engine.Session) engine.Generator
	probeFor  func(scope, word string) engine.Descriptor
	preflight *engine.Descriptor
	pre       []filter.Filter // mode-imposed rules, installed ahead of user rules
	recursive bool            // enables directory recursion into the same pool
	crawl     bool
}

// RunDir executes directory/file enumeration against every resolved target.
func RunDir(ctx context.Context, opts *config.Options) error {
	targets, err := resolveTargets(opts)
	if err != nil {
		return err
	}

	for idx, target := range targets {
		if len(targets) > 1 && !opts.Quiet {
			fmt.Fprintf(os.Stderr, "\n[*] Target %d/%d: %s\n", idx+1, len(targets), target)
		}
		opts.URL = target
		if err := runDirTarget(ctx, opts); err != nil {
			if ctx.Err() != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "[!] Error scanning %s: %v\n", target, err)
		}
	}
	return nil
}

func runDirTarget(ctx context.Context, opts *config.Options) error {
	words, err := wordlist.Load(opts.WordlistPath, opts.Extensions, opts.ForceExtensions)
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}
	if opts.BackupExtensions {
		words = wordlist.AppendBackupVariants(words)
	}

	prober, err := probe.NewHTTP(opts)
	if err != nil {
		return fmt.Errorf("creating prober: %w", err)
	}

	methods := resolveMethods(opts)
	probeFor := func(scope, word string) engine.Descriptor {
		return engine.Descriptor{
			Mode:  engine.ModeDir,
			Scope: scope,
			Word:  word,
			Path:  scope + word,
		}
	}

	spec := scanSpec{
		mode:     engine.ModeDir,
		label:    opts.URL,
		prober:   prober,
		words:    words,
		probeFor: probeFor,
		seed: func(s *engine.Session) engine.Generator {
			return &engine.DirGenerator{
				Words:   words,
				Methods: methods,
				Skip:    s.Skip,
			}
		},
		preflight: &engine.Descriptor{Mode: engine.ModeDir, Path: ""},
		recursive: opts.Recursive,
		crawl:     opts.Crawl,
	}
	return runScan(ctx, opts, spec)
}

// RunDNS executes subdomain enumeration against the configured zone.
func RunDNS(ctx context.Context, opts *config.Options) error {
	words, err := wordlist.LoadSimple(opts.WordlistPath)
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}

	prober := probe.NewDNS(opts.Resolver)
	zone := strings.Trim(opts.Domain, ".")

	spec := scanSpec{
		mode:   engine.ModeDNS,
		label:  zone,
		prober: prober,
		words:  words,
		probeFor: func(scope, word string) engine.Descriptor {
			return engine.Descriptor{
				Mode:  engine.ModeDNS,
				Scope: scope,
				Word:  word,
				Host:  word + "." + scope,
			}
		},
		seed: func(s *engine.Session) engine.Generator {
			return &engine.DNSGenerator{Zone: zone, Words: words, Skip: s.Skip}
		},
		// Names that do not resolve are misses, not findings, no matter what
		// the user's status rules say.
		pre: []filter.Filter{filter.NewStatusFilter([]int{200}, nil)},
	}
	return runScan(ctx, opts, spec)
}

// RunVHost executes virtual host enumeration: Host header candidates
// against a fixed base URL.
func RunVHost(ctx context.Context, opts *config.Options) error {
	words, err := wordlist.LoadSimple(opts.WordlistPath)
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}

	prober, err := probe.NewHTTP(opts)
	if err != nil {
		return fmt.Errorf("creating prober: %w", err)
	}

	domain := strings.Trim(opts.Domain, ".")
	if domain == "" {
		u, err := url.Parse(opts.URL)
		if err != nil || u.Hostname() == "" {
			return fmt.Errorf("vhost mode needs a domain (-d) or a URL with a hostname")
		}
		domain = u.Hostname()
	}

	spec := scanSpec{
		mode:   engine.ModeVHost,
		label:  fmt.Sprintf("%s (Host: *.%s)", opts.URL, domain),
		prober: prober,
		words:  words,
		probeFor: func(scope, word string) engine.Descriptor {
			return engine.Descriptor{
				Mode:  engine.ModeVHost,
				Scope: scope,
				Word:  word,
				Host:  word + "." + scope,
				Path:  "/",
			}
		},
		seed: func(s *engine.Session) engine.Generator {
			return &engine.VHostGenerator{Domain: domain, Words: words, Skip: s.Skip}
		},
		preflight: &engine.Descriptor{Mode: engine.ModeVHost, Path: "/"},
	}
	return runScan(ctx, opts, spec)
}

// RunFuzz substitutes each wordlist entry into a request template.
func RunFuzz(ctx context.Context, opts *config.Options) error {
	words, err := wordlist.LoadSimple(opts.WordlistPath)
	if err != nil {
		return fmt.Errorf("loading wordlist: %w", err)
	}

	prober, err := probe.NewHTTP(opts)
	if err != nil {
		return fmt.Errorf("creating prober: %w", err)
	}

	tmpl := engine.Template{
		URL:     opts.URL,
		Headers: opts.Headers,
		Body:    opts.Body,
	}
	if len(opts.Methods) > 0 {
		tmpl.Method = strings.ToUpper(opts.Methods[0])
	}

	spec := scanSpec{
		mode:   engine.ModeFuzz,
		label:  tmpl.URL,
		prober: prober,
		words:  words,
		probeFor: func(scope, word string) engine.Descriptor {
			method, rawURL, headers, body := tmpl.Substitute(word)
			return engine.Descriptor{
				Mode:    engine.ModeFuzz,
				Scope:   scope,
				Word:    word,
				Method:  method,
				URL:     rawURL,
				Headers: headers,
				Body:    body,
			}
		},
		seed: func(s *engine.Session) engine.Generator {
			return &engine.FuzzGenerator{Template: tmpl, Words: words, Skip: s.Skip}
		},
	}
	return runScan(ctx, opts, spec)
}

// runScan is the shared pipeline for all modes.
func runScan(ctx context.Context, opts *config.Options, spec scanSpec) error {
	chain, err := buildAcceptor(opts, spec.prober, spec.probeFor, spec.pre...)
	if err != nil {
		return err
	}

	// Resume bookkeeping is keyed by wordlist entry, so it only thins the
	// seed generation; recursed and crawled work is re-derived on resume.
	var resumeState *resume.State
	if opts.ResumeFile != "" {
		resumeState, err = loadResume(opts, spec.mode.String(), &spec.words)
		if err != nil {
			return err
		}
		if len(spec.words) == 0 {
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "[+] All wordlist entries already completed\n")
			}
			return nil
		}
	}

	writer, err := output.New(opts.OutputFormat, opts.OutputFile, opts.SortBy, opts.NoColor, opts.Quiet, opts.ShowIPs)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer writer.Close()

	if err := writer.WriteHeader(); err != nil {
		return err
	}

	if !opts.Quiet {
		printBanner(opts, spec)
	}

	var hookRunner *hook.Runner
	if opts.OnResultCmd != "" {
		hookRunner = hook.NewRunner(opts.OnResultCmd, opts.Quiet)
	}

	var deduper *filter.Deduper
	if opts.Dedupe > 0 {
		deduper = filter.NewDeduper(opts.Dedupe)
	}

	cfg := engine.Config{
		Mode:              spec.mode,
		Concurrency:       opts.Threads,
		Timeout:           opts.Timeout,
		Delay:             opts.Delay,
		RateLimit:         opts.RateLimit,
		Retries:           opts.Retries,
		RetryServerErrors: opts.RetryServerErrors,
		Adaptive:          opts.AdaptiveThrottle,
		KeepBody:          spec.crawl,
		Quiet:             opts.Quiet,
	}

	var sessOpts []engine.Option
	if spec.preflight != nil {
		sessOpts = append(sessOpts, engine.WithPreflight(*spec.preflight))
	}
	if resumeState != nil {
		sessOpts = append(sessOpts, engine.WithObserver(func(out *engine.Outcome) {
			if out.Descriptor.Depth == 0 && out.Descriptor.Word != "" {
				resumeState.MarkCompleted(out.Descriptor.Word)
			}
		}))
	}

	pauser, cleanup := startStdinToggle(opts.Quiet)
	defer cleanup()
	if pauser != nil {
		sessOpts = append(sessOpts, engine.WithPauser(pauser))
	}

	// The recursion factory closes over sess so skipped entries land on the
	// session counters; sess is assigned before Run starts any generator.
	var sess *engine.Session
	if spec.recursive {
		methods := resolveMethods(opts)
		sessOpts = append(sessOpts, engine.WithRecursion(opts.MaxDepth, func(scope string, depth int) engine.Generator {
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "\r\033[K[*] Recursing into /%s (depth %d/%d)\n", scope, depth, opts.MaxDepth)
			}
			return &engine.DirGenerator{
				Scope:   scope,
				Words:   spec.words,
				Methods: methods,
				Depth:   depth,
				Skip:    sess.Skip,
			}
		}))
	}

	sess = engine.New(cfg, spec.prober, chain, sessOpts...)

	if resumeState != nil {
		saveResumeOnInterrupt(opts, resumeState)
	}

	progress := output.NewProgress(sess.Counters(), opts.Quiet)
	start := time.Now()

	findings, err := sess.Run(ctx, spec.seed(sess))
	if err != nil {
		return err
	}

	progress.Start()

	var discoveredDirs []string
	var crawled []string
	crawlSeen := make(map[string]struct{})

	consume := func(findings <-chan engine.Finding) error {
		for f := range findings {
			if deduper != nil && deduper.Repeat(&f) {
				continue
			}

			if spec.crawl && f.Outcome.Body != nil {
				for _, ref := range crawl.Extract(f.Outcome.Body, opts.URL) {
					if _, ok := crawlSeen[ref.Path]; !ok {
						crawlSeen[ref.Path] = struct{}{}
						crawled = append(crawled, ref.Path)
					}
				}
				f.Outcome.Body = nil
			}

			progress.ClearLine()
			if err := writer.WriteResult(&f); err != nil {
				progress.Redraw()
				return err
			}
			progress.Redraw()

			if hookRunner != nil {
				hookRunner.Run(&f)
			}
			if opts.Tree && f.Outcome.Descriptor.Mode == engine.ModeDir && engine.LooksLikeDirectory(&f.Outcome) {
				discoveredDirs = append(discoveredDirs, f.Outcome.Descriptor.Path)
			}
		}
		return nil
	}

	if err := consume(findings); err != nil {
		progress.Stop()
		return err
	}

	// Seed words that were already scanned must be in the crawl dedupe set
	// before the follow-up passes, or they get requested twice.
	var crawlStats output.Stats
	if spec.crawl && len(crawled) > 0 {
		for _, w := range spec.words {
			crawlSeen[strings.Trim(w, "/")] = struct{}{}
		}
		if err := runCrawlPasses(ctx, opts, spec, chain, progress, consume, crawled, crawlSeen, &crawlStats); err != nil {
			progress.Stop()
			return err
		}
	}

	progress.Stop()

	if resumeState != nil {
		if sess.State() == engine.StateCompleted {
			_ = resumeState.Remove()
		} else {
			_ = resumeState.Save()
		}
	}

	snap := sess.Counters().Snapshot()
	stats := output.Stats{
		TotalRequests: snap.Completed + crawlStats.TotalRequests,
		FilteredCount: snap.Filtered + crawlStats.FilteredCount,
		ErrorCount:    snap.Errors + crawlStats.ErrorCount,
		Duration:      time.Since(start),
	}
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.RequestsPerSec = float64(stats.TotalRequests) / secs
	}

	if err := writer.WriteFooter(stats); err != nil {
		return err
	}

	if opts.Tree && len(discoveredDirs) > 0 {
		output.PrintTree(os.Stdout, discoveredDirs)
	}

	if sess.State() == engine.StateCancelled {
		if !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[!] Scan cancelled\n")
		}
		return ctx.Err()
	}
	return nil
}

// runCrawlPasses probes paths harvested from response bodies, breadth-first
// up to CrawlDepth. Each pass is its own session over the same filter
// chain; newly harvested paths feed the next pass.
func runCrawlPasses(
	ctx context.Context,
	opts *config.Options,
	spec scanSpec,
	chain *filter.Chain,
	progress *output.Progress,
	consume func(<-chan engine.Finding) error,
	paths []string,
	seen map[string]struct{},
	stats *output.Stats,
) error {
	for depth := 1; depth <= opts.CrawlDepth && len(paths) > 0; depth++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !opts.Quiet {
			progress.ClearLine()
			fmt.Fprintf(os.Stderr, "[*] Crawl pass %d/%d: %d new paths\n", depth, opts.CrawlDepth, len(paths))
			progress.Redraw()
		}

		items := make([]engine.Descriptor, 0, len(paths))
		for _, p := range paths {
			items = append(items, engine.Descriptor{
				Mode:  engine.ModeDir,
				Word:  p,
				Depth: depth,
				Path:  p,
			})
		}

		cfg := engine.Config{
			Mode:              spec.mode,
			Concurrency:       opts.Threads,
			Timeout:           opts.Timeout,
			Delay:             opts.Delay,
			RateLimit:         opts.RateLimit,
			Retries:           opts.Retries,
			RetryServerErrors: opts.RetryServerErrors,
			Adaptive:          opts.AdaptiveThrottle,
			KeepBody:          true,
			Quiet:             opts.Quiet,
		}
		pass := engine.New(cfg, spec.prober, chain)

		passCtx, cancelPass := context.WithCancel(ctx)
		findings, err := pass.Run(passCtx, &engine.StaticGenerator{Items: items})
		if err != nil {
			cancelPass()
			return err
		}

		// The consume closure appends new discoveries for the next pass.
		var next []string
		harvest := make(chan engine.Finding)
		go func() {
			for f := range findings {
				if f.Outcome.Body != nil {
					for _, ref := range crawl.Extract(f.Outcome.Body, opts.URL) {
						if _, ok := seen[ref.Path]; !ok {
							seen[ref.Path] = struct{}{}
							next = append(next, ref.Path)
						}
					}
					f.Outcome.Body = nil
				}
				harvest <- f
			}
			close(harvest)
		}()
		if err := consume(harvest); err != nil {
			// The forwarder above may be blocked on a send. Cancel the pass
			// and drain what is left so it can exit.
			cancelPass()
			for range harvest {
			}
			return err
		}
		cancelPass()

		snap := pass.Counters().Snapshot()
		stats.TotalRequests += snap.Completed
		stats.FilteredCount += snap.Filtered
		stats.ErrorCount += snap.Errors

		paths = next
	}
	return nil
}

// buildAcceptor assembles the filter chain in fixed rule order: status
// rules first, wildcard suppression, body regex rules, then size rules.
// Mode-imposed pre rules run before everything the user configured.
func buildAcceptor(opts *config.Options, prober engine.Prober, probeFor func(scope, word string) engine.Descriptor, pre ...filter.Filter) (*filter.Chain, error) {
	chain := filter.NewChain()

	for _, f := range pre {
		chain.Add(f)
	}

	if len(opts.IncludeStatus) > 0 || len(opts.ExcludeStatus) > 0 {
		chain.Add(filter.NewStatusFilter(opts.IncludeStatus, opts.ExcludeStatus))
	}

	var matchRe *regexp.Regexp
	if opts.MatchRegex != "" {
		var err error
		matchRe, err = regexp.Compile(opts.MatchRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid match regex: %w", err)
		}
	}

	if opts.Calibrate {
		cal := calibrate.New(calibrate.Config{
			Retries:   opts.Retries,
			Timeout:   opts.Timeout,
			Threshold: opts.CalibrateThreshold,
			HashBody:  opts.HashBody,
		}, prober, probeFor)
		chain.Add(filter.NewWildcardFilter(cal, matchRe))
	}

	if opts.FilterRegex != "" {
		re, err := regexp.Compile(opts.FilterRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid filter regex: %w", err)
		}
		chain.Add(filter.NewFilterRegexFilter(re))
	}
	if matchRe != nil {
		chain.Add(filter.NewMatchRegexFilter(matchRe))
	}

	if len(opts.ExcludeSize) > 0 || len(opts.MatchSize) > 0 {
		chain.Add(filter.NewSizeFilter(opts.ExcludeSize, opts.MatchSize))
	}

	return chain, nil
}

// loadResume restores or creates the resume state and thins words in place.
// State saved by a different mode or target is ignored, not reused.
func loadResume(opts *config.Options, mode string, words *[]string) (*resume.State, error) {
	target := opts.URL
	if target == "" {
		target = opts.Domain
	}
	existing, err := resume.Load(opts.ResumeFile)
	if err != nil {
		return nil, fmt.Errorf("loading resume file: %w", err)
	}
	if existing != nil && existing.Matches(mode, target) {
		before := len(*words)
		*words = existing.FilterRemaining(*words)
		if !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[+] Resuming: skipping %d already completed entries\n", before-len(*words))
		}
		return existing, nil
	}
	return resume.New(opts.ResumeFile, mode, target, len(*words)), nil
}

// saveResumeOnInterrupt snapshots progress when the process is signalled so
// the scan can pick up where it left off.
func saveResumeOnInterrupt(opts *config.Options, state *resume.State) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		_ = state.Save()
		fmt.Fprintf(os.Stderr, "\n[*] Progress saved to %s — resume with --resume-file\n", opts.ResumeFile)
	}()
}

// resolveTargets builds the list of base URLs to scan from -u, -l, --cidr.
func resolveTargets(opts *config.Options) ([]string, error) {
	var targets []string

	if opts.URL != "" {
		targets = append(targets, opts.URL)
	}

	if opts.URLsFile != "" {
		f, err := os.Open(opts.URLsFile)
		if err != nil {
			return nil, fmt.Errorf("opening URLs file: %w", err)
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
					line = "http://" + line
				}
				targets = append(targets, line)
			}
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("reading URLs file: %w", err)
		}
	}

	if opts.CIDRTargets != "" {
		scheme := "https"
		if opts.URL != "" && strings.HasPrefix(opts.URL, "http://") {
			scheme = "http"
		}
		cidrURLs, err := netutil.ExpandTargets(opts.CIDRTargets, opts.Ports, scheme)
		if err != nil {
			return nil, fmt.Errorf("expanding CIDR: %w", err)
		}
		targets = append(targets, cidrURLs...)
	}

	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets specified (-u, -l, or --cidr)")
	}
	return targets, nil
}

func resolveMethods(opts *config.Options) []string {
	if len(opts.Methods) > 0 {
		methods := make([]string, len(opts.Methods))
		for i, m := range opts.Methods {
			methods[i] = strings.ToUpper(m)
		}
		return methods
	}
	return []string{"GET"}
}
