package runner

import (
	"fmt"
	"os"
	"strings"

	"github.com/omnibust/omnibust/internal/config"
	"github.com/omnibust/omnibust/pkg/version"
)

func printBanner(opts *config.Options, spec scanSpec) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		red    = "\033[31m"
		green  = "\033[32m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)

	c, w, d, r, g, y, rs := cyan, white, dim, red, green, yellow, reset
	if opts.NoColor {
		c, w, d, r, g, y, rs = "", "", "", "", "", "", ""
	}

	fmt.Fprintf(os.Stderr, `
%s                          _ __               __  %s
%s  ____  ____ ___  ____  (_) /_  __  _______/ /_ %s
%s / __ \/ __ '__ \/ __ \/ / __ \/ / / / ___/ __/ %s
%s/ /_/ / / / / / / / / / / /_/ / /_/ (__  ) /_   %s
%s\____/_/ /_/ /_/_/ /_/_/_.___/\__,_/____/\__/   %s %sv%s%s

%s    Network Enumeration Engine                   %s
`,
		c, rs,
		c, rs,
		c, rs,
		c, rs,
		c, rs, d, version.Version, rs,
		w, rs,
	)

	calLabel := fmt.Sprintf("%sON%s", g, rs)
	if !opts.Calibrate {
		calLabel = fmt.Sprintf("%sOFF%s", r, rs)
	}

	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sMode:%s         %s%s%s\n", d, rs, y, spec.mode, rs)
	fmt.Fprintf(os.Stderr, "  %sTarget:%s       %s%s%s\n", d, rs, w, spec.label, rs)
	fmt.Fprintf(os.Stderr, "  %sWorkers:%s      %s%d%s\n", d, rs, y, opts.Threads, rs)
	fmt.Fprintf(os.Stderr, "  %sWordlist:%s     %s%d entries%s\n", d, rs, w, len(spec.words), rs)
	if len(opts.Extensions) > 0 {
		fmt.Fprintf(os.Stderr, "  %sExtensions:%s   %s%s%s\n", d, rs, w, strings.Join(opts.Extensions, ", "), rs)
	}
	if len(opts.Methods) > 0 {
		fmt.Fprintf(os.Stderr, "  %sMethods:%s      %s%s%s\n", d, rs, w, strings.Join(opts.Methods, ", "), rs)
	}
	if spec.recursive {
		fmt.Fprintf(os.Stderr, "  %sRecursion:%s    %sdepth %d%s\n", d, rs, w, opts.MaxDepth, rs)
	}
	if opts.RateLimit > 0 {
		fmt.Fprintf(os.Stderr, "  %sRate limit:%s   %s%d req/s%s\n", d, rs, w, opts.RateLimit, rs)
	}
	fmt.Fprintf(os.Stderr, "  %sCalibration:%s  %s\n", d, rs, calLabel)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
