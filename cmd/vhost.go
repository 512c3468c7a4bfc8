package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omnibust/omnibust/internal/runner"
)

var vhostCmd = &cobra.Command{
	Use:   "vhost",
	Short: "Enumerate virtual hosts on a web server",
	Example: `  omnibust vhost -u https://10.0.0.5 -d example.com
  omnibust vhost -u https://example.com -w hostnames.txt`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateCommon(); err != nil {
			return err
		}
		if opts.URL == "" {
			return fmt.Errorf("target URL required: use -u")
		}
		if !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
			opts.URL = "http://" + opts.URL
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.RunVHost(ctx, &opts)
	},
	SilenceUsage: true,
}

func init() {
	f := vhostCmd.Flags()
	f.StringVarP(&opts.URL, "url", "u", "", "Base URL the Host header candidates are sent to")
	f.StringVarP(&opts.Domain, "domain", "d", "", "Domain candidates are prefixed to (default: URL hostname)")
}
