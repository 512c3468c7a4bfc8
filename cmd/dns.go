package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/omnibust/omnibust/internal/runner"
)

var dnsCmd = &cobra.Command{
	Use:   "dns",
	Short: "Enumerate subdomains of a DNS zone",
	Example: `  omnibust dns -d example.com
  omnibust dns -d example.com -w subdomains.txt --show-ips
  omnibust dns -d example.com --resolver 8.8.8.8:53`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateCommon(); err != nil {
			return err
		}
		if opts.Domain == "" {
			return fmt.Errorf("domain required: use -d")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return runner.RunDNS(ctx, &opts)
	},
	SilenceUsage: true,
}

func init() {
	f := dnsCmd.Flags()
	f.StringVarP(&opts.Domain, "domain", "d", "", "Zone to enumerate (e.g. example.com)")
	f.StringVar(&opts.Resolver, "resolver", "", "Upstream resolver host[:port] (default: system resolver)")
	f.BoolVar(&opts.ShowIPs, "show-ips", false, "Print resolved addresses next to each subdomain")
}
