// Package cmd defines the CLI commands for the grantscout executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grantscout",
		Short: "Discovers startup grants by crawling funding portals",
		Long: `grantscout explores a curated set of grant portals, extracts structured
funding opportunities from their pages, and ranks them against a founder's
search criteria. Run it once from the command line or serve it over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults apply when omitted")

	cmd.AddCommand(newDiscoverCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
