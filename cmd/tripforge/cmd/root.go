// Package cmd provides the CLI commands for Tripforge.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripforge/tripforge/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tripforge",
	Short: "Tripforge - corporate flight booking core",
	Long: `Tripforge searches, prices, and books flights across multiple suppliers
behind one canonical offer model, and evaluates every booking against
the organization's travel policy.

Quick start:
  1. Create a config file: tripforge.yaml
  2. Export provider credentials, e.g. TRIPFORGE_PROVIDERS_DUFFEL_TOKEN
  3. Run: tripforge search --origin LHR --destination JFK --departure 2026-04-01

Configuration:
  Config is loaded from tripforge.yaml in the current directory,
  $HOME/.tripforge/, or /etc/tripforge/.

  Environment variables override config values with the TRIPFORGE_ prefix.
  Example: TRIPFORGE_PROVIDERS_AMADEUS_CLIENT_ID=...

Commands:
  search      Search flight offers with provider fallback
  offer       Fetch current state of an offer
  book        Book an offer
  resolve     Resolve the effective travel policy for a user
  evaluate    Evaluate a booking against the effective policy
  audit       Query recorded policy evaluations
  providers   List configured providers and their availability
  version     Print version information`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tripforge.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
