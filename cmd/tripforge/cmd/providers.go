package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their availability",
	Long: `List every configured provider and whether it is currently usable.

A provider registered without credentials stays listed but unavailable;
searches route around it instead of failing at startup.`,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	providers := app.Orchestrator.Providers()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tAVAILABLE")
	for _, name := range names {
		fmt.Fprintf(w, "%s\t%t\n", name, providers[name])
	}
	return w.Flush()
}
