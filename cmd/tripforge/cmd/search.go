package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripforge/tripforge/internal/domain/travel"
)

var searchFlags struct {
	origin      string
	destination string
	departure   string
	returnDate  string
	adults      int
	children    int
	infants     int
	cabin       string
	maxResults  int
	provider    string
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search flight offers with provider fallback",
	Long: `Search flight offers across the configured providers.

The primary provider is tried first; when it fails and fallback is
enabled, the next available provider is tried and the result is tagged
usedFallback=true. Passing --provider pins the search to one supplier
and disables fallback.

Examples:
  tripforge search --origin LHR --destination JFK --departure 2026-04-01
  tripforge search --origin FRA --destination CDG --departure 2026-04-01 \
      --return 2026-04-08 --cabin business --provider amadeus`,
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchFlags.origin, "origin", "", "origin IATA code (required)")
	f.StringVar(&searchFlags.destination, "destination", "", "destination IATA code (required)")
	f.StringVar(&searchFlags.departure, "departure", "", "departure date YYYY-MM-DD (required)")
	f.StringVar(&searchFlags.returnDate, "return", "", "return date YYYY-MM-DD (empty = one-way)")
	f.IntVar(&searchFlags.adults, "adults", 1, "number of adult passengers")
	f.IntVar(&searchFlags.children, "children", 0, "number of child passengers")
	f.IntVar(&searchFlags.infants, "infants", 0, "number of infant passengers")
	f.StringVar(&searchFlags.cabin, "cabin", "", "cabin class (economy, premium_economy, business, first)")
	f.IntVar(&searchFlags.maxResults, "max-results", 0, "limit the number of offers returned")
	f.StringVar(&searchFlags.provider, "provider", "", "pin the search to one provider (disables fallback)")

	_ = searchCmd.MarkFlagRequired("origin")
	_ = searchCmd.MarkFlagRequired("destination")
	_ = searchCmd.MarkFlagRequired("departure")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	params := travel.SearchParams{
		Origin:        searchFlags.origin,
		Destination:   searchFlags.destination,
		DepartureDate: searchFlags.departure,
		ReturnDate:    searchFlags.returnDate,
		Adults:        searchFlags.adults,
		Children:      searchFlags.children,
		Infants:       searchFlags.infants,
		CabinClass:    travel.CabinClass(searchFlags.cabin),
		MaxResults:    searchFlags.maxResults,
	}

	result, err := app.Orchestrator.SearchWithFallback(cmd.Context(), params, searchFlags.provider)
	if err != nil {
		return err
	}

	if result.UsedFallback {
		fmt.Fprintf(os.Stderr, "note: primary provider failed, results from fallback %q\n", result.Provider)
	}
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
