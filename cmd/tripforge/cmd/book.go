package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripforge/tripforge/internal/domain/provider"
)

var bookFlags struct {
	provider string
	file     string
}

var bookCmd = &cobra.Command{
	Use:   "book <offer-id>",
	Short: "Book an offer",
	Long: `Book an offer with the provider that produced it.

Passengers and ancillary service selections are read from a JSON file:

  {
    "passengers": [
      {
        "type": "adult",
        "givenName": "Ada",
        "familyName": "Lovelace",
        "dateOfBirth": "1985-12-10",
        "email": "ada@example.com",
        "phone": "+44 20 7946 0958"
      }
    ],
    "services": [
      {"serviceId": "ase_123", "quantity": 1}
    ]
  }

The adapter re-verifies offer expiry before booking and fails fast,
without upstream side effects, when the offer has lapsed. Requested
services no longer offered upstream are dropped and reported in the
confirmation rather than failing the booking.`,
	Args: cobra.ExactArgs(1),
	RunE: runBook,
}

func init() {
	bookCmd.Flags().StringVar(&bookFlags.provider, "provider", "", "provider that produced the offer")
	bookCmd.Flags().StringVar(&bookFlags.file, "file", "", "JSON file with passengers and services (required)")
	_ = bookCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(bookCmd)
}

func runBook(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(bookFlags.file)
	if err != nil {
		return fmt.Errorf("reading booking file: %w", err)
	}

	var params provider.BookingParams
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("parsing booking file %s: %w", bookFlags.file, err)
	}
	params.OfferID = args[0]

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	conf, err := app.Orchestrator.CreateBooking(cmd.Context(), params, bookFlags.provider)
	if err != nil {
		return err
	}

	if conf.ServicesDropped > 0 {
		fmt.Fprintf(os.Stderr, "note: %d requested service(s) were no longer offered and were dropped\n", conf.ServicesDropped)
	}
	return printJSON(conf)
}
