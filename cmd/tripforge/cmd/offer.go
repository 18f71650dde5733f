package cmd

import (
	"github.com/spf13/cobra"
)

var offerProvider string

var offerCmd = &cobra.Command{
	Use:   "offer <offer-id>",
	Short: "Fetch current state of an offer",
	Long: `Fetch the current state of an offer from its provider.

Offer ids are provider-scoped, so the provider that produced the offer
should be passed with --provider; without it the primary provider is
asked. Expired offers fail with an expired-offer error and must be
re-searched.`,
	Args: cobra.ExactArgs(1),
	RunE: runOffer,
}

func init() {
	offerCmd.Flags().StringVar(&offerProvider, "provider", "", "provider that produced the offer")
	rootCmd.AddCommand(offerCmd)
}

func runOffer(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	offer, err := app.Orchestrator.GetOfferDetail(cmd.Context(), args[0], offerProvider)
	if err != nil {
		return err
	}
	return printJSON(offer)
}
