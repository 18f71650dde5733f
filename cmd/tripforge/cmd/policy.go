package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripforge/tripforge/internal/domain/compliance"
	"github.com/tripforge/tripforge/internal/domain/travel"
)

var resolveFlags struct {
	user string
	org  string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the effective travel policy for a user",
	Long: `Resolve the effective travel policy for a user: the highest-priority
active base policy for their role, merged with the most recent
currently-valid exception scoped to them. A user governed by no policy
is a valid state, not an error.`,
	RunE: runResolve,
}

var evaluateFlags struct {
	user      string
	org       string
	category  string
	amount    float64
	currency  string
	cabin     string
	nights    int
	total     float64
	departure string
	ret       string
	bookingID string
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a booking against the effective policy",
	Long: `Evaluate a proposed booking against the user's effective policy.

Every applicable check runs; the verdict lists all violations at once
together with the limits snapshot and remaining budget. The evaluation
is recorded to the audit trail whatever the outcome.

Examples:
  tripforge evaluate --user u-1 --org acme --category flight --amount 600 --cabin business
  tripforge evaluate --user u-1 --org acme --category hotel --amount 1200 --nights 5`,
	RunE: runEvaluate,
}

func init() {
	rf := resolveCmd.Flags()
	rf.StringVar(&resolveFlags.user, "user", "", "user id (required)")
	rf.StringVar(&resolveFlags.org, "org", "", "organization id (required)")
	_ = resolveCmd.MarkFlagRequired("user")
	_ = resolveCmd.MarkFlagRequired("org")
	rootCmd.AddCommand(resolveCmd)

	ef := evaluateCmd.Flags()
	ef.StringVar(&evaluateFlags.user, "user", "", "user id (required)")
	ef.StringVar(&evaluateFlags.org, "org", "", "organization id (required)")
	ef.StringVar(&evaluateFlags.category, "category", "flight", "booking category (flight or hotel)")
	ef.Float64Var(&evaluateFlags.amount, "amount", 0, "booking amount (required)")
	ef.StringVar(&evaluateFlags.currency, "currency", "EUR", "settlement currency")
	ef.StringVar(&evaluateFlags.cabin, "cabin", "", "cabin class for flight requests")
	ef.IntVar(&evaluateFlags.nights, "nights", 0, "nights for hotel requests")
	ef.Float64Var(&evaluateFlags.total, "total", 0, "total amount for hotel requests (defaults to amount)")
	ef.StringVar(&evaluateFlags.departure, "departure", "", "departure date YYYY-MM-DD")
	ef.StringVar(&evaluateFlags.ret, "return", "", "return date YYYY-MM-DD")
	ef.StringVar(&evaluateFlags.bookingID, "booking-id", "", "existing booking id, carried into the audit record")
	_ = evaluateCmd.MarkFlagRequired("user")
	_ = evaluateCmd.MarkFlagRequired("org")
	_ = evaluateCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(evaluateCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	effective, err := app.Policies.Resolve(cmd.Context(), resolveFlags.user, resolveFlags.org)
	if err != nil {
		return err
	}
	if effective == nil {
		fmt.Printf("no policy governs user %s in organization %s\n", resolveFlags.user, resolveFlags.org)
		return nil
	}
	return printJSON(effective)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	req := compliance.BookingRequest{
		Category:    compliance.Category(evaluateFlags.category),
		Amount:      evaluateFlags.amount,
		Currency:    evaluateFlags.currency,
		Nights:      evaluateFlags.nights,
		TotalAmount: evaluateFlags.total,
		BookingID:   evaluateFlags.bookingID,
	}
	if evaluateFlags.cabin != "" {
		req.CabinClass = travel.CabinClass(evaluateFlags.cabin)
	}

	var err error
	if req.DepartureDate, err = parseDateFlag("departure", evaluateFlags.departure); err != nil {
		return err
	}
	if req.ReturnDate, err = parseDateFlag("return", evaluateFlags.ret); err != nil {
		return err
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	verdict, err := app.Compliance.Evaluate(cmd.Context(), evaluateFlags.user, evaluateFlags.org, req)
	if err != nil {
		return err
	}
	return printJSON(verdict)
}

func parseDateFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	t = t.UTC()
	return &t, nil
}
