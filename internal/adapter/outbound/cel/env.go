package cel

import (
	"time"

	"github.com/google/cel-go/cel"

	"github.com/tripforge/tripforge/internal/domain/compliance"
)

// RuleInput is the variable set exposed to custom policy rule expressions.
type RuleInput struct {
	UserID string
	OrgID  string
	Role   string

	Request compliance.BookingRequest

	MonthlySpent float64
	AnnualSpent  float64

	// Now is the evaluation instant, used to derive advance_days and
	// trip_days.
	Now time.Time
}

// NewRuleEnvironment creates the CEL environment for custom policy rules.
// Every variable is scalar so expressions stay cheap to evaluate.
func NewRuleEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("category", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("cabin_class", cel.StringType),
		cel.Variable("nights", cel.IntType),
		cel.Variable("total_amount", cel.DoubleType),
		// advance_days and trip_days are -1 when the request omits the
		// dates needed to derive them.
		cel.Variable("advance_days", cel.IntType),
		cel.Variable("trip_days", cel.IntType),
		cel.Variable("user_id", cel.StringType),
		cel.Variable("org_id", cel.StringType),
		cel.Variable("role", cel.StringType),
		cel.Variable("monthly_spent", cel.DoubleType),
		cel.Variable("annual_spent", cel.DoubleType),
	)
}

// BuildActivation converts a RuleInput into the CEL activation map.
func BuildActivation(in RuleInput) map[string]any {
	advanceDays := int64(-1)
	if in.Request.DepartureDate != nil {
		advanceDays = daysBetweenCeil(in.Now, *in.Request.DepartureDate)
	}
	tripDays := int64(-1)
	if in.Request.DepartureDate != nil && in.Request.ReturnDate != nil {
		tripDays = daysBetweenCeil(*in.Request.DepartureDate, *in.Request.ReturnDate)
	}

	totalAmount := in.Request.TotalAmount
	if totalAmount == 0 {
		totalAmount = in.Request.Amount
	}

	return map[string]any{
		"category":      string(in.Request.Category),
		"amount":        in.Request.Amount,
		"currency":      in.Request.Currency,
		"cabin_class":   string(in.Request.CabinClass),
		"nights":        int64(in.Request.Nights),
		"total_amount":  totalAmount,
		"advance_days":  advanceDays,
		"trip_days":     tripDays,
		"user_id":       in.UserID,
		"org_id":        in.OrgID,
		"role":          in.Role,
		"monthly_spent": in.MonthlySpent,
		"annual_spent":  in.AnnualSpent,
	}
}

// daysBetweenCeil returns ceil((to - from) / 1 day).
func daysBetweenCeil(from, to time.Time) int64 {
	diff := to.Sub(from)
	days := diff / (24 * time.Hour)
	if diff%(24*time.Hour) > 0 {
		days++
	}
	return int64(days)
}
