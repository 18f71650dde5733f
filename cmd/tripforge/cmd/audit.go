package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tripforge/tripforge/internal/domain/audit"
)

var auditFlags struct {
	org   string
	user  string
	event string
	since string
	until string
	limit int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Query recorded policy evaluations",
	Long: `Query the audit trail of policy evaluations within a time range,
optionally filtered by organization, user, or event type.`,
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().StringVar(&auditFlags.org, "org", "", "filter by organization")
	auditCmd.Flags().StringVar(&auditFlags.user, "user", "", "filter by user")
	auditCmd.Flags().StringVar(&auditFlags.event, "event", "", "filter by event type")
	auditCmd.Flags().StringVar(&auditFlags.since, "since", "", "start of time range (YYYY-MM-DD, default 7 days ago)")
	auditCmd.Flags().StringVar(&auditFlags.until, "until", "", "end of time range (YYYY-MM-DD, default now)")
	auditCmd.Flags().IntVar(&auditFlags.limit, "limit", 100, "maximum records returned")
	rootCmd.AddCommand(auditCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.AuditQuery == nil {
		return fmt.Errorf("audit backend %q does not support queries", app.Config.Audit.Backend)
	}

	filter := audit.Filter{
		StartTime: time.Now().UTC().AddDate(0, 0, -7),
		EndTime:   time.Now().UTC(),
		OrgID:     auditFlags.org,
		UserID:    auditFlags.user,
		EventType: auditFlags.event,
		Limit:     auditFlags.limit,
	}
	if auditFlags.since != "" {
		t, err := parseDateFlag("since", auditFlags.since)
		if err != nil {
			return err
		}
		filter.StartTime = *t
	}
	if auditFlags.until != "" {
		t, err := parseDateFlag("until", auditFlags.until)
		if err != nil {
			return err
		}
		filter.EndTime = t.Add(24 * time.Hour)
	}

	records, err := app.AuditQuery.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}
	return printJSON(records)
}
