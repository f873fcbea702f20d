package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/msgraph"
	"github.com/Tiliavir/hours/internal/timecalc"
)

var (
	outlookSyncFrom   string
	outlookSyncTo     string
	outlookSyncDate   string
	outlookSyncToday  bool
	outlookSyncDryRun bool
	outlookSyncTZ     string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import Outlook calendar events as entries",
	Args:  cobra.NoArgs,
	RunE:  runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncToday, "today", false, "Sync only today (default)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned imports without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (default from config)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange resolves the --date/--from/--to flags into an inclusive range.
// With none set it covers today.
func syncRange(now time.Time, date, from, to string) (time.Time, time.Time, error) {
	switch {
	case date != "":
		d, err := timecalc.ParseDate(date)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --date value: %w", err)
		}
		return timecalc.StartOfDay(d), timecalc.EndOfDay(d), nil

	case from != "" || to != "":
		if from == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		f, err := timecalc.ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from value: %w", err)
		}
		end := now
		if to != "" {
			end, err = timecalc.ParseDate(to)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to value: %w", err)
			}
		}
		if end.Before(f) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", timecalc.FormatDate(end), from)
		}
		return timecalc.StartOfDay(f), timecalc.EndOfDay(end), nil

	default:
		return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
	}
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	s := openSession()
	out := cmd.OutOrStdout()

	from, to, err := syncRange(s.tracker.Today(), outlookSyncDate, outlookSyncFrom, outlookSyncTo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if s.cfg.Outlook.ClientID == "" || s.cfg.Outlook.TenantID == "" {
		fmt.Fprintln(os.Stderr, "outlook.client_id and outlook.tenant_id must be set in the config file")
		os.Exit(1)
	}

	timezone := outlookSyncTZ
	if timezone == "" {
		timezone = s.cfg.Outlook.Timezone
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(out, "Syncing Outlook events (%s → %s)%s...\n\n",
		timecalc.FormatDate(from), timecalc.FormatDate(to), dryTag)

	ctx := context.Background()

	auth := &msgraph.Authenticator{
		Dir:      s.dir,
		TenantID: s.cfg.Outlook.TenantID,
		ClientID: s.cfg.Outlook.ClientID,
		Out:      out,
		Logger:   s.logger,
	}
	tok, oauthCfg, err := auth.Token(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		os.Exit(1)
	}

	client := msgraph.NewClient(ctx, tok, oauthCfg, s.dir)

	events, err := client.GetCalendarView(ctx, from, to, timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch calendar events: %v\n", err)
		os.Exit(1)
	}
	s.logger.Debug("fetched calendar view", "events", len(events))

	result := msgraph.SyncEvents(events, s.tracker, msgraph.SyncOptions{
		DryRun:   outlookSyncDryRun,
		Timezone: timezone,
		Out:      out,
	})

	printSyncSummary(out, result)
	if result.Errors > 0 {
		os.Exit(2)
	}
	return nil
}

func printSyncSummary(w io.Writer, result msgraph.SyncResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  %d imported\n", result.Imported)
	fmt.Fprintf(w, "  %d skipped\n", result.Skipped)
	if result.Errors > 0 {
		fmt.Fprintf(w, "  %d errors\n", result.Errors)
	}
}
