package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/timecalc"
)

var (
	exportFormat  string
	exportArchive bool
	exportWeek    bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export entries to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "Export archived entries instead of active ones")
	exportCmd.Flags().BoolVar(&exportWeek, "week", false, "Only this ISO week")
}

func runExport(cmd *cobra.Command, args []string) error {
	s := openSession()

	entries := s.tracker.Active()
	if exportArchive {
		archived, err := s.tracker.Archive()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		entries = archived
	}
	if exportWeek {
		from, to := timecalc.WeekRange(s.tracker.Today())
		entries = filterEntries(entries, func(e model.WorkEntry) bool {
			return timecalc.InRange(e.Date, from, to)
		})
	}

	if err := writeExport(cmd.OutOrStdout(), entries, exportFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}

// filterEntries keeps real entries matching keep. Separators are dropped.
func filterEntries(entries []model.WorkEntry, keep func(model.WorkEntry) bool) []model.WorkEntry {
	out := make([]model.WorkEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsSeparator() && keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func writeExport(w io.Writer, entries []model.WorkEntry, format string) error {
	switch format {
	case "json":
		rows := filterEntries(entries, func(model.WorkEntry) bool { return true })
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "md":
		printList(w, entries, model.TotalHours(entries))
	case "csv":
		printCSV(w, entries)
	default:
		return fmt.Errorf("unknown format %q (want csv, json or md)", format)
	}
	return nil
}

func printCSV(w io.Writer, entries []model.WorkEntry) {
	fmt.Fprintln(w, "date,description,start,end,hours")
	for _, e := range entries {
		if e.IsSeparator() {
			continue
		}
		fmt.Fprintln(w, strings.Join([]string{
			csvEscape(e.Date),
			csvEscape(e.Description),
			csvEscape(e.Start),
			csvEscape(e.End),
			timecalc.FormatHours(e.Hours),
		}, ","))
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
