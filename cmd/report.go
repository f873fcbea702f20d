package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/timecalc"
)

var (
	reportWeek    bool
	reportArchive bool
	reportFormat  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show hours per day",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Only this ISO week")
	reportCmd.Flags().BoolVar(&reportArchive, "archive", false, "Include archived entries")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

// dayTotal is the aggregated hours for one date.
type dayTotal struct {
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	Entries int     `json:"entries"`
}

type report struct {
	Label string     `json:"label"`
	Days  []dayTotal `json:"days"`
	Total float64    `json:"total_hours"`
}

func runReport(cmd *cobra.Command, args []string) error {
	s := openSession()

	entries := s.tracker.Active()
	if reportArchive {
		archived, err := s.tracker.Archive()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		entries = append(entries, archived...)
	}

	label := "All entries"
	keep := func(string) bool { return true }
	if reportWeek {
		today := s.tracker.Today()
		from, to := timecalc.WeekRange(today)
		label = "Week " + timecalc.ISOWeekLabel(today)
		keep = func(date string) bool { return timecalc.InRange(date, from, to) }
	}

	r := buildReport(label, entries, keep)
	if err := writeReport(cmd.OutOrStdout(), r, reportFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return nil
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

// buildReport groups entries by date, newest first. Separators are ignored.
func buildReport(label string, entries []model.WorkEntry, keep func(date string) bool) report {
	byDate := map[string]*dayTotal{}
	var total float64
	for _, e := range entries {
		if e.IsSeparator() || !keep(e.Date) {
			continue
		}
		d, ok := byDate[e.Date]
		if !ok {
			d = &dayTotal{Date: e.Date}
			byDate[e.Date] = d
		}
		d.Hours += e.Hours
		d.Entries++
		total += e.Hours
	}

	days := make([]dayTotal, 0, len(byDate))
	for _, d := range byDate {
		d.Hours = roundHours(d.Hours)
		days = append(days, *d)
	}
	slices.SortFunc(days, func(a, b dayTotal) int {
		return model.CompareNewestFirst(model.WorkEntry{Date: a.Date}, model.WorkEntry{Date: b.Date})
	})

	return report{Label: label, Days: days, Total: roundHours(total)}
}

func writeReport(w io.Writer, r report, format string) error {
	switch format {
	case "csv":
		fmt.Fprintln(w, "date,hours,entries")
		for _, d := range r.Days {
			fmt.Fprintf(w, "%s,%s,%d\n", d.Date, timecalc.FormatHours(d.Hours), d.Entries)
		}
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "md":
		line := strings.Repeat("-", 32)
		fmt.Fprintln(w, r.Label)
		fmt.Fprintln(w, line)
		for _, d := range r.Days {
			fmt.Fprintf(w, "%-20s%s\n", d.Date, timecalc.FormatHours(d.Hours))
		}
		fmt.Fprintln(w, line)
		fmt.Fprintf(w, "%-20s%s\n", "Total", timecalc.FormatHours(r.Total))
	default:
		return fmt.Errorf("unknown format %q (want md, csv or json)", format)
	}
	return nil
}
