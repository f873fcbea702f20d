package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/formatter"
	"github.com/Tiliavir/hours/internal/model"
)

var (
	listArchive bool
	listReverse bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged entries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listArchive, "archive", false, "Show archived entries instead of active ones")
	listCmd.Flags().BoolVar(&listReverse, "reverse", false, "Oldest first")
}

func runList(cmd *cobra.Command, args []string) error {
	s := openSession()

	entries := s.tracker.Active()
	total := s.tracker.TotalHours()
	if listArchive {
		archived, err := s.tracker.Archive()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		entries, total = archived, s.tracker.ArchiveHours()
	}
	if listReverse {
		slices.Reverse(entries)
	}

	printList(cmd.OutOrStdout(), entries, total)
	return nil
}

// printList prints entries as a table with a total row.
func printList(w io.Writer, entries []model.WorkEntry, total float64) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}
	fmt.Fprint(w, formatter.EntryTable(entries, total))
}
