package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/formatter"
	"github.com/Tiliavir/hours/internal/storage"
	"github.com/Tiliavir/hours/internal/timecalc"
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Move all active entries to the archive",
	Args:  cobra.NoArgs,
	RunE:  runArchive,
}

func runArchive(cmd *cobra.Command, args []string) error {
	s := openSession()

	n := len(s.tracker.Active())
	hours := s.tracker.TotalHours()
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to archive.")
		return nil
	}

	if err := s.tracker.ArchiveAll(); err != nil {
		if errors.Is(err, storage.ErrActiveNotCleared) {
			fmt.Fprintln(os.Stderr, formatter.Warning(err.Error()))
		} else {
			fmt.Fprintln(os.Stderr, "Archive failed, active entries kept:", err)
		}
		os.Exit(2)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Archived %d entries (%sh)",
		n, timecalc.FormatHours(hours))))
	return nil
}
