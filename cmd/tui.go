package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive entry form and list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openSession()
		if !s.tracker.Persistent() {
			fmt.Fprintln(os.Stderr, "warning: no data directory, entries will not be saved")
		}
		return tui.Run(s.tracker)
	},
}
