package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/formatter"
	"github.com/Tiliavir/hours/internal/timecalc"
	"github.com/Tiliavir/hours/internal/tracker"
)

var (
	addDate string
	addDesc string
)

var addCmd = &cobra.Command{
	Use:   "add [start end]",
	Short: "Log a work interval, e.g. hours add 9:00am 5:30pm -m \"review\"",
	Long: `Log a work interval for a day (today unless --date is given).

Times are 12-hour clock strings: "9", "9am", "9:30", "1:30pm". An end time
earlier than the start wraps past midnight. Without arguments on a terminal
an interactive form is shown.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected start and end time, got %d argument(s)", len(args))
		}
		return nil
	},
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addDate, "date", "d", "", "Date of the entry (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVarP(&addDesc, "desc", "m", "", "Description")
}

func runAdd(cmd *cobra.Command, args []string) error {
	s := openSession()

	date := s.tracker.Today()
	if addDate != "" {
		d, err := timecalc.ParseDate(addDate)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		date = d
	}

	in := addInput{date: timecalc.FormatDate(date), desc: addDesc}
	if len(args) == 2 {
		in.start, in.end = args[0], args[1]
	} else {
		if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return errors.New("start and end time are required when not running on a terminal")
		}
		if err := in.prompt(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		d, err := timecalc.ParseDate(strings.TrimSpace(in.date))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		date = d
	}

	entry, err := s.tracker.SubmitEntry(date, in.desc, in.start, in.end)
	if errors.Is(err, tracker.ErrNotPersisted) {
		fmt.Fprintln(os.Stderr, formatter.Warning(err.Error()))
		os.Exit(exitCode(err))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatter.Success(fmt.Sprintf("Logged %sh on %s (%s–%s)",
		formatter.Bold(timecalc.FormatHours(entry.Hours)), entry.Date, entry.Start, entry.End)))
	return nil
}

// addInput holds the raw strings collected for a new entry.
type addInput struct {
	date  string
	desc  string
	start string
	end   string
}

func (in *addInput) prompt() error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Placeholder(time.Now().Format(timecalc.DateLayout)).
				Value(&in.date).
				Validate(validateDate),
			huh.NewInput().
				Title("Start").
				Placeholder("1:30pm").
				Value(&in.start).
				Validate(validateClock),
			huh.NewInput().
				Title("End").
				Placeholder("10:30pm").
				Value(&in.end).
				Validate(validateClock),
			huh.NewInput().
				Title("Description").
				Value(&in.desc),
		),
	).WithShowHelp(false)
	return form.Run()
}

func validateDate(s string) error {
	_, err := timecalc.ParseDate(strings.TrimSpace(s))
	return err
}

func validateClock(s string) error {
	_, err := timecalc.ParseClockTime(strings.ToLower(s))
	return err
}
