package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/hours/internal/config"
	"github.com/Tiliavir/hours/internal/formatter"
	"github.com/Tiliavir/hours/internal/logging"
	"github.com/Tiliavir/hours/internal/storage"
	"github.com/Tiliavir/hours/internal/tracker"
)

var (
	flagDir      string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "hours",
	Short: "hours – log daily work intervals and archive them",
	Long: `hours records work intervals typed as 12-hour clock times ("9:00am", "1:30pm"),
computes the elapsed hours and keeps them in plain text logs
(entrys.csv and archive.csv) in your config directory.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Data directory (default: <config dir>/hours, or $HOURS_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(outlookCmd)
}

// session is everything a command needs once configuration is resolved.
type session struct {
	cfg     config.Config
	dir     string
	logger  *slog.Logger
	tracker *tracker.Tracker
}

// openSession loads config, sets up logging and colour, and loads the active
// entries. Storage problems exit with status 2. Without any usable
// directory the tracker runs in memory only.
func openSession() *session {
	cfgDir, baseErr := storage.BaseDir()

	cfg := config.Default()
	var cfgErr error
	if baseErr == nil {
		cfg, cfgErr = config.Load(config.FilePath(cfgDir))
	}

	level := cfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger := logging.New(os.Stderr, level, cfg.Log.Format)
	slog.SetDefault(logger)
	if cfgErr != nil {
		logger.Warn("using default configuration", "error", cfgErr)
	}

	formatter.SetColor(formatter.ColorEnabled(cfg.UI.Color, os.Stdout.Fd()))

	dir := flagDir
	if dir == "" {
		if baseErr == nil {
			dir = cfg.DataDir(cfgDir)
		} else {
			dir = cfg.DataDir("")
		}
	}

	s := &session{cfg: cfg, dir: dir, logger: logger}
	if dir == "" {
		logger.Warn("entries will not be saved", "error", baseErr)
		s.tracker = tracker.New(nil, tracker.WithLogger(logger))
		return s
	}

	if abs, err := filepath.Abs(dir); err == nil {
		s.dir = abs
	}
	s.tracker = tracker.New(storage.New(s.dir, logger), tracker.WithLogger(logger))
	if err := s.tracker.Load(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return s
}

// exitCode maps an error to the process exit status: 1 for bad input,
// 2 for storage failures.
func exitCode(err error) int {
	var pathErr *os.PathError
	switch {
	case errors.Is(err, tracker.ErrNotPersisted),
		errors.Is(err, storage.ErrActiveNotCleared),
		errors.As(err, &pathErr):
		return 2
	default:
		return 1
	}
}
