package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/timecalc"
)

const (
	// AppDirName is the subdirectory of the user config dir holding all data.
	AppDirName = "hours"
	// ActiveFile holds entries that have not been archived yet.
	ActiveFile = "entrys.csv"
	// ArchiveFile holds archived batches delimited by SeparatorLine.
	ArchiveFile = "archive.csv"
	// SeparatorLine marks the end of one archive batch.
	SeparatorLine = "-"
)

var (
	// ErrNoStorageDir is returned when no configuration directory can be determined.
	ErrNoStorageDir = errors.New("no storage directory available")
	// ErrActiveNotCleared is returned by Archive when the batch was archived
	// but the active log could not be removed afterwards.
	ErrActiveNotCleared = errors.New("entries archived but active log not cleared")
)

// BaseDir returns the default data directory (<user config dir>/hours).
func BaseDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoStorageDir, err)
	}
	return filepath.Join(cfg, AppDirName), nil
}

// Store reads and writes the active and archive logs inside one directory.
// All mutations are serialised so concurrent callers cannot interleave lines.
type Store struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

// ActivePath returns the path of the active log.
func (s *Store) ActivePath() string { return filepath.Join(s.dir, ActiveFile) }

// ArchivePath returns the path of the archive log.
func (s *Store) ArchivePath() string { return filepath.Join(s.dir, ArchiveFile) }

// FormatLine renders an entry as date,description,start,end,hours.
// Fields are not escaped: a comma in the description makes the line
// unreadable on load, which is a known limitation of the format.
func FormatLine(e model.WorkEntry) string {
	return strings.Join([]string{
		e.Date,
		e.Description,
		e.Start,
		e.End,
		timecalc.FormatHours(e.Hours),
	}, ",")
}

// ParseLine is a best-effort parse of one log line. ok is false when the
// line does not have five fields or the hours field is not a number.
func ParseLine(line string) (model.WorkEntry, bool) {
	fields := strings.SplitN(line, ",", 5)
	if len(fields) != 5 {
		return model.WorkEntry{}, false
	}
	hours, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return model.WorkEntry{}, false
	}
	return model.WorkEntry{
		Date:        fields[0],
		Description: fields[1],
		Start:       fields[2],
		End:         fields[3],
		Hours:       hours,
	}, true
}

// Append writes a single entry to the end of the active log.
func (s *Store) Append(e model.WorkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("storage error creating directory: %w", err)
	}
	f, err := os.OpenFile(s.ActivePath(), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o600)
	if err != nil {
		return fmt.Errorf("storage error opening %s: %w", s.ActivePath(), err)
	}
	if _, err := f.WriteString(FormatLine(e) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("storage error writing %s: %w", s.ActivePath(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("storage error closing %s: %w", s.ActivePath(), err)
	}
	return nil
}

// Archive appends entries followed by a separator line to the archive log
// and then removes the active log. The archive is replaced atomically, so
// when an error other than ErrActiveNotCleared is returned neither log has
// changed.
func (s *Store) Archive(entries []model.WorkEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("storage error creating directory: %w", err)
	}

	path := s.ArchivePath()
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, e := range entries {
		if e.IsSeparator() {
			continue
		}
		buf.WriteString(FormatLine(e))
		buf.WriteByte('\n')
	}
	buf.WriteString(SeparatorLine + "\n")

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}

	if err := os.Remove(s.ActivePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrActiveNotCleared, err)
	}
	s.logger.Info("archived entries", "count", len(entries), "path", path)
	return nil
}

// LoadActive reads the active log, returning its entries newest first and
// the sum of their hours. A missing log yields no entries.
func (s *Store) LoadActive() ([]model.WorkEntry, float64, error) {
	entries, err := s.readLog(s.ActivePath(), false)
	if err != nil {
		return nil, 0, err
	}
	model.SortNewestFirst(entries)
	return entries, model.TotalHours(entries), nil
}

// LoadArchive reads the archive log. Separator lines become separator
// entries and each batch is sorted newest first on its own.
func (s *Store) LoadArchive() ([]model.WorkEntry, float64, error) {
	entries, err := s.readLog(s.ArchivePath(), true)
	if err != nil {
		return nil, 0, err
	}
	model.SortBatches(entries)
	return entries, model.TotalHours(entries), nil
}

func (s *Store) readLog(path string, separators bool) ([]model.WorkEntry, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return []model.WorkEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	defer f.Close()

	entries := []model.WorkEntry{}
	r := bufio.NewReader(f)
	lineNo := 0
	for {
		raw, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("storage error reading %s: %w", path, err)
		}
		if raw == "" && err == io.EOF {
			break
		}
		lineNo++
		line := strings.TrimRight(raw, "\r\n")
		if separators && line == SeparatorLine {
			entries = append(entries, model.Separator())
		} else if e, ok := ParseLine(line); ok {
			entries = append(entries, e)
		} else {
			s.logger.Debug("skipping malformed line", "path", path, "line", lineNo)
		}
		if err == io.EOF {
			break
		}
	}
	return entries, nil
}
