// Package tracker holds the application state shared by the command line
// and the interactive screen: the active and archived entries, their hour
// totals and which of the two lists is being viewed.
package tracker

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Tiliavir/hours/internal/logging"
	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/storage"
	"github.com/Tiliavir/hours/internal/timecalc"
)

// ErrNotPersisted is returned by SubmitEntry when the entry was recorded
// in memory but could not be written to the active log.
var ErrNotPersisted = errors.New("entry not saved to disk")

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Store is the persistence the tracker needs. *storage.Store implements it.
type Store interface {
	Append(e model.WorkEntry) error
	Archive(entries []model.WorkEntry) error
	LoadActive() ([]model.WorkEntry, float64, error)
	LoadArchive() ([]model.WorkEntry, float64, error)
}

// Tracker is not safe for concurrent use; the store serialises file access.
type Tracker struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	active      []model.WorkEntry
	activeHours float64

	archive       []model.WorkEntry
	archiveHours  float64
	archiveLoaded bool

	viewingArchive bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for failures that are not returned.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock replaces time.Now as the source of the current date.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a Tracker backed by store. A nil store keeps everything in
// memory, which is how the tracker runs when no storage directory exists.
func New(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:  store,
		logger: logging.Discard(),
		now:    time.Now,
		active: []model.WorkEntry{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load replaces the active list with the contents of the active log.
func (t *Tracker) Load() error {
	if t.store == nil {
		return nil
	}
	entries, total, err := t.store.LoadActive()
	if err != nil {
		return fmt.Errorf("loading entries: %w", err)
	}
	t.active = entries
	t.activeHours = total
	return nil
}

// Today returns the current calendar date.
func (t *Tracker) Today() time.Time {
	return timecalc.Today(t.now)
}

// SubmitEntry records a work interval on date. Start and end are stored
// lower-cased exactly as typed. A time that does not parse returns an error
// wrapping timecalc.ErrInvalidTime and records nothing. When the entry
// cannot be written to disk it is kept in memory and ErrNotPersisted is
// returned alongside it. Line breaks in description become spaces since
// each entry is one log line.
func (t *Tracker) SubmitEntry(date time.Time, description, start, end string) (model.WorkEntry, error) {
	start = strings.ToLower(start)
	end = strings.ToLower(end)
	description = lineBreaks.Replace(description)

	hours, err := timecalc.Difference(start, end)
	if err != nil {
		return model.WorkEntry{}, err
	}

	entry := model.WorkEntry{
		Date:        timecalc.FormatDate(date),
		Description: description,
		Start:       start,
		End:         end,
		Hours:       hours,
	}

	t.active = append(t.active, entry)
	model.SortNewestFirst(t.active)
	t.activeHours += hours

	if t.store == nil {
		return entry, nil
	}
	if err := t.store.Append(entry); err != nil {
		t.logger.Error("could not write entry", "date", entry.Date, "error", err)
		return entry, fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	t.logger.Debug("entry added", "date", entry.Date, "hours", hours)
	return entry, nil
}

// ArchiveAll moves every active entry into the archive. If the archive
// cannot be written the active entries stay where they are and the error
// is returned. An empty active list is a no-op.
func (t *Tracker) ArchiveAll() error {
	if len(t.active) == 0 {
		return nil
	}
	model.SortNewestFirst(t.active)

	var result error
	if t.store != nil {
		if err := t.store.Archive(t.active); err != nil {
			if !errors.Is(err, storage.ErrActiveNotCleared) {
				t.logger.Error("archive failed", "error", err)
				return fmt.Errorf("archiving entries: %w", err)
			}
			// The batch is in the archive; keeping it active would archive it twice.
			t.logger.Warn("archive written but active log remains", "error", err)
			result = err
		}
	}

	if t.archiveLoaded {
		t.archive = append(t.archive, t.active...)
		t.archive = append(t.archive, model.Separator())
		t.archiveHours += t.activeHours
	}
	t.active = []model.WorkEntry{}
	t.activeHours = 0
	return result
}

// ToggleArchiveView switches between the active and archive lists and
// reports whether the archive is now shown. The archive is read the first
// time it is opened.
func (t *Tracker) ToggleArchiveView() bool {
	if t.viewingArchive {
		t.viewingArchive = false
		return false
	}
	if !t.archiveLoaded {
		if err := t.loadArchive(); err != nil {
			t.logger.Warn("could not read archive", "error", err)
		}
	}
	t.viewingArchive = true
	return true
}

func (t *Tracker) loadArchive() error {
	if t.store == nil {
		t.archiveLoaded = true
		return nil
	}
	entries, total, err := t.store.LoadArchive()
	if err != nil {
		return err
	}
	t.archive = entries
	t.archiveHours = total
	t.archiveLoaded = true
	return nil
}

// Archive returns the archived entries including separators, loading them
// first if needed.
func (t *Tracker) Archive() ([]model.WorkEntry, error) {
	if !t.archiveLoaded {
		if err := t.loadArchive(); err != nil {
			return nil, fmt.Errorf("loading archive: %w", err)
		}
	}
	return slices.Clone(t.archive), nil
}

// Reverse flips the order of the active list.
func (t *Tracker) Reverse() {
	slices.Reverse(t.active)
}

// Contains reports whether an active entry has the same date, description,
// start and end as e.
func (t *Tracker) Contains(e model.WorkEntry) bool {
	return slices.ContainsFunc(t.active, func(a model.WorkEntry) bool {
		return a.Date == e.Date && a.Description == e.Description &&
			a.Start == e.Start && a.End == e.End
	})
}

// Active returns the active entries in display order.
func (t *Tracker) Active() []model.WorkEntry { return slices.Clone(t.active) }

// TotalHours returns the sum of active hours.
func (t *Tracker) TotalHours() float64 { return t.activeHours }

// ArchiveHours returns the sum of archived hours; zero until the archive is loaded.
func (t *Tracker) ArchiveHours() float64 { return t.archiveHours }

// ViewingArchive reports whether the archive list is the one being shown.
func (t *Tracker) ViewingArchive() bool { return t.viewingArchive }

// Visible returns the list currently being shown and its total.
func (t *Tracker) Visible() ([]model.WorkEntry, float64) {
	if t.viewingArchive {
		return slices.Clone(t.archive), t.archiveHours
	}
	return slices.Clone(t.active), t.activeHours
}

// Persistent reports whether entries are written to disk.
func (t *Tracker) Persistent() bool { return t.store != nil }
