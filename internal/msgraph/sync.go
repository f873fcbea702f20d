package msgraph

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/timecalc"
)

// ErrUnrepresentable is returned for events whose span cannot be written as
// a 12-hour start/end pair on a single day: events crossing midnight, and
// events in the 12am hour, which the clock parser reads as noon.
var ErrUnrepresentable = errors.New("event cannot be logged as a single-day entry")

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	DryRun bool
	// Timezone is the IANA zone the events were requested in; "" means UTC.
	Timezone string
	// Out receives one progress line per event.
	Out io.Writer
}

// EntrySink receives imported entries. *tracker.Tracker implements it.
type EntrySink interface {
	Contains(e model.WorkEntry) bool
	SubmitEntry(date time.Time, description, start, end string) (model.WorkEntry, error)
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// describe builds the entry description from subject and location. Commas
// are replaced because the log format cannot store them.
func describe(event CalendarEvent) string {
	desc := strings.TrimSpace(event.Subject)
	if loc := strings.TrimSpace(event.Location.DisplayName); loc != "" {
		desc += " (" + loc + ")"
	}
	desc = strings.ReplaceAll(desc, ",", ";")
	return strings.ReplaceAll(desc, "\n", " ")
}

// MapEventToEntry converts a Graph event into the entry it would create,
// together with the calendar day it belongs to. When timezone is empty the
// event times are shown in the local zone.
func MapEventToEntry(event CalendarEvent, timezone string) (model.WorkEntry, time.Time, error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.WorkEntry{}, time.Time{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.WorkEntry{}, time.Time{}, fmt.Errorf("parsing end time: %w", err)
	}
	if timezone == "" {
		start = start.In(time.Local)
		end = end.In(time.Local)
	}

	if timecalc.FormatDate(start) != timecalc.FormatDate(end) {
		return model.WorkEntry{}, time.Time{}, ErrUnrepresentable
	}

	startText := timecalc.FormatClock(start)
	endText := timecalc.FormatClock(end)
	hours, err := timecalc.Difference(startText, endText)
	if err != nil {
		return model.WorkEntry{}, time.Time{}, err
	}
	// Each side is rounded to hundredths, so a faithful mapping is off by at most 0.01.
	if math.Abs(hours-end.Sub(start).Hours()) > 0.011 {
		return model.WorkEntry{}, time.Time{}, ErrUnrepresentable
	}

	entry := model.WorkEntry{
		Date:        timecalc.FormatDate(start),
		Description: describe(event),
		Start:       startText,
		End:         endText,
		Hours:       hours,
	}
	return entry, timecalc.StartOfDay(start), nil
}

// SyncEvents submits every importable event to sink, skipping events the
// sink already holds.
func SyncEvents(events []CalendarEvent, sink EntrySink, opts SyncOptions) SyncResult {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		entry, day, err := MapEventToEntry(event, opts.Timezone)
		if errors.Is(err, ErrUnrepresentable) {
			fmt.Fprintf(out, "  – Skipped:  %s (crosses or touches midnight)\n", event.Subject)
			result.Skipped++
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		if sink.Contains(entry) {
			fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", entry.Description)
			result.Skipped++
			continue
		}

		if !opts.DryRun {
			if _, err := sink.SubmitEntry(day, entry.Description, entry.Start, entry.End); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", entry.Description, err)
				result.Errors++
				continue
			}
		}
		fmt.Fprintf(out, "  ✓ Imported: %s %s–%s (%sh)\n",
			entry.Date, entry.Start, entry.End, timecalc.FormatHours(entry.Hours))
		result.Imported++
	}

	return result
}
