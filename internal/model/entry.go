package model

import (
	"slices"
	"strconv"
	"strings"
)

// WorkEntry represents a single logged work interval.
type WorkEntry struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Start       string  `json:"start"`
	End         string  `json:"end"`
	Hours       float64 `json:"hours"`
}

// Separator returns the marker that delimits archive batches.
func Separator() WorkEntry {
	return WorkEntry{}
}

// IsSeparator reports whether e marks an archive batch boundary.
func (e WorkEntry) IsSeparator() bool {
	return e.Date == ""
}

// ymd splits an ISO date into its numeric parts. Components that do not
// parse count as zero so a hand-edited log cannot break sorting.
func ymd(date string) (int, int, int) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) < 3 {
		return 0, 0, 0
	}
	y, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	d, _ := strconv.Atoi(parts[2])
	return y, m, d
}

// CompareNewestFirst orders entries by date, most recent first.
// It returns a negative number when a sorts before b.
func CompareNewestFirst(a, b WorkEntry) int {
	ay, am, ad := ymd(a.Date)
	by, bm, bd := ymd(b.Date)
	switch {
	case ay != by:
		return by - ay
	case am != bm:
		return bm - am
	default:
		return bd - ad
	}
}

// SortNewestFirst stably sorts entries so the newest date comes first.
func SortNewestFirst(entries []WorkEntry) {
	slices.SortStableFunc(entries, CompareNewestFirst)
}

// SortBatches sorts each run of entries between separators independently,
// leaving the separators where they are.
func SortBatches(entries []WorkEntry) {
	start := 0
	for i, e := range entries {
		if e.IsSeparator() {
			SortNewestFirst(entries[start:i])
			start = i + 1
		}
	}
	SortNewestFirst(entries[start:])
}

// TotalHours sums the hours of all non-separator entries.
func TotalHours(entries []WorkEntry) float64 {
	var total float64
	for _, e := range entries {
		if !e.IsSeparator() {
			total += e.Hours
		}
	}
	return total
}
