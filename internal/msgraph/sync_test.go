package msgraph_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/hours/internal/msgraph"
	"github.com/Tiliavir/hours/internal/storage"
	"github.com/Tiliavir/hours/internal/tracker"
)

func makeEvent(id, subject, start, end string) msgraph.CalendarEvent {
	return msgraph.CalendarEvent{
		ID:          id,
		Subject:     subject,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start:       msgraph.EventTime{DateTime: start, TimeZone: "UTC"},
		End:         msgraph.EventTime{DateTime: end, TimeZone: "UTC"},
	}
}

func TestMapEventToEntry(t *testing.T) {
	event := makeEvent("ext-id-1", "Sprint Planning", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	entry, day, err := msgraph.MapEventToEntry(event, "UTC")
	require.NoError(t, err)

	assert.Equal(t, "2026-02-27", entry.Date)
	assert.Equal(t, "Sprint Planning", entry.Description)
	assert.Equal(t, "9:00am", entry.Start)
	assert.Equal(t, "10:30am", entry.End)
	assert.InDelta(t, 1.5, entry.Hours, 1e-9)
	assert.Equal(t, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC), day)
}

func TestMapEventToEntry_WithLocation(t *testing.T) {
	event := makeEvent("ext-id-2", "Standup, daily", "2026-02-27T10:00:00", "2026-02-27T10:15:00")
	event.Location.DisplayName = "Zoom"

	entry, _, err := msgraph.MapEventToEntry(event, "UTC")
	require.NoError(t, err)
	assert.Equal(t, "Standup; daily (Zoom)", entry.Description)
	assert.InDelta(t, 0.25, entry.Hours, 1e-9)
}

func TestMapEventToEntry_Unrepresentable(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"crosses midnight", "2026-02-27T23:00:00", "2026-02-28T01:00:00"},
		{"starts in 12am hour", "2026-02-27T00:15:00", "2026-02-27T01:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := msgraph.MapEventToEntry(makeEvent("x", "Late", tt.start, tt.end), "UTC")
			assert.ErrorIs(t, err, msgraph.ErrUnrepresentable)
		})
	}
}

func TestSyncEvents_Import(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	tr := tracker.New(s)
	require.NoError(t, tr.Load())

	cancelled := makeEvent("ext-3", "Cancelled", "2026-02-27T13:00:00", "2026-02-27T14:00:00")
	cancelled.IsCancelled = true
	private := makeEvent("ext-4", "Dentist", "2026-02-27T15:00:00", "2026-02-27T16:00:00")
	private.Sensitivity = "private"

	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Architecture Board", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
		makeEvent("ext-2", "Late call", "2026-02-27T23:30:00", "2026-02-28T00:30:00"),
		cancelled,
		private,
	}

	var out bytes.Buffer
	result := msgraph.SyncEvents(events, tr, msgraph.SyncOptions{Timezone: "UTC", Out: &out})
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Zero(t, result.Errors)
	assert.Contains(t, out.String(), "Imported: 2026-02-27 9:00am–10:30am (1.5h)")

	// Verify persisted.
	loaded, total, err := s.LoadActive()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Architecture Board", loaded[0].Description)
	assert.InDelta(t, 1.5, total, 1e-9)

	// A second run finds the entry and skips it.
	again := msgraph.SyncEvents(events[:1], tr, msgraph.SyncOptions{Timezone: "UTC"})
	assert.Zero(t, again.Imported)
	assert.Equal(t, 1, again.Skipped)
}

func TestSyncEvents_DryRun(t *testing.T) {
	tr := tracker.New(nil)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Review", "2026-02-27T14:00:00", "2026-02-27T15:00:00"),
	}

	result := msgraph.SyncEvents(events, tr, msgraph.SyncOptions{Timezone: "UTC", DryRun: true})
	assert.Equal(t, 1, result.Imported)
	assert.Empty(t, tr.Active())
}

func TestGetCalendarView_Paging(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `outlook.timezone="Europe/Berlin"`, r.Header.Get("Prefer"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []msgraph.CalendarEvent{makeEvent("b", "Second", "2026-02-27T11:00:00", "2026-02-27T12:00:00")},
			})
			return
		}
		assert.Equal(t, "/me/calendarView", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value":           []msgraph.CalendarEvent{makeEvent("a", "First", "2026-02-27T09:00:00", "2026-02-27T10:00:00")},
			"@odata.nextLink": srv.URL + "/me/calendarView?page=2",
		})
	}))
	defer srv.Close()

	client := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	from := time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC)
	events, err := client.GetCalendarView(context.Background(), from, from.AddDate(0, 0, 1), "Europe/Berlin")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "First", events[0].Subject)
	assert.Equal(t, "Second", events[1].Subject)
}

func TestGetCalendarView_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := client.GetCalendarView(context.Background(), time.Now(), time.Now(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "graph API error 401")
}
