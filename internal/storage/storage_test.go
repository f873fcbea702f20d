package storage_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/storage"
)

func sampleEntries() []model.WorkEntry {
	return []model.WorkEntry{
		{Date: "2024-01-01", Description: "planning", Start: "9:00am", End: "5:00pm", Hours: 8},
		{Date: "2024-06-01", Description: "", Start: "11:00pm", End: "1:00am", Hours: 2},
		{Date: "2024-03-15", Description: "review", Start: "1:30pm", End: "3:10pm", Hours: 1.67},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestLoadActiveNotExist(t *testing.T) {
	s := storage.New(filepath.Join(t.TempDir(), "missing"), nil)
	entries, total, err := s.LoadActive()
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, total)
}

func TestAppendAndLoadActive(t *testing.T) {
	s := storage.New(filepath.Join(t.TempDir(), "hours"), nil)

	for _, e := range sampleEntries() {
		require.NoError(t, s.Append(e))
	}

	entries, total, err := s.LoadActive()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "2024-06-01", entries[0].Date)
	assert.Equal(t, "2024-03-15", entries[1].Date)
	assert.Equal(t, "2024-01-01", entries[2].Date)
	assert.InDelta(t, 11.67, total, 1e-9)

	// Field values survive the round trip unchanged.
	want := sampleEntries()
	assert.Equal(t, want[1], entries[0])
	assert.Equal(t, want[2], entries[1])
	assert.Equal(t, want[0], entries[2])
}

func TestAppendWritesOneLine(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	require.NoError(t, s.Append(model.WorkEntry{
		Date: "2024-05-02", Description: "standup", Start: "9:00am", End: "9:15am", Hours: 0.25,
	}))

	assert.Equal(t, []string{"2024-05-02,standup,9:00am,9:15am,0.25"}, readLines(t, s.ActivePath()))
}

func TestAppendFailure(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir, nil)
	// A directory where the log should be makes the open fail.
	require.NoError(t, os.Mkdir(s.ActivePath(), 0o700))

	err := s.Append(sampleEntries()[0])
	assert.Error(t, err)
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	s := storage.New(dir, nil)
	content := strings.Join([]string{
		"2024-01-01,ok,9am,10am,1",
		"too,few,fields",
		"2024-01-02,bad hours,9am,10am,abc",
		"2024-01-03,comma, inside,9am,10am,1",
		"-",
		"",
		"2024-01-04,,9am,11am,2",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(s.ActivePath(), []byte(content), 0o600))

	entries, total, err := s.LoadActive()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-01-04", entries[0].Date)
	assert.Equal(t, "", entries[0].Description)
	assert.Equal(t, "2024-01-01", entries[1].Date)
	assert.InDelta(t, 3.0, total, 1e-9)
}

func TestLoadActiveLongLine(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	long := strings.Repeat("x", 70_000)
	require.NoError(t, s.Append(model.WorkEntry{Date: "2024-01-01", Description: "a", Start: "9am", End: "10am", Hours: 1}))
	require.NoError(t, s.Append(model.WorkEntry{Date: "2024-01-02", Description: long, Start: "9am", End: "11am", Hours: 2}))
	require.NoError(t, s.Append(model.WorkEntry{Date: "2024-01-03", Description: "c", Start: "9am", End: "12pm", Hours: 3}))

	entries, total, err := s.LoadActive()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, long, entries[1].Description)
	assert.InDelta(t, 6.0, total, 1e-9)
}

func TestLoadActiveCRLFAndNoTrailingNewline(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	content := "2024-01-01,a,9am,10am,1\r\n2024-01-02,b,9am,11am,2"
	require.NoError(t, os.WriteFile(s.ActivePath(), []byte(content), 0o600))

	entries, total, err := s.LoadActive()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-01-02", entries[0].Date)
	assert.InDelta(t, 1.0, entries[1].Hours, 1e-9)
	assert.InDelta(t, 3.0, total, 1e-9)
}

func TestArchive(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	for _, e := range sampleEntries() {
		require.NoError(t, s.Append(e))
	}
	active, _, err := s.LoadActive()
	require.NoError(t, err)

	require.NoError(t, s.Archive(active))

	_, err = os.Stat(s.ActivePath())
	assert.True(t, os.IsNotExist(err), "active log should be removed")

	lines := readLines(t, s.ArchivePath())
	require.Len(t, lines, 4)
	assert.Equal(t, "2024-06-01,,11:00pm,1:00am,2", lines[0])
	assert.Equal(t, "-", lines[3])

	entries, _, err := s.LoadActive()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestArchiveAppendsBatches(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	first := []model.WorkEntry{{Date: "2024-01-01", Start: "9am", End: "10am", Hours: 1}}
	second := []model.WorkEntry{
		{Date: "2024-02-01", Start: "9am", End: "11am", Hours: 2},
		{Date: "2024-02-03", Start: "9am", End: "12pm", Hours: 3},
	}
	require.NoError(t, s.Archive(first))
	require.NoError(t, s.Archive(second))

	entries, total, err := s.LoadArchive()
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "2024-01-01", entries[0].Date)
	assert.True(t, entries[1].IsSeparator())
	// Each batch is ordered newest first.
	assert.Equal(t, "2024-02-03", entries[2].Date)
	assert.Equal(t, "2024-02-01", entries[3].Date)
	assert.True(t, entries[4].IsSeparator())
	assert.InDelta(t, 6.0, total, 1e-9)
}

func TestArchiveFailureLeavesActiveUntouched(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	for _, e := range sampleEntries() {
		require.NoError(t, s.Append(e))
	}
	before, err := os.ReadFile(s.ActivePath())
	require.NoError(t, err)

	// A directory in place of the archive log makes the write fail.
	require.NoError(t, os.Mkdir(s.ArchivePath(), 0o700))

	err = s.Archive(sampleEntries())
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrActiveNotCleared)

	after, err := os.ReadFile(s.ActivePath())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestArchiveFixesMissingTrailingNewline(t *testing.T) {
	s := storage.New(t.TempDir(), nil)
	require.NoError(t, os.WriteFile(s.ArchivePath(), []byte("2024-01-01,x,9am,10am,1\n-"), 0o600))

	require.NoError(t, s.Archive([]model.WorkEntry{{Date: "2024-02-01", Start: "9am", End: "10am", Hours: 1}}))

	assert.Equal(t, []string{
		"2024-01-01,x,9am,10am,1",
		"-",
		"2024-02-01,,9am,10am,1",
		"-",
	}, readLines(t, s.ArchivePath()))
}

func TestParseLine(t *testing.T) {
	e, ok := storage.ParseLine("2024-01-01,desc,9:00am,5:00pm,8")
	require.True(t, ok)
	assert.Equal(t, model.WorkEntry{Date: "2024-01-01", Description: "desc", Start: "9:00am", End: "5:00pm", Hours: 8}, e)

	_, ok = storage.ParseLine("2024-01-01,desc,9:00am,5:00pm")
	assert.False(t, ok)

	_, ok = storage.ParseLine("-")
	assert.False(t, ok)
}

func TestFormatLine(t *testing.T) {
	got := storage.FormatLine(model.WorkEntry{Date: "2024-01-01", Description: "a b", Start: "1:30pm", End: "2pm", Hours: 0.5})
	assert.Equal(t, "2024-01-01,a b,1:30pm,2pm,0.5", got)
}

func TestBaseDir(t *testing.T) {
	dir, err := storage.BaseDir()
	if err != nil {
		assert.ErrorIs(t, err, storage.ErrNoStorageDir)
		return
	}
	assert.Equal(t, storage.AppDirName, filepath.Base(dir))
}
