// Package tui is the interactive screen: an input row for new entries above
// the entry table, with archive actions bound to keys.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Tiliavir/hours/internal/formatter"
	"github.com/Tiliavir/hours/internal/timecalc"
	"github.com/Tiliavir/hours/internal/tracker"
)

const (
	fieldDate = iota
	fieldStart
	fieldEnd
	fieldDescription
	fieldCount
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	statusOK    = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	statusError = lipgloss.NewStyle().Foreground(formatter.ColorRed)
	inputBox    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(formatter.ColorDim).Padding(0, 1)
)

// Model is the bubbletea model of the interactive screen.
type Model struct {
	tracker *tracker.Tracker
	inputs  []textinput.Model
	focus   int
	keys    keyMap
	help    help.Model

	status    string
	statusErr bool
	width     int
}

// New builds the screen for tr with the date field set to today.
func New(tr *tracker.Tracker) Model {
	inputs := make([]textinput.Model, fieldCount)
	specs := []struct {
		placeholder string
		width       int
	}{
		fieldDate:        {"YYYY-MM-DD", 10},
		fieldStart:       {"1:30pm", 8},
		fieldEnd:         {"10:30pm", 8},
		fieldDescription: {"Description", 30},
	}
	for i, s := range specs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = s.placeholder
		ti.Width = s.width
		inputs[i] = ti
	}
	inputs[fieldDate].SetValue(timecalc.FormatDate(tr.Today()))

	m := Model{
		tracker: tr,
		inputs:  inputs,
		focus:   fieldStart,
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	m.inputs[m.focus].Focus()
	return m
}

// Run starts the interactive screen and blocks until the user quits.
func Run(tr *tracker.Tracker) error {
	_, err := tea.NewProgram(New(tr), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleArchive):
			return m.toggleArchive(), nil
		case key.Matches(msg, m.keys.Reverse):
			m.tracker.Reverse()
			return m, nil
		}

		// Input and archiving are disabled while the archive is shown.
		if m.tracker.ViewingArchive() {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Next):
			return m.moveFocus(1), nil
		case key.Matches(msg, m.keys.Prev):
			return m.moveFocus(-1), nil
		case key.Matches(msg, m.keys.Submit):
			return m.submit(), nil
		case key.Matches(msg, m.keys.Archive):
			return m.archiveAll(), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) moveFocus(delta int) Model {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + fieldCount) % fieldCount
	m.inputs[m.focus].Focus()
	return m
}

func (m Model) setStatus(msg string, isErr bool) Model {
	m.status = msg
	m.statusErr = isErr
	return m
}

func (m Model) submit() Model {
	date, err := timecalc.ParseDate(strings.TrimSpace(m.inputs[fieldDate].Value()))
	if err != nil {
		return m.setStatus(err.Error(), true)
	}

	entry, err := m.tracker.SubmitEntry(date,
		m.inputs[fieldDescription].Value(),
		m.inputs[fieldStart].Value(),
		m.inputs[fieldEnd].Value(),
	)
	if errors.Is(err, timecalc.ErrInvalidTime) {
		// Keep the fields so the user can correct them.
		return m.setStatus(err.Error(), true)
	}

	m.inputs[fieldStart].Reset()
	m.inputs[fieldEnd].Reset()
	m.inputs[fieldDescription].Reset()
	m.inputs[m.focus].Blur()
	m.focus = fieldStart
	m.inputs[m.focus].Focus()

	if err != nil {
		return m.setStatus(err.Error(), true)
	}
	return m.setStatus(fmt.Sprintf("Added %sh on %s", timecalc.FormatHours(entry.Hours), entry.Date), false)
}

func (m Model) archiveAll() Model {
	n := len(m.tracker.Active())
	if err := m.tracker.ArchiveAll(); err != nil {
		return m.setStatus(err.Error(), true)
	}
	if n == 0 {
		return m.setStatus("Nothing to archive", false)
	}
	return m.setStatus(fmt.Sprintf("Archived %d entries", n), false)
}

func (m Model) toggleArchive() Model {
	if m.tracker.ToggleArchiveView() {
		m.inputs[m.focus].Blur()
		return m.setStatus("", false)
	}
	m.inputs[m.focus].Focus()
	return m.setStatus("", false)
}

func (m Model) View() string {
	var b strings.Builder

	title := "Hours"
	if m.tracker.ViewingArchive() {
		title = "Hours – archive"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if !m.tracker.ViewingArchive() {
		b.WriteString(inputBox.Render(lipgloss.JoinHorizontal(lipgloss.Top,
			m.inputs[fieldDate].View(), "  ",
			m.inputs[fieldStart].View(), " - ",
			m.inputs[fieldEnd].View(), "  ",
			m.inputs[fieldDescription].View(),
		)))
		b.WriteString("\n")
	}

	entries, total := m.tracker.Visible()
	if len(entries) == 0 {
		b.WriteString(formatter.Dim("No entries."))
		b.WriteString("\n")
	} else {
		b.WriteString(formatter.EntryTable(entries, total))
	}

	if m.status != "" {
		style := statusOK
		if m.statusErr {
			style = statusError
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
