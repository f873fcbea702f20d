package formatter

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Tiliavir/hours/internal/model"
	"github.com/Tiliavir/hours/internal/timecalc"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

var colorEnabled = true

// ColorEnabled decides whether output to fd should be styled.
// mode is the ui.color setting: always, never or auto.
func ColorEnabled(mode string, fd uintptr) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// SetColor turns styling on or off for every render helper in this package.
func SetColor(enabled bool) {
	colorEnabled = enabled
}

// Render applies style unless color is disabled.
func Render(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

// Success renders a green check followed by msg.
func Success(msg string) string {
	return Render(StyleGreen, "✔") + " " + msg
}

// Warning renders a yellow exclamation mark followed by msg.
func Warning(msg string) string {
	return Render(StyleYellow, "!") + " " + msg
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return Render(StyleDim, text)
}

// Bold renders text in bold.
func Bold(text string) string {
	return Render(StyleBold, text)
}

// RenderTable renders a simple aligned table with a header separator line.
// Columns are padded to the maximum visible width across headers and rows.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	cols := len(headers)
	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = max(widths[i], lipgloss.Width(h))
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	const colGap = 2
	var b strings.Builder

	writeRow := func(cells []string, style func(string) string) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := max(widths[i]-lipgloss.Width(cell), 0)
			b.WriteString(style(cell))
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return Render(StyleHeader, s) })

	for i, w := range widths {
		b.WriteString(Dim(strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")

	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

// EntryHeaders are the column titles of an entry table.
var EntryHeaders = []string{"Date", "Hours", "Start", "End", "Description"}

// EntryRows converts entries into table rows. Separators become empty rows
// and a final row carries the total in the Hours column. An empty list
// yields no rows at all.
func EntryRows(entries []model.WorkEntry, total float64) [][]string {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(entries)+1)
	for i, e := range entries {
		if e.IsSeparator() {
			// A trailing separator would only duplicate the gap before the total.
			if i != len(entries)-1 {
				rows = append(rows, []string{})
			}
			continue
		}
		rows = append(rows, []string{
			e.Date,
			timecalc.FormatHours(e.Hours),
			e.Start,
			e.End,
			e.Description,
		})
	}
	rows = append(rows, []string{"", Bold(timecalc.FormatHours(total))})
	return rows
}

// EntryTable renders entries with their total.
func EntryTable(entries []model.WorkEntry, total float64) string {
	return RenderTable(EntryHeaders, EntryRows(entries, total))
}
