// Package ui renders work-item listings for the terminal.
package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	// fallbackWidth is used when stdout is not a terminal.
	fallbackWidth = 100
	// minFlexWidth is the floor a flexible column can be squeezed to.
	minFlexWidth = 8
	columnGap    = 2
)

// Column describes one column of a work-item listing.
type Column struct {
	Title string
	// Flex columns (title, tags) absorb the squeeze when the listing is
	// wider than the terminal; fixed columns (id, status) never shrink.
	Flex bool
	// Status columns style each cell by its work-item status value.
	Status bool
}

// ListTable lays out work items in fixed-width columns sized to the
// terminal. Ids, statuses, and enums keep their natural width; free-form
// columns are truncated with an ellipsis instead of wrapping.
type ListTable struct {
	Columns []Column
	Rows    [][]string
	// Width overrides terminal detection; zero means detect.
	Width int
}

func (t *ListTable) cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// columnWidths sizes every column to its widest cell, then squeezes the
// flex columns until the table fits the render width.
func (t *ListTable) columnWidths() []int {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = lipgloss.Width(c.Title)
	}
	for _, row := range t.Rows {
		for i := range t.Columns {
			if w := lipgloss.Width(t.cell(row, i)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	limit := t.Width
	if limit <= 0 {
		limit = fallbackWidth
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			limit = w
		}
	}

	// One leading space plus a gap between each pair of columns.
	available := limit - 1 - columnGap*(len(t.Columns)-1)
	total := 0
	for _, w := range widths {
		total += w
	}
	for i, c := range t.Columns {
		if total <= available {
			break
		}
		if !c.Flex || widths[i] <= minFlexWidth {
			continue
		}
		give := widths[i] - minFlexWidth
		if over := total - available; give > over {
			give = over
		}
		widths[i] -= give
		total -= give
	}
	return widths
}

// Render outputs the listing to a string.
func (t *ListTable) Render() string {
	if len(t.Columns) == 0 {
		return ""
	}

	widths := t.columnWidths()
	gap := strings.Repeat(" ", columnGap)
	var sb strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)
	dimStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	headerCells := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headerCells[i] = headerStyle.Render(pad(truncate(c.Title, widths[i]), widths[i]))
	}
	sb.WriteString(" " + strings.Join(headerCells, gap) + "\n")

	sepParts := make([]string, len(t.Columns))
	for i, w := range widths {
		sepParts[i] = dimStyle.Render(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(sepParts, strings.Repeat("─", columnGap)) + "\n")

	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			val := truncate(t.cell(row, i), widths[i])
			style := cellStyle
			if c.Status {
				style = StatusStyle(val)
			}
			cells[i] = style.Render(pad(val, widths[i]))
		}
		sb.WriteString(" " + strings.Join(cells, gap) + "\n")
	}

	return sb.String()
}

// truncate shortens a cell to width with a trailing ellipsis, counting
// runes so multi-byte titles are never split mid-character.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}

// pad right-fills a cell to its column width.
func pad(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}
