// internal/ui/component/table.go
package component

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/dip-monitor/internal/ui/style"
)

// Column describes one table column. Width is the content width in
// cells; the renderer adds one cell of padding on each side.
type Column struct {
	Title string
	Width int
	Align lipgloss.Position
}

// Table renders tabular data with a fixed column layout, optional row
// selection and per-row style overrides. Rows are replaced wholesale on
// every refresh; style overrides reset with them.
type Table struct {
	columns  []Column
	rows     [][]string
	styles   map[int]lipgloss.Style
	selected int

	headerStyle   lipgloss.Style
	rowStyle      lipgloss.Style
	selectedStyle lipgloss.Style
	borderStyle   lipgloss.Style

	selectable bool
	focused    bool
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	palette := style.DefaultPalette()

	return &Table{
		columns: columns,
		styles:  make(map[int]lipgloss.Style),

		headerStyle: lipgloss.NewStyle().
			Foreground(palette.Info).
			Bold(true).
			Padding(0, 1),

		rowStyle: lipgloss.NewStyle().
			Foreground(palette.Text).
			Padding(0, 1),

		selectedStyle: lipgloss.NewStyle().
			Foreground(palette.Background).
			Background(palette.Primary).
			Padding(0, 1),

		borderStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(palette.TextMuted),

		selectable: true,
	}
}

// SetRows replaces all rows and clears per-row style overrides. The
// selection is clamped so it always points at an existing row.
func (t *Table) SetRows(rows [][]string) *Table {
	t.rows = rows
	t.styles = make(map[int]lipgloss.Style)
	if t.selected >= len(rows) {
		t.selected = len(rows) - 1
	}
	if t.selected < 0 {
		t.selected = 0
	}
	return t
}

// SetRowStyle overrides the style of a single row until the next
// SetRows call.
func (t *Table) SetRowStyle(index int, s lipgloss.Style) *Table {
	if index >= 0 && index < len(t.rows) {
		t.styles[index] = s
	}
	return t
}

// SetFocused toggles the focus highlight on the border.
func (t *Table) SetFocused(focused bool) *Table {
	t.focused = focused
	return t
}

// MoveUp moves the selection one row up.
func (t *Table) MoveUp() *Table {
	if t.selectable && t.selected > 0 {
		t.selected--
	}
	return t
}

// MoveDown moves the selection one row down.
func (t *Table) MoveDown() *Table {
	if t.selectable && t.selected < len(t.rows)-1 {
		t.selected++
	}
	return t
}

// Selected returns the index of the selected row.
func (t *Table) Selected() int {
	return t.selected
}

// SelectedRow returns the data of the selected row, or nil when the
// table is empty.
func (t *Table) SelectedRow() []string {
	if t.selected >= 0 && t.selected < len(t.rows) {
		return t.rows[t.selected]
	}
	return nil
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int {
	return len(t.rows)
}

// View renders the table.
func (t *Table) View() string {
	if len(t.columns) == 0 {
		return ""
	}

	var content strings.Builder

	var header strings.Builder
	for i, col := range t.columns {
		header.WriteString(t.renderCell(col.Title, col, t.headerStyle))
		if i < len(t.columns)-1 {
			header.WriteString("│")
		}
	}
	content.WriteString(header.String())
	content.WriteString("\n")

	var rule strings.Builder
	for i, col := range t.columns {
		rule.WriteString(strings.Repeat("─", col.Width+2))
		if i < len(t.columns)-1 {
			rule.WriteString("┼")
		}
	}
	content.WriteString(rule.String())

	for rowIndex, row := range t.rows {
		rowStyle := t.rowStyle
		if override, ok := t.styles[rowIndex]; ok {
			rowStyle = override
		}
		if t.selectable && t.focused && rowIndex == t.selected {
			rowStyle = t.selectedStyle
		}

		content.WriteString("\n")
		var line strings.Builder
		for i, col := range t.columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			line.WriteString(t.renderCell(cell, col, rowStyle))
			if i < len(t.columns)-1 {
				line.WriteString("│")
			}
		}
		content.WriteString(line.String())
	}

	border := t.borderStyle
	if t.focused {
		border = border.BorderForeground(style.DefaultPalette().Primary)
	}
	return border.Render(content.String())
}

// renderCell truncates overlong content and applies column alignment.
func (t *Table) renderCell(content string, col Column, s lipgloss.Style) string {
	runes := []rune(content)
	if len(runes) > col.Width {
		if col.Width > 1 {
			content = string(runes[:col.Width-1]) + "…"
		} else {
			content = string(runes[:col.Width])
		}
	}
	return s.Width(col.Width + 2).Align(col.Align).Render(content)
}
