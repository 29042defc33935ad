package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// ColumnDef defines a column in a Table.
type ColumnDef struct {
	Name       string
	WidthRatio float64 // proportion of the flexible width; 0 means fixed
	MinWidth   int
	MaxWidth   int // 0 = no limit
	Align      Alignment
	Style      lipgloss.Style
}

// Standard columns for skill listings.
var (
	ColNum = ColumnDef{Name: "num", MinWidth: 4, MaxWidth: 6, Align: AlignRight, Style: Muted}

	ColName = ColumnDef{Name: "name", WidthRatio: 0.30, MinWidth: 16, MaxWidth: 40}

	ColScope = ColumnDef{Name: "scope", MinWidth: 8, MaxWidth: 8}

	ColEcosystem = ColumnDef{Name: "ecosystem", WidthRatio: 0.15, MinWidth: 8, MaxWidth: 24, Style: Muted}

	ColPath = ColumnDef{Name: "path", WidthRatio: 0.55, MinWidth: 20, MaxWidth: 90, Style: Muted}

	// SkillsLayout is used by list: [num, name, scope, ecosystem, path]
	SkillsLayout = []ColumnDef{ColNum, ColName, ColScope, ColEcosystem, ColPath}
)

const columnPadding = 2

// Table renders rows with borderless lipgloss styling sized to the terminal.
type Table struct {
	display *DisplayContext
	columns []ColumnDef
	rows    [][]string
}

// NewTable creates a table with the given column layout.
func NewTable(display *DisplayContext, columns []ColumnDef) *Table {
	return &Table{display: display, columns: columns}
}

// AddRow adds a row; missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Widths computes column widths for the current terminal.
func (t *Table) Widths() []int {
	widths := make([]int, len(t.columns))

	var totalRatio float64
	fixed := 0
	for i, col := range t.columns {
		if col.WidthRatio == 0 {
			widths[i] = col.MinWidth
			if col.MaxWidth > 0 && widths[i] > col.MaxWidth {
				widths[i] = col.MaxWidth
			}
			fixed += widths[i]
			continue
		}
		totalRatio += col.WidthRatio
	}

	available := t.display.AvailableWidth(2) - fixed - (len(t.columns)-1)*columnPadding
	if available < 0 {
		available = 0
	}

	for i, col := range t.columns {
		if col.WidthRatio == 0 {
			continue
		}
		w := int(float64(available) * col.WidthRatio / totalRatio)
		if w < col.MinWidth {
			w = col.MinWidth
		}
		if col.MaxWidth > 0 && w > col.MaxWidth {
			w = col.MaxWidth
		}
		widths[i] = w
	}
	return widths
}

// Render generates the table output.
func (t *Table) Render() string {
	if len(t.rows) == 0 {
		return ""
	}
	widths := t.Widths()

	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		cells := make([]string, len(row))
		for j, cell := range row {
			// lipgloss wraps overlong cells; keep one line per skill.
			w := widths[j]
			if j < len(row)-1 {
				w -= columnPadding
			}
			cells[j] = Truncate(cell, w)
		}
		rows[i] = cells
	}

	tbl := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderRow(false).
		BorderColumn(false).
		BorderHeader(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col >= len(t.columns) {
				return lipgloss.NewStyle()
			}
			def := t.columns[col]
			style := def.Style.Width(widths[col])
			if def.Align == AlignRight {
				style = style.Align(lipgloss.Right)
			} else {
				style = style.Align(lipgloss.Left)
			}
			if col < len(t.columns)-1 {
				style = style.PaddingRight(columnPadding)
			}
			return style
		}).
		Rows(rows...)

	return tbl.Render()
}

// Truncate shortens s to max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return strings.TrimRight(string(runes[:max-1]), " ") + "…"
}
