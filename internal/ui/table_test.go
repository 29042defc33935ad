package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableWidthsRespectBounds(t *testing.T) {
	tbl := NewTable(NewDisplayContextWithWidth(120), SkillsLayout)
	widths := tbl.Widths()

	assert.Len(t, widths, len(SkillsLayout))
	assert.Equal(t, 4, widths[0])
	assert.Equal(t, 8, widths[2])
	for i, col := range SkillsLayout {
		assert.GreaterOrEqual(t, widths[i], col.MinWidth, col.Name)
		if col.MaxWidth > 0 {
			assert.LessOrEqual(t, widths[i], col.MaxWidth, col.Name)
		}
	}
}

func TestTableNarrowTerminalUsesMinimums(t *testing.T) {
	tbl := NewTable(NewDisplayContextWithWidth(10), SkillsLayout)
	widths := tbl.Widths()
	assert.Equal(t, ColName.MinWidth, widths[1])
	assert.Equal(t, ColPath.MinWidth, widths[4])
}

func TestTableRender(t *testing.T) {
	tbl := NewTable(NewDisplayContextWithWidth(120), SkillsLayout)
	assert.Empty(t, tbl.Render())

	tbl.AddRow("1", "pdf-tools", "global", "agents", "~/.agents/skills/pdf-tools")
	tbl.AddRow("2", "release-notes", "project")
	assert.Equal(t, 2, tbl.Len())

	out := tbl.Render()
	assert.Contains(t, out, "pdf-tools")
	assert.Contains(t, out, "release-notes")
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 2)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd…", Truncate("abcdefgh", 5))
	assert.Equal(t, "…", Truncate("abc", 1))
	assert.Equal(t, "héllo", Truncate("héllo", 5))
}
