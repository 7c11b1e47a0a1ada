package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/driftline/driftline/internal/conflict"
	"github.com/driftline/driftline/internal/gitcmd"
	"github.com/driftline/driftline/internal/render"
	"github.com/driftline/driftline/internal/unidiff"
)

const (
	filePaneMin = 20
	filePaneMax = 40
)

func (m model) View() string {
	if !m.ready {
		return "loading"
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.filePane(), " ", m.viewport.View())
	return m.headerBar() + "\n" + body + "\n" + m.statusBar()
}

func (m *model) layout() {
	vh := max(m.height-2, 1) // header and status bar
	m.viewport.Width = m.diffPaneWidth()
	m.viewport.Height = vh
	m.renderer.SetWidth(m.viewport.Width)
}

func (m model) filePaneWidth() int {
	w := min(max(m.width/3, filePaneMin), filePaneMax)
	return min(w, m.width/2)
}

func (m model) diffPaneWidth() int {
	return max(m.width-m.filePaneWidth()-1, 1)
}

// buildRows flattens the loaded diff (or conflict sections) into the rows the cursor
// moves over. Conflict sections get a heading row each; binary files a single notice.
func buildRows(fd unidiff.FileDiff, conflicted bool, sections []conflict.Section) []diffRow {
	if conflicted {
		var rows []diffRow
		for i, s := range sections {
			heading := fmt.Sprintf("conflict %d of %d, line %d", i+1, len(sections), s.StartLine)
			rows = append(rows, diffRow{kind: rowMeta, meta: heading, secIdx: i, secRow: -1})
			for r, nRows := 0, sectionRows(s); r < nRows; r++ {
				rows = append(rows, diffRow{kind: rowConflict, secIdx: i, secRow: r})
			}
		}
		return rows
	}

	if fd.IsBinary {
		return []diffRow{{kind: rowMeta, meta: "binary file; no text diff"}}
	}

	var rows []diffRow
	for i := range fd.Hunks {
		rows = append(rows, diffRow{kind: rowHunk, hunkIdx: i})
		for _, ln := range fd.Hunks[i].Lines {
			rows = append(rows, diffRow{kind: rowLine, hunkIdx: i, line: ln})
			if ln.NoEOL {
				rows = append(rows, diffRow{kind: rowMeta, meta: `\ No newline at end of file`, hunkIdx: i})
			}
		}
	}
	return rows
}

// sectionRows is the number of rows Renderer.Conflict produces for s.
func sectionRows(s conflict.Section) int {
	n := 3 + len(s.Ours) + len(s.Theirs)
	if s.HasBase {
		n += 1 + len(s.Base)
	}
	return n
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}
	var content string
	switch {
	case len(m.files) == 0:
		content = m.theme.LineNo.Render("working tree clean")
	case len(m.rows) == 0:
		if m.scope == gitcmd.Index {
			content = m.theme.LineNo.Render("nothing staged for this file")
		} else {
			content = m.theme.LineNo.Render("no unstaged changes in this file")
		}
	default:
		content = strings.Join(m.renderRows(), "\n")
	}
	m.viewport.SetContent(content)
	m.scrollToCursor()
}

// scrollToCursor keeps the cursor row inside the viewport window.
func (m *model) scrollToCursor() {
	switch {
	case m.rowIdx < m.viewport.YOffset:
		m.viewport.SetYOffset(m.rowIdx)
	case m.rowIdx >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(m.rowIdx - m.viewport.Height + 1)
	}
}

func (m *model) renderRows() []string {
	numWidth := render.NumWidth(m.fd)
	width := m.viewport.Width

	var secRows [][]string
	if m.conflicted {
		secRows = make([][]string, len(m.sections))
		for i, s := range m.sections {
			secRows[i] = m.renderer.Conflict(s)
		}
	}

	out := make([]string, 0, len(m.rows))
	for i, row := range m.rows {
		cursor := i == m.rowIdx
		switch row.kind {
		case rowHunk:
			r := m.rowPrefix(cursor) + m.renderer.HunkHeader(m.fd.Hunks[row.hunkIdx])
			out = append(out, ansi.Truncate(r, width, "…"))
		case rowLine:
			out = append(out, m.renderer.Line(m.fd.Path, row.line, m.segs[row.line.ID], render.LineOptions{
				NumWidth: numWidth,
				Markers:  true,
				Selected: m.selected[row.line.ID],
				Cursor:   cursor,
			}))
		case rowMeta:
			r := m.rowPrefix(cursor) + m.theme.LineNo.Render(row.meta)
			out = append(out, ansi.Truncate(r, width, "…"))
		case rowConflict:
			r := m.rowPrefix(cursor) + secRows[row.secIdx][row.secRow]
			out = append(out, ansi.Truncate(r, width, "…"))
		}
	}
	return out
}

// rowPrefix mirrors the three marker columns Renderer.Line draws, keeping non-line rows
// aligned with line rows.
func (m model) rowPrefix(cursor bool) string {
	if cursor {
		return m.theme.Cursor.Render(">") + "  "
	}
	return "   "
}

func (m model) filePane() string {
	w := m.filePaneWidth()
	h := m.viewport.Height
	cell := lipgloss.NewStyle().Width(w).MaxWidth(w)

	rows := make([]string, 0, h)
	start := 0
	if m.fileIdx >= h {
		start = m.fileIdx - h + 1
	}
	for i := start; i < len(m.files) && len(rows) < h; i++ {
		marker := "  "
		if i == m.fileIdx {
			marker = m.theme.Cursor.Render(">") + " "
		}
		rows = append(rows, cell.Render(marker+m.fileLabel(m.files[i])))
	}
	if len(m.files) == 0 {
		rows = append(rows, cell.Render(m.theme.LineNo.Render("no changes")))
	}
	for len(rows) < h {
		rows = append(rows, cell.Render(""))
	}
	return strings.Join(rows, "\n")
}

// fileLabel renders one file list entry: the two porcelain status letters then the path.
func (m model) fileLabel(f gitcmd.FileStatus) string {
	code := string([]byte{f.Staged, f.Unstaged})
	name := f.Path
	if f.OldPath != "" {
		name = f.OldPath + " -> " + f.Path
	}
	label := code + " " + name
	switch {
	case f.Unmerged():
		return m.theme.ConflictMarker.Render(label)
	case f.Untracked():
		return m.theme.LineNo.Render(label)
	case f.Unstaged == ' ':
		return m.theme.Selected.Render(label)
	default:
		return label
	}
}

func (m model) headerBar() string {
	scope := "unstaged"
	if m.scope == gitcmd.Index {
		scope = "staged"
	}
	title := "driftline " + scope
	switch {
	case m.conflicted:
		title = fmt.Sprintf("driftline conflicts: %s (%d to resolve)", m.diffPath, len(m.sections))
	case m.diffPath != "":
		title = fmt.Sprintf("driftline %s: %s (+%d -%d)", scope, m.diffPath, m.fd.Additions, m.fd.Deletions)
	}
	return ansi.Truncate(m.theme.FileHeader.Render(title), m.width, "…")
}

func (m model) statusBar() string {
	var left string
	switch {
	case m.busy:
		left = m.spinner.View() + " " + m.status
	case m.errText != "":
		left = m.theme.Error.Render(m.errText)
	case m.status != "":
		left = m.status
	}

	hints := "j/k move  J/K file  tab view  space select  s stage  u unstage  x discard  r refresh  q quit"
	if m.conflicted {
		hints = "n/p conflict  o ours  t theirs  b both  O/T all  s mark resolved  q quit"
	}
	bar := m.theme.LineNo.Render(hints)
	if left != "" {
		bar = left + "  " + bar
	}
	return ansi.Truncate(bar, m.width, "…")
}
