package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/driftline/driftline/internal/conflict"
	"github.com/driftline/driftline/internal/gitcmd"
	"github.com/driftline/driftline/internal/staging"
	"github.com/driftline/driftline/internal/unidiff"
)

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Discard confirmation survives exactly one keypress: the second x.
	if key != "x" {
		m.pendingDiscard = false
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		m.status = ""
		return m, m.loadStatus()

	case "tab":
		if m.scope == gitcmd.Worktree {
			m.scope = gitcmd.Index
		} else {
			m.scope = gitcmd.Worktree
		}
		m.status = ""
		m.rowIdx = 0
		m.viewport.SetYOffset(0)
		return m, m.loadDiff()

	case "j", "down":
		m.moveCursor(1)
		return m, nil
	case "k", "up":
		m.moveCursor(-1)
		return m, nil
	case "g", "home":
		m.setCursor(0)
		return m, nil
	case "G", "end":
		m.setCursor(len(m.rows) - 1)
		return m, nil
	case "pgdown", "ctrl+f":
		m.moveCursor(m.viewport.Height)
		return m, nil
	case "pgup", "ctrl+b":
		m.moveCursor(-m.viewport.Height)
		return m, nil

	case "J":
		return m.nextFile(1)
	case "K":
		return m.nextFile(-1)

	case " ", "space":
		m.toggleSelect()
		return m, nil

	case "s":
		return m.stageKey()
	case "u":
		return m.unstageKey()
	case "U":
		if _, ok := m.currentFile(); !ok {
			return m, nil
		}
		return m, m.fileOp("unstaged", m.svc.UnstageFile)
	case "x":
		return m.discardKey()

	case "o":
		return m.resolveKey(conflict.ChooseOurs)
	case "t":
		return m.resolveKey(conflict.ChooseTheirs)
	case "b":
		return m.resolveKey(conflict.ChooseBoth)
	case "B":
		return m.resolveKey(conflict.ChooseBothReverse)
	case "O":
		return m.resolveAllKey(conflict.ChooseOurs)
	case "T":
		return m.resolveAllKey(conflict.ChooseTheirs)

	case "n":
		m.nextSection(1)
		return m, nil
	case "p":
		m.nextSection(-1)
		return m, nil
	}
	return m, nil
}

func (m *model) moveCursor(delta int) {
	m.setCursor(m.rowIdx + delta)
}

func (m *model) setCursor(idx int) {
	if len(m.rows) == 0 {
		m.rowIdx = 0
		return
	}
	m.rowIdx = min(max(idx, 0), len(m.rows)-1)
	if m.conflicted {
		m.confIdx = m.rows[m.rowIdx].secIdx
	}
	m.refreshViewport()
}

// nextSection jumps the cursor to the first row of the neighboring conflict section.
func (m *model) nextSection(delta int) {
	if !m.conflicted || len(m.sections) == 0 {
		return
	}
	target := min(max(m.confIdx+delta, 0), len(m.sections)-1)
	for i, row := range m.rows {
		if row.secIdx == target && row.secRow == 0 {
			m.setCursor(i)
			return
		}
	}
}

func (m model) nextFile(delta int) (tea.Model, tea.Cmd) {
	if len(m.files) == 0 {
		return m, nil
	}
	m.fileIdx = min(max(m.fileIdx+delta, 0), len(m.files)-1)
	m.status = ""
	m.rowIdx = 0
	m.viewport.SetYOffset(0)
	return m, m.loadDiff()
}

// toggleSelect flips the selection of the line under the cursor, or of a whole hunk when
// the cursor sits on its header. Context lines cannot be selected.
func (m *model) toggleSelect() {
	if m.conflicted || m.rowIdx >= len(m.rows) {
		return
	}
	row := m.rows[m.rowIdx]
	switch row.kind {
	case rowLine:
		if row.line.Kind == unidiff.Context {
			return
		}
		if m.selected[row.line.ID] {
			delete(m.selected, row.line.ID)
		} else {
			m.selected[row.line.ID] = true
		}
		m.moveCursor(1)

	case rowHunk:
		ids := m.fd.Hunks[row.hunkIdx].ChangeIDs()
		all := len(ids) > 0
		for _, id := range ids {
			if !m.selected[id] {
				all = false
				break
			}
		}
		for _, id := range ids {
			if all {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}
		m.refreshViewport()
	}
}

func (m model) stageKey() (tea.Model, tea.Cmd) {
	entry, ok := m.currentFile()
	if !ok {
		return m, nil
	}
	if entry.Unmerged() {
		if m.scope != gitcmd.Worktree {
			m.status = "switch to the unstaged view to resolve (tab)"
			return m, nil
		}
		if len(m.sections) > 0 {
			m.status = "resolve all conflicts before staging"
			return m, nil
		}
		return m, m.fileOp("staged", m.svc.StageFile)
	}
	if entry.Untracked() {
		return m, m.fileOp("staged", m.svc.StageFile)
	}
	if m.scope != gitcmd.Worktree {
		m.status = "already staged; u unstages lines here"
		return m, nil
	}
	return m.submit(staging.OpStage)
}

func (m model) unstageKey() (tea.Model, tea.Cmd) {
	if _, ok := m.currentFile(); !ok {
		return m, nil
	}
	if m.scope != gitcmd.Index {
		m.status = "switch to the staged view first (tab)"
		return m, nil
	}
	return m.submit(staging.OpUnstage)
}

func (m model) discardKey() (tea.Model, tea.Cmd) {
	entry, ok := m.currentFile()
	if !ok {
		return m, nil
	}
	if m.scope != gitcmd.Worktree || m.conflicted {
		m.status = "discard works in the unstaged view"
		return m, nil
	}
	if entry.Untracked() {
		m.status = "refusing to delete an untracked file"
		return m, nil
	}
	if !m.pendingDiscard {
		m.pendingDiscard = true
		m.status = "discard selected changes? press x again to confirm"
		return m, nil
	}
	m.pendingDiscard = false
	return m.submit(staging.OpDiscard)
}

// submit hands the current diff and selection to the orchestrator. The call happens in a
// command so the synchronous Building/Submitted notifications never re-enter the update
// loop that is dispatching this key.
func (m model) submit(op staging.Op) (tea.Model, tea.Cmd) {
	if m.fd.IsBinary {
		m.status = "binary file; no line staging"
		return m, nil
	}
	if len(m.fd.Hunks) == 0 {
		m.status = "nothing to " + op.String()
		return m, nil
	}
	req := staging.Request{
		Path:     m.fd.Path,
		Op:       op,
		Hunks:    m.fd.Hunks,
		Selected: m.selectionCopy(),
	}
	ctx, orch := m.ctx, m.orch
	return m, func() tea.Msg {
		_, err := orch.Submit(ctx, req)
		return submitDoneMsg{path: req.Path, op: op, err: err}
	}
}

// selectionCopy snapshots the selection for a request. Empty means everything, which is
// the orchestrator's convention too.
func (m model) selectionCopy() map[unidiff.LineID]bool {
	if len(m.selected) == 0 {
		return nil
	}
	sel := make(map[unidiff.LineID]bool, len(m.selected))
	for id := range m.selected {
		sel[id] = true
	}
	return sel
}

func (m model) fileOp(verb string, op func(context.Context, string) error) tea.Cmd {
	ctx, path := m.ctx, m.currentPath()
	return func() tea.Msg {
		return fileOpMsg{path: path, verb: verb, err: op(ctx, path)}
	}
}

// resolveKey applies choice to the conflict section under the cursor and writes the file
// back. The section was parsed from an earlier read; if the file changed in between,
// ApplyResolution refuses and the error lands in the status bar.
func (m model) resolveKey(choice conflict.Choice) (tea.Model, tea.Cmd) {
	if !m.conflicted || len(m.sections) == 0 {
		return m, nil
	}
	sec := m.sections[m.confIdx]
	path, svc := m.currentPath(), m.svc
	m.status = fmt.Sprintf("resolving with %s", choice)
	return m, func() tea.Msg {
		content, err := svc.ReadFile(path)
		if err == nil {
			var updated string
			updated, err = conflict.ApplyResolution(content, sec, choice, nil)
			if err == nil {
				err = svc.WriteFile(path, updated)
			}
		}
		return fileOpMsg{path: path, verb: "resolved conflict in", err: err}
	}
}

func (m model) resolveAllKey(choice conflict.Choice) (tea.Model, tea.Cmd) {
	if !m.conflicted || len(m.sections) == 0 {
		return m, nil
	}
	path, svc := m.currentPath(), m.svc
	m.status = fmt.Sprintf("resolving all with %s", choice)
	return m, func() tea.Msg {
		content, err := svc.ReadFile(path)
		if err == nil {
			var updated string
			updated, err = conflict.ResolveAll(content, choice)
			if err == nil {
				err = svc.WriteFile(path, updated)
			}
		}
		return fileOpMsg{path: path, verb: "resolved all conflicts in", err: err}
	}
}
