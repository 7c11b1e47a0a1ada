// Package tui is driftline's interactive terminal interface: a file list beside a
// scrolling diff pane with per-line staging, plus an inline view for resolving merge
// conflicts. It stays in sync with the repository through a filesystem watcher and
// reports staging progress as the orchestrator works through submissions.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/driftline/driftline/internal/config"
	"github.com/driftline/driftline/internal/conflict"
	"github.com/driftline/driftline/internal/gitcmd"
	"github.com/driftline/driftline/internal/render"
	"github.com/driftline/driftline/internal/staging"
	"github.com/driftline/driftline/internal/unidiff"
	"github.com/driftline/driftline/internal/watch"
	"github.com/driftline/driftline/internal/worddiff"
)

// Config carries everything Run needs. Service and Conf must be non-nil.
type Config struct {
	Service *gitcmd.Service
	Conf    *config.Config
	Logger  *slog.Logger
	Staged  bool // start in the staged view
}

// Run starts the interface and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// The notify callback fires on orchestrator goroutines and on tea.Cmd goroutines,
	// never on the update loop itself: Submit is only ever called from commands.
	var p *tea.Program
	orch := staging.New(cfg.Service,
		staging.WithLogger(logger),
		staging.WithNotify(func(e staging.Event) {
			if p != nil {
				p.Send(stagingMsg{event: e})
			}
		}),
	)

	m := newModel(ctx, cfg, orch, logger)
	p = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	w, err := watch.New(cfg.Service.Root(), watch.Options{Logger: logger})
	if err != nil {
		logger.Warn("filesystem watch unavailable", "err", err)
	} else {
		defer w.Close()
		go func() {
			for range w.Events() {
				p.Send(refreshMsg{})
			}
		}()
	}

	_, err = p.Run()
	return err
}

// refreshMsg asks for a full status reload. Sent by the watcher and the r key.
type refreshMsg struct{}

type statusLoadedMsg struct {
	files []gitcmd.FileStatus
	err   error
}

// diffLoadedMsg carries the diff (or parsed conflict sections) for one file. path and
// scope identify the request so loads that finish after the cursor moved on are dropped.
type diffLoadedMsg struct {
	path       string
	scope      gitcmd.Scope
	fd         unidiff.FileDiff
	conflicted bool
	sections   []conflict.Section
	err        error
}

type stagingMsg struct {
	event staging.Event
}

// submitDoneMsg reports the synchronous outcome of handing a request to the
// orchestrator. Async completion arrives separately as stagingMsg events.
type submitDoneMsg struct {
	path string
	op   staging.Op
	err  error
}

// fileOpMsg reports a whole-file git operation (stage, unstage, conflict write).
type fileOpMsg struct {
	path string
	verb string
	err  error
}

type rowKind int

const (
	rowHunk rowKind = iota
	rowLine
	rowMeta
	rowConflict
)

// diffRow is one screen row of the diff pane. The cursor moves over these.
type diffRow struct {
	kind    rowKind
	hunkIdx int
	line    unidiff.Line
	meta    string
	secIdx  int // conflict section this row belongs to
	secRow  int // row offset within the rendered section
}

type model struct {
	ctx    context.Context
	svc    *gitcmd.Service
	orch   *staging.Orchestrator
	conf   *config.Config
	logger *slog.Logger

	renderer    *render.Renderer
	theme       render.Theme
	granularity worddiff.Granularity

	width  int
	height int
	ready  bool

	scope   gitcmd.Scope
	files   []gitcmd.FileStatus
	fileIdx int

	// diffPath/diffScope identify what fd currently holds; selections are only
	// preserved across reloads of the same pair.
	diffPath  string
	diffScope gitcmd.Scope
	fd        unidiff.FileDiff
	segs      map[unidiff.LineID][]worddiff.Segment
	rows      []diffRow
	rowIdx    int
	selected  map[unidiff.LineID]bool

	conflicted bool
	sections   []conflict.Section
	confIdx    int

	viewport viewport.Model
	spinner  spinner.Model
	busy     bool
	status   string
	errText  string

	pendingDiscard bool
}

func newModel(ctx context.Context, cfg Config, orch *staging.Orchestrator, logger *slog.Logger) model {
	theme := render.ForName(cfg.Conf.Theme)
	granularity := cfg.Conf.WordGranularity()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Cursor

	scope := gitcmd.Worktree
	if cfg.Staged {
		scope = gitcmd.Index
	}

	return model{
		ctx:    ctx,
		svc:    cfg.Service,
		orch:   orch,
		conf:   cfg.Conf,
		logger: logger,
		renderer: render.New(theme, render.Options{
			Granularity: granularity,
			Syntax:      cfg.Conf.Syntax,
			MaxLineLen:  cfg.Conf.MaxLineLen,
		}),
		theme:       theme,
		granularity: granularity,
		scope:       scope,
		selected:    make(map[unidiff.LineID]bool),
		spinner:     sp,
	}
}

func (m model) Init() tea.Cmd {
	return m.loadStatus()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case refreshMsg:
		return m, m.loadStatus()

	case statusLoadedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.applyStatus(msg.files)
		return m, m.loadDiff()

	case diffLoadedMsg:
		if msg.path != m.currentPath() || msg.scope != m.scope {
			return m, nil
		}
		if msg.err != nil {
			m.errText = msg.err.Error()
			return m, nil
		}
		m.errText = ""
		m.applyDiff(msg)
		return m, nil

	case stagingMsg:
		return m.handleStagingEvent(msg.event)

	case submitDoneMsg:
		if msg.err != nil {
			if staging.IsBusy(msg.err) {
				m.status = fmt.Sprintf("%s busy, try again shortly", msg.path)
			} else {
				m.errText = msg.err.Error()
			}
		}
		return m, nil

	case fileOpMsg:
		if msg.err != nil {
			m.errText = fmt.Sprintf("%s %s: %v", msg.verb, msg.path, msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("%s %s", msg.verb, msg.path)
		return m, m.loadStatus()

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleStagingEvent(e staging.Event) (tea.Model, tea.Cmd) {
	switch e.State {
	case staging.Building, staging.Submitted:
		wasBusy := m.busy
		m.busy = true
		m.status = fmt.Sprintf("%s %s", e.Op, e.Path)
		if !wasBusy {
			return m, m.spinner.Tick
		}
		return m, nil

	case staging.Failed:
		m.busy = false
		m.errText = fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
		return m, m.loadStatus()

	case staging.Idle:
		m.busy = false
		m.status = fmt.Sprintf("%s %s: done", e.Op, e.Path)
		// The applied lines are gone from this diff; stale ids must not linger.
		m.selected = make(map[unidiff.LineID]bool)
		return m, m.loadStatus()
	}
	return m, nil
}

func (m model) currentPath() string {
	if m.fileIdx < 0 || m.fileIdx >= len(m.files) {
		return ""
	}
	return m.files[m.fileIdx].Path
}

func (m model) currentFile() (gitcmd.FileStatus, bool) {
	if m.fileIdx < 0 || m.fileIdx >= len(m.files) {
		return gitcmd.FileStatus{}, false
	}
	return m.files[m.fileIdx], true
}

// applyStatus swaps in the fresh file list, keeping the cursor on the same path when it
// still exists.
func (m *model) applyStatus(files []gitcmd.FileStatus) {
	prev := m.currentPath()
	m.files = files
	if prev != "" {
		if i := slices.IndexFunc(files, func(f gitcmd.FileStatus) bool { return f.Path == prev }); i >= 0 {
			m.fileIdx = i
			return
		}
	}
	if m.fileIdx >= len(files) {
		m.fileIdx = max(len(files)-1, 0)
	}
}

func (m *model) applyDiff(msg diffLoadedMsg) {
	if msg.path == m.diffPath && msg.scope == m.diffScope {
		// Same file, same scope: keep selections whose line still reads the same.
		for id := range m.selected {
			prev, okPrev := m.fd.Line(id)
			next, okNext := msg.fd.Line(id)
			if !okPrev || !okNext || prev.Kind != next.Kind || prev.Content != next.Content {
				delete(m.selected, id)
			}
		}
	} else {
		m.selected = make(map[unidiff.LineID]bool)
	}
	m.diffPath = msg.path
	m.diffScope = msg.scope

	m.fd = msg.fd
	m.conflicted = msg.conflicted
	m.sections = msg.sections
	m.confIdx = 0

	maxLen := m.conf.MaxLineLen
	m.segs = make(map[unidiff.LineID][]worddiff.Segment)
	if !m.conflicted {
		for i := range m.fd.Hunks {
			for id, segs := range worddiff.HunkSegments(m.fd.Hunks[i], m.granularity) {
				if maxLen > 0 {
					if ln, ok := m.fd.Line(id); ok && len(ln.Content) > maxLen {
						continue
					}
				}
				m.segs[id] = segs
			}
		}
	}

	m.rows = buildRows(m.fd, m.conflicted, m.sections)
	if m.rowIdx >= len(m.rows) {
		m.rowIdx = max(len(m.rows)-1, 0)
	}
	if m.conflicted && len(m.rows) > 0 {
		m.confIdx = m.rows[m.rowIdx].secIdx
	}
	m.refreshViewport()
}

// loadStatus reloads git status for the whole repository.
func (m model) loadStatus() tea.Cmd {
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		files, err := svc.Status(ctx)
		if err != nil {
			return statusLoadedMsg{err: err}
		}
		slices.SortFunc(files, func(a, b gitcmd.FileStatus) int {
			return strings.Compare(a.Path, b.Path)
		})
		return statusLoadedMsg{files: files}
	}
}

// loadDiff loads whatever the diff pane should show for the current file: conflict
// sections for an unmerged file, a synthesized all-additions diff for an untracked one,
// and a plain git diff otherwise.
func (m model) loadDiff() tea.Cmd {
	ctx, svc, scope := m.ctx, m.svc, m.scope
	entry, ok := m.currentFile()
	if !ok {
		return func() tea.Msg { return diffLoadedMsg{scope: scope} }
	}
	path := entry.Path

	switch {
	case entry.Unmerged() && scope == gitcmd.Worktree:
		return func() tea.Msg {
			content, err := svc.ReadFile(path)
			if err != nil {
				return diffLoadedMsg{path: path, scope: scope, err: err}
			}
			sections, err := conflict.Parse(content)
			if err != nil {
				return diffLoadedMsg{path: path, scope: scope, err: err}
			}
			if len(sections) > 0 {
				return diffLoadedMsg{path: path, scope: scope, conflicted: true, sections: sections}
			}
			// All markers already resolved; show the remaining diff so the user
			// can review before marking resolved with s.
			return loadGitDiff(ctx, svc, path, scope)
		}

	case entry.Untracked() && scope == gitcmd.Worktree:
		return func() tea.Msg {
			content, err := svc.ReadFile(path)
			if err != nil {
				return diffLoadedMsg{path: path, scope: scope, err: err}
			}
			fd := unidiff.Compute("", content, unidiff.ComputeOptions{Path: path})
			fd.IsNew = true
			return diffLoadedMsg{path: path, scope: scope, fd: fd}
		}

	default:
		return func() tea.Msg { return loadGitDiff(ctx, svc, path, scope) }
	}
}

func loadGitDiff(ctx context.Context, svc *gitcmd.Service, path string, scope gitcmd.Scope) tea.Msg {
	fds, err := svc.Diff(ctx, scope, path)
	if err != nil {
		return diffLoadedMsg{path: path, scope: scope, err: err}
	}
	fd := unidiff.FileDiff{Path: path}
	if len(fds) > 0 {
		fd = fds[0]
	}
	return diffLoadedMsg{path: path, scope: scope, fd: fd}
}
