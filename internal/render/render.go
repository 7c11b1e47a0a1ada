// Package render draws parsed diffs and conflict sections as styled terminal rows.
//
// A Renderer is not safe for concurrent use: it caches lexers per file name. Every public
// method returns rows without trailing newlines, one terminal row per string, so callers
// can map rows back to the lines they came from.
package render

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/driftline/driftline/internal/conflict"
	"github.com/driftline/driftline/internal/unidiff"
	"github.com/driftline/driftline/internal/worddiff"
)

// Options configures a Renderer.
type Options struct {
	Granularity worddiff.Granularity // intra-line emphasis granularity
	Syntax      bool                 // syntax-highlight context lines
	TabWidth    int                  // tab stop width; <= 0 means 4
	Width       int                  // truncate rows to this many columns; <= 0 disables
	MaxLineLen  int                  // lines over this many bytes get no intra-line emphasis; <= 0 disables
}

// Renderer turns diff structures into styled rows.
type Renderer struct {
	theme  Theme
	opts   Options
	cond   *runewidth.Condition
	lexers map[string]chroma.Lexer
}

// New returns a Renderer drawing with theme.
func New(theme Theme, opts Options) *Renderer {
	if opts.TabWidth <= 0 {
		opts.TabWidth = 4
	}
	cond := runewidth.NewCondition()
	cond.StrictEmojiNeutral = true
	return &Renderer{
		theme:  theme,
		opts:   opts,
		cond:   cond,
		lexers: map[string]chroma.Lexer{},
	}
}

// SetWidth changes the row truncation width (ex: on terminal resize).
func (r *Renderer) SetWidth(w int) {
	r.opts.Width = w
}

// LineOptions controls the per-row decorations around a diff line.
type LineOptions struct {
	NumWidth int  // line number column width; 0 omits the gutter
	Markers  bool // reserve the cursor/selection marker columns
	Selected bool // line is selected for the next stage/unstage
	Cursor   bool // line is under the cursor
}

// NumWidth returns the digit width needed for fd's line number gutter.
func NumWidth(fd unidiff.FileDiff) int {
	maxNo := 1
	for _, h := range fd.Hunks {
		for _, ln := range h.Lines {
			maxNo = max(maxNo, ln.OldNo, ln.NewNo)
		}
	}
	w := 1
	for maxNo >= 10 {
		maxNo /= 10
		w++
	}
	return w
}

// FileDiff renders fd in full: a title row, then each hunk's header and lines.
func (r *Renderer) FileDiff(fd unidiff.FileDiff) string {
	out := []string{r.fit(r.theme.FileHeader.Render(fileTitle(fd)))}

	if fd.IsBinary {
		out = append(out, r.theme.LineNo.Render("binary file; no text diff"))
		return strings.Join(out, "\n")
	}

	numWidth := NumWidth(fd)
	for _, h := range fd.Hunks {
		out = append(out, r.HunkHeader(h))
		segs := worddiff.HunkSegments(h, r.opts.Granularity)
		for _, ln := range h.Lines {
			s := segs[ln.ID]
			if r.opts.MaxLineLen > 0 && len(ln.Content) > r.opts.MaxLineLen {
				s = nil
			}
			out = append(out, r.Line(fd.Path, ln, s, LineOptions{NumWidth: numWidth}))
			if ln.NoEOL {
				out = append(out, r.theme.LineNo.Render(`\ No newline at end of file`))
			}
		}
	}
	return strings.Join(out, "\n")
}

// HunkHeader renders h's "@@" row.
func (r *Renderer) HunkHeader(h unidiff.Hunk) string {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	if h.Section != "" {
		header += " " + h.Section
	}
	return r.fit(r.theme.HunkHeader.Render(header))
}

// Line renders one diff line as a single row: marker columns, line number gutter,
// the unified-diff prefix, and the content with intra-line emphasis from segs.
func (r *Renderer) Line(path string, ln unidiff.Line, segs []worddiff.Segment, opts LineOptions) string {
	var b strings.Builder

	if opts.Markers {
		if opts.Cursor {
			b.WriteString(r.theme.Cursor.Render(">"))
		} else {
			b.WriteString(" ")
		}
		if opts.Selected {
			b.WriteString(r.theme.Selected.Render("*"))
		} else {
			b.WriteString(" ")
		}
		b.WriteString(" ")
	}
	if opts.NumWidth > 0 {
		b.WriteString(r.gutter(ln, opts.NumWidth))
	}

	prefix := string(ln.Kind.Prefix())
	switch ln.Kind {
	case unidiff.Context:
		b.WriteString(r.theme.Context.Render(prefix))
		b.WriteString(r.highlight(path, r.expandTabs(ln.Content)))
	case unidiff.Addition:
		b.WriteString(r.changedLine(prefix, ln.Content, segs, worddiff.SegmentAdded, r.theme.Added, r.theme.AddedEmph))
	case unidiff.Deletion:
		b.WriteString(r.changedLine(prefix, ln.Content, segs, worddiff.SegmentRemoved, r.theme.Removed, r.theme.RemovedEmph))
	}

	return r.fit(b.String())
}

// Conflict renders one conflict section with its markers reconstructed, coloring the
// competing sides. Rows map 1:1 to the section's rows in file order.
func (r *Renderer) Conflict(s conflict.Section) []string {
	rows := []string{r.fit(r.theme.ConflictMarker.Render(markerRow("<<<<<<<", s.OursLabel)))}
	for _, ln := range s.Ours {
		rows = append(rows, r.fit(r.theme.ConflictOurs.Render(r.expandTabs(ln))))
	}
	if s.HasBase {
		rows = append(rows, r.fit(r.theme.ConflictMarker.Render(markerRow("|||||||", s.BaseLabel))))
		for _, ln := range s.Base {
			rows = append(rows, r.fit(r.theme.LineNo.Render(r.expandTabs(ln))))
		}
	}
	rows = append(rows, r.fit(r.theme.ConflictMarker.Render("=======")))
	for _, ln := range s.Theirs {
		rows = append(rows, r.fit(r.theme.ConflictTheirs.Render(r.expandTabs(ln))))
	}
	rows = append(rows, r.fit(r.theme.ConflictMarker.Render(markerRow(">>>>>>>", s.TheirsLabel))))
	return rows
}

// fileTitle formats fd's header row: "add p" for new files, "delete p" for deleted ones,
// "old -> new" for renames, otherwise just the path, each with change counts.
func fileTitle(fd unidiff.FileDiff) string {
	switch {
	case fd.IsNew:
		return fmt.Sprintf("add %s (+%d)", fd.Path, fd.Additions)
	case fd.IsDeleted:
		return fmt.Sprintf("delete %s (-%d)", fd.Path, fd.Deletions)
	case fd.OldPath != "" && fd.OldPath != fd.Path:
		return fmt.Sprintf("%s -> %s (+%d -%d)", fd.OldPath, fd.Path, fd.Additions, fd.Deletions)
	default:
		return fmt.Sprintf("%s (+%d -%d)", fd.Path, fd.Additions, fd.Deletions)
	}
}

func markerRow(marker, label string) string {
	if label == "" {
		return marker
	}
	return marker + " " + label
}

// changedLine renders an added or removed line, emphasizing the spans whose kind is
// emphKind. A lone changed segment covering the whole line means nothing was paired with
// it; it renders in the base style only.
func (r *Renderer) changedLine(prefix, content string, segs []worddiff.Segment, emphKind worddiff.SegmentKind, base, emph lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(base.Render(prefix))

	wholeLine := len(segs) == 0 || (len(segs) == 1 && segs[0].Kind != worddiff.SegmentUnchanged)
	if wholeLine {
		b.WriteString(base.Render(r.expandTabs(content)))
		return b.String()
	}

	col := 0
	for _, sg := range segs {
		text, next := r.expandTabsFrom(sg.Text, col)
		col = next
		if sg.Kind == emphKind {
			b.WriteString(emph.Render(text))
		} else {
			b.WriteString(base.Render(text))
		}
	}
	return b.String()
}

func (r *Renderer) gutter(ln unidiff.Line, numWidth int) string {
	oldNo := strings.Repeat(" ", numWidth)
	if ln.OldNo > 0 {
		oldNo = fmt.Sprintf("%*d", numWidth, ln.OldNo)
	}
	newNo := strings.Repeat(" ", numWidth)
	if ln.NewNo > 0 {
		newNo = fmt.Sprintf("%*d", numWidth, ln.NewNo)
	}
	return r.theme.LineNo.Render(oldNo+" "+newNo) + " "
}

// highlight returns line with chroma syntax colors, falling back to the plain context
// style when highlighting is off, no lexer matches, or tokenization fails.
func (r *Renderer) highlight(path string, line string) string {
	if !r.opts.Syntax || r.theme.SyntaxStyle == "" || line == "" {
		return r.theme.Context.Render(line)
	}
	lexer := r.lexerFor(path)
	if lexer == nil {
		return r.theme.Context.Render(line)
	}
	it, err := lexer.Tokenise(nil, line)
	if err != nil {
		return r.theme.Context.Render(line)
	}
	var b strings.Builder
	if err := formatters.Get("terminal256").Format(&b, styles.Get(r.theme.SyntaxStyle), it); err != nil {
		return r.theme.Context.Render(line)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (r *Renderer) lexerFor(path string) chroma.Lexer {
	base := filepath.Base(path)
	if lx, ok := r.lexers[base]; ok {
		return lx
	}
	lx := lexers.Match(base)
	if lx != nil {
		lx = chroma.Coalesce(lx)
	}
	r.lexers[base] = lx
	return lx
}

// expandTabs expands tabs starting from column zero.
func (r *Renderer) expandTabs(s string) string {
	out, _ := r.expandTabsFrom(s, 0)
	return out
}

// expandTabsFrom expands tabs in s to spaces given the display column where s begins,
// returning the expanded text and the column after it. Styled spans can't contain raw
// tabs: terminals don't paint backgrounds across a tab jump.
func (r *Renderer) expandTabsFrom(s string, col int) (string, int) {
	if !strings.ContainsRune(s, '\t') {
		return s, col + r.cond.StringWidth(s)
	}
	var b strings.Builder
	for _, rn := range s {
		if rn == '\t' {
			n := r.opts.TabWidth - col%r.opts.TabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(rn)
		col += r.cond.RuneWidth(rn)
	}
	return b.String(), col
}

// fit truncates row to the configured width, ANSI-aware.
func (r *Renderer) fit(row string) string {
	if r.opts.Width <= 0 {
		return row
	}
	return ansi.Truncate(row, r.opts.Width, "…")
}
