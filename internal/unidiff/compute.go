package unidiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of context lines Compute puts around each change group.
const DefaultContext = 3

// ComputeOptions control Compute. A Context of 0 means DefaultContext.
type ComputeOptions struct {
	Path    string
	Context int
}

// Compute diffs oldText against newText and returns the result as a FileDiff, with changes grouped
// into hunks the way `git diff` groups them. No external process is involved. Inputs containing NUL
// are considered binary and yield a hunk-less FileDiff with IsBinary set.
func Compute(oldText, newText string, opts ComputeOptions) FileDiff {
	fd := FileDiff{Path: opts.Path, OldPath: opts.Path}
	if strings.ContainsRune(oldText, 0) || strings.ContainsRune(newText, 0) {
		fd.IsBinary = true
		return fd
	}
	ctx := opts.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}

	entries := diffEntries(oldText, newText)
	for _, g := range groupEntries(entries, ctx) {
		fd.Hunks = append(fd.Hunks, buildHunk(entries, g))
	}
	fd.assignIDs()
	if err := fd.validate(); err != nil {
		panic(fmt.Errorf("Compute: validate failed with %v", err))
	}
	return fd
}

// entry is one line of the two-file alignment, before grouping into hunks.
type entry struct {
	kind    LineKind
	content string // without line terminator
	noEOL   bool
	oldNo   int // 0 for additions
	newNo   int // 0 for deletions
}

// diffEntries aligns the two texts line by line using a rune-encoded line diff.
func diffEntries(oldText, newText string) []entry {
	dmp := diffmatchpatch.New()
	rOld, rNew, lineArray := dmp.DiffLinesToRunes(oldText, newText)
	lineDiffs := dmp.DiffMainRunes(rOld, rNew, false)
	lineDiffs = dmp.DiffCleanupMerge(lineDiffs)

	// Decode rune-string back to slice of original lines using the lineArray mapping.
	decode := func(s string) []string {
		if s == "" {
			return nil
		}
		out := make([]string, 0, len(s))
		for _, r := range s {
			idx := int(r)
			if idx >= 0 && idx < len(lineArray) {
				out = append(out, lineArray[idx])
			}
		}
		return out
	}

	var entries []entry
	oldNo, newNo := 0, 0
	push := func(kind LineKind, raw string) {
		e := entry{kind: kind, content: strings.TrimSuffix(raw, "\n"), noEOL: !strings.HasSuffix(raw, "\n")}
		switch kind {
		case Context:
			oldNo++
			newNo++
			e.oldNo, e.newNo = oldNo, newNo
		case Deletion:
			oldNo++
			e.oldNo = oldNo
		case Addition:
			newNo++
			e.newNo = newNo
		}
		entries = append(entries, e)
	}
	for _, d := range lineDiffs {
		var kind LineKind
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			kind = Context
		case diffmatchpatch.DiffDelete:
			kind = Deletion
		case diffmatchpatch.DiffInsert:
			kind = Addition
		}
		for _, raw := range decode(d.Text) {
			push(kind, raw)
		}
	}
	return entries
}

// group is a half-open entry index range destined to become one hunk.
type group struct {
	lo, hi int
}

// groupEntries selects the entry ranges to emit, giving each change run ctx lines of surrounding
// context and merging runs whose context would overlap or touch (gap of at most 2*ctx context lines).
func groupEntries(entries []entry, ctx int) []group {
	var groups []group
	n := len(entries)
	i := 0
	for i < n {
		if entries[i].kind == Context {
			i++
			continue
		}
		lo := max(i-ctx, 0)
		hi := i
		for {
			for hi < n && entries[hi].kind != Context {
				hi++
			}
			j := hi
			for j < n && entries[j].kind == Context {
				j++
			}
			if j < n && j-hi <= 2*ctx {
				hi = j
				continue
			}
			groups = append(groups, group{lo: lo, hi: min(min(hi+ctx, j), n)})
			i = j
			break
		}
	}
	return groups
}

func buildHunk(entries []entry, g group) Hunk {
	var h Hunk
	for _, e := range entries[g.lo:g.hi] {
		h.Lines = append(h.Lines, Line{
			Kind:    e.kind,
			Content: e.content,
			OldNo:   e.oldNo,
			NewNo:   e.newNo,
			NoEOL:   e.noEOL,
		})
	}
	h.OldCount, h.NewCount = h.lineCounts()
	h.OldStart = sideStart(entries, g, func(e entry) int { return e.oldNo })
	h.NewStart = sideStart(entries, g, func(e entry) int { return e.newNo })
	return h
}

// sideStart finds the header start value for one side: the side's first line number within the
// group, or, when the group has no lines on that side, the last line number that side reached before
// the group ("insert after" form, possibly 0).
func sideStart(entries []entry, g group, no func(entry) int) int {
	for _, e := range entries[g.lo:g.hi] {
		if n := no(e); n > 0 {
			return n
		}
	}
	for i := g.lo - 1; i >= 0; i-- {
		if n := no(entries[i]); n > 0 {
			return n
		}
	}
	return 0
}
