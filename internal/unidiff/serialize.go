package unidiff

import (
	"fmt"
	"strings"
)

// FormatHunk serializes one hunk in full: the @@ header followed by every line with its prefix.
func FormatHunk(h Hunk) string {
	var b strings.Builder
	writeHunkHeader(&b, h.OldStart, h.OldCount, h.NewStart, h.NewCount, h.Section)
	for _, ln := range h.Lines {
		writeLine(&b, ln.Kind.Prefix(), ln.Content, ln.NoEOL)
	}
	return b.String()
}

// FormatHunks serializes hunks in full, concatenated.
func FormatHunks(hunks []Hunk) string {
	var b strings.Builder
	for _, h := range hunks {
		b.WriteString(FormatHunk(h))
	}
	return b.String()
}

// FormatSubset serializes only the selected Addition/Deletion lines of hunks, rewriting hunk headers
// so the patch still applies to the text the hunks were computed from. Hunks with no selected lines
// are omitted.
//
// With reverse=false, the patch is built for forward application to the diff's old side: unselected
// deletions are demoted to context (the line is staying put), and unselected additions are dropped.
// With reverse=true, the patch is built for reverse application to the diff's new side, so the
// treatment is mirrored: unselected additions become context and unselected deletions are dropped.
//
// Every selected id must name an Addition or Deletion line in hunks; anything else is an invalid
// patch error.
func FormatSubset(hunks []Hunk, selected map[LineID]bool, reverse bool) (string, error) {
	if len(selected) == 0 {
		return "", invalidPatchError(fmt.Errorf("no lines selected"))
	}
	changeable := make(map[LineID]bool)
	for hi := range hunks {
		for _, ln := range hunks[hi].Lines {
			if ln.Kind != Context {
				changeable[ln.ID] = true
			}
		}
	}
	for id := range selected {
		if !changeable[id] {
			return "", invalidPatchError(fmt.Errorf("selected line id %d is not an addition or deletion in these hunks", id))
		}
	}

	var b strings.Builder
	delta := 0 // cumulative line drift from earlier included hunks
	for hi := range hunks {
		h := &hunks[hi]
		if !hunkHasSelection(h, selected) {
			continue
		}
		var body strings.Builder
		oldCount, newCount := 0, 0
		for _, ln := range h.Lines {
			switch classifySubsetLine(ln, selected, reverse) {
			case subsetContext:
				writeLine(&body, ' ', ln.Content, ln.NoEOL)
				oldCount++
				newCount++
			case subsetDeletion:
				writeLine(&body, '-', ln.Content, ln.NoEOL)
				oldCount++
			case subsetAddition:
				writeLine(&body, '+', ln.Content, ln.NoEOL)
				newCount++
			case subsetDropped:
			}
		}
		if reverse {
			// Anchored on the new side; the old side reflects only the selected changes.
			oldStart := derivedStart(h.NewStart+delta, newCount, oldCount)
			writeHunkHeader(&b, oldStart, oldCount, h.NewStart, newCount, h.Section)
			delta += oldCount - newCount
		} else {
			newStart := derivedStart(h.OldStart+delta, oldCount, newCount)
			writeHunkHeader(&b, h.OldStart, oldCount, newStart, newCount, h.Section)
			delta += newCount - oldCount
		}
		b.WriteString(body.String())
	}
	return b.String(), nil
}

type subsetLineClass int

const (
	subsetContext subsetLineClass = iota
	subsetAddition
	subsetDeletion
	subsetDropped
)

func classifySubsetLine(ln Line, selected map[LineID]bool, reverse bool) subsetLineClass {
	switch ln.Kind {
	case Context:
		return subsetContext
	case Deletion:
		switch {
		case selected[ln.ID]:
			return subsetDeletion
		case reverse:
			return subsetDropped
		default:
			return subsetContext
		}
	case Addition:
		switch {
		case selected[ln.ID]:
			return subsetAddition
		case reverse:
			return subsetContext
		default:
			return subsetDropped
		}
	}
	return subsetDropped
}

// derivedStart computes the non-anchored side's start value. A count of zero switches a header field
// to git's "after line N" convention, so the derived side shifts by one relative to the anchored
// side whenever exactly one of the two counts is zero.
func derivedStart(anchoredStart, anchoredCount, derivedCount int) int {
	switch {
	case anchoredCount == 0 && derivedCount > 0:
		return anchoredStart + 1
	case derivedCount == 0 && anchoredCount > 0:
		return anchoredStart - 1
	default:
		return anchoredStart
	}
}

func hunkHasSelection(h *Hunk, selected map[LineID]bool) bool {
	for _, ln := range h.Lines {
		if ln.Kind != Context && selected[ln.ID] {
			return true
		}
	}
	return false
}

func writeHunkHeader(b *strings.Builder, oldStart, oldCount, newStart, newCount int, section string) {
	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
	if section != "" {
		b.WriteByte(' ')
		b.WriteString(section)
	}
	b.WriteByte('\n')
}

func writeLine(b *strings.Builder, prefix byte, content string, noEOL bool) {
	b.WriteByte(prefix)
	b.WriteString(content)
	b.WriteByte('\n')
	if noEOL {
		b.WriteString(noEOLMarker)
		b.WriteByte('\n')
	}
}
