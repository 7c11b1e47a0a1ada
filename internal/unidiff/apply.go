package unidiff

import (
	"fmt"
	"strings"
)

// Apply applies hunks to content, treating content as the diff's old side, and returns the new side.
// Context and deletion lines are verified against the input; any mismatch rejects the whole patch and
// content is returned unmodified (empty).
func Apply(content string, hunks []Hunk) (string, error) {
	return applyHunks(content, hunks, false)
}

// ApplyReverse un-applies hunks: content is treated as the diff's new side and the old side is
// returned. Additions are verified and removed, deletions are restored.
func ApplyReverse(content string, hunks []Hunk) (string, error) {
	return applyHunks(content, hunks, true)
}

type textDoc struct {
	lines        []string // without line terminators
	finalNewline bool
}

func splitDoc(content string) textDoc {
	if content == "" {
		return textDoc{}
	}
	finalNewline := strings.HasSuffix(content, "\n")
	trimmed := strings.TrimSuffix(content, "\n")
	return textDoc{lines: strings.Split(trimmed, "\n"), finalNewline: finalNewline}
}

func (d textDoc) join() string {
	if len(d.lines) == 0 {
		return ""
	}
	s := strings.Join(d.lines, "\n")
	if d.finalNewline {
		s += "\n"
	}
	return s
}

func applyHunks(content string, hunks []Hunk, reverse bool) (string, error) {
	src := splitDoc(content)
	out := textDoc{finalNewline: true}
	pos := 0 // next unconsumed index into src.lines

	appendSrc := func() {
		out.lines = append(out.lines, src.lines[pos])
		out.finalNewline = pos != len(src.lines)-1 || src.finalNewline
		pos++
	}

	for hi := range hunks {
		h := &hunks[hi]
		start, count := h.OldStart, h.OldCount
		if reverse {
			start, count = h.NewStart, h.NewCount
		}
		// A count of zero means "insert after line start"; otherwise start is the first covered line.
		first := start - 1
		if count == 0 {
			first = start
		}
		if first < pos {
			return "", patchRejectedError(fmt.Errorf("hunk %d at line %d overlaps the previous hunk", hi+1, start))
		}
		if first > len(src.lines) {
			return "", patchRejectedError(fmt.Errorf("hunk %d starts at line %d but input has %d lines", hi+1, start, len(src.lines)))
		}
		for pos < first {
			appendSrc()
		}
		for _, ln := range h.Lines {
			kind := ln.Kind
			if reverse {
				switch kind {
				case Addition:
					kind = Deletion
				case Deletion:
					kind = Addition
				}
			}
			switch kind {
			case Context, Deletion:
				if pos >= len(src.lines) {
					return "", patchRejectedError(fmt.Errorf("hunk %d expects %q past end of input", hi+1, ln.Content))
				}
				if src.lines[pos] != ln.Content {
					return "", patchRejectedError(fmt.Errorf("hunk %d: expected %q at line %d, found %q", hi+1, ln.Content, pos+1, src.lines[pos]))
				}
				if kind == Context {
					appendSrc()
				} else {
					pos++
				}
			case Addition:
				out.lines = append(out.lines, ln.Content)
				out.finalNewline = !ln.NoEOL
			}
		}
	}
	for pos < len(src.lines) {
		appendSrc()
	}
	return out.join(), nil
}
