package worddiff

import (
	"github.com/driftline/driftline/internal/unidiff"
)

// Granularity selects how lines are tokenized before matching.
type Granularity int

const (
	// GranularityRuns splits on whitespace/non-whitespace boundaries only.
	GranularityRuns Granularity = iota
	// GranularityWords additionally splits non-whitespace runs at UAX #29 word boundaries.
	GranularityWords
)

func split(line string, g Granularity) []string {
	if g == GranularityWords {
		return TokenizeWords(line)
	}
	return Tokenize(line)
}

// PairLines pairs each run of consecutive Deletion lines with the run of Addition lines that
// immediately follows it, k-th with k-th, up to the shorter run's length. The result maps a line's
// id to its counterpart's content, in both directions. Lines with no counterpart are absent.
func PairLines(lines []unidiff.Line) map[unidiff.LineID]string {
	pairs := make(map[unidiff.LineID]string)
	i := 0
	for i < len(lines) {
		if lines[i].Kind != unidiff.Deletion {
			i++
			continue
		}
		delStart := i
		for i < len(lines) && lines[i].Kind == unidiff.Deletion {
			i++
		}
		addStart := i
		for i < len(lines) && lines[i].Kind == unidiff.Addition {
			i++
		}
		n := min(addStart-delStart, i-addStart)
		for k := 0; k < n; k++ {
			del := lines[delStart+k]
			add := lines[addStart+k]
			pairs[del.ID] = add.Content
			pairs[add.ID] = del.Content
		}
	}
	return pairs
}

// HunkSegments computes display segments for every Addition and Deletion line of a hunk. Paired
// lines get word-level segments against their counterpart; unpaired lines (and lines Compose
// refuses, such as over-long ones) render as one whole-line segment. Context lines are absent from
// the result.
func HunkSegments(h unidiff.Hunk, g Granularity) map[unidiff.LineID][]Segment {
	counterpart := PairLines(h.Lines)
	segs := make(map[unidiff.LineID][]Segment, len(h.Lines))
	for _, ln := range h.Lines {
		switch ln.Kind {
		case unidiff.Deletion:
			if other, ok := counterpart[ln.ID]; ok {
				if oldSegs, _, err := composeWith(g, ln.Content, other); err == nil {
					segs[ln.ID] = oldSegs
					continue
				}
			}
			segs[ln.ID] = WholeLine(ln.Content, SegmentRemoved)
		case unidiff.Addition:
			if other, ok := counterpart[ln.ID]; ok {
				if _, newSegs, err := composeWith(g, other, ln.Content); err == nil {
					segs[ln.ID] = newSegs
					continue
				}
			}
			segs[ln.ID] = WholeLine(ln.Content, SegmentAdded)
		}
	}
	return segs
}

func composeWith(g Granularity, oldLine, newLine string) ([]Segment, []Segment, error) {
	if err := checkLine(oldLine); err != nil {
		return nil, nil, err
	}
	if err := checkLine(newLine); err != nil {
		return nil, nil, err
	}
	oldSegments, newSegments := ComposeTokens(split(oldLine, g), split(newLine, g))
	return oldSegments, newSegments, nil
}
