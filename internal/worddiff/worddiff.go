package worddiff

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// SegmentKind classifies a Segment relative to the other side of the diff.
type SegmentKind int

const (
	SegmentUnchanged SegmentKind = iota
	SegmentAdded
	SegmentRemoved
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentUnchanged:
		return "unchanged"
	case SegmentAdded:
		return "added"
	case SegmentRemoved:
		return "removed"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is a run of text within one line, annotated with how it differs from the paired line.
type Segment struct {
	Kind SegmentKind
	Text string
}

// MaxLineLen is the longest line (in bytes) Compose accepts. LCS is quadratic in token count, so
// pathological lines must be rejected up front rather than ground through.
const MaxLineLen = 4096

var errMalformedInput = errors.New("malformed input")

// IsMalformedInput reports whether err indicates input Compose refuses to diff (invalid UTF-8 or an
// over-long line).
func IsMalformedInput(err error) bool {
	return errors.Is(err, errMalformedInput)
}

func malformedInputError(err error) error {
	return errors.Join(errMalformedInput, err)
}

// Compose splits both lines into tokens and returns each line as a segment sequence. Tokens common to
// both lines (per LCS) become SegmentUnchanged on both sides; tokens only in oldLine become
// SegmentRemoved; tokens only in newLine become SegmentAdded. Lines must be valid UTF-8, contain no
// line terminator, and be at most MaxLineLen bytes.
func Compose(oldLine, newLine string) (oldSegments, newSegments []Segment, err error) {
	if err := checkLine(oldLine); err != nil {
		return nil, nil, err
	}
	if err := checkLine(newLine); err != nil {
		return nil, nil, err
	}
	oldSegments, newSegments = ComposeTokens(Tokenize(oldLine), Tokenize(newLine))
	return oldSegments, newSegments, nil
}

// ComposeTokens is Compose for callers that tokenize themselves (for example with TokenizeWords). No
// validation is performed.
func ComposeTokens(oldTokens, newTokens []string) (oldSegments, newSegments []Segment) {
	oldSegments = make([]Segment, 0, len(oldTokens))
	newSegments = make([]Segment, 0, len(newTokens))
	oi, ni := 0, 0
	for _, anchor := range lcsPairs(oldTokens, newTokens) {
		for ; oi < anchor.a; oi++ {
			oldSegments = append(oldSegments, Segment{Kind: SegmentRemoved, Text: oldTokens[oi]})
		}
		for ; ni < anchor.b; ni++ {
			newSegments = append(newSegments, Segment{Kind: SegmentAdded, Text: newTokens[ni]})
		}
		oldSegments = append(oldSegments, Segment{Kind: SegmentUnchanged, Text: oldTokens[oi]})
		newSegments = append(newSegments, Segment{Kind: SegmentUnchanged, Text: newTokens[ni]})
		oi++
		ni++
	}
	for ; oi < len(oldTokens); oi++ {
		oldSegments = append(oldSegments, Segment{Kind: SegmentRemoved, Text: oldTokens[oi]})
	}
	for ; ni < len(newTokens); ni++ {
		newSegments = append(newSegments, Segment{Kind: SegmentAdded, Text: newTokens[ni]})
	}
	return oldSegments, newSegments
}

// WholeLine returns the line as a single segment of the given kind. It is the rendering path for lines
// with no paired counterpart (pure additions and pure deletions). Empty lines yield no segments.
func WholeLine(line string, kind SegmentKind) []Segment {
	if line == "" {
		return nil
	}
	return []Segment{{Kind: kind, Text: line}}
}

func checkLine(line string) error {
	if len(line) > MaxLineLen {
		return malformedInputError(fmt.Errorf("line is %d bytes, max %d", len(line), MaxLineLen))
	}
	if !utf8.ValidString(line) {
		return malformedInputError(errors.New("line is not valid UTF-8"))
	}
	return nil
}
