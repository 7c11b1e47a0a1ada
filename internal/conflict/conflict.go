// Package conflict parses merge-conflict markers out of file content and re-serializes resolutions.
package conflict

import (
	"errors"
	"fmt"
	"strings"
)

const (
	markerOurs   = "<<<<<<<"
	markerBase   = "|||||||"
	markerMid    = "======="
	markerTheirs = ">>>>>>>"
)

var errMalformed = errors.New("malformed conflict markers")

// IsMalformed reports whether err indicates conflict markers that do not form well-nested sections
// (a nested "<<<<<<<", a stray base marker, or end of input mid-section).
func IsMalformed(err error) bool {
	return errors.Is(err, errMalformed)
}

func malformedError(err error) error {
	return errors.Join(errMalformed, err)
}

var errNoConflict = errors.New("no conflict at span")

// IsNoConflict reports whether err indicates a resolution aimed at a span that no longer holds the
// conflict it was parsed from.
func IsNoConflict(err error) bool {
	return errors.Is(err, errNoConflict)
}

// Section is one conflict region. Line fields are 1-based indexes into the content the section was
// parsed from; StartLine and EndLine bound the span that a resolution replaces, inclusive.
type Section struct {
	StartLine int // line of the <<<<<<< marker
	BaseLine  int // line of the ||||||| marker; 0 when the section has no base
	MidLine   int // line of the ======= marker
	EndLine   int // line of the >>>>>>> marker

	OursLabel   string // text after "<<<<<<< ", usually a ref name
	BaseLabel   string
	TheirsLabel string

	Ours    []string
	Base    []string // diff3 style only; nil otherwise
	Theirs  []string
	HasBase bool
}

// parser states
type state int

const (
	scanning state = iota
	collectingOurs
	collectingBase
	collectingTheirs
)

// Parse extracts every conflict section from content. Content without markers parses to an empty
// slice. Markers must nest properly: a second "<<<<<<<" before the pending section's ">>>>>>>" and
// end of input mid-section are both malformed, reported as errors rather than recovered.
func Parse(content string) ([]Section, error) {
	lines := splitLines(content)
	var sections []Section
	var cur Section
	st := scanning
	for i, line := range lines {
		no := i + 1
		switch st {
		case scanning:
			if strings.HasPrefix(line, markerOurs) {
				cur = Section{StartLine: no, OursLabel: markerLabel(line, markerOurs)}
				st = collectingOurs
			}
		case collectingOurs:
			switch {
			case strings.HasPrefix(line, markerOurs):
				return nil, malformedError(fmt.Errorf("line %d: nested %q inside conflict opened at line %d", no, markerOurs, cur.StartLine))
			case strings.HasPrefix(line, markerBase):
				cur.BaseLine = no
				cur.BaseLabel = markerLabel(line, markerBase)
				cur.HasBase = true
				st = collectingBase
			case strings.HasPrefix(line, markerMid):
				cur.MidLine = no
				st = collectingTheirs
			default:
				cur.Ours = append(cur.Ours, line)
			}
		case collectingBase:
			switch {
			case strings.HasPrefix(line, markerOurs):
				return nil, malformedError(fmt.Errorf("line %d: nested %q inside conflict opened at line %d", no, markerOurs, cur.StartLine))
			case strings.HasPrefix(line, markerBase):
				return nil, malformedError(fmt.Errorf("line %d: second %q inside conflict opened at line %d", no, markerBase, cur.StartLine))
			case strings.HasPrefix(line, markerMid):
				cur.MidLine = no
				st = collectingTheirs
			default:
				cur.Base = append(cur.Base, line)
			}
		case collectingTheirs:
			switch {
			case strings.HasPrefix(line, markerOurs):
				return nil, malformedError(fmt.Errorf("line %d: nested %q inside conflict opened at line %d", no, markerOurs, cur.StartLine))
			case strings.HasPrefix(line, markerTheirs):
				cur.EndLine = no
				cur.TheirsLabel = markerLabel(line, markerTheirs)
				sections = append(sections, cur)
				st = scanning
			default:
				cur.Theirs = append(cur.Theirs, line)
			}
		}
	}
	if st != scanning {
		return nil, malformedError(fmt.Errorf("input ended inside conflict opened at line %d", cur.StartLine))
	}
	return sections, nil
}

// Choice selects what replaces a conflict section.
type Choice int

const (
	ChooseOurs Choice = iota
	ChooseTheirs
	ChooseBoth        // ours then theirs
	ChooseBothReverse // theirs then ours
	ChooseCustom      // caller-supplied lines
)

func (c Choice) String() string {
	switch c {
	case ChooseOurs:
		return "ours"
	case ChooseTheirs:
		return "theirs"
	case ChooseBoth:
		return "both"
	case ChooseBothReverse:
		return "both-reverse"
	case ChooseCustom:
		return "custom"
	default:
		return fmt.Sprintf("Choice(%d)", int(c))
	}
}

// Resolve returns the plain-text lines that replace the section. custom is used only with
// ChooseCustom and may be empty (the section collapses to nothing).
func (s *Section) Resolve(choice Choice, custom []string) ([]string, error) {
	switch choice {
	case ChooseOurs:
		return s.Ours, nil
	case ChooseTheirs:
		return s.Theirs, nil
	case ChooseBoth:
		return append(append([]string{}, s.Ours...), s.Theirs...), nil
	case ChooseBothReverse:
		return append(append([]string{}, s.Theirs...), s.Ours...), nil
	case ChooseCustom:
		return custom, nil
	default:
		return nil, fmt.Errorf("unknown resolution choice %d", int(choice))
	}
}

// ApplyResolution replaces the section's span inside content with the resolution and returns the new
// content. Every byte outside the [StartLine, EndLine] span is preserved exactly. The span is
// re-verified first: if the markers are no longer where the section says, the content has changed
// since parsing and the call fails with a no-conflict error instead of corrupting the file.
func ApplyResolution(content string, s Section, choice Choice, custom []string) (string, error) {
	replacement, err := s.Resolve(choice, custom)
	if err != nil {
		return "", err
	}
	raw := splitPreserveEOL(content)
	if err := verifySpan(raw, s); err != nil {
		return "", err
	}

	eol := "\n"
	endRaw := raw[s.EndLine-1]
	if strings.HasSuffix(strings.TrimSuffix(endRaw, "\n"), "\r") {
		eol = "\r\n"
	}
	hadFinalEOL := strings.HasSuffix(endRaw, "\n")

	var b strings.Builder
	for _, l := range raw[:s.StartLine-1] {
		b.WriteString(l)
	}
	for i, l := range replacement {
		b.WriteString(l)
		if i < len(replacement)-1 || hadFinalEOL || s.EndLine < len(raw) {
			b.WriteString(eol)
		}
	}
	for _, l := range raw[s.EndLine:] {
		b.WriteString(l)
	}
	return b.String(), nil
}

// ResolveAll parses content and applies the same choice to every section, last section first so
// earlier spans stay valid. Content without conflicts is returned unchanged.
func ResolveAll(content string, choice Choice) (string, error) {
	sections, err := Parse(content)
	if err != nil {
		return "", err
	}
	for i := len(sections) - 1; i >= 0; i-- {
		content, err = ApplyResolution(content, sections[i], choice, nil)
		if err != nil {
			return "", err
		}
	}
	return content, nil
}

func verifySpan(raw []string, s Section) error {
	if s.StartLine < 1 || s.EndLine > len(raw) || s.StartLine > s.EndLine {
		return errors.Join(errNoConflict, fmt.Errorf("span %d-%d out of range (%d lines)", s.StartLine, s.EndLine, len(raw)))
	}
	if !strings.HasPrefix(raw[s.StartLine-1], markerOurs) {
		return errors.Join(errNoConflict, fmt.Errorf("line %d no longer starts a conflict", s.StartLine))
	}
	if s.MidLine < s.StartLine || s.MidLine > s.EndLine || !strings.HasPrefix(raw[s.MidLine-1], markerMid) {
		return errors.Join(errNoConflict, fmt.Errorf("line %d is not a %q marker", s.MidLine, markerMid))
	}
	if !strings.HasPrefix(raw[s.EndLine-1], markerTheirs) {
		return errors.Join(errNoConflict, fmt.Errorf("line %d does not end a conflict", s.EndLine))
	}
	return nil
}

func markerLabel(line, marker string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(strings.TrimPrefix(line, marker), "\r"), " "))
}

// splitLines splits content into lines without terminators. A trailing newline does not produce a
// final empty line.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// splitPreserveEOL splits content into lines, each keeping its terminator; the last line may have
// none.
func splitPreserveEOL(content string) []string {
	if content == "" {
		return nil
	}
	var lines []string
	for {
		idx := strings.Index(content, "\n")
		if idx == -1 {
			if content != "" {
				lines = append(lines, content)
			}
			break
		}
		lines = append(lines, content[:idx+1])
		content = content[idx+1:]
		if content == "" {
			break
		}
	}
	return lines
}
