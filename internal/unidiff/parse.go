package unidiff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const noEOLMarker = `\ No newline at end of file`

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(?: (.*))?$`)

// Parse parses `git diff` output into one FileDiff per file section. Empty input yields an empty slice.
func Parse(text string) ([]FileDiff, error) {
	p := newParser(text)
	var diffs []FileDiff
	for !p.eof() {
		line, _ := p.peek()
		if line == "" && p.idx == len(p.lines)-1 {
			break // trailing newline artifact of Split
		}
		if !strings.HasPrefix(line, "diff --git ") {
			return nil, invalidPatchError(fmt.Errorf("line %d: expected \"diff --git\", got %q", p.lineNumber(), line))
		}
		fd, err := p.parseFileSection()
		if err != nil {
			return nil, err
		}
		fd.assignIDs()
		if err := fd.validate(); err != nil {
			return nil, invalidPatchError(err)
		}
		diffs = append(diffs, fd)
	}
	return diffs, nil
}

// ParsePatch parses bare hunk blocks (optionally preceded by ---/+++ file header lines) into Hunks.
// Line ids are assigned sequentially across the returned hunks.
func ParsePatch(text string) ([]Hunk, error) {
	p := newParser(text)
	for !p.eof() {
		line, _ := p.peek()
		if strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ") || strings.TrimSpace(line) == "" {
			p.next()
			continue
		}
		break
	}
	var hunks []Hunk
	for !p.eof() {
		line, _ := p.peek()
		if line == "" && p.idx == len(p.lines)-1 {
			break
		}
		h, err := p.parseHunk()
		if err != nil {
			return nil, err
		}
		hunks = append(hunks, h)
	}
	if len(hunks) == 0 {
		return nil, invalidPatchError(fmt.Errorf("no hunks in patch"))
	}
	next := LineID(1)
	for hi := range hunks {
		for li := range hunks[hi].Lines {
			hunks[hi].Lines[li].ID = next
			next++
		}
	}
	return hunks, nil
}

type parser struct {
	lines []string
	idx   int
}

func newParser(input string) *parser {
	normalized := strings.ReplaceAll(input, "\r\n", "\n")
	return &parser{lines: strings.Split(normalized, "\n")}
}

func (p *parser) eof() bool { return p.idx >= len(p.lines) }

func (p *parser) peek() (string, bool) {
	if p.eof() {
		return "", false
	}
	return p.lines[p.idx], true
}

func (p *parser) next() (string, bool) {
	line, ok := p.peek()
	if !ok {
		return "", false
	}
	p.idx++
	return line, true
}

func (p *parser) lineNumber() int { return p.idx + 1 }

func (p *parser) parseFileSection() (FileDiff, error) {
	header, _ := p.next()
	var fd FileDiff
	fd.OldPath, fd.Path = splitDiffGitPaths(header)

	// Extended header lines up to the first hunk, binary notice, or next file.
	for !p.eof() {
		line, _ := p.peek()
		switch {
		case strings.HasPrefix(line, "diff --git "):
			return fd, nil // header-only section (e.g. mode change)
		case strings.HasPrefix(line, "@@ "):
			return p.parseHunks(fd)
		case strings.HasPrefix(line, "rename from "):
			fd.OldPath = strings.TrimPrefix(line, "rename from ")
			p.next()
		case strings.HasPrefix(line, "rename to "):
			fd.Path = strings.TrimPrefix(line, "rename to ")
			p.next()
		case strings.HasPrefix(line, "new file mode "):
			fd.IsNew = true
			p.next()
		case strings.HasPrefix(line, "deleted file mode "):
			fd.IsDeleted = true
			p.next()
		case strings.HasPrefix(line, "Binary files ") || strings.HasPrefix(line, "GIT binary patch"):
			fd.IsBinary = true
			p.next()
			p.skipBinaryBody()
			return fd, nil
		case strings.HasPrefix(line, "--- "):
			if path, ok := stripPathPrefix(strings.TrimPrefix(line, "--- "), "a/"); ok {
				fd.OldPath = path
			}
			p.next()
		case strings.HasPrefix(line, "+++ "):
			if path, ok := stripPathPrefix(strings.TrimPrefix(line, "+++ "), "b/"); ok {
				fd.Path = path
			}
			p.next()
		case line == "" && p.idx == len(p.lines)-1:
			return fd, nil
		default:
			// old mode, new mode, index, similarity index, and friends
			p.next()
		}
	}
	return fd, nil
}

func (p *parser) parseHunks(fd FileDiff) (FileDiff, error) {
	for !p.eof() {
		line, _ := p.peek()
		if !strings.HasPrefix(line, "@@ ") {
			break
		}
		h, err := p.parseHunk()
		if err != nil {
			return fd, err
		}
		fd.Hunks = append(fd.Hunks, h)
	}
	return fd, nil
}

func (p *parser) parseHunk() (Hunk, error) {
	header, ok := p.next()
	if !ok {
		return Hunk{}, invalidPatchError(fmt.Errorf("line %d: expected hunk header", p.lineNumber()))
	}
	m := hunkHeaderRE.FindStringSubmatch(header)
	if m == nil {
		return Hunk{}, invalidPatchError(fmt.Errorf("line %d: bad hunk header %q", p.lineNumber()-1, header))
	}
	h := Hunk{
		OldStart: atoi(m[1]),
		OldCount: 1,
		NewStart: atoi(m[3]),
		NewCount: 1,
		Section:  m[5],
	}
	if m[2] != "" {
		h.OldCount = atoi(m[2])
	}
	if m[4] != "" {
		h.NewCount = atoi(m[4])
	}

	oldNo, newNo := h.OldStart, h.NewStart
	oldLeft, newLeft := h.OldCount, h.NewCount
	for oldLeft > 0 || newLeft > 0 {
		line, ok := p.next()
		if !ok {
			return Hunk{}, invalidPatchError(fmt.Errorf("hunk at -%d,+%d: input ended %d/%d lines early",
				h.OldStart, h.NewStart, oldLeft, newLeft))
		}
		var ln Line
		switch {
		case line == "" || line[0] == ' ':
			ln = Line{Kind: Context, Content: strings.TrimPrefix(line, " "), OldNo: oldNo, NewNo: newNo}
			oldNo++
			newNo++
			oldLeft--
			newLeft--
		case line[0] == '+':
			ln = Line{Kind: Addition, Content: line[1:], NewNo: newNo}
			newNo++
			newLeft--
		case line[0] == '-':
			ln = Line{Kind: Deletion, Content: line[1:], OldNo: oldNo}
			oldNo++
			oldLeft--
		case line[0] == '\\':
			if len(h.Lines) == 0 {
				return Hunk{}, invalidPatchError(fmt.Errorf("hunk at -%d,+%d: %q before any line", h.OldStart, h.NewStart, line))
			}
			h.Lines[len(h.Lines)-1].NoEOL = true
			continue
		default:
			return Hunk{}, invalidPatchError(fmt.Errorf("line %d: bad hunk line %q", p.lineNumber()-1, line))
		}
		if oldLeft < 0 || newLeft < 0 {
			return Hunk{}, invalidPatchError(fmt.Errorf("hunk at -%d,+%d: more lines than the header promises", h.OldStart, h.NewStart))
		}
		h.Lines = append(h.Lines, ln)
	}
	if line, ok := p.peek(); ok && strings.HasPrefix(line, `\`) {
		h.Lines[len(h.Lines)-1].NoEOL = true
		p.next()
	}
	if len(h.Lines) == 0 {
		return Hunk{}, invalidPatchError(fmt.Errorf("hunk at -%d,+%d: empty hunk", h.OldStart, h.NewStart))
	}
	return h, nil
}

func (p *parser) skipBinaryBody() {
	// "GIT binary patch" is followed by literal/delta blocks until a blank line or next section.
	for !p.eof() {
		line, _ := p.peek()
		if line == "" || strings.HasPrefix(line, "diff --git ") {
			return
		}
		p.next()
	}
}

// splitDiffGitPaths extracts the two paths from a "diff --git a/old b/new" line. Quoted paths are
// unquoted; for unquoted paths with spaces the " b/" separator is authoritative. The ---/+++ and
// rename header lines, when present, overwrite whatever this returns.
func splitDiffGitPaths(header string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(header, "diff --git ")
	if strings.HasPrefix(rest, `"`) {
		if unquoted, err := strconv.Unquote(firstQuoted(rest)); err == nil {
			oldPath = strings.TrimPrefix(unquoted, "a/")
			rest = strings.TrimSpace(rest[len(firstQuoted(rest)):])
		}
	}
	if oldPath == "" {
		if i := strings.Index(rest, " b/"); i >= 0 {
			oldPath = strings.TrimPrefix(rest[:i], "a/")
			rest = rest[i+1:]
		}
	}
	if strings.HasPrefix(rest, `"`) {
		if unquoted, err := strconv.Unquote(firstQuoted(rest)); err == nil {
			return oldPath, strings.TrimPrefix(unquoted, "b/")
		}
	}
	return oldPath, strings.TrimPrefix(rest, "b/")
}

func firstQuoted(s string) string {
	for i := 1; i < len(s); i++ {
		if s[i] == '"' && s[i-1] != '\\' {
			return s[:i+1]
		}
	}
	return s
}

// stripPathPrefix trims the a/ or b/ prefix from a ---/+++ path, reporting false for /dev/null and
// unquoting quoted paths.
func stripPathPrefix(raw, prefix string) (string, bool) {
	raw = strings.TrimSuffix(raw, "\t")
	if raw == "/dev/null" {
		return "", false
	}
	if strings.HasPrefix(raw, `"`) {
		if unquoted, err := strconv.Unquote(raw); err == nil {
			raw = unquoted
		}
	}
	return strings.TrimPrefix(raw, prefix), true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
