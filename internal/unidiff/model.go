package unidiff

import (
	"errors"
	"fmt"
)

// LineKind classifies a line within a hunk.
type LineKind int

const (
	Context LineKind = iota
	Addition
	Deletion
)

func (k LineKind) String() string {
	switch k {
	case Context:
		return "context"
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	default:
		return fmt.Sprintf("LineKind(%d)", int(k))
	}
}

// Prefix returns the unified-diff marker for the kind.
func (k LineKind) Prefix() byte {
	switch k {
	case Addition:
		return '+'
	case Deletion:
		return '-'
	default:
		return ' '
	}
}

// LineID identifies a Line within one FileDiff. Ids are assigned sequentially from 1 in parse order,
// so the same diff text always produces the same ids. The zero value is never a valid id.
type LineID int

// Line is one line of a hunk. Content excludes the trailing newline.
type Line struct {
	ID      LineID
	Kind    LineKind
	Content string
	OldNo   int  // 1-based line number in the old file; 0 for additions
	NewNo   int  // 1-based line number in the new file; 0 for deletions
	NoEOL   bool // the "\ No newline at end of file" marker followed this line
}

// Hunk is a contiguous block of changes with its unified-diff header fields.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string // trailing header text after the closing @@, e.g. the enclosing function
	Lines    []Line
}

// FileDiff is the parsed diff of a single file.
type FileDiff struct {
	Path      string
	OldPath   string // differs from Path when the file was renamed
	IsBinary  bool
	IsNew     bool
	IsDeleted bool
	Hunks     []Hunk
	Additions int
	Deletions int
}

var errInvalidPatch = errors.New("invalid patch")

// IsInvalidPatch reports whether err came from malformed patch text or an invalid serialization
// request (such as selecting a line id the hunks don't contain).
func IsInvalidPatch(err error) bool {
	return errors.Is(err, errInvalidPatch)
}

func invalidPatchError(err error) error {
	return errors.Join(errInvalidPatch, err)
}

var errPatchRejected = errors.New("patch does not apply")

// IsPatchRejected reports whether err indicates hunks that do not fit the content they were applied
// to (context or deletion mismatch, or a hunk reaching past end of file).
func IsPatchRejected(err error) bool {
	return errors.Is(err, errPatchRejected)
}

func patchRejectedError(err error) error {
	return errors.Join(errPatchRejected, err)
}

// Line returns the line with the given id, or false when no line has it.
func (fd *FileDiff) Line(id LineID) (Line, bool) {
	for hi := range fd.Hunks {
		for li := range fd.Hunks[hi].Lines {
			if fd.Hunks[hi].Lines[li].ID == id {
				return fd.Hunks[hi].Lines[li], true
			}
		}
	}
	return Line{}, false
}

// ChangeIDs returns the ids of the hunk's Addition and Deletion lines, in order. Selecting all of
// them and serializing the subset is equivalent to staging the whole hunk.
func (h *Hunk) ChangeIDs() []LineID {
	var ids []LineID
	for _, ln := range h.Lines {
		if ln.Kind != Context {
			ids = append(ids, ln.ID)
		}
	}
	return ids
}

// lineCounts returns the old-side and new-side line counts implied by the hunk body.
func (h *Hunk) lineCounts() (oldCount, newCount int) {
	for _, ln := range h.Lines {
		switch ln.Kind {
		case Context:
			oldCount++
			newCount++
		case Deletion:
			oldCount++
		case Addition:
			newCount++
		}
	}
	return oldCount, newCount
}

// validate checks the FileDiff invariants and returns an error on the first violation.
func (fd *FileDiff) validate() error {
	if fd.IsBinary {
		if len(fd.Hunks) != 0 {
			return fmt.Errorf("%s: binary diff must not carry hunks", fd.Path)
		}
		return nil
	}
	adds, dels := 0, 0
	for hi := range fd.Hunks {
		h := &fd.Hunks[hi]
		if len(h.Lines) == 0 {
			return fmt.Errorf("%s: hunk[%d] has no lines", fd.Path, hi)
		}
		oldCount, newCount := h.lineCounts()
		if h.OldCount != oldCount {
			return fmt.Errorf("%s: hunk[%d] header old count %d, lines imply %d", fd.Path, hi, h.OldCount, oldCount)
		}
		if h.NewCount != newCount {
			return fmt.Errorf("%s: hunk[%d] header new count %d, lines imply %d", fd.Path, hi, h.NewCount, newCount)
		}
		for li, ln := range h.Lines {
			switch ln.Kind {
			case Context:
				if ln.OldNo == 0 || ln.NewNo == 0 {
					return fmt.Errorf("%s: hunk[%d].line[%d] context line missing a line number", fd.Path, hi, li)
				}
			case Addition:
				adds++
				if ln.OldNo != 0 || ln.NewNo == 0 {
					return fmt.Errorf("%s: hunk[%d].line[%d] addition has bad line numbers", fd.Path, hi, li)
				}
			case Deletion:
				dels++
				if ln.OldNo == 0 || ln.NewNo != 0 {
					return fmt.Errorf("%s: hunk[%d].line[%d] deletion has bad line numbers", fd.Path, hi, li)
				}
			}
			if ln.ID == 0 {
				return fmt.Errorf("%s: hunk[%d].line[%d] has no id", fd.Path, hi, li)
			}
		}
	}
	if fd.Additions != adds {
		return fmt.Errorf("%s: Additions is %d, lines imply %d", fd.Path, fd.Additions, adds)
	}
	if fd.Deletions != dels {
		return fmt.Errorf("%s: Deletions is %d, lines imply %d", fd.Path, fd.Deletions, dels)
	}
	return nil
}

// assignIDs numbers every line sequentially from 1 and fills the per-file addition/deletion totals.
func (fd *FileDiff) assignIDs() {
	next := LineID(1)
	adds, dels := 0, 0
	for hi := range fd.Hunks {
		for li := range fd.Hunks[hi].Lines {
			fd.Hunks[hi].Lines[li].ID = next
			next++
			switch fd.Hunks[hi].Lines[li].Kind {
			case Addition:
				adds++
			case Deletion:
				dels++
			}
		}
	}
	fd.Additions = adds
	fd.Deletions = dels
}
