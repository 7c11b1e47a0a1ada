package gitcmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/driftline/driftline/internal/unidiff"
)

// Diff returns the parsed diff for the given scope, optionally limited to paths.
func (s *Service) Diff(ctx context.Context, scope Scope, paths ...string) ([]unidiff.FileDiff, error) {
	args := []string{"diff", "--no-color", "--no-ext-diff"}
	if s.context > 0 {
		args = append(args, "-U"+strconv.Itoa(s.context))
	}
	if scope == Index {
		args = append(args, "--cached")
	}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := s.run(ctx, "", args...)
	if err != nil {
		return nil, err
	}
	diffs, err := unidiff.Parse(out)
	if err != nil {
		return nil, fmt.Errorf("parse %s diff: %w", scope, err)
	}
	return diffs, nil
}

// ApplyError is the failure of an ApplyPatch call, carrying git's own explanation.
type ApplyError struct {
	Path    string
	Scope   Scope
	Reverse bool
	Err     error
}

func (e *ApplyError) Error() string {
	dir := "apply"
	if e.Reverse {
		dir = "reverse-apply"
	}
	return fmt.Sprintf("%s patch to %s (%s): %v", dir, e.Path, e.Scope, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// ApplyPatch applies hunk-body patch text to one file. The file header is added here; body must be
// hunk blocks only, as produced by unidiff.FormatHunk or unidiff.FormatSubset. Index scope mutates
// the index (staging); Worktree scope mutates the file itself. reverse un-applies the patch.
func (s *Service) ApplyPatch(ctx context.Context, path, body string, scope Scope, reverse bool) error {
	if strings.TrimSpace(body) == "" {
		return &ApplyError{Path: path, Scope: scope, Reverse: reverse, Err: fmt.Errorf("empty patch")}
	}
	var patch strings.Builder
	fmt.Fprintf(&patch, "diff --git a/%s b/%s\n", path, path)
	fmt.Fprintf(&patch, "--- a/%s\n", path)
	fmt.Fprintf(&patch, "+++ b/%s\n", path)
	patch.WriteString(body)

	args := []string{"apply", "--whitespace=nowarn"}
	if scope == Index {
		args = append(args, "--cached")
	}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, "-")
	if _, err := s.run(ctx, patch.String(), args...); err != nil {
		return &ApplyError{Path: path, Scope: scope, Reverse: reverse, Err: err}
	}
	return nil
}

// StagePatch stages the lines described by hunk-body patch text (worktree-diff direction).
func (s *Service) StagePatch(ctx context.Context, path, body string) error {
	return s.ApplyPatch(ctx, path, body, Index, false)
}

// UnstagePatch removes staged lines from the index (staged-diff direction, applied in reverse).
func (s *Service) UnstagePatch(ctx context.Context, path, body string) error {
	return s.ApplyPatch(ctx, path, body, Index, true)
}

// DiscardPatch reverts the lines described by the patch in the worktree itself. Destructive.
func (s *Service) DiscardPatch(ctx context.Context, path, body string) error {
	return s.ApplyPatch(ctx, path, body, Worktree, true)
}

// FileStatus is one entry of `git status --porcelain`.
type FileStatus struct {
	Path     string
	OldPath  string // set for renames
	Staged   byte   // X column
	Unstaged byte   // Y column
}

// Untracked reports whether the entry is an untracked file.
func (fs FileStatus) Untracked() bool { return fs.Staged == '?' && fs.Unstaged == '?' }

// Unmerged reports whether the entry carries merge conflicts.
func (fs FileStatus) Unmerged() bool {
	switch {
	case fs.Staged == 'U' || fs.Unstaged == 'U':
		return true
	case fs.Staged == 'A' && fs.Unstaged == 'A':
		return true
	case fs.Staged == 'D' && fs.Unstaged == 'D':
		return true
	}
	return false
}

// Status lists changed files, staged and unstaged.
func (s *Service) Status(ctx context.Context) ([]FileStatus, error) {
	out, err := s.run(ctx, "", "status", "--porcelain", "-z", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	return parseStatus(out), nil
}

// parseStatus decodes `git status --porcelain -z` output.
func parseStatus(out string) []FileStatus {
	var statuses []FileStatus
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if len(f) < 4 {
			continue
		}
		st := FileStatus{Staged: f[0], Unstaged: f[1], Path: f[3:]}
		if st.Staged == 'R' || st.Staged == 'C' {
			// The origin path follows as its own NUL-terminated field.
			if i+1 < len(fields) {
				i++
				st.OldPath = fields[i]
			}
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// StageFile stages a whole file: untracked files, and conflicted files once their
// markers are resolved (adding clears the unmerged state).
func (s *Service) StageFile(ctx context.Context, path string) error {
	_, err := s.run(ctx, "", "add", "--", path)
	return err
}

// UnstageFile removes a whole file's staged changes from the index.
func (s *Service) UnstageFile(ctx context.Context, path string) error {
	_, err := s.run(ctx, "", "reset", "-q", "--", path)
	return err
}

