// Package gitcmd runs the git operations the rest of the program builds on: reading diffs and file
// content, applying patches, and listing changed files. It is the only package that spawns
// processes or touches the working tree.
package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Scope selects which side of the index an operation targets.
type Scope int

const (
	Worktree Scope = iota // unstaged changes (worktree vs index)
	Index                 // staged changes (index vs HEAD)
)

func (s Scope) String() string {
	if s == Index {
		return "index"
	}
	return "worktree"
}

// Options configure a Service.
type Options struct {
	GitBin  string // git executable; default "git"
	Context int    // context lines for Diff; default unidiff.DefaultContext
	Logger  *slog.Logger
}

// Service runs git against one repository. Methods are safe for concurrent use; git itself
// serializes index mutations with its own lock.
type Service struct {
	root    string
	gitBin  string
	context int
	logger  *slog.Logger
}

// Open locates the repository containing dir and returns a Service rooted at its top level.
func Open(ctx context.Context, dir string, opts Options) (*Service, error) {
	if opts.GitBin == "" {
		opts.GitBin = "git"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", dir, err)
	}
	probe := &Service{root: abs, gitBin: opts.GitBin, context: opts.Context, logger: opts.Logger}
	top, err := probe.run(ctx, "", "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s is not inside a git repository: %w", abs, err)
	}
	probe.root = strings.TrimSpace(top)
	return probe, nil
}

// Root returns the repository's top-level directory.
func (s *Service) Root() string { return s.root }

// run executes git with args in the repository root, returning stdout. stdin is passed to the
// process when non-empty. A non-zero exit becomes an error carrying the command line and stderr.
func (s *Service) run(ctx context.Context, stdin string, args ...string) (string, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, s.gitBin, args...)
	cmd.Dir = s.root
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	s.logger.Debug("git", "args", strings.Join(args, " "), "dur", time.Since(start), "err", err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("git %s: %w", args[0], ctxErr)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return stdout.String(), nil
}

// resolvePath joins a repo-relative path to the root, rejecting anything that escapes it.
func (s *Service) resolvePath(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("path is empty")
	}
	joined := raw
	if !filepath.IsAbs(joined) {
		joined = filepath.Join(s.root, raw)
	}
	joined = filepath.Clean(joined)
	rel, err := filepath.Rel(s.root, joined)
	if err != nil {
		return "", fmt.Errorf("path %q is outside repository %s", raw, s.root)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes repository %s", raw, s.root)
	}
	return joined, nil
}

// ReadFile returns the worktree content of a repo-relative path.
func (s *Service) ReadFile(path string) (string, error) {
	abs, err := s.resolvePath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFile replaces the worktree content of a repo-relative path.
func (s *Service) WriteFile(path, content string) error {
	abs, err := s.resolvePath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	mode := os.FileMode(0o644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(abs, []byte(content), mode)
}
