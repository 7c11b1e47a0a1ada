package gitcmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want []FileStatus
	}{
		{name: "empty", out: "", want: nil},
		{
			name: "unstaged modification",
			out:  " M a.txt\x00",
			want: []FileStatus{{Path: "a.txt", Staged: ' ', Unstaged: 'M'}},
		},
		{
			name: "staged modification",
			out:  "M  b.txt\x00",
			want: []FileStatus{{Path: "b.txt", Staged: 'M', Unstaged: ' '}},
		},
		{
			name: "untracked",
			out:  "?? new.txt\x00",
			want: []FileStatus{{Path: "new.txt", Staged: '?', Unstaged: '?'}},
		},
		{
			name: "rename consumes the origin field",
			out:  "R  new.txt\x00old.txt\x00",
			want: []FileStatus{{Path: "new.txt", OldPath: "old.txt", Staged: 'R', Unstaged: ' '}},
		},
		{
			name: "copy consumes the origin field",
			out:  "C  copy.txt\x00orig.txt\x00",
			want: []FileStatus{{Path: "copy.txt", OldPath: "orig.txt", Staged: 'C', Unstaged: ' '}},
		},
		{
			name: "mixed entries",
			out:  " M a.txt\x00R  new.txt\x00old.txt\x00?? z.txt\x00",
			want: []FileStatus{
				{Path: "a.txt", Staged: ' ', Unstaged: 'M'},
				{Path: "new.txt", OldPath: "old.txt", Staged: 'R', Unstaged: ' '},
				{Path: "z.txt", Staged: '?', Unstaged: '?'},
			},
		},
		{
			name: "path with spaces",
			out:  "?? has space.txt\x00",
			want: []FileStatus{{Path: "has space.txt", Staged: '?', Unstaged: '?'}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parseStatus(tc.out))
		})
	}
}

func TestFileStatus_Flags(t *testing.T) {
	cases := []struct {
		staged    byte
		unstaged  byte
		untracked bool
		unmerged  bool
	}{
		{'?', '?', true, false},
		{'U', 'U', false, true},
		{'A', 'A', false, true},
		{'D', 'D', false, true},
		{'A', 'U', false, true},
		{'U', ' ', false, true},
		{'M', ' ', false, false},
		{' ', 'M', false, false},
		{'A', ' ', false, false},
	}

	for _, tc := range cases {
		fs := FileStatus{Staged: tc.staged, Unstaged: tc.unstaged}
		require.Equal(t, tc.untracked, fs.Untracked(), "%c%c", tc.staged, tc.unstaged)
		require.Equal(t, tc.unmerged, fs.Unmerged(), "%c%c", tc.staged, tc.unstaged)
	}
}

func TestApplyError(t *testing.T) {
	cause := errors.New("corrupt patch")

	fwd := &ApplyError{Path: "a.txt", Scope: Index, Err: cause}
	require.Equal(t, "apply patch to a.txt (index): corrupt patch", fwd.Error())
	require.ErrorIs(t, fwd, cause)

	rev := &ApplyError{Path: "b.txt", Scope: Worktree, Reverse: true, Err: cause}
	require.Equal(t, "reverse-apply patch to b.txt (worktree): corrupt patch", rev.Error())
}

func TestApplyPatch_EmptyBody(t *testing.T) {
	svc := &Service{root: t.TempDir()}

	err := svc.ApplyPatch(context.Background(), "a.txt", "  \n", Index, false)
	require.Error(t, err)

	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	require.Equal(t, "a.txt", applyErr.Path)
	require.Contains(t, err.Error(), "empty patch")
}

func TestScope_String(t *testing.T) {
	require.Equal(t, "worktree", Worktree.String())
	require.Equal(t, "index", Index.String())
}

func TestResolvePath(t *testing.T) {
	td := t.TempDir()
	svc := &Service{root: td}

	got, err := svc.resolvePath("a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(td, "a.txt"), got)

	got, err = svc.resolvePath("sub/../a.txt")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(td, "a.txt"), got)

	got, err = svc.resolvePath(filepath.Join(td, "abs.txt"))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(td, "abs.txt"), got)

	_, err = svc.resolvePath("")
	require.Error(t, err)

	_, err = svc.resolvePath("../outside.txt")
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes repository")

	_, err = svc.resolvePath("/etc/passwd")
	require.Error(t, err)
}

func TestReadWriteFile(t *testing.T) {
	td := t.TempDir()
	svc := &Service{root: td}

	require.NoError(t, svc.WriteFile("note.txt", "hello\n"))
	got, err := svc.ReadFile("note.txt")
	require.NoError(t, err)
	require.Equal(t, "hello\n", got)

	// Overwriting keeps the file's permission bits.
	path := filepath.Join(td, "locked.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))
	require.NoError(t, svc.WriteFile("locked.txt", "v2"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = svc.ReadFile("../escape.txt")
	require.Error(t, err)
	require.Error(t, svc.WriteFile("../escape.txt", "x"))

	_, err = svc.ReadFile("missing.txt")
	require.Error(t, err)
}
