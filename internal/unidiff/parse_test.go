package unidiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// trimLeadingNewline lets fixtures start on the line after the backtick.
func trimLeadingNewline(s string) string {
	return strings.TrimPrefix(s, "\n")
}

func TestParse_SingleFile(t *testing.T) {
	text := trimLeadingNewline(`
diff --git a/greet.go b/greet.go
index 1234567..89abcde 100644
--- a/greet.go
+++ b/greet.go
@@ -1,3 +1,3 @@ func greet
 package main
-func hello() {}
+func greet() {}
 var x = 1
`)

	diffs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, diffs, 1)

	fd := diffs[0]
	require.Equal(t, "greet.go", fd.Path)
	require.Equal(t, "greet.go", fd.OldPath)
	require.False(t, fd.IsBinary)
	require.False(t, fd.IsNew)
	require.False(t, fd.IsDeleted)
	require.Equal(t, 1, fd.Additions)
	require.Equal(t, 1, fd.Deletions)
	require.Len(t, fd.Hunks, 1)

	h := fd.Hunks[0]
	require.Equal(t, 1, h.OldStart)
	require.Equal(t, 3, h.OldCount)
	require.Equal(t, 1, h.NewStart)
	require.Equal(t, 3, h.NewCount)
	require.Equal(t, "func greet", h.Section)

	want := []Line{
		{ID: 1, Kind: Context, Content: "package main", OldNo: 1, NewNo: 1},
		{ID: 2, Kind: Deletion, Content: "func hello() {}", OldNo: 2},
		{ID: 3, Kind: Addition, Content: "func greet() {}", NewNo: 2},
		{ID: 4, Kind: Context, Content: "var x = 1", OldNo: 3, NewNo: 3},
	}
	require.Equal(t, want, h.Lines)
}

func TestParse_MultipleFiles(t *testing.T) {
	text := trimLeadingNewline(`
diff --git a/one.txt b/one.txt
index 1111111..2222222 100644
--- a/one.txt
+++ b/one.txt
@@ -1,2 +1,2 @@
-alpha
+ALPHA
 beta
diff --git a/two.txt b/two.txt
index 3333333..4444444 100644
--- a/two.txt
+++ b/two.txt
@@ -5,2 +5,3 @@
 gamma
+delta
 epsilon
`)

	diffs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	require.Equal(t, "one.txt", diffs[0].Path)
	require.Equal(t, "two.txt", diffs[1].Path)

	// Ids restart at 1 for each file.
	require.Equal(t, LineID(1), diffs[0].Hunks[0].Lines[0].ID)
	require.Equal(t, LineID(1), diffs[1].Hunks[0].Lines[0].ID)
	require.Equal(t, 5, diffs[1].Hunks[0].OldStart)
	require.Equal(t, 1, diffs[1].Additions)
	require.Equal(t, 0, diffs[1].Deletions)
}

func TestParse_Rename(t *testing.T) {
	withHunk := trimLeadingNewline(`
diff --git a/old_name.go b/new_name.go
similarity index 95%
rename from old_name.go
rename to new_name.go
index 1111111..2222222 100644
--- a/old_name.go
+++ b/new_name.go
@@ -1,2 +1,2 @@
-old
+new
 same
`)

	diffs, err := Parse(withHunk)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	require.Equal(t, "new_name.go", diffs[0].Path)
	require.Equal(t, "old_name.go", diffs[0].OldPath)
	require.Len(t, diffs[0].Hunks, 1)

	// A pure rename has no ---/+++ lines and no hunks.
	pure := trimLeadingNewline(`
diff --git a/a.txt b/b.txt
similarity index 100%
rename from a.txt
rename to b.txt
`)

	diffs, err = Parse(pure)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	require.Equal(t, "b.txt", diffs[0].Path)
	require.Equal(t, "a.txt", diffs[0].OldPath)
	require.Empty(t, diffs[0].Hunks)
}

func TestParse_NewAndDeletedFiles(t *testing.T) {
	text := trimLeadingNewline(`
diff --git a/fresh.txt b/fresh.txt
new file mode 100644
index 0000000..5716ca5
--- /dev/null
+++ b/fresh.txt
@@ -0,0 +1,2 @@
+one
+two
diff --git a/gone.txt b/gone.txt
deleted file mode 100644
index 5716ca5..0000000
--- a/gone.txt
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
`)

	diffs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, diffs, 2)

	fresh := diffs[0]
	require.True(t, fresh.IsNew)
	require.Equal(t, "fresh.txt", fresh.Path)
	require.Equal(t, 0, fresh.Hunks[0].OldStart)
	require.Equal(t, 0, fresh.Hunks[0].OldCount)
	require.Equal(t, 1, fresh.Hunks[0].NewStart)
	require.Equal(t, 2, fresh.Hunks[0].NewCount)
	require.Equal(t, 2, fresh.Additions)

	gone := diffs[1]
	require.True(t, gone.IsDeleted)
	require.Equal(t, "gone.txt", gone.Path)
	require.Equal(t, 1, gone.Hunks[0].OldStart)
	require.Equal(t, 2, gone.Hunks[0].OldCount)
	require.Equal(t, 0, gone.Hunks[0].NewStart)
	require.Equal(t, 0, gone.Hunks[0].NewCount)
	require.Equal(t, 2, gone.Deletions)
}

func TestParse_Binary(t *testing.T) {
	text := trimLeadingNewline(`
diff --git a/img.png b/img.png
index 1111111..2222222 100644
Binary files a/img.png and b/img.png differ
`)

	diffs, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	require.True(t, diffs[0].IsBinary)
	require.Empty(t, diffs[0].Hunks)
}

func TestParse_NoNewlineMarker(t *testing.T) {
	text := trimLeadingNewline(`
diff --git a/note.txt b/note.txt
index 1111111..2222222 100644
--- a/note.txt
+++ b/note.txt
@@ -1 +1 @@
-old line
\ No newline at end of file
+new line
\ No newline at end of file
`)

	diffs, err := Parse(text)
	require.NoError(t, err)
	h := diffs[0].Hunks[0]

	// Missing counts default to 1.
	require.Equal(t, 1, h.OldCount)
	require.Equal(t, 1, h.NewCount)

	require.Len(t, h.Lines, 2)
	require.True(t, h.Lines[0].NoEOL)
	require.True(t, h.Lines[1].NoEOL)
	require.Equal(t, "old line", h.Lines[0].Content)
	require.Equal(t, "new line", h.Lines[1].Content)
}

func TestParse_QuotedPaths(t *testing.T) {
	text := trimLeadingNewline(`
diff --git "a/sp ace.txt" "b/sp ace.txt"
index 1111111..2222222 100644
--- "a/sp ace.txt"
+++ "b/sp ace.txt"
@@ -1 +1 @@
-x
+y
`)

	diffs, err := Parse(text)
	require.NoError(t, err)
	require.Equal(t, "sp ace.txt", diffs[0].Path)
	require.Equal(t, "sp ace.txt", diffs[0].OldPath)
}

func TestParse_CRLF(t *testing.T) {
	unix := trimLeadingNewline(`
diff --git a/one.txt b/one.txt
index 1111111..2222222 100644
--- a/one.txt
+++ b/one.txt
@@ -1,2 +1,2 @@
-alpha
+ALPHA
 beta
`)

	fromUnix, err := Parse(unix)
	require.NoError(t, err)
	fromCRLF, err := Parse(strings.ReplaceAll(unix, "\n", "\r\n"))
	require.NoError(t, err)
	require.Equal(t, fromUnix, fromCRLF)
	require.Equal(t, "alpha", fromCRLF[0].Hunks[0].Lines[0].Content)
}

func TestParse_Empty(t *testing.T) {
	diffs, err := Parse("")
	require.NoError(t, err)
	require.Empty(t, diffs)
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		wantErr string
	}{
		{
			name:    "garbage preamble",
			text:    "not a diff\n",
			wantErr: `expected "diff --git"`,
		},
		{
			name: "bad hunk header",
			text: trimLeadingNewline(`
diff --git a/x b/x
--- a/x
+++ b/x
@@ bogus @@
 a
`),
			wantErr: "bad hunk header",
		},
		{
			name: "truncated hunk",
			text: trimLeadingNewline(`
diff --git a/x b/x
--- a/x
+++ b/x
@@ -1,3 +1,3 @@
 a
`),
			wantErr: "lines early",
		},
		{
			name: "hunk overruns header",
			text: trimLeadingNewline(`
diff --git a/x b/x
--- a/x
+++ b/x
@@ -1,0 +1,1 @@
-a
+b
`),
			wantErr: "more lines than the header promises",
		},
		{
			name: "marker before any line",
			text: trimLeadingNewline(`
diff --git a/x b/x
--- a/x
+++ b/x
@@ -1,1 +1,1 @@
\ No newline at end of file
`),
			wantErr: "before any line",
		},
		{
			name: "empty hunk",
			text: trimLeadingNewline(`
diff --git a/x b/x
--- a/x
+++ b/x
@@ -1,0 +1,0 @@
`),
			wantErr: "empty hunk",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text)
			require.Error(t, err)
			require.True(t, IsInvalidPatch(err))
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParsePatch(t *testing.T) {
	text := trimLeadingNewline(`
--- a/x
+++ b/x
@@ -1,2 +1,2 @@
-a
+A
 b
@@ -10,1 +10,2 @@ section
 p
+q
`)

	hunks, err := ParsePatch(text)
	require.NoError(t, err)
	require.Len(t, hunks, 2)
	require.Equal(t, "section", hunks[1].Section)

	// Ids run sequentially across hunks.
	var ids []LineID
	for _, h := range hunks {
		for _, ln := range h.Lines {
			ids = append(ids, ln.ID)
		}
	}
	require.Equal(t, []LineID{1, 2, 3, 4, 5}, ids)
}

func TestParsePatch_NoHunks(t *testing.T) {
	for _, text := range []string{"", "--- a/x\n+++ b/x\n"} {
		_, err := ParsePatch(text)
		require.Error(t, err)
		require.True(t, IsInvalidPatch(err))
		require.Contains(t, err.Error(), "no hunks in patch")
	}
}
