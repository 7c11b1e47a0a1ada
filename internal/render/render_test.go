package render

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline/internal/conflict"
	"github.com/driftline/driftline/internal/unidiff"
	"github.com/driftline/driftline/internal/worddiff"
)

func plainRenderer(width int) *Renderer {
	return New(NoColor(), Options{Granularity: worddiff.GranularityWords, Width: width})
}

func TestNumWidth(t *testing.T) {
	fd := unidiff.FileDiff{Hunks: []unidiff.Hunk{{
		Lines: []unidiff.Line{
			{Kind: unidiff.Context, OldNo: 98, NewNo: 98},
			{Kind: unidiff.Addition, NewNo: 1042},
		},
	}}}
	require.Equal(t, 4, NumWidth(fd))
	require.Equal(t, 1, NumWidth(unidiff.FileDiff{}))
}

func TestLine_GutterAndPrefix(t *testing.T) {
	r := plainRenderer(0)

	cases := []struct {
		name string
		ln   unidiff.Line
		opts LineOptions
		want string
	}{
		{
			"context",
			unidiff.Line{Kind: unidiff.Context, Content: "x := 1", OldNo: 3, NewNo: 4},
			LineOptions{NumWidth: 2},
			" 3  4  x := 1",
		},
		{
			"addition has no old number",
			unidiff.Line{Kind: unidiff.Addition, Content: "y := 2", NewNo: 5},
			LineOptions{NumWidth: 2},
			"    5 +y := 2",
		},
		{
			"deletion has no new number",
			unidiff.Line{Kind: unidiff.Deletion, Content: "z := 3", OldNo: 9},
			LineOptions{NumWidth: 2},
			" 9    -z := 3",
		},
		{
			"marker columns",
			unidiff.Line{Kind: unidiff.Addition, Content: "w", NewNo: 1},
			LineOptions{NumWidth: 1, Markers: true, Cursor: true, Selected: true},
			">*   1 +w",
		},
		{
			"no gutter",
			unidiff.Line{Kind: unidiff.Context, Content: "plain", OldNo: 1, NewNo: 1},
			LineOptions{},
			" plain",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, r.Line("main.go", tc.ln, nil, tc.opts))
		})
	}
}

func TestLine_SegmentsReassembleContent(t *testing.T) {
	r := plainRenderer(0)

	oldSegs, _, err := worddiff.Compose("foo bar baz", "foo qux baz")
	require.NoError(t, err)

	ln := unidiff.Line{Kind: unidiff.Deletion, Content: "foo bar baz", OldNo: 1}
	row := r.Line("a.txt", ln, oldSegs, LineOptions{})
	require.Equal(t, "-foo bar baz", row)
}

func TestLine_TabExpansion(t *testing.T) {
	r := plainRenderer(0)

	ln := unidiff.Line{Kind: unidiff.Context, Content: "a\tb", OldNo: 1, NewNo: 1}
	require.Equal(t, " a   b", r.Line("a.txt", ln, nil, LineOptions{}))

	// Wide runes advance the column by their display width.
	out, col := r.expandTabsFrom("日\tx", 0)
	require.Equal(t, "日  x", out)
	require.Equal(t, 5, col)
}

func TestLine_Truncation(t *testing.T) {
	r := plainRenderer(8)

	ln := unidiff.Line{Kind: unidiff.Context, Content: strings.Repeat("n", 40), OldNo: 1, NewNo: 1}
	row := r.Line("a.txt", ln, nil, LineOptions{})
	require.True(t, strings.HasSuffix(row, "…"))
	require.LessOrEqual(t, runewidth.StringWidth(row), 8)
}

func TestHunkHeader(t *testing.T) {
	r := plainRenderer(0)

	h := unidiff.Hunk{OldStart: 3, OldCount: 4, NewStart: 3, NewCount: 5, Section: "func main()"}
	require.Equal(t, "@@ -3,4 +3,5 @@ func main()", r.HunkHeader(h))

	h.Section = ""
	require.Equal(t, "@@ -3,4 +3,5 @@", r.HunkHeader(h))
}

func TestFileDiff(t *testing.T) {
	r := plainRenderer(0)

	fd := unidiff.Compute("a\nb\nc\n", "a\nB\nc\n", unidiff.ComputeOptions{Path: "f.txt", Context: 1})
	out := r.FileDiff(fd)
	rows := strings.Split(out, "\n")

	require.Equal(t, "f.txt (+1 -1)", rows[0])
	require.Equal(t, "@@ -1,3 +1,3 @@", rows[1])
	require.Equal(t, "1 1  a", rows[2])
	require.Equal(t, "2   -b", rows[3])
	require.Equal(t, "  2 +B", rows[4])
	require.Equal(t, "3 3  c", rows[5])
}

func TestFileDiff_TitleForms(t *testing.T) {
	cases := []struct {
		name string
		fd   unidiff.FileDiff
		want string
	}{
		{"new", unidiff.FileDiff{Path: "n.txt", IsNew: true, Additions: 2}, "add n.txt (+2)"},
		{"deleted", unidiff.FileDiff{Path: "d.txt", IsDeleted: true, Deletions: 3}, "delete d.txt (-3)"},
		{"rename", unidiff.FileDiff{Path: "b.txt", OldPath: "a.txt", Additions: 1, Deletions: 1}, "a.txt -> b.txt (+1 -1)"},
		{"binary", unidiff.FileDiff{Path: "img.png", IsBinary: true}, "img.png (+0 -0)"},
	}

	r := plainRenderer(0)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := strings.Split(r.FileDiff(tc.fd), "\n")
			require.Equal(t, tc.want, rows[0])
		})
	}
}

func TestFileDiff_NoEOLMarkerRow(t *testing.T) {
	r := plainRenderer(0)

	fd := unidiff.Compute("a\n", "a", unidiff.ComputeOptions{Path: "f.txt"})
	out := r.FileDiff(fd)
	require.Contains(t, out, `\ No newline at end of file`)
}

func TestConflict(t *testing.T) {
	content := "<<<<<<< HEAD\nours line\n||||||| merged common ancestors\nbase line\n=======\ntheirs line\n>>>>>>> feature\n"
	sections, err := conflict.Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	r := plainRenderer(0)
	rows := r.Conflict(sections[0])
	require.Equal(t, []string{
		"<<<<<<< HEAD",
		"ours line",
		"||||||| merged common ancestors",
		"base line",
		"=======",
		"theirs line",
		">>>>>>> feature",
	}, rows)
}
