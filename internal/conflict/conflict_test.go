package conflict

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func trimLeadingNewline(s string) string {
	return strings.TrimPrefix(s, "\n")
}

func TestParse_Simple(t *testing.T) {
	content := trimLeadingNewline(`
ctx1
<<<<<<< HEAD
a
=======
b
>>>>>>> feat
ctx2
`)

	sections, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	want := Section{
		StartLine:   2,
		MidLine:     4,
		EndLine:     6,
		OursLabel:   "HEAD",
		TheirsLabel: "feat",
		Ours:        []string{"a"},
		Theirs:      []string{"b"},
	}
	require.Equal(t, want, sections[0])
}

func TestParse_Diff3(t *testing.T) {
	content := trimLeadingNewline(`
<<<<<<< ours
mine
||||||| base
orig
=======
other
>>>>>>> theirs-branch
`)

	sections, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 1)

	s := sections[0]
	require.True(t, s.HasBase)
	require.Equal(t, 1, s.StartLine)
	require.Equal(t, 3, s.BaseLine)
	require.Equal(t, 5, s.MidLine)
	require.Equal(t, 7, s.EndLine)
	require.Equal(t, "ours", s.OursLabel)
	require.Equal(t, "base", s.BaseLabel)
	require.Equal(t, "theirs-branch", s.TheirsLabel)
	require.Equal(t, []string{"mine"}, s.Ours)
	require.Equal(t, []string{"orig"}, s.Base)
	require.Equal(t, []string{"other"}, s.Theirs)
}

func TestParse_Multiple(t *testing.T) {
	content := trimLeadingNewline(`
a
<<<<<<< h
1o
=======
1t
>>>>>>> f
b
<<<<<<< h
2o
=======
2t
>>>>>>> f
c
`)

	sections, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	require.Equal(t, 2, sections[0].StartLine)
	require.Equal(t, 6, sections[0].EndLine)
	require.Equal(t, 8, sections[1].StartLine)
	require.Equal(t, 12, sections[1].EndLine)
	require.Equal(t, []string{"2o"}, sections[1].Ours)
}

func TestParse_NoMarkers(t *testing.T) {
	sections, err := Parse("just\nplain\ntext\n")
	require.NoError(t, err)
	require.Empty(t, sections)

	sections, err = Parse("")
	require.NoError(t, err)
	require.Empty(t, sections)
}

// Stray mid/end markers outside a conflict are left alone rather than rejected.
func TestParse_StrayMarkersIgnored(t *testing.T) {
	content := "=======\nfoo\n>>>>>>> x\n||||||| y\n"

	sections, err := Parse(content)
	require.NoError(t, err)
	require.Empty(t, sections)
}

func TestParse_EmptySides(t *testing.T) {
	content := "<<<<<<< a\n=======\n>>>>>>> b\n"

	sections, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Empty(t, sections[0].Ours)
	require.Empty(t, sections[0].Theirs)
}

func TestParse_CRLF(t *testing.T) {
	content := "ctx\r\n<<<<<<< HEAD\r\na\r\n=======\r\nb\r\n>>>>>>> feat\r\n"

	sections, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	require.Equal(t, "HEAD", sections[0].OursLabel)
	require.Equal(t, []string{"a"}, sections[0].Ours)
	require.Equal(t, []string{"b"}, sections[0].Theirs)
}

func TestParse_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "nested start in ours",
			content: "<<<<<<< x\n<<<<<<< y\n",
			wantErr: "nested",
		},
		{
			name:    "nested start in base",
			content: "<<<<<<< x\n||||||| b\n<<<<<<< y\n",
			wantErr: "nested",
		},
		{
			name:    "nested start in theirs",
			content: "<<<<<<< x\n=======\n<<<<<<< y\n",
			wantErr: "nested",
		},
		{
			name:    "second base marker",
			content: "<<<<<<< x\n||||||| b1\n||||||| b2\n",
			wantErr: `second "|||||||"`,
		},
		{
			name:    "input ends mid conflict",
			content: "<<<<<<< x\nours\n=======\n",
			wantErr: "input ended inside conflict",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.content)
			require.Error(t, err)
			require.True(t, IsMalformed(err))
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestResolve(t *testing.T) {
	s := Section{Ours: []string{"o1", "o2"}, Theirs: []string{"t1"}}

	got, err := s.Resolve(ChooseOurs, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o2"}, got)

	got, err = s.Resolve(ChooseTheirs, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, got)

	got, err = s.Resolve(ChooseBoth, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o2", "t1"}, got)

	got, err = s.Resolve(ChooseBothReverse, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "o1", "o2"}, got)

	got, err = s.Resolve(ChooseCustom, []string{"merged"})
	require.NoError(t, err)
	require.Equal(t, []string{"merged"}, got)

	got, err = s.Resolve(ChooseCustom, nil)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = s.Resolve(Choice(99), nil)
	require.Error(t, err)
}

func TestApplyResolution(t *testing.T) {
	content := trimLeadingNewline(`
ctx1
<<<<<<< HEAD
a
=======
b
>>>>>>> feat
ctx2
`)
	sections, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	s := sections[0]

	cases := []struct {
		name   string
		choice Choice
		custom []string
		want   string
	}{
		{name: "ours", choice: ChooseOurs, want: "ctx1\na\nctx2\n"},
		{name: "theirs", choice: ChooseTheirs, want: "ctx1\nb\nctx2\n"},
		{name: "both", choice: ChooseBoth, want: "ctx1\na\nb\nctx2\n"},
		{name: "both reverse", choice: ChooseBothReverse, want: "ctx1\nb\na\nctx2\n"},
		{name: "custom", choice: ChooseCustom, custom: []string{"merged"}, want: "ctx1\nmerged\nctx2\n"},
		{name: "custom empty collapses the span", choice: ChooseCustom, want: "ctx1\nctx2\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ApplyResolution(content, s, tc.choice, tc.custom)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestApplyResolution_NoFinalNewline(t *testing.T) {
	content := "ctx\n<<<<<<< a\nx\n=======\ny\n>>>>>>> b"
	sections, err := Parse(content)
	require.NoError(t, err)

	got, err := ApplyResolution(content, sections[0], ChooseTheirs, nil)
	require.NoError(t, err)
	require.Equal(t, "ctx\ny", got)
}

func TestApplyResolution_CRLF(t *testing.T) {
	content := "ctx\r\n<<<<<<< a\r\nx\r\n=======\r\ny\r\n>>>>>>> b\r\n"
	sections, err := Parse(content)
	require.NoError(t, err)

	got, err := ApplyResolution(content, sections[0], ChooseTheirs, nil)
	require.NoError(t, err)
	require.Equal(t, "ctx\r\ny\r\n", got)
}

// A section parsed from stale content must not be applied to content whose markers have moved.
func TestApplyResolution_StaleSpan(t *testing.T) {
	content := "ctx\n<<<<<<< a\nx\n=======\ny\n>>>>>>> b\n"
	sections, err := Parse(content)
	require.NoError(t, err)
	s := sections[0]

	edited := strings.Replace(content, "<<<<<<< a", "resolved already", 1)
	_, err = ApplyResolution(edited, s, ChooseOurs, nil)
	require.Error(t, err)
	require.True(t, IsNoConflict(err))

	_, err = ApplyResolution("short\n", s, ChooseOurs, nil)
	require.Error(t, err)
	require.True(t, IsNoConflict(err))
}

func TestResolveAll(t *testing.T) {
	content := trimLeadingNewline(`
a
<<<<<<< h
1o
=======
1t
>>>>>>> f
b
<<<<<<< h
2o
=======
2t
>>>>>>> f
c
`)

	got, err := ResolveAll(content, ChooseTheirs)
	require.NoError(t, err)
	require.Equal(t, "a\n1t\nb\n2t\nc\n", got)

	// Resolving conflict-free content is the identity.
	again, err := ResolveAll(got, ChooseTheirs)
	require.NoError(t, err)
	require.Equal(t, got, again)

	_, err = ResolveAll("<<<<<<< x\n", ChooseOurs)
	require.Error(t, err)
	require.True(t, IsMalformed(err))
}

func TestChoice_String(t *testing.T) {
	require.Equal(t, "ours", ChooseOurs.String())
	require.Equal(t, "theirs", ChooseTheirs.String())
	require.Equal(t, "both", ChooseBoth.String())
	require.Equal(t, "both-reverse", ChooseBothReverse.String())
	require.Equal(t, "custom", ChooseCustom.String())
}
