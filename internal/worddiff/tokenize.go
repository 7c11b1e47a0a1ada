package worddiff

import (
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// Tokenize splits a line into maximal runs of whitespace and of non-whitespace, in order.
// Concatenating the tokens reconstructs the line exactly. An empty line yields no tokens.
func Tokenize(line string) []string {
	if line == "" {
		return nil
	}
	var tokens []string
	start := 0
	inSpace := false
	for i, r := range line {
		isSpace := unicode.IsSpace(r)
		if i == 0 {
			inSpace = isSpace
			continue
		}
		if isSpace != inSpace {
			tokens = append(tokens, line[start:i])
			start = i
			inSpace = isSpace
		}
	}
	return append(tokens, line[start:])
}

// TokenizeWords is a finer-grained Tokenize: whitespace runs stay intact, but non-whitespace runs are
// further subdivided at UAX #29 word boundaries. "call(x)" tokenizes as call ( x ) instead of one
// token, so small edits inside dense expressions highlight tighter. Note that UAX #29 keeps
// letter.letter and digit,digit sequences together, so "foo.bar" and "1,000" stay single tokens.
func TokenizeWords(line string) []string {
	if line == "" {
		return nil
	}
	var tokens []string
	for _, run := range Tokenize(line) {
		if isSpaceRun(run) {
			tokens = append(tokens, run)
			continue
		}
		iter := words.FromString(run)
		for iter.Next() {
			tokens = append(tokens, iter.Value())
		}
	}
	return tokens
}

func isSpaceRun(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
