// Package worddiff computes intra-line (word-level) differences between an "old" and a "new" line of text.
//
// Representation: a line is split into Tokens (maximal runs of whitespace or of non-whitespace), a longest
// common subsequence is computed over the two token slices, and both lines are re-emitted as ordered
// Segments annotated Unchanged, Removed (old side only) or Added (new side only).
//
// Invariants:
//   - concat(oldSegments.Text) == oldLine
//   - concat(newSegments.Text) == newLine
//   - SegmentRemoved appears only in old-side output; SegmentAdded only in new-side output.
//
// One segment is emitted per token; consumers that want coalesced runs of a single kind can merge adjacent
// segments at render time.
//
// Pairing: PairLines decides which deletion line should be word-diffed against which addition line inside a
// hunk. Pairing is positional (the k-th deletion in a deletion run pairs with the k-th addition in the
// addition run that immediately follows it); it makes no attempt at content-similarity matching.
//
// All functions are pure and safe for concurrent use.
package worddiff
