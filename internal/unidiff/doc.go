// Package unidiff models file changes as unified-diff hunks and round-trips them to patch text.
//
// Representation: a FileDiff holds ordered Hunks; each Hunk holds ordered Lines classified Context,
// Addition or Deletion. Every Line carries a LineID that is unique within its FileDiff and assigned
// sequentially at construction, so identical diff text always yields identical ids. Callers key line
// selections by LineID; ids from one FileDiff mean nothing to another.
//
// Invariants:
//   - hunk.OldCount == number of Context+Deletion lines; hunk.NewCount == number of Context+Addition lines
//   - a hunk has at least one line
//   - FileDiff.Additions/Deletions equal the sums over all hunks (zero for binary diffs, which carry no hunks)
//
// Entry points:
//   - Parse turns `git diff` output into FileDiffs; ParsePatch turns bare @@ fragments into Hunks.
//   - Compute builds a FileDiff directly from two strings, no git involved.
//   - FormatHunk/FormatSubset serialize hunks (or a selected subset of their lines) back to patch text.
//     Subset serialization recomputes headers so the result still applies cleanly; see FormatSubset.
//   - Apply/ApplyReverse apply parsed hunks to file content in process, verifying context.
//
// Patch text produced here contains hunk blocks only. File headers (`--- a/...`, `+++ b/...`) are the
// caller's responsibility, since only the caller knows the target path and scope.
package unidiff
