package worddiff

import "slices"

// anchor is one matched token position: a indexes the old token slice, b the new.
type anchor struct {
	a, b int
}

// LCS returns a longest common subsequence of the two token slices. Ties in the dynamic-programming
// backtrack are broken by advancing the a side first, so the result is deterministic for a fixed input
// pair. Cost is O(len(a)*len(b)) in time and memory.
func LCS(a, b []string) []string {
	pairs := lcsPairs(a, b)
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = a[p.a]
	}
	return out
}

// lcsPairs returns the matched index pairs of one longest common subsequence, in increasing order on
// both sides. Pair positions (not just token values) matter to callers: duplicate tokens must anchor at
// the positions the backtrack chose.
func lcsPairs(a, b []string) []anchor {
	m, n := len(a), len(b)
	if m == 0 || n == 0 {
		return nil
	}
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	pairs := make([]anchor, 0, dp[m][n])
	i, j := m, n
	for i > 0 && j > 0 {
		switch {
		case a[i-1] == b[j-1]:
			pairs = append(pairs, anchor{a: i - 1, b: j - 1})
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}
	slices.Reverse(pairs)
	return pairs
}
