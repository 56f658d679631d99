package resolver

import "fmt"

// Levenshtein computes the edit distance between a and b.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	n, m := len(ra), len(rb)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}
	for i := 1; i <= n; i++ {
		cur[0] = i
		for j := 1; j <= m; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = min3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[m]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// Suggest returns the closest candidate to name (by Levenshtein distance)
// along with whether it's close enough to be worth surfacing as a "did
// you mean" hint.
func Suggest(name string, candidates []string) (best string, ok bool) {
	bestDist := -1
	for _, c := range candidates {
		d := Levenshtein(name, c)
		if bestDist == -1 || d < bestDist {
			bestDist, best = d, c
		}
	}
	if bestDist < 0 {
		return "", false
	}
	// Loose threshold: allow up to half the length of the longer string
	// to differ before giving up on suggesting it.
	threshold := len(name)
	if len(best) > threshold {
		threshold = len(best)
	}
	return best, bestDist*2 <= threshold
}

// FormatUnknown builds a human-readable diagnostic for an unknown
// operator or definition reference, with a Levenshtein-based suggestion
// when one is close enough. It adds no hint about $defs/nodes mix-ups.
func FormatUnknown(kind, key string, known []string) string {
	msg := fmt.Sprintf("unknown %s %q", kind, key)
	if best, ok := Suggest(key, known); ok {
		msg += fmt.Sprintf(" (did you mean %q?)", best)
	}
	return msg
}
