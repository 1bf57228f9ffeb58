package terms

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the sequence-matcher ratio 2M/T over the canonical
// forms of a and b, where M is the number of matched runes and T the total
// rune count of both. Two empty strings are identical; an empty and a
// non-empty string score 0.
func Similarity(a, b string) float64 {
	ca, cb := Canonical(a), Canonical(b)
	if ca == cb {
		return 1
	}
	return difflib.NewMatcher(runes(ca), runes(cb)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
