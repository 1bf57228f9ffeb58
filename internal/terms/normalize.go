package terms

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// trailingPunct is stripped from the end of a term. Hyphens and apostrophes are
// part of multi-word phrases and are never trimmed.
const trailingPunct = ".,;:!?"

// loosePunct is removed anywhere in the term by Loose.
const loosePunct = ".,;:!?'\"()[]{}"

// Clean trims whitespace and trailing sentence punctuation and collapses
// internal whitespace. Casing is preserved.
func Clean(raw string) string {
	s := collapseSpace(norm.NFC.String(raw))
	for {
		trimmed := strings.TrimRightFunc(strings.TrimRight(s, trailingPunct), unicode.IsSpace)
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

// Canonical returns the case-folded comparison key for raw.
func Canonical(raw string) string {
	return cases.Fold().String(Clean(raw))
}

// Fold case-folds raw and collapses its whitespace. Unlike Canonical it keeps
// trailing punctuation, so "Empire." and "empire" differ.
func Fold(raw string) string {
	return cases.Fold().String(collapseSpace(norm.NFC.String(raw)))
}

// Loose returns Canonical with loosePunct removed and whitespace re-collapsed.
func Loose(raw string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(loosePunct, r) {
			return -1
		}
		return r
	}, Canonical(raw))
	return collapseSpace(stripped)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
