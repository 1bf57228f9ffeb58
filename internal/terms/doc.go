// Package terms canonicalizes extracted and vocabulary term strings.
//
// Canonical forms are comparison keys only. Stored terms always keep the
// casing and internal punctuation the author used; Clean produces that
// storage form by trimming surrounding noise without folding case.
//
// The primary entry points are:
//   - Canonical: trimmed, whitespace-collapsed, NFC, case-folded
//   - Fold: case-folded and whitespace-collapsed, punctuation kept
//   - Loose: Canonical with bracket, quote and sentence punctuation removed
//   - Clean: storage form of a raw candidate
//   - Similarity: sequence-matcher ratio over canonical runes
package terms
