// Package audit derives the reviewable issue set from stored occurrences and
// reads and writes it as the reviewer CSV.
//
// Issues are never stored. Each build regenerates them from the current
// occurrences, the unit vocabulary lists, and the booklet full text, in a
// stable order so successive audits diff cleanly.
package audit
