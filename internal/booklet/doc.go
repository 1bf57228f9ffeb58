// Package booklet reads the full text of slide-deck booklets and searches it
// for terms that the extractor did not mark.
//
// Text is kept per slide and per paragraph so search results report slide
// numbers and the first matching paragraph. Search is case-insensitive and
// requires that a match is not embedded inside a longer word.
package booklet
