package testsupport

import (
	"encoding/json"
	"strings"
	"testing"

	"owlmap/internal/booklet"
	"owlmap/internal/extraction"
)

// WriteExtraction writes doc as an extraction JSON file.
func WriteExtraction(t testing.TB, path string, doc extraction.Document) string {
	t.Helper()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		t.Fatalf("marshal extraction: %v", err)
	}
	return WriteText(t, path, string(data))
}

// WriteVocab writes a plain-text vocabulary list. Keys of chapters are
// emitted in the order given by order.
func WriteVocab(t testing.TB, path string, order []string, chapters map[string][]string) string {
	t.Helper()

	var b strings.Builder
	for _, label := range order {
		b.WriteString("Chapter " + label + "\n")
		for _, term := range chapters[label] {
			b.WriteString(term + "\n")
		}
	}
	return WriteText(t, path, b.String())
}

// Slides builds extraction slides from paragraph lists, numbered from 1.
func Slides(slides ...[]string) []booklet.Slide {
	out := make([]booklet.Slide, len(slides))
	for i, paras := range slides {
		out[i] = booklet.Slide{Index: i + 1, Paragraphs: paras}
	}
	return out
}
