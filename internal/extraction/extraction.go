// Package extraction reads the candidate records produced by the booklet
// document walk.
//
// One JSON document describes one booklet: where it came from, the unit it
// belongs to, its full slide text, and the candidate terms the walk marked.
package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"owlmap/internal/booklet"
)

// ErrInvalid indicates an extraction document missing required fields.
var ErrInvalid = errors.New("invalid extraction document")

// Candidate is one term the document walk marked.
type Candidate struct {
	Term     string `json:"term"`
	Location int    `json:"location"`
	Chapter  string `json:"chapter,omitempty"`
	Context  string `json:"context,omitempty"`
	Flagged  bool   `json:"flagged,omitempty"`
	// FlagReason lists comma-separated heuristic names.
	FlagReason string `json:"flag_reason,omitempty"`
	// Introduction defaults to true: the walk only marks formal introductions.
	Introduction *bool `json:"is_introduction,omitempty"`
}

// IsIntroduction reports whether the candidate was a formal introduction.
func (c Candidate) IsIntroduction() bool {
	return c.Introduction == nil || *c.Introduction
}

// Document is the extraction output for one booklet.
type Document struct {
	SourcePath string          `json:"source_path"`
	Subject    string          `json:"subject"`
	Year       int             `json:"year"`
	TermPeriod string          `json:"term_period"`
	Unit       string          `json:"unit"`
	Slides     []booklet.Slide `json:"slides,omitempty"`
	Candidates []Candidate     `json:"candidates"`
	// VocabPath optionally pins the vocabulary list instead of discovery.
	VocabPath string `json:"vocab_path,omitempty"`
}

// Decode parses and validates one extraction document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ReadFile decodes the extraction document at path.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open extraction: %w", err)
	}
	defer f.Close()
	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Validate checks required fields. Candidates with blank terms are invalid
// because they cannot name a concept.
func (d *Document) Validate() error {
	var missing []string
	if strings.TrimSpace(d.SourcePath) == "" {
		missing = append(missing, "source_path")
	}
	if strings.TrimSpace(d.Subject) == "" {
		missing = append(missing, "subject")
	}
	if d.Year <= 0 {
		missing = append(missing, "year")
	}
	if strings.TrimSpace(d.TermPeriod) == "" {
		missing = append(missing, "term_period")
	}
	if strings.TrimSpace(d.Unit) == "" {
		missing = append(missing, "unit")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	for i, c := range d.Candidates {
		if strings.TrimSpace(c.Term) == "" {
			return fmt.Errorf("%w: candidate %d has no term", ErrInvalid, i+1)
		}
		if c.Location < 1 {
			return fmt.Errorf("%w: candidate %d (%q) has location %d", ErrInvalid, i+1, c.Term, c.Location)
		}
	}
	return nil
}

// Text returns the embedded slide text as a booklet document, nil when the
// walk did not include it.
func (d *Document) Text() *booklet.Document {
	if len(d.Slides) == 0 {
		return nil
	}
	return booklet.FromSlides(d.SourcePath, d.Slides)
}

var pageSuffix = regexp.MustCompile(`(?i)[\t ]+Page\s+\d+\s*$`)

// CleanChapter strips table-of-contents residue such as "\t\tPage 18" from a
// chapter heading. Blank input stays blank.
func CleanChapter(chapter string) string {
	trimmed := strings.TrimSpace(chapter)
	if trimmed == "" {
		return ""
	}
	if cleaned := strings.TrimRight(pageSuffix.ReplaceAllString(chapter, ""), " \t"); strings.TrimSpace(cleaned) != "" {
		return strings.TrimSpace(cleaned)
	}
	return trimmed
}

var chapterNumber = regexp.MustCompile(`(?i)^(?:Chapter\s+)?(\d+)`)

// ChapterNumber extracts the leading number of a chapter heading: "1. The
// Roman Empire" and "Chapter 1" both yield "1".
func ChapterNumber(chapter string) (string, bool) {
	m := chapterNumber.FindStringSubmatch(strings.TrimSpace(chapter))
	if m == nil {
		return "", false
	}
	return m[1], true
}
