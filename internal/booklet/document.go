package booklet

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Slide holds the paragraphs of one slide. Index is 1-based.
type Slide struct {
	Index      int      `json:"index"`
	Paragraphs []string `json:"paragraphs"`
}

// Document is the text of one booklet.
type Document struct {
	Source string
	Slides []Slide
}

// Hit reports where a term appears in a document.
type Hit struct {
	Found        bool
	Locations    []int
	FirstContext string
}

// FromSlides builds a document from slides, sorted by index.
func FromSlides(source string, slides []Slide) *Document {
	sorted := append([]Slide(nil), slides...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	return &Document{Source: source, Slides: sorted}
}

// Empty reports whether the document has no text.
func (d *Document) Empty() bool {
	if d == nil {
		return true
	}
	for _, s := range d.Slides {
		for _, p := range s.Paragraphs {
			if strings.TrimSpace(p) != "" {
				return false
			}
		}
	}
	return true
}

// Search finds every slide containing term. The first matching paragraph,
// trimmed, becomes FirstContext.
func (d *Document) Search(term string) Hit {
	var hit Hit
	if d == nil {
		return hit
	}
	pattern := termPattern(term)
	if pattern == nil {
		return hit
	}
	for _, slide := range d.Slides {
		matched := false
		for _, para := range slide.Paragraphs {
			if !containsWord(pattern, para) {
				continue
			}
			matched = true
			if hit.FirstContext == "" {
				hit.FirstContext = strings.TrimSpace(para)
			}
		}
		if matched {
			hit.Locations = append(hit.Locations, slide.Index)
		}
	}
	hit.Found = len(hit.Locations) > 0
	return hit
}

// termPattern compiles a case-insensitive pattern for term in which any run
// of whitespace matches any other.
func termPattern(term string) *regexp.Regexp {
	words := strings.Fields(term)
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)` + strings.Join(quoted, `\s+`))
}

// containsWord reports a match whose neighbours are not letters. Go regexp has
// no lookaround, so rejected matches restart one rune later.
func containsWord(pattern *regexp.Regexp, text string) bool {
	for start := 0; start <= len(text); {
		loc := pattern.FindStringIndex(text[start:])
		if loc == nil {
			return false
		}
		from, to := start+loc[0], start+loc[1]
		if !letterBefore(text, from) && !letterAfter(text, to) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[from:])
		if size == 0 {
			return false
		}
		start = from + size
	}
	return false
}

func letterBefore(text string, i int) bool {
	if i <= 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return unicode.IsLetter(r)
}

func letterAfter(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return unicode.IsLetter(r)
}
