package vocab

import "owlmap/internal/terms"

// UnscopedChapter labels terms that appear before any chapter marker.
const UnscopedChapter = "0"

// Entry is one vocabulary term and the chapter that introduces it.
type Entry struct {
	Term    string
	Chapter string
	// Position is the term's zero-based document order across the index.
	Position int
}

// Chapter is an ordered list of terms under one label.
type Chapter struct {
	Label string
	Terms []string
}

// Index is the read-only vocabulary for one unit.
type Index struct {
	source   string
	chapters []Chapter
	byLabel  map[string]int
	entries  []Entry
	seen     map[string]struct{}
	exact    map[string]int
	loose    map[string]int
}

func newIndex(source string) *Index {
	return &Index{
		source:  source,
		byLabel: make(map[string]int),
		seen:    make(map[string]struct{}),
		exact:   make(map[string]int),
		loose:   make(map[string]int),
	}
}

func (ix *Index) openChapter(label string) {
	if _, ok := ix.byLabel[label]; ok {
		return
	}
	ix.byLabel[label] = len(ix.chapters)
	ix.chapters = append(ix.chapters, Chapter{Label: label})
}

// add records term under chapter. A term already indexed keeps its first
// chapter, which is where it was introduced.
func (ix *Index) add(chapter, term string) {
	term = terms.Clean(term)
	key := terms.Canonical(term)
	if key == "" {
		return
	}
	if _, dup := ix.seen[key]; dup {
		return
	}
	ix.seen[key] = struct{}{}
	ix.openChapter(chapter)
	pos := len(ix.entries)
	ix.entries = append(ix.entries, Entry{Term: term, Chapter: chapter, Position: pos})
	c := &ix.chapters[ix.byLabel[chapter]]
	c.Terms = append(c.Terms, term)
	ix.exact[terms.Fold(term)] = pos
	if lk := terms.Loose(term); lk != "" {
		if _, ok := ix.loose[lk]; !ok {
			ix.loose[lk] = pos
		}
	}
}

// Source returns the path or name the index was built from.
func (ix *Index) Source() string { return ix.source }

// Len returns the number of distinct terms.
func (ix *Index) Len() int { return len(ix.entries) }

// Entries returns all terms in document order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Chapters returns chapters in document order.
func (ix *Index) Chapters() []Chapter {
	out := make([]Chapter, len(ix.chapters))
	for i, c := range ix.chapters {
		out[i] = Chapter{Label: c.Label, Terms: append([]string(nil), c.Terms...)}
	}
	return out
}

// Terms returns the ordered terms for a chapter label.
func (ix *Index) Terms(chapter string) []string {
	i, ok := ix.byLabel[chapter]
	if !ok {
		return nil
	}
	return append([]string(nil), ix.chapters[i].Terms...)
}

// Lookup finds a term by case-insensitive equality. Surrounding punctuation
// must match; LookupLoose ignores it.
func (ix *Index) Lookup(term string) (Entry, bool) {
	pos, ok := ix.exact[terms.Fold(term)]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[pos], true
}

// LookupLoose finds a term by loose equality.
func (ix *Index) LookupLoose(term string) (Entry, bool) {
	pos, ok := ix.loose[terms.Loose(term)]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[pos], true
}

// ChapterOf returns the chapter that introduces term, trying exact then
// loose equality.
func (ix *Index) ChapterOf(term string) (string, bool) {
	if e, ok := ix.Lookup(term); ok {
		return e.Chapter, true
	}
	if e, ok := ix.LookupLoose(term); ok {
		return e.Chapter, true
	}
	return "", false
}
