package extraction_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/extraction"
	"owlmap/internal/testsupport"
)

const sample = `{
  "source_path": "/corpus/Unit 1/Booklets/romans.pptx",
  "subject": "History",
  "year": 7,
  "term_period": "Autumn 1",
  "unit": "Romans",
  "slides": [{"index": 5, "paragraphs": ["...the Roman empire grew..."]}],
  "candidates": [
    {"term": "Senate", "location": 2, "chapter": "1. Rome", "context": "The Senate met"},
    {"term": "Reason 1", "location": 3, "flagged": true, "flag_reason": "heading_like"},
    {"term": "army", "location": 4, "is_introduction": false}
  ]
}`

func TestDecode(t *testing.T) {
	doc, err := extraction.Decode(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, "Romans", doc.Unit)
	assert.Equal(t, 7, doc.Year)
	require.Len(t, doc.Candidates, 3)
	assert.True(t, doc.Candidates[0].IsIntroduction())
	assert.True(t, doc.Candidates[1].Flagged)
	assert.False(t, doc.Candidates[2].IsIntroduction())

	text := doc.Text()
	require.NotNil(t, text)
	assert.Equal(t, []int{5}, text.Search("empire").Locations)
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"no unit", `{"source_path":"a","subject":"History","year":7,"term_period":"T1","candidates":[]}`, "unit"},
		{"blank term", `{"source_path":"a","subject":"History","year":7,"term_period":"T1","unit":"U","candidates":[{"term":" ","location":1}]}`, "no term"},
		{"zero location", `{"source_path":"a","subject":"History","year":7,"term_period":"T1","unit":"U","candidates":[{"term":"x","location":0}]}`, "location 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extraction.Decode(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, extraction.ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadFile(t *testing.T) {
	path := testsupport.WriteText(t, filepath.Join(t.TempDir(), "romans.json"), sample)
	doc, err := extraction.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "History", doc.Subject)

	_, err = extraction.ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestCleanChapter(t *testing.T) {
	assert.Equal(t, "6. Volcanoes", extraction.CleanChapter("6. Volcanoes\t\tPage 18"))
	assert.Equal(t, "6. Volcanoes", extraction.CleanChapter("6. Volcanoes page 3 "))
	assert.Equal(t, "Page 4", extraction.CleanChapter("Page 4"))
	assert.Equal(t, "", extraction.CleanChapter("  "))
	assert.Equal(t, "2. Rome", extraction.CleanChapter("2. Rome"))
}

func TestChapterNumber(t *testing.T) {
	n, ok := extraction.ChapterNumber("1. The Roman Empire")
	assert.True(t, ok)
	assert.Equal(t, "1", n)
	n, _ = extraction.ChapterNumber("Chapter 12")
	assert.Equal(t, "12", n)
	_, ok = extraction.ChapterNumber("Introduction")
	assert.False(t, ok)
}
