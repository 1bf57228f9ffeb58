package vocab_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/testsupport"
	"owlmap/internal/vocab"
)

func defaultDiscoverer() vocab.Discoverer {
	return vocab.Discoverer{
		DirKeyword:           "vocab",
		Extensions:           []string{".docx", ".txt", ".md", ".yaml", ".yml"},
		PreferChapterOrdered: true,
	}
}

func TestDiscovererPrefersNewestChapterOrdered(t *testing.T) {
	layout := testsupport.NewUnitLayout(t, "Unit 1 Romans")
	booklet := filepath.Join(layout.BookletDir, "booklet.pptx")

	old := testsupport.WriteText(t, filepath.Join(layout.VocabDir, "Unit 1 vocab.txt"), "Chapter 1\nSenate\n")
	newer := testsupport.WriteText(t, filepath.Join(layout.VocabDir, "2024", "Unit 1 vocab v2.txt"), "Chapter 1\nSenate\n")
	az := testsupport.WriteText(t, filepath.Join(layout.VocabDir, "A-Z vocab.txt"), "Chapter 1\nSenate\n")
	testsupport.WriteText(t, filepath.Join(layout.VocabDir, "~$Unit 1 vocab.txt"), "lock")
	testsupport.WriteText(t, filepath.Join(layout.VocabDir, "admin notes.txt"), "Chapter 1\nx\n")

	now := time.Now()
	testsupport.SetModTime(t, old, now.Add(-2*time.Hour))
	testsupport.SetModTime(t, newer, now.Add(-time.Hour))
	testsupport.SetModTime(t, az, now)

	got, err := defaultDiscoverer().Find(booklet)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestDiscovererFallsBackToAZ(t *testing.T) {
	layout := testsupport.NewUnitLayout(t, "Unit 2")
	az := testsupport.WriteText(t, filepath.Join(layout.VocabDir, "Unit 2_A-Z vocab.txt"), "Chapter 1\nSenate\n")

	got, err := defaultDiscoverer().Find(filepath.Join(layout.BookletDir, "b.pptx"))
	require.NoError(t, err)
	assert.Equal(t, az, got)
}

func TestDiscovererReportsMissingSource(t *testing.T) {
	layout := testsupport.NewUnitLayout(t, "Unit 3")
	_, err := defaultDiscoverer().Find(filepath.Join(layout.BookletDir, "b.pptx"))
	assert.ErrorIs(t, err, vocab.ErrSourceNotFound)
}

func TestCacheMemoizesLookups(t *testing.T) {
	layout := testsupport.NewUnitLayout(t, "Unit 4")
	path := testsupport.WriteText(t, filepath.Join(layout.VocabDir, "vocab.txt"), "Chapter 1\nSenate\n")
	booklet := filepath.Join(layout.BookletDir, "b.pptx")

	cache := vocab.NewCache(defaultDiscoverer())
	first, err := cache.ForBooklet(booklet, "")
	require.NoError(t, err)
	assert.Equal(t, path, first.Source())

	second, err := cache.ForBooklet(booklet, "")
	require.NoError(t, err)
	assert.Same(t, first, second)

	cache.Flush()
	third, err := cache.ForBooklet(booklet, "")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestCacheOverrideBypassesDiscovery(t *testing.T) {
	dir := t.TempDir()
	path := testsupport.WriteText(t, filepath.Join(dir, "custom.yaml"), "chapters:\n  - chapter: 4\n    terms: [Huns]\n")

	ix, err := vocab.NewCache(defaultDiscoverer()).ForBooklet(filepath.Join(dir, "x", "b.pptx"), path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Huns"}, ix.Terms("4"))
}
