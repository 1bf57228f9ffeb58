package ingest_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/classify"
	"owlmap/internal/extraction"
	"owlmap/internal/ingest"
	"owlmap/internal/logging"
	"owlmap/internal/matcher"
	"owlmap/internal/store"
	"owlmap/internal/testsupport"
	"owlmap/internal/vocab"
)

type fixture struct {
	store    *store.Store
	ingester *ingest.Ingester
	layout   testsupport.UnitLayout
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	cache := vocab.NewCache(vocab.Discoverer{
		DirKeyword:           cfg.Vocab.DirKeyword,
		Extensions:           cfg.Vocab.FileExtensions,
		PreferChapterOrdered: cfg.Vocab.PreferChapterOrdered,
	})
	in := ingest.New(st, cache,
		matcher.New(matcher.Options{FuzzyThreshold: cfg.Matching.FuzzyThreshold, FuzzyConfidence: cfg.Matching.FuzzyConfidence}),
		classify.FlagOptions{ShortTermLength: cfg.Matching.ShortTermLength, ShortContextLength: cfg.Matching.ShortContextLength},
		logging.NewNop())
	return fixture{store: st, ingester: in, layout: testsupport.NewUnitLayout(t, "Rome")}
}

func (f fixture) writeExtraction(t *testing.T, name string, candidates ...extraction.Candidate) string {
	t.Helper()
	return testsupport.WriteExtraction(t, filepath.Join(f.layout.BookletDir, name+".json"), extraction.Document{
		SourcePath: name + ".pptx",
		Subject:    "History",
		Year:       7,
		TermPeriod: "Autumn",
		Unit:       "Rome",
		Slides: testsupport.Slides(
			[]string{"The Roman Republic was ruled by the Senate."},
			[]string{"Reason 1", "The Huns attacked the borders of the empire."},
		),
		Candidates: candidates,
	})
}

func TestRunClassifiesAgainstVocabulary(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteVocab(t, filepath.Join(f.layout.VocabDir, "Rome vocab.txt"),
		[]string{"1", "2"},
		map[string][]string{"1": {"Republic", "Senate"}, "2": {"Huns", "empire"}})

	path := f.writeExtraction(t, "rome",
		extraction.Candidate{Term: "Republic", Location: 1, Chapter: "1. The Republic\t\tPage 4", Context: "The Roman Republic was ruled by the Senate."},
		extraction.Candidate{Term: "Huns", Location: 2, Context: "The Huns attacked the borders of the empire."},
		extraction.Candidate{Term: "Reason 1", Location: 2, Context: "Reason 1"},
		extraction.Candidate{Term: "aqueduct", Location: 2, Context: "Water arrived by aqueduct over many miles."},
		extraction.Candidate{Term: "Republic.", Location: 1, Context: "The Roman Republic was ruled by the Senate."},
	)

	summary, err := f.ingester.Run(context.Background(), []string{path}, ingest.Options{})
	require.NoError(t, err)
	require.Len(t, summary.Files, 1)
	res := summary.Files[0]
	require.NoError(t, res.Err)
	assert.False(t, res.ValidationSkipped)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 1, res.Duplicates, "trailing punctuation is cleaned before storage")

	occs, err := f.store.UnitOccurrences(context.Background(), res.Unit)
	require.NoError(t, err)
	byTerm := map[string]store.Occurrence{}
	for _, o := range occs {
		byTerm[o.Term] = o
	}

	assert.Equal(t, classify.StatusConfirmed, byTerm["Republic"].Status)
	assert.Equal(t, "1. The Republic", byTerm["Republic"].Chapter)
	assert.Equal(t, matcher.TierExact, byTerm["Republic"].Tier)

	huns := byTerm["Huns"]
	assert.Equal(t, classify.StatusConfirmedWithFlag, huns.Status)
	assert.Equal(t, "2", huns.Chapter, "chapter back-filled from vocabulary")
	assert.Contains(t, huns.FlagReason, classify.ReasonShortTerm)

	assert.Equal(t, classify.StatusHighPriorityReview, byTerm["Reason 1"].Status)
	assert.Equal(t, classify.StatusPotentialNoise, byTerm["aqueduct"].Status)
	assert.Equal(t, matcher.TierNone, byTerm["aqueduct"].Tier)
	assert.True(t, byTerm["aqueduct"].IsIntroduction)

	text, err := f.store.SourceText(context.Background(), res.Source)
	require.NoError(t, err)
	require.NotNil(t, text)
	assert.Equal(t, []int{2}, text.Search("empire").Locations)
}

func TestRunWithoutVocabularySkipsValidation(t *testing.T) {
	f := newFixture(t)
	path := f.writeExtraction(t, "rome",
		extraction.Candidate{Term: "Republic", Location: 1, Context: "The Roman Republic was ruled by the Senate."},
	)

	summary, err := f.ingester.Run(context.Background(), []string{path}, ingest.Options{})
	require.NoError(t, err)
	res := summary.Files[0]
	require.NoError(t, res.Err)
	assert.True(t, res.ValidationSkipped)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "validation skipped")

	occs, err := f.store.UnitOccurrences(context.Background(), res.Unit)
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.Equal(t, classify.StatusUnset, occs[0].Status)
	assert.Empty(t, occs[0].VocabSource)
}

func TestRunMalformedVocabularyContinues(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteText(t, filepath.Join(f.layout.VocabDir, "Rome vocab.txt"), "Republic\nSenate\n")
	path := f.writeExtraction(t, "rome",
		extraction.Candidate{Term: "Republic", Location: 1, Context: "The Roman Republic was ruled by the Senate."},
	)

	summary, err := f.ingester.Run(context.Background(), []string{path}, ingest.Options{})
	require.NoError(t, err)
	res := summary.Files[0]
	require.NoError(t, res.Err)
	assert.True(t, res.ValidationSkipped)
	assert.Equal(t, 1, summary.Statuses[classify.StatusUnset])
}

func TestRunResumesAndForces(t *testing.T) {
	f := newFixture(t)
	path := f.writeExtraction(t, "rome",
		extraction.Candidate{Term: "Republic", Location: 1, Context: "The Roman Republic was ruled by the Senate."},
	)
	ctx := context.Background()

	first, err := f.ingester.Run(ctx, []string{path}, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Processed)

	again, err := f.ingester.Run(ctx, []string{path}, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Skipped)
	assert.Zero(t, again.Inserted)

	forced, err := f.ingester.Run(ctx, []string{path}, ingest.Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 1, forced.Processed)
	assert.Equal(t, 1, forced.Files[0].Replaced)
	assert.Equal(t, 1, forced.Files[0].Inserted)
}

func TestRunIsolatesBrokenFiles(t *testing.T) {
	f := newFixture(t)
	good := f.writeExtraction(t, "rome",
		extraction.Candidate{Term: "Republic", Location: 1, Context: "The Roman Republic was ruled by the Senate."},
	)
	bad := testsupport.WriteText(t, filepath.Join(f.layout.BookletDir, "broken.json"), `{"subject": "History"}`)

	summary, err := f.ingester.Run(context.Background(), []string{bad, good}, ingest.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Processed)
	assert.ErrorIs(t, summary.Files[0].Err, extraction.ErrInvalid)
}

func TestDiscoverFindsJSONRecursively(t *testing.T) {
	root := t.TempDir()
	a := testsupport.WriteText(t, filepath.Join(root, "History", "rome.json"), "{}")
	b := testsupport.WriteText(t, filepath.Join(root, "Science", "Forces", "forces.json"), "{}")
	testsupport.WriteText(t, filepath.Join(root, ".cache", "old.json"), "{}")
	testsupport.WriteText(t, filepath.Join(root, "notes.txt"), "")

	files, err := ingest.Discover([]string{root, a})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)
}
