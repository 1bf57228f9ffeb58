package maintenance_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/apply"
	"owlmap/internal/classify"
	"owlmap/internal/logging"
	"owlmap/internal/maintenance"
	"owlmap/internal/store"
	"owlmap/internal/testsupport"
	"owlmap/internal/vocab"
)

var geography = store.Unit{Subject: "Geography", Year: 8, TermPeriod: "Spring", Name: "Volcanoes"}

func TestVocabFirstPromotesFlaggedTerms(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	huns := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{
		Term: "Huns", Unit: geography, Location: 2, FlagReason: classify.ReasonShortTerm, Status: classify.StatusConfirmedWithFlag,
	})
	noise := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{
		Term: "Figure 3", Unit: geography, Location: 4, Status: classify.StatusPotentialNoise,
	})
	logPath := filepath.Join(t.TempDir(), "decisions.csv")

	dry, err := maintenance.VocabFirst(ctx, st, apply.NewDecisionLog(logPath), maintenance.VocabFirstOptions{DryRun: true}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, dry.Promoted)
	unchanged, err := st.Occurrence(ctx, huns.ID)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusConfirmedWithFlag, unchanged.Status)
	assert.NoFileExists(t, logPath)

	res, err := maintenance.VocabFirst(ctx, st, apply.NewDecisionLog(logPath), maintenance.VocabFirstOptions{}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Promoted)
	assert.Zero(t, res.Deleted)

	promoted, err := st.Occurrence(ctx, huns.ID)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusConfirmed, promoted.Status)
	_, err = st.Occurrence(ctx, noise.ID)
	require.NoError(t, err, "noise is kept unless asked")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "vocab_first_promote")

	again, err := maintenance.VocabFirst(ctx, st, apply.NewDecisionLog(logPath), maintenance.VocabFirstOptions{}, logging.NewNop())
	require.NoError(t, err)
	assert.Zero(t, again.Promoted)
}

func TestVocabFirstDeleteReviewRespectsEdges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	magma := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "magma", Unit: geography, Location: 1, Status: classify.StatusConfirmed})
	linked := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "Key idea", Unit: geography, Location: 2, Status: classify.StatusPotentialNoise})
	loose := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "Task 1", Unit: geography, Location: 3, Status: classify.StatusHighPriorityReview})
	_, err := st.AddEdge(ctx, store.Edge{FromOccurrence: magma.ID, ToOccurrence: linked.ID})
	require.NoError(t, err)

	res, err := maintenance.VocabFirst(ctx, st, apply.NewDecisionLog(filepath.Join(t.TempDir(), "log.csv")),
		maintenance.VocabFirstOptions{DeleteReview: true}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.OrphansRemoved)
	require.Len(t, res.Refused, 1)
	assert.Contains(t, res.Refused[0], "Key idea")

	_, err = st.Occurrence(ctx, loose.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Occurrence(ctx, linked.ID)
	require.NoError(t, err)
}

func TestRepairChapters(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	layout := testsupport.NewUnitLayout(t, "Volcanoes")
	testsupport.WriteVocab(t, filepath.Join(layout.VocabDir, "Volcanoes vocab.txt"),
		[]string{"1", "2"},
		map[string][]string{"1": {"magma", "crust"}, "2": {"lava", "ash cloud"}})
	booklet := filepath.Join(layout.BookletDir, "volcanoes.pptx")

	seed := func(term, chapter string, location int) store.Occurrence {
		return testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{
			Term: term, Unit: geography, Chapter: chapter, Location: location, Source: booklet, Status: classify.StatusConfirmed,
		})
	}
	magma := seed("magma", "1. Inside the Earth\t\tPage 4", 1)
	crust := seed("crust", "2. Eruptions", 2)
	lava := seed("lava", "2. Eruptions", 3)
	ash := seed("ash cloud", "", 4)
	other := seed("tephra", "3. Hazards", 5)

	cache := vocab.NewCache(vocab.Discoverer{DirKeyword: "vocab"})
	res, err := maintenance.RepairChapters(ctx, st, cache, false, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Cleaned)
	assert.Equal(t, 2, res.Fixed)
	assert.Zero(t, res.FallbackToNumber)

	chapterOf := func(o store.Occurrence) string {
		loaded, err := st.Occurrence(ctx, o.ID)
		require.NoError(t, err)
		return loaded.Chapter
	}
	assert.Equal(t, "1. Inside the Earth", chapterOf(magma))
	assert.Equal(t, "1. Inside the Earth", chapterOf(crust))
	assert.Equal(t, "2. Eruptions", chapterOf(lava))
	assert.Equal(t, "2. Eruptions", chapterOf(ash))
	assert.Equal(t, "3. Hazards", chapterOf(other), "terms outside the list are untouched")
}
