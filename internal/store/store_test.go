package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/booklet"
	"owlmap/internal/classify"
	"owlmap/internal/store"
	"owlmap/internal/testsupport"
)

var scienceUnit = store.Unit{Subject: "Science", Year: 7, TermPeriod: "Autumn", Name: "Forces"}

func TestOpenMissingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")
	_, err := store.Open(context.Background(), path, store.Options{})
	require.ErrorIs(t, err, store.ErrStoreMissing)
	assert.NoFileExists(t, path)
}

func TestOpenWriteLockIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "owl.db")
	ctx := context.Background()

	first, err := store.Open(ctx, path, store.Options{Create: true, WriteLock: true})
	require.NoError(t, err)

	_, err = store.Open(ctx, path, store.Options{WriteLock: true})
	require.ErrorIs(t, err, store.ErrLocked)

	require.NoError(t, first.Close())
	second, err := store.Open(ctx, path, store.Options{WriteLock: true})
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestMigrationsAreIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	require.NoError(t, st.Close())

	reopened := testsupport.MustOpenStore(t, cfg)
	health, err := reopened.CheckHealth(context.Background())
	require.NoError(t, err)
	assert.True(t, health.Healthy(), "%+v", health)
	assert.Equal(t, store.LatestSchemaVersion(), health.SchemaVersion)
}

func TestInsertOccurrenceIsIdempotent(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	concept, created, err := st.ResolveConcept(ctx, "friction", "Science")
	require.NoError(t, err)
	assert.True(t, created)

	occ := store.Occurrence{
		ConceptID:      concept.ID,
		Term:           "friction",
		Unit:           scienceUnit,
		Chapter:        "2",
		Location:       4,
		IsIntroduction: true,
		Status:         classify.StatusConfirmed,
	}
	first, inserted, err := st.InsertOccurrence(ctx, occ)
	require.NoError(t, err)
	assert.True(t, inserted)

	second, inserted, err := st.InsertOccurrence(ctx, occ)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first.ID, second.ID)

	again, created, err := st.ResolveConcept(ctx, "friction", "Science")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, concept.ID, again.ID)
}

func TestUnsetStatusRoundTrips(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	occ := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "gravity", Unit: scienceUnit, Location: 1})

	loaded, err := st.Occurrence(context.Background(), occ.ID)
	require.NoError(t, err)
	assert.Equal(t, classify.StatusUnset, loaded.Status)
}

func TestUpdateStatusHonorsTransitions(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	occ := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{
		Term: "newton", Unit: scienceUnit, Location: 3, Status: classify.StatusPotentialNoise,
	})

	changed, err := st.UpdateStatus(ctx, occ.ID, classify.StatusConfirmed)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = st.UpdateStatus(ctx, occ.ID, classify.StatusConfirmed)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = st.UpdateStatus(ctx, occ.ID, classify.StatusPotentialNoise)
	require.ErrorIs(t, err, store.ErrInvalidTransition)
}

func TestDeleteOccurrenceRemovesOrphanConcept(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	keep := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "mass", Unit: scienceUnit, Location: 1})
	other := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "mass", Unit: scienceUnit, Location: 2})
	lone := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "Chapter 3", Unit: scienceUnit, Location: 5})

	res, err := st.DeleteOccurrence(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.False(t, res.ConceptRemoved)

	res, err = st.DeleteOccurrence(ctx, lone.ID)
	require.NoError(t, err)
	assert.True(t, res.ConceptRemoved)
	_, err = st.ConceptByTerm(ctx, "Chapter 3")
	require.ErrorIs(t, err, store.ErrNotFound)

	res, err = st.DeleteOccurrence(ctx, lone.ID)
	require.NoError(t, err)
	assert.False(t, res.Deleted)

	_, err = st.Occurrence(ctx, keep.ID)
	require.NoError(t, err)

	orphans, err := st.CountOrphanConcepts(ctx)
	require.NoError(t, err)
	assert.Zero(t, orphans)
}

func TestDeleteOccurrenceRefusesEdges(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	a := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "force", Unit: scienceUnit, Location: 1})
	b := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "pressure", Unit: scienceUnit, Location: 2})
	_, err := st.AddEdge(ctx, store.Edge{FromOccurrence: a.ID, ToOccurrence: b.ID, EdgeType: "prerequisite"})
	require.NoError(t, err)

	_, err = st.DeleteOccurrence(ctx, b.ID)
	require.ErrorIs(t, err, store.ErrIntegrityViolation)

	_, err = st.Occurrence(ctx, b.ID)
	require.NoError(t, err)
}

func TestResolveReference(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	occ := testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "friction", Unit: scienceUnit, Location: 4})

	got, err := st.ResolveReference(ctx, store.Reference{Unit: scienceUnit, Term: "friction", Location: 4})
	require.NoError(t, err)
	assert.Equal(t, occ.ID, got.ID)

	got, err = st.ResolveReference(ctx, store.Reference{ID: occ.ID, Unit: scienceUnit, Term: "friction", Location: 4})
	require.NoError(t, err)
	assert.Equal(t, occ.ID, got.ID)

	cases := []store.Reference{
		{Unit: scienceUnit, Term: "friction", Location: 5},
		{ID: occ.ID + 100, Unit: scienceUnit, Term: "friction", Location: 4},
		{ID: occ.ID, Unit: scienceUnit, Term: "Friction", Location: 4},
	}
	for _, ref := range cases {
		_, err := st.ResolveReference(ctx, ref)
		assert.ErrorIs(t, err, store.ErrUnresolvableReference, "%+v", ref)
	}
}

func TestSavepointRollsBackOneRow(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	tx, err := st.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	boom := errors.New("boom")
	err = tx.Savepoint(ctx, func() error {
		if _, _, err := tx.ResolveConcept(ctx, "discarded", "Science"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, tx.Savepoint(ctx, func() error {
		_, _, err := tx.ResolveConcept(ctx, "kept", "Science")
		return err
	}))
	require.NoError(t, tx.Commit())

	_, err = st.ConceptByTerm(ctx, "kept")
	require.NoError(t, err)
	_, err = st.ConceptByTerm(ctx, "discarded")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnitsAndStatusCounts(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	history := store.Unit{Subject: "History", Year: 8, TermPeriod: "Spring", Name: "Tudors"}
	testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "monarch", Unit: history, Location: 1, Source: "tudors.json", Status: classify.StatusConfirmed})
	testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "force", Unit: scienceUnit, Location: 1, Source: "forces.json", Status: classify.StatusConfirmed})
	testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "Figure 2", Unit: scienceUnit, Location: 2, Source: "forces.json", Status: classify.StatusPotentialNoise})

	units, err := st.Units(ctx)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, history, units[0].Unit)
	assert.Equal(t, scienceUnit, units[1].Unit)
	assert.Equal(t, 2, units[1].Occurrences)
	assert.Equal(t, "forces.json", units[1].SourcePath)

	counts, err := st.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[classify.StatusConfirmed])
	assert.Equal(t, 1, counts[classify.StatusPotentialNoise])

	review, err := st.OccurrencesWithStatus(ctx, classify.StatusPotentialNoise, classify.StatusHighPriorityReview)
	require.NoError(t, err)
	require.Len(t, review, 1)
	assert.Equal(t, "Figure 2", review[0].Term)
}

func TestDeleteSourceAndSourceText(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	testsupport.NewOccurrence(t, st, testsupport.SeedOccurrence{Term: "force", Unit: scienceUnit, Location: 1, Source: "forces.json"})
	require.NoError(t, st.SaveSourceText(ctx, "forces.json", []booklet.Slide{
		{Index: 1, Paragraphs: []string{"A force is a push or a pull."}},
		{Index: 3, Paragraphs: []string{"Friction slows things down.", "Air resistance is friction."}},
	}))

	doc, err := st.SourceText(ctx, "forces.json")
	require.NoError(t, err)
	require.NotNil(t, doc)
	hit := doc.Search("friction")
	assert.True(t, hit.Found)
	assert.Equal(t, []int{3}, hit.Locations)

	ingested, err := st.SourceIngested(ctx, "forces.json")
	require.NoError(t, err)
	assert.True(t, ingested)

	n, err := st.DeleteSource(ctx, "forces.json")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, err = st.SourceText(ctx, "forces.json")
	require.NoError(t, err)
	assert.Nil(t, doc)
	_, err = st.ConceptByTerm(ctx, "force")
	require.ErrorIs(t, err, store.ErrNotFound)
}
