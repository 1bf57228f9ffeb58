package testsupport

import (
	"context"
	"testing"

	"owlmap/internal/classify"
	"owlmap/internal/config"
	"owlmap/internal/store"
)

// MustOpenStore opens (creating if needed) the configured store for tests and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(context.Background(), cfg.Paths.Database, store.Options{Create: true})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

// SeedOccurrence is the minimal description of a row for NewOccurrence.
type SeedOccurrence struct {
	Term       string
	Unit       store.Unit
	Chapter    string
	Location   int
	Context    string
	Source     string
	FlagReason string
	Status     classify.Status
}

// NewOccurrence inserts a concept and occurrence directly, bypassing ingest.
func NewOccurrence(t testing.TB, st *store.Store, seed SeedOccurrence) store.Occurrence {
	t.Helper()

	ctx := context.Background()
	concept, _, err := st.ResolveConcept(ctx, seed.Term, seed.Unit.Subject)
	if err != nil {
		t.Fatalf("ResolveConcept: %v", err)
	}
	occ, _, err := st.InsertOccurrence(ctx, store.Occurrence{
		ConceptID:      concept.ID,
		Term:           seed.Term,
		Unit:           seed.Unit,
		Chapter:        seed.Chapter,
		Location:       seed.Location,
		IsIntroduction: true,
		Context:        seed.Context,
		SourcePath:     seed.Source,
		FlagReason:     seed.FlagReason,
		Status:         seed.Status,
	})
	if err != nil {
		t.Fatalf("InsertOccurrence: %v", err)
	}
	return occ
}
