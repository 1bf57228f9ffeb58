package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ResolveConcept returns the concept whose term is exactly term, creating it
// when absent.
func (q queries) ResolveConcept(ctx context.Context, term, subjectArea string) (Concept, bool, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return Concept{}, false, errors.New("resolve concept: empty term")
	}
	c, err := q.ConceptByTerm(ctx, term)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Concept{}, false, err
	}
	res, err := q.q.ExecContext(ctx, `INSERT INTO concepts (term, subject_area) VALUES (?, ?)`, term, nullString(subjectArea))
	if err != nil {
		return Concept{}, false, fmt.Errorf("insert concept %q: %w", term, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Concept{}, false, fmt.Errorf("concept id: %w", err)
	}
	return Concept{ID: id, Term: term, SubjectArea: subjectArea}, true, nil
}

// ConceptByTerm looks a concept up by exact term.
func (q queries) ConceptByTerm(ctx context.Context, term string) (Concept, error) {
	var (
		c    Concept
		area sql.NullString
	)
	err := q.q.QueryRowContext(ctx, `SELECT concept_id, term, subject_area FROM concepts WHERE term = ?`, term).
		Scan(&c.ID, &c.Term, &area)
	if errors.Is(err, sql.ErrNoRows) {
		return Concept{}, fmt.Errorf("concept %q: %w", term, ErrNotFound)
	}
	if err != nil {
		return Concept{}, fmt.Errorf("query concept: %w", err)
	}
	c.SubjectArea = area.String
	return c, nil
}

// removeConceptIfOrphan deletes the concept when no occurrence references it.
func (q queries) removeConceptIfOrphan(ctx context.Context, conceptID int64) (bool, error) {
	res, err := q.q.ExecContext(ctx, `
		DELETE FROM concepts
		WHERE concept_id = ?
		  AND NOT EXISTS (SELECT 1 FROM occurrences WHERE concept_id = ?)`, conceptID, conceptID)
	if err != nil {
		return false, fmt.Errorf("remove orphan concept %d: %w", conceptID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveOrphanConcepts deletes every concept without occurrences.
func (q queries) RemoveOrphanConcepts(ctx context.Context) (int, error) {
	res, err := q.q.ExecContext(ctx, `
		DELETE FROM concepts
		WHERE NOT EXISTS (SELECT 1 FROM occurrences o WHERE o.concept_id = concepts.concept_id)`)
	if err != nil {
		return 0, fmt.Errorf("remove orphan concepts: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// CountOrphanConcepts counts concepts without occurrences.
func (q queries) CountOrphanConcepts(ctx context.Context) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM concepts c
		WHERE NOT EXISTS (SELECT 1 FROM occurrences o WHERE o.concept_id = c.concept_id)`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count orphan concepts: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
