package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"owlmap/internal/classify"
	"owlmap/internal/matcher"
)

const occurrenceColumns = `o.occurrence_id, o.concept_id, c.term, o.subject, o.year, o.term, o.unit,
	o.chapter, o.slide_number, o.is_introduction, o.term_in_context, o.source_path,
	o.review_reason, o.validation_status, o.vocab_confidence, o.vocab_match_type, o.vocab_source`

const occurrenceFrom = ` FROM occurrences o JOIN concepts c ON c.concept_id = o.concept_id `

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOccurrence(r rowScanner) (Occurrence, error) {
	var (
		o                                           Occurrence
		chapter, context, source, reason, tier, voc sql.NullString
		confidence                                  sql.NullFloat64
		intro                                       int
	)
	err := r.Scan(&o.ID, &o.ConceptID, &o.Term, &o.Unit.Subject, &o.Unit.Year, &o.Unit.TermPeriod, &o.Unit.Name,
		&chapter, &o.Location, &intro, &context, &source,
		&reason, &o.Status, &confidence, &tier, &voc)
	if err != nil {
		return Occurrence{}, err
	}
	o.Chapter = chapter.String
	o.IsIntroduction = intro != 0
	o.Context = context.String
	o.SourcePath = source.String
	o.FlagReason = reason.String
	o.Confidence = confidence.Float64
	o.Tier = matcher.Tier(tier.String)
	o.VocabSource = voc.String
	return o, nil
}

func collectOccurrences(rows *sql.Rows) ([]Occurrence, error) {
	defer rows.Close()
	var out []Occurrence
	for rows.Next() {
		o, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("scan occurrence: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// InsertOccurrence stores o under its concept. An occurrence already present at
// the same concept, unit, location and introduction flag is returned unchanged
// with inserted=false.
func (q queries) InsertOccurrence(ctx context.Context, o Occurrence) (Occurrence, bool, error) {
	if o.ConceptID == 0 {
		return Occurrence{}, false, errors.New("insert occurrence: concept id required")
	}
	if !o.Status.Valid() {
		return Occurrence{}, false, fmt.Errorf("insert occurrence: invalid status %d", o.Status)
	}
	var confidence any
	if o.Tier != "" {
		confidence = o.Confidence
	}
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO occurrences (
			concept_id, subject, year, term, unit, chapter, slide_number, is_introduction,
			term_in_context, source_path, review_reason, validation_status,
			vocab_confidence, vocab_match_type, vocab_source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (concept_id, subject, year, term, unit, slide_number, is_introduction) DO NOTHING`,
		o.ConceptID, o.Unit.Subject, o.Unit.Year, o.Unit.TermPeriod, o.Unit.Name,
		nullString(o.Chapter), o.Location, boolInt(o.IsIntroduction),
		nullString(o.Context), nullString(o.SourcePath), nullString(o.FlagReason), o.Status,
		confidence, nullString(string(o.Tier)), nullString(o.VocabSource))
	if err != nil {
		return Occurrence{}, false, fmt.Errorf("insert occurrence %q: %w", o.Term, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Occurrence{}, false, err
	}
	if n == 0 {
		existing, err := q.occurrenceAt(ctx, o.ConceptID, o.Unit, o.Location, o.IsIntroduction)
		return existing, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Occurrence{}, false, err
	}
	stored, err := q.Occurrence(ctx, id)
	return stored, true, err
}

func (q queries) occurrenceAt(ctx context.Context, conceptID int64, unit Unit, location int, intro bool) (Occurrence, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+occurrenceColumns+occurrenceFrom+`
		WHERE o.concept_id = ? AND o.subject = ? AND o.year = ? AND o.term = ? AND o.unit = ?
		  AND o.slide_number = ? AND o.is_introduction = ?`,
		conceptID, unit.Subject, unit.Year, unit.TermPeriod, unit.Name, location, boolInt(intro))
	o, err := scanOccurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Occurrence{}, fmt.Errorf("occurrence of concept %d at %d: %w", conceptID, location, ErrNotFound)
	}
	return o, err
}

// Occurrence loads one occurrence by id.
func (q queries) Occurrence(ctx context.Context, id int64) (Occurrence, error) {
	row := q.q.QueryRowContext(ctx, `SELECT `+occurrenceColumns+occurrenceFrom+`WHERE o.occurrence_id = ?`, id)
	o, err := scanOccurrence(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Occurrence{}, fmt.Errorf("occurrence %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Occurrence{}, fmt.Errorf("query occurrence %d: %w", id, err)
	}
	return o, nil
}

// FindOccurrences returns the occurrences of the concept named term in unit at
// location, whatever their introduction flag.
func (q queries) FindOccurrences(ctx context.Context, term string, unit Unit, location int) ([]Occurrence, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+occurrenceColumns+occurrenceFrom+`
		WHERE c.term = ? AND o.subject = ? AND o.year = ? AND o.term = ? AND o.unit = ? AND o.slide_number = ?
		ORDER BY o.occurrence_id`,
		term, unit.Subject, unit.Year, unit.TermPeriod, unit.Name, location)
	if err != nil {
		return nil, fmt.Errorf("find occurrences: %w", err)
	}
	return collectOccurrences(rows)
}

// UnitOccurrences lists a unit's occurrences in document order.
func (q queries) UnitOccurrences(ctx context.Context, unit Unit) ([]Occurrence, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+occurrenceColumns+occurrenceFrom+`
		WHERE o.subject = ? AND o.year = ? AND o.term = ? AND o.unit = ?
		ORDER BY o.slide_number, o.occurrence_id`,
		unit.Subject, unit.Year, unit.TermPeriod, unit.Name)
	if err != nil {
		return nil, fmt.Errorf("list unit occurrences: %w", err)
	}
	return collectOccurrences(rows)
}

// ResolveReference finds the single occurrence an audit row points at. With an
// id, the id and the row's unit, term and location must all agree; without
// one, the fields alone must match exactly one occurrence.
func (q queries) ResolveReference(ctx context.Context, ref Reference) (Occurrence, error) {
	query := `SELECT ` + occurrenceColumns + occurrenceFrom + `
		WHERE o.subject = ? AND o.year = ? AND o.term = ? AND o.unit = ? AND c.term = ? AND o.slide_number = ?`
	args := []any{ref.Unit.Subject, ref.Unit.Year, ref.Unit.TermPeriod, ref.Unit.Name, ref.Term, ref.Location}
	if ref.ID > 0 {
		query += ` AND o.occurrence_id = ?`
		args = append(args, ref.ID)
	}
	rows, err := q.q.QueryContext(ctx, query+` ORDER BY o.occurrence_id`, args...)
	if err != nil {
		return Occurrence{}, fmt.Errorf("resolve reference: %w", err)
	}
	matches, err := collectOccurrences(rows)
	if err != nil {
		return Occurrence{}, err
	}
	if len(matches) != 1 {
		return Occurrence{}, fmt.Errorf("%w: %q at %d in %s (id %d) matched %d rows",
			ErrUnresolvableReference, ref.Term, ref.Location, ref.Unit, ref.ID, len(matches))
	}
	return matches[0], nil
}

// UpdateStatus moves an occurrence to status to. It reports false when the
// occurrence already had that status.
func (q queries) UpdateStatus(ctx context.Context, id int64, to classify.Status) (bool, error) {
	current, err := q.Occurrence(ctx, id)
	if err != nil {
		return false, err
	}
	if current.Status == to {
		return false, nil
	}
	if !classify.CanTransition(current.Status, to) {
		return false, fmt.Errorf("%w: occurrence %d %s -> %s", ErrInvalidTransition, id, current.Status, to)
	}
	if _, err := q.q.ExecContext(ctx, `UPDATE occurrences SET validation_status = ? WHERE occurrence_id = ?`, to, id); err != nil {
		return false, fmt.Errorf("update status of %d: %w", id, err)
	}
	return true, nil
}

// UpdateChapter rewrites an occurrence's chapter label.
func (q queries) UpdateChapter(ctx context.Context, id int64, chapter string) error {
	if _, err := q.q.ExecContext(ctx, `UPDATE occurrences SET chapter = ? WHERE occurrence_id = ?`, nullString(chapter), id); err != nil {
		return fmt.Errorf("update chapter of %d: %w", id, err)
	}
	return nil
}

// DeleteResult reports what DeleteOccurrence removed.
type DeleteResult struct {
	Deleted        bool
	ConceptRemoved bool
	Concept        Concept
}

// DeleteOccurrence removes an occurrence and, if it was the last one, its
// concept. A missing occurrence is not an error. Occurrences referenced by
// edges are refused with ErrIntegrityViolation.
func (q queries) DeleteOccurrence(ctx context.Context, id int64) (DeleteResult, error) {
	occ, err := q.Occurrence(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return DeleteResult{}, nil
	}
	if err != nil {
		return DeleteResult{}, err
	}
	edges, err := q.CountEdges(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if edges > 0 {
		return DeleteResult{}, fmt.Errorf("%w: occurrence %d (%q) has %d dependent edges", ErrIntegrityViolation, id, occ.Term, edges)
	}
	if _, err := q.q.ExecContext(ctx, `DELETE FROM occurrences WHERE occurrence_id = ?`, id); err != nil {
		return DeleteResult{}, fmt.Errorf("delete occurrence %d: %w", id, err)
	}
	removed, err := q.removeConceptIfOrphan(ctx, occ.ConceptID)
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{
		Deleted:        true,
		ConceptRemoved: removed,
		Concept:        Concept{ID: occ.ConceptID, Term: occ.Term},
	}, nil
}

// SourceIngested reports whether any occurrence came from sourcePath.
func (q queries) SourceIngested(ctx context.Context, sourcePath string) (bool, error) {
	var n int
	if err := q.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM occurrences WHERE source_path = ?`, sourcePath).Scan(&n); err != nil {
		return false, fmt.Errorf("check source %s: %w", sourcePath, err)
	}
	return n > 0, nil
}

// DeleteSource removes every occurrence from sourcePath plus orphaned
// concepts, for re-ingesting a booklet. Sources with edges are refused.
func (q queries) DeleteSource(ctx context.Context, sourcePath string) (int, error) {
	var edges int
	err := q.q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM edges e
		JOIN occurrences o ON o.occurrence_id IN (e.from_occurrence, e.to_occurrence)
		WHERE o.source_path = ?`, sourcePath).Scan(&edges)
	if err != nil {
		return 0, fmt.Errorf("count source edges: %w", err)
	}
	if edges > 0 {
		return 0, fmt.Errorf("%w: %s has %d dependent edges", ErrIntegrityViolation, sourcePath, edges)
	}
	res, err := q.q.ExecContext(ctx, `DELETE FROM occurrences WHERE source_path = ?`, sourcePath)
	if err != nil {
		return 0, fmt.Errorf("delete source %s: %w", sourcePath, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if _, err := q.RemoveOrphanConcepts(ctx); err != nil {
		return 0, err
	}
	if _, err := q.q.ExecContext(ctx, `DELETE FROM source_text WHERE source_path = ?`, sourcePath); err != nil {
		return 0, fmt.Errorf("delete source text: %w", err)
	}
	return int(n), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
