package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Units lists every unit with occurrences, ordered by subject, year, term
// period and unit name.
func (q queries) Units(ctx context.Context) ([]UnitInfo, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT subject, year, term, unit, MIN(source_path), MAX(vocab_source), COUNT(1)
		FROM occurrences
		GROUP BY subject, year, term, unit
		ORDER BY subject, year, term, unit`)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer rows.Close()

	var out []UnitInfo
	for rows.Next() {
		var (
			u             UnitInfo
			source, vocab sql.NullString
		)
		if err := rows.Scan(&u.Subject, &u.Year, &u.TermPeriod, &u.Name, &source, &vocab, &u.Occurrences); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		u.SourcePath = source.String
		u.VocabSource = vocab.String
		out = append(out, u)
	}
	return out, rows.Err()
}

// UnitInfo returns provenance for one unit, ErrNotFound when it has no
// occurrences.
func (q queries) UnitInfo(ctx context.Context, unit Unit) (UnitInfo, error) {
	var (
		info          = UnitInfo{Unit: unit}
		source, vocab sql.NullString
	)
	err := q.q.QueryRowContext(ctx, `
		SELECT MIN(source_path), MAX(vocab_source), COUNT(1)
		FROM occurrences
		WHERE subject = ? AND year = ? AND term = ? AND unit = ?`,
		unit.Subject, unit.Year, unit.TermPeriod, unit.Name).Scan(&source, &vocab, &info.Occurrences)
	if err != nil {
		return UnitInfo{}, fmt.Errorf("unit %s: %w", unit, err)
	}
	if info.Occurrences == 0 {
		return UnitInfo{}, fmt.Errorf("unit %s: %w", unit, ErrNotFound)
	}
	info.SourcePath = source.String
	info.VocabSource = vocab.String
	return info, nil
}
