package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"owlmap/internal/classify"
)

var requiredTables = []string{"concepts", "occurrences", "edges", "schema_migrations", "source_text"}

// DatabaseHealth summarizes store diagnostics.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	LatestVersion    string
	MissingTables    []string
	IntegrityCheck   string
	Concepts         int
	Occurrences      int
	Edges            int
	OrphanConcepts   int
	StatusCounts     map[classify.Status]int
	Error            string
}

// Healthy reports whether every check passed.
func (h DatabaseHealth) Healthy() bool {
	return h.DatabaseExists && h.DatabaseReadable && len(h.MissingTables) == 0 &&
		h.IntegrityCheck == "ok" && h.OrphanConcepts == 0 && h.SchemaVersion == h.LatestVersion
}

// OccurrencesWithStatus lists occurrences in any of the given statuses in
// unit, then document, order.
func (q queries) OccurrencesWithStatus(ctx context.Context, statuses ...classify.Status) ([]Occurrence, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = s
	}
	rows, err := q.q.QueryContext(ctx, `SELECT `+occurrenceColumns+occurrenceFrom+`
		WHERE o.validation_status IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY o.subject, o.year, o.term, o.unit, o.slide_number, o.occurrence_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list occurrences by status: %w", err)
	}
	return collectOccurrences(rows)
}

// StatusCounts groups occurrences by validation status.
func (q queries) StatusCounts(ctx context.Context) (map[classify.Status]int, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT validation_status, COUNT(1) FROM occurrences GROUP BY validation_status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[classify.Status]int)
	for rows.Next() {
		var (
			status classify.Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// CheckHealth returns diagnostic information about the database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path, LatestVersion: LatestSchemaVersion()}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat store: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("store path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("store connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping store: %w", err)
	}
	health.DatabaseReadable = true

	for _, table := range requiredTables {
		var name string
		err := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			health.MissingTables = append(health.MissingTables, table)
			continue
		}
		if err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("query table %s: %w", table, err)
		}
	}
	if len(health.MissingTables) > 0 {
		return health, nil
	}

	var version sql.NullString
	if err := s.db.QueryRowContext(connCtx, "SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}
	health.SchemaVersion = version.String

	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&health.IntegrityCheck); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}

	counts := []struct {
		table string
		dst   *int
	}{
		{"concepts", &health.Concepts},
		{"occurrences", &health.Occurrences},
		{"edges", &health.Edges},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(1) FROM "+c.table).Scan(c.dst); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count %s: %w", c.table, err)
		}
	}

	if health.OrphanConcepts, err = s.CountOrphanConcepts(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}
	if health.StatusCounts, err = s.StatusCounts(connCtx); err != nil {
		health.Error = err.Error()
		return health, err
	}
	return health, nil
}
