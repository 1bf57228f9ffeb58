package store

import (
	"context"
	"fmt"
)

// AddEdge records a relationship between two occurrences.
func (q queries) AddEdge(ctx context.Context, e Edge) (int64, error) {
	res, err := q.q.ExecContext(ctx, `
		INSERT INTO edges (from_occurrence, to_occurrence, edge_type, edge_nature)
		VALUES (?, ?, ?, ?)`, e.FromOccurrence, e.ToOccurrence, nullString(e.EdgeType), nullString(e.EdgeNature))
	if err != nil {
		return 0, fmt.Errorf("insert edge: %w", err)
	}
	return res.LastInsertId()
}

// CountEdges counts edges touching an occurrence from either end.
func (q queries) CountEdges(ctx context.Context, occurrenceID int64) (int, error) {
	var n int
	err := q.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM edges WHERE from_occurrence = ? OR to_occurrence = ?`,
		occurrenceID, occurrenceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count edges of %d: %w", occurrenceID, err)
	}
	return n, nil
}
