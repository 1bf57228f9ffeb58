package store

import (
	"context"
	"fmt"

	"owlmap/internal/booklet"
)

// SaveSourceText replaces the stored full text of a booklet.
func (q queries) SaveSourceText(ctx context.Context, sourcePath string, slides []booklet.Slide) error {
	if _, err := q.q.ExecContext(ctx, `DELETE FROM source_text WHERE source_path = ?`, sourcePath); err != nil {
		return fmt.Errorf("clear source text: %w", err)
	}
	for _, slide := range slides {
		for i, para := range slide.Paragraphs {
			if _, err := q.q.ExecContext(ctx, `
				INSERT INTO source_text (source_path, slide_number, paragraph_index, text)
				VALUES (?, ?, ?, ?)`, sourcePath, slide.Index, i, para); err != nil {
				return fmt.Errorf("save source text: %w", err)
			}
		}
	}
	return nil
}

// SourceText loads a booklet's stored text, nil when none was saved.
func (q queries) SourceText(ctx context.Context, sourcePath string) (*booklet.Document, error) {
	rows, err := q.q.QueryContext(ctx, `
		SELECT slide_number, text FROM source_text
		WHERE source_path = ?
		ORDER BY slide_number, paragraph_index`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("load source text: %w", err)
	}
	defer rows.Close()

	var slides []booklet.Slide
	for rows.Next() {
		var (
			index int
			text  string
		)
		if err := rows.Scan(&index, &text); err != nil {
			return nil, fmt.Errorf("scan source text: %w", err)
		}
		if n := len(slides); n == 0 || slides[n-1].Index != index {
			slides = append(slides, booklet.Slide{Index: index})
		}
		last := &slides[len(slides)-1]
		last.Paragraphs = append(last.Paragraphs, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(slides) == 0 {
		return nil, nil
	}
	return booklet.FromSlides(sourcePath, slides), nil
}
