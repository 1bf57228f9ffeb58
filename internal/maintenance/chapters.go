package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"owlmap/internal/extraction"
	"owlmap/internal/logging"
	"owlmap/internal/store"
	"owlmap/internal/vocab"
)

// titledChapter matches chapter labels carrying a full title, e.g. "3. Rivers".
var titledChapter = regexp.MustCompile(`^\d+\.`)

// ChapterRepairResult counts the rows each pass touched.
type ChapterRepairResult struct {
	Cleaned          int
	Fixed            int
	FallbackToNumber int
	UnitsWithoutList int
}

// RepairChapters first strips table-of-contents residue from stored
// chapters, then rewrites chapters whose number disagrees with the unit's
// vocabulary list. A corrected chapter takes the full title used by
// agreeing occurrences of the same unit, or the bare number when none has
// one. Terms in the list's unscoped bucket are left alone.
func RepairChapters(ctx context.Context, st *store.Store, cache *vocab.Cache, dryRun bool, logger *slog.Logger) (ChapterRepairResult, error) {
	var result ChapterRepairResult
	logger = logging.NewComponentLogger(logger, "maintenance")

	tx, err := st.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback() }()

	units, err := tx.Units(ctx)
	if err != nil {
		return result, err
	}
	for _, unit := range units {
		occurrences, err := tx.UnitOccurrences(ctx, unit.Unit)
		if err != nil {
			return result, err
		}
		for i, occ := range occurrences {
			cleaned := extraction.CleanChapter(occ.Chapter)
			if cleaned == occ.Chapter {
				continue
			}
			if err := tx.UpdateChapter(ctx, occ.ID, cleaned); err != nil {
				return result, err
			}
			occurrences[i].Chapter = cleaned
			result.Cleaned++
		}

		ix, err := unitIndex(cache, unit)
		if err != nil {
			result.UnitsWithoutList++
			logger.Debug("chapter check skipped", logging.String(logging.FieldUnit, unit.String()), logging.Error(err))
			continue
		}
		if err := fixMismatches(ctx, tx, ix, unit.Unit, occurrences, &result, logger); err != nil {
			return result, err
		}
	}

	if dryRun {
		return result, nil
	}
	return result, tx.Commit()
}

func unitIndex(cache *vocab.Cache, unit store.UnitInfo) (*vocab.Index, error) {
	if unit.VocabSource != "" {
		ix, err := cache.Load(unit.VocabSource)
		if !errors.Is(err, vocab.ErrSourceNotFound) {
			return ix, err
		}
	}
	return cache.ForBooklet(unit.SourcePath, "")
}

func fixMismatches(ctx context.Context, tx *store.Tx, ix *vocab.Index, unit store.Unit, occurrences []store.Occurrence, result *ChapterRepairResult, logger *slog.Logger) error {
	titles := make(map[string]string)
	for _, occ := range occurrences {
		want, ok := ix.ChapterOf(occ.Term)
		if !ok {
			continue
		}
		if got, ok := extraction.ChapterNumber(occ.Chapter); ok && got == want {
			if _, seen := titles[want]; !seen && titledChapter.MatchString(strings.TrimSpace(occ.Chapter)) {
				titles[want] = occ.Chapter
			}
		}
	}

	for _, occ := range occurrences {
		want, ok := ix.ChapterOf(occ.Term)
		if !ok || want == vocab.UnscopedChapter {
			continue
		}
		if got, ok := extraction.ChapterNumber(occ.Chapter); ok && got == want {
			continue
		}
		title, ok := titles[want]
		if !ok {
			title = want
			result.FallbackToNumber++
			logger.Info("no chapter title found, using number",
				logging.String(logging.FieldUnit, unit.String()),
				logging.String(logging.FieldTerm, occ.Term),
				logging.String("chapter", want),
			)
		}
		if err := tx.UpdateChapter(ctx, occ.ID, title); err != nil {
			return err
		}
		result.Fixed++
	}
	return nil
}
