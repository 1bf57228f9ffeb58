package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"owlmap/internal/apply"
	"owlmap/internal/classify"
	"owlmap/internal/logging"
	"owlmap/internal/store"
)

// VocabFirstOptions selects the steps of the vocab-first migration.
type VocabFirstOptions struct {
	// DeleteReview also removes every potential_noise and
	// high_priority_review occurrence.
	DeleteReview bool
	// DryRun counts without committing or logging.
	DryRun bool
}

// VocabFirstResult reports what the migration did or would do.
type VocabFirstResult struct {
	RunID          string
	Promoted       int
	Deleted        int
	OrphansRemoved int
	// Refused lists review occurrences kept because edges reference them.
	Refused []string
}

// VocabFirst promotes every confirmed_with_flag occurrence to confirmed,
// trusting vocabulary membership over extraction flags. Each change is
// written to the decision log.
func VocabFirst(ctx context.Context, st *store.Store, decisionLog *apply.DecisionLog, opts VocabFirstOptions, logger *slog.Logger) (VocabFirstResult, error) {
	result := VocabFirstResult{RunID: uuid.NewString()}
	ctx = logging.WithRunID(ctx, result.RunID)
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "maintenance"))

	tx, err := st.Begin(ctx)
	if err != nil {
		return result, err
	}
	defer func() { _ = tx.Rollback() }()

	var entries []apply.LogEntry
	if opts.DeleteReview {
		review, err := tx.OccurrencesWithStatus(ctx, classify.StatusPotentialNoise, classify.StatusHighPriorityReview)
		if err != nil {
			return result, err
		}
		for _, occ := range review {
			var res store.DeleteResult
			err := tx.Savepoint(ctx, func() error {
				var delErr error
				res, delErr = tx.DeleteOccurrence(ctx, occ.ID)
				return delErr
			})
			if errors.Is(err, store.ErrIntegrityViolation) {
				result.Refused = append(result.Refused, fmt.Sprintf("%s (%d) in %s", occ.Term, occ.ID, occ.Unit))
				logging.WarnWithContext(logger, "review occurrence kept", "delete_refused",
					logging.Int64(logging.FieldOccurrenceID, occ.ID),
					logging.String(logging.FieldTerm, occ.Term),
					logging.String(logging.FieldImpact, "occurrence still awaits review"),
					logging.String(logging.FieldErrorHint, "remove its edges first"),
				)
				continue
			}
			if err != nil {
				return result, err
			}
			if !res.Deleted {
				continue
			}
			result.Deleted++
			notes := "from " + occ.Status.String()
			if res.ConceptRemoved {
				result.OrphansRemoved++
				notes += "; concept removed"
			}
			entries = append(entries, vocabFirstEntry(result.RunID, "vocab_first_delete", occ, apply.ResultDeleted, notes))
		}
	}

	flagged, err := tx.OccurrencesWithStatus(ctx, classify.StatusConfirmedWithFlag)
	if err != nil {
		return result, err
	}
	for _, occ := range flagged {
		changed, err := tx.UpdateStatus(ctx, occ.ID, classify.StatusConfirmed)
		if err != nil {
			return result, err
		}
		if !changed {
			continue
		}
		result.Promoted++
		entries = append(entries, vocabFirstEntry(result.RunID, "vocab_first_promote", occ, apply.ResultConfirmed, "flag: "+occ.FlagReason))
	}

	if opts.DryRun {
		logger.Info("vocab-first dry run", logging.Int("promoted", result.Promoted), logging.Int("deleted", result.Deleted))
		return result, nil
	}
	if err := tx.Commit(); err != nil {
		return result, err
	}
	now := time.Now()
	for i := range entries {
		entries[i].Timestamp = now
	}
	if err := decisionLog.AppendCommitted(result.RunID, entries, logger); err != nil {
		return result, err
	}
	logger.Info("vocab-first migration applied",
		logging.Int("promoted", result.Promoted),
		logging.Int("deleted", result.Deleted),
		logging.Int("orphans_removed", result.OrphansRemoved),
		logging.Int("refused", len(result.Refused)),
	)
	return result, nil
}

func vocabFirstEntry(runID, action string, occ store.Occurrence, result, notes string) apply.LogEntry {
	return apply.LogEntry{
		RunID:        runID,
		Action:       action,
		IssueType:    occ.Status.String(),
		Term:         occ.Term,
		Unit:         occ.Unit.String(),
		OccurrenceID: occ.ID,
		Result:       result,
		Notes:        notes,
	}
}
