package apply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"owlmap/internal/audit"
	"owlmap/internal/classify"
	"owlmap/internal/logging"
	"owlmap/internal/matcher"
	"owlmap/internal/store"
)

// Outcome results reported per applied row.
const (
	ResultDeleted   = "deleted"
	ResultConfirmed = "confirmed"
	ResultAdded     = "added"
	ResultUnchanged = "unchanged"
)

// ErrNotInSource indicates an add for a term the source text does not contain.
var ErrNotInSource = errors.New("term not found unbolded in source text")

// RowError is a row that could not be applied.
type RowError struct {
	Line   int
	Term   string
	Action Action
	Err    error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d (%q, %s): %v", e.Line, e.Term, e.Action, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Summary counts outcomes of one apply run.
type Summary struct {
	RunID          string
	Deleted        int
	Confirmed      int
	Added          int
	Skipped        int
	Unchanged      int
	OrphansRemoved int
	Errors         []RowError
	Warnings       []string
}

// Changed reports whether the run altered the store.
func (s Summary) Changed() int { return s.Deleted + s.Confirmed + s.Added }

// Applier executes decisions against a store.
type Applier struct {
	store  *store.Store
	log    *DecisionLog
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// New returns an applier writing to st and appending to decisionLog.
func New(st *store.Store, decisionLog *DecisionLog, logger *slog.Logger) *Applier {
	return &Applier{
		store:  st,
		log:    decisionLog,
		logger: logging.NewComponentLogger(logger, "apply"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// ApplyCSV reads an audit CSV and applies it. Rows the reader rejects are
// reported as errors alongside the applied ones.
func (a *Applier) ApplyCSV(ctx context.Context, r io.Reader) (Summary, error) {
	issues, invalid, err := audit.Read(r)
	if err != nil {
		return Summary{}, err
	}
	summary, err := a.Apply(ctx, issues)
	for _, row := range invalid {
		summary.Errors = append(summary.Errors, RowError{Line: row.Line, Term: row.Term, Err: row.Err})
	}
	sort.SliceStable(summary.Errors, func(i, j int) bool { return summary.Errors[i].Line < summary.Errors[j].Line })
	return summary, err
}

type rowResult struct {
	result         string
	occurrenceID   int64
	conceptRemoved bool
	notes          string
}

// Apply runs every decision in one transaction. Only transaction and decision
// log failures are returned; row failures are collected in the summary.
func (a *Applier) Apply(ctx context.Context, issues []audit.Issue) (Summary, error) {
	summary := Summary{RunID: a.newID()}
	ctx = logging.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, a.logger)

	tx, err := a.store.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer func() { _ = tx.Rollback() }()

	var entries []LogEntry
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		rowLogger := logger.With(
			logging.String(logging.FieldUnit, issue.Unit.String()),
			logging.String(logging.FieldTerm, issue.Term),
			logging.Int("line", issue.Line),
		)

		action, err := ParseDecision(issue.Decision, issue.Type)
		if err != nil {
			summary.Skipped++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("line %d (%q): %v; row skipped", issue.Line, issue.Term, err))
			logging.WarnWithContext(rowLogger, "decision not recognized", "invalid_decision",
				logging.Error(err),
				logging.String(logging.FieldImpact, "row skipped"),
				logging.String(logging.FieldErrorHint, "use keep or delete for review rows, add for missed terms"),
			)
			continue
		}
		if action == ActionSkip {
			summary.Skipped++
			continue
		}

		var res rowResult
		err = tx.Savepoint(ctx, func() error {
			var rowErr error
			res, rowErr = a.applyRow(ctx, tx, issue, action)
			return rowErr
		})
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Line: issue.Line, Term: issue.Term, Action: action, Err: err})
			logging.ErrorWithContext(rowLogger, "decision failed", "decision_failed",
				logging.String("action", string(action)),
				logging.Error(err),
			)
			continue
		}

		switch res.result {
		case ResultDeleted:
			summary.Deleted++
			if res.conceptRemoved {
				summary.OrphansRemoved++
			}
		case ResultConfirmed:
			summary.Confirmed++
		case ResultAdded:
			summary.Added++
		default:
			summary.Unchanged++
			continue
		}
		rowLogger.Debug("decision applied", logging.String("action", string(action)), logging.Int64(logging.FieldOccurrenceID, res.occurrenceID))
		entries = append(entries, LogEntry{
			RunID:        summary.RunID,
			Action:       string(action),
			IssueType:    string(issue.Type),
			Term:         issue.Term,
			Unit:         issue.Unit.String(),
			OccurrenceID: res.occurrenceID,
			Result:       res.result,
			Notes:        res.notes,
		})
	}

	if err := tx.Commit(); err != nil {
		return summary, err
	}

	now := a.now()
	for i := range entries {
		entries[i].Timestamp = now
	}
	if err := a.log.AppendCommitted(summary.RunID, entries, logger); err != nil {
		return summary, err
	}

	logger.Info("decisions applied",
		logging.Int("deleted", summary.Deleted),
		logging.Int("confirmed", summary.Confirmed),
		logging.Int("added", summary.Added),
		logging.Int("unchanged", summary.Unchanged),
		logging.Int("skipped", summary.Skipped),
		logging.Int("errors", len(summary.Errors)),
	)
	return summary, nil
}

func (a *Applier) applyRow(ctx context.Context, tx *store.Tx, issue audit.Issue, action Action) (rowResult, error) {
	switch action {
	case ActionDelete:
		return a.deleteRow(ctx, tx, issue)
	case ActionKeep:
		return a.keepRow(ctx, tx, issue)
	case ActionAdd:
		return a.addRow(ctx, tx, issue)
	default:
		return rowResult{}, fmt.Errorf("%w: %q", ErrInvalidDecision, action)
	}
}

// resolve finds the row an issue names. gone is true when nothing at all
// matches, as after an earlier run deleted it.
func resolve(ctx context.Context, tx *store.Tx, issue audit.Issue) (store.Occurrence, bool, error) {
	ref := issue.Reference()
	occ, err := tx.ResolveReference(ctx, ref)
	if !errors.Is(err, store.ErrUnresolvableReference) {
		return occ, false, err
	}
	if ref.ID > 0 {
		_, lookupErr := tx.Occurrence(ctx, ref.ID)
		switch {
		case errors.Is(lookupErr, store.ErrNotFound):
			return occ, true, err
		case lookupErr != nil:
			return occ, false, lookupErr
		}
		// The id exists but the row's fields disagree with it.
		return occ, false, err
	}
	matches, findErr := tx.FindOccurrences(ctx, ref.Term, ref.Unit, ref.Location)
	if findErr != nil {
		return occ, false, findErr
	}
	return occ, len(matches) == 0, err
}

func (a *Applier) deleteRow(ctx context.Context, tx *store.Tx, issue audit.Issue) (rowResult, error) {
	occ, gone, err := resolve(ctx, tx, issue)
	if gone {
		return rowResult{result: ResultUnchanged}, nil
	}
	if err != nil {
		return rowResult{}, err
	}
	res, err := tx.DeleteOccurrence(ctx, occ.ID)
	if err != nil {
		return rowResult{}, err
	}
	if !res.Deleted {
		return rowResult{result: ResultUnchanged}, nil
	}
	out := rowResult{result: ResultDeleted, occurrenceID: occ.ID, conceptRemoved: res.ConceptRemoved, notes: "from " + occ.Status.String()}
	if res.ConceptRemoved {
		out.notes += "; concept removed"
	}
	return out, nil
}

func (a *Applier) keepRow(ctx context.Context, tx *store.Tx, issue audit.Issue) (rowResult, error) {
	occ, gone, err := resolve(ctx, tx, issue)
	if gone {
		return rowResult{}, fmt.Errorf("keep: occurrence no longer exists: %w", store.ErrNotFound)
	}
	if err != nil {
		return rowResult{}, err
	}
	changed, err := tx.UpdateStatus(ctx, occ.ID, classify.StatusConfirmed)
	if err != nil {
		return rowResult{}, err
	}
	if !changed {
		return rowResult{result: ResultUnchanged}, nil
	}
	return rowResult{result: ResultConfirmed, occurrenceID: occ.ID, notes: "from " + occ.Status.String()}, nil
}

func (a *Applier) addRow(ctx context.Context, tx *store.Tx, issue audit.Issue) (rowResult, error) {
	if issue.AppearsUnbolded != audit.PresenceFound {
		return rowResult{}, fmt.Errorf("%w (appears_unbolded=%q)", ErrNotInSource, issue.AppearsUnbolded)
	}
	if len(issue.UnboldedLocations) == 0 {
		return rowResult{}, fmt.Errorf("%w: no unbolded location given", ErrNotInSource)
	}
	location := issue.UnboldedLocations[0]

	existing, err := tx.FindOccurrences(ctx, issue.Term, issue.Unit, location)
	if err != nil {
		return rowResult{}, err
	}
	if len(existing) > 0 {
		return rowResult{result: ResultUnchanged}, nil
	}

	unit, err := tx.UnitInfo(ctx, issue.Unit)
	if err != nil {
		return rowResult{}, err
	}
	concept, created, err := tx.ResolveConcept(ctx, issue.Term, issue.Unit.Subject)
	if err != nil {
		return rowResult{}, err
	}
	vocabSource := issue.VocabSource
	if vocabSource == "" {
		vocabSource = unit.VocabSource
	}
	occ, inserted, err := tx.InsertOccurrence(ctx, store.Occurrence{
		ConceptID:      concept.ID,
		Term:           concept.Term,
		Unit:           issue.Unit,
		Chapter:        issue.Chapter,
		Location:       location,
		IsIntroduction: false,
		Context:        issue.UnboldedContext,
		SourcePath:     unit.SourcePath,
		Status:         classify.StatusConfirmed,
		Confidence:     matcher.ExactConfidence,
		Tier:           matcher.TierManualAdd,
		VocabSource:    vocabSource,
	})
	if err != nil {
		return rowResult{}, err
	}
	if !inserted {
		return rowResult{result: ResultUnchanged}, nil
	}
	notes := fmt.Sprintf("location %d", location)
	if created {
		notes += "; concept created"
	}
	return rowResult{result: ResultAdded, occurrenceID: occ.ID, notes: notes}, nil
}
