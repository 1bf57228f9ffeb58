package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"owlmap/internal/booklet"
	"owlmap/internal/classify"
	"owlmap/internal/logging"
	"owlmap/internal/matcher"
	"owlmap/internal/store"
	"owlmap/internal/terms"
	"owlmap/internal/vocab"
)

// Builder regenerates the audit from the store.
type Builder struct {
	store    *store.Store
	vocab    *vocab.Cache
	booklets *booklet.Loader
	matcher  *matcher.Matcher
	logger   *slog.Logger
}

// NewBuilder returns a builder reading st.
func NewBuilder(st *store.Store, cache *vocab.Cache, loader *booklet.Loader, m *matcher.Matcher, logger *slog.Logger) *Builder {
	return &Builder{
		store:    st,
		vocab:    cache,
		booklets: loader,
		matcher:  m,
		logger:   logging.NewComponentLogger(logger, "audit"),
	}
}

// Build produces the issue set for every stored unit. It fails only when the
// store cannot be read or an occurrence reference does not resolve uniquely.
func (b *Builder) Build(ctx context.Context) (Report, error) {
	var report Report
	logger := logging.WithContext(ctx, b.logger)

	units, err := b.store.Units(ctx)
	if err != nil {
		return report, err
	}
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := b.buildUnit(ctx, unit, &report, logger.With(logging.String(logging.FieldUnit, unit.String()))); err != nil {
			return report, err
		}
	}

	counts := report.Counts()
	logger.Info("audit built",
		logging.Int("units", len(units)),
		logging.Int(string(IssueMissed), counts[IssueMissed]),
		logging.Int(string(IssueNoise), counts[IssueNoise]),
		logging.Int(string(IssueHighPriority), counts[IssueHighPriority]),
		logging.Int("skipped_units", len(report.SkippedUnits)),
	)
	return report, nil
}

func (b *Builder) buildUnit(ctx context.Context, unit store.UnitInfo, report *Report, logger *slog.Logger) error {
	occurrences, err := b.store.UnitOccurrences(ctx, unit.Unit)
	if err != nil {
		return err
	}

	ix := b.unitVocabulary(unit, report, logger)
	if ix != nil {
		report.Issues = append(report.Issues, b.missedIssues(ctx, unit, ix, occurrences, report, logger)...)
	}

	review, err := b.reviewIssues(ctx, unit, occurrences)
	if err != nil {
		return err
	}
	report.Issues = append(report.Issues, review...)
	return nil
}

func (b *Builder) unitVocabulary(unit store.UnitInfo, report *Report, logger *slog.Logger) *vocab.Index {
	var (
		ix  *vocab.Index
		err error
	)
	if unit.VocabSource != "" {
		ix, err = b.vocab.Load(unit.VocabSource)
	}
	if unit.VocabSource == "" || errors.Is(err, vocab.ErrSourceNotFound) {
		// The list used at ingest may have moved; look again.
		ix, err = b.vocab.ForBooklet(unit.SourcePath, "")
	}
	switch {
	case err == nil:
		return ix
	case errors.Is(err, vocab.ErrSourceNotFound):
		report.SkippedUnits = append(report.SkippedUnits, UnitNote{Unit: unit.Unit, Reason: "validation skipped: no vocabulary list"})
		logger.Info("validation skipped", logging.String("reason", "no vocabulary list"))
	default:
		report.SkippedUnits = append(report.SkippedUnits, UnitNote{Unit: unit.Unit, Reason: "validation skipped: vocabulary list unusable"})
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", unit.Unit, err))
		logging.WarnWithContext(logger, "vocabulary list could not be parsed", "vocab_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "missed terms not reported for this unit"),
			logging.String(logging.FieldErrorHint, "check the list has chapter headings"),
		)
	}
	return nil
}

// missedIssues reports vocabulary entries that no vocabulary-backed or
// unvalidated occurrence matches, in vocabulary order.
func (b *Builder) missedIssues(ctx context.Context, unit store.UnitInfo, ix *vocab.Index, occurrences []store.Occurrence, report *Report, logger *slog.Logger) []Issue {
	covered := make(map[string]struct{})
	var (
		sources []string
		pending int
	)
	for _, o := range occurrences {
		if o.SourcePath != "" && !slices.Contains(sources, o.SourcePath) {
			sources = append(sources, o.SourcePath)
		}
		unvalidated := o.Status == classify.StatusUnset
		if !o.Status.VocabBacked() && !unvalidated {
			continue
		}
		if unvalidated {
			pending++
		}
		if res := b.matcher.Match(o.Term, ix); res.Matched {
			covered[terms.Canonical(res.VocabTerm)] = struct{}{}
		}
	}
	slices.Sort(sources)
	if pending > 0 {
		// Stored before the list was found; the extracted terms still cover it.
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %d occurrences ingested without a vocabulary list; re-ingest with --force to validate", unit.Unit, pending))
		logging.WarnWithContext(logger, "occurrences were never validated", "unvalidated_occurrences",
			logging.Int("count", pending),
			logging.String(logging.FieldSource, ix.Source()),
			logging.String(logging.FieldImpact, "noise and review statuses are missing for these occurrences"),
			logging.String(logging.FieldErrorHint, "re-ingest the unit with --force"),
		)
	}

	var docs []*booklet.Document
	for _, source := range sources {
		if doc := b.sourceText(ctx, source, report, logger); doc != nil {
			docs = append(docs, doc)
		}
	}

	var issues []Issue
	for _, entry := range ix.Entries() {
		if _, ok := covered[terms.Canonical(entry.Term)]; ok {
			continue
		}
		issue := Issue{
			Type:            IssueMissed,
			Unit:            unit.Unit,
			Chapter:         entry.Chapter,
			Term:            entry.Term,
			VocabSource:     ix.Source(),
			AppearsUnbolded: PresenceNoSource,
		}
		if len(docs) > 0 {
			issue.AppearsUnbolded = PresenceAbsent
			for _, doc := range docs {
				hit := doc.Search(entry.Term)
				if !hit.Found {
					continue
				}
				issue.AppearsUnbolded = PresenceFound
				for _, loc := range hit.Locations {
					if !slices.Contains(issue.UnboldedLocations, loc) {
						issue.UnboldedLocations = append(issue.UnboldedLocations, loc)
					}
				}
				if issue.UnboldedContext == "" {
					issue.UnboldedContext = hit.FirstContext
				}
			}
		} else {
			issue.Notes = "source text unavailable"
		}
		issues = append(issues, issue)
	}
	return issues
}

// sourceText prefers the booklet file itself and falls back to the text saved
// from the extraction document.
func (b *Builder) sourceText(ctx context.Context, source string, report *Report, logger *slog.Logger) *booklet.Document {
	doc, err := b.booklets.Open(source)
	switch {
	case err == nil && !doc.Empty():
		return doc
	case err != nil && !errors.Is(err, booklet.ErrUnsupported) && !errors.Is(err, os.ErrNotExist):
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", source, err))
		logging.WarnWithContext(logger, "booklet could not be read", "booklet_unreadable",
			logging.String(logging.FieldSource, source),
			logging.Error(err),
			logging.String(logging.FieldImpact, "falling back to stored extraction text"),
		)
	}
	stored, err := b.store.SourceText(ctx, source)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", source, err))
		return nil
	}
	if stored.Empty() {
		return nil
	}
	return stored
}

// reviewIssues emits one issue per occurrence awaiting review, noise first,
// each in document order. Every reference must resolve to exactly one row.
func (b *Builder) reviewIssues(ctx context.Context, unit store.UnitInfo, occurrences []store.Occurrence) ([]Issue, error) {
	var issues []Issue
	for _, o := range occurrences {
		if !o.Status.NeedsReview() {
			continue
		}
		issue := Issue{
			Type:         IssueType(o.Status.String()),
			Unit:         unit.Unit,
			Chapter:      o.Chapter,
			Term:         o.Term,
			Location:     o.Location,
			Context:      o.Context,
			FlagReason:   o.FlagReason,
			VocabSource:  o.VocabSource,
			OccurrenceID: o.ID,
		}
		if _, err := b.store.ResolveReference(ctx, issue.Reference()); err != nil {
			return nil, fmt.Errorf("audit %s: %w", unit.Unit, err)
		}
		issues = append(issues, issue)
	}
	slices.SortStableFunc(issues, func(a, b Issue) int { return a.Type.rank() - b.Type.rank() })
	return issues, nil
}
