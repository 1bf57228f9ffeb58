package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"owlmap/internal/classify"
	"owlmap/internal/extraction"
	"owlmap/internal/logging"
	"owlmap/internal/matcher"
	"owlmap/internal/store"
	"owlmap/internal/terms"
	"owlmap/internal/vocab"
)

// Options controls one ingest run.
type Options struct {
	// Force replaces sources that are already stored.
	Force bool
}

// FileResult reports the outcome for one extraction document.
type FileResult struct {
	Path              string
	Source            string
	Unit              store.Unit
	Skipped           bool
	Replaced          int
	Inserted          int
	Duplicates        int
	ConceptsCreated   int
	ConceptsReused    int
	VocabSource       string
	ValidationSkipped bool
	Statuses          map[classify.Status]int
	Warnings          []string
	Err               error
}

// Summary aggregates a run.
type Summary struct {
	Files           []FileResult
	Processed       int
	Skipped         int
	Failed          int
	Inserted        int
	Duplicates      int
	ConceptsCreated int
	ConceptsReused  int
	Statuses        map[classify.Status]int
}

func (s *Summary) record(r FileResult) {
	s.Files = append(s.Files, r)
	switch {
	case r.Err != nil:
		s.Failed++
		return
	case r.Skipped:
		s.Skipped++
		return
	}
	s.Processed++
	s.Inserted += r.Inserted
	s.Duplicates += r.Duplicates
	s.ConceptsCreated += r.ConceptsCreated
	s.ConceptsReused += r.ConceptsReused
	if s.Statuses == nil {
		s.Statuses = make(map[classify.Status]int)
	}
	for status, n := range r.Statuses {
		s.Statuses[status] += n
	}
}

// Ingester classifies and stores extraction documents.
type Ingester struct {
	store   *store.Store
	vocab   *vocab.Cache
	matcher *matcher.Matcher
	flags   classify.FlagOptions
	logger  *slog.Logger
}

// New returns an ingester writing to st.
func New(st *store.Store, cache *vocab.Cache, m *matcher.Matcher, flags classify.FlagOptions, logger *slog.Logger) *Ingester {
	return &Ingester{
		store:   st,
		vocab:   cache,
		matcher: m,
		flags:   flags,
		logger:  logging.NewComponentLogger(logger, "ingest"),
	}
}

// Run ingests every file in one transaction. Per-file failures are reported in
// the summary; the returned error covers only transaction failures.
func (in *Ingester) Run(ctx context.Context, files []string, opts Options) (Summary, error) {
	var summary Summary
	logger := logging.WithContext(ctx, in.logger)

	tx, err := in.store.Begin(ctx)
	if err != nil {
		return summary, err
	}
	defer func() { _ = tx.Rollback() }()

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		result := in.ingestFile(ctx, tx, path, opts, logger)
		if result.Err != nil {
			logging.ErrorWithContext(logger, "extraction file failed", "ingest_file_failed",
				logging.String(logging.FieldSource, path),
				logging.Error(result.Err),
				logging.String(logging.FieldErrorHint, "fix the file and re-run ingest; other files were kept"),
			)
		}
		summary.record(result)
	}

	if err := tx.Commit(); err != nil {
		return summary, err
	}
	logger.Info("ingest complete",
		logging.Int("processed", summary.Processed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("failed", summary.Failed),
		logging.Int("inserted", summary.Inserted),
	)
	return summary, nil
}

func (in *Ingester) ingestFile(ctx context.Context, tx *store.Tx, path string, opts Options, logger *slog.Logger) FileResult {
	result := FileResult{Path: path}

	doc, err := extraction.ReadFile(path)
	if err != nil {
		result.Err = err
		return result
	}
	source := resolvePath(path, doc.SourcePath)
	result.Source = source
	result.Unit = store.Unit{Subject: doc.Subject, Year: doc.Year, TermPeriod: doc.TermPeriod, Name: doc.Unit}
	logger = logger.With(logging.String(logging.FieldUnit, result.Unit.String()))

	ingested, err := tx.SourceIngested(ctx, source)
	if err != nil {
		result.Err = err
		return result
	}
	if ingested && !opts.Force {
		result.Skipped = true
		logger.Info("source already ingested", logging.String(logging.FieldSource, source))
		return result
	}

	ix := in.unitVocabulary(doc, path, source, &result, logger)

	err = tx.Savepoint(ctx, func() error {
		if ingested {
			n, err := tx.DeleteSource(ctx, source)
			if err != nil {
				return err
			}
			result.Replaced = n
		}
		if err := tx.SaveSourceText(ctx, source, doc.Slides); err != nil {
			return err
		}
		for _, c := range doc.Candidates {
			if err := in.ingestCandidate(ctx, tx, doc, source, c, ix, &result); err != nil {
				return fmt.Errorf("candidate %q at %d: %w", c.Term, c.Location, err)
			}
		}
		return nil
	})
	if err != nil {
		// The savepoint discarded every row of this file.
		return FileResult{Path: path, Source: source, Unit: result.Unit, Warnings: result.Warnings, Err: err}
	}

	logger.Info("extraction file ingested",
		logging.String(logging.FieldSource, source),
		logging.Int("inserted", result.Inserted),
		logging.Int("duplicates", result.Duplicates),
		logging.Int("concepts_created", result.ConceptsCreated),
		logging.Bool("validation_skipped", result.ValidationSkipped),
	)
	return result
}

// unitVocabulary returns the unit's vocabulary, or nil when validation must be
// skipped. Missing and malformed lists are noted on the result.
func (in *Ingester) unitVocabulary(doc *extraction.Document, path, source string, result *FileResult, logger *slog.Logger) *vocab.Index {
	override := ""
	if doc.VocabPath != "" {
		override = resolvePath(path, doc.VocabPath)
	}
	ix, err := in.vocab.ForBooklet(source, override)
	switch {
	case err == nil:
		result.VocabSource = ix.Source()
		return ix
	case errors.Is(err, vocab.ErrSourceNotFound):
		result.ValidationSkipped = true
		result.Warnings = append(result.Warnings, "no vocabulary list found; validation skipped")
		logging.WarnWithContext(logger, "vocabulary list not found", "vocab_missing",
			logging.String(logging.FieldSource, source),
			logging.String(logging.FieldImpact, "occurrences stored without validation status"),
			logging.String(logging.FieldErrorHint, "add a vocabulary list beside the booklet folder"),
		)
	default:
		result.ValidationSkipped = true
		result.Warnings = append(result.Warnings, fmt.Sprintf("vocabulary list unusable: %v", err))
		logging.WarnWithContext(logger, "vocabulary list could not be parsed", "vocab_parse_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "occurrences stored without validation status"),
			logging.String(logging.FieldErrorHint, "check the list has chapter headings"),
		)
	}
	return nil
}

func (in *Ingester) ingestCandidate(ctx context.Context, tx *store.Tx, doc *extraction.Document, source string, c extraction.Candidate, ix *vocab.Index, result *FileResult) error {
	term := terms.Clean(c.Term)
	if term == "" {
		result.Warnings = append(result.Warnings, fmt.Sprintf("candidate at %d has only punctuation; skipped", c.Location))
		return nil
	}

	flags := classify.Flags{Flagged: c.Flagged, Reason: c.FlagReason}.
		Merge(classify.DetectFlags(c.Term, c.Context, in.flags))

	occ := store.Occurrence{
		Term:           term,
		Unit:           result.Unit,
		Chapter:        extraction.CleanChapter(c.Chapter),
		Location:       c.Location,
		IsIntroduction: c.IsIntroduction(),
		Context:        c.Context,
		SourcePath:     source,
		FlagReason:     flags.Reason,
		Status:         classify.StatusUnset,
	}
	if ix != nil {
		match := in.matcher.Match(term, ix)
		occ.Status = classify.Classify(flags, match)
		occ.Tier = match.Tier
		occ.Confidence = match.Confidence
		occ.VocabSource = ix.Source()
		if occ.Chapter == "" && match.Matched {
			occ.Chapter = match.Chapter
		}
	}

	concept, created, err := tx.ResolveConcept(ctx, term, doc.Subject)
	if err != nil {
		return err
	}
	occ.ConceptID = concept.ID

	_, inserted, err := tx.InsertOccurrence(ctx, occ)
	if err != nil {
		return err
	}
	switch {
	case !inserted:
		result.Duplicates++
		return nil
	case created:
		result.ConceptsCreated++
	default:
		result.ConceptsReused++
	}
	result.Inserted++
	if result.Statuses == nil {
		result.Statuses = make(map[classify.Status]int)
	}
	result.Statuses[occ.Status]++
	return nil
}

// resolvePath interprets p relative to the extraction file's directory.
func resolvePath(extractionPath, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(filepath.Dir(extractionPath), p)
}
