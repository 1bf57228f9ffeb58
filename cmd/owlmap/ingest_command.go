package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"owlmap/internal/classify"
	"owlmap/internal/ingest"
	"owlmap/internal/store"
)

type ingestFileView struct {
	Path              string         `json:"path"`
	Source            string         `json:"source,omitempty"`
	Unit              string         `json:"unit,omitempty"`
	Skipped           bool           `json:"skipped"`
	Replaced          int            `json:"replaced"`
	Inserted          int            `json:"inserted"`
	Duplicates        int            `json:"duplicates"`
	ConceptsCreated   int            `json:"concepts_created"`
	ConceptsReused    int            `json:"concepts_reused"`
	VocabSource       string         `json:"vocab_source,omitempty"`
	ValidationSkipped bool           `json:"validation_skipped"`
	Statuses          map[string]int `json:"statuses,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
	Error             string         `json:"error,omitempty"`
}

type ingestView struct {
	Files           []ingestFileView `json:"files"`
	Processed       int              `json:"processed"`
	Skipped         int              `json:"skipped"`
	Failed          int              `json:"failed"`
	Inserted        int              `json:"inserted"`
	Duplicates      int              `json:"duplicates"`
	ConceptsCreated int              `json:"concepts_created"`
	ConceptsReused  int              `json:"concepts_reused"`
	Statuses        map[string]int   `json:"statuses,omitempty"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var root string

	cmd := &cobra.Command{
		Use:   "ingest [file|dir...]",
		Short: "Classify extraction JSON files and store their occurrences",
		Long: `Match each candidate term in the given extraction files against its unit's
vocabulary list and record the occurrence with its status. Directories are
searched recursively for *.json files. With no arguments the configured
corpus root is used. Sources already in the store are skipped unless --force.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := args
			if len(targets) == 0 {
				if root = strings.TrimSpace(root); root == "" {
					root = ctx.configValue().Paths.CorpusRoot
				}
				if root == "" {
					return errors.New("no input files given and paths.corpus_root is not configured")
				}
				targets = []string{root}
			}
			files, err := ingest.Discover(targets)
			if err != nil {
				return err
			}

			return ctx.withStore(cmd.Context(), store.Options{WriteLock: true}, func(st *store.Store, logger *slog.Logger) error {
				in := ingest.New(st, ctx.vocabCache(), ctx.matcher(), ctx.flagOptions(), logger)
				summary, err := in.Run(withRunID(cmd.Context()), files, ingest.Options{Force: force})
				if err != nil {
					return fmt.Errorf("ingest: %w", err)
				}
				view := newIngestView(summary)
				if ctx.JSONMode() {
					return writeJSON(cmd, view)
				}
				printIngest(cmd, view)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-ingest sources that are already stored")
	cmd.Flags().StringVar(&root, "root", "", "Directory to search when no files are given (default paths.corpus_root)")
	return cmd
}

func newIngestView(s ingest.Summary) ingestView {
	view := ingestView{
		Files:           make([]ingestFileView, 0, len(s.Files)),
		Processed:       s.Processed,
		Skipped:         s.Skipped,
		Failed:          s.Failed,
		Inserted:        s.Inserted,
		Duplicates:      s.Duplicates,
		ConceptsCreated: s.ConceptsCreated,
		ConceptsReused:  s.ConceptsReused,
		Statuses:        statusNames(s.Statuses),
	}
	for _, f := range s.Files {
		fv := ingestFileView{
			Path:              f.Path,
			Source:            f.Source,
			Skipped:           f.Skipped,
			Replaced:          f.Replaced,
			Inserted:          f.Inserted,
			Duplicates:        f.Duplicates,
			ConceptsCreated:   f.ConceptsCreated,
			ConceptsReused:    f.ConceptsReused,
			VocabSource:       f.VocabSource,
			ValidationSkipped: f.ValidationSkipped,
			Statuses:          statusNames(f.Statuses),
			Warnings:          f.Warnings,
		}
		if f.Unit != (store.Unit{}) {
			fv.Unit = f.Unit.String()
		}
		if f.Err != nil {
			fv.Error = f.Err.Error()
		}
		view.Files = append(view.Files, fv)
	}
	return view
}

func printIngest(cmd *cobra.Command, view ingestView) {
	rows := make([][]string, 0, len(view.Files))
	var notes []string
	for _, f := range view.Files {
		state := "ok"
		switch {
		case f.Error != "":
			state = "failed"
			notes = append(notes, fmt.Sprintf("%s: %s", f.Path, f.Error))
		case f.Skipped:
			state = "skipped"
		case f.ValidationSkipped:
			state = "unvalidated"
		}
		for _, w := range f.Warnings {
			notes = append(notes, fmt.Sprintf("%s: %s", f.Path, w))
		}
		rows = append(rows, []string{
			f.Path, f.Unit, state,
			strconv.Itoa(f.Inserted), strconv.Itoa(f.Duplicates),
			strconv.Itoa(f.ConceptsCreated), strconv.Itoa(f.ConceptsReused),
		})
	}
	writeRows(cmd, "Files",
		[]string{"File", "Unit", "State", "Inserted", "Duplicates", "New concepts", "Reused concepts"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)

	fields := []field{
		intField("Files processed", view.Processed),
		intField("Files skipped", view.Skipped),
		intField("Files failed", view.Failed),
		intField("Occurrences inserted", view.Inserted),
		intField("Duplicates ignored", view.Duplicates),
		intField("Concepts created", view.ConceptsCreated),
		intField("Concepts reused", view.ConceptsReused),
	}
	fields = append(fields, statusFields(view.Statuses)...)
	writeSummary(cmd, "Ingest summary", fields)
	writeLines(cmd, "Warnings", notes)
}

// statusNames keys counts by status name, dropping zero entries.
func statusNames(counts map[classify.Status]int) map[string]int {
	if len(counts) == 0 {
		return nil
	}
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		if n > 0 {
			out[status.String()] = n
		}
	}
	return out
}

// statusFields lists named counts in status order.
func statusFields(counts map[string]int) []field {
	var fields []field
	for _, status := range classify.AllStatuses() {
		if n, ok := counts[status.String()]; ok {
			fields = append(fields, intField("Status "+status.String(), n))
		}
	}
	return fields
}
