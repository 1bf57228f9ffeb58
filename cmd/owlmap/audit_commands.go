package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"owlmap/internal/apply"
	"owlmap/internal/audit"
	"owlmap/internal/fileutil"
	"owlmap/internal/store"
)

func newAuditCommand(ctx *commandContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Build and apply the human review CSV",
	}
	auditCmd.AddCommand(newAuditBuildCommand(ctx))
	auditCmd.AddCommand(newAuditApplyCommand(ctx))
	return auditCmd
}

type unitNoteView struct {
	Unit   string `json:"unit"`
	Reason string `json:"reason"`
}

type auditBuildView struct {
	Path         string         `json:"path"`
	Issues       int            `json:"issues"`
	Counts       map[string]int `json:"counts"`
	SkippedUnits []unitNoteView `json:"skipped_units,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
}

func newAuditBuildCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write the audit CSV of missed, noise and high-priority terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = ctx.configValue().AuditPath()
			}
			return ctx.withStore(cmd.Context(), store.Options{}, func(st *store.Store, logger *slog.Logger) error {
				builder := audit.NewBuilder(st, ctx.vocabCache(), ctx.bookletLoader(), ctx.matcher(), logger)
				report, err := builder.Build(withRunID(cmd.Context()))
				if err != nil {
					return fmt.Errorf("build audit: %w", err)
				}
				if err := writeAuditFile(target, report.Issues); err != nil {
					return err
				}

				view := auditBuildView{Path: target, Issues: len(report.Issues), Counts: map[string]int{}, Warnings: report.Warnings}
				for t, n := range report.Counts() {
					view.Counts[string(t)] = n
				}
				for _, note := range report.SkippedUnits {
					view.SkippedUnits = append(view.SkippedUnits, unitNoteView{Unit: note.Unit.String(), Reason: note.Reason})
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, view)
				}
				printAuditBuild(cmd, view)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination CSV (default output_dir/audit_file)")
	return cmd
}

// writeAuditFile replaces path atomically so a reviewer never opens a
// half-written audit.
func writeAuditFile(path string, issues []audit.Issue) error {
	err := fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return audit.Write(w, issues)
	})
	if err != nil {
		return fmt.Errorf("write audit csv: %w", err)
	}
	return nil
}

func printAuditBuild(cmd *cobra.Command, view auditBuildView) {
	writeSummary(cmd, "Audit", []field{
		{Label: "Audit file", Value: view.Path},
		intField("Issues", view.Issues),
		intField(string(audit.IssueMissed), view.Counts[string(audit.IssueMissed)]),
		intField(string(audit.IssueNoise), view.Counts[string(audit.IssueNoise)]),
		intField(string(audit.IssueHighPriority), view.Counts[string(audit.IssueHighPriority)]),
	})
	skipped := make([]string, 0, len(view.SkippedUnits))
	for _, note := range view.SkippedUnits {
		skipped = append(skipped, fmt.Sprintf("%s: %s", note.Unit, note.Reason))
	}
	writeLines(cmd, "Skipped units", skipped)
	writeLines(cmd, "Warnings", view.Warnings)
}

type rowErrorView struct {
	Line   int    `json:"line"`
	Term   string `json:"term,omitempty"`
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

type auditApplyView struct {
	Path           string         `json:"path"`
	RunID          string         `json:"run_id"`
	Deleted        int            `json:"deleted"`
	Confirmed      int            `json:"confirmed"`
	Added          int            `json:"added"`
	Skipped        int            `json:"skipped"`
	Unchanged      int            `json:"unchanged"`
	OrphansRemoved int            `json:"orphans_removed"`
	DecisionLog    string         `json:"decision_log"`
	Errors         []rowErrorView `json:"errors,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
}

func newAuditApplyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "apply [csv]",
		Short: "Apply reviewer decisions from an audit CSV",
		Long: `Read the decision column of a reviewed audit CSV and apply it: delete or keep
review rows, add missed terms. Applying the same file twice changes nothing
the second time. Every change is appended to the decision log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ctx.configValue().AuditPath()
			if len(args) == 1 {
				path = args[0]
			}
			file, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open audit csv: %w", err)
			}
			defer file.Close()

			return ctx.withStore(cmd.Context(), store.Options{WriteLock: true}, func(st *store.Store, logger *slog.Logger) error {
				decisionLog := ctx.decisionLog()
				summary, err := apply.New(st, decisionLog, logger).ApplyCSV(cmd.Context(), file)
				if errors.Is(err, audit.ErrHeader) {
					return fmt.Errorf("%s: %w", path, err)
				}
				if err != nil {
					return fmt.Errorf("apply decisions: %w", err)
				}
				view := newAuditApplyView(path, decisionLog.Path(), summary)
				if ctx.JSONMode() {
					return writeJSON(cmd, view)
				}
				printAuditApply(cmd, view)
				return nil
			})
		},
	}
}

func newAuditApplyView(path, logPath string, s apply.Summary) auditApplyView {
	view := auditApplyView{
		Path:           path,
		RunID:          s.RunID,
		Deleted:        s.Deleted,
		Confirmed:      s.Confirmed,
		Added:          s.Added,
		Skipped:        s.Skipped,
		Unchanged:      s.Unchanged,
		OrphansRemoved: s.OrphansRemoved,
		DecisionLog:    logPath,
		Warnings:       s.Warnings,
	}
	for _, e := range s.Errors {
		view.Errors = append(view.Errors, rowErrorView{Line: e.Line, Term: e.Term, Action: string(e.Action), Error: e.Err.Error()})
	}
	return view
}

func printAuditApply(cmd *cobra.Command, view auditApplyView) {
	writeSummary(cmd, "Decisions", []field{
		{Label: "Run", Value: view.RunID},
		intField("Deleted", view.Deleted),
		intField("Confirmed", view.Confirmed),
		intField("Added", view.Added),
		intField("Unchanged", view.Unchanged),
		intField("Skipped", view.Skipped),
		intField("Orphan concepts removed", view.OrphansRemoved),
		intField("Errors", len(view.Errors)),
		{Label: "Decision log", Value: view.DecisionLog},
	})
	lines := make([]string, 0, len(view.Errors))
	for _, e := range view.Errors {
		lines = append(lines, fmt.Sprintf("line %d (%s): %s", e.Line, e.Term, e.Error))
	}
	writeLines(cmd, "Row errors", lines)
	writeLines(cmd, "Warnings", view.Warnings)
}
