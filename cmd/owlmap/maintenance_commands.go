package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"owlmap/internal/maintenance"
	"owlmap/internal/store"
)

func newMaintenanceCommand(ctx *commandContext) *cobra.Command {
	maintenanceCmd := &cobra.Command{
		Use:    "maintenance",
		Short:  "One-off store migrations",
		Hidden: true,
	}
	maintenanceCmd.AddCommand(newVocabFirstCommand(ctx))
	maintenanceCmd.AddCommand(newRepairChaptersCommand(ctx))
	return maintenanceCmd
}

func newVocabFirstCommand(ctx *commandContext) *cobra.Command {
	var opts maintenance.VocabFirstOptions

	cmd := &cobra.Command{
		Use:   "vocab-first",
		Short: "Promote confirmed_with_flag occurrences to confirmed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), store.Options{WriteLock: true}, func(st *store.Store, logger *slog.Logger) error {
				result, err := maintenance.VocabFirst(cmd.Context(), st, ctx.decisionLog(), opts, logger)
				if err != nil {
					return fmt.Errorf("vocab-first: %w", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"run_id":          result.RunID,
						"dry_run":         opts.DryRun,
						"promoted":        result.Promoted,
						"deleted":         result.Deleted,
						"orphans_removed": result.OrphansRemoved,
						"refused":         result.Refused,
					})
				}
				writeSummary(cmd, "Vocab-first", []field{
					{Label: "Dry run", Value: yesNo(opts.DryRun)},
					intField("Promoted", result.Promoted),
					intField("Deleted", result.Deleted),
					intField("Orphan concepts removed", result.OrphansRemoved),
				})
				writeLines(cmd, "Kept (referenced by edges)", result.Refused)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.DeleteReview, "delete-review", false, "Also delete potential_noise and high_priority_review occurrences")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Report what would change without writing")
	return cmd
}

func newRepairChaptersCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "repair-chapters",
		Short: "Clean stored chapters and realign them with vocabulary lists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), store.Options{WriteLock: true}, func(st *store.Store, logger *slog.Logger) error {
				result, err := maintenance.RepairChapters(cmd.Context(), st, ctx.vocabCache(), dryRun, logger)
				if err != nil {
					return fmt.Errorf("repair chapters: %w", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"dry_run":            dryRun,
						"cleaned":            result.Cleaned,
						"fixed":              result.Fixed,
						"fallback_to_number": result.FallbackToNumber,
						"units_without_list": result.UnitsWithoutList,
					})
				}
				writeSummary(cmd, "Chapter repair", []field{
					{Label: "Dry run", Value: yesNo(dryRun)},
					intField("Cleaned", result.Cleaned),
					intField("Fixed", result.Fixed),
					intField("Fell back to number", result.FallbackToNumber),
					intField("Units without list", result.UnitsWithoutList),
				})
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	return cmd
}
