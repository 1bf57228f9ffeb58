package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"owlmap/internal/preflight"
	"owlmap/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Knowledge-map store utilities",
	}
	dbCmd.AddCommand(newDBInitCommand(ctx))
	dbCmd.AddCommand(newDBHealthCommand(ctx))
	return dbCmd
}

func newDBInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store (if missing) and apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), store.Options{Create: true, WriteLock: true}, func(st *store.Store, _ *slog.Logger) error {
				health, err := st.CheckHealth(cmd.Context())
				if err != nil {
					return fmt.Errorf("check store: %w", err)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]string{"path": st.Path(), "schema_version": health.SchemaVersion})
				}
				writeSummary(cmd, "Store", []field{
					{Label: "Database path", Value: st.Path()},
					{Label: "Schema version", Value: health.SchemaVersion},
				})
				return nil
			})
		},
	}
}

type healthView struct {
	DBPath           string             `json:"db_path"`
	DatabaseExists   bool               `json:"database_exists"`
	DatabaseReadable bool               `json:"database_readable"`
	SchemaVersion    string             `json:"schema_version"`
	LatestVersion    string             `json:"latest_version"`
	MissingTables    []string           `json:"missing_tables,omitempty"`
	IntegrityCheck   string             `json:"integrity_check"`
	Concepts         int                `json:"concepts"`
	Occurrences      int                `json:"occurrences"`
	Edges            int                `json:"edges"`
	OrphanConcepts   int                `json:"orphan_concepts"`
	Statuses         map[string]int     `json:"statuses,omitempty"`
	Healthy          bool               `json:"healthy"`
	Error            string             `json:"error,omitempty"`
	Preflight        []preflight.Result `json:"preflight"`
}

func newDBHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check store health (schema, integrity, orphans, status counts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			checks := preflight.RunAll(cfg)

			err := ctx.withStore(cmd.Context(), store.Options{}, func(st *store.Store, _ *slog.Logger) error {
				health, err := st.CheckHealth(cmd.Context())
				view := newHealthView(health, checks)
				if ctx.JSONMode() {
					if jsonErr := writeJSON(cmd, view); jsonErr != nil {
						return jsonErr
					}
				} else {
					printHealth(cmd, view)
				}
				return err
			})
			if errors.Is(err, store.ErrStoreMissing) {
				view := healthView{DBPath: cfg.Paths.Database, LatestVersion: store.LatestSchemaVersion(), Error: err.Error(), Preflight: checks}
				if ctx.JSONMode() {
					_ = writeJSON(cmd, view)
				} else {
					printHealth(cmd, view)
				}
			}
			return err
		},
	}
}

func newHealthView(h store.DatabaseHealth, checks []preflight.Result) healthView {
	return healthView{
		DBPath:           h.DBPath,
		DatabaseExists:   h.DatabaseExists,
		DatabaseReadable: h.DatabaseReadable,
		SchemaVersion:    h.SchemaVersion,
		LatestVersion:    h.LatestVersion,
		MissingTables:    h.MissingTables,
		IntegrityCheck:   h.IntegrityCheck,
		Concepts:         h.Concepts,
		Occurrences:      h.Occurrences,
		Edges:            h.Edges,
		OrphanConcepts:   h.OrphanConcepts,
		Statuses:         statusNames(h.StatusCounts),
		Healthy:          h.Healthy(),
		Error:            h.Error,
		Preflight:        checks,
	}
}

func printHealth(cmd *cobra.Command, view healthView) {
	missing := "none"
	if len(view.MissingTables) > 0 {
		tables := append([]string(nil), view.MissingTables...)
		sort.Strings(tables)
		missing = strings.Join(tables, ", ")
	}
	fields := []field{
		{Label: "Database path", Value: view.DBPath},
		{Label: "Database exists", Value: yesNo(view.DatabaseExists)},
		{Label: "Readable", Value: yesNo(view.DatabaseReadable)},
		{Label: "Schema version", Value: fmt.Sprintf("%s (latest %s)", view.SchemaVersion, view.LatestVersion)},
		{Label: "Missing tables", Value: missing},
		{Label: "Integrity check", Value: view.IntegrityCheck},
		intField("Concepts", view.Concepts),
		intField("Occurrences", view.Occurrences),
		intField("Edges", view.Edges),
		intField("Orphan concepts", view.OrphanConcepts),
	}
	fields = append(fields, statusFields(view.Statuses)...)
	fields = append(fields, field{Label: "Healthy", Value: yesNo(view.DatabaseExists && view.Healthy)})
	writeSummary(cmd, "Store health", fields)

	rows := make([][]string, 0, len(view.Preflight))
	for _, r := range view.Preflight {
		state := "ok"
		if !r.Passed {
			state = "FAIL"
		}
		rows = append(rows, []string{r.Name, state, r.Detail})
	}
	writeRows(cmd, "Directories", []string{"Check", "State", "Detail"}, rows, nil)

	if view.Error != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", view.Error)
	}
}
