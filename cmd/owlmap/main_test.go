package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/audit"
	"owlmap/internal/config"
	"owlmap/internal/extraction"
	"owlmap/internal/store"
	"owlmap/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	layout     testsupport.UnitLayout
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv(config.DatabaseEnvVar, "")

	cfg := testsupport.NewConfig(t)
	layout := testsupport.NewUnitLayout(t, "Rome")
	cfg.Paths.CorpusRoot = layout.UnitDir

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, layout: layout}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
database = %q
output_dir = %q
corpus_root = %q
log_dir = %q

[logging]
level = "error"
`, cfg.Paths.Database, cfg.Paths.OutputDir, cfg.Paths.CorpusRoot, filepath.Join(testsupport.BaseDir(cfg), "logs"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (env *cliTestEnv) writeRomeUnit(t *testing.T) string {
	t.Helper()
	testsupport.WriteVocab(t, filepath.Join(env.layout.VocabDir, "Rome vocab.txt"),
		[]string{"1", "2"},
		map[string][]string{"1": {"Republic", "Senate"}, "2": {"Huns", "empire"}})
	return testsupport.WriteExtraction(t, filepath.Join(env.layout.BookletDir, "rome.json"), extraction.Document{
		SourcePath: "rome.pptx",
		Subject:    "History",
		Year:       7,
		TermPeriod: "Autumn",
		Unit:       "Rome",
		Slides: testsupport.Slides(
			[]string{"The Roman Republic was ruled by the Senate."},
			[]string{"The Huns attacked the borders of the empire."},
		),
		Candidates: []extraction.Candidate{
			{Term: "Republic", Location: 1, Context: "The Roman Republic was ruled by the Senate."},
			{Term: "Huns", Location: 2, Context: "The Huns attacked the borders of the empire."},
			{Term: "aqueduct", Location: 2, Context: "Water arrived by aqueduct over many miles."},
		},
	})
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, env.cfg.Paths.Database)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, "config", "init", "--path", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, target)

	_, err = runCLI(t, env, "config", "init", "--path", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestBadConfigIsSetupFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	require.NoError(t, os.WriteFile(env.configPath, []byte("[matching]\nfuzzy_threshold = 7\n"), 0o644))

	_, err := runCLI(t, env, "db", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestMissingStoreIsSetupFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.writeRomeUnit(t)

	_, err := runCLI(t, env, "ingest", path)
	require.ErrorIs(t, err, store.ErrStoreMissing)
	assert.NoFileExists(t, env.cfg.Paths.Database, "ingest never creates the store")

	out, err := runCLI(t, env, "db", "health")
	require.ErrorIs(t, err, store.ErrStoreMissing)
	assert.Contains(t, out, "Database exists: no")
}

func TestDBInitAndHealth(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "db", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version: "+store.LatestSchemaVersion())
	assert.FileExists(t, env.cfg.Paths.Database)

	out, err = runCLI(t, env, "db", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Integrity check: ok")
	assert.Contains(t, out, "Healthy: yes")
	assert.Contains(t, out, `check="Output directory" state=ok`)

	out, err = runCLI(t, env, "--json", "db", "health")
	require.NoError(t, err)
	assert.Contains(t, out, `"healthy": true`)
}

func TestIngestAuditApplyRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	extractionPath := env.writeRomeUnit(t)

	_, err := runCLI(t, env, "db", "init")
	require.NoError(t, err)

	out, err := runCLI(t, env, "ingest")
	require.NoError(t, err, "no arguments walks the corpus root")
	assert.Contains(t, out, "Files processed: 1")
	assert.Contains(t, out, "Occurrences inserted: 3")
	assert.Contains(t, out, "Status confirmed_with_flag: 1")

	out, err = runCLI(t, env, "ingest", extractionPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Files skipped: 1", "stored sources are resumed, not re-read")

	auditPath := filepath.Join(t.TempDir(), "audit.csv")
	out, err = runCLI(t, env, "audit", "build", "--output", auditPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Issues: 3")
	assert.Contains(t, out, "missed_from_extraction: 2")
	assert.Contains(t, out, "potential_noise: 1")

	file, err := os.Open(auditPath)
	require.NoError(t, err)
	issues, invalid, err := audit.Read(file)
	require.NoError(t, file.Close())
	require.NoError(t, err)
	require.Empty(t, invalid)
	for i := range issues {
		switch issues[i].Type {
		case audit.IssueMissed:
			issues[i].Decision = "add"
		case audit.IssueNoise:
			issues[i].Decision = "delete"
		}
	}
	var buf bytes.Buffer
	require.NoError(t, audit.Write(&buf, issues))
	require.NoError(t, os.WriteFile(auditPath, buf.Bytes(), 0o644))

	out, err = runCLI(t, env, "audit", "apply", auditPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Added: 2")
	assert.Contains(t, out, "Deleted: 1")
	assert.Contains(t, out, "Orphan concepts removed: 1")
	assert.Contains(t, out, "Errors: 0")
	assert.FileExists(t, env.cfg.DecisionLogPath())

	out, err = runCLI(t, env, "audit", "apply", auditPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Added: 0")
	assert.Contains(t, out, "Deleted: 0")
	assert.Contains(t, out, "Unchanged: 3")

	out, err = runCLI(t, env, "audit", "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Issues: 0")
	assert.FileExists(t, env.cfg.AuditPath())
}

func TestApplyRejectsForeignCSV(t *testing.T) {
	env := setupCLITestEnv(t)
	_, err := runCLI(t, env, "db", "init")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,value\na,b\n"), 0o644))

	_, err = runCLI(t, env, "audit", "apply", path)
	require.ErrorIs(t, err, audit.ErrHeader)
}

func TestMaintenanceCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeRomeUnit(t)
	_, err := runCLI(t, env, "db", "init")
	require.NoError(t, err)
	_, err = runCLI(t, env, "ingest")
	require.NoError(t, err)

	out, err := runCLI(t, env, "maintenance", "vocab-first", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Promoted: 1")
	assert.NoFileExists(t, env.cfg.DecisionLogPath())

	out, err = runCLI(t, env, "maintenance", "vocab-first")
	require.NoError(t, err)
	assert.Contains(t, out, "Promoted: 1")
	assert.FileExists(t, env.cfg.DecisionLogPath())

	out, err = runCLI(t, env, "maintenance", "repair-chapters")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: no")
	assert.Contains(t, out, "Units without list: 0")
}
