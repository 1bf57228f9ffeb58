package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/config"
	"owlmap/internal/logging"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "error"

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Error("hello")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestConsoleLoggerPrefixesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	require.NoError(t, err)

	logger = logging.NewComponentLogger(logger, "ingest")
	logger.Info("unit ingested", logging.Int("occurrences", 3), logging.String(logging.FieldUnit, "Unit 1"))

	line := buf.String()
	assert.Contains(t, line, "INFO ingest: unit ingested")
	assert.Contains(t, line, `unit ingested unit="Unit 1" occurrences=3`, "unit leads the fields")
	assert.NotContains(t, line, ".go:", "info logs should omit caller")
}

func TestConsoleLoggerShortensRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Console: &buf})
	require.NoError(t, err)

	ctx := logging.WithRunID(context.Background(), "0123456789abcdef")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "apply")).Info("decisions applied")

	line := buf.String()
	assert.Contains(t, line, "INFO apply [01234567]: decisions applied")
	assert.NotContains(t, line, "run_id=")
}

func TestJSONLoggerEmitsRunID(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Console: io.Discard, File: logPath})
	require.NoError(t, err)

	ctx := logging.WithRunID(context.Background(), "run-123")
	logging.WithContext(ctx, logger).Info("applied")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &payload))
	assert.Equal(t, "run-123", payload[logging.FieldRunID])
	assert.Equal(t, "info", payload["level"])
	assert.Contains(t, payload, "ts")
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", Console: &buf})
	require.NoError(t, err)

	logger.Info("suppressed")
	logging.WarnWithContext(logger, "vocab missing", "vocab_not_found",
		logging.String(logging.FieldImpact, "unit skipped"),
		logging.String(logging.FieldSource, "rome.pptx"))

	line := buf.String()
	assert.NotContains(t, line, "suppressed")
	assert.Contains(t, line, "event_type=vocab_not_found")
	assert.Contains(t, line, `impact="unit skipped"`)
	assert.Less(t, strings.Index(line, "source="), strings.Index(line, "event_type="), "diagnostics close the line")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(line), `error_hint="check logs for details"`))
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	logger.Error("ignored")
	logging.ErrorWithContext(nil, "ignored", "noop")
}
