package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVocab()
	c.normalizeAudit()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(DatabaseEnvVar); ok && strings.TrimSpace(value) != "" {
		c.Paths.Database = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		c.Paths.Database = defaultDatabase
	}
	var err error
	if c.Paths.Database, err = expandPath(c.Paths.Database); err != nil {
		return fmt.Errorf("paths.database: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.CorpusRoot, err = expandPath(strings.TrimSpace(c.Paths.CorpusRoot)); err != nil {
		return fmt.Errorf("paths.corpus_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVocab() {
	c.Vocab.DirKeyword = strings.ToLower(strings.TrimSpace(c.Vocab.DirKeyword))
	if c.Vocab.DirKeyword == "" {
		c.Vocab.DirKeyword = defaultVocabDirKeyword
	}
	exts := make([]string, 0, len(c.Vocab.FileExtensions))
	seen := make(map[string]struct{}, len(c.Vocab.FileExtensions))
	for _, ext := range c.Vocab.FileExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultVocabExtensions...)
	}
	c.Vocab.FileExtensions = exts
}

func (c *Config) normalizeAudit() {
	c.Audit.AuditFile = strings.TrimSpace(c.Audit.AuditFile)
	if c.Audit.AuditFile == "" {
		c.Audit.AuditFile = defaultAuditFile
	}
	c.Audit.DecisionLogFile = strings.TrimSpace(c.Audit.DecisionLogFile)
	if c.Audit.DecisionLogFile == "" {
		c.Audit.DecisionLogFile = defaultDecisionLogFile
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
